// Package pointers provides nil tests for pointer-typed optional values.
package pointers

// Present returns true if the pointer is not nil.
func Present[V any](v *V) bool { return v != nil }
