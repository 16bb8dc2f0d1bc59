// Package version holds the version string stamped into log output and the
// relay information document.
package version

// V is the current version of the relay.
var V = "v0.3.1"
