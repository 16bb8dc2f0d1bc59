// Package timestamp is the unix-seconds time type of the event and filter
// codecs.
package timestamp

import (
	"time"

	"crosstown.dev/pkg/encoders/ints"
)

// T wraps a unix timestamp in seconds.
type T struct {
	V int64
}

// New returns a zero timestamp.
func New() *T { return &T{} }

// Now returns the current time as a timestamp.
func Now() *T { return &T{time.Now().Unix()} }

// FromUnix wraps a unix seconds value.
func FromUnix(v int64) *T { return &T{v} }

// I64 returns the value as int64.
func (t *T) I64() int64 {
	if t == nil {
		return 0
	}
	return t.V
}

// U64 returns the value as uint64, clamping negatives to zero.
func (t *T) U64() uint64 {
	if t == nil || t.V < 0 {
		return 0
	}
	return uint64(t.V)
}

// Marshal appends the ASCII decimal form to dst.
func (t *T) Marshal(dst []byte) []byte {
	return ints.New(t.U64()).Marshal(dst)
}

// Unmarshal reads an ASCII decimal unix timestamp from the front of b.
func (t *T) Unmarshal(b []byte) (r []byte, err error) {
	n := ints.New(0)
	if r, err = n.Unmarshal(b); err != nil {
		return
	}
	t.V = n.Int64()
	return
}
