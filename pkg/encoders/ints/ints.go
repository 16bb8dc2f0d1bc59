// Package ints is an append-style codec for base 10 ASCII integers, used by
// the JSON encoders to avoid reflection and intermediate allocations.
package ints

import (
	"golang.org/x/exp/constraints"
	"lol.mleku.dev/errorf"
)

// T carries an unsigned integer value through marshal/unmarshal.
type T struct {
	N uint64
}

// New creates an ints.T from any integer type. Negative inputs are the
// caller's bug; values are stored unsigned.
func New[V constraints.Integer](n V) *T { return &T{uint64(n)} }

// Uint16 returns the value truncated to 16 bits.
func (n *T) Uint16() uint16 { return uint16(n.N) }

// Uint64 returns the value.
func (n *T) Uint64() uint64 { return n.N }

// Int64 returns the value as a signed 64 bit integer.
func (n *T) Int64() int64 { return int64(n.N) }

// Marshal appends the ASCII base 10 representation of the value to dst.
func (n *T) Marshal(dst []byte) (b []byte) {
	b = dst
	if n.N == 0 {
		return append(b, '0')
	}
	var digits [20]byte
	i := len(digits)
	for v := n.N; v > 0; v /= 10 {
		i--
		digits[i] = byte('0' + v%10)
	}
	return append(b, digits[i:]...)
}

// Unmarshal reads an ASCII base 10 integer from the front of b, returning
// the remainder after the last digit.
func (n *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if len(r) == 0 {
		err = errorf.E("ints: empty input")
		return
	}
	if r[0] < '0' || r[0] > '9' {
		err = errorf.E("ints: not a digit: %q", r[0])
		return
	}
	n.N = 0
	for len(r) > 0 && r[0] >= '0' && r[0] <= '9' {
		d := uint64(r[0] - '0')
		if n.N > (^uint64(0)-d)/10 {
			err = errorf.E("ints: overflow")
			return
		}
		n.N = n.N*10 + d
		r = r[1:]
	}
	return
}
