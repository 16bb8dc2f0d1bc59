// Package bufpool pools the marshal buffers the relay renders wire frames
// into, so steady-state fan-out does not allocate per message.
package bufpool

import (
	"sync"

	"crosstown.dev/pkg/utils/units"
)

// BufferSize is the starting capacity of a pooled buffer; envelopes larger
// than this grow it and the grown buffer returns to the pool.
const BufferSize = units.Kb / 2

// B is a pooled byte buffer.
type B []byte

// ToBytes returns the buffer as a plain byte slice.
func (b B) ToBytes() []byte { return b }

var pool = sync.Pool{
	New: func() any {
		return B(make([]byte, 0, BufferSize))
	},
}

// Get returns an empty buffer from the pool.
//
// Example usage:
//
//	buf := bufpool.Get()
//	defer bufpool.Put(buf)
//	// append into buf...
func Get() B {
	return pool.Get().(B)
}

// Put zeroes a buffer and returns it to the pool.
func Put(b B) {
	for i := range b {
		b[i] = 0
	}
	pool.Put(b[:0])
}

// PutBytes returns a buffer that was not necessarily created by Get, such
// as one that grew during an append.
func PutBytes(b []byte) {
	if b == nil {
		return
	}
	Put(b)
}
