// Package codec defines the envelope interface the wire message types
// implement.
package codec

import "io"

// Envelope is a wire message that knows its label and how to render and
// parse itself.
type Envelope interface {
	Label() string
	Write(w io.Writer) (err error)
	Marshal(dst []byte) (b []byte)
	Unmarshal(b []byte) (r []byte, err error)
}
