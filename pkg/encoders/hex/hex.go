// Package hex provides lowercase hex encoding over the accelerated xhex
// implementation, in the append style used by the rest of the encoders.
package hex

import (
	"github.com/templexxx/xhex"
	"lol.mleku.dev/errorf"
)

// Enc encodes binary data as a lowercase hex string.
func Enc(b []byte) string {
	dst := make([]byte, len(b)*2)
	xhex.Encode(dst, b)
	return string(dst)
}

// EncAppend appends the lowercase hex encoding of src to dst.
func EncAppend(dst, src []byte) []byte {
	l := len(dst)
	dst = append(dst, make([]byte, len(src)*2)...)
	xhex.Encode(dst[l:], src)
	return dst
}

// EncBytes encodes binary data as lowercase hex into a fresh byte slice.
func EncBytes(b []byte) []byte {
	dst := make([]byte, len(b)*2)
	xhex.Encode(dst, b)
	return dst
}

// Dec decodes a hex string into a fresh byte slice.
func Dec(s string) (b []byte, err error) {
	if len(s)%2 != 0 {
		err = errorf.E("hex: odd length input %d", len(s))
		return
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			err = errorf.E("hex: invalid character %q at offset %d", c, i)
			return
		}
	}
	b = make([]byte, len(s)/2)
	if err = xhex.Decode(b, []byte(s)); err != nil {
		b = nil
	}
	return
}

// DecAppend decodes hex source bytes and appends the binary to dst.
func DecAppend(dst, src []byte) (b []byte, err error) {
	if len(src)%2 != 0 {
		err = errorf.E("hex: odd length input %d", len(src))
		return
	}
	l := len(dst)
	dst = append(dst, make([]byte, len(src)/2)...)
	if err = xhex.Decode(dst[l:], src); err != nil {
		return
	}
	b = dst
	return
}
