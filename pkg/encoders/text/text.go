// Package text implements NIP-01 string escaping and the low level JSON
// lexing helpers the envelope and filter codecs are built from.
package text

import (
	"crosstown.dev/pkg/encoders/hex"
	"lol.mleku.dev/errorf"
)

// Escaper mutates a byte into its escaped form appended to dst.
type Escaper func(dst []byte, c byte) []byte

// NostrEscape escapes per NIP-01: the JSON structural escapes only, no \uXXXX
// expansion of high bytes, so hashes over the canonical form are stable.
func NostrEscape(dst []byte, c byte) []byte {
	switch c {
	case '"':
		return append(dst, '\\', '"')
	case '\\':
		return append(dst, '\\', '\\')
	case '\b':
		return append(dst, '\\', 'b')
	case '\t':
		return append(dst, '\\', 't')
	case '\n':
		return append(dst, '\\', 'n')
	case '\f':
		return append(dst, '\\', 'f')
	case '\r':
		return append(dst, '\\', 'r')
	default:
		return append(dst, c)
	}
}

// AppendQuote appends src as a double quoted string escaped with esc.
func AppendQuote(dst, src []byte, esc Escaper) []byte {
	dst = append(dst, '"')
	for _, c := range src {
		dst = esc(dst, c)
	}
	dst = append(dst, '"')
	return dst
}

// NostrUnescape reverses NostrEscape in place semantics: it returns a new
// slice with the escape sequences collapsed.
func NostrUnescape(b []byte) (o []byte) {
	o = make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i == len(b)-1 {
			o = append(o, b[i])
			continue
		}
		i++
		switch b[i] {
		case '"':
			o = append(o, '"')
		case '\\':
			o = append(o, '\\')
		case 'b':
			o = append(o, '\b')
		case 't':
			o = append(o, '\t')
		case 'n':
			o = append(o, '\n')
		case 'f':
			o = append(o, '\f')
		case 'r':
			o = append(o, '\r')
		case 'u':
			// \uXXXX: decode the BMP code point; clients that insist on
			// unicode escapes still need to round trip.
			if i+4 < len(b) {
				var v rune
				ok := true
				for j := 1; j <= 4; j++ {
					v <<= 4
					c := b[i+j]
					switch {
					case c >= '0' && c <= '9':
						v |= rune(c - '0')
					case c >= 'a' && c <= 'f':
						v |= rune(c-'a') + 10
					case c >= 'A' && c <= 'F':
						v |= rune(c-'A') + 10
					default:
						ok = false
					}
				}
				if ok {
					o = append(o, []byte(string(v))...)
					i += 4
					continue
				}
			}
			o = append(o, '\\', 'u')
		default:
			o = append(o, '\\', b[i])
		}
	}
	return
}

// JSONKey appends a quoted object key and its colon to dst.
func JSONKey(dst, key []byte) []byte {
	dst = append(dst, '"')
	dst = append(dst, key...)
	dst = append(dst, '"', ':')
	return dst
}

// UnmarshalQuoted reads a double quoted, NIP-01 escaped string from the front
// of b. Leading whitespace and the opening quote are consumed; the unescaped
// content and the remainder after the closing quote are returned.
func UnmarshalQuoted(b []byte) (content, r []byte, err error) {
	r = b
	for len(r) > 0 && (r[0] == ' ' || r[0] == '\t' || r[0] == '\n' || r[0] == '\r') {
		r = r[1:]
	}
	if len(r) == 0 || r[0] != '"' {
		err = errorf.E("text: expected quoted string at: %s", trunc(r))
		return
	}
	r = r[1:]
	for i := 0; i < len(r); i++ {
		if r[i] == '\\' {
			i++
			continue
		}
		if r[i] == '"' {
			content = NostrUnescape(r[:i])
			r = r[i+1:]
			return
		}
	}
	err = errorf.E("text: unterminated string")
	return
}

// Comma consumes an expected comma, tolerating surrounding whitespace.
func Comma(b []byte) (r []byte, err error) {
	r = b
	for len(r) > 0 && (r[0] == ' ' || r[0] == '\t' || r[0] == '\n' || r[0] == '\r') {
		r = r[1:]
	}
	if len(r) == 0 || r[0] != ',' {
		err = errorf.E("text: expected comma at: %s", trunc(r))
		return
	}
	r = r[1:]
	return
}

// UnmarshalStringArray reads a JSON array of strings from the front of b.
func UnmarshalStringArray(b []byte) (out [][]byte, r []byte, err error) {
	r = b
	for len(r) > 0 && r[0] != '[' {
		r = r[1:]
	}
	if len(r) == 0 {
		err = errorf.E("text: expected array")
		return
	}
	r = r[1:]
	for {
		for len(r) > 0 && (r[0] == ' ' || r[0] == ',' || r[0] == '\t' ||
			r[0] == '\n' || r[0] == '\r') {
			r = r[1:]
		}
		if len(r) == 0 {
			err = errorf.E("text: unterminated array")
			return
		}
		if r[0] == ']' {
			r = r[1:]
			return
		}
		var s []byte
		if s, r, err = UnmarshalQuoted(r); err != nil {
			return
		}
		out = append(out, s)
	}
}

// MarshalHexArray appends a JSON array of hex encoded strings to dst.
func MarshalHexArray(dst []byte, src [][]byte) []byte {
	dst = append(dst, '[')
	for i, s := range src {
		dst = append(dst, '"')
		dst = hex.EncAppend(dst, s)
		dst = append(dst, '"')
		if i < len(src)-1 {
			dst = append(dst, ',')
		}
	}
	dst = append(dst, ']')
	return dst
}

// UnmarshalHexArray reads a JSON array of hex strings, requiring each decoded
// element to be exactly size bytes.
func UnmarshalHexArray(b []byte, size int) (out [][]byte, r []byte, err error) {
	var raw [][]byte
	if raw, r, err = UnmarshalStringArray(b); err != nil {
		return
	}
	for _, s := range raw {
		var d []byte
		if d, err = hex.Dec(string(s)); err != nil {
			return
		}
		if len(d) != size {
			err = errorf.E("text: hex element is %d bytes, need %d",
				len(d), size)
			return
		}
		out = append(out, d)
	}
	return
}

func trunc(b []byte) []byte {
	if len(b) > 32 {
		return b[:32]
	}
	return b
}
