// Package normalize renders machine-readable reason prefixes on the messages
// a relay sends in NOTICE and CLOSED envelopes, as clients expect a
// "<prefix>: <message>" shape they can switch on.
package normalize

import (
	"fmt"
	"strings"
)

// Reason is a category prefix for client-facing error messages.
type Reason string

const (
	Error       Reason = "error"
	Invalid     Reason = "invalid"
	Unsupported Reason = "unsupported"
	Blocked     Reason = "blocked"
)

// F formats a reason-prefixed message.
func (r Reason) F(format string, args ...any) []byte {
	msg := fmt.Sprintf(format, args...)
	// don't double up a prefix that is already present
	if strings.HasPrefix(msg, string(r)+": ") {
		return []byte(msg)
	}
	return []byte(string(r) + ": " + msg)
}

// Errorf returns the reason-prefixed message as an error.
func (r Reason) Errorf(format string, args ...any) error {
	return fmt.Errorf("%s", r.F(format, args...))
}
