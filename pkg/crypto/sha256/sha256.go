// Package sha256 wraps the standard SHA-256 with the hash sizes and helpers
// used throughout the event and payment codecs.
package sha256

import "crypto/sha256"

// Size is the size of a SHA-256 checksum in bytes.
const Size = sha256.Size

// Sum256 returns the SHA-256 checksum of the data.
func Sum256(data []byte) [Size]byte { return sha256.Sum256(data) }

// Hash returns the SHA-256 checksum of the data as a slice.
func Hash(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}
