// Package digest provides the dedup fingerprint used by the outbox and the
// work queue. Both stores key on (type, fingerprint) so that repeated record
// or enqueue attempts for the same semantic key collapse into one row.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the fingerprint length in bytes.
const Size = sha256.Size

// Sum returns the SHA-256 fingerprint of text.
func Sum(text string) []byte {
	h := sha256.Sum256([]byte(text))
	return h[:]
}

// Key fingerprints a typed semantic key. The type name is folded into the
// digest so identical key text under different types never collides.
func Key(typ, key string) []byte {
	return Sum(typ + "|" + key)
}

// Hex renders a fingerprint for logs.
func Hex(sum []byte) string {
	return hex.EncodeToString(sum)
}
