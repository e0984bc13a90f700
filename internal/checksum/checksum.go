// Package checksum provides content digests used for change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumString is Sum over a string without an extra copy at call sites.
func SumString(s string) string {
	return Sum([]byte(s))
}

// Short returns the first 12 hex characters of Sum, enough for display
// and ETag-style revision tokens.
func Short(data []byte) string {
	return Sum(data)[:12]
}
