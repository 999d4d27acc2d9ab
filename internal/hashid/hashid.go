// Package hashid produces short, URL-safe, deterministic fingerprints used
// for showtime identifiers and content-addressed cache keys.
package hashid

import (
	"crypto/sha256"
	"encoding/base64"
)

// Length is the fixed length of every generated token.
const Length = 32

// Hash returns a 32-character URL-safe token derived from the SHA-256 digest
// of the UTF-8 bytes of s. The result carries no padding characters and is
// stable across runs and platforms.
func Hash(s string) string {
	digest := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(digest[:])[:Length]
}
