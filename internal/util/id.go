package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 128-bit random identifier in hex, used for request
// correlation.
func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
