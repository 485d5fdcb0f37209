package utils // helper functions for credential hashing and token generation

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionToken returns a cryptographically random opaque token used as a
// session identifier. 32 random bytes encode to 64 hex characters, which is
// the width of the sessions.token column.
func NewSessionToken() (string, error) {
	return randomHex(32)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
