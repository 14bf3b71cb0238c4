package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// SessionTokenBytes is the entropy of a table session token (256 bits).
const SessionTokenBytes = 32

// NewSessionToken returns an opaque URL-safe token from crypto/rand.
func NewSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
