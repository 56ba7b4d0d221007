package safe_random

import (
	"crypto/rand"
	"encoding/hex"
)

// Reader exposes the CSPRNG for callers that need an io.Reader.
var Reader = rand.Reader

// GenerateRandomBytes returns n cryptographically secure random bytes.
func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// GenerateRandomHexString returns a hex string of nBytes random bytes.
func GenerateRandomHexString(nBytes int) (string, error) {
	b, err := GenerateRandomBytes(nBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
