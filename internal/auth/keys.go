package auth

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const sessionKeyInfo = "tinkerer-vote session signing key v1"

// deriveKey stretches the configured secret into a 32-byte HMAC key with
// HKDF-SHA256. info binds the key to its purpose so the same secret can seed
// other keys later without them colliding.
func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("auth: deriving key: %w", err)
	}
	return key, nil
}
