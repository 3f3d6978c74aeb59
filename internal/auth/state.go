package auth

import (
	"crypto/subtle"

	"github.com/google/uuid"
)

// StateCookieName holds the anti-forgery state between /auth/login and
// /auth/callback.
const StateCookieName = "oauth_state"

// NewState returns a random, unguessable OAuth state value (UUIDv4).
func NewState() string {
	return uuid.NewString()
}

// StateMatches compares the stored and returned state in constant time.
// Either side being empty is a mismatch.
func StateMatches(stored, received string) bool {
	if stored == "" || received == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(received)) == 1
}
