// Package auth provides the Discord identity gateway, session tokens and the
// HTTP middleware that turns a session cookie into a Viewer.
//
// LOGIN FLOW:
//  1. /auth/login stores a random state in a cookie and redirects to Discord
//  2. Discord calls back /auth/callback with code and state
//  3. The server checks the state, exchanges the code, verifies guild
//     membership and upserts the user
//  4. The server issues a signed session JWT in an HttpOnly cookie
//  5. Middleware validates the cookie on every later request
//
// The session is stateless: user id and the admin flag at login time live in
// the signed token. An admin flag change takes effect on the next login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// SessionTTL is how long a session cookie and its token stay valid.
	SessionTTL = 7 * 24 * time.Hour

	issuer = "tinkerer-vote"
)

// Session is what a valid token says about its holder.
type Session struct {
	UserID  string
	IsAdmin bool
}

// TokenService handles JWT creation and validation.
//
// The HMAC key is derived from the configured secret with HKDF, so the raw
// secret is never used directly as a signing key.
type TokenService struct {
	key []byte
}

// NewTokenService creates a TokenService from the session secret.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	key, err := deriveKey(secret, sessionKeyInfo)
	if err != nil {
		return nil, err
	}
	return &TokenService{key: key}, nil
}

// claims is the JWT payload: "sub" carries the internal user id and "adm" the
// admin flag computed at login.
type claims struct {
	Admin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// Generate signs a session token valid for SessionTTL.
func (s *TokenService) Generate(userID string, isAdmin bool) (string, error) {
	return s.GenerateWithDuration(userID, isAdmin, SessionTTL)
}

// GenerateWithDuration signs a token with a custom lifetime. Used in tests.
func (s *TokenService) GenerateWithDuration(userID string, isAdmin bool, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Admin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a token string.
//
// Checks performed by the jwt library: HS256 signature, expiry present and in
// the future, and issuer. Pinning the method list rejects "none" and
// algorithm-confusion tokens.
func (s *TokenService) Validate(tokenStr string) (Session, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, errors.New("auth: token expired")
		}
		return Session{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Session{}, errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Session{}, errors.New("auth: token has no subject")
	}

	return Session{UserID: c.Subject, IsAdmin: c.Admin}, nil
}
