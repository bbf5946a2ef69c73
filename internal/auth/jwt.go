// Package auth provides bearer-token verification, password hashing, and
// the Google OAuth flow.
//
// The engine's notion of identity is deliberately thin: a request carries a
// JWT whose "sub" claim is the stable identity key, and everything past the
// middleware works with that key alone. Tokens are HS256-signed with a
// shared secret, so any trusted issuer holding the secret (this server's
// own login endpoints, or an external identity provider) can mint
// identities; a subject this server has never seen simply becomes a new
// player on first request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long an issued token stays valid.
const TokenLifetime = 24 * time.Hour

// TokenService signs and verifies JWTs.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given HMAC secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a token for the given identity key.
func (s *TokenService) Generate(subject string) (string, error) {
	return s.GenerateWithDuration(subject, TokenLifetime)
}

// GenerateWithDuration creates a token with a custom expiry. Used in tests
// to produce already-expired tokens.
func (s *TokenService) GenerateWithDuration(subject string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string and returns the identity key
// from its "sub" claim.
//
// The algorithm is pinned to HS256 (jwt.WithValidMethods) so a token signed
// with "none" or an asymmetric algorithm is rejected outright. No issuer is
// enforced: external identity providers sharing the secret are accepted by
// design.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}

	return c.Subject, nil
}
