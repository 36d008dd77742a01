// Package auth validates the access tokens that identify the acting user.
//
// Tokens are HS256 JWTs issued by "foodgram" with the user ID in "sub".
// The server never issues them over HTTP: sign-up and login are not part of
// this backend. Operators mint them with `recipectl token`, which signs with
// the same auth.jwt_secret the server validates with.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the "iss" claim of every foodgram token. Tokens from any other
// issuer are rejected even when signed with the right secret.
const Issuer = "foodgram"

// MinSecretLength is the shortest auth.jwt_secret NewTokenService accepts.
const MinSecretLength = 16

var (
	// ErrTokenExpired is returned by Validate for a well-signed token whose
	// exp is in the past.
	ErrTokenExpired = errors.New("auth: token expired")

	// ErrInvalidToken is returned by Validate for every other rejection.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// TokenService signs and validates access tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a service signing with secret. ttl is the
// lifetime of tokens from Generate (auth.token_ttl).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is the lifetime Generate gives new tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Generate issues a token for userID with the configured lifetime.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration issues a token for userID that expires after d.
// recipectl uses it for operator tokens whose -ttl differs from the
// server's default.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("auth: token subject is empty")
	}

	now := time.Now()
	c := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(d)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm, issuer and expiry, and returns the
// user ID in "sub".
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var c jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		// Pinning the method keeps "none" and RS* tokens out.
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", ErrTokenExpired
	case err != nil:
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case c.Subject == "":
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return c.Subject, nil
}
