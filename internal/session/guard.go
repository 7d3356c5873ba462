package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token has no exp claim")

// Claims are the fields the front end reads out of a backend token.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Decode reads the token's claims without checking its signature; the backend
// verifies signatures on every call.
func Decode(token string) (*Claims, error) {
	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, err
	}
	if tc.ExpiresAt == nil {
		return nil, ErrNoExpiry
	}
	return &Claims{
		Subject:   tc.Subject,
		Role:      tc.Role,
		ExpiresAt: tc.ExpiresAt.Time,
	}, nil
}

// IsExpired fails safe: anything that cannot be decoded counts as expired.
func IsExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	c, err := Decode(token)
	if err != nil {
		return true
	}
	return !c.ExpiresAt.After(now)
}
