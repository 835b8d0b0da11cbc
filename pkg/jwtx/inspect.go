// Package jwtx reads claims out of bearer tokens issued by the account API.
//
// The client never holds the signing secret, so nothing here verifies a
// signature. Claims are used only for local decisions: skipping a request
// that would certainly fail with an expired token, and showing who is
// logged in. The server remains the authority on every request.
package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed = errors.New("jwtx: malformed token")
	ErrExpired   = errors.New("jwtx: token expired")
)

// Claims mirrors the payload the account API signs on login and signup.
type Claims struct {
	jwt.RegisteredClaims

	UserID int64  `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// Inspect decodes token without verifying its signature.
func Inspect(token string) (*Claims, error) {
	var claims Claims

	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return &claims, nil
}

// ExpiresAtTime returns the exp claim, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ValidateExpiry reports ErrExpired when exp lies before now minus leeway.
// Tokens without exp never expire locally.
func (c *Claims) ValidateExpiry(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	return nil
}

// CheckExpiry is a convenience for callers holding only the raw token.
// Opaque (non-JWT) tokens are accepted since only the server can judge them.
func CheckExpiry(token string, now time.Time, leeway time.Duration) error {
	claims, err := Inspect(token)
	if err != nil {
		return nil
	}
	return claims.ValidateExpiry(now, leeway)
}
