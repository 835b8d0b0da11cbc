package profilesdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/profilesync/pkg/jwtx"
)

// Session performs bearer-authenticated requests.
// The token is looked up from the TokenSource for every request.
type Session struct {
	client *SDKClient
	tokens TokenSource
	now    func() time.Time
}

// token returns the current bearer token, refusing locally expired JWTs.
func (s *Session) token(ctx context.Context) (string, error) {
	if s.tokens == nil {
		return "", ErrNoToken
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}

	if err := jwtx.CheckExpiry(token, s.now(), s.client.ExpiryLeeway); errors.Is(err, jwtx.ErrExpired) {
		return "", ErrTokenExpired
	}

	return token, nil
}
