// Package credstore persists the client's secrets, which today is a single
// bearer token. Drivers live under drivers/.
package credstore

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

var ErrNotFound = errors.New("credstore: not found")

// TokenKey is the key the bearer token is stored under.
const TokenKey = "token"

// Store is a small key-value store for secrets. Values are opaque strings.
type Store interface {
	// Get returns ErrNotFound when key has no value.
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error

	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error

	Close() error
}

// TokenSource reads the bearer token from s on every call. A missing token
// reads as "", which sessions report as not logged in.
func TokenSource(s Store) profilesdk.TokenSource {
	return profilesdk.TokenSourceFunc(func(ctx context.Context) (string, error) {
		tok, err := s.Get(ctx, TokenKey)
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return tok, err
	})
}
