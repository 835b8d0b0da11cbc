// Package auth logs the user in and out of the account API and keeps the
// resulting bearer token in the credential store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/profilesync/internal/credstore"
	"github.com/aussiebroadwan/profilesync/pkg/cryptox"
	"github.com/aussiebroadwan/profilesync/pkg/jwtx"
	"github.com/aussiebroadwan/profilesync/pkg/profilesdk"
)

// ErrNotLoggedIn is returned by Whoami when no token is stored.
var ErrNotLoggedIn = errors.New("auth: not logged in")

// Service wires the SDK client to the credential store.
type Service struct {
	Client *profilesdk.SDKClient
	Store  credstore.Store
	Logger *slog.Logger
}

// Identity is what the stored token says about its holder.
type Identity struct {
	UserID    int64
	Email     string
	ExpiresAt time.Time
	Expired   bool

	// Opaque is set when the token is not a JWT and carries no claims.
	Opaque bool

	Fingerprint string
}

// Login exchanges credentials for a token and stores it.
func (s *Service) Login(ctx context.Context, email, password string) error {
	tok, err := s.Client.Login(ctx, profilesdk.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	return s.storeToken(ctx, tok.Token, "login")
}

// Signup creates an account and stores its token.
func (s *Service) Signup(ctx context.Context, req profilesdk.SignupRequest) (*profilesdk.SignupUser, error) {
	out, err := s.Client.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.storeToken(ctx, out.Token, "signup"); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout forgets the stored token. It succeeds when none is stored.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.Store.Delete(ctx, credstore.TokenKey); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	s.Logger.InfoContext(ctx, "logged out")
	return nil
}

// Session returns an SDK session that reads the stored token before every
// request, so a later login is picked up without rebuilding it.
func (s *Service) Session() *profilesdk.Session {
	return s.Client.NewSession(credstore.TokenSource(s.Store))
}

// Whoami describes the stored token without contacting the server.
func (s *Service) Whoami(ctx context.Context, now time.Time) (*Identity, error) {
	tok, err := s.Store.Get(ctx, credstore.TokenKey)
	if errors.Is(err, credstore.ErrNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	id := &Identity{Fingerprint: cryptox.FingerprintToken(tok)}

	claims, err := jwtx.Inspect(tok)
	if err != nil {
		id.Opaque = true
		return id, nil
	}

	id.UserID = claims.UserID
	id.Email = claims.Email
	id.ExpiresAt = claims.ExpiresAtTime()
	id.Expired = errors.Is(claims.ValidateExpiry(now, 0), jwtx.ErrExpired)
	return id, nil
}

func (s *Service) storeToken(ctx context.Context, token, via string) error {
	if err := s.Store.Put(ctx, credstore.TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	s.Logger.InfoContext(ctx, "token stored", "via", via, "token_fp", cryptox.FingerprintToken(token))
	return nil
}
