package profilesdk

import (
	"context"
	"io"
)

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /api/login/.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the body of POST /api/signup/.
type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	// Token is the bearer credential for authenticated requests
	Token string `json:"token"`
}

// SignupResponse is returned by a successful signup (201 Created).
type SignupResponse struct {
	Token string     `json:"token"`
	User  SignupUser `json:"user"`
}

// SignupUser echoes the account that was created.
type SignupUser struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ============================================================================
// Profile Types
// ============================================================================

// ProfileRecord is the profile as the server reports it. Missing or null
// fields decode as empty strings.
type ProfileRecord struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`

	// ProfilePicture is a server path ("/media/...") or absolute URL; empty
	// when the user has none
	ProfilePicture string `json:"profile_picture"`
}

// ProfileUpdate is the body of PATCH /api/profile/.
type ProfileUpdate struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Picture, when set, switches the request to multipart/form-data with a
	// profile_picture file part
	Picture *FilePart `json:"-"`
}

// FilePart describes a file to upload.
type FilePart struct {
	Filename    string
	ContentType string

	// Open returns the file content. It is called once per request.
	Open func() (io.ReadCloser, error)
}

// ============================================================================
// Token Source
// ============================================================================

// TokenSource supplies the bearer token for a Session.
// An empty token with a nil error means "not logged in".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns itself.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) { return f(ctx) }
