package profilesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Login exchanges an email and password for a bearer token.
// The request is validated locally first; a *ValidationError is returned
// without contacting the server when it is incomplete.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if errs := req.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	var tok TokenResponse
	if err := c.postJSON(ctx, PathLogin, req, &tok); err != nil {
		return nil, err
	}

	if tok.Token == "" {
		return nil, fmt.Errorf("login response missing token")
	}

	return &tok, nil
}

// Signup creates an account and returns its first bearer token.
func (c *SDKClient) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	if errs := req.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	var out SignupResponse
	if err := c.postJSON(ctx, PathSignup, req, &out); err != nil {
		return nil, err
	}

	if out.Token == "" {
		return nil, fmt.Errorf("signup response missing token")
	}

	return &out, nil
}

func (c *SDKClient) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	})
	if err != nil {
		return err
	}

	return decodeJSON(resp, out)
}
