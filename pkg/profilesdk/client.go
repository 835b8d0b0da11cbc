package profilesdk

import (
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every request made with the default HTTP client.
const DefaultTimeout = 10 * time.Second

// API paths. The trailing slashes are significant to the server.
const (
	PathLogin   = "/api/login/"
	PathSignup  = "/api/signup/"
	PathProfile = "/api/profile/"
)

// SDKClient is a client for the account API.
// It provides access to unauthenticated operations and can create Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// ExpiryLeeway tolerates clock skew when a Session checks a JWT's exp
	// claim before sending it.
	ExpiryLeeway time.Duration
}

// NewSDKClient creates a client for the API rooted at baseURL
// (e.g. "http://192.168.1.20:8000").
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		ExpiryLeeway: 30 * time.Second,
	}
}

// NewSession creates an authenticated session that reads its bearer token
// from tokens before every request.
func (c *SDKClient) NewSession(tokens TokenSource) *Session {
	return &Session{
		client: c,
		tokens: tokens,
		now:    time.Now,
	}
}
