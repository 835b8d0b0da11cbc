// Package httpx holds http.RoundTripper building blocks for API clients.
package httpx

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/profilesync/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines the client side request budget.
type RateLimitConfig struct {
	// RequestsPerWindow is the number of requests allowed in the time window.
	// Zero or negative disables limiting.
	RequestsPerWindow int
	// Window is the time window for rate limiting
	Window time.Duration
	// Burst allows for temporary bursts above the rate limit
	Burst int
}

// Enabled reports whether the config actually limits anything.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerWindow > 0 && c.Window > 0
}

func (c RateLimitConfig) limit() rate.Limit {
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

func (c RateLimitConfig) burst() int {
	if c.Burst > 0 {
		return c.Burst
	}
	return 1
}

// RateLimitTransport delays outgoing requests so that each host sees at most
// the configured rate. It waits instead of failing, and gives up only when
// the request context is cancelled.
type RateLimitTransport struct {
	Base   http.RoundTripper
	Config RateLimitConfig

	limiters sync.Map // host -> *rate.Limiter
}

// NewRateLimitTransport wraps base (http.DefaultTransport when nil).
func NewRateLimitTransport(base http.RoundTripper, cfg RateLimitConfig) *RateLimitTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &RateLimitTransport{Base: base, Config: cfg}
}

func (t *RateLimitTransport) limiter(host string) *rate.Limiter {
	if l, ok := t.limiters.Load(host); ok {
		return l.(*rate.Limiter)
	}

	l, _ := t.limiters.LoadOrStore(host, rate.NewLimiter(t.Config.limit(), t.Config.burst()))
	return l.(*rate.Limiter)
}

func (t *RateLimitTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if !t.Config.Enabled() {
		return t.Base.RoundTrip(r)
	}

	limiter := t.limiter(r.URL.Host)

	if !limiter.Allow() {
		slogx.FromContext(r.Context()).Debug("rate limit: delaying request", "host", r.URL.Host)

		if err := limiter.Wait(r.Context()); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	return t.Base.RoundTrip(r)
}
