package httpx

import "net/http"

// Wrapper decorates a RoundTripper.
type Wrapper func(http.RoundTripper) http.RoundTripper

// Chain applies wrappers to base so that the first wrapper sees the request
// first. A nil base means http.DefaultTransport.
func Chain(base http.RoundTripper, wrappers ...Wrapper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}

	rt := base
	for i := len(wrappers) - 1; i >= 0; i-- {
		rt = wrappers[i](rt)
	}
	return rt
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
