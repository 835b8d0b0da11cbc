package profilesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrNoToken is returned by Session methods when the TokenSource has no token.
	ErrNoToken = errors.New("profilesdk: not logged in")

	// ErrTokenExpired is returned by Session methods when the stored token is a
	// JWT whose exp claim has passed. No request is sent.
	ErrTokenExpired = errors.New("profilesdk: token expired, log in again")
)

// nonFieldErrors is the key the server uses for errors not tied to one field.
const nonFieldErrors = "non_field_errors"

// APIError represents a non-2xx response from the account API.
type APIError struct {
	// StatusCode is the HTTP status code of the response
	StatusCode int

	// Detail is the top level message ("detail" or the first non-field error)
	Detail string

	// Fields maps request field names to the messages the server reported
	Fields map[string][]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msgs := e.Messages()
	if len(msgs) == 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, strings.Join(msgs, "; "))
}

// Messages flattens the error into human-readable lines, detail first and then
// fields in name order.
func (e *APIError) Messages() []string {
	var out []string
	if e.Detail != "" {
		out = append(out, e.Detail)
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		if name == nonFieldErrors {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, msg := range e.Fields[name] {
			out = append(out, name+": "+msg)
		}
	}

	// Non-field errors beyond the one promoted to Detail.
	if nf := e.Fields[nonFieldErrors]; len(nf) > 1 {
		out = append(out, nf[1:]...)
	}

	return out
}

// IsUnauthorized reports whether err is an APIError for a rejected credential.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
}

// ValidationError is returned when a request fails local validation.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid request: " + strings.Join(parts, "; ")
}

// parseErrorResponse turns an error body into an *APIError. The server
// reports errors as {"detail": "..."} or as an object of field name to a
// message or list of messages; anything else falls back to the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return apiErr
	}

	for key, val := range raw {
		msgs := decodeMessages(val)
		if len(msgs) == 0 {
			continue
		}

		if key == "detail" {
			apiErr.Detail = msgs[0]
			continue
		}

		if apiErr.Fields == nil {
			apiErr.Fields = make(map[string][]string)
		}
		apiErr.Fields[key] = msgs
	}

	if apiErr.Detail == "" {
		if nf := apiErr.Fields[nonFieldErrors]; len(nf) > 0 {
			apiErr.Detail = nf[0]
		}
	}

	return apiErr
}

// decodeMessages accepts either "msg" or ["msg", ...].
func decodeMessages(val json.RawMessage) []string {
	var one string
	if err := json.Unmarshal(val, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}

	var many []string
	if err := json.Unmarshal(val, &many); err == nil {
		return many
	}

	return nil
}
