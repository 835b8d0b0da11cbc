// Package idx generates request identifiers for outgoing API calls.
//
// Identifiers are ULIDs drawn from a monotonic entropy source, so ids minted
// by one process sort in the order they were created, even within the same
// millisecond. The API server echoes X-Request-ID into its own logs which lets
// a client log line be matched with the server side of the exchange.
package idx

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is the canonical 26 character ULID string.
type ID string

var (
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
)

// New returns an ID stamped with the current UTC time.
func New() ID {
	return NewAt(time.Now().UTC())
}

// NewAt returns an ID stamped with t. Useful in tests.
func NewAt(t time.Time) ID {
	mu.Lock()
	defer mu.Unlock()

	if entropy == nil {
		entropy = ulid.Monotonic(rand.Reader, 0)
	}

	return ID(ulid.MustNew(ulid.Timestamp(t), entropy).String())
}

// String returns the canonical string form.
func (id ID) String() string { return string(id) }
