package profile

import (
	"sync"
	"time"
)

// Messages shown after a save.
const (
	MessageSaved  = "Your data has been successfully saved."
	MessageFailed = "Something went wrong. Try again."
)

// DefaultStatusDelay is how long a status message stays visible.
const DefaultStatusDelay = 5 * time.Second

// Status holds at most one user-facing message that clears itself after a
// fixed delay. Every Set re-arms the timer; Dismiss and Close cancel it.
type Status struct {
	mu      sync.Mutex
	message string
	timer   stopper
	gen     uint64
	closed  bool

	delay     time.Duration
	afterFunc func(time.Duration, func()) stopper
	onChange  func(string)
}

// stopper is the part of *time.Timer that Status uses.
type stopper interface {
	Stop() bool
}

// StatusOption configures a Status.
type StatusOption func(*Status)

// WithDelay overrides DefaultStatusDelay.
func WithDelay(d time.Duration) StatusOption {
	return func(s *Status) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithOnChange registers fn to be called, outside the lock, whenever the
// visible message changes. It receives "" when the message clears.
func WithOnChange(fn func(string)) StatusOption {
	return func(s *Status) { s.onChange = fn }
}

// NewStatus returns an empty Status.
func NewStatus(opts ...StatusOption) *Status {
	s := &Status{
		delay: DefaultStatusDelay,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set shows msg and schedules it to clear one delay from now, replacing any
// earlier message and its timer.
func (s *Status) Set(msg string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.stopLocked()
	s.message = msg
	gen := s.gen
	s.timer = s.afterFunc(s.delay, func() { s.expire(gen) })
	s.mu.Unlock()

	s.notify(msg)
}

// Dismiss clears the message now and cancels its timer.
func (s *Status) Dismiss() {
	s.mu.Lock()
	changed := s.message != ""
	s.stopLocked()
	s.message = ""
	s.mu.Unlock()

	if changed {
		s.notify("")
	}
}

// Message returns the visible message, or "".
func (s *Status) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.message
}

// Close cancels any pending timer. Later calls to Set are ignored.
func (s *Status) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.closed = true
}

// expire clears the message armed as generation gen, unless it has been
// replaced or dismissed since.
func (s *Status) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.message = ""
	s.gen++
	s.mu.Unlock()

	s.notify("")
}

// stopLocked cancels the timer and invalidates any callback already running.
func (s *Status) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Status) notify(msg string) {
	if s.onChange != nil {
		s.onChange(msg)
	}
}
