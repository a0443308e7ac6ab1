package stream

import "time"

// Default reconnect backoff configuration
const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second
)

// Backoff tracks reconnection attempts with exponential delay growth.
// It is a small value type so the schedule can be tested independently of
// any transport.
type Backoff struct {
	Attempts    int
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// NewBackoff returns a backoff with the default schedule: 5 attempts,
// starting at 1s and doubling, capped at 30s.
func NewBackoff() Backoff {
	return Backoff{
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		MaxDelay:    defaultMaxDelay,
	}
}

// DelayFor computes the delay before the given 1-indexed attempt:
// BaseDelay * 2^(attempt-1), capped at MaxDelay.
func (b Backoff) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := b.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	if delay > b.MaxDelay {
		return b.MaxDelay
	}
	return delay
}

// Next consumes one attempt and returns the delay to wait before it.
// ok is false once MaxAttempts is exhausted; the caller should stop
// retrying and surface a terminal error.
func (b *Backoff) Next() (delay time.Duration, ok bool) {
	if b.Attempts >= b.MaxAttempts {
		return 0, false
	}
	b.Attempts++
	return b.DelayFor(b.Attempts), true
}

// Reset clears the attempt counter after a successful connection
func (b *Backoff) Reset() {
	b.Attempts = 0
}
