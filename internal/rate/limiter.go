package rate

import (
	"context"
	"time"
)

// Policy is a named limit/window pair. Policies are fixed per operation at
// configuration time, never per request.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one admission attempt. Denial is communicated
// here, not through an error.
type Decision struct {
	Admitted  bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Store owns counter windows keyed by string. Incr observes one request:
// it starts a fresh window when none exists or the previous one has expired,
// increments the counter, and reports the count and the window reset instant.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Limiter applies fixed-window policies on top of a Store.
type Limiter struct {
	store Store
}

// New creates a Limiter backed by the given store.
func New(store Store) *Limiter {
	return &Limiter{store: store}
}

// Attempt observes one request for key under the policy. The returned error
// is non-nil only for misuse (empty key, invalid policy) or an unreachable
// backend; a denied request is a normal Decision with Admitted=false.
func (l *Limiter) Attempt(ctx context.Context, key string, p Policy) (Decision, error) {
	if key == "" {
		return Decision{}, ErrEmptyKey
	}
	if p.Limit < 1 || p.Window <= 0 {
		return Decision{}, ErrInvalidPolicy
	}

	count, resetAt, err := l.store.Incr(ctx, key, p.Window)
	if err != nil {
		return Decision{}, err
	}

	remaining := p.Limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Admitted:  count <= int64(p.Limit),
		Limit:     p.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
