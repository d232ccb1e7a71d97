package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limit describes a token bucket: Burst tokens available at once, with
// Refill tokens restored every Interval.
type Limit struct {
	Burst    int
	Refill   int
	Interval time.Duration
}

func (l Limit) validate() error {
	if l.Burst <= 0 {
		return fmt.Errorf("%w: burst must be positive, got %d", ErrInvalidLimit, l.Burst)
	}
	if l.Refill <= 0 {
		return fmt.Errorf("%w: refill must be positive, got %d", ErrInvalidLimit, l.Refill)
	}
	if l.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %v", ErrInvalidLimit, l.Interval)
	}
	return nil
}

// Decision is the outcome of a rate limit check.
type Decision struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Allowed reports whether the checked request may proceed.
func (d Decision) Allowed() bool {
	return d.Remaining >= 0
}

// RetryAfter returns how long the caller should wait before retrying.
// It is zero when the request was allowed.
func (d Decision) RetryAfter() time.Duration {
	if d.Allowed() {
		return 0
	}
	return time.Until(d.ResetAt)
}

// Store holds token bucket state keyed by caller identity.
type Store interface {
	// Take consumes one token from the bucket for key, refilling it
	// according to limit first. A negative remaining count means the
	// request must be denied.
	Take(ctx context.Context, key string, limit Limit) (remaining int, resetAt time.Time, err error)

	// Reset clears the bucket for key.
	Reset(ctx context.Context, key string) error
}

// Limiter applies a single Limit across keys backed by a Store.
type Limiter struct {
	store Store
	limit Limit
}

// NewLimiter creates a token bucket limiter.
func NewLimiter(store Store, limit Limit) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if err := limit.validate(); err != nil {
		return nil, err
	}
	return &Limiter{store: store, limit: limit}, nil
}

// Allow consumes one token for key and reports the resulting decision.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	remaining, resetAt, err := l.store.Take(ctx, key, l.limit)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Limit:     l.limit.Burst,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the bucket for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}
