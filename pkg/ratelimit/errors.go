package ratelimit

import "errors"

var (
	// ErrStoreNil is returned when a limiter is constructed without a store.
	ErrStoreNil = errors.New("ratelimit: store is nil")

	// ErrInvalidLimit is returned when a limit has a non-positive burst,
	// refill amount, or refill interval.
	ErrInvalidLimit = errors.New("ratelimit: invalid limit")
)
