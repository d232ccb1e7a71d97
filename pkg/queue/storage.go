package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Backoff computes how long a retried item waits before becoming due again,
// given the retry count after the failure. A nil Backoff leaves the item
// immediately eligible for the next claim sweep.
type Backoff func(retryCount int) time.Duration

// LinearBackoff waits retryCount*step before the next attempt.
func LinearBackoff(step time.Duration) Backoff {
	return func(retryCount int) time.Duration {
		return time.Duration(retryCount) * step
	}
}

// StorageOption configures a queue storage implementation.
type StorageOption func(*storageOptions)

type storageOptions struct {
	backoff Backoff
}

// WithBackoff sets the retry delay strategy applied by MarkFailed.
func WithBackoff(b Backoff) StorageOption {
	return func(o *storageOptions) {
		o.backoff = b
	}
}

// Storage handles queue item persistence and the status state machine.
type Storage interface {
	// Enqueue persists a new item at pending with a zero retry count.
	// A missing ID or MaxRetries is filled in.
	Enqueue(ctx context.Context, item *Item) error

	// Get retrieves an item by id. Returns ErrItemNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*Item, error)

	// ClaimDue atomically selects up to limit pending items with
	// scheduled_at <= now, earliest due first, and flips them to processing
	// in the same step. Two concurrent callers never receive the same item.
	ClaimDue(ctx context.Context, limit int, now time.Time) ([]Item, error)

	// MarkSent moves a processing item to sent.
	MarkSent(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a failure on a processing item. While the retry
	// count stays below MaxRetries the item returns to pending (retried
	// true), pushed forward by the configured backoff; otherwise it lands
	// on failed (retried false).
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (retried bool, err error)

	// FailPermanently moves a processing item straight to failed,
	// bypassing the remaining retries.
	FailPermanently(ctx context.Context, id uuid.UUID, reason string) error

	// Cancel moves a pending item to cancelled. An item already claimed
	// or terminal returns ErrInvalidTransition.
	Cancel(ctx context.Context, id uuid.UUID) error
}
