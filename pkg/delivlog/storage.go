package delivlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage handles delivery log persistence. Entries are append-only:
// implementations mutate an existing row only through AppendEvent.
type Storage interface {
	// Create persists a new entry. A missing ID or CreatedAt is filled in.
	Create(ctx context.Context, entry *Entry) error

	// Get retrieves an entry by id. Returns ErrEntryNotFound when absent.
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)

	// AppendEvent records a transport callback on an existing entry with
	// first-write-wins timestamps and monotonic status advancement.
	AppendEvent(ctx context.Context, id uuid.UUID, event Event, at time.Time) error

	// ListByUser returns the user's entries, newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Entry, error)
}
