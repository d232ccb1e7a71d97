package inbox

import (
	"context"
	"errors"
)

var (
	// ErrEntryNotFound is returned when an inbox entry does not exist.
	ErrEntryNotFound = errors.New("inbox entry not found")

	// ErrUserIDRequired is returned when an entry has no owner.
	ErrUserIDRequired = errors.New("inbox entry user id is required")
)

// ListOptions provides filtering and pagination for listing inbox entries.
type ListOptions struct {
	Limit      int  // Maximum entries to return (0 = no limit)
	Offset     int  // Entries to skip for pagination
	OnlyUnread bool // When true, only unread entries are returned
}

// Storage handles inbox persistence and retrieval.
type Storage interface {
	// Create stores a new entry.
	Create(ctx context.Context, entry Entry) error

	// List returns a user's entries, newest first.
	List(ctx context.Context, userID string, opts ListOptions) ([]Entry, error)

	// MarkRead marks entries as read.
	MarkRead(ctx context.Context, userID string, entryIDs ...string) error

	// CountUnread returns the user's unread count.
	CountUnread(ctx context.Context, userID string) (int, error)
}
