package inbox

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string][]Entry // userID -> entries, oldest first
}

// NewMemoryStorage creates a new in-memory inbox storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string][]Entry),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.UserID == "" {
		return ErrUserIDRequired
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	s.entries[entry.UserID] = append(s.entries[entry.UserID], entry)
	return nil
}

func (s *MemoryStorage) List(ctx context.Context, userID string, opts ListOptions) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.entries[userID]

	// Newest first.
	out := make([]Entry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		e := stored[i]
		if opts.OnlyUnread && e.Read {
			continue
		}
		out = append(out, e)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *MemoryStorage) MarkRead(ctx context.Context, userID string, entryIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.entries[userID]
	if !ok {
		return ErrEntryNotFound
	}

	now := time.Now()
	marked := 0
	for i := range stored {
		if slices.Contains(entryIDs, stored[i].ID.String()) && !stored[i].Read {
			stored[i].Read = true
			stored[i].ReadAt = &now
			marked++
		}
	}
	if marked == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *MemoryStorage) CountUnread(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.entries[userID] {
		if !e.Read {
			count++
		}
	}
	return count, nil
}
