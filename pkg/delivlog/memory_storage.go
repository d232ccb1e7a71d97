package delivlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
	byUser  map[string][]uuid.UUID // oldest first
}

// NewMemoryStorage creates a new in-memory delivery log storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[uuid.UUID]*Entry),
		byUser:  make(map[string][]uuid.UUID),
	}
}

func (s *MemoryStorage) Create(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.UserID == "" {
		return ErrUserIDRequired
	}
	if !entry.Status.Valid() {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	stored := *entry
	s.entries[entry.ID] = &stored
	s.byUser[entry.UserID] = append(s.byUser[entry.UserID], entry.ID)
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}

	out := *entry
	return &out, nil
}

func (s *MemoryStorage) AppendEvent(ctx context.Context, id uuid.UUID, event Event, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrEntryNotFound
	}
	return entry.applyEvent(event, at)
}

func (s *MemoryStorage) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byUser[userID]

	// Newest first.
	out := make([]Entry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, *s.entries[ids[i]])
	}

	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
