package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/subtrackhq/notify/pkg/notification"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu    sync.RWMutex
	prefs map[prefKey]Preference
}

// NewMemoryStorage creates a new in-memory preference storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		prefs: make(map[prefKey]Preference),
	}
}

func (s *MemoryStorage) Get(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) (*Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pref, ok := s.prefs[prefKey{userID: userID, kind: kind, channel: channel}]
	if !ok {
		return nil, ErrPreferenceNotFound
	}

	// Return a copy to prevent external mutation of stored data.
	out := pref
	return &out, nil
}

func (s *MemoryStorage) Upsert(ctx context.Context, pref Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	key := prefKey{userID: pref.UserID, kind: pref.Kind, channel: pref.Channel}
	if existing, ok := s.prefs[key]; ok {
		pref.CreatedAt = existing.CreatedAt
	} else if pref.CreatedAt.IsZero() {
		pref.CreatedAt = now
	}
	pref.UpdatedAt = now

	s.prefs[key] = pref
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, userID string, kind notification.Kind, channel notification.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := prefKey{userID: userID, kind: kind, channel: channel}
	if _, ok := s.prefs[key]; !ok {
		return ErrPreferenceNotFound
	}
	delete(s.prefs, key)
	return nil
}

func (s *MemoryStorage) ListByUser(ctx context.Context, userID string) ([]Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Preference
	for key, pref := range s.prefs {
		if key.userID == userID {
			out = append(out, pref)
		}
	}
	return out, nil
}
