package templates

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/subtrackhq/notify/pkg/notification"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMemoryStorage creates a new in-memory template storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		templates: make(map[string]Template),
	}
}

func (s *MemoryStorage) GetActive(ctx context.Context, key string, channel notification.Channel) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tpl, ok := s.templates[key]
	if !ok || !tpl.Active || tpl.Channel != channel {
		return nil, ErrTemplateNotFound
	}

	out := tpl
	return &out, nil
}

func (s *MemoryStorage) Upsert(ctx context.Context, tpl Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if existing, ok := s.templates[tpl.Key]; ok {
		tpl.CreatedAt = existing.CreatedAt
	} else if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	s.templates[tpl.Key] = tpl
	return nil
}

func (s *MemoryStorage) SetActive(ctx context.Context, key string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tpl, ok := s.templates[key]
	if !ok {
		return ErrTemplateNotFound
	}
	tpl.Active = active
	tpl.UpdatedAt = time.Now()
	s.templates[key] = tpl
	return nil
}

func (s *MemoryStorage) List(ctx context.Context) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
