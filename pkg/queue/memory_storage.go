package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory implementation of the Storage interface.
// Suitable for development and testing. All state changes, including the
// select-and-flip inside ClaimDue, happen under one mutex so concurrent
// workers never claim the same item twice.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Item

	backoff Backoff
	now     func() time.Time
}

// NewMemoryStorage creates a new in-memory queue storage.
func NewMemoryStorage(opts ...StorageOption) *MemoryStorage {
	options := &storageOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return &MemoryStorage{
		items:   make(map[uuid.UUID]*Item),
		backoff: options.backoff,
		now:     time.Now,
	}
}

func (s *MemoryStorage) Enqueue(ctx context.Context, item *Item) error {
	if item == nil {
		return ErrItemNotFound
	}
	if err := item.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.MaxRetries == 0 {
		item.MaxRetries = DefaultMaxRetries
	}
	item.Status = StatusPending
	item.RetryCount = 0

	now := s.now()
	item.CreatedAt = now
	item.UpdatedAt = now

	stored := *item
	s.items[item.ID] = &stored
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}

	out := *item
	return &out, nil
}

func (s *MemoryStorage) ClaimDue(ctx context.Context, limit int, now time.Time) ([]Item, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*Item
	for _, item := range s.items {
		if item.Status == StatusPending && !item.ScheduledAt.After(now) {
			due = append(due, item)
		}
	}

	// Earliest due first.
	sort.Slice(due, func(i, j int) bool {
		return due[i].ScheduledAt.Before(due[j].ScheduledAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}

	claimed := make([]Item, 0, len(due))
	for _, item := range due {
		item.Status = StatusProcessing
		item.UpdatedAt = s.now()
		claimed = append(claimed, *item)
	}
	return claimed, nil
}

func (s *MemoryStorage) MarkSent(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if !item.Status.CanTransitionTo(StatusSent) {
		return ErrInvalidTransition
	}

	item.Status = StatusSent
	item.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStorage) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return false, ErrItemNotFound
	}
	if item.Status != StatusProcessing {
		return false, ErrInvalidTransition
	}

	item.RetryCount++
	item.LastError = reason
	item.UpdatedAt = s.now()

	if item.RetryCount >= item.MaxRetries {
		item.Status = StatusFailed
		return false, nil
	}

	item.Status = StatusPending
	if s.backoff != nil {
		item.ScheduledAt = s.now().Add(s.backoff(item.RetryCount))
	}
	return true, nil
}

func (s *MemoryStorage) FailPermanently(ctx context.Context, id uuid.UUID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if !item.Status.CanTransitionTo(StatusFailed) {
		return ErrInvalidTransition
	}

	item.Status = StatusFailed
	item.LastError = reason
	item.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStorage) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return ErrItemNotFound
	}
	if item.Status != StatusPending {
		return ErrInvalidTransition
	}

	item.Status = StatusCancelled
	item.UpdatedAt = s.now()
	return nil
}
