package ratelimit

import (
	"context"
	"sync"
	"time"
)

const staleBucketAge = time.Hour

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryStore keeps token buckets in process memory. Stale buckets are
// swept in the background so idle keys do not accumulate forever.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	sweepInterval time.Duration
	stopSweep     chan struct{}
	now           func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often stale buckets are removed.
// Zero disables the background sweep.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.sweepInterval = d
	}
}

// NewMemoryStore creates an in-memory bucket store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		buckets:       make(map[string]*bucket),
		sweepInterval: 5 * time.Minute,
		stopSweep:     make(chan struct{}),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sweepInterval > 0 {
		go s.sweep()
	}
	return s
}

func (s *MemoryStore) Take(ctx context.Context, key string, limit Limit) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{tokens: limit.Burst, lastRefill: now}
		s.buckets[key] = b
	}

	// Refill whole elapsed intervals, capped so a long-idle bucket does
	// not overflow the counter.
	elapsed := now.Sub(b.lastRefill)
	maxIntervals := int64(limit.Burst/limit.Refill + 1)
	intervals := min(int64(elapsed/limit.Interval), maxIntervals)
	if intervals > 0 {
		b.tokens = min(b.tokens+int(intervals)*limit.Refill, limit.Burst)
		b.lastRefill = now
	}

	b.tokens--
	b.lastAccess = now

	return b.tokens, b.lastRefill.Add(limit.Interval), nil
}

func (s *MemoryStore) Reset(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// Close stops the background sweep. Safe to call more than once.
func (s *MemoryStore) Close() {
	select {
	case <-s.stopSweep:
	default:
		close(s.stopSweep)
	}
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.removeStale()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemoryStore) removeStale() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, b := range s.buckets {
		if now.Sub(b.lastAccess) > staleBucketAge {
			delete(s.buckets, key)
		}
	}
}
