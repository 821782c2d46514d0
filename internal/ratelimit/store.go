package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of charging one request against a key.
type Decision struct {
	Allowed   bool
	Limit     int
	Count     int
	Remaining int
	ResetAt   time.Time
}

// Store owns fixed-window counters. Take must be atomic per key: two
// concurrent callers can never both observe room for the last slot.
type Store interface {
	Take(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
	// Refund returns one slot to the window that ends at resetAt. It is a
	// no-op once that window has rolled over.
	Refund(ctx context.Context, key string, resetAt time.Time) error
}

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a process-local Store guarded by a single mutex. Each
// instance enforces its own budget; use RedisStore to share one.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// SetClock overrides the time source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Take(_ context.Context, key string, limit int, size time.Duration) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(size)}
		s.windows[key] = w
	}

	if w.count >= limit {
		return Decision{Allowed: false, Limit: limit, Count: w.count, Remaining: 0, ResetAt: w.resetAt}, nil
	}
	w.count++
	return Decision{Allowed: true, Limit: limit, Count: w.count, Remaining: limit - w.count, ResetAt: w.resetAt}, nil
}

func (s *MemoryStore) Refund(_ context.Context, key string, resetAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !w.resetAt.Equal(resetAt) || w.count == 0 {
		return nil
	}
	w.count--
	return nil
}

// Sweep drops windows that have already elapsed and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if !now.Before(w.resetAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// StartSweeper reclaims elapsed windows every interval until Close.
func (s *MemoryStore) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}
