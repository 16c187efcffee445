package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shopfront/backend/internal/domain/shared"
)

const defaultSweepInterval = 5 * time.Minute

type claim struct {
	until  time.Time
	result *string
}

// InMemoryIdempotencyStore keeps claims in a process-local map. Only one
// server instance sees them.
type InMemoryIdempotencyStore struct {
	mu     sync.Mutex
	claims map[string]claim
	now    func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// MemoryOption configures an InMemoryIdempotencyStore
type MemoryOption func(*InMemoryIdempotencyStore)

// WithClock replaces time.Now
func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryIdempotencyStore) { s.now = now }
}

// NewInMemoryIdempotencyStore starts a store whose expired claims are swept
// every few minutes until Close.
func NewInMemoryIdempotencyStore(opts ...MemoryOption) *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		claims: make(map[string]claim),
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.sweepEvery(defaultSweepInterval)
	return s
}

// live returns the unexpired claim for key. Callers hold mu.
func (s *InMemoryIdempotencyStore) live(key string) (claim, bool) {
	c, ok := s.claims[key]
	if !ok || !s.now().Before(c.until) {
		return claim{}, false
	}
	return c, true
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.live(key); held {
		return false, nil
	}
	s.claims[key] = claim{until: s.now().Add(ttl)}
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.live(key)
	return held, nil
}

// SetResult records result under key and restarts its TTL
func (s *InMemoryIdempotencyStore) SetResult(_ context.Context, key, result string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[key] = claim{until: s.now().Add(ttl), result: &result}
	return nil
}

func (s *InMemoryIdempotencyStore) GetResult(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, held := s.live(key)
	if !held || c.result == nil {
		return "", false, nil
	}
	return *c.result, true, nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.claims, key)
	s.mu.Unlock()
	return nil
}

// Len counts stored claims, expired ones included until the next sweep
func (s *InMemoryIdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.claims)
}

// Sweep drops expired claims and reports how many went
func (s *InMemoryIdempotencyStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for key, c := range s.claims {
		if !now.Before(c.until) {
			delete(s.claims, key)
			n++
		}
	}
	return n
}

func (s *InMemoryIdempotencyStore) sweepEvery(interval time.Duration) {
	defer close(s.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.Sweep()
		}
	}
}

// Close stops the sweeper. It may be called more than once.
func (s *InMemoryIdempotencyStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
		<-s.done
	})
	return nil
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
