package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     int64
	lastRefill time.Time
}

// MemoryStore keeps buckets in process memory. Suitable for a single
// instance; use a shared store when running several replicas.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once

	// now is swappable in tests.
	now func() time.Time
}

// NewMemoryStore creates a store that evicts idle buckets every
// cleanupInterval. A non-positive interval disables eviction.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

// ConsumeTokens implements Store.
func (s *MemoryStore) ConsumeTokens(_ context.Context, key string, n int64, cfg Config) (Result, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{tokens: cfg.Capacity, lastRefill: now}
		s.buckets[key] = b
	} else {
		elapsed := now.Sub(b.lastRefill)
		if ticks := int64(elapsed / cfg.RefillInterval); ticks > 0 {
			b.tokens = min(cfg.Capacity, b.tokens+ticks*cfg.RefillRate)
			b.lastRefill = b.lastRefill.Add(time.Duration(ticks) * cfg.RefillInterval)
		}
	}

	if b.tokens >= n {
		b.tokens -= n
		return Result{Allowed: true, Remaining: b.tokens}, nil
	}

	next := cfg.RefillInterval - now.Sub(b.lastRefill)
	if next < 0 {
		next = 0
	}
	return Result{Allowed: false, Remaining: b.tokens, RetryAfter: next}, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// Close stops the eviction goroutine.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			cutoff := s.now().Add(-interval)
			s.mu.Lock()
			for key, b := range s.buckets {
				if b.lastRefill.Before(cutoff) {
					delete(s.buckets, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
