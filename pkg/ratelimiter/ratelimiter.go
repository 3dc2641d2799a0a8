// Package ratelimiter implements token bucket rate limiting with a
// pluggable store. Each key owns a bucket that refills at a fixed rate;
// a request consumes one token and is rejected when the bucket is
// empty. The auth endpoints use it to bound credential and code
// guessing attempts.
package ratelimiter

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidConfig is returned when the limiter configuration is
	// not usable.
	ErrInvalidConfig = errors.New("ratelimiter: invalid config")

	// ErrStoreFailure is returned when the backing store cannot be
	// reached or updated.
	ErrStoreFailure = errors.New("ratelimiter: store failure")
)

// Config describes a token bucket.
type Config struct {
	// Capacity is the burst size, the maximum number of tokens a
	// bucket holds.
	Capacity int64

	// RefillRate tokens are added every RefillInterval.
	RefillRate     int64
	RefillInterval time.Duration
}

// Validate reports whether the configuration is usable.
func (c Config) Validate() error {
	if c.Capacity <= 0 || c.RefillRate <= 0 || c.RefillInterval <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result reports the outcome of a token consumption attempt.
type Result struct {
	Allowed   bool
	Remaining int64
	// RetryAfter is how long until at least one token is available.
	// Zero when the request was allowed.
	RetryAfter time.Duration
}

// Store persists bucket state.
type Store interface {
	// ConsumeTokens atomically refills the bucket for key according to
	// cfg and consumes n tokens if available.
	ConsumeTokens(ctx context.Context, key string, n int64, cfg Config) (Result, error)

	// Reset discards the bucket for key.
	Reset(ctx context.Context, key string) error
}

// RateLimiter applies a single bucket configuration across keys.
type RateLimiter struct {
	store Store
	cfg   Config
}

// New creates a rate limiter backed by store.
func New(store Store, cfg Config) (*RateLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("nil store"))
	}
	return &RateLimiter{store: store, cfg: cfg}, nil
}

// Allow consumes one token for key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (Result, error) {
	return rl.store.ConsumeTokens(ctx, key, 1, rl.cfg)
}

// Reset clears accumulated state for key, e.g. after a successful
// authentication.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.store.Reset(ctx, key)
}
