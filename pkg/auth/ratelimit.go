package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter checks whether a request should be allowed based on
// the identity's service tier.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds rate limit settings for a service tier.
type TierConfig struct {
	RequestsPerMinute int
}

// InProcessLimiter is a fixed-window rate limiter that tracks request
// counts per subject in memory.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	now        func() time.Time

	mu       sync.Mutex
	counters map[string]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

// LimiterOption configures an InProcessLimiter.
type LimiterOption func(*InProcessLimiter)

// WithLimiterClock replaces time.Now, for tests.
func WithLimiterClock(now func() time.Time) LimiterOption {
	return func(l *InProcessLimiter) { l.now = now }
}

// NewInProcessLimiter creates a rate limiter with per-tier configuration.
// A tier without an entry uses defaultRPM; zero means unlimited.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int, opts ...LimiterOption) *InProcessLimiter {
	l := &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		now:        time.Now,
		counters:   make(map[string]*counter),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow checks if the request is within the rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier := identity.Tier()

	rpm := l.defaultRPM
	if tc, ok := l.tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	if rpm <= 0 {
		return nil // no limit
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowAt) >= time.Minute {
		l.counters[key] = &counter{count: 1, windowAt: now}
		l.sweep(now)
		return nil
	}

	c.count++
	if c.count > rpm {
		return ErrTooManyRequests
	}
	return nil
}

// sweep drops windows that expired so idle subjects do not accumulate.
// Must be called with mu held.
func (l *InProcessLimiter) sweep(now time.Time) {
	for key, c := range l.counters {
		if now.Sub(c.windowAt) >= time.Minute {
			delete(l.counters, key)
		}
	}
}
