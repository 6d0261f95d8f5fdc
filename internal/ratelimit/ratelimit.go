// Package ratelimit counts requests per client in fixed windows, protecting
// the model-call budget independently of the result cache.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultWindow is the counting window duration.
	DefaultWindow = 15 * time.Minute
	// DefaultLimit is the request allowance per client per window.
	DefaultLimit = 100
)

type record struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window per-client request counter. Fixed windows
// tolerate brief bursts at window boundaries; that coarseness is accepted
// here in exchange for O(1) bookkeeping per client.
type Limiter struct {
	mu      sync.Mutex
	records map[string]*record
	window  time.Duration
	limit   int
	now     func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithWindow overrides the window duration.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) { l.window = d }
}

// WithLimit overrides the per-window allowance.
func WithLimit(n int) Option {
	return func(l *Limiter) { l.limit = n }
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter with the given options applied over the defaults.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		records: make(map[string]*record),
		window:  DefaultWindow,
		limit:   DefaultLimit,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Decision reports the outcome of an Allow call.
type Decision struct {
	Permitted         bool
	RetryAfterSeconds int
}

// Allow records a request from clientID and reports whether it is within
// the window allowance. Expired records for any client are purged
// opportunistically on each call.
func (l *Limiter) Allow(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, r := range l.records {
		if !now.Before(r.resetAt) {
			delete(l.records, id)
		}
	}

	r, ok := l.records[clientID]
	if !ok {
		l.records[clientID] = &record{count: 1, resetAt: now.Add(l.window)}
		return Decision{Permitted: true}
	}

	r.count++
	if r.count > l.limit {
		retry := int(math.Ceil(r.resetAt.Sub(now).Seconds()))
		zap.L().Warn("ratelimit: client over allowance",
			zap.String("client", clientID),
			zap.Int("count", r.count),
			zap.Int("retry_after_s", retry),
		)
		return Decision{Permitted: false, RetryAfterSeconds: retry}
	}
	return Decision{Permitted: true}
}

// Tracked returns the number of live client records.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
