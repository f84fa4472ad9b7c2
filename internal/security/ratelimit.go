package security

import (
	"context"
	"sync"
	"time"

	"github.com/runreward/runreward/internal/common"
	"github.com/runreward/runreward/internal/metrics"
	"github.com/runreward/runreward/internal/repositories/collections"
	"github.com/runreward/runreward/internal/repositories/kv"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = time.Minute
)

// RateLimiter allows at most Max actions per Window for each action name.
// Attempt timestamps (Unix milliseconds) are kept under rate_limit_<action>
// so limits survive restarts.
type RateLimiter struct {
	repo    kv.Repository
	max     int
	window  time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	mu sync.Mutex
}

type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) { r.now = now }
}

func WithMetrics(m *metrics.Metrics) RateLimiterOption {
	return func(r *RateLimiter) { r.metrics = m }
}

// NewRateLimiter falls back to 5 attempts per minute for non-positive
// limits.
func NewRateLimiter(repo kv.Repository, maxAttempts int, window time.Duration, opts ...RateLimiterOption) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}

	r := &RateLimiter{repo: repo, max: maxAttempts, window: window, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Allow records an attempt for action and reports whether it is within the
// limit. Rejected attempts are not recorded.
func (r *RateLimiter) Allow(ctx context.Context, action string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := collections.New[int64](r.repo, common.RateLimitKeyPrefix+action)
	attempts, err := c.Load(ctx)
	if err != nil {
		return false, err
	}

	now := r.now().UnixMilli()
	windowMs := r.window.Milliseconds()

	recent := attempts[:0]
	for _, ts := range attempts {
		if now-ts < windowMs {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= r.max {
		r.metrics.RecordRateLimited(action)
		return false, nil
	}

	recent = append(recent, now)
	if err := c.Save(ctx, recent); err != nil {
		return false, err
	}
	return true, nil
}

// Reset forgets every attempt of action.
func (r *RateLimiter) Reset(ctx context.Context, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.repo.Delete(ctx, common.RateLimitKeyPrefix+action)
}
