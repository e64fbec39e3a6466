package security

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// RateLimitConfig describes one rate-limit namespace. Keys are namespaced by
// KeyPrefix, so configs with different prefixes never share a window.
type RateLimitConfig struct {
	Window      time.Duration
	MaxAttempts int
	KeyPrefix   string
}

// Validate reports whether the config can be used by a RateLimiter.
func (c RateLimitConfig) Validate() error {
	if c.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	if c.MaxAttempts < 1 {
		return errors.New("rate limit max attempts must be at least 1")
	}
	return nil
}

// DefaultRateLimit is the general-purpose namespace: 10 attempts per 15
// minutes.
func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{Window: 15 * time.Minute, MaxAttempts: 10, KeyPrefix: "rl:"}
}

// LoginRateLimit is the stricter namespace used by the login endpoint.
func LoginRateLimit() RateLimitConfig {
	return RateLimitConfig{Window: 15 * time.Minute, MaxAttempts: 5, KeyPrefix: LoginKeyPrefix}
}

// LoginKeyPrefix namespaces login attempt windows.
const LoginKeyPrefix = "login:"

// RateLimitResult is the outcome of a single Check.
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// ResetInMinutes is ResetIn rounded up to whole minutes.
func (r RateLimitResult) ResetInMinutes() int {
	return CeilMinutes(r.ResetIn)
}

// CeilMinutes rounds d up to whole minutes. Non-positive durations yield 0.
func CeilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

type window struct {
	count   atomic.Int64
	resetAt time.Time
}

// RateLimiter is an in-memory fixed-window counter keyed by an arbitrary
// string, usually the client address. It is safe for concurrent use; under
// a true race on a key being reset, one attempt may go uncounted.
//
// State lives in this process only. Several instances behind a load
// balancer each keep their own windows.
type RateLimiter struct {
	windows       sync.Map // string -> *window
	now           func() time.Time
	sweepInterval time.Duration
}

// RateLimiterOption configures a RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) RateLimiterOption {
	return func(l *RateLimiter) { l.now = now }
}

// WithSweepInterval sets how often Run purges expired windows.
func WithSweepInterval(d time.Duration) RateLimiterOption {
	return func(l *RateLimiter) {
		if d > 0 {
			l.sweepInterval = d
		}
	}
}

// NewRateLimiter creates an empty limiter. Call Run in a goroutine to enable
// the periodic sweep.
func NewRateLimiter(opts ...RateLimiterOption) *RateLimiter {
	l := &RateLimiter{
		now:           time.Now,
		sweepInterval: time.Hour,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check records an attempt for key under cfg and reports whether it is
// allowed. Denied attempts do not increment the counter, so repeated denials
// neither extend the window nor skew Remaining.
func (l *RateLimiter) Check(key string, cfg RateLimitConfig) RateLimitResult {
	now := l.now()
	fullKey := cfg.KeyPrefix + key
	limit := int64(cfg.MaxAttempts)

	for {
		v, ok := l.windows.Load(fullKey)
		if !ok {
			w := &window{resetAt: now.Add(cfg.Window)}
			w.count.Store(1)
			if _, loaded := l.windows.LoadOrStore(fullKey, w); loaded {
				continue
			}
			return RateLimitResult{
				Allowed:   true,
				Remaining: cfg.MaxAttempts - 1,
				ResetIn:   cfg.Window,
			}
		}

		w := v.(*window)
		if now.After(w.resetAt) {
			l.windows.CompareAndDelete(fullKey, w)
			continue
		}

		for {
			c := w.count.Load()
			if c >= limit {
				return RateLimitResult{Allowed: false, Remaining: 0, ResetIn: w.resetAt.Sub(now)}
			}
			if w.count.CompareAndSwap(c, c+1) {
				return RateLimitResult{
					Allowed:   true,
					Remaining: int(limit - (c + 1)),
					ResetIn:   w.resetAt.Sub(now),
				}
			}
		}
	}
}

// Reset drops the window for prefix+key, giving the key a fresh budget.
func (l *RateLimiter) Reset(key, prefix string) {
	l.windows.Delete(prefix + key)
}

// Sweep deletes every expired window and returns how many were removed.
func (l *RateLimiter) Sweep() int {
	now := l.now()
	removed := 0
	l.windows.Range(func(k, v any) bool {
		if now.After(v.(*window).resetAt) && l.windows.CompareAndDelete(k, v) {
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of windows currently held, expired or not.
func (l *RateLimiter) Len() int {
	n := 0
	l.windows.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Run sweeps expired windows on every tick until ctx is cancelled.
func (l *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
