package security

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestRateLimitConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RateLimitConfig
		wantErr bool
	}{
		{"default", DefaultRateLimit(), false},
		{"login", LoginRateLimit(), false},
		{"zero window", RateLimitConfig{Window: 0, MaxAttempts: 1}, true},
		{"negative window", RateLimitConfig{Window: -time.Second, MaxAttempts: 1}, true},
		{"zero attempts", RateLimitConfig{Window: time.Minute, MaxAttempts: 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestRateLimiterWindow(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(WithClock(clock.Now))
	cfg := LoginRateLimit()

	for i := 1; i <= cfg.MaxAttempts; i++ {
		res := l.Check("1.2.3.4", cfg)
		if !res.Allowed {
			t.Fatalf("attempt %d: denied, want allowed", i)
		}
		if res.Remaining != cfg.MaxAttempts-i {
			t.Errorf("attempt %d: remaining %d, want %d", i, res.Remaining, cfg.MaxAttempts-i)
		}
	}

	clock.Advance(5 * time.Minute)
	res := l.Check("1.2.3.4", cfg)
	if res.Allowed {
		t.Fatal("6th attempt allowed, want denied")
	}
	if res.Remaining != 0 {
		t.Errorf("remaining: got %d, want 0", res.Remaining)
	}
	if res.ResetIn != 10*time.Minute {
		t.Errorf("ResetIn: got %v, want 10m", res.ResetIn)
	}
	if res.ResetInMinutes() != 10 {
		t.Errorf("ResetInMinutes: got %d, want 10", res.ResetInMinutes())
	}

	// Denials do not extend the window.
	for i := 0; i < 10; i++ {
		l.Check("1.2.3.4", cfg)
	}
	clock.Advance(10*time.Minute + time.Millisecond)
	res = l.Check("1.2.3.4", cfg)
	if !res.Allowed {
		t.Fatal("attempt after window: denied, want allowed")
	}
	if res.Remaining != cfg.MaxAttempts-1 {
		t.Errorf("fresh window remaining: got %d, want %d", res.Remaining, cfg.MaxAttempts-1)
	}
	if res.ResetIn != cfg.Window {
		t.Errorf("fresh window ResetIn: got %v, want %v", res.ResetIn, cfg.Window)
	}
}

func TestRateLimiterBoundaryInclusive(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(WithClock(clock.Now))
	cfg := RateLimitConfig{Window: time.Minute, MaxAttempts: 1, KeyPrefix: "t:"}

	l.Check("k", cfg)
	clock.Advance(time.Minute)
	if l.Check("k", cfg).Allowed {
		t.Error("attempt exactly at resetAt allowed, want denied")
	}
}

func TestRateLimiterKeysIndependent(t *testing.T) {
	l := NewRateLimiter()
	cfg := RateLimitConfig{Window: time.Minute, MaxAttempts: 1, KeyPrefix: "login:"}

	if !l.Check("a", cfg).Allowed {
		t.Fatal("a: first attempt denied")
	}
	if l.Check("a", cfg).Allowed {
		t.Fatal("a: second attempt allowed")
	}
	if !l.Check("b", cfg).Allowed {
		t.Error("b: first attempt denied, keys must not share windows")
	}

	other := RateLimitConfig{Window: time.Minute, MaxAttempts: 1, KeyPrefix: "rl:"}
	if !l.Check("a", other).Allowed {
		t.Error("a under another prefix denied, prefixes must not share windows")
	}
}

func TestRateLimiterReset(t *testing.T) {
	l := NewRateLimiter()
	cfg := LoginRateLimit()
	for i := 0; i < cfg.MaxAttempts; i++ {
		l.Check("ip", cfg)
	}
	if l.Check("ip", cfg).Allowed {
		t.Fatal("expected exhaustion")
	}

	l.Reset("ip", cfg.KeyPrefix)
	res := l.Check("ip", cfg)
	if !res.Allowed || res.Remaining != cfg.MaxAttempts-1 {
		t.Errorf("after Reset: got %+v, want fresh window", res)
	}

	// Resetting an unknown key is a no-op.
	l.Reset("nobody", cfg.KeyPrefix)
}

func TestRateLimiterSweep(t *testing.T) {
	clock := newFakeClock()
	l := NewRateLimiter(WithClock(clock.Now))
	short := RateLimitConfig{Window: time.Minute, MaxAttempts: 3, KeyPrefix: "s:"}
	long := RateLimitConfig{Window: time.Hour, MaxAttempts: 3, KeyPrefix: "l:"}

	l.Check("a", short)
	l.Check("b", short)
	l.Check("c", long)
	if l.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", l.Len())
	}

	clock.Advance(2 * time.Minute)
	if removed := l.Sweep(); removed != 2 {
		t.Errorf("Sweep removed %d, want 2", removed)
	}
	if l.Len() != 1 {
		t.Errorf("Len after sweep: got %d, want 1", l.Len())
	}
}

func TestRateLimiterConcurrent(t *testing.T) {
	l := NewRateLimiter()
	cfg := RateLimitConfig{Window: time.Minute, MaxAttempts: 50, KeyPrefix: "c:"}

	var allowed atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("shared", cfg).Allowed {
				allowed.Add(1)
			}
		}()
	}
	// Sweeping concurrently must not disturb live windows.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			l.Sweep()
		}
	}()
	wg.Wait()

	if got := allowed.Load(); got != int64(cfg.MaxAttempts) {
		t.Errorf("allowed: got %d, want exactly %d", got, cfg.MaxAttempts)
	}
}

func TestRateLimiterRunStops(t *testing.T) {
	l := NewRateLimiter(WithSweepInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCeilMinutes(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{time.Millisecond, 1},
		{time.Minute, 1},
		{time.Minute + time.Millisecond, 2},
		{15 * time.Minute, 15},
	}
	for _, tt := range tests {
		if got := CeilMinutes(tt.d); got != tt.want {
			t.Errorf("CeilMinutes(%v): got %d, want %d", tt.d, got, tt.want)
		}
	}
}
