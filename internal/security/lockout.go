package security

import (
	"errors"
	"time"

	"github.com/foliodev/folio/internal/model"
)

// LockoutPolicy locks an account for Duration once Threshold consecutive
// failed logins have been recorded since the last lock or success.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy locks for 15 minutes after 5 failures.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}
}

// NewLockoutPolicy validates and returns a policy.
func NewLockoutPolicy(threshold int, duration time.Duration) (LockoutPolicy, error) {
	p := LockoutPolicy{Threshold: threshold, Duration: duration}
	if err := p.Validate(); err != nil {
		return LockoutPolicy{}, err
	}
	return p, nil
}

// Validate reports whether the policy is usable.
func (p LockoutPolicy) Validate() error {
	if p.Threshold < 1 {
		return errors.New("lockout threshold must be at least 1")
	}
	if p.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	return nil
}

// IsLocked reports whether a's lock is set and strictly in the future.
func (p LockoutPolicy) IsLocked(a *model.Account, now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

// Remaining is the time left on a's lock, or zero when unlocked.
func (p LockoutPolicy) Remaining(a *model.Account, now time.Time) time.Duration {
	if !p.IsLocked(a, now) {
		return 0
	}
	return a.LockedUntil.Sub(now)
}

// OnFailure computes the fields to persist after a wrong password. Reaching
// the threshold sets a new lock and restarts the counter, so the counter
// tracks failures since the last lock rather than lifetime failures.
func (p LockoutPolicy) OnFailure(a *model.Account, now time.Time) model.SecurityUpdate {
	attempts := a.LoginAttempts + 1
	if attempts >= p.Threshold {
		until := now.Add(p.Duration)
		return model.SecurityUpdate{LoginAttempts: 0, LockedUntil: &until}
	}
	return model.SecurityUpdate{LoginAttempts: attempts}
}

// OnSuccess computes the fields to persist after a correct password.
func (p LockoutPolicy) OnSuccess() model.SecurityUpdate {
	return model.SecurityUpdate{LoginAttempts: 0, ClearLock: true}
}
