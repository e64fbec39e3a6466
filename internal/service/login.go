package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/store"
)

// AccountStore is the slice of store.Store the login flow needs.
type AccountStore interface {
	FindAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	UpdateAccountSecurity(ctx context.Context, id string, u model.SecurityUpdate) error
}

// LoginRequest is one login attempt. Body is the decoded JSON payload, kept
// untyped so structural checks can see exactly what the client sent.
type LoginRequest struct {
	ClientIP string
	Body     any
}

// LoginResult is a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.Account
}

// LoginService runs the login transaction: address throttling, input
// sanitization, account state checks, password verification and lockout
// bookkeeping, then token issue.
type LoginService struct {
	accounts AccountStore
	auth     *AuthService
	limiter  *security.RateLimiter
	rateCfg  security.RateLimitConfig
	lockout  security.LockoutPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// LoginOption configures a LoginService.
type LoginOption func(*LoginService)

// WithRateLimit overrides security.LoginRateLimit.
func WithRateLimit(cfg security.RateLimitConfig) LoginOption {
	return func(s *LoginService) { s.rateCfg = cfg }
}

// WithLockoutPolicy overrides security.DefaultLockoutPolicy.
func WithLockoutPolicy(p security.LockoutPolicy) LoginOption {
	return func(s *LoginService) { s.lockout = p }
}

// WithLogger sets the logger for login events.
func WithLogger(l *slog.Logger) LoginOption {
	return func(s *LoginService) { s.logger = l }
}

// WithClock replaces time.Now for lock decisions.
func WithClock(now func() time.Time) LoginOption {
	return func(s *LoginService) { s.now = now }
}

// NewLoginService wires a LoginService. Rate-limit and lockout settings are
// validated here so a bad config fails at startup, not on first login.
func NewLoginService(accounts AccountStore, auth *AuthService, limiter *security.RateLimiter, opts ...LoginOption) (*LoginService, error) {
	s := &LoginService{
		accounts: accounts,
		auth:     auth,
		limiter:  limiter,
		rateCfg:  security.LoginRateLimit(),
		lockout:  security.DefaultLockoutPolicy(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.rateCfg.Validate(); err != nil {
		return nil, fmt.Errorf("login rate limit: %w", err)
	}
	if err := s.lockout.Validate(); err != nil {
		return nil, fmt.Errorf("lockout policy: %w", err)
	}
	return s, nil
}

// RateLimit returns the config used to throttle login attempts.
func (s *LoginService) RateLimit() security.RateLimitConfig { return s.rateCfg }

// Login performs one attempt. Every failure is a *LoginError.
func (s *LoginService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	log := s.logger.With("client_ip", req.ClientIP)

	rl := s.limiter.Check(req.ClientIP, s.rateCfg)
	if !rl.Allowed {
		log.Warn("login rate limit exceeded", "reset_in", rl.ResetIn)
		return nil, &LoginError{
			Kind:       KindRateLimited,
			Message:    fmt.Sprintf("Too many login attempts, please try again in %d minutes", rl.ResetInMinutes()),
			RetryAfter: rl.ResetIn,
		}
	}

	in := security.ValidateLoginInput(req.Body)
	if !in.OK {
		if security.ContainsOperator(req.Body) {
			log.Warn("login payload contains query operators")
		}
		return nil, &LoginError{Kind: KindValidation, Message: in.Reason}
	}
	log = log.With("username", in.Username)

	acct, err := s.accounts.FindAccountByUsername(ctx, in.Username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &LoginError{Kind: KindAuth, Message: MsgInvalidCredentials}
	}
	if err != nil {
		return nil, s.infra(log, "account lookup failed", err)
	}

	if !acct.IsActive {
		return nil, &LoginError{Kind: KindAccountState, Message: MsgAccountDisabled}
	}

	now := s.now()
	if s.lockout.IsLocked(acct, now) {
		mins := security.CeilMinutes(s.lockout.Remaining(acct, now))
		return nil, &LoginError{
			Kind:    KindAccountState,
			Message: fmt.Sprintf("Account is locked, please try again in %d minutes", mins),
		}
	}

	if !CheckPassword(acct.PasswordHash, in.Password) {
		u := s.lockout.OnFailure(acct, now)
		if err := s.accounts.UpdateAccountSecurity(ctx, acct.ID, u); err != nil {
			return nil, s.infra(log, "record failed login", err)
		}
		if u.LockedUntil != nil {
			log.Warn("account locked after repeated failures", "locked_until", *u.LockedUntil)
			return nil, &LoginError{
				Kind:    KindAccountState,
				Message: fmt.Sprintf("Too many failed attempts, account locked for %d minutes", security.CeilMinutes(s.lockout.Duration)),
			}
		}
		log.Info("login failed", "attempts", u.LoginAttempts)
		return nil, &LoginError{Kind: KindAuth, Message: MsgInvalidCredentials}
	}

	u := s.lockout.OnSuccess()
	u.LastLoginAt = &now
	if err := s.accounts.UpdateAccountSecurity(ctx, acct.ID, u); err != nil {
		return nil, s.infra(log, "record successful login", err)
	}
	u.Apply(acct)

	s.limiter.Reset(req.ClientIP, s.rateCfg.KeyPrefix)

	token, expiresAt, err := s.auth.IssueToken(acct)
	if err != nil {
		return nil, s.infra(log, "issue session token", err)
	}

	log.Info("login succeeded", "account_id", acct.ID)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: acct}, nil
}

func (s *LoginService) infra(log *slog.Logger, msg string, err error) *LoginError {
	log.Error(msg, "error", err)
	return &LoginError{Kind: KindInfrastructure, Message: MsgLoginFailed, Err: err}
}
