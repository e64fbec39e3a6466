package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/store"
)

// ErrInvalidAccount is wrapped by account validation failures.
var ErrInvalidAccount = errors.New("invalid account")

// NewAccount describes an account to create.
type NewAccount struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        string
	Permissions []string
}

// AccountService manages admin accounts outside the login flow: bootstrap,
// CLI creation, password resets and unlocks.
type AccountService struct {
	store store.Store
}

// NewAccountService creates an AccountService.
func NewAccountService(s store.Store) *AccountService {
	return &AccountService{store: s}
}

// checkCredentials applies the login input rules so every created account
// can actually log in.
func checkCredentials(username, password string) (string, error) {
	in := security.ValidateLoginInput(map[string]any{"username": username, "password": password})
	if !in.OK {
		return "", fmt.Errorf("%w: %s", ErrInvalidAccount, in.Reason)
	}
	return in.Username, nil
}

// Create validates and stores a new active account.
func (s *AccountService) Create(ctx context.Context, n NewAccount) (*model.Account, error) {
	username, err := checkCredentials(n.Username, n.Password)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(n.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidAccount)
	}

	hash, err := HashPassword(n.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	display := strings.TrimSpace(n.DisplayName)
	if display == "" {
		display = username
	}
	perms := n.Permissions
	if perms == nil {
		perms = []string{}
	}

	a := &model.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		DisplayName:  display,
		Role:         n.Role,
		Permissions:  perms,
		IsActive:     true,
	}
	if err := s.store.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// EnsureBootstrap creates a super admin when the store has no accounts and
// a password is configured. It reports whether an account was created.
func (s *AccountService) EnsureBootstrap(ctx context.Context, username, password, email string) (bool, error) {
	n, err := s.store.CountAccounts(ctx)
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	if n > 0 || password == "" {
		return false, nil
	}
	if username == "" {
		username = "admin"
	}
	if email == "" {
		email = username + "@localhost"
	}
	_, err = s.Create(ctx, NewAccount{
		Username:    username,
		Email:       email,
		Password:    password,
		DisplayName: "Administrator",
		Role:        model.RoleSuperAdmin,
		Permissions: []string{"*"},
	})
	if err != nil {
		return false, fmt.Errorf("create bootstrap account: %w", err)
	}
	return true, nil
}

// List returns all accounts.
func (s *AccountService) List(ctx context.Context) ([]model.Account, error) {
	return s.store.ListAccounts(ctx)
}

// ResetPassword sets a new password and clears the counter and lock.
func (s *AccountService) ResetPassword(ctx context.Context, username, password string) error {
	if _, err := checkCredentials(username, password); err != nil {
		return err
	}
	a, err := s.store.FindAccountByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.SetAccountPassword(ctx, a.ID, hash)
}

// Unlock clears the failure counter and any lock.
func (s *AccountService) Unlock(ctx context.Context, username string) error {
	a, err := s.store.FindAccountByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.store.UpdateAccountSecurity(ctx, a.ID, security.DefaultLockoutPolicy().OnSuccess())
}

// SetActive enables or disables the named account.
func (s *AccountService) SetActive(ctx context.Context, username string, active bool) error {
	a, err := s.store.FindAccountByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.store.SetAccountActive(ctx, a.ID, active)
}
