package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
)

const accountColumns = `id, username, email, password_hash, display_name, role, permissions,
	is_active, login_attempts, locked_until, last_login_at, created_at, updated_at`

type accountRow struct {
	ID            string     `db:"id"`
	Username      string     `db:"username"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password_hash"`
	DisplayName   string     `db:"display_name"`
	Role          string     `db:"role"`
	Permissions   string     `db:"permissions"`
	IsActive      bool       `db:"is_active"`
	LoginAttempts int        `db:"login_attempts"`
	LockedUntil   *time.Time `db:"locked_until"`
	LastLoginAt   *time.Time `db:"last_login_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func accountRowFromModel(a *model.Account) (accountRow, error) {
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	permsJSON, err := json.Marshal(perms)
	if err != nil {
		return accountRow{}, fmt.Errorf("marshal permissions: %w", err)
	}
	return accountRow{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		PasswordHash:  a.PasswordHash,
		DisplayName:   a.DisplayName,
		Role:          a.Role,
		Permissions:   string(permsJSON),
		IsActive:      a.IsActive,
		LoginAttempts: a.LoginAttempts,
		LockedUntil:   a.LockedUntil,
		LastLoginAt:   a.LastLoginAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}, nil
}

func (r accountRow) toModel() (model.Account, error) {
	var perms []string
	if r.Permissions != "" {
		if err := json.Unmarshal([]byte(r.Permissions), &perms); err != nil {
			return model.Account{}, fmt.Errorf("unmarshal permissions: %w", err)
		}
	}
	if perms == nil {
		perms = []string{}
	}
	return model.Account{
		ID:            r.ID,
		Username:      r.Username,
		Email:         r.Email,
		PasswordHash:  r.PasswordHash,
		DisplayName:   r.DisplayName,
		Role:          r.Role,
		Permissions:   perms,
		IsActive:      r.IsActive,
		LoginAttempts: r.LoginAttempts,
		LockedUntil:   r.LockedUntil,
		LastLoginAt:   r.LastLoginAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}

func (s *Store) getAccount(ctx context.Context, where string, arg any) (*model.Account, error) {
	var row accountRow
	q := s.rebind("SELECT " + accountColumns + " FROM admin_users WHERE " + where + " = ?")
	if err := s.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	a, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindAccountByUsername looks up an account by exact username.
func (s *Store) FindAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	return s.getAccount(ctx, "username", username)
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return s.getAccount(ctx, "id", id)
}

// ListAccounts returns every account ordered by username.
func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var rows []accountRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+accountColumns+" FROM admin_users ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]model.Account, 0, len(rows))
	for _, r := range rows {
		a, err := r.toModel()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// CountAccounts returns the number of accounts.
func (s *Store) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM admin_users"); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

// CreateAccount inserts a. ID, CreatedAt and UpdatedAt are populated.
func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	now := s.now()
	a.ID = newID()
	a.CreatedAt = now
	a.UpdatedAt = now

	row, err := accountRowFromModel(a)
	if err != nil {
		return err
	}

	const q = `INSERT INTO admin_users
		(id, username, email, password_hash, display_name, role, permissions,
		 is_active, login_attempts, locked_until, last_login_at, created_at, updated_at)
		VALUES (:id, :username, :email, :password_hash, :display_name, :role, :permissions,
		 :is_active, :login_attempts, :locked_until, :last_login_at, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account %q: %w", a.Username, store.ErrConflict)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// UpdateAccountSecurity writes the counter, lock and last-login fields in a
// single statement.
func (s *Store) UpdateAccountSecurity(ctx context.Context, id string, u model.SecurityUpdate) error {
	sets := []string{"login_attempts = ?", "updated_at = ?"}
	args := []any{u.LoginAttempts, s.now()}

	switch {
	case u.LockedUntil != nil:
		sets = append(sets, "locked_until = ?")
		args = append(args, u.LockedUntil.UTC())
	case u.ClearLock:
		sets = append(sets, "locked_until = NULL")
	}
	if u.LastLoginAt != nil {
		sets = append(sets, "last_login_at = ?")
		args = append(args, u.LastLoginAt.UTC())
	}
	args = append(args, id)

	q := s.rebind("UPDATE admin_users SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update account security: %w", err)
	}
	return checkAffected(res, "update account security")
}

// SetAccountPassword replaces the password hash and clears the counter and
// lock.
func (s *Store) SetAccountPassword(ctx context.Context, id, passwordHash string) error {
	q := s.rebind(`UPDATE admin_users
		SET password_hash = ?, login_attempts = 0, locked_until = NULL, updated_at = ?
		WHERE id = ?`)
	res, err := s.db.ExecContext(ctx, q, passwordHash, s.now(), id)
	if err != nil {
		return fmt.Errorf("set account password: %w", err)
	}
	return checkAffected(res, "set account password")
}

// SetAccountActive enables or disables an account.
func (s *Store) SetAccountActive(ctx context.Context, id string, active bool) error {
	q := s.rebind("UPDATE admin_users SET is_active = ?, updated_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, active, s.now(), id)
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}
	return checkAffected(res, "set account active")
}
