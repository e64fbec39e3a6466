package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
	"github.com/foliodev/folio/internal/store/sqlstore"
)

func newAccountService(t *testing.T) (*AccountService, store.Store) {
	t.Helper()
	st, err := sqlstore.Open(context.Background(), store.Config{Driver: sqlstore.DriverSQLite})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewAccountService(st), st
}

func TestAccountCreateValidation(t *testing.T) {
	svc, _ := newAccountService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   NewAccount
	}{
		{"short username", NewAccount{Username: "ab", Email: "a@b.c", Password: "secret123"}},
		{"bad charset", NewAccount{Username: "a-b-c", Email: "a@b.c", Password: "secret123"}},
		{"short password", NewAccount{Username: "admin", Email: "a@b.c", Password: "12345"}},
		{"missing email", NewAccount{Username: "admin", Password: "secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.in); !errors.Is(err, ErrInvalidAccount) {
				t.Errorf("got %v, want ErrInvalidAccount", err)
			}
		})
	}

	a, err := svc.Create(ctx, NewAccount{Username: "admin", Email: "a@b.c", Password: "secret123"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.DisplayName != "admin" || !a.IsActive || !CheckPassword(a.PasswordHash, "secret123") {
		t.Errorf("created account: %+v", a)
	}
	if _, err := svc.Create(ctx, NewAccount{Username: "admin", Email: "x@b.c", Password: "secret123"}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate: got %v, want ErrConflict", err)
	}
}

func TestEnsureBootstrap(t *testing.T) {
	svc, st := newAccountService(t)
	ctx := context.Background()

	created, err := svc.EnsureBootstrap(ctx, "admin", "", "")
	if err != nil || created {
		t.Fatalf("without password: created=%v err=%v", created, err)
	}

	created, err = svc.EnsureBootstrap(ctx, "", "bootstrap-pass", "")
	if err != nil || !created {
		t.Fatalf("first bootstrap: created=%v err=%v", created, err)
	}
	a, err := st.FindAccountByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("find bootstrap account: %v", err)
	}
	if a.Role != model.RoleSuperAdmin || len(a.Permissions) != 1 || a.Permissions[0] != "*" {
		t.Errorf("bootstrap account: role=%q perms=%v", a.Role, a.Permissions)
	}

	created, err = svc.EnsureBootstrap(ctx, "other", "bootstrap-pass", "")
	if err != nil || created {
		t.Errorf("second bootstrap: created=%v err=%v", created, err)
	}
}

func TestResetPasswordAndUnlock(t *testing.T) {
	svc, st := newAccountService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, NewAccount{Username: "admin", Email: "a@b.c", Password: "secret123"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	until := time.Now().Add(time.Hour)
	if err := st.UpdateAccountSecurity(ctx, a.ID, model.SecurityUpdate{LoginAttempts: 0, LockedUntil: &until}); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if err := svc.Unlock(ctx, "admin"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	got, _ := st.GetAccount(ctx, a.ID)
	if got.LockedUntil != nil {
		t.Error("still locked after Unlock")
	}

	if err := svc.ResetPassword(ctx, "admin", "brand-new-pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	got, _ = st.GetAccount(ctx, a.ID)
	if !CheckPassword(got.PasswordHash, "brand-new-pass") {
		t.Error("new password does not verify")
	}

	if err := svc.ResetPassword(ctx, "ghost", "brand-new-pass"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}

	if err := svc.SetActive(ctx, "admin", false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	got, _ = st.GetAccount(ctx, a.ID)
	if got.IsActive {
		t.Error("account still active")
	}
}
