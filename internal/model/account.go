package model

import "time"

// Account is an administrative user of the portfolio backend. Passwords are
// stored as bcrypt hashes and are never serialized.
type Account struct {
	ID            string     `json:"id" bson:"-"`
	Username      string     `json:"username" bson:"username"`
	Email         string     `json:"email" bson:"email"`
	PasswordHash  string     `json:"-" bson:"passwordHash"` // bcrypt hash, never expose
	DisplayName   string     `json:"displayName" bson:"displayName"`
	Role          string     `json:"role" bson:"role"`
	Permissions   []string   `json:"permissions" bson:"permissions"`
	IsActive      bool       `json:"isActive" bson:"isActive"`
	LoginAttempts int        `json:"loginAttempts" bson:"loginAttempts"`
	LockedUntil   *time.Time `json:"lockedUntil,omitempty" bson:"lockedUntil,omitempty"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty" bson:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// AccountView is an account as returned to its owner: every field except
// the password hash.
type AccountView struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	Role          string     `json:"role"`
	Permissions   []string   `json:"permissions"`
	IsActive      bool       `json:"isActive"`
	LoginAttempts int        `json:"loginAttempts"`
	LockedUntil   *time.Time `json:"lockedUntil,omitempty"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// View returns the public view of a.
func (a *Account) View() AccountView {
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	return AccountView{
		ID:            a.ID,
		Username:      a.Username,
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		Role:          a.Role,
		Permissions:   perms,
		IsActive:      a.IsActive,
		LoginAttempts: a.LoginAttempts,
		LockedUntil:   a.LockedUntil,
		LastLoginAt:   a.LastLoginAt,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// RoleSuperAdmin is the role given to the bootstrap account.
const RoleSuperAdmin = "super_admin"

// SecurityUpdate carries the login bookkeeping fields of an Account. The
// attempt counter and the lock are always written together.
//
// LockedUntil non-nil sets a lock, ClearLock removes it, and neither leaves
// the stored lock untouched. LastLoginAt is written only when non-nil.
type SecurityUpdate struct {
	LoginAttempts int
	LockedUntil   *time.Time
	ClearLock     bool
	LastLoginAt   *time.Time
}

// Apply mirrors the update onto an in-memory account so callers can respond
// with fresh state without re-reading the store.
func (u SecurityUpdate) Apply(a *Account) {
	a.LoginAttempts = u.LoginAttempts
	if u.LockedUntil != nil {
		t := *u.LockedUntil
		a.LockedUntil = &t
	}
	if u.ClearLock {
		a.LockedUntil = nil
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		a.LastLoginAt = &t
	}
}
