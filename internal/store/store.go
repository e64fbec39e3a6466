// Package store defines the persistence contract for accounts and portfolio
// content, and a driver registry that picks a backend by name.
package store

import (
	"context"
	"errors"
	"slices"

	"github.com/foliodev/folio/internal/model"
)

var (
	// ErrNotFound is returned when a requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would violate a unique key.
	ErrConflict = errors.New("conflict")
)

// Config selects and configures a backend.
type Config struct {
	Driver   string // sqlite, postgres or mongodb
	DSN      string
	Database string // MongoDB database name
}

// ProjectFilter narrows ListProjects. Zero values disable each filter.
type ProjectFilter struct {
	PublishedOnly bool
	FeaturedOnly  bool
	Category      string
	Tag           string
	Limit         int
}

// Match reports whether p passes every filter except Limit.
func (f ProjectFilter) Match(p *model.Project) bool {
	if f.PublishedOnly && !p.Published {
		return false
	}
	if f.FeaturedOnly && !p.Featured {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Tag != "" && !slices.Contains(p.Tags, f.Tag) {
		return false
	}
	return true
}

// Store is implemented by every backend. Lists are ordered by the
// documents' order field ascending.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	// Accounts
	FindAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	CountAccounts(ctx context.Context) (int64, error)
	CreateAccount(ctx context.Context, a *model.Account) error
	UpdateAccountSecurity(ctx context.Context, id string, u model.SecurityUpdate) error
	// SetAccountPassword replaces the hash and clears the counter and lock.
	SetAccountPassword(ctx context.Context, id, passwordHash string) error
	SetAccountActive(ctx context.Context, id string, active bool) error

	// Profile
	GetActiveProfile(ctx context.Context) (*model.Profile, error)
	SaveProfile(ctx context.Context, p *model.Profile) error

	// Projects
	ListProjects(ctx context.Context, f ProjectFilter) ([]model.Project, error)
	GetProject(ctx context.Context, projectID string, publishedOnly bool) (*model.Project, error)
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, p *model.Project) error
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, id string) error

	// Skills
	ListSkillCategories(ctx context.Context, visibleOnly bool) ([]model.SkillCategory, error)
	SaveSkillCategory(ctx context.Context, c *model.SkillCategory) error

	// Contact
	GetActiveContact(ctx context.Context) (*model.Contact, error)
	SaveContact(ctx context.Context, c *model.Contact) error
}
