package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), store.Config{Driver: DriverSQLite})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newAccount(username string) *model.Account {
	return &model.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$hash",
		DisplayName:  "Admin",
		Role:         model.RoleSuperAdmin,
		Permissions:  []string{"*"},
		IsActive:     true,
	}
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func TestAccountCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := newAccount("admin")
	if err := s.CreateAccount(ctx, a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected ID to be set")
	}

	got, err := s.FindAccountByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("FindAccountByUsername: %v", err)
	}
	if got.ID != a.ID || got.Email != "admin@example.com" || !got.IsActive {
		t.Errorf("got %+v", got)
	}
	if len(got.Permissions) != 1 || got.Permissions[0] != "*" {
		t.Errorf("Permissions: got %v", got.Permissions)
	}
	if got.LockedUntil != nil || got.LastLoginAt != nil {
		t.Errorf("expected nil timestamps, got locked=%v last=%v", got.LockedUntil, got.LastLoginAt)
	}

	byID, err := s.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if byID.Username != "admin" {
		t.Errorf("Username: got %q", byID.Username)
	}

	if _, err := s.FindAccountByUsername(ctx, "Admin"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("lookup is exact: got %v, want ErrNotFound", err)
	}

	if err := s.CreateAccount(ctx, newAccount("admin")); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate username: got %v, want ErrConflict", err)
	}

	if err := s.CreateAccount(ctx, newAccount("editor")); err != nil {
		t.Fatalf("CreateAccount editor: %v", err)
	}
	n, err := s.CountAccounts(ctx)
	if err != nil {
		t.Fatalf("CountAccounts: %v", err)
	}
	if n != 2 {
		t.Errorf("CountAccounts: got %d, want 2", n)
	}
	list, err := s.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(list) != 2 || list[0].Username != "admin" {
		t.Errorf("ListAccounts: got %v", list)
	}
}

func TestUpdateAccountSecurity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := newAccount("admin")
	if err := s.CreateAccount(ctx, a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if err := s.UpdateAccountSecurity(ctx, a.ID, model.SecurityUpdate{LoginAttempts: 3}); err != nil {
		t.Fatalf("UpdateAccountSecurity: %v", err)
	}
	got, _ := s.GetAccount(ctx, a.ID)
	if got.LoginAttempts != 3 || got.LockedUntil != nil {
		t.Errorf("after counter update: attempts=%d locked=%v", got.LoginAttempts, got.LockedUntil)
	}

	until := time.Now().Add(15 * time.Minute).UTC().Truncate(time.Second)
	if err := s.UpdateAccountSecurity(ctx, a.ID, model.SecurityUpdate{LoginAttempts: 0, LockedUntil: &until}); err != nil {
		t.Fatalf("lock: %v", err)
	}
	got, _ = s.GetAccount(ctx, a.ID)
	if got.LoginAttempts != 0 || got.LockedUntil == nil || !got.LockedUntil.Equal(until) {
		t.Errorf("after lock: attempts=%d locked=%v, want %v", got.LoginAttempts, got.LockedUntil, until)
	}

	// A counter-only update leaves the lock alone.
	if err := s.UpdateAccountSecurity(ctx, a.ID, model.SecurityUpdate{LoginAttempts: 1}); err != nil {
		t.Fatalf("counter update: %v", err)
	}
	got, _ = s.GetAccount(ctx, a.ID)
	if got.LockedUntil == nil {
		t.Error("lock cleared by counter-only update")
	}

	last := time.Now().UTC().Truncate(time.Second)
	if err := s.UpdateAccountSecurity(ctx, a.ID, model.SecurityUpdate{ClearLock: true, LastLoginAt: &last}); err != nil {
		t.Fatalf("success update: %v", err)
	}
	got, _ = s.GetAccount(ctx, a.ID)
	if got.LoginAttempts != 0 || got.LockedUntil != nil {
		t.Errorf("after success: attempts=%d locked=%v", got.LoginAttempts, got.LockedUntil)
	}
	if got.LastLoginAt == nil || !got.LastLoginAt.Equal(last) {
		t.Errorf("LastLoginAt: got %v, want %v", got.LastLoginAt, last)
	}

	if err := s.UpdateAccountSecurity(ctx, "missing", model.SecurityUpdate{}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestSetAccountPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := newAccount("admin")
	if err := s.CreateAccount(ctx, a); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	until := time.Now().Add(time.Hour)
	if err := s.UpdateAccountSecurity(ctx, a.ID, model.SecurityUpdate{LoginAttempts: 2, LockedUntil: &until}); err != nil {
		t.Fatalf("lock: %v", err)
	}

	if err := s.SetAccountPassword(ctx, a.ID, "new-hash"); err != nil {
		t.Fatalf("SetAccountPassword: %v", err)
	}
	got, _ := s.GetAccount(ctx, a.ID)
	if got.PasswordHash != "new-hash" || got.LoginAttempts != 0 || got.LockedUntil != nil {
		t.Errorf("after reset: hash=%q attempts=%d locked=%v", got.PasswordHash, got.LoginAttempts, got.LockedUntil)
	}
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

func newProject(id string, order int, published bool) *model.Project {
	return &model.Project{
		ProjectID: id,
		Slug:      id,
		Title:     "Project " + id,
		Category:  "web",
		Tags:      []string{"go"},
		Published: published,
		Order:     order,
		Images:    []model.ProjectImage{{Layout: "full", Label: "hero", Order: 1}},
	}
}

func TestProjectCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	b := newProject("beta", 2, true)
	a := newProject("alpha", 1, true)
	c := newProject("gamma", 3, false)
	c.Tags = []string{"print"}
	c.Category = "print"
	for _, p := range []*model.Project{b, a, c} {
		if err := s.CreateProject(ctx, p); err != nil {
			t.Fatalf("CreateProject %s: %v", p.ProjectID, err)
		}
	}

	all, err := s.ListProjects(ctx, store.ProjectFilter{})
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(all) != 3 || all[0].ProjectID != "alpha" || all[2].ProjectID != "gamma" {
		t.Fatalf("ordering: got %v", projectIDs(all))
	}

	published, _ := s.ListProjects(ctx, store.ProjectFilter{PublishedOnly: true})
	if len(published) != 2 {
		t.Errorf("published: got %v", projectIDs(published))
	}
	limited, _ := s.ListProjects(ctx, store.ProjectFilter{PublishedOnly: true, Limit: 1})
	if len(limited) != 1 || limited[0].ProjectID != "alpha" {
		t.Errorf("limit: got %v", projectIDs(limited))
	}
	tagged, _ := s.ListProjects(ctx, store.ProjectFilter{Tag: "print"})
	if len(tagged) != 1 || tagged[0].ProjectID != "gamma" {
		t.Errorf("tag: got %v", projectIDs(tagged))
	}

	if _, err := s.GetProject(ctx, "gamma", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unpublished via public lookup: got %v, want ErrNotFound", err)
	}
	got, err := s.GetProject(ctx, "gamma", false)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if len(got.Images) != 1 || got.Images[0].Label != "hero" {
		t.Errorf("body round trip: images=%v", got.Images)
	}

	dup := newProject("alpha", 9, false)
	if err := s.CreateProject(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate projectId: got %v, want ErrConflict", err)
	}

	got.Title = "Renamed"
	got.Published = true
	if err := s.UpdateProject(ctx, got); err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	again, _ := s.GetProjectByID(ctx, got.ID)
	if again.Title != "Renamed" || !again.Published {
		t.Errorf("after update: %+v", again)
	}

	got.Slug = "alpha"
	if err := s.UpdateProject(ctx, got); !errors.Is(err, store.ErrConflict) {
		t.Errorf("slug clash on update: got %v, want ErrConflict", err)
	}

	if err := s.DeleteProject(ctx, got.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if err := s.DeleteProject(ctx, got.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func projectIDs(ps []model.Project) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ProjectID
	}
	return ids
}

// ---------------------------------------------------------------------------
// Profile, skills, contact
// ---------------------------------------------------------------------------

func TestProfileAndContact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetActiveProfile(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("empty profile: got %v, want ErrNotFound", err)
	}

	p := &model.Profile{Name: "Ada", Bio: []string{"one"}, IsActive: true}
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}
	p.Title = "Designer"
	if err := s.SaveProfile(ctx, p); err != nil {
		t.Fatalf("SaveProfile update: %v", err)
	}
	got, err := s.GetActiveProfile(ctx)
	if err != nil {
		t.Fatalf("GetActiveProfile: %v", err)
	}
	if got.Title != "Designer" || got.ID != p.ID {
		t.Errorf("profile: got %+v", got)
	}

	c := &model.Contact{Text: "hi", IsActive: true, Links: []model.ContactLink{{ID: "mail", Order: 2}, {ID: "gh", Order: 1}}}
	if err := s.SaveContact(ctx, c); err != nil {
		t.Fatalf("SaveContact: %v", err)
	}
	gc, err := s.GetActiveContact(ctx)
	if err != nil {
		t.Fatalf("GetActiveContact: %v", err)
	}
	if pub := gc.Public(); len(pub.Links) != 2 || pub.Links[0].ID != "gh" {
		t.Errorf("contact links: %+v", pub.Links)
	}
}

func TestSkillCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cats := []*model.SkillCategory{
		{CategoryID: "design", Title: "Design", Skills: []string{"Figma"}, Order: 2, IsVisible: true},
		{CategoryID: "code", Title: "Code", Skills: []string{"Go"}, Order: 1, IsVisible: true},
		{CategoryID: "hidden", Title: "Hidden", Order: 0, IsVisible: false},
	}
	for _, c := range cats {
		if err := s.SaveSkillCategory(ctx, c); err != nil {
			t.Fatalf("SaveSkillCategory: %v", err)
		}
	}

	visible, err := s.ListSkillCategories(ctx, true)
	if err != nil {
		t.Fatalf("ListSkillCategories: %v", err)
	}
	if len(visible) != 2 || visible[0].CategoryID != "code" {
		t.Errorf("visible: got %+v", visible)
	}

	// Saving an existing category id updates in place.
	upd := &model.SkillCategory{CategoryID: "code", Title: "Engineering", Order: 1, IsVisible: true}
	if err := s.SaveSkillCategory(ctx, upd); err != nil {
		t.Fatalf("SaveSkillCategory update: %v", err)
	}
	all, _ := s.ListSkillCategories(ctx, false)
	if len(all) != 3 {
		t.Fatalf("all: got %d, want 3", len(all))
	}
	if all[1].Title != "Engineering" {
		t.Errorf("updated title: got %q", all[1].Title)
	}
}
