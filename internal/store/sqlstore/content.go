package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/store"
)

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

type activeDocRow struct {
	ID        string    `db:"id"`
	IsActive  bool      `db:"is_active"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Store) getActiveDoc(ctx context.Context, table string, dst any) (activeDocRow, error) {
	var row activeDocRow
	q := s.rebind("SELECT id, is_active, body, created_at, updated_at FROM " + table +
		" WHERE is_active = ? ORDER BY updated_at DESC LIMIT 1")
	if err := s.db.GetContext(ctx, &row, q, true); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return row, store.ErrNotFound
		}
		return row, fmt.Errorf("get active %s: %w", table, err)
	}
	if err := json.Unmarshal([]byte(row.Body), dst); err != nil {
		return row, fmt.Errorf("decode %s body: %w", table, err)
	}
	return row, nil
}

// saveActiveDoc inserts a new row when *id is empty and updates it otherwise.
func (s *Store) saveActiveDoc(ctx context.Context, table string, id *string, active bool, doc any, created, updated *time.Time) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s body: %w", table, err)
	}
	now := s.now()
	*updated = now

	if *id == "" {
		*id = newID()
		*created = now
		q := s.rebind("INSERT INTO " + table + " (id, is_active, body, created_at, updated_at) VALUES (?, ?, ?, ?, ?)")
		if _, err := s.db.ExecContext(ctx, q, *id, active, string(body), now, now); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		return nil
	}

	q := s.rebind("UPDATE " + table + " SET is_active = ?, body = ?, updated_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, q, active, string(body), now, *id)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return checkAffected(res, "update "+table)
}

// GetActiveProfile returns the most recently updated active profile.
func (s *Store) GetActiveProfile(ctx context.Context) (*model.Profile, error) {
	var p model.Profile
	row, err := s.getActiveDoc(ctx, "profiles", &p)
	if err != nil {
		return nil, err
	}
	p.ID, p.IsActive, p.CreatedAt, p.UpdatedAt = row.ID, row.IsActive, row.CreatedAt, row.UpdatedAt
	return &p, nil
}

// SaveProfile creates or updates p.
func (s *Store) SaveProfile(ctx context.Context, p *model.Profile) error {
	return s.saveActiveDoc(ctx, "profiles", &p.ID, p.IsActive, p, &p.CreatedAt, &p.UpdatedAt)
}

// ---------------------------------------------------------------------------
// Contact
// ---------------------------------------------------------------------------

// GetActiveContact returns the most recently updated active contact section.
func (s *Store) GetActiveContact(ctx context.Context) (*model.Contact, error) {
	var c model.Contact
	row, err := s.getActiveDoc(ctx, "contacts", &c)
	if err != nil {
		return nil, err
	}
	c.ID, c.IsActive, c.CreatedAt, c.UpdatedAt = row.ID, row.IsActive, row.CreatedAt, row.UpdatedAt
	return &c, nil
}

// SaveContact creates or updates c.
func (s *Store) SaveContact(ctx context.Context, c *model.Contact) error {
	return s.saveActiveDoc(ctx, "contacts", &c.ID, c.IsActive, c, &c.CreatedAt, &c.UpdatedAt)
}

// ---------------------------------------------------------------------------
// Projects
// ---------------------------------------------------------------------------

const projectColumns = "id, project_id, slug, category, published, featured, sort_order, body, created_at, updated_at"

type projectRow struct {
	ID        string    `db:"id"`
	ProjectID string    `db:"project_id"`
	Slug      string    `db:"slug"`
	Category  string    `db:"category"`
	Published bool      `db:"published"`
	Featured  bool      `db:"featured"`
	SortOrder int       `db:"sort_order"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func projectRowFromModel(p *model.Project) (projectRow, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return projectRow{}, fmt.Errorf("encode project body: %w", err)
	}
	return projectRow{
		ID:        p.ID,
		ProjectID: p.ProjectID,
		Slug:      p.Slug,
		Category:  p.Category,
		Published: p.Published,
		Featured:  p.Featured,
		SortOrder: p.Order,
		Body:      string(body),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (r projectRow) toModel() (model.Project, error) {
	var p model.Project
	if err := json.Unmarshal([]byte(r.Body), &p); err != nil {
		return model.Project{}, fmt.Errorf("decode project body: %w", err)
	}
	p.ID = r.ID
	p.ProjectID = r.ProjectID
	p.Slug = r.Slug
	p.Category = r.Category
	p.Published = r.Published
	p.Featured = r.Featured
	p.Order = r.SortOrder
	p.CreatedAt = r.CreatedAt
	p.UpdatedAt = r.UpdatedAt
	return p, nil
}

// ListProjects returns projects passing f, ordered by sort order.
func (s *Store) ListProjects(ctx context.Context, f store.ProjectFilter) ([]model.Project, error) {
	q := "SELECT " + projectColumns + " FROM projects WHERE 1=1"
	var args []any
	if f.PublishedOnly {
		q += " AND published = ?"
		args = append(args, true)
	}
	if f.FeaturedOnly {
		q += " AND featured = ?"
		args = append(args, true)
	}
	if f.Category != "" {
		q += " AND category = ?"
		args = append(args, f.Category)
	}
	q += " ORDER BY sort_order, created_at, project_id"

	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]model.Project, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, err
		}
		// Tags live in the body, so the tag filter runs here.
		if !f.Match(&p) {
			continue
		}
		projects = append(projects, p)
		if f.Limit > 0 && len(projects) == f.Limit {
			break
		}
	}
	return projects, nil
}

func (s *Store) getProject(ctx context.Context, where string, args ...any) (*model.Project, error) {
	var row projectRow
	q := s.rebind("SELECT " + projectColumns + " FROM projects WHERE " + where)
	if err := s.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject retrieves a project by its public projectId.
func (s *Store) GetProject(ctx context.Context, projectID string, publishedOnly bool) (*model.Project, error) {
	if publishedOnly {
		return s.getProject(ctx, "project_id = ? AND published = ?", projectID, true)
	}
	return s.getProject(ctx, "project_id = ?", projectID)
}

// GetProjectByID retrieves a project by store ID.
func (s *Store) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	return s.getProject(ctx, "id = ?", id)
}

// CreateProject inserts p. ID, CreatedAt and UpdatedAt are populated.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := s.now()
	p.ID = newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	row, err := projectRowFromModel(p)
	if err != nil {
		return err
	}
	const q = `INSERT INTO projects (` + projectColumns + `)
		VALUES (:id, :project_id, :slug, :category, :published, :featured, :sort_order, :body, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create project %q: %w", p.ProjectID, store.ErrConflict)
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// UpdateProject replaces the project with p.ID. CreatedAt is preserved.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = s.now()
	row, err := projectRowFromModel(p)
	if err != nil {
		return err
	}
	const q = `UPDATE projects SET
		project_id = :project_id, slug = :slug, category = :category, published = :published,
		featured = :featured, sort_order = :sort_order, body = :body, updated_at = :updated_at
		WHERE id = :id`
	res, err := s.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update project %q: %w", p.ProjectID, store.ErrConflict)
		}
		return fmt.Errorf("update project: %w", err)
	}
	return checkAffected(res, "update project")
}

// DeleteProject removes a project by store ID.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM projects WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return checkAffected(res, "delete project")
}

// ---------------------------------------------------------------------------
// Skills
// ---------------------------------------------------------------------------

type skillRow struct {
	ID         string    `db:"id"`
	CategoryID string    `db:"category_id"`
	SortOrder  int       `db:"sort_order"`
	IsVisible  bool      `db:"is_visible"`
	Body       string    `db:"body"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ListSkillCategories returns skill categories ordered by sort order.
func (s *Store) ListSkillCategories(ctx context.Context, visibleOnly bool) ([]model.SkillCategory, error) {
	q := "SELECT id, category_id, sort_order, is_visible, body, created_at, updated_at FROM skill_categories"
	var args []any
	if visibleOnly {
		q += " WHERE is_visible = ?"
		args = append(args, true)
	}
	q += " ORDER BY sort_order, category_id"

	var rows []skillRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(q), args...); err != nil {
		return nil, fmt.Errorf("list skill categories: %w", err)
	}
	out := make([]model.SkillCategory, 0, len(rows))
	for _, r := range rows {
		var c model.SkillCategory
		if err := json.Unmarshal([]byte(r.Body), &c); err != nil {
			return nil, fmt.Errorf("decode skill category body: %w", err)
		}
		c.ID, c.CategoryID, c.Order, c.IsVisible = r.ID, r.CategoryID, r.SortOrder, r.IsVisible
		c.CreatedAt, c.UpdatedAt = r.CreatedAt, r.UpdatedAt
		out = append(out, c)
	}
	return out, nil
}

// SaveSkillCategory creates or updates the category keyed by CategoryID.
func (s *Store) SaveSkillCategory(ctx context.Context, c *model.SkillCategory) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode skill category body: %w", err)
	}
	now := s.now()
	c.UpdatedAt = now

	var existing string
	err = s.db.GetContext(ctx, &existing, s.rebind("SELECT id FROM skill_categories WHERE category_id = ?"), c.CategoryID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		c.ID = newID()
		c.CreatedAt = now
		q := s.rebind(`INSERT INTO skill_categories
			(id, category_id, sort_order, is_visible, body, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if _, err := s.db.ExecContext(ctx, q, c.ID, c.CategoryID, c.Order, c.IsVisible, string(body), now, now); err != nil {
			return fmt.Errorf("insert skill category: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("find skill category: %w", err)
	}

	c.ID = existing
	q := s.rebind("UPDATE skill_categories SET sort_order = ?, is_visible = ?, body = ?, updated_at = ? WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, q, c.Order, c.IsVisible, string(body), now, c.ID); err != nil {
		return fmt.Errorf("update skill category: %w", err)
	}
	return nil
}
