package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS admin_users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		permissions TEXT NOT NULL DEFAULT '[]',
		is_active {{bool}} NOT NULL DEFAULT {{true}},
		login_attempts INTEGER NOT NULL DEFAULT 0,
		locked_until {{time}},
		last_login_at {{time}},
		created_at {{time}} NOT NULL,
		updated_at {{time}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		is_active {{bool}} NOT NULL DEFAULT {{true}},
		body TEXT NOT NULL,
		created_at {{time}} NOT NULL,
		updated_at {{time}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		project_id TEXT UNIQUE NOT NULL,
		slug TEXT UNIQUE NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		published {{bool}} NOT NULL DEFAULT {{false}},
		featured {{bool}} NOT NULL DEFAULT {{false}},
		sort_order INTEGER NOT NULL DEFAULT 0,
		body TEXT NOT NULL,
		created_at {{time}} NOT NULL,
		updated_at {{time}} NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_published ON projects(published, sort_order)`,

	`CREATE TABLE IF NOT EXISTS skill_categories (
		id TEXT PRIMARY KEY,
		category_id TEXT UNIQUE NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		is_visible {{bool}} NOT NULL DEFAULT {{true}},
		body TEXT NOT NULL,
		created_at {{time}} NOT NULL,
		updated_at {{time}} NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id TEXT PRIMARY KEY,
		is_active {{bool}} NOT NULL DEFAULT {{true}},
		body TEXT NOT NULL,
		created_at {{time}} NOT NULL,
		updated_at {{time}} NOT NULL
	)`,
}

// dialect fills the type placeholders in migrations.
func (s *Store) dialect() *strings.Replacer {
	if s.driver == DriverPostgres {
		return strings.NewReplacer(
			"{{bool}}", "BOOLEAN",
			"{{true}}", "TRUE",
			"{{false}}", "FALSE",
			"{{time}}", "TIMESTAMPTZ",
		)
	}
	return strings.NewReplacer(
		"{{bool}}", "INTEGER",
		"{{true}}", "1",
		"{{false}}", "0",
		"{{time}}", "DATETIME",
	)
}

func (s *Store) migrate(ctx context.Context) error {
	d := s.dialect()
	for _, m := range migrations {
		stmt := d.Replace(m)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			// ALTER TABLE ADD COLUMN fails if the column already exists.
			if strings.Contains(err.Error(), "duplicate column") || strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
