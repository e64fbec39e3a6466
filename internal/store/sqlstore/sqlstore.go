// Package sqlstore implements store.Store on SQLite (modernc, pure Go) and
// PostgreSQL (pgx). Accounts map to real columns; content documents keep
// their filterable fields in columns and the rest in a JSON body.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/foliodev/folio/internal/store"
)

// Driver names registered with the store registry.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	open := func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return Open(ctx, cfg)
	}
	store.Register(DriverSQLite, open)
	store.Register(DriverPostgres, open)
}

// Store is a SQL-backed store.Store.
type Store struct {
	db     *sqlx.DB
	driver string
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to the database named by cfg and applies migrations. An
// empty SQLite DSN opens an in-memory database.
func Open(ctx context.Context, cfg store.Config) (*Store, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = ":memory:"
		} else if !strings.HasPrefix(dsn, "file:") && !strings.HasPrefix(dsn, ":memory:") {
			path, _, _ := strings.Cut(dsn, "?")
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err = sqlx.ConnectContext(ctx, "sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
		cfg.Driver = DriverSQLite
	case DriverPostgres:
		db, err = sqlx.ConnectContext(ctx, "pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", cfg.Driver)
	}

	s := &Store{db: db, driver: cfg.Driver, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) rebind(q string) string {
	return s.db.Rebind(q)
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// isUniqueViolation recognises duplicate-key errors from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// checkAffected maps a zero-row update or delete to store.ErrNotFound.
func checkAffected(res interface{ RowsAffected() (int64, error) }, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
