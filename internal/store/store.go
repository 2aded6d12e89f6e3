package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"kyklos/internal/models"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute
)

// Store wraps the SQLite database. All core cycle operations execute as
// single transactions; with one pooled connection, concurrent requests
// serialize at the store boundary.
type Store struct {
	db *sql.DB
}

// Options controls how the database is opened.
type Options struct {
	// AutoMigrate applies pending schema migrations on open. When
	// disabled, operations against an unprovisioned database fail
	// with models.ErrSchemaMissing.
	AutoMigrate bool
}

// Open opens the SQLite database, applying migrations per opts.
func Open(path string, opts Options) (*Store, error) {
	dsn, err := sqliteDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := configureDB(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if opts.AutoMigrate {
		if err := runMigrations(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Info reports store-level counters for the info endpoint.
type Info struct {
	SchemaVersion int
	UserCount     int
	CycleCount    int
}

// StoreInfo returns schema version and row counts.
func (s *Store) StoreInfo(ctx context.Context) (*Info, error) {
	version, err := currentVersion(s.db)
	if err != nil {
		return nil, mapSQLiteError(err)
	}

	info := &Info{SchemaVersion: version}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&info.UserCount); err != nil {
		return nil, mapSQLiteError(err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles").Scan(&info.CycleCount); err != nil {
		return nil, mapSQLiteError(err)
	}
	return info, nil
}

func configureDB(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA foreign_keys = ON;",
		fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeoutMS),
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	// One connection keeps per-day recomputes and bootstrap serialized.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return nil
}

func sqliteDSN(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("db path is required")
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String(), nil
}

// withTx runs fn inside a transaction, rolling back on any error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapSQLiteError(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return mapSQLiteError(err)
	}
	if err := tx.Commit(); err != nil {
		return mapSQLiteError(err)
	}
	return nil
}

// mapSQLiteError converts a missing-table failure into the dedicated
// schema sentinel so callers can surface setup guidance.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w (%v)", models.ErrSchemaMissing, err)
	}
	return err
}

func newID() string {
	return uuid.NewString()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
