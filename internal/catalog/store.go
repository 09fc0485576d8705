// Package catalog persists fetched books in a single SQLite table.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is the book catalog. Every operation checks out its own connection
// from the pool and returns it when done; no transaction outlives a call.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the catalog database at path and makes
// sure the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to catalog database: %w", err), closeErr)
	}

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.Initialize(ctx); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(err, closeErr)
	}

	slog.Debug("Catalog opened", "path", path)
	return s, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// Initialize creates the books table and its unique index. It is safe to
// call on every start.
func (s *Store) Initialize(ctx context.Context) error {
	return s.withConn(ctx, func(conn *sql.Conn) error {
		for _, schema := range allSchemas {
			if _, err := conn.ExecContext(ctx, schema); err != nil {
				return fmt.Errorf("failed to create catalog schema: %w", err)
			}
		}
		return nil
	})
}

// Path returns the database file the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get catalog connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return fn(conn)
}

// isUniqueViolation reports whether err is SQLite refusing a row because of
// a constraint. NOT NULL columns are checked before writing, so in practice
// this is the dedup index.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code&0xff == sqlite3.SQLITE_CONSTRAINT
}
