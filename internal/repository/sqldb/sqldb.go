// Package sqldb implements repository.Store on top of database/sql.
//
// The queries only use features shared by SQLite and MySQL (? placeholders,
// LastInsertId, ORDER BY), so one implementation serves both backends. What
// differs between them is schema DDL, connection setup and how a unique
// constraint violation is reported; the backend packages supply the first two
// themselves and pass the last one in as a Dialect.
package sqldb

import (
	"context"
	"database/sql"
	"time"

	"github.com/sakif/bookmarks/internal/repository"
)

// Dialect captures the backend-specific behaviour the shared queries need.
type Dialect struct {
	Name string
	// IsUniqueViolation reports whether err came from a UNIQUE constraint.
	IsUniqueViolation func(err error) bool
}

// Store is a repository.Store backed by a *sql.DB connection pool.
type Store struct {
	conn    *sql.DB
	dialect Dialect
}

var _ repository.Store = (*Store)(nil)

// New wraps an already-migrated connection pool. The Store takes ownership
// of conn and closes it in Close.
func New(conn *sql.DB, dialect Dialect) *Store {
	return &Store{conn: conn, dialect: dialect}
}

// Conn exposes the pool for backend packages and their tests.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return repository.Failure(s.dialect.Name+": ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// now returns the timestamp stored in created_at columns. Both backends keep
// UTC at microsecond precision so values survive a round trip unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// idArg turns an optional id into a query argument, nil becoming NULL.
func idArg(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}
