// Package store persists the code graph in an embedded SQLite database:
// nodes, edges, file records, unresolved references, and embedding vectors,
// plus a full-text mirror of the nodes table.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrCorrupt reports that the underlying database file is damaged. The CLI
// maps it to a distinct exit code.
var ErrCorrupt = errors.New("store corrupt")

// Querier abstracts *sql.DB and *sql.Tx so store methods work in both
// contexts.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store wraps a SQLite connection for graph storage.
type Store struct {
	db     *sql.DB
	q      Querier // active querier: db or tx
	dbPath string
}

// dsn appends the connection pragmas required by the storage contract:
// write-ahead logging, foreign keys on, and a long busy timeout.
func dsn(path string) string {
	return path + "?_journal_mode=WAL&_busy_timeout=120000&_foreign_keys=on&_synchronous=NORMAL&_cache_size=-65536"
}

// Open opens or creates a SQLite database at dbPath, creating parent
// directories if needed, and applies the full schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db, dbPath: dbPath}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		if isCorruptErr(err) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, dbPath, err)
		}
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// OpenMemory opens an in-memory SQLite database (for testing).
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open memory db: %w", err)
	}
	// A memory database exists per connection; cap the pool at one so every
	// statement sees the same schema.
	db.SetMaxOpenConns(1)
	s := &Store{db: db, dbPath: ":memory:"}
	s.q = s.db
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// WithTransaction executes fn within a single SQLite transaction. The
// callback receives a transaction-scoped Store — all store methods called on
// it use the transaction. The receiver's querier is never mutated, so
// concurrent readers are unaffected.
func (s *Store) WithTransaction(fn func(txStore *Store) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &Store{db: s.db, q: tx, dbPath: s.dbPath}
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// inTransaction reports whether this store handle is transaction-scoped.
func (s *Store) inTransaction() bool {
	_, isDB := s.q.(*sql.DB)
	return !isDB
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying sql.DB (for advanced queries).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Optimize reclaims space and refreshes query planner statistics.
func (s *Store) Optimize() error {
	if _, err := s.db.Exec("VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	if _, err := s.db.Exec("ANALYZE"); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

// Size returns the on-disk size of the database in bytes.
func (s *Store) Size() (int64, error) {
	var size int64
	err := s.q.QueryRow(
		"SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()",
	).Scan(&size)
	if err != nil {
		return 0, fmt.Errorf("db size: %w", err)
	}
	return size, nil
}

// Clear removes all rows from the vectors, unresolved_refs, edges, nodes and
// files tables. The schema_versions table is left as it is.
func (s *Store) Clear() error {
	for _, stmt := range []string{
		"DELETE FROM vectors",
		"DELETE FROM unresolved_refs",
		"DELETE FROM edges",
		"DELETE FROM nodes",
		"DELETE FROM files",
	} {
		if _, err := s.q.Exec(stmt); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
	}
	return nil
}

func isCorruptErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database")
}
