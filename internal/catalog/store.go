package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/drivebay/drivebay/internal/migrations"
)

// StoreDirName is the fixed hidden directory at a volume's root that holds
// its catalog. It travels with the volume.
const StoreDirName = ".drivebay"

// querier abstracts *sql.DB and *sql.Tx for shared query logic.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Store is one volume's catalog. All writes are serialized through Write;
// multi-row upserts (a show plus its seasons plus its episodes) must never
// be observed half-written.
type Store struct {
	db *sql.DB

	// writeMu is the single-writer queue. Readers go straight to the pool.
	writeMu sync.Mutex
	closed  bool
	mu      sync.RWMutex // guards closed
}

// Open creates the catalog file under mountRoot if absent and applies any
// pending schema migrations, in order, inside one transaction. A failure
// here is a StoreOpenFailure: volume-scoped, never fatal to the process.
func Open(mountRoot string) (*Store, error) {
	dir := filepath.Join(mountRoot, StoreDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrStoreOpen, dir, err)
	}

	dsn := filepath.Join(dir, "catalog.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}

	return &Store{db: db}, nil
}

// migrate applies pending migrations in order inside one transaction,
// tracked via PRAGMA user_version.
func migrate(db *sql.DB) error {
	all := migrations.Catalog()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version > len(all) {
		return fmt.Errorf("catalog schema version %d is newer than this build supports (%d)", version, len(all))
	}

	for i := version; i < len(all); i++ {
		if _, err := tx.Exec(all[i]); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(all))); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return tx.Commit()
}

// Tx wraps a catalog write transaction.
type Tx struct {
	tx *sql.Tx
}

// Write runs fn inside a transaction on the store's single-writer queue.
// The transaction commits if fn returns nil and rolls back otherwise.
func (s *Store) Write(fn func(*Tx) error) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	s.mu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close flushes pending writes and releases the handle. The coordinator
// calls this on volume disconnect and at process shutdown.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	// Wait for an in-flight write transaction to finish draining.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.db.Close()
}

// mapSQLiteError converts SQLite errors to sentinel error types.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	// modernc.org/sqlite wraps errors; check error message for constraint violations
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "PRIMARY KEY constraint failed") {
		return fmt.Errorf("duplicate row: %s", errStr)
	}
	return err
}
