package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates the requested volume doesn't exist.
var ErrNotFound = errors.New("volume not found")

const schema = `
CREATE TABLE IF NOT EXISTS volumes (
    id           TEXT PRIMARY KEY,
    label        TEXT NOT NULL,
    mount_root   TEXT NOT NULL,
    removable    INTEGER NOT NULL DEFAULT 0,
    connected    INTEGER NOT NULL DEFAULT 0,
    confidence   TEXT NOT NULL DEFAULT 'high',
    scan_blocked INTEGER NOT NULL DEFAULT 0,
    first_seen   TIMESTAMP NOT NULL,
    last_seen    TIMESTAMP NOT NULL,
    last_scanned TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_volumes_connected ON volumes(connected);
`

// Store provides access to the volume registry.
// Failure to open the registry is the one startup-fatal error in the system.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the registry database under dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "registry.db"))
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply registry schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the registry handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert records a volume sighting. A new volume gets first_seen set; an
// existing one keeps its first_seen and has label, mount root, and last_seen
// refreshed (mount letters move across remounts, identity does not).
func (s *Store) Upsert(v *Volume) error {
	now := time.Now()
	_, err := s.db.Exec(`
		INSERT INTO volumes (id, label, mount_root, removable, connected, confidence, scan_blocked, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			mount_root = excluded.mount_root,
			removable = excluded.removable,
			connected = excluded.connected,
			confidence = excluded.confidence,
			last_seen = excluded.last_seen`,
		v.ID, v.Label, v.MountRoot, v.Removable, v.Connected, v.Confidence, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert volume %s: %w", v.ID, err)
	}
	if v.FirstSeen.IsZero() {
		v.FirstSeen = now
	}
	v.LastSeen = now
	return nil
}

// Get retrieves a volume by id.
// Returns ErrNotFound if the volume has never been seen.
func (s *Store) Get(id string) (*Volume, error) {
	v, err := scanVolume(s.db.QueryRow(`
		SELECT id, label, mount_root, removable, connected, confidence, scan_blocked, first_seen, last_seen, last_scanned
		FROM volumes WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get volume %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get volume %s: %w", id, err)
	}
	return v, nil
}

// List returns all known volumes, optionally only currently-connected ones,
// most recently seen first.
func (s *Store) List(onlyConnected bool) ([]*Volume, error) {
	query := `
		SELECT id, label, mount_root, removable, connected, confidence, scan_blocked, first_seen, last_seen, last_scanned
		FROM volumes`
	if onlyConnected {
		query += " WHERE connected = 1"
	}
	query += " ORDER BY last_seen DESC"

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list volumes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Volume
	for rows.Next() {
		v, err := scanVolume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan volume row: %w", err)
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volumes: %w", err)
	}
	return results, nil
}

// MarkDisconnected flags a volume as no longer attached.
func (s *Store) MarkDisconnected(id string) error {
	if _, err := s.db.Exec("UPDATE volumes SET connected = 0 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark disconnected %s: %w", id, err)
	}
	return nil
}

// MarkAllDisconnected clears the connected flag on every volume. Called at
// startup so a crash never leaves stale connected rows.
func (s *Store) MarkAllDisconnected() error {
	if _, err := s.db.Exec("UPDATE volumes SET connected = 0"); err != nil {
		return fmt.Errorf("mark all disconnected: %w", err)
	}
	return nil
}

// SetLastScanned stamps a volume's last successful scan time.
func (s *Store) SetLastScanned(id string, at time.Time) error {
	if _, err := s.db.Exec("UPDATE volumes SET last_scanned = ? WHERE id = ?", at, id); err != nil {
		return fmt.Errorf("set last scanned %s: %w", id, err)
	}
	return nil
}

// SetScanBlocked flags a volume whose catalog store failed to open. The
// failure is isolated to this volume; others are unaffected.
func (s *Store) SetScanBlocked(id string, blocked bool) error {
	if _, err := s.db.Exec("UPDATE volumes SET scan_blocked = ? WHERE id = ?", blocked, id); err != nil {
		return fmt.Errorf("set scan blocked %s: %w", id, err)
	}
	return nil
}
