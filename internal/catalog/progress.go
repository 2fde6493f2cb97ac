package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

// SetProgress writes a progress record. Writes are monotonic by wall-clock
// time: a record stamped earlier than the stored row is ignored rather than
// reordered.
func (t *Tx) SetProgress(r *ProgressRecord) error {
	_, err := t.tx.Exec(`
		INSERT INTO progress (content_key, rel_path, size_bytes, mod_time, position_ms, duration_ms, percentage, completed, last_watched)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_key) DO UPDATE SET
			position_ms = excluded.position_ms,
			duration_ms = excluded.duration_ms,
			percentage = excluded.percentage,
			completed = excluded.completed,
			last_watched = excluded.last_watched
		WHERE excluded.last_watched >= progress.last_watched`,
		r.ContentKey, r.RelPath, r.SizeBytes, r.ModTime,
		r.PositionMS, r.DurationMS, r.Percentage, r.Completed, r.LastWatched,
	)
	if err != nil {
		return fmt.Errorf("set progress %s: %w", r.ContentKey, mapSQLiteError(err))
	}
	return nil
}

// GetProgress retrieves the latest progress record for a content key.
// Returns ErrNotFound if none exists.
func (s *Store) GetProgress(contentKey string) (*ProgressRecord, error) {
	r := &ProgressRecord{}
	err := s.db.QueryRow(`
		SELECT content_key, rel_path, size_bytes, mod_time, position_ms, duration_ms, percentage, completed, last_watched
		FROM progress WHERE content_key = ?`, contentKey,
	).Scan(&r.ContentKey, &r.RelPath, &r.SizeBytes, &r.ModTime,
		&r.PositionMS, &r.DurationMS, &r.Percentage, &r.Completed, &r.LastWatched)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get progress %s: %w", contentKey, err)
	}
	return r, nil
}

// RecentProgress returns this store's not-completed progress records, most
// recently watched first. Feeds the cross-volume continue-watching merge.
func (s *Store) RecentProgress(limit int) ([]*ProgressRecord, error) {
	rows, err := s.db.Query(`
		SELECT content_key, rel_path, size_bytes, mod_time, position_ms, duration_ms, percentage, completed, last_watched
		FROM progress WHERE completed = 0
		ORDER BY last_watched DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*ProgressRecord
	for rows.Next() {
		r := &ProgressRecord{}
		if err := rows.Scan(&r.ContentKey, &r.RelPath, &r.SizeBytes, &r.ModTime,
			&r.PositionMS, &r.DurationMS, &r.Percentage, &r.Completed, &r.LastWatched); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return results, nil
}
