package catalog

import (
	"fmt"
	"strings"
	"time"
)

// UpsertShow inserts or updates a show row. Identity is deterministic, so
// repeated scans of unchanged content hit the conflict path and keep added_at.
func (t *Tx) UpsertShow(s *Show) error {
	now := time.Now()
	_, err := t.tx.Exec(`
		INSERT INTO shows (id, title, year, rel_path, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			updated_at = excluded.updated_at`,
		s.ID, s.Title, s.Year, s.RelPath, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert show %s: %w", s.RelPath, mapSQLiteError(err))
	}
	s.UpdatedAt = now
	return nil
}

// UpsertSeason inserts or updates a season row.
func (t *Tx) UpsertSeason(s *Season) error {
	_, err := t.tx.Exec(`
		INSERT INTO seasons (id, show_id, number, rel_path)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			show_id = excluded.show_id,
			number = excluded.number`,
		s.ID, s.ShowID, s.Number, s.RelPath,
	)
	if err != nil {
		return fmt.Errorf("upsert season %s: %w", s.RelPath, mapSQLiteError(err))
	}
	return nil
}

// UpsertEpisode inserts or updates an episode row.
func (t *Tx) UpsertEpisode(e *Episode) error {
	_, err := t.tx.Exec(`
		INSERT INTO episodes (id, show_id, season_id, number, title, rel_path, size_bytes, mod_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			show_id = excluded.show_id,
			season_id = excluded.season_id,
			number = excluded.number,
			title = excluded.title,
			size_bytes = excluded.size_bytes,
			mod_time = excluded.mod_time`,
		e.ID, e.ShowID, e.SeasonID, e.Number, e.Title, e.RelPath, e.SizeBytes, e.ModTime,
	)
	if err != nil {
		return fmt.Errorf("upsert episode %s: %w", e.RelPath, mapSQLiteError(err))
	}
	return nil
}

// UpsertMovie inserts or updates a movie row.
func (t *Tx) UpsertMovie(m *Movie) error {
	now := time.Now()
	_, err := t.tx.Exec(`
		INSERT INTO movies (id, title, year, rel_path, file_path, size_bytes, mod_time, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			file_path = excluded.file_path,
			size_bytes = excluded.size_bytes,
			mod_time = excluded.mod_time,
			updated_at = excluded.updated_at`,
		m.ID, m.Title, m.Year, m.RelPath, m.FilePath, m.SizeBytes, m.ModTime, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert movie %s: %w", m.RelPath, mapSQLiteError(err))
	}
	m.UpdatedAt = now
	return nil
}

// deleteBatchSize keeps each DELETE well under SQLite's host-parameter
// limit; a large library's keep list cannot be inlined into one statement.
const deleteBatchSize = 500

// deleteExcept removes rows from table whose id is not in keep, optionally
// scoped by a parent column. Content removed from disk leaves the catalog.
// Stale ids are computed against the current rows and deleted in batches.
func deleteExcept(t *Tx, table, scopeCol, scopeVal string, keep []string) error {
	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}

	query := "SELECT id FROM " + table
	var args []any
	if scopeCol != "" {
		query += " WHERE " + scopeCol + " = ?"
		args = append(args, scopeVal)
	}
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", table, mapSQLiteError(err))
	}
	var stale []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return fmt.Errorf("reconcile %s: %w", table, err)
		}
		if !keepSet[id] {
			stale = append(stale, id)
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("reconcile %s: %w", table, err)
	}
	_ = rows.Close()

	for len(stale) > 0 {
		n := len(stale)
		if n > deleteBatchSize {
			n = deleteBatchSize
		}
		batch := stale[:n]
		stale = stale[n:]

		delArgs := make([]any, len(batch))
		for i, id := range batch {
			delArgs[i] = id
		}
		q := "DELETE FROM " + table + " WHERE id IN (?" + strings.Repeat(",?", len(batch)-1) + ")"
		if _, err := t.tx.Exec(q, delArgs...); err != nil {
			return fmt.Errorf("reconcile %s: %w", table, mapSQLiteError(err))
		}
	}
	return nil
}

// DeleteShowsExcept removes shows (and, via cascade, their seasons and
// episodes) not present in keep.
func (t *Tx) DeleteShowsExcept(keep []string) error {
	return deleteExcept(t, "shows", "", "", keep)
}

// DeleteSeasonsExcept removes a show's seasons not present in keep.
func (t *Tx) DeleteSeasonsExcept(showID string, keep []string) error {
	return deleteExcept(t, "seasons", "show_id", showID, keep)
}

// DeleteEpisodesExcept removes a show's episodes not present in keep.
func (t *Tx) DeleteEpisodesExcept(showID string, keep []string) error {
	return deleteExcept(t, "episodes", "show_id", showID, keep)
}

// DeleteMoviesExcept removes movies not present in keep.
func (t *Tx) DeleteMoviesExcept(keep []string) error {
	return deleteExcept(t, "movies", "", "", keep)
}

// GetMovie retrieves a movie by id.
// Returns ErrNotFound if the movie does not exist.
func (s *Store) GetMovie(id string) (*Movie, error) {
	m := &Movie{}
	err := s.db.QueryRow(`
		SELECT id, title, year, rel_path, file_path, size_bytes, mod_time, added_at, updated_at
		FROM movies WHERE id = ?`, id,
	).Scan(&m.ID, &m.Title, &m.Year, &m.RelPath, &m.FilePath, &m.SizeBytes, &m.ModTime, &m.AddedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get movie %s: %w", id, mapSQLiteError(err))
	}
	return m, nil
}

// ListMovies returns all movies ordered by title.
func (s *Store) ListMovies() ([]*Movie, error) {
	rows, err := s.db.Query(`
		SELECT id, title, year, rel_path, file_path, size_bytes, mod_time, added_at, updated_at
		FROM movies ORDER BY title, year`)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Movie
	for rows.Next() {
		m := &Movie{}
		if err := rows.Scan(&m.ID, &m.Title, &m.Year, &m.RelPath, &m.FilePath, &m.SizeBytes, &m.ModTime, &m.AddedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		results = append(results, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return results, nil
}

// ListShows returns all shows ordered by title.
func (s *Store) ListShows() ([]*Show, error) {
	rows, err := s.db.Query(`
		SELECT id, title, year, rel_path, added_at, updated_at
		FROM shows ORDER BY title, year`)
	if err != nil {
		return nil, fmt.Errorf("list shows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Show
	for rows.Next() {
		sh := &Show{}
		if err := rows.Scan(&sh.ID, &sh.Title, &sh.Year, &sh.RelPath, &sh.AddedAt, &sh.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		results = append(results, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shows: %w", err)
	}
	return results, nil
}

// ListSeasons returns a show's seasons ordered by number.
func (s *Store) ListSeasons(showID string) ([]*Season, error) {
	rows, err := s.db.Query(`
		SELECT id, show_id, number, rel_path
		FROM seasons WHERE show_id = ? ORDER BY number`, showID)
	if err != nil {
		return nil, fmt.Errorf("list seasons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Season
	for rows.Next() {
		se := &Season{}
		if err := rows.Scan(&se.ID, &se.ShowID, &se.Number, &se.RelPath); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		results = append(results, se)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return results, nil
}

// ListEpisodes returns a show's episodes ordered by season then number.
func (s *Store) ListEpisodes(showID string) ([]*Episode, error) {
	rows, err := s.db.Query(`
		SELECT e.id, e.show_id, e.season_id, e.number, e.title, e.rel_path, e.size_bytes, e.mod_time
		FROM episodes e
		JOIN seasons se ON se.id = e.season_id
		WHERE e.show_id = ? ORDER BY se.number, e.number`, showID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Episode
	for rows.Next() {
		e := &Episode{}
		if err := rows.Scan(&e.ID, &e.ShowID, &e.SeasonID, &e.Number, &e.Title, &e.RelPath, &e.SizeBytes, &e.ModTime); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return results, nil
}
