// Package scanner discovers media under a volume's well-known top-level
// folders and populates its catalog store. It deliberately does not walk the
// rest of the volume: a full-volume walk on a large disk can take minutes
// and touches unrelated system folders.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/drivebay/drivebay/internal/catalog"
)

var (
	// ErrScanInFlight means a scan for this volume is already running; the
	// request is coalesced into a no-op.
	ErrScanInFlight = errors.New("scan already in flight")

	// ErrScanAborted means a volume disconnect canceled the scan
	// cooperatively at a phase boundary. Not an error to surface loudly.
	ErrScanAborted = errors.New("scan aborted by disconnect")

	// ErrNoMediaFolders means no root-level entry matched the movie or show
	// alias sets ("library folders not found").
	ErrNoMediaFolders = errors.New("library folders not found")
)

// Result summarizes one volume scan.
type Result struct {
	Movies   int
	Shows    int
	Episodes int
	Skipped  int // non-video files and unclassifiable entries
}

// MediaFolders is the set of matched top-level folders on a volume. The
// watcher subscribes to exactly these.
type MediaFolders struct {
	Movies []string // absolute paths
	Shows  []string
}

// All returns every matched folder path.
func (f MediaFolders) All() []string {
	return append(append([]string{}, f.Movies...), f.Shows...)
}

// Empty reports whether no folder matched.
func (f MediaFolders) Empty() bool {
	return len(f.Movies) == 0 && len(f.Shows) == 0
}

// Scanner classifies and catalogs media. Safe for concurrent use across
// volumes; scans for one volume are single-flight.
type Scanner struct {
	movieAliases map[string]bool
	showAliases  map[string]bool
	log          *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool // volumeID -> scanning
}

// New creates a scanner with the given folder alias sets (matched
// case-insensitively against root-level directory names).
func New(movieAliases, showAliases []string, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	s := &Scanner{
		movieAliases: make(map[string]bool, len(movieAliases)),
		showAliases:  make(map[string]bool, len(showAliases)),
		log:          log,
		inflight:     make(map[string]bool),
	}
	for _, a := range movieAliases {
		s.movieAliases[strings.ToLower(a)] = true
	}
	for _, a := range showAliases {
		s.showAliases[strings.ToLower(a)] = true
	}
	return s
}

// FindMediaFolders checks only the volume's root-level entries against the
// alias sets. This bound is the scanner's core performance contract.
func (s *Scanner) FindMediaFolders(mountRoot string) (MediaFolders, error) {
	var folders MediaFolders
	entries, err := os.ReadDir(mountRoot)
	if err != nil {
		return folders, fmt.Errorf("read volume root: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		abs := filepath.Join(mountRoot, e.Name())
		switch {
		case s.movieAliases[name]:
			folders.Movies = append(folders.Movies, abs)
		case s.showAliases[name]:
			folders.Shows = append(folders.Shows, abs)
		}
	}
	return folders, nil
}

// Scan discovers media on a volume and reconciles its catalog store.
// Classification and row construction proceed in three ordered phases
// (shows, seasons+episodes, movies), each closing its own transaction to
// bound lock duration on the store. The context is checked at every phase
// boundary so a volume disconnect cancels cooperatively.
//
// Exactly one scan may be in flight per volume; concurrent requests get
// ErrScanInFlight and are coalesced (the in-flight scan's result supersedes).
func (s *Scanner) Scan(ctx context.Context, volumeID, mountRoot string, store *catalog.Store) (*Result, error) {
	s.mu.Lock()
	if s.inflight[volumeID] {
		s.mu.Unlock()
		return nil, ErrScanInFlight
	}
	s.inflight[volumeID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, volumeID)
		s.mu.Unlock()
	}()

	folders, err := s.FindMediaFolders(mountRoot)
	if err != nil {
		return nil, err
	}
	if folders.Empty() {
		return nil, ErrNoMediaFolders
	}

	res := &Result{}

	// Phase 1: shows.
	if err := s.checkAborted(ctx); err != nil {
		return nil, err
	}
	shows, err := s.collectShows(mountRoot, folders.Shows, res)
	if err != nil {
		return nil, err
	}
	keepShows := make([]string, 0, len(shows))
	for _, sh := range shows {
		keepShows = append(keepShows, sh.show.ID)
	}
	if err := store.Write(func(tx *catalog.Tx) error {
		for _, sh := range shows {
			if err := tx.UpsertShow(sh.show); err != nil {
				return err
			}
		}
		return tx.DeleteShowsExcept(keepShows)
	}); err != nil {
		return nil, fmt.Errorf("show phase: %w", err)
	}
	res.Shows = len(shows)

	// Phase 2: seasons and episodes.
	if err := s.checkAborted(ctx); err != nil {
		return nil, err
	}
	if err := store.Write(func(tx *catalog.Tx) error {
		for _, sh := range shows {
			keepSeasons := make([]string, 0, len(sh.seasons))
			for _, se := range sh.seasons {
				if err := tx.UpsertSeason(se); err != nil {
					return err
				}
				keepSeasons = append(keepSeasons, se.ID)
			}
			keepEpisodes := make([]string, 0, len(sh.episodes))
			for _, ep := range sh.episodes {
				if err := tx.UpsertEpisode(ep); err != nil {
					return err
				}
				keepEpisodes = append(keepEpisodes, ep.ID)
				res.Episodes++
			}
			if err := tx.DeleteSeasonsExcept(sh.show.ID, keepSeasons); err != nil {
				return err
			}
			if err := tx.DeleteEpisodesExcept(sh.show.ID, keepEpisodes); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("episode phase: %w", err)
	}

	// Phase 3: movies.
	if err := s.checkAborted(ctx); err != nil {
		return nil, err
	}
	movies, err := s.collectMovies(mountRoot, folders.Movies, res)
	if err != nil {
		return nil, err
	}
	keepMovies := make([]string, 0, len(movies))
	for _, m := range movies {
		keepMovies = append(keepMovies, m.ID)
	}
	if err := store.Write(func(tx *catalog.Tx) error {
		for _, m := range movies {
			if err := tx.UpsertMovie(m); err != nil {
				return err
			}
		}
		return tx.DeleteMoviesExcept(keepMovies)
	}); err != nil {
		return nil, fmt.Errorf("movie phase: %w", err)
	}
	res.Movies = len(movies)

	s.log.Info("scan complete", "volume", volumeID,
		"movies", res.Movies, "shows", res.Shows, "episodes", res.Episodes, "skipped", res.Skipped)
	return res, nil
}

func (s *Scanner) checkAborted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrScanAborted, err)
	}
	return nil
}

// showEntry bundles a show with the seasons and episodes found under it.
type showEntry struct {
	show     *catalog.Show
	seasons  []*catalog.Season
	episodes []*catalog.Episode
}

// collectShows classifies subdirectories of the matched show folders. A
// subdirectory with season-numbered children is a show; anything else under
// a show folder is skipped.
func (s *Scanner) collectShows(mountRoot string, showFolders []string, res *Result) ([]*showEntry, error) {
	var shows []*showEntry
	for _, folder := range showFolders {
		entries, err := os.ReadDir(folder)
		if err != nil {
			return nil, fmt.Errorf("read show folder %s: %w", folder, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				res.Skipped++
				continue
			}
			showDir := filepath.Join(folder, e.Name())
			entry, ok, err := s.collectShow(mountRoot, showDir, e.Name())
			if err != nil {
				return nil, err
			}
			if !ok {
				res.Skipped++
				continue
			}
			shows = append(shows, entry)
		}
	}
	return shows, nil
}

func (s *Scanner) collectShow(mountRoot, showDir, dirName string) (*showEntry, bool, error) {
	children, err := os.ReadDir(showDir)
	if err != nil {
		return nil, false, fmt.Errorf("read show dir %s: %w", showDir, err)
	}

	title, year := titleYear(dirName)
	rel := relPath(mountRoot, showDir)
	entry := &showEntry{
		show: &catalog.Show{
			ID:      catalog.RowID(catalog.KindShow, rel),
			Title:   title,
			Year:    year,
			RelPath: rel,
		},
	}

	for _, c := range children {
		if !c.IsDir() {
			continue
		}
		num, ok := seasonNumber(c.Name())
		if !ok {
			continue
		}
		seasonDir := filepath.Join(showDir, c.Name())
		seasonRel := relPath(mountRoot, seasonDir)
		season := &catalog.Season{
			ID:      catalog.RowID(catalog.KindSeason, seasonRel),
			ShowID:  entry.show.ID,
			Number:  num,
			RelPath: seasonRel,
		}
		entry.seasons = append(entry.seasons, season)

		eps, err := s.collectEpisodes(mountRoot, seasonDir, entry.show.ID, season.ID)
		if err != nil {
			return nil, false, err
		}
		entry.episodes = append(entry.episodes, eps...)
	}

	// No season-numbered subdirectories: not a show.
	if len(entry.seasons) == 0 {
		return nil, false, nil
	}
	return entry, true, nil
}

func (s *Scanner) collectEpisodes(mountRoot, seasonDir, showID, seasonID string) ([]*catalog.Episode, error) {
	entries, err := os.ReadDir(seasonDir)
	if err != nil {
		return nil, fmt.Errorf("read season dir %s: %w", seasonDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !isVideoFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var eps []*catalog.Episode
	for i, name := range names {
		num, ok := episodeNumber(name)
		if !ok {
			num = i + 1 // positional fallback
		}
		full := filepath.Join(seasonDir, name)
		info, err := os.Stat(full)
		if err != nil {
			s.log.Warn("stat failed, skipping episode", "path", full, "error", err)
			continue
		}
		rel := relPath(mountRoot, full)
		eps = append(eps, &catalog.Episode{
			ID:        catalog.RowID(catalog.KindEpisode, rel),
			ShowID:    showID,
			SeasonID:  seasonID,
			Number:    num,
			Title:     episodeTitle(name),
			RelPath:   rel,
			SizeBytes: info.Size(),
			ModTime:   info.ModTime().Unix(),
		})
	}
	return eps, nil
}

// collectMovies classifies subdirectories of the matched movie folders: one
// subdirectory per title, one or more video files per subdirectory (the
// largest is the primary). Loose files at the folder root are skipped.
func (s *Scanner) collectMovies(mountRoot string, movieFolders []string, res *Result) ([]*catalog.Movie, error) {
	var movies []*catalog.Movie
	for _, folder := range movieFolders {
		entries, err := os.ReadDir(folder)
		if err != nil {
			return nil, fmt.Errorf("read movie folder %s: %w", folder, err)
		}
		for _, e := range entries {
			if !e.IsDir() {
				res.Skipped++
				continue
			}
			titleDir := filepath.Join(folder, e.Name())
			m, ok, err := s.collectMovie(mountRoot, titleDir, e.Name())
			if err != nil {
				return nil, err
			}
			if !ok {
				res.Skipped++
				continue
			}
			movies = append(movies, m)
		}
	}
	return movies, nil
}

func (s *Scanner) collectMovie(mountRoot, titleDir, dirName string) (*catalog.Movie, bool, error) {
	entries, err := os.ReadDir(titleDir)
	if err != nil {
		return nil, false, fmt.Errorf("read title dir %s: %w", titleDir, err)
	}

	var primary string
	var primarySize int64
	var primaryMod int64
	for _, e := range entries {
		if e.IsDir() || !isVideoFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Size() > primarySize || primary == "" {
			primary = e.Name()
			primarySize = info.Size()
			primaryMod = info.ModTime().Unix()
		}
	}
	if primary == "" {
		return nil, false, nil
	}

	title, year := titleYear(dirName)
	rel := relPath(mountRoot, titleDir)
	return &catalog.Movie{
		ID:        catalog.RowID(catalog.KindMovie, rel),
		Title:     title,
		Year:      year,
		RelPath:   rel,
		FilePath:  relPath(mountRoot, filepath.Join(titleDir, primary)),
		SizeBytes: primarySize,
		ModTime:   primaryMod,
	}, true, nil
}

// relPath returns the canonical volume-relative path with forward slashes.
func relPath(mountRoot, full string) string {
	rel, err := filepath.Rel(mountRoot, full)
	if err != nil {
		rel = full
	}
	return filepath.ToSlash(rel)
}
