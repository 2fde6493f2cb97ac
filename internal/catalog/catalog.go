// Package catalog manages the per-volume media catalog (movies, shows,
// seasons, episodes, watch progress). One store per volume, rooted in a
// hidden directory at the volume's root so it travels with the volume.
package catalog

import (
	"crypto/sha1"
	"encoding/hex"
	"path"
	"time"
)

// Movie is one movie title on a volume. A movie folder holds one or more
// video files; FilePath is the primary one.
type Movie struct {
	ID        string
	Title     string
	Year      int
	RelPath   string // canonical relative path of the title folder
	FilePath  string // relative path of the primary video file
	SizeBytes int64
	ModTime   int64 // unix seconds
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Show is one series on a volume.
type Show struct {
	ID        string
	Title     string
	Year      int
	RelPath   string
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Season groups a show's episodes.
type Season struct {
	ID      string
	ShowID  string
	Number  int
	RelPath string
}

// Episode is one video file within a season.
type Episode struct {
	ID        string
	ShowID    string
	SeasonID  string
	Number    int
	Title     string
	RelPath   string
	SizeBytes int64
	ModTime   int64 // unix seconds
}

// ProgressRecord is a persisted watch position. Keyed by content key,
// independent of catalog row identity.
type ProgressRecord struct {
	ContentKey  string
	RelPath     string
	SizeBytes   int64
	ModTime     int64 // unix seconds
	PositionMS  int64
	DurationMS  int64
	Percentage  float64
	Completed   bool
	LastWatched time.Time
}

// Row kinds for identity derivation.
const (
	KindMovie   = "movie"
	KindShow    = "show"
	KindSeason  = "season"
	KindEpisode = "episode"
)

// RowID derives the deterministic row identity for a catalog entry from its
// kind and canonical relative path. Repeated scans of unchanged content must
// yield the same id; UI references and tests rely on this.
func RowID(kind, relPath string) string {
	sum := sha1.Sum([]byte(kind + ":" + path.Clean(relPath)))
	return hex.EncodeToString(sum[:])
}
