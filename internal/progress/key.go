// Package progress persists and retrieves watch progress keyed by content
// identity, independent of catalog row identity, so progress survives
// catalog rescans.
package progress

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// ContentKey identifies content by what it physically is, not by catalog
// row: (volume id, normalized relative path, size, modification time). A
// file with identical path but different size or mtime is distinct content
// and never inherits stale progress. The canonical string form is the one
// identity format that must remain bit-stable for UI/IPC compatibility.
type ContentKey struct {
	VolumeID string
	RelPath  string // normalized: forward slashes, cleaned, NFC
	Size     int64
	ModTime  int64 // unix seconds
}

// NewContentKey builds a key, normalizing the relative path.
func NewContentKey(volumeID, relPath string, size int64, modTime time.Time) ContentKey {
	return ContentKey{
		VolumeID: volumeID,
		RelPath:  NormalizePath(relPath),
		Size:     size,
		ModTime:  modTime.Unix(),
	}
}

// NormalizePath canonicalizes a volume-relative path: forward slashes,
// lexically cleaned, Unicode NFC (volumes written on macOS arrive NFD).
// Backslashes are rewritten on every platform; paths recorded by Windows
// tooling must produce the same key on a Linux host.
func NormalizePath(p string) string {
	return norm.NFC.String(path.Clean(strings.ReplaceAll(p, `\`, "/")))
}

// String returns the canonical pipe-separated form:
// volumeID|relPath|size|mtime.
func (k ContentKey) String() string {
	return k.VolumeID + "|" + k.RelPath + "|" +
		strconv.FormatInt(k.Size, 10) + "|" + strconv.FormatInt(k.ModTime, 10)
}

// ParseContentKey parses the canonical string form.
func ParseContentKey(s string) (ContentKey, error) {
	// RelPath may itself contain pipes only if the filesystem allows them;
	// split from both ends so size and mtime parse unambiguously.
	first := strings.Index(s, "|")
	if first < 0 {
		return ContentKey{}, fmt.Errorf("malformed content key %q", s)
	}
	rest := s[first+1:]
	lastSep := strings.LastIndex(rest, "|")
	if lastSep < 0 {
		return ContentKey{}, fmt.Errorf("malformed content key %q", s)
	}
	midSep := strings.LastIndex(rest[:lastSep], "|")
	if midSep < 0 {
		return ContentKey{}, fmt.Errorf("malformed content key %q", s)
	}

	size, err := strconv.ParseInt(rest[midSep+1:lastSep], 10, 64)
	if err != nil {
		return ContentKey{}, fmt.Errorf("malformed content key size: %w", err)
	}
	mtime, err := strconv.ParseInt(rest[lastSep+1:], 10, 64)
	if err != nil {
		return ContentKey{}, fmt.Errorf("malformed content key mtime: %w", err)
	}

	return ContentKey{
		VolumeID: s[:first],
		RelPath:  rest[:midSep],
		Size:     size,
		ModTime:  mtime,
	}, nil
}
