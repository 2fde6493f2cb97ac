package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true,
	".m4v": true, ".wmv": true, ".webm": true, ".ts": true, ".flv": true,
}

// isVideoFile reports whether a file name has a recognized video extension.
func isVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// seasonRx matches season directory names: "Season 1", "Season 01", "S01", "s2".
var seasonRx = regexp.MustCompile(`(?i)^(?:season[ ._-]*|s)(\d{1,3})$`)

// seasonNumber extracts the season number from a directory name.
func seasonNumber(dirName string) (int, bool) {
	m := seasonRx.FindStringSubmatch(strings.TrimSpace(dirName))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// titleYearRx extracts a trailing "(2010)"-style year from a title folder.
var titleYearRx = regexp.MustCompile(`^(.*?)\s*[\(\[]([12]\d{3})[\)\]]\s*$`)

// titleYear splits a folder name into title and optional year.
func titleYear(dirName string) (string, int) {
	if m := titleYearRx.FindStringSubmatch(dirName); m != nil {
		year, _ := strconv.Atoi(m[2])
		return strings.TrimSpace(m[1]), year
	}
	return strings.TrimSpace(dirName), 0
}

// episodeRx matches SxxEyy and NxNN episode markers.
var episodeRx = regexp.MustCompile(`(?i)(?:s\d{1,3}[ ._-]*e|(?:^|[ ._-])\d{1,3}x)(\d{1,4})`)

// episodeNumber extracts the episode number from a file name. The second
// return is false when no marker is present; callers fall back to the file's
// position within its season folder.
func episodeNumber(fileName string) (int, bool) {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	m := episodeRx.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// episodeTitle derives a display title from an episode file name: marker and
// separators stripped, extension removed.
var episodeTitleSepRx = regexp.MustCompile(`[._]+`)

func episodeTitle(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if loc := episodeRx.FindStringIndex(base); loc != nil {
		base = strings.Trim(base[loc[1]:], " ._-")
	}
	base = episodeTitleSepRx.ReplaceAllString(base, " ")
	return strings.TrimSpace(base)
}
