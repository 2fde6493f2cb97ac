package v1

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// jaroWinklerThreshold is the similarity score above which a title is
// considered a fuzzy match for the query.
const jaroWinklerThreshold = 0.84

// titleMatches reports whether a catalog title matches the search query,
// either by substring or by Jaro-Winkler similarity. Tolerates the typos
// and partial titles a remote-control keyboard produces.
func titleMatches(query, title string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	t := strings.ToLower(title)
	if q == "" {
		return true
	}
	if strings.Contains(t, q) {
		return true
	}
	score, err := edlib.StringsSimilarity(q, t, edlib.JaroWinkler)
	if err != nil {
		return false
	}
	return score >= jaroWinklerThreshold
}
