package v1

import "testing"

func TestTitleMatches(t *testing.T) {
	cases := []struct {
		query string
		title string
		want  bool
	}{
		{"inception", "Inception", true},
		{"INCEPTION", "Inception", true},
		{"incepton", "Inception", true}, // typo
		{"sever", "Severance", true},    // prefix substring
		{"heat", "Heat", true},
		{"zzzzzz", "Inception", false},
		{"", "Anything", true},
	}
	for _, c := range cases {
		if got := titleMatches(c.query, c.title); got != c.want {
			t.Errorf("titleMatches(%q, %q) = %v, want %v", c.query, c.title, got, c.want)
		}
	}
}
