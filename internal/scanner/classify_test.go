package scanner

import "testing"

func TestSeasonNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"Season 1", 1, true},
		{"Season 01", 1, true},
		{"season 12", 12, true},
		{"S01", 1, true},
		{"s3", 3, true},
		{"Season_02", 2, true},
		{"Specials", 0, false},
		{"Extras", 0, false},
		{"Series 1 Behind the Scenes", 0, false},
	}
	for _, tt := range tests {
		got, ok := seasonNumber(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("seasonNumber(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTitleYear(t *testing.T) {
	tests := []struct {
		name  string
		title string
		year  int
	}{
		{"Inception (2010)", "Inception", 2010},
		{"Heat [1995]", "Heat", 1995},
		{"The Thing", "The Thing", 0},
		{"Blade Runner 2049 (2017)", "Blade Runner 2049", 2017},
	}
	for _, tt := range tests {
		title, year := titleYear(tt.name)
		if title != tt.title || year != tt.year {
			t.Errorf("titleYear(%q) = %q, %d; want %q, %d", tt.name, title, year, tt.title, tt.year)
		}
	}
}

func TestEpisodeNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"Show.S01E04.1080p.mkv", 4, true},
		{"show s02e11.mp4", 11, true},
		{"Show 1x02.mkv", 2, true},
		{"Show.3x10.720p.mkv", 10, true},
		{"random clip.mkv", 0, false},
	}
	for _, tt := range tests {
		got, ok := episodeNumber(tt.name)
		if ok != tt.ok || got != tt.want {
			t.Errorf("episodeNumber(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEpisodeTitle(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Show.S01E01.Pilot.mkv", "Pilot"},
		{"Show 1x02 - The Fire.mkv", "The Fire"},
		{"plain.mkv", "plain"},
	}
	for _, tt := range tests {
		if got := episodeTitle(tt.name); got != tt.want {
			t.Errorf("episodeTitle(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsVideoFile(t *testing.T) {
	if !isVideoFile("movie.MKV") {
		t.Error("extension match should be case-insensitive")
	}
	if isVideoFile("cover.jpg") || isVideoFile("notes.txt") {
		t.Error("non-video files must not match")
	}
}
