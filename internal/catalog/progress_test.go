package catalog

import (
	"errors"
	"math"
	"testing"
	"time"
)

func progressFixture(key string, posMS, durMS int64, at time.Time) *ProgressRecord {
	pct := 0.0
	if durMS > 0 {
		pct = float64(posMS) / float64(durMS)
	}
	return &ProgressRecord{
		ContentKey:  key,
		RelPath:     "Movies/Clip (2024)/clip.mp4",
		SizeBytes:   12345,
		ModTime:     1700000000,
		PositionMS:  posMS,
		DurationMS:  durMS,
		Percentage:  pct,
		Completed:   pct >= 0.90,
		LastWatched: at,
	}
}

func TestProgress_RoundTrip(t *testing.T) {
	s := setupStore(t)

	// Pause at 12s of a 28.5s clip: about 42%, not completed.
	rec := progressFixture("vol|Movies/Clip (2024)/clip.mp4|12345|1700000000", 12000, 28500, time.Now())
	mustWrite(t, s, func(tx *Tx) error { return tx.SetProgress(rec) })

	got, err := s.GetProgress(rec.ContentKey)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.PositionMS != 12000 {
		t.Errorf("PositionMS = %d, want 12000", got.PositionMS)
	}
	if math.Abs(got.Percentage-0.42) > 0.01 {
		t.Errorf("Percentage = %f, want ~0.42", got.Percentage)
	}
	if got.Completed {
		t.Error("42%% watched must not be completed")
	}
}

func TestProgress_MonotonicWrites(t *testing.T) {
	s := setupStore(t)

	key := "vol|x.mp4|1|1"
	now := time.Now()

	newer := progressFixture(key, 20000, 60000, now)
	mustWrite(t, s, func(tx *Tx) error { return tx.SetProgress(newer) })

	// An out-of-order write stamped earlier must not supersede.
	stale := progressFixture(key, 5000, 60000, now.Add(-time.Minute))
	mustWrite(t, s, func(tx *Tx) error { return tx.SetProgress(stale) })

	got, err := s.GetProgress(key)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.PositionMS != 20000 {
		t.Errorf("stale write superseded newer one: PositionMS = %d", got.PositionMS)
	}
}

func TestProgress_CompletedThreshold(t *testing.T) {
	s := setupStore(t)

	key := "vol|done.mp4|1|1"
	rec := progressFixture(key, 57000, 60000, time.Now()) // 95%
	mustWrite(t, s, func(tx *Tx) error { return tx.SetProgress(rec) })

	got, err := s.GetProgress(key)
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if !got.Completed {
		t.Error("95%% watched should be completed")
	}
}

func TestProgress_NotFound(t *testing.T) {
	s := setupStore(t)

	_, err := s.GetProgress("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecentProgress_ExcludesCompleted(t *testing.T) {
	s := setupStore(t)

	now := time.Now()
	older := progressFixture("vol|a.mp4|1|1", 10000, 60000, now.Add(-time.Hour))
	newer := progressFixture("vol|b.mp4|1|1", 20000, 60000, now)
	done := progressFixture("vol|c.mp4|1|1", 59000, 60000, now.Add(time.Minute))

	mustWrite(t, s, func(tx *Tx) error {
		for _, r := range []*ProgressRecord{older, newer, done} {
			if err := tx.SetProgress(r); err != nil {
				return err
			}
		}
		return nil
	})

	recent, err := s.RecentProgress(10)
	if err != nil {
		t.Fatalf("RecentProgress: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d records, want 2 (completed excluded)", len(recent))
	}
	if recent[0].ContentKey != newer.ContentKey {
		t.Errorf("most recent first: got %s", recent[0].ContentKey)
	}
}
