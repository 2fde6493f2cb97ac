package progress

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/drivebay/drivebay/internal/catalog"
)

// CompletedThreshold is the watched fraction at which a title counts as
// completed and drops out of continue-watching.
const CompletedThreshold = 0.90

// ErrVolumeUnavailable means the key's volume has no open catalog store
// (disconnected or scan-blocked).
var ErrVolumeUnavailable = errors.New("volume unavailable")

// StoreSource resolves open catalog stores. The coordinator implements it;
// access always goes through the owning volume's serialized store.
type StoreSource interface {
	// StoreFor returns the open store for a volume, if any.
	StoreFor(volumeID string) (*catalog.Store, bool)
	// OpenVolumes lists volume ids with open stores.
	OpenVolumes() []string
}

// Entry is a continue-watching item with its owning volume resolved.
type Entry struct {
	VolumeID string
	Record   *catalog.ProgressRecord
}

// Tracker writes watch positions into the owning volume's catalog store.
// During active playback writes are throttled per content key to bound
// write amplification; final writes (pause/stop/end) always land.
type Tracker struct {
	stores   StoreSource
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // content key -> write limiter
}

// NewTracker creates a tracker writing at most one periodic record per
// interval per content key.
func NewTracker(stores StoreSource, interval time.Duration, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		stores:   stores,
		interval: interval,
		log:      log,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Set persists position/duration for a key, computing percentage and the
// completed flag. Periodic updates (final=false) are rate-limited; the
// definitive write on pause/stop/end (final=true) is never dropped.
func (t *Tracker) Set(key ContentKey, position, duration time.Duration, final bool) error {
	if !final && !t.limiter(key).Allow() {
		return nil
	}

	store, ok := t.stores.StoreFor(key.VolumeID)
	if !ok {
		return fmt.Errorf("set progress %s: %w", key.String(), ErrVolumeUnavailable)
	}

	pct := 0.0
	if duration > 0 {
		pct = float64(position) / float64(duration)
	}
	rec := &catalog.ProgressRecord{
		ContentKey:  key.String(),
		RelPath:     key.RelPath,
		SizeBytes:   key.Size,
		ModTime:     key.ModTime,
		PositionMS:  position.Milliseconds(),
		DurationMS:  duration.Milliseconds(),
		Percentage:  pct,
		Completed:   pct >= CompletedThreshold,
		LastWatched: time.Now(),
	}

	if err := store.Write(func(tx *catalog.Tx) error {
		return tx.SetProgress(rec)
	}); err != nil {
		return fmt.Errorf("set progress %s: %w", key.String(), err)
	}

	if final {
		t.release(key)
	}
	return nil
}

// Get returns the latest record for a key, or catalog.ErrNotFound.
func (t *Tracker) Get(key ContentKey) (*catalog.ProgressRecord, error) {
	store, ok := t.stores.StoreFor(key.VolumeID)
	if !ok {
		return nil, fmt.Errorf("get progress %s: %w", key.String(), ErrVolumeUnavailable)
	}
	return store.GetProgress(key.String())
}

// ResumePosition returns the saved resume offset for a key, or zero when
// there is no usable record (none saved, or the title was completed).
func (t *Tracker) ResumePosition(key ContentKey) time.Duration {
	rec, err := t.Get(key)
	if err != nil || rec.Completed {
		return 0
	}
	return time.Duration(rec.PositionMS) * time.Millisecond
}

// ContinueWatching merges the most recently watched, not-completed records
// across all currently open stores, most recent first.
func (t *Tracker) ContinueWatching(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	var merged []Entry
	for _, volumeID := range t.stores.OpenVolumes() {
		store, ok := t.stores.StoreFor(volumeID)
		if !ok {
			continue
		}
		recs, err := store.RecentProgress(limit)
		if err != nil {
			// A single volume's failure never hides the others.
			t.log.Warn("recent progress query failed", "volume", volumeID, "error", err)
			continue
		}
		for _, r := range recs {
			merged = append(merged, Entry{VolumeID: volumeID, Record: r})
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Record.LastWatched.After(merged[j].Record.LastWatched)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

func (t *Tracker) limiter(key ContentKey) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := key.String()
	lim, ok := t.limiters[k]
	if !ok {
		lim = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[k] = lim
	}
	return lim
}

func (t *Tracker) release(key ContentKey) {
	t.mu.Lock()
	delete(t.limiters, key.String())
	t.mu.Unlock()
}
