// Package watcher triggers rescans when a volume's media folders change,
// debouncing bursts of raw filesystem events into a single signal.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/drivebay/drivebay/internal/events"
)

// ErrWatcherSetup indicates OS-level watch registration failed. The watcher
// degrades to a longer-interval periodic poll rather than disabling
// rescanning for the volume.
var ErrWatcherSetup = errors.New("watch registration failed")

// Watcher manages per-volume filesystem subscriptions. Debounce state is per
// volume: a burst of activity on one volume never delays another's signal.
type Watcher struct {
	bus          *events.Bus
	log          *slog.Logger
	debounce     time.Duration
	fallbackPoll time.Duration

	mu   sync.Mutex
	subs map[string]*subscription // volumeID -> active subscription
}

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a watcher.
func New(bus *events.Bus, debounce, fallbackPoll time.Duration, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		bus:          bus,
		log:          log,
		debounce:     debounce,
		fallbackPoll: fallbackPoll,
		subs:         make(map[string]*subscription),
	}
}

// Subscribe registers change notifications for the volume's matched media
// folders only, not the whole volume. If OS registration fails the volume
// falls back to periodic polling; the returned error is ErrWatcherSetup-
// wrapped but the subscription is still live.
func (w *Watcher) Subscribe(volumeID string, mediaFolders []string) error {
	w.mu.Lock()
	if _, ok := w.subs[volumeID]; ok {
		w.mu.Unlock()
		return nil // already watching
	}
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	w.subs[volumeID] = sub
	w.mu.Unlock()

	fw, err := fsnotify.NewWatcher()
	if err == nil {
		for _, folder := range mediaFolders {
			if addErr := fw.Add(folder); addErr != nil {
				err = addErr
				break
			}
		}
	}
	if err != nil {
		if fw != nil {
			_ = fw.Close()
		}
		w.log.Warn("watch registration failed, falling back to polling",
			"volume", volumeID, "interval", w.fallbackPoll.String(), "error", err)
		go w.pollLoop(ctx, volumeID, sub)
		return fmt.Errorf("%w: %v", ErrWatcherSetup, err)
	}

	w.log.Info("watching media folders", "volume", volumeID, "folders", len(mediaFolders))
	go w.watchLoop(ctx, volumeID, fw, sub)
	return nil
}

// Unsubscribe tears down the volume's subscription. Called on disconnect.
func (w *Watcher) Unsubscribe(volumeID string) {
	w.mu.Lock()
	sub, ok := w.subs[volumeID]
	if ok {
		delete(w.subs, volumeID)
	}
	w.mu.Unlock()

	if !ok {
		return
	}
	sub.cancel()
	<-sub.done
}

// Close tears down every subscription.
func (w *Watcher) Close() {
	w.mu.Lock()
	ids := make([]string, 0, len(w.subs))
	for id := range w.subs {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	for _, id := range ids {
		w.Unsubscribe(id)
	}
}

// watchLoop accumulates raw events and emits exactly one rescan-needed
// signal per quiet window.
func (w *Watcher) watchLoop(ctx context.Context, volumeID string, fw *fsnotify.Watcher, sub *subscription) {
	defer close(sub.done)
	defer func() { _ = fw.Close() }()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !isRelevantEvent(event) {
				continue
			}
			w.log.Debug("fs event", "volume", volumeID, "op", event.Op.String(), "name", event.Name)
			if debounce == nil {
				debounce = time.NewTimer(w.debounce)
				fire = debounce.C
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.debounce)
			}

		case <-fire:
			debounce = nil
			fire = nil
			_ = w.bus.Publish(ctx, events.NewRescanNeeded(volumeID, "fs_change"))

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "volume", volumeID, "error", err)
		}
	}
}

// pollLoop is the degraded path for volumes whose watch registration failed.
func (w *Watcher) pollLoop(ctx context.Context, volumeID string, sub *subscription) {
	defer close(sub.done)

	ticker := time.NewTicker(w.fallbackPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.bus.Publish(ctx, events.NewRescanNeeded(volumeID, "poll"))
		}
	}
}

// isRelevantEvent filters for changes that could alter catalog contents.
func isRelevantEvent(e fsnotify.Event) bool {
	return e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
