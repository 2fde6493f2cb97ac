// Package coordinator owns the per-volume lifecycle: it reacts to connect
// and disconnect events, opens and closes catalog stores, schedules scans
// and wires watcher subscriptions. All per-volume failures are contained to
// that volume.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/drivebay/drivebay/internal/catalog"
	"github.com/drivebay/drivebay/internal/drivemon"
	"github.com/drivebay/drivebay/internal/events"
	"github.com/drivebay/drivebay/internal/progress"
	"github.com/drivebay/drivebay/internal/registry"
	"github.com/drivebay/drivebay/internal/scanner"
	"github.com/drivebay/drivebay/internal/watcher"
)

// SessionEnder tears down playback state for a volume. Implemented by the
// playback selector; set after construction because the selector's progress
// tracker reads stores through the coordinator.
type SessionEnder interface {
	EndVolume(volumeID string)
}

type volumeState struct {
	mountRoot  string
	store      *catalog.Store
	scanCancel context.CancelFunc
}

// Coordinator is the explicit owner of every open volume's resources.
type Coordinator struct {
	reg     *registry.Store
	bus     *events.Bus
	monitor *drivemon.Monitor
	scanner *scanner.Scanner
	watcher *watcher.Watcher
	log     *slog.Logger

	mu       sync.Mutex
	volumes  map[string]*volumeState
	sessions SessionEnder
}

// New wires a coordinator. Call SetSessions before Run.
func New(reg *registry.Store, bus *events.Bus, monitor *drivemon.Monitor,
	sc *scanner.Scanner, w *watcher.Watcher, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		reg:     reg,
		bus:     bus,
		monitor: monitor,
		scanner: sc,
		watcher: w,
		log:     log.With("component", "coordinator"),
		volumes: make(map[string]*volumeState),
	}
}

// SetSessions attaches the playback teardown hook.
func (c *Coordinator) SetSessions(s SessionEnder) {
	c.mu.Lock()
	c.sessions = s
	c.mu.Unlock()
}

// Run drives the drive monitor and the event loop until ctx is canceled,
// then tears down every open volume.
func (c *Coordinator) Run(ctx context.Context) error {
	connected := c.bus.Subscribe(events.TypeVolumeConnected, 16)
	disconnected := c.bus.Subscribe(events.TypeVolumeDisconnected, 16)
	rescans := c.bus.Subscribe(events.TypeRescanNeeded, 16)
	defer func() {
		c.bus.Unsubscribe(connected)
		c.bus.Unsubscribe(disconnected)
		c.bus.Unsubscribe(rescans)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.monitor.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case e, ok := <-connected:
				if !ok {
					return nil
				}
				if ev, isConn := e.(events.VolumeConnected); isConn {
					c.handleConnected(gctx, ev)
				}
			case e, ok := <-disconnected:
				if !ok {
					return nil
				}
				if ev, isDisc := e.(events.VolumeDisconnected); isDisc {
					c.handleDisconnected(ev.VolumeID)
				}
			case e, ok := <-rescans:
				if !ok {
					return nil
				}
				if ev, isRescan := e.(events.RescanNeeded); isRescan {
					c.handleRescan(gctx, ev)
				}
			}
		}
	})

	err := g.Wait()
	c.teardownAll()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleConnected opens the volume's catalog store, scans it and subscribes
// the filesystem watcher. A store open failure blocks scanning for this
// volume only.
func (c *Coordinator) handleConnected(ctx context.Context, ev events.VolumeConnected) {
	log := c.log.With("volume", ev.VolumeID, "mount", ev.MountRoot)

	store, err := catalog.Open(ev.MountRoot)
	if err != nil {
		log.Error("catalog store open failed, volume blocked", "error", err)
		if regErr := c.reg.SetScanBlocked(ev.VolumeID, true); regErr != nil {
			log.Error("mark scan blocked failed", "error", regErr)
		}
		return
	}
	if err := c.reg.SetScanBlocked(ev.VolumeID, false); err != nil {
		log.Warn("clear scan blocked failed", "error", err)
	}

	c.mu.Lock()
	if _, exists := c.volumes[ev.VolumeID]; exists {
		c.mu.Unlock()
		_ = store.Close()
		return
	}
	c.volumes[ev.VolumeID] = &volumeState{mountRoot: ev.MountRoot, store: store}
	c.mu.Unlock()

	log.Info("volume online")

	go func() {
		c.scan(ctx, ev.VolumeID)
		c.subscribeWatcher(ev.VolumeID, ev.MountRoot)
	}()
}

// handleDisconnected cancels the volume's in-flight scan, removes its
// watcher subscription, ends its playback sessions and closes its store.
func (c *Coordinator) handleDisconnected(volumeID string) {
	c.mu.Lock()
	vs, ok := c.volumes[volumeID]
	if ok {
		delete(c.volumes, volumeID)
	}
	sessions := c.sessions
	c.mu.Unlock()
	if !ok {
		return
	}

	if vs.scanCancel != nil {
		vs.scanCancel()
	}
	c.watcher.Unsubscribe(volumeID)
	if sessions != nil {
		sessions.EndVolume(volumeID)
	}
	if err := vs.store.Close(); err != nil {
		c.log.Warn("catalog store close failed", "volume", volumeID, "error", err)
	}
	c.log.Info("volume offline", "volume", volumeID)
}

func (c *Coordinator) handleRescan(ctx context.Context, ev events.RescanNeeded) {
	c.log.Debug("rescan requested", "volume", ev.VolumeID, "reason", ev.Reason)
	go c.scan(ctx, ev.VolumeID)
}

// scan runs one scan of a volume through its serialized store queue.
// Concurrent triggers coalesce into the in-flight scan: a non-nil scanCancel
// marks the slot taken, and only the scan that took it may record or clear
// the cancel func. Recording it unconditionally would let a coalesced
// trigger clobber the live scan's cancel, leaving disconnect unable to
// abort it.
func (c *Coordinator) scan(ctx context.Context, volumeID string) {
	c.mu.Lock()
	vs, ok := c.volumes[volumeID]
	if !ok || vs.scanCancel != nil {
		c.mu.Unlock()
		return
	}
	scanCtx, cancel := context.WithCancel(ctx)
	vs.scanCancel = cancel
	store, mountRoot := vs.store, vs.mountRoot
	c.mu.Unlock()

	log := c.log.With("volume", volumeID)
	res, err := c.scanner.Scan(scanCtx, volumeID, mountRoot, store)

	// Free the slot before reporting, so a rescan triggered by the
	// completion event is not coalesced into the scan that just finished.
	cancel()
	c.mu.Lock()
	vs.scanCancel = nil
	c.mu.Unlock()

	switch {
	case errors.Is(err, scanner.ErrScanInFlight):
		return
	case errors.Is(err, scanner.ErrScanAborted) || (err != nil && scanCtx.Err() != nil):
		// Disconnect canceled the scan; store errors after the cancel are
		// part of the same teardown, not scan failures.
		log.Debug("scan aborted")
		return
	case errors.Is(err, scanner.ErrNoMediaFolders):
		log.Info("no media folders found")
		c.publishScanCompleted(ctx, volumeID, nil, err)
		return
	case err != nil:
		log.Error("scan failed", "error", err)
		c.publishScanCompleted(ctx, volumeID, nil, err)
		return
	}

	if err := c.reg.SetLastScanned(volumeID, time.Now()); err != nil {
		log.Warn("record last scanned failed", "error", err)
	}
	log.Info("scan completed", "movies", res.Movies, "shows", res.Shows, "episodes", res.Episodes, "skipped", res.Skipped)
	c.publishScanCompleted(ctx, volumeID, res, nil)
}

func (c *Coordinator) publishScanCompleted(ctx context.Context, volumeID string, res *scanner.Result, scanErr error) {
	var movies, shows, episodes int
	if res != nil {
		movies, shows, episodes = res.Movies, res.Shows, res.Episodes
	}
	errMsg := ""
	if scanErr != nil {
		errMsg = scanErr.Error()
	}
	if err := c.bus.Publish(ctx, events.NewScanCompleted(volumeID, movies, shows, episodes, errMsg)); err != nil {
		c.log.Debug("scan completed event dropped", "volume", volumeID, "error", err)
	}
}

func (c *Coordinator) subscribeWatcher(volumeID, mountRoot string) {
	folders, err := c.scanner.FindMediaFolders(mountRoot)
	if err != nil || folders.Empty() {
		return
	}
	if err := c.watcher.Subscribe(volumeID, folders.All()); err != nil {
		// Setup failure already degraded to polling inside the watcher.
		c.log.Warn("watch registration degraded", "volume", volumeID, "error", err)
	}
}

// ScanVolume triggers a scan of a connected volume, for the API's scan
// endpoint. Returns ErrVolumeUnavailable when the volume has no open store.
func (c *Coordinator) ScanVolume(ctx context.Context, volumeID string) error {
	c.mu.Lock()
	_, ok := c.volumes[volumeID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("scan volume %s: %w", volumeID, progress.ErrVolumeUnavailable)
	}
	go c.scan(ctx, volumeID)
	return nil
}

// StoreFor returns the open catalog store for a volume. Implements the
// progress tracker's store source.
func (c *Coordinator) StoreFor(volumeID string) (*catalog.Store, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vs, ok := c.volumes[volumeID]
	if !ok {
		return nil, false
	}
	return vs.store, true
}

// OpenVolumes lists volume ids with open catalog stores.
func (c *Coordinator) OpenVolumes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.volumes))
	for id := range c.volumes {
		ids = append(ids, id)
	}
	return ids
}

// ResolvePath maps an absolute path to the open volume containing it and
// the path relative to that volume's mount root.
func (c *Coordinator) ResolvePath(abs string) (volumeID, relPath string, ok bool) {
	abs = filepath.Clean(abs)

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, vs := range c.volumes {
		root := filepath.Clean(vs.mountRoot)
		if abs == root {
			continue
		}
		if strings.HasPrefix(abs, root+string(filepath.Separator)) {
			rel, err := filepath.Rel(root, abs)
			if err != nil {
				continue
			}
			return id, filepath.ToSlash(rel), true
		}
	}
	return "", "", false
}

// MountRoot returns a connected volume's mount root.
func (c *Coordinator) MountRoot(volumeID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	vs, ok := c.volumes[volumeID]
	if !ok {
		return "", false
	}
	return vs.mountRoot, true
}

// teardownAll closes every open volume on shutdown.
func (c *Coordinator) teardownAll() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.volumes))
	for id := range c.volumes {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.handleDisconnected(id)
	}
	c.watcher.Close()
}
