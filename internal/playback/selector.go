// Package playback routes play requests to an embedded renderer or an
// external decoding path, with a one-shot probe-driven fallback per session.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/drivebay/drivebay/internal/events"
	"github.com/drivebay/drivebay/internal/progress"
)

// RendererFactory produces an embedded renderer for one session.
type RendererFactory func() EmbeddedRenderer

// Request asks the selector to start or attach to playback of one title.
type Request struct {
	Key  progress.ContentKey
	Path string
	// Codec is the container's primary codec, used as the transcode cache
	// discriminator. Empty is treated as unknown.
	Codec string
	// ResumeFrom overrides the tracker's saved resume position.
	ResumeFrom *time.Duration
	// ForceExternal skips the embedded attempt entirely.
	ForceExternal bool
}

// Selector owns all live playback sessions and drives each session's state
// machine. At most one session exists per content key.
type Selector struct {
	renderers  RendererFactory
	external   ExternalPlayer // nil when no external player is configured
	tracker    *progress.Tracker
	cache      *TranscodeCache
	bus        *events.Bus
	log        *slog.Logger
	probeGuard time.Duration
	interval   time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSelector wires a selector. external may be nil; sessions then degrade
// to embedded-only playback when fallback triggers.
func NewSelector(renderers RendererFactory, external ExternalPlayer, tracker *progress.Tracker,
	cache *TranscodeCache, bus *events.Bus, probeGuard, progressInterval time.Duration, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{
		renderers:  renderers,
		external:   external,
		tracker:    tracker,
		cache:      cache,
		bus:        bus,
		log:        log.With("component", "playback"),
		probeGuard: probeGuard,
		interval:   progressInterval,
		sessions:   make(map[string]*Session),
	}
}

// Play starts playback for a content key, or attaches to the live session
// when one already exists. The call blocks through the embedded attempt and
// probe guard, both bounded.
func (sel *Selector) Play(ctx context.Context, req Request) (*Session, error) {
	keyStr := req.Key.String()

	sel.mu.Lock()
	if s, ok := sel.sessions[keyStr]; ok && s.State() != StateEnded {
		sel.mu.Unlock()
		sel.log.Debug("attached to existing session", "key", keyStr, "state", s.State())
		return s, nil
	}
	s := NewSession(req.Key, req.Path)
	sel.sessions[keyStr] = s
	sel.mu.Unlock()

	resume := sel.tracker.ResumePosition(req.Key)
	if req.ResumeFrom != nil {
		resume = *req.ResumeFrom
	}
	s.markPosition(resume)

	if req.ForceExternal {
		if err := s.transition(StateFallbackTriggered); err != nil {
			return nil, err
		}
		if err := sel.handoff(ctx, s, req.Codec, resume); err != nil {
			return s, err
		}
		return s, nil
	}

	if err := sel.embeddedAttempt(ctx, s, resume); err != nil {
		return s, err
	}

	if s.State() == StateFallbackTriggered {
		if err := sel.bus.Publish(ctx, events.NewPlaybackFallback(keyStr, "probe unhealthy")); err != nil {
			sel.log.Debug("fallback event dropped", "key", keyStr, "error", err)
		}
		if err := sel.handoff(ctx, s, req.Codec, s.Position()); err != nil {
			return s, err
		}
	}
	if s.State() == StateConfirmed {
		go sel.feedProgress(s)
	}
	return s, nil
}

// embeddedAttempt starts the renderer, waits the probe guard, probes the
// decode signals and settles the session in Confirmed or FallbackTriggered.
func (sel *Selector) embeddedAttempt(ctx context.Context, s *Session, resume time.Duration) error {
	if err := s.transition(StateEmbeddedAttempt); err != nil {
		return err
	}

	r := sel.renderers()
	s.mu.Lock()
	s.renderer = r
	s.mu.Unlock()

	if err := r.Start(ctx, s.Path, resume); err != nil {
		sel.log.Warn("embedded start failed", "key", s.Key.String(), "error", err)
		return s.transition(StateFallbackTriggered)
	}

	// Bounded guard before trusting the probe signals.
	guard := time.NewTimer(sel.probeGuard)
	defer guard.Stop()
	select {
	case <-guard.C:
	case <-ctx.Done():
		sel.End(s.Key)
		return ctx.Err()
	}

	if err := s.transition(StateProbing); err != nil {
		return err
	}
	signals := r.Probe()
	if signals.Healthy() {
		s.mu.Lock()
		s.duration = r.Duration()
		s.mu.Unlock()
		sel.log.Info("embedded playback confirmed", "key", s.Key.String(),
			"width", signals.VideoWidth, "height", signals.VideoHeight)
		return s.transition(StateConfirmed)
	}

	// Carry the position over, then release the renderer.
	s.markPosition(r.Position())
	r.Stop()
	s.mu.Lock()
	s.renderer = nil
	s.mu.Unlock()
	sel.log.Warn("decode probe unhealthy", "key", s.Key.String(),
		"width", signals.VideoWidth, "height", signals.VideoHeight, "audio_bytes", signals.AudioBytes,
		"error", ErrCodecUnsupported)
	return s.transition(StateFallbackTriggered)
}

// handoff moves a fallen-back session onto the external path, reusing a
// cached transcode process when one exists for (key, codec).
func (sel *Selector) handoff(ctx context.Context, s *Session, codec string, resume time.Duration) error {
	if err := s.transition(StateExternalOrTranscode); err != nil {
		return err
	}
	keyStr := s.Key.String()

	if h, ok := sel.cache.Get(keyStr, codec); ok {
		sel.log.Info("reusing cached transcode session", "key", keyStr, "codec", codec)
		s.mu.Lock()
		s.backend = BackendTranscode
		s.handle = h
		s.cached = true
		s.mu.Unlock()
		go sel.keepCacheWarm(s, codec)
		return nil
	}

	if sel.external == nil {
		s.mu.Lock()
		s.degraded = ErrExternalUnavailable
		s.mu.Unlock()
		sel.log.Warn("no external player configured, staying degraded", "key", keyStr)
		return nil
	}

	h, err := sel.external.Spawn(ctx, s.Path, resume, codec)
	if errors.Is(err, ErrTranscodeSpawn) {
		sel.log.Warn("spawn failed, retrying once", "key", keyStr, "error", err)
		h, err = sel.external.Spawn(ctx, s.Path, resume, codec)
	}
	if err != nil {
		s.mu.Lock()
		s.degraded = err
		s.mu.Unlock()
		return fmt.Errorf("external handoff %s: %w", keyStr, err)
	}

	s.mu.Lock()
	s.backend = BackendExternal
	s.handle = h
	s.cached = true
	s.mu.Unlock()
	sel.cache.Put(keyStr, codec, h)
	go sel.keepCacheWarm(s, codec)
	return nil
}

// keepCacheWarm refreshes a live session's cache entry so the idle timer
// only counts from the last use, not from spawn time. Without it a playback
// longer than the idle timeout would have its process evicted mid-play.
func (sel *Selector) keepCacheWarm(s *Session, codec string) {
	interval := sel.cache.idle / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sel.cache.Touch(s.Key.String(), codec)
		case <-s.Done():
			sel.cache.Touch(s.Key.String(), codec)
			return
		}
	}
}

// feedProgress periodically writes the embedded renderer's position while
// the session is live, then writes the definitive record on end.
func (sel *Selector) feedProgress(s *Session) {
	ticker := time.NewTicker(sel.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			r, dur := s.renderer, s.duration
			s.mu.Unlock()
			if r == nil {
				return
			}
			if err := sel.tracker.Set(s.Key, r.Position(), dur, false); err != nil {
				sel.log.Debug("progress write skipped", "key", s.Key.String(), "error", err)
			}
		case <-s.Done():
			s.mu.Lock()
			pos, dur := s.position, s.duration
			s.mu.Unlock()
			if err := sel.tracker.Set(s.Key, pos, dur, true); err != nil {
				sel.log.Warn("final progress write failed", "key", s.Key.String(), "error", err)
			}
			return
		}
	}
}

// Get returns the live session for a content key, if any.
func (sel *Selector) Get(key progress.ContentKey) (*Session, bool) {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	s, ok := sel.sessions[key.String()]
	if !ok || s.State() == StateEnded {
		return nil, false
	}
	return s, true
}

// End stops the session for a content key. Cached transcode processes stay
// alive for reuse until their idle timeout.
func (sel *Selector) End(key progress.ContentKey) {
	keyStr := key.String()

	sel.mu.Lock()
	s, ok := sel.sessions[keyStr]
	if ok {
		delete(sel.sessions, keyStr)
	}
	sel.mu.Unlock()
	if !ok {
		return
	}
	s.end()

	s.mu.Lock()
	pos, dur := s.position, s.duration
	s.mu.Unlock()
	if err := sel.tracker.Set(s.Key, pos, dur, true); err != nil {
		sel.log.Warn("final progress write failed", "key", keyStr, "error", err)
	}
	sel.log.Info("session ended", "key", keyStr)
}

// EndVolume ends every session on a volume and immediately evicts the
// volume's cached transcode processes. Called on disconnect.
func (sel *Selector) EndVolume(volumeID string) {
	sel.mu.Lock()
	var ended []*Session
	for keyStr, s := range sel.sessions {
		if s.Key.VolumeID == volumeID {
			delete(sel.sessions, keyStr)
			ended = append(ended, s)
		}
	}
	sel.mu.Unlock()

	for _, s := range ended {
		s.end()
	}
	sel.cache.EvictVolume(volumeID)
	if len(ended) > 0 {
		sel.log.Info("ended sessions for disconnected volume", "volume", volumeID, "count", len(ended))
	}
}

// Close ends every session and drains the transcode cache.
func (sel *Selector) Close() {
	sel.mu.Lock()
	sessions := make([]*Session, 0, len(sel.sessions))
	for keyStr, s := range sel.sessions {
		sessions = append(sessions, s)
		delete(sel.sessions, keyStr)
	}
	sel.mu.Unlock()

	for _, s := range sessions {
		s.end()
	}
	sel.cache.Close()
}
