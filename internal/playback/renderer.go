package playback

//go:generate mockgen -source=renderer.go -destination=mocks/renderer.go -package=mocks

import (
	"context"
	"time"
)

// DecodeSignals is the decode-health surface reported by the embedded
// renderer after the probe guard window.
type DecodeSignals struct {
	VideoWidth  int
	VideoHeight int
	AudioBytes  int64
}

// Healthy reports whether both video and audio are actually decoding.
func (s DecodeSignals) Healthy() bool {
	return s.VideoWidth > 0 && s.VideoHeight > 0 && s.AudioBytes > 0
}

// EmbeddedRenderer hosts in-process playback. Implementations wrap whatever
// renderer the UI embeds; the selector only drives this surface.
type EmbeddedRenderer interface {
	// Start begins playback of path at the given offset.
	Start(ctx context.Context, path string, offset time.Duration) error
	// Probe reports current decode signals.
	Probe() DecodeSignals
	// Position reports the current playback position.
	Position() time.Duration
	// Duration reports the media duration, zero if unknown.
	Duration() time.Duration
	// Stop tears down the renderer's pipeline for this session.
	Stop()
}

// Handle is a running external decoding process.
type Handle interface {
	// Stop terminates the process. Safe to call more than once.
	Stop() error
}

// ExternalPlayer spawns the external decoding path for a title.
type ExternalPlayer interface {
	// Spawn starts external playback of path at offset, decoding codec.
	Spawn(ctx context.Context, path string, offset time.Duration, codec string) (Handle, error)
}
