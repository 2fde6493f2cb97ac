package playback

import (
	"context"
	"time"
)

// NullRenderer is the embedded surface used when no renderer is attached to
// the daemon. Start always refuses, so every session routes straight to the
// external path without waiting out the probe guard.
type NullRenderer struct{}

func (NullRenderer) Start(ctx context.Context, path string, offset time.Duration) error {
	return ErrCodecUnsupported
}

func (NullRenderer) Probe() DecodeSignals    { return DecodeSignals{} }
func (NullRenderer) Position() time.Duration { return 0 }
func (NullRenderer) Duration() time.Duration { return 0 }
func (NullRenderer) Stop()                   {}
