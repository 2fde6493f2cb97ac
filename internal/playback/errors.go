package playback

import "errors"

var (
	// ErrCodecUnsupported means the embedded renderer cannot decode the
	// title; it triggers the one-shot fallback to the external path.
	ErrCodecUnsupported = errors.New("codec unsupported")

	// ErrExternalUnavailable means no external player is configured. The
	// session stays on whatever partial embedded playback is possible.
	ErrExternalUnavailable = errors.New("external player unavailable")

	// ErrTranscodeSpawn means the external decoding process failed to start.
	// Spawn is retried once before the error is reported.
	ErrTranscodeSpawn = errors.New("transcode spawn failed")

	// ErrInvalidTransition means a session was asked to move to a state the
	// transition table does not allow from its current state.
	ErrInvalidTransition = errors.New("invalid session transition")
)
