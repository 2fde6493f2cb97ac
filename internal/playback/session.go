package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/drivebay/drivebay/internal/progress"
)

// State is a playback session lifecycle state.
type State string

const (
	StateStarting            State = "starting"
	StateEmbeddedAttempt     State = "embedded_attempt"
	StateProbing             State = "probing"
	StateConfirmed           State = "confirmed"
	StateFallbackTriggered   State = "fallback_triggered"
	StateExternalOrTranscode State = "external_or_transcode"
	StateEnded               State = "ended"
)

// Backend names which decoding path a session is on.
type Backend string

const (
	BackendEmbedded  Backend = "embedded"
	BackendExternal  Backend = "external"
	BackendTranscode Backend = "transcode"
)

// transitions is the single authority on session state changes. There is no
// edge from any post-probe state back to Probing, so a session that has
// fallen back can never fall back again.
var transitions = map[State][]State{
	StateStarting:            {StateEmbeddedAttempt, StateFallbackTriggered, StateEnded},
	StateEmbeddedAttempt:     {StateProbing, StateFallbackTriggered, StateEnded},
	StateProbing:             {StateConfirmed, StateFallbackTriggered, StateEnded},
	StateConfirmed:           {StateEnded},
	StateFallbackTriggered:   {StateExternalOrTranscode, StateEnded},
	StateExternalOrTranscode: {StateEnded},
	StateEnded:               {},
}

// ValidTransition reports whether the table allows moving from one state to
// another.
func ValidTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Session is the per-request playback state machine. At most one session
// exists per content key; concurrent play requests for the same key attach
// to the existing session.
type Session struct {
	Key  progress.ContentKey
	Path string

	mu       sync.Mutex
	state    State
	backend  Backend
	position time.Duration
	duration time.Duration
	degraded error
	renderer EmbeddedRenderer
	handle   Handle
	cached   bool // handle is owned by the transcode cache
	done     chan struct{}
}

// NewSession creates a session in Starting on the embedded backend.
func NewSession(key progress.ContentKey, path string) *Session {
	return &Session{
		Key:     key,
		Path:    path,
		state:   StateStarting,
		backend: BackendEmbedded,
		done:    make(chan struct{}),
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Backend returns the decoding path the session is on.
func (s *Session) Backend() Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

// Position returns the last known playback position. On the embedded path
// it asks the live renderer.
func (s *Session) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == BackendEmbedded && s.renderer != nil && s.state != StateEnded {
		return s.renderer.Position()
	}
	return s.position
}

// Degraded returns the non-fatal condition the session is running under,
// nil when playback is healthy.
func (s *Session) Degraded() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Done is closed when the session reaches Ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// transition moves the session to next if the table allows it.
func (s *Session) transition(next State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(next)
}

func (s *Session) transitionLocked(next State) error {
	if !ValidTransition(s.state, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, next)
	}
	s.state = next
	if next == StateEnded {
		close(s.done)
	}
	return nil
}

// markPosition records the last known position, used when handing off to
// the external path and for the final progress write.
func (s *Session) markPosition(pos time.Duration) {
	s.mu.Lock()
	if pos > 0 {
		s.position = pos
	}
	s.mu.Unlock()
}

// end moves the session to Ended from any live state and releases the
// backend. Idempotent.
func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return
	}
	if s.backend == BackendEmbedded && s.renderer != nil {
		s.position = s.renderer.Position()
		s.renderer.Stop()
	}
	if s.handle != nil && !s.cached {
		_ = s.handle.Stop()
	}
	s.state = StateEnded
	close(s.done)
}
