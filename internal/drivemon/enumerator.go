package drivemon

import "context"

//go:generate mockgen -destination=mocks/enumerator.go -package=mocks github.com/drivebay/drivebay/internal/drivemon Enumerator

// EnumeratedVolume is one attached volume as reported by the host OS.
type EnumeratedVolume struct {
	// UUID is the OS-reported filesystem UUID. May be empty, in which case
	// identity falls back to the mount root with reduced confidence.
	UUID      string
	Label     string
	MountRoot string
	Removable bool
}

// Enumerator lists currently-attached volumes. Implementations must honor
// the context deadline; the monitor bounds every call with a timeout so a
// hung OS call cannot stall the poll loop.
type Enumerator interface {
	Enumerate(ctx context.Context) ([]EnumeratedVolume, error)
}
