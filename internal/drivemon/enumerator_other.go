//go:build !linux

package drivemon

import "context"

// OSEnumerator has no mount-table reader on this platform. It enumerates
// nothing; volumes arrive through the volume report endpoint instead.
type OSEnumerator struct {
	// Roots is accepted for config compatibility and ignored.
	Roots []string
}

// Enumerate implements Enumerator.
func (e *OSEnumerator) Enumerate(ctx context.Context) ([]EnumeratedVolume, error) {
	return nil, nil
}
