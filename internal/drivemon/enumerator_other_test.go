//go:build !linux

package drivemon

import (
	"context"
	"testing"
)

func TestOSEnumeratorNoopOffLinux(t *testing.T) {
	e := &OSEnumerator{Roots: []string{"/Volumes"}}
	vols, err := e.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(vols) != 0 {
		t.Fatalf("expected no volumes, got %d", len(vols))
	}
}
