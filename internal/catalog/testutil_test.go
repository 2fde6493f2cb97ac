package catalog

import (
	"testing"
)

// setupStore opens a catalog store on a temp dir standing in for a volume root.
func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustWrite(t *testing.T, s *Store, fn func(*Tx) error) {
	t.Helper()
	if err := s.Write(fn); err != nil {
		t.Fatalf("write: %v", err)
	}
}
