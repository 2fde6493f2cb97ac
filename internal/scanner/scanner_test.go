package scanner_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/drivebay/drivebay/internal/catalog"
	"github.com/drivebay/drivebay/internal/scanner"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newScanner() *scanner.Scanner {
	return scanner.New(
		[]string{"movies", "films"},
		[]string{"shows", "tv"},
		testLogger(),
	)
}

// buildVolume lays out a fake volume root:
//
//	Movies/Inception (2010)/Inception.mp4
//	Movies/Heat (1995)/Heat.mkv
//	Shows/Severance/Season 01/Severance.S01E01.mkv
//	Shows/Severance/Season 01/Severance.S01E02.mkv
//	Unrelated/system.bin
func buildVolume(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := []string{
		"Movies/Inception (2010)/Inception.mp4",
		"Movies/Heat (1995)/Heat.mkv",
		"Shows/Severance/Season 01/Severance.S01E01.mkv",
		"Shows/Severance/Season 01/Severance.S01E02.mkv",
		"Unrelated/system.bin",
	}
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func openStore(t *testing.T, root string) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(root)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestScan_DiscoversMoviesAndShows(t *testing.T) {
	root := buildVolume(t)
	store := openStore(t, root)
	s := newScanner()

	res, err := s.Scan(context.Background(), "vol-1", root, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Movies != 2 || res.Shows != 1 || res.Episodes != 2 {
		t.Errorf("result = %+v, want 2 movies, 1 show, 2 episodes", res)
	}

	movies, err := store.ListMovies()
	if err != nil {
		t.Fatalf("ListMovies: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("got %d movies", len(movies))
	}
	// Titles parsed from folder names, years extracted.
	if movies[0].Title != "Heat" || movies[0].Year != 1995 {
		t.Errorf("unexpected first movie: %+v", movies[0])
	}

	shows, err := store.ListShows()
	if err != nil {
		t.Fatalf("ListShows: %v", err)
	}
	if len(shows) != 1 || shows[0].Title != "Severance" {
		t.Fatalf("unexpected shows: %+v", shows)
	}
	eps, err := store.ListEpisodes(shows[0].ID)
	if err != nil {
		t.Fatalf("ListEpisodes: %v", err)
	}
	if len(eps) != 2 || eps[0].Number != 1 || eps[1].Number != 2 {
		t.Errorf("unexpected episodes: %+v", eps)
	}
}

func TestScan_IdempotentRowIdentities(t *testing.T) {
	root := buildVolume(t)
	store := openStore(t, root)
	s := newScanner()

	if _, err := s.Scan(context.Background(), "vol-1", root, store); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	first, err := store.ListMovies()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Scan(context.Background(), "vol-1", root, store); err != nil {
		t.Fatalf("second scan: %v", err)
	}
	second, err := store.ListMovies()
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("rescan changed row count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("row id changed across rescans: %s vs %s", first[i].ID, second[i].ID)
		}
	}
}

func TestScan_RemovedContentLeavesCatalog(t *testing.T) {
	root := buildVolume(t)
	store := openStore(t, root)
	s := newScanner()

	if _, err := s.Scan(context.Background(), "vol-1", root, store); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	if err := os.RemoveAll(filepath.Join(root, "Movies", "Heat (1995)")); err != nil {
		t.Fatal(err)
	}

	res, err := s.Scan(context.Background(), "vol-1", root, store)
	if err != nil {
		t.Fatalf("rescan: %v", err)
	}
	if res.Movies != 1 {
		t.Errorf("rescan found %d movies, want 1", res.Movies)
	}

	movies, err := store.ListMovies()
	if err != nil {
		t.Fatal(err)
	}
	if len(movies) != 1 || movies[0].Title != "Inception" {
		t.Errorf("deleted movie still in catalog: %+v", movies)
	}
}

func TestScan_NoMediaFolders(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "Backups"), 0o755); err != nil {
		t.Fatal(err)
	}
	store := openStore(t, root)
	s := newScanner()

	_, err := s.Scan(context.Background(), "vol-1", root, store)
	if !errors.Is(err, scanner.ErrNoMediaFolders) {
		t.Errorf("expected ErrNoMediaFolders, got %v", err)
	}
}

func TestScan_AliasMatchingIsCaseInsensitive(t *testing.T) {
	root := t.TempDir()
	full := filepath.Join(root, "MOVIES", "Tenet (2020)", "Tenet.mp4")
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := openStore(t, root)
	s := newScanner()

	res, err := s.Scan(context.Background(), "vol-1", root, store)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if res.Movies != 1 {
		t.Errorf("got %d movies, want 1", res.Movies)
	}
}

func TestScan_CanceledContextAborts(t *testing.T) {
	root := buildVolume(t)
	store := openStore(t, root)
	s := newScanner()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, "vol-1", root, store)
	if !errors.Is(err, scanner.ErrScanAborted) {
		t.Errorf("expected ErrScanAborted, got %v", err)
	}

	// Aborted at the first phase boundary: nothing committed.
	movies, err := store.ListMovies()
	if err != nil {
		t.Fatal(err)
	}
	if len(movies) != 0 {
		t.Errorf("aborted scan left %d movie rows", len(movies))
	}
}

func TestScan_SingleFlightPerVolume(t *testing.T) {
	root := buildVolume(t)
	store := openStore(t, root)
	s := newScanner()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = s.Scan(context.Background(), "vol-1", root, store)
		}(i)
	}
	wg.Wait()

	var ok, coalesced int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, scanner.ErrScanInFlight):
			coalesced++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok < 1 {
		t.Error("at least one scan should complete")
	}
	if ok+coalesced != 4 {
		t.Errorf("ok=%d coalesced=%d, want all 4 accounted for", ok, coalesced)
	}

	// Regardless of interleaving, no duplicates.
	movies, err := store.ListMovies()
	if err != nil {
		t.Fatal(err)
	}
	if len(movies) != 2 {
		t.Errorf("got %d movies, want 2", len(movies))
	}
}

func TestScan_IndependentVolumes(t *testing.T) {
	rootD := buildVolume(t)
	rootE := buildVolume(t)
	storeD := openStore(t, rootD)
	storeE := openStore(t, rootE)
	s := newScanner()

	// Abort volume D's scan; volume E's catalog must stay fully operational.
	ctxD, cancelD := context.WithCancel(context.Background())
	cancelD()
	_, errD := s.Scan(ctxD, "vol-d", rootD, storeD)
	if !errors.Is(errD, scanner.ErrScanAborted) {
		t.Fatalf("expected abort on D, got %v", errD)
	}

	if _, err := s.Scan(context.Background(), "vol-e", rootE, storeE); err != nil {
		t.Fatalf("scan E: %v", err)
	}
	movies, err := storeE.ListMovies()
	if err != nil {
		t.Fatalf("E's store should be queryable: %v", err)
	}
	if len(movies) != 2 {
		t.Errorf("E catalog incomplete: %d movies", len(movies))
	}
}
