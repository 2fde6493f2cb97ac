package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apiv1 "github.com/drivebay/drivebay/internal/api/v1"
	"github.com/drivebay/drivebay/internal/coordinator"
	"github.com/drivebay/drivebay/internal/drivemon"
	"github.com/drivebay/drivebay/internal/events"
	"github.com/drivebay/drivebay/internal/playback"
	"github.com/drivebay/drivebay/internal/playback/mocks"
	"github.com/drivebay/drivebay/internal/progress"
	"github.com/drivebay/drivebay/internal/registry"
	"github.com/drivebay/drivebay/internal/scanner"
	"github.com/drivebay/drivebay/internal/watcher"
)

type nullEnum struct{}

func (nullEnum) Enumerate(ctx context.Context) ([]drivemon.EnumeratedVolume, error) {
	return nil, nil
}

type testServer struct {
	ts       *httptest.Server
	coord    *coordinator.Coordinator
	tracker  *progress.Tracker
	bus      *events.Bus
	renderer *mocks.MockEmbeddedRenderer
}

// newTestServer stands up the full daemon wiring behind an httptest server.
// Volumes are reported through the API rather than enumerated from the OS.
func newTestServer(t *testing.T, ctrl *gomock.Controller) *testServer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg, err := registry.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })

	bus := events.NewBus(log)
	t.Cleanup(func() { _ = bus.Close() })

	mon := drivemon.NewMonitor(nullEnum{}, reg, bus, time.Hour, time.Second, log)
	sc := scanner.New([]string{"movies"}, []string{"shows"}, log)
	w := watcher.New(bus, 10*time.Millisecond, time.Hour, log)
	coord := coordinator.New(reg, bus, mon, sc, w, log)

	tracker := progress.NewTracker(coord, time.Minute, log)
	cache := playback.NewTranscodeCache(time.Minute)

	srv := &testServer{coord: coord, tracker: tracker, bus: bus}
	var selector *playback.Selector
	if ctrl != nil {
		srv.renderer = mocks.NewMockEmbeddedRenderer(ctrl)
		selector = playback.NewSelector(
			func() playback.EmbeddedRenderer { return srv.renderer },
			nil, tracker, cache, bus, time.Millisecond, time.Minute, log)
		t.Cleanup(selector.Close)
	}
	coord.SetSessions(noopSessions{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = coord.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	api := apiv1.New(reg, coord, tracker, selector, bus, "test", log)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	srv.ts = httptest.NewServer(mux)
	t.Cleanup(srv.ts.Close)
	return srv
}

type noopSessions struct{}

func (noopSessions) EndVolume(string) {}

func (s *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := s.ts.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

// reportVolume mounts a fixture volume through the report endpoint and waits
// for the scan to finish.
func (s *testServer) reportVolume(t *testing.T, root string) string {
	t.Helper()
	scans := s.bus.Subscribe(events.TypeScanCompleted, 4)
	defer s.bus.Unsubscribe(scans)

	resp := s.do(t, http.MethodPost, "/api/v1/volumes/report", map[string]any{
		"uuid": "", "label": "USB", "mount_root": root, "removable": true, "connected": true,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	out := decode[map[string]string](t, resp)
	volumeID := out["volume_id"]
	require.NotEmpty(t, volumeID)

	select {
	case <-scans:
	case <-time.After(3 * time.Second):
		t.Fatal("volume scan never completed")
	}
	return volumeID
}

func buildVolume(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{
		filepath.Join("Movies", "Inception (2010)"),
		filepath.Join("Shows", "Severance", "Season 01"),
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	files := []string{
		filepath.Join("Movies", "Inception (2010)", "inception.mkv"),
		filepath.Join("Shows", "Severance", "Season 01", "Severance - S01E01.mkv"),
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte("xxxx"), 0o644))
	}
	return root
}

type catalogResponse struct {
	Volumes []struct {
		VolumeID string `json:"volume_id"`
		Movies   []struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			Year    int    `json:"year"`
			RelPath string `json:"rel_path"`
		} `json:"movies"`
		Shows []struct {
			Title    string `json:"title"`
			Episodes []struct {
				Season int `json:"season"`
				Number int `json:"number"`
			} `json:"episodes"`
		} `json:"shows"`
	} `json:"volumes"`
}

func TestStatusServedUnderBothPrefixes(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/v1/status", "/api/status"} {
		resp := s.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		body := decode[map[string]any](t, resp)
		assert.Equal(t, "ok", body["status"])
	}
}

func TestVolumeReportAndCatalog(t *testing.T) {
	s := newTestServer(t, nil)
	root := buildVolume(t)
	volumeID := s.reportVolume(t, root)

	resp := s.do(t, http.MethodGet, "/api/v1/volumes?connected=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	vols := decode[[]map[string]any](t, resp)
	require.Len(t, vols, 1)
	assert.Equal(t, volumeID, vols[0]["id"])

	resp = s.do(t, http.MethodGet, "/api/v1/catalog?volume="+volumeID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cat := decode[catalogResponse](t, resp)
	require.Len(t, cat.Volumes, 1)
	require.Len(t, cat.Volumes[0].Movies, 1)
	assert.Equal(t, "Inception", cat.Volumes[0].Movies[0].Title)
	assert.Equal(t, 2010, cat.Volumes[0].Movies[0].Year)
	require.Len(t, cat.Volumes[0].Shows, 1)
	require.Len(t, cat.Volumes[0].Shows[0].Episodes, 1)
	assert.Equal(t, 1, cat.Volumes[0].Shows[0].Episodes[0].Season)

	// Report the disconnect; the catalog empties out.
	resp = s.do(t, http.MethodPost, "/api/volumes/report", map[string]any{
		"uuid": "", "label": "USB", "mount_root": root, "connected": false,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	_ = resp.Body.Close()

	require.Eventually(t, func() bool {
		resp := s.do(t, http.MethodGet, "/api/v1/catalog", nil)
		defer func() { _ = resp.Body.Close() }()
		var cat catalogResponse
		if json.NewDecoder(resp.Body).Decode(&cat) != nil {
			return false
		}
		return len(cat.Volumes) == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCatalogFuzzySearch(t *testing.T) {
	s := newTestServer(t, nil)
	volumeID := s.reportVolume(t, buildVolume(t))

	// Typo still finds the title.
	resp := s.do(t, http.MethodGet, "/api/v1/catalog?volume="+volumeID+"&q=incepton", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cat := decode[catalogResponse](t, resp)
	require.Len(t, cat.Volumes, 1)
	assert.Len(t, cat.Volumes[0].Movies, 1)

	resp = s.do(t, http.MethodGet, "/api/v1/catalog?volume="+volumeID+"&q=zzzzzz", nil)
	cat = decode[catalogResponse](t, resp)
	require.Len(t, cat.Volumes, 1)
	assert.Empty(t, cat.Volumes[0].Movies)
	assert.Empty(t, cat.Volumes[0].Shows)
}

func TestScanUnknownVolume(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodPost, "/api/v1/volumes/nosuch/scan", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProgressRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	root := buildVolume(t)
	volumeID := s.reportVolume(t, root)

	file := filepath.Join(root, "Movies", "Inception (2010)", "inception.mkv")
	info, err := os.Stat(file)
	require.NoError(t, err)
	key := progress.NewContentKey(volumeID, "Movies/Inception (2010)/inception.mkv", info.Size(), info.ModTime())

	duration := (28*time.Minute + 30*time.Second).Milliseconds()
	position := int64(float64(duration) * 0.42)
	resp := s.do(t, http.MethodPut, "/api/v1/progress", map[string]any{
		"content_key": key.String(), "position_ms": position, "duration_ms": duration, "final": true,
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/v1/progress?key="+escapeKey(key.String()), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[map[string]any](t, resp)
	assert.InDelta(t, 0.42, rec["percentage"].(float64), 0.01)
	assert.Equal(t, false, rec["completed"])

	resp = s.do(t, http.MethodGet, "/api/v1/continue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	entries := decode[[]map[string]any](t, resp)
	require.Len(t, entries, 1)
	assert.Equal(t, key.String(), entries[0]["content_key"])
}

func TestProgressBadKey(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodGet, "/api/v1/progress?key=garbage", nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPlaybackUnconfigured(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodPost, "/api/v1/playback", map[string]any{"path": "/x/y.mkv"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestPlaybackStartAndStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestServer(t, ctrl)
	root := buildVolume(t)
	_ = s.reportVolume(t, root)

	file := filepath.Join(root, "Movies", "Inception (2010)", "inception.mkv")
	s.renderer.EXPECT().Start(gomock.Any(), file, gomock.Any()).Return(nil)
	s.renderer.EXPECT().Probe().Return(playback.DecodeSignals{VideoWidth: 1920, VideoHeight: 1080, AudioBytes: 1})
	s.renderer.EXPECT().Duration().Return(100 * time.Minute)
	s.renderer.EXPECT().Position().Return(time.Minute).AnyTimes()
	s.renderer.EXPECT().Stop().AnyTimes()

	resp := s.do(t, http.MethodPost, "/api/playback", map[string]any{"path": file})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "confirmed", body["state"])
	assert.Equal(t, "embedded", body["backend"])
	key := body["content_key"].(string)

	resp = s.do(t, http.MethodGet, "/api/playback?key="+escapeKey(key), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.do(t, http.MethodDelete, "/api/playback?key="+escapeKey(key), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/playback?key="+escapeKey(key), nil)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlaybackPathOffVolume(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := newTestServer(t, ctrl)

	resp := s.do(t, http.MethodPost, "/api/v1/playback", map[string]any{"path": "/not/mounted/file.mkv"})
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func escapeKey(key string) string {
	return neturl.QueryEscape(key)
}
