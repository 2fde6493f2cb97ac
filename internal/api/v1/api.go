// Package v1 implements the native REST API.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/drivebay/drivebay/internal/catalog"
	"github.com/drivebay/drivebay/internal/coordinator"
	"github.com/drivebay/drivebay/internal/events"
	"github.com/drivebay/drivebay/internal/playback"
	"github.com/drivebay/drivebay/internal/progress"
	"github.com/drivebay/drivebay/internal/registry"
)

// Server is the v1 API server.
type Server struct {
	reg      *registry.Store
	coord    *coordinator.Coordinator
	tracker  *progress.Tracker
	selector *playback.Selector
	bus      *events.Bus
	version  string
	log      *slog.Logger
}

// New creates a new v1 API server. selector may be nil when playback routing
// is disabled; the playback endpoints then answer 503.
func New(reg *registry.Store, coord *coordinator.Coordinator, tracker *progress.Tracker,
	selector *playback.Selector, bus *events.Bus, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		reg:      reg,
		coord:    coord,
		tracker:  tracker,
		selector: selector,
		bus:      bus,
		version:  version,
		log:      log.With("component", "api"),
	}
}

// RegisterRoutes registers every endpoint on the given mux, under both the
// versioned and the unversioned prefix.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	for _, prefix := range []string{"/api/v1", "/api"} {
		// Volumes
		mux.HandleFunc("GET "+prefix+"/volumes", s.logged(s.listVolumes))
		mux.HandleFunc("POST "+prefix+"/volumes/report", s.logged(s.reportVolume))
		mux.HandleFunc("POST "+prefix+"/volumes/{id}/scan", s.logged(s.scanVolume))

		// Catalog
		mux.HandleFunc("GET "+prefix+"/catalog", s.logged(s.listCatalog))

		// Progress
		mux.HandleFunc("GET "+prefix+"/progress", s.logged(s.getProgress))
		mux.HandleFunc("PUT "+prefix+"/progress", s.logged(s.setProgress))
		mux.HandleFunc("GET "+prefix+"/continue", s.logged(s.continueWatching))

		// Playback
		mux.HandleFunc("POST "+prefix+"/playback", s.logged(s.requireSelector(s.startPlayback)))
		mux.HandleFunc("GET "+prefix+"/playback", s.logged(s.requireSelector(s.getPlayback)))
		mux.HandleFunc("DELETE "+prefix+"/playback", s.logged(s.requireSelector(s.stopPlayback)))

		// System
		mux.HandleFunc("GET "+prefix+"/status", s.logged(s.getStatus))
	}
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// Volumes

func (s *Server) listVolumes(w http.ResponseWriter, r *http.Request) {
	onlyConnected := r.URL.Query().Get("connected") == "true"
	vols, err := s.reg.List(onlyConnected)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := make([]volumeResponse, len(vols))
	for i, v := range vols {
		resp[i] = volumeResponse{
			ID:          v.ID,
			Label:       v.Label,
			MountRoot:   v.MountRoot,
			Removable:   v.Removable,
			Connected:   v.Connected,
			Confidence:  string(v.Confidence),
			ScanBlocked: v.ScanBlocked,
			FirstSeen:   v.FirstSeen,
			LastSeen:    v.LastSeen,
			LastScanned: v.LastScanned,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// reportVolume accepts a mount event from the UI/IPC layer and feeds it
// through the same event path the drive monitor uses.
func (s *Server) reportVolume(w http.ResponseWriter, r *http.Request) {
	var req reportVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.MountRoot == "" {
		writeError(w, http.StatusBadRequest, "INVALID_VOLUME", "mount_root is required")
		return
	}

	id, confidence := registry.ResolveIdentity(req.UUID, req.MountRoot, req.Label)

	var e events.Event
	if req.Connected {
		if err := s.reg.Upsert(&registry.Volume{
			ID:         id,
			Label:      req.Label,
			MountRoot:  req.MountRoot,
			Removable:  req.Removable,
			Connected:  true,
			Confidence: confidence,
		}); err != nil {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
			return
		}
		e = events.NewVolumeConnected(id, req.Label, req.MountRoot, req.Removable)
	} else {
		if err := s.reg.MarkDisconnected(id); err != nil && !errors.Is(err, registry.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
			return
		}
		e = events.NewVolumeDisconnected(id)
	}

	if err := s.bus.Publish(r.Context(), e); err != nil {
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"volume_id": id})
}

func (s *Server) scanVolume(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "missing volume id")
		return
	}

	// Detached from the request context: the scan outlives the HTTP call.
	if err := s.coord.ScanVolume(context.WithoutCancel(r.Context()), id); err != nil {
		if errors.Is(err, progress.ErrVolumeUnavailable) {
			writeError(w, http.StatusNotFound, "VOLUME_UNAVAILABLE", "volume is not connected")
			return
		}
		writeError(w, http.StatusInternalServerError, "SCAN_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"volume_id": id, "status": "scanning"})
}

// Catalog

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	volumeFilter := r.URL.Query().Get("volume")
	query := r.URL.Query().Get("q")

	var volumeIDs []string
	if volumeFilter != "" {
		if _, ok := s.coord.StoreFor(volumeFilter); !ok {
			writeError(w, http.StatusNotFound, "VOLUME_UNAVAILABLE", "volume is not connected")
			return
		}
		volumeIDs = []string{volumeFilter}
	} else {
		volumeIDs = s.coord.OpenVolumes()
	}

	resp := catalogResponse{Volumes: []volumeCatalogResponse{}}
	for _, volumeID := range volumeIDs {
		store, ok := s.coord.StoreFor(volumeID)
		if !ok {
			continue
		}
		vc, err := s.volumeCatalog(store, volumeID, query)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
			return
		}
		resp.Volumes = append(resp.Volumes, vc)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) volumeCatalog(store *catalog.Store, volumeID, query string) (volumeCatalogResponse, error) {
	vc := volumeCatalogResponse{VolumeID: volumeID, Movies: []movieResponse{}, Shows: []showResponse{}}

	movies, err := store.ListMovies()
	if err != nil {
		return vc, err
	}
	for _, m := range movies {
		if query != "" && !titleMatches(query, m.Title) {
			continue
		}
		vc.Movies = append(vc.Movies, movieResponse{
			ID: m.ID, Title: m.Title, Year: m.Year,
			RelPath: m.RelPath, FilePath: m.FilePath, SizeBytes: m.SizeBytes,
		})
	}

	shows, err := store.ListShows()
	if err != nil {
		return vc, err
	}
	for _, sh := range shows {
		if query != "" && !titleMatches(query, sh.Title) {
			continue
		}
		sr := showResponse{ID: sh.ID, Title: sh.Title, Year: sh.Year, RelPath: sh.RelPath}

		seasons, err := store.ListSeasons(sh.ID)
		if err != nil {
			return vc, err
		}
		numberBySeason := make(map[string]int, len(seasons))
		for _, se := range seasons {
			numberBySeason[se.ID] = se.Number
		}
		episodes, err := store.ListEpisodes(sh.ID)
		if err != nil {
			return vc, err
		}
		for _, ep := range episodes {
			sr.Episodes = append(sr.Episodes, episodeResponse{
				ID: ep.ID, Season: numberBySeason[ep.SeasonID], Number: ep.Number,
				Title: ep.Title, RelPath: ep.RelPath,
			})
		}
		vc.Shows = append(vc.Shows, sr)
	}
	return vc, nil
}

// Progress

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	key, err := progress.ParseContentKey(r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_KEY", err.Error())
		return
	}

	rec, err := s.tracker.Get(key)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no progress recorded")
		return
	case errors.Is(err, progress.ErrVolumeUnavailable):
		writeError(w, http.StatusNotFound, "VOLUME_UNAVAILABLE", "volume is not connected")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, progressToResponse(key.VolumeID, rec))
}

func (s *Server) setProgress(w http.ResponseWriter, r *http.Request) {
	var req setProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	key, err := progress.ParseContentKey(req.ContentKey)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_KEY", err.Error())
		return
	}
	if req.DurationMS < 0 || req.PositionMS < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_PROGRESS", "position and duration must be non-negative")
		return
	}

	err = s.tracker.Set(key,
		time.Duration(req.PositionMS)*time.Millisecond,
		time.Duration(req.DurationMS)*time.Millisecond,
		req.Final)
	switch {
	case errors.Is(err, progress.ErrVolumeUnavailable):
		writeError(w, http.StatusNotFound, "VOLUME_UNAVAILABLE", "volume is not connected")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) continueWatching(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	entries, err := s.tracker.ContinueWatching(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := make([]progressResponse, len(entries))
	for i, e := range entries {
		resp[i] = progressToResponse(e.VolumeID, e.Record)
	}
	writeJSON(w, http.StatusOK, resp)
}

func progressToResponse(volumeID string, rec *catalog.ProgressRecord) progressResponse {
	return progressResponse{
		ContentKey:  rec.ContentKey,
		VolumeID:    volumeID,
		RelPath:     rec.RelPath,
		PositionMS:  rec.PositionMS,
		DurationMS:  rec.DurationMS,
		Percentage:  rec.Percentage,
		Completed:   rec.Completed,
		LastWatched: rec.LastWatched,
	}
}

// Playback

func (s *Server) startPlayback(w http.ResponseWriter, r *http.Request) {
	var req playbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Path == "" || !filepath.IsAbs(req.Path) {
		writeError(w, http.StatusBadRequest, "INVALID_PATH", "path must be absolute")
		return
	}

	volumeID, relPath, ok := s.coord.ResolvePath(req.Path)
	if !ok {
		writeError(w, http.StatusNotFound, "VOLUME_UNAVAILABLE", "path is not on a connected volume")
		return
	}
	info, err := os.Stat(req.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("stat %s: %v", req.Path, err))
		return
	}

	key := progress.NewContentKey(volumeID, relPath, info.Size(), info.ModTime())

	playReq := playback.Request{
		Key:           key,
		Path:          req.Path,
		Codec:         req.Codec,
		ForceExternal: req.ForceExternal,
	}
	if req.ResumeFromMS != nil {
		d := time.Duration(*req.ResumeFromMS) * time.Millisecond
		playReq.ResumeFrom = &d
	}

	session, err := s.selector.Play(context.WithoutCancel(r.Context()), playReq)
	if err != nil {
		writeError(w, http.StatusBadGateway, "PLAYBACK_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(key, session))
}

func (s *Server) getPlayback(w http.ResponseWriter, r *http.Request) {
	key, err := progress.ParseContentKey(r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_KEY", err.Error())
		return
	}
	session, ok := s.selector.Get(key)
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no active session for key")
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(key, session))
}

func (s *Server) stopPlayback(w http.ResponseWriter, r *http.Request) {
	key, err := progress.ParseContentKey(r.URL.Query().Get("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_KEY", err.Error())
		return
	}
	s.selector.End(key)
	w.WriteHeader(http.StatusNoContent)
}

func sessionToResponse(key progress.ContentKey, session *playback.Session) playbackResponse {
	resp := playbackResponse{
		ContentKey: key.String(),
		State:      string(session.State()),
		Backend:    string(session.Backend()),
	}
	if d := session.Degraded(); d != nil {
		resp.Degraded = d.Error()
	}
	return resp
}

// System

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:           "ok",
		Version:          s.version,
		VolumesConnected: len(s.coord.OpenVolumes()),
	})
}
