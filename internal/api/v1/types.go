package v1

import "time"

// volumeResponse is the API representation of a registered volume.
type volumeResponse struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	MountRoot   string     `json:"mount_root"`
	Removable   bool       `json:"removable"`
	Connected   bool       `json:"connected"`
	Confidence  string     `json:"confidence"`
	ScanBlocked bool       `json:"scan_blocked"`
	FirstSeen   time.Time  `json:"first_seen"`
	LastSeen    time.Time  `json:"last_seen"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

// reportVolumeRequest lets an external UI/IPC layer report a mount event the
// OS poller has not picked up yet.
type reportVolumeRequest struct {
	UUID      string `json:"uuid"`
	Label     string `json:"label"`
	MountRoot string `json:"mount_root"`
	Removable bool   `json:"removable"`
	Connected bool   `json:"connected"`
}

type movieResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	RelPath   string `json:"rel_path"`
	FilePath  string `json:"file_path"`
	SizeBytes int64  `json:"size_bytes"`
}

type episodeResponse struct {
	ID      string `json:"id"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Title   string `json:"title,omitempty"`
	RelPath string `json:"rel_path"`
}

type showResponse struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Year     int               `json:"year,omitempty"`
	RelPath  string            `json:"rel_path"`
	Episodes []episodeResponse `json:"episodes,omitempty"`
}

// volumeCatalogResponse is one volume's slice of the catalog listing.
type volumeCatalogResponse struct {
	VolumeID string          `json:"volume_id"`
	Movies   []movieResponse `json:"movies"`
	Shows    []showResponse  `json:"shows"`
}

type catalogResponse struct {
	Volumes []volumeCatalogResponse `json:"volumes"`
}

type progressResponse struct {
	ContentKey  string    `json:"content_key"`
	VolumeID    string    `json:"volume_id,omitempty"`
	RelPath     string    `json:"rel_path"`
	PositionMS  int64     `json:"position_ms"`
	DurationMS  int64     `json:"duration_ms"`
	Percentage  float64   `json:"percentage"`
	Completed   bool      `json:"completed"`
	LastWatched time.Time `json:"last_watched"`
}

type setProgressRequest struct {
	ContentKey string `json:"content_key"`
	PositionMS int64  `json:"position_ms"`
	DurationMS int64  `json:"duration_ms"`
	Final      bool   `json:"final"`
}

type playbackRequest struct {
	Path          string `json:"path"`
	Codec         string `json:"codec,omitempty"`
	ResumeFromMS  *int64 `json:"resume_from_ms,omitempty"`
	ForceExternal bool   `json:"force_external,omitempty"`
}

type playbackResponse struct {
	ContentKey string `json:"content_key"`
	State      string `json:"state"`
	Backend    string `json:"backend"`
	Degraded   string `json:"degraded,omitempty"`
}

type statusResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	VolumesConnected int    `json:"volumes_connected"`
}
