package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps HTTP calls to the drivebay daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new drivebay API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) send(method, path string, body any, result any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// API response types (mirror server types)

type StatusResponse struct {
	Status           string `json:"status"`
	Version          string `json:"version"`
	VolumesConnected int    `json:"volumes_connected"`
}

type VolumeResponse struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	MountRoot   string     `json:"mount_root"`
	Removable   bool       `json:"removable"`
	Connected   bool       `json:"connected"`
	Confidence  string     `json:"confidence"`
	ScanBlocked bool       `json:"scan_blocked"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

type MovieResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	RelPath  string `json:"rel_path"`
	FilePath string `json:"file_path"`
}

type EpisodeResponse struct {
	ID      string `json:"id"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Title   string `json:"title,omitempty"`
	RelPath string `json:"rel_path"`
}

type ShowResponse struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Year     int               `json:"year,omitempty"`
	RelPath  string            `json:"rel_path"`
	Episodes []EpisodeResponse `json:"episodes,omitempty"`
}

type VolumeCatalogResponse struct {
	VolumeID string          `json:"volume_id"`
	Movies   []MovieResponse `json:"movies"`
	Shows    []ShowResponse  `json:"shows"`
}

type CatalogResponse struct {
	Volumes []VolumeCatalogResponse `json:"volumes"`
}

type ProgressResponse struct {
	ContentKey  string    `json:"content_key"`
	VolumeID    string    `json:"volume_id,omitempty"`
	RelPath     string    `json:"rel_path"`
	PositionMS  int64     `json:"position_ms"`
	DurationMS  int64     `json:"duration_ms"`
	Percentage  float64   `json:"percentage"`
	Completed   bool      `json:"completed"`
	LastWatched time.Time `json:"last_watched"`
}

type PlaybackResponse struct {
	ContentKey string `json:"content_key"`
	State      string `json:"state"`
	Backend    string `json:"backend"`
	Degraded   string `json:"degraded,omitempty"`
}
