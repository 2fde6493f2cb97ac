package events

// Event type names used for bus subscriptions.
const (
	TypeVolumeConnected    = "volume.connected"
	TypeVolumeDisconnected = "volume.disconnected"
	TypeRescanNeeded       = "volume.rescan_needed"
	TypeScanCompleted      = "volume.scan_completed"
	TypePlaybackFallback   = "playback.fallback"
)

// VolumeConnected is emitted when the drive monitor sees a new volume.
type VolumeConnected struct {
	BaseEvent
	VolumeID  string `json:"volume_id"`
	Label     string `json:"label"`
	MountRoot string `json:"mount_root"`
	Removable bool   `json:"removable"`
}

// NewVolumeConnected builds a VolumeConnected event.
func NewVolumeConnected(volumeID, label, mountRoot string, removable bool) VolumeConnected {
	return VolumeConnected{
		BaseEvent: NewBaseEvent(TypeVolumeConnected, "volume", volumeID),
		VolumeID:  volumeID,
		Label:     label,
		MountRoot: mountRoot,
		Removable: removable,
	}
}

// VolumeDisconnected is emitted when a previously-connected volume goes away.
type VolumeDisconnected struct {
	BaseEvent
	VolumeID string `json:"volume_id"`
}

// NewVolumeDisconnected builds a VolumeDisconnected event.
func NewVolumeDisconnected(volumeID string) VolumeDisconnected {
	return VolumeDisconnected{
		BaseEvent: NewBaseEvent(TypeVolumeDisconnected, "volume", volumeID),
		VolumeID:  volumeID,
	}
}

// RescanNeeded is emitted after the watcher's debounce window closes, or by
// the fallback poller for volumes whose watch registration failed.
type RescanNeeded struct {
	BaseEvent
	VolumeID string `json:"volume_id"`
	Reason   string `json:"reason"` // "fs_change" or "poll"
}

// NewRescanNeeded builds a RescanNeeded event.
func NewRescanNeeded(volumeID, reason string) RescanNeeded {
	return RescanNeeded{
		BaseEvent: NewBaseEvent(TypeRescanNeeded, "volume", volumeID),
		VolumeID:  volumeID,
		Reason:    reason,
	}
}

// ScanCompleted is emitted after a volume scan finishes, successfully or not.
type ScanCompleted struct {
	BaseEvent
	VolumeID string `json:"volume_id"`
	Movies   int    `json:"movies"`
	Shows    int    `json:"shows"`
	Episodes int    `json:"episodes"`
	Error    string `json:"error,omitempty"`
}

// NewScanCompleted builds a ScanCompleted event.
func NewScanCompleted(volumeID string, movies, shows, episodes int, errMsg string) ScanCompleted {
	return ScanCompleted{
		BaseEvent: NewBaseEvent(TypeScanCompleted, "volume", volumeID),
		VolumeID:  volumeID,
		Movies:    movies,
		Shows:     shows,
		Episodes:  episodes,
		Error:     errMsg,
	}
}

// PlaybackFallback is emitted when a session falls back to the external path.
type PlaybackFallback struct {
	BaseEvent
	ContentKey string `json:"content_key"`
	Reason     string `json:"reason"`
}

// NewPlaybackFallback builds a PlaybackFallback event.
func NewPlaybackFallback(contentKey, reason string) PlaybackFallback {
	return PlaybackFallback{
		BaseEvent:  NewBaseEvent(TypePlaybackFallback, "session", contentKey),
		ContentKey: contentKey,
		Reason:     reason,
	}
}
