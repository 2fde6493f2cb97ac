// Package registry maintains the durable record of every volume the system
// has ever seen. It lives in the per-user data directory, independent of any
// volume's presence, and its rows are never deleted.
package registry

import (
	"database/sql"
	"time"
)

// IdentityConfidence records how the volume's stable id was obtained.
type IdentityConfidence string

const (
	// ConfidenceHigh means the id is an OS-reported volume UUID.
	ConfidenceHigh IdentityConfidence = "high"
	// ConfidenceLow means the id was derived from the mount path and label,
	// which can be reassigned by the OS across sessions.
	ConfidenceLow IdentityConfidence = "low"
)

// Volume is a known storage volume, attached or not.
type Volume struct {
	ID          string
	Label       string
	MountRoot   string
	Removable   bool
	Connected   bool
	Confidence  IdentityConfidence
	ScanBlocked bool
	FirstSeen   time.Time
	LastSeen    time.Time
	LastScanned *time.Time // nil if never scanned
}

func scanVolume(row interface{ Scan(...any) error }) (*Volume, error) {
	v := &Volume{}
	var lastScanned sql.NullTime
	err := row.Scan(&v.ID, &v.Label, &v.MountRoot, &v.Removable, &v.Connected,
		&v.Confidence, &v.ScanBlocked, &v.FirstSeen, &v.LastSeen, &lastScanned)
	if err != nil {
		return nil, err
	}
	if lastScanned.Valid {
		v.LastScanned = &lastScanned.Time
	}
	return v, nil
}
