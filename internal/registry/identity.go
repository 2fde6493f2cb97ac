package registry

import (
	"github.com/google/uuid"
)

// identityNamespace scopes fallback ids derived from mount path and label.
var identityNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8") // uuid.NameSpaceURL

// ResolveIdentity returns the stable id for an enumerated volume. An
// OS-reported volume UUID is preferred; without one the id is derived from
// the mount root and label, with reduced confidence, since the OS can
// reassign mount paths across sessions.
func ResolveIdentity(osUUID, mountRoot, label string) (string, IdentityConfidence) {
	if osUUID != "" {
		return osUUID, ConfidenceHigh
	}
	derived := uuid.NewSHA1(identityNamespace, []byte(mountRoot+"\x00"+label))
	return derived.String(), ConfidenceLow
}
