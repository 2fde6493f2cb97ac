package drivemon

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// OSEnumerator reads attached volumes from /proc/self/mountinfo and resolves
// filesystem UUIDs through /dev/disk/by-uuid. Best effort: volumes without a
// by-uuid entry are reported with an empty UUID.
type OSEnumerator struct {
	// Roots restricts enumeration to mounts under these prefixes
	// (e.g. /media, /mnt, /run/media). Empty means the usual removable
	// mount locations.
	Roots []string
}

var defaultMountRoots = []string{"/media/", "/mnt/", "/run/media/"}

// Enumerate implements Enumerator.
func (e *OSEnumerator) Enumerate(ctx context.Context) ([]EnumeratedVolume, error) {
	roots := e.Roots
	if len(roots) == 0 {
		roots = defaultMountRoots
	}

	uuids := deviceUUIDs()

	f, err := os.Open("/proc/self/mountinfo")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var vols []EnumeratedVolume
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// mountinfo: ... <mount point> ... - <fstype> <source> <options>
		fields := strings.Fields(sc.Text())
		if len(fields) < 10 {
			continue
		}
		mountPoint := unescapeMount(fields[4])
		sep := indexOf(fields, "-")
		if sep < 0 || sep+2 >= len(fields) {
			continue
		}
		source := fields[sep+2]
		if !strings.HasPrefix(source, "/dev/") {
			continue
		}
		if !underAny(mountPoint, roots) {
			continue
		}
		vols = append(vols, EnumeratedVolume{
			UUID:      uuids[source],
			Label:     filepath.Base(mountPoint),
			MountRoot: mountPoint,
			Removable: isRemovable(source),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return vols, nil
}

// deviceUUIDs maps /dev paths to filesystem UUIDs via /dev/disk/by-uuid.
func deviceUUIDs() map[string]string {
	out := make(map[string]string)
	entries, err := os.ReadDir("/dev/disk/by-uuid")
	if err != nil {
		return out
	}
	for _, e := range entries {
		link := filepath.Join("/dev/disk/by-uuid", e.Name())
		target, err := filepath.EvalSymlinks(link)
		if err != nil {
			continue
		}
		out[target] = e.Name()
	}
	return out
}

// isRemovable checks /sys/block/<disk>/removable for the device's disk.
func isRemovable(dev string) bool {
	name := strings.TrimPrefix(dev, "/dev/")
	// Strip the partition suffix (sda1 -> sda, mmcblk0p1 -> mmcblk0).
	disk := strings.TrimRight(name, "0123456789")
	disk = strings.TrimSuffix(disk, "p")
	data, err := os.ReadFile(filepath.Join("/sys/block", disk, "removable"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

func underAny(path string, roots []string) bool {
	for _, r := range roots {
		if strings.HasPrefix(path, r) {
			return true
		}
	}
	return false
}

func indexOf(fields []string, s string) int {
	for i, f := range fields {
		if f == s {
			return i
		}
	}
	return -1
}

// unescapeMount decodes the octal escapes mountinfo uses for spaces.
func unescapeMount(s string) string {
	return strings.NewReplacer(`\040`, " ", `\011`, "\t").Replace(s)
}
