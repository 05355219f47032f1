// Package disk reports usage and I/O counters for the block devices of the
// host the collector is running on.
package disk

import "context"

// The values returned by Kind when classifying a device.
const (
	KindHDD     = "HDD"
	KindSSD     = "SSD"
	KindUnknown = "Unknown(-1)"
)

// Device is a single mounted block device. A device mounted in more than one
// place is reported once per mount point.
type Device struct {
	// Name is the device as it appears in the mount table, e.g. "/dev/sda1".
	Name       string `json:"name"`
	FileSystem string `json:"file_system"`
	MountPoint string `json:"mount_point"`
	Kind       string `json:"kind"`
	Total      uint64 `json:"total"`
	Available  uint64 `json:"available"`
	ReadBytes  uint64 `json:"read_bytes"`
	WriteBytes uint64 `json:"write_bytes"`
}

// PercentageAvailable returns the share of the device that is still free, or
// 0 if the total size is not known.
func (d Device) PercentageAvailable() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Available) / float64(d.Total) * 100
}

// Source looks up devices by name. A name that matches nothing returns an
// empty slice and no error.
type Source interface {
	Lookup(ctx context.Context, name string) ([]Device, error)
}
