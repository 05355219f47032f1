package disk

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/patrickmn/go-cache"
	"github.com/shirou/gopsutil/v3/disk"
)

const partitionsKey = "partitions"

// Host is a Source backed by the partition table, filesystem usage and kernel
// I/O counters of the local machine.
//
// The partition list is cached for a short period since it rarely changes and
// may be looked up several times per publish, once for each configured
// device. Device kinds never change while a device is attached and are cached
// for much longer.
type Host struct {
	// SysfsRoot is where the block device attributes are read from, defaults
	// to "/sys".
	SysfsRoot string

	partitions func(ctx context.Context, all bool) ([]disk.PartitionStat, error)
	usage      func(ctx context.Context, path string) (*disk.UsageStat, error)
	counters   func(ctx context.Context, names ...string) (map[string]disk.IOCountersStat, error)

	cache *cache.Cache
}

// NewHost returns a Source reading from the local machine.
func NewHost() *Host {
	return &Host{
		SysfsRoot:  "/sys",
		partitions: disk.PartitionsWithContext,
		usage:      disk.UsageWithContext,
		counters:   disk.IOCountersWithContext,
		cache:      cache.New(time.Minute, time.Minute*5),
	}
}

// Lookup returns every mount of the named device along with its current usage
// and I/O counters.
func (h *Host) Lookup(ctx context.Context, name string) ([]Device, error) {
	parts, err := h.listPartitions(ctx)
	if err != nil {
		return nil, err
	}

	var out []Device
	for _, p := range parts {
		if p.Device != name {
			continue
		}
		d := Device{
			Name:       p.Device,
			FileSystem: p.Fstype,
			MountPoint: p.Mountpoint,
			Kind:       h.Kind(p.Device),
		}
		u, err := h.usage(ctx, p.Mountpoint)
		if err != nil {
			return nil, errors.WrapIff(err, "disk: failed to read usage of %s", p.Mountpoint)
		}
		d.Total = u.Total
		d.Available = u.Free

		base := filepath.Base(p.Device)
		io, err := h.counters(ctx, base)
		if err != nil {
			return nil, errors.WrapIff(err, "disk: failed to read I/O counters of %s", base)
		}
		if c, ok := io[base]; ok {
			d.ReadBytes = c.ReadBytes
			d.WriteBytes = c.WriteBytes
		}
		out = append(out, d)
	}
	return out, nil
}

func (h *Host) listPartitions(ctx context.Context) ([]disk.PartitionStat, error) {
	if v, ok := h.cache.Get(partitionsKey); ok {
		return v.([]disk.PartitionStat), nil
	}
	parts, err := h.partitions(ctx, false)
	if err != nil {
		return nil, errors.Wrap(err, "disk: failed to list partitions")
	}
	h.cache.SetDefault(partitionsKey, parts)
	return parts, nil
}

// Kind reports whether the named device is a spinning disk or not. Partitions
// are classified by the device they belong to. Anything that cannot be
// determined is reported as KindUnknown.
func (h *Host) Kind(device string) string {
	key := "kind:" + device
	if v, ok := h.cache.Get(key); ok {
		return v.(string)
	}
	k := h.readKind(filepath.Base(device))
	h.cache.Set(key, k, cache.NoExpiration)
	return k
}

func (h *Host) readKind(base string) string {
	dir := filepath.Join(h.SysfsRoot, "class", "block", base)
	b, err := os.ReadFile(filepath.Join(dir, "queue", "rotational"))
	if err != nil {
		// A partition has no queue of its own, the entry links into the
		// directory of its parent device.
		resolved, rerr := filepath.EvalSymlinks(dir)
		if rerr != nil {
			return KindUnknown
		}
		if b, err = os.ReadFile(filepath.Join(filepath.Dir(resolved), "queue", "rotational")); err != nil {
			return KindUnknown
		}
	}
	switch strings.TrimSpace(string(b)) {
	case "1":
		return KindHDD
	case "0":
		return KindSSD
	default:
		return KindUnknown
	}
}
