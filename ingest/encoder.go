package ingest

import (
	"time"

	"github.com/pterodactyl/telemetry/disk"
	"github.com/pterodactyl/telemetry/stats"
)

// Family selects which set of suffixes is recognized when converting a
// measurement into a plain byte count.
type Family int

const (
	// Decimal is the family used by the I/O fields (B, KB, MB, GB).
	Decimal Family = iota
	// Binary is the family used by the memory fields (B, KiB, MiB, GiB).
	Binary
)

// Both families scale by powers of 1024, so "MB" is read as 1<<20 bytes even
// though the docker CLI renders the I/O fields with decimal units.
var multipliers = map[Family]map[stats.Unit]float64{
	Decimal: {
		stats.UnitBytes: 1,
		stats.UnitB:     1,
		stats.UnitKB:    1 << 10,
		stats.UnitMB:    1 << 20,
		stats.UnitGB:    1 << 30,
	},
	Binary: {
		stats.UnitBytes: 1,
		stats.UnitB:     1,
		stats.UnitKiB:   1 << 10,
		stats.UnitMiB:   1 << 20,
		stats.UnitGiB:   1 << 30,
	},
}

// Bytes converts a measurement into a byte count. A unit that is not part of
// the family contributes 0.
func Bytes(m stats.Measurement, f Family) float64 {
	mul, ok := multipliers[f][m.Unit]
	if !ok {
		return 0
	}
	return m.Value * mul
}

// Encoder turns aggregated container statistics and disk devices into rows
// for their respective tables.
type Encoder struct {
	// Host is written as the host symbol on every row.
	Host      string
	Table     string
	DiskTable string
}

// Containers returns one row per aggregated stat, all stamped with ts.
func (e Encoder) Containers(aggs []stats.AggregatedStat, ts time.Time) ([]Row, error) {
	rows := make([]Row, 0, len(aggs))
	for _, a := range aggs {
		row, err := newRow(e.Table, ts).
			symbol("host", e.Host).
			symbol("container", a.Container).
			symbol("name", a.Name).
			str("id", a.ID).
			float("cpu", a.CPUPercent).
			float("memory_percentage", a.MemoryPercent).
			int("pids", int64(a.PIDs)).
			float("block_io_in", Bytes(a.BlockIO.Incoming, Decimal)).
			float("block_io_out", Bytes(a.BlockIO.Outgoing, Decimal)).
			float("net_io_in", Bytes(a.NetIO.Incoming, Decimal)).
			float("net_io_out", Bytes(a.NetIO.Outgoing, Decimal)).
			float("memory_use", Bytes(a.MemoryUsage, Binary)).
			float("total_memory", Bytes(a.MemoryLimit, Binary)).
			build()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Disks returns one row per device, all stamped with ts.
func (e Encoder) Disks(devices []disk.Device, ts time.Time) ([]Row, error) {
	rows := make([]Row, 0, len(devices))
	for _, d := range devices {
		row, err := newRow(e.DiskTable, ts).
			symbol("host", e.Host).
			symbol("name", d.Name).
			symbol("file_system", d.FileSystem).
			symbol("mount_point", d.MountPoint).
			symbol("type", d.Kind).
			int("available_space", int64(d.Available)).
			float("percentage_use", d.PercentageAvailable()).
			int("read_bytes", int64(d.ReadBytes)).
			int("write_bytes", int64(d.WriteBytes)).
			build()
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
