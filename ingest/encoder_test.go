package ingest

import (
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pterodactyl/telemetry/disk"
	"github.com/pterodactyl/telemetry/stats"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		m    stats.Measurement
		f    Family
		want float64
	}{
		{stats.Measurement{Value: 2, Unit: stats.UnitMB}, Decimal, 2097152},
		{stats.Measurement{Value: 1, Unit: stats.UnitGiB}, Binary, 1073741824},
		{stats.Measurement{Value: 1.5, Unit: stats.UnitKB}, Decimal, 1536},
		{stats.Measurement{Value: 3, Unit: stats.UnitGB}, Decimal, 3 * 1073741824},
		{stats.Measurement{Value: 640, Unit: stats.UnitB}, Decimal, 640},
		{stats.Measurement{Value: 640, Unit: stats.UnitB}, Binary, 640},
		{stats.Measurement{Value: 0, Unit: stats.UnitBytes}, Binary, 0},
		{stats.Measurement{Value: 12, Unit: stats.UnitBytes}, Decimal, 12},
		{stats.Measurement{Value: 8, Unit: stats.UnitKiB}, Binary, 8192},
		{stats.Measurement{Value: 8, Unit: stats.UnitMiB}, Binary, 8388608},
		// Units from the wrong family, or ones nobody recognizes, count as 0.
		{stats.Measurement{Value: 8, Unit: stats.UnitMiB}, Decimal, 0},
		{stats.Measurement{Value: 8, Unit: stats.UnitMB}, Binary, 0},
		{stats.Measurement{Value: 8, Unit: "TiB"}, Binary, 0},
		{stats.Measurement{Value: 8}, Decimal, 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Bytes(tc.m, tc.f), tc.m.String())
	}
}

func aggregated() stats.AggregatedStat {
	return stats.AggregatedStat{
		Snapshot: stats.Snapshot{
			ID:            "3f4a1b2c9d8e",
			Container:     "panel",
			Name:          "web",
			CPUPercent:    15,
			MemoryPercent: 3.2,
			MemoryUsage:   stats.Measurement{Value: 128, Unit: stats.UnitMiB},
			MemoryLimit:   stats.Measurement{Value: 1, Unit: stats.UnitGiB},
			BlockIO: stats.IOPair{
				Incoming: stats.Measurement{Value: 2, Unit: stats.UnitMB},
				Outgoing: stats.Measurement{Value: 4, Unit: stats.UnitKB},
			},
			NetIO: stats.IOPair{
				Incoming: stats.Measurement{Value: 1, Unit: stats.UnitGB},
				Outgoing: stats.Measurement{Value: 640, Unit: stats.UnitB},
			},
			PIDs: 17,
		},
		Samples: 2,
	}
}

func TestEncoder_Containers(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)
	e := Encoder{Host: "node-1", Table: "containerStats", DiskTable: "diskStats"}

	rows, err := e.Containers([]stats.AggregatedStat{aggregated()}, ts)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "containerStats", r.Table)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, []Symbol{{"host", "node-1"}, {"container", "panel"}, {"name", "web"}}, r.Symbols)

	expected := map[string]Column{
		"id":                {Name: "id", Kind: StringColumn, String: "3f4a1b2c9d8e"},
		"cpu":               {Name: "cpu", Kind: FloatColumn, Float: 15},
		"memory_percentage": {Name: "memory_percentage", Kind: FloatColumn, Float: 3.2},
		"pids":              {Name: "pids", Kind: IntColumn, Int: 17},
		"block_io_in":       {Name: "block_io_in", Kind: FloatColumn, Float: 2097152},
		"block_io_out":      {Name: "block_io_out", Kind: FloatColumn, Float: 4096},
		"net_io_in":         {Name: "net_io_in", Kind: FloatColumn, Float: 1073741824},
		"net_io_out":        {Name: "net_io_out", Kind: FloatColumn, Float: 640},
		"memory_use":        {Name: "memory_use", Kind: FloatColumn, Float: 134217728},
		"total_memory":      {Name: "total_memory", Kind: FloatColumn, Float: 1073741824},
	}
	require.Len(t, r.Columns, len(expected))
	for name, want := range expected {
		c, ok := r.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, want, c, name)
	}

	v, ok := r.Symbol("name")
	assert.True(t, ok)
	assert.Equal(t, "web", v)
	_, ok = r.Symbol("missing")
	assert.False(t, ok)
}

func TestEncoder_ContainersUnknownUnit(t *testing.T) {
	a := aggregated()
	a.MemoryUsage.Unit = "TiB"

	rows, err := Encoder{Host: "node-1", Table: "containerStats"}.Containers([]stats.AggregatedStat{a}, time.Now())
	require.NoError(t, err)
	c, ok := rows[0].Column("memory_use")
	require.True(t, ok)
	assert.Equal(t, 0.0, c.Float)
}

func TestEncoder_InvalidTable(t *testing.T) {
	e := Encoder{Host: "node-1", Table: "bad/table", DiskTable: ".disks"}

	_, err := e.Containers([]stats.AggregatedStat{aggregated()}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	_, err = e.Disks([]disk.Device{{Name: "/dev/sda"}}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	// Nothing to encode means nothing to validate.
	rows, err := e.Containers(nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestEncoder_Disks(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 5, 0, 0, time.UTC)
	e := Encoder{Host: "node-1", Table: "containerStats", DiskTable: "diskStats"}

	rows, err := e.Disks([]disk.Device{{
		Name:       "/dev/sda1",
		FileSystem: "ext4",
		MountPoint: "/",
		Kind:       disk.KindSSD,
		Total:      400,
		Available:  100,
		ReadBytes:  4096,
		WriteBytes: 8192,
	}}, ts)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "diskStats", r.Table)
	assert.Equal(t, ts, r.Timestamp)
	assert.Equal(t, []Symbol{
		{"host", "node-1"},
		{"name", "/dev/sda1"},
		{"file_system", "ext4"},
		{"mount_point", "/"},
		{"type", "SSD"},
	}, r.Symbols)
	assert.Equal(t, []Column{
		{Name: "available_space", Kind: IntColumn, Int: 100},
		{Name: "percentage_use", Kind: FloatColumn, Float: 25},
		{Name: "read_bytes", Kind: IntColumn, Int: 4096},
		{Name: "write_bytes", Kind: IntColumn, Int: 8192},
	}, r.Columns)
}
