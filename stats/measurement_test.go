package stats

import (
	"strconv"
	"testing"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func format(v float64, u Unit) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + string(u)
}

func TestParseBytes_RoundTrip(t *testing.T) {
	values := []float64{1, 12.3, 0.5, 999.99, 1024}
	for _, u := range []Unit{UnitB, UnitKB, UnitMB, UnitGB} {
		for _, v := range values {
			m, err := ParseBytes("BlockIO", format(v, u))
			require.NoError(t, err)
			assert.Equal(t, Measurement{Value: v, Unit: u}, m, format(v, u))
		}
	}
}

func TestParseMemory_RoundTrip(t *testing.T) {
	// Anything shorter than three characters is treated as zero bytes, so
	// single digit byte values are left out here.
	values := []float64{64, 12.3, 0.5, 999.99, 1024}
	for _, u := range []Unit{UnitB, UnitKiB, UnitMiB, UnitGiB} {
		for _, v := range values {
			m, err := ParseMemory("MemUsage", format(v, u))
			require.NoError(t, err)
			assert.Equal(t, Measurement{Value: v, Unit: u}, m, format(v, u))
		}
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		in   string
		want Measurement
	}{
		{"12.3MB", Measurement{12.3, UnitMB}},
		{"12.3mB", Measurement{12.3, UnitMB}},
		{"1.21kB", Measurement{1.21, UnitKB}},
		{"4gB", Measurement{4, UnitGB}},
		{"0B", Measurement{0, UnitB}},
		{" 7B ", Measurement{7, UnitB}},
		{"12", Measurement{}},
		{"", Measurement{}},
	}
	for _, tc := range tests {
		m, err := ParseBytes("NetIO", tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, m, tc.in)
	}

	_, err := ParseBytes("NetIO", "abcMB")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "NetIO", fe.Field)
	assert.Equal(t, "abcMB", fe.Value)
}

func TestParsePercent(t *testing.T) {
	v, err := ParsePercent("CPUPerc", "45.2%")
	require.NoError(t, err)
	assert.Equal(t, 45.2, v)

	v, err = ParsePercent("CPUPerc", "0.00%")
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)

	v, err = ParsePercent("CPUPerc", "12")
	require.NoError(t, err)
	assert.Equal(t, 12.0, v)

	_, err = ParsePercent("CPUPerc", "--")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Contains(t, err.Error(), "CPUPerc")
	assert.Contains(t, err.Error(), `"--"`)
}

func TestParseIO(t *testing.T) {
	p, err := ParseIO("BlockIO", "1.5MB / 12kB")
	require.NoError(t, err)
	assert.Equal(t, IOPair{Incoming: Measurement{1.5, UnitMB}, Outgoing: Measurement{12, UnitKB}}, p)

	for _, in := range []string{"garbage", "1MB/2MB", "1MB / 2MB / 3MB", ""} {
		p, err := ParseIO("BlockIO", in)
		require.NoError(t, err, in)
		assert.Equal(t, IOPair{}, p, in)
	}

	_, err = ParseIO("BlockIO", "1.5MB / xMB")
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseMemory(t *testing.T) {
	tests := []struct {
		in   string
		want Measurement
	}{
		{"0B", Measurement{0, UnitBytes}},
		{"12", Measurement{0, UnitBytes}},
		{"", Measurement{0, UnitBytes}},
		{"512B", Measurement{512, UnitB}},
		{"7.629MiB", Measurement{7.629, UnitMiB}},
		{"1.944GiB", Measurement{1.944, UnitGiB}},
		{"100KiB", Measurement{100, UnitKiB}},
	}
	for _, tc := range tests {
		m, err := ParseMemory("MemUsage", tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, m, tc.in)
	}

	_, err := ParseMemory("MemUsage", "1234")
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = ParseMemory("MemUsage", "x.yMiB")
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseMemoryUsage(t *testing.T) {
	used, limit, err := ParseMemoryUsage("MemUsage", "128MiB / 1GiB")
	require.NoError(t, err)
	assert.Equal(t, Measurement{128, UnitMiB}, used)
	assert.Equal(t, Measurement{1, UnitGiB}, limit)

	used, limit, err = ParseMemoryUsage("MemUsage", "128MiB/1GiB")
	require.NoError(t, err)
	assert.Equal(t, Measurement{128, UnitMiB}, used)
	assert.Equal(t, Measurement{1, UnitGiB}, limit)

	used, limit, err = ParseMemoryUsage("MemUsage", "0B / 0B")
	require.NoError(t, err)
	assert.Equal(t, Measurement{0, UnitBytes}, used)
	assert.Equal(t, Measurement{0, UnitBytes}, limit)

	used, limit, err = ParseMemoryUsage("MemUsage", "128MiB")
	require.NoError(t, err)
	assert.True(t, used.IsZero())
	assert.True(t, limit.IsZero())
}
