package stats

import (
	"cmp"
	"slices"
	"strings"

	"emperror.dev/errors"
)

// Mode is the policy used to collapse the samples of one container within a
// publish interval into a single value.
type Mode int

const (
	// Average uses the arithmetic mean of the samples.
	Average Mode = iota
	// Maximum uses the largest sample.
	Maximum
)

func (m Mode) String() string {
	switch m {
	case Average:
		return "average"
	case Maximum:
		return "maximum"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration value into a Mode. Both the long and the
// short forms are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average", "avg":
		return Average, nil
	case "maximum", "max":
		return Maximum, nil
	}
	return Average, errors.Errorf("stats: unknown aggregation mode %q", s)
}

// UnmarshalText allows a Mode to be used directly in configuration structs.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// AggregatedStat is the reduction of every Snapshot sharing a name within one
// publish interval. The identifying fields, the memory limit and all of the
// unit tags are taken from the first snapshot seen for that name.
type AggregatedStat struct {
	Snapshot
	// Samples is the number of snapshots that were reduced into this value.
	Samples int `json:"samples"`
}

// accumulator holds every sample for a single container name.
type accumulator struct {
	first Snapshot

	cpu      []float64
	memPerc  []float64
	mem      []float64
	blockIn  []float64
	blockOut []float64
	netIn    []float64
	netOut   []float64
	pids     []uint32
}

func (a *accumulator) add(s Snapshot) {
	a.cpu = append(a.cpu, s.CPUPercent)
	a.memPerc = append(a.memPerc, s.MemoryPercent)
	a.mem = append(a.mem, s.MemoryUsage.Value)
	a.blockIn = append(a.blockIn, s.BlockIO.Incoming.Value)
	a.blockOut = append(a.blockOut, s.BlockIO.Outgoing.Value)
	a.netIn = append(a.netIn, s.NetIO.Incoming.Value)
	a.netOut = append(a.netOut, s.NetIO.Outgoing.Value)
	a.pids = append(a.pids, s.PIDs)
}

func (a *accumulator) reduce(mode Mode) AggregatedStat {
	st := AggregatedStat{Snapshot: a.first, Samples: len(a.cpu)}
	st.CPUPercent = reduceFloat(mode, a.cpu)
	st.MemoryPercent = reduceFloat(mode, a.memPerc)
	st.MemoryUsage.Value = reduceFloat(mode, a.mem)
	st.BlockIO.Incoming.Value = reduceFloat(mode, a.blockIn)
	st.BlockIO.Outgoing.Value = reduceFloat(mode, a.blockOut)
	st.NetIO.Incoming.Value = reduceFloat(mode, a.netIn)
	st.NetIO.Outgoing.Value = reduceFloat(mode, a.netOut)
	st.PIDs = reducePids(mode, a.pids)
	return st
}

// Aggregate groups the snapshots by container name and reduces each metric
// using the given mode. Exactly one AggregatedStat is returned per distinct
// name, ordered by name. An empty input returns an empty result.
func Aggregate(mode Mode, snapshots []Snapshot) []AggregatedStat {
	groups := make(map[string]*accumulator)
	for _, s := range snapshots {
		a, ok := groups[s.Name]
		if !ok {
			a = &accumulator{first: s}
			groups[s.Name] = a
		}
		a.add(s)
	}

	out := make([]AggregatedStat, 0, len(groups))
	for _, a := range groups {
		out = append(out, a.reduce(mode))
	}
	slices.SortFunc(out, func(a, b AggregatedStat) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// reduceFloat never receives an empty slice since a group only exists once a
// snapshot has been added to it.
//
// For Maximum the values are sorted using cmp.Compare which orders NaN before
// every other value, so a NaN sample only wins when every sample is NaN.
func reduceFloat(mode Mode, values []float64) float64 {
	if mode == Maximum {
		slices.SortFunc(values, cmp.Compare[float64])
		return values[len(values)-1]
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// reducePids averages using integer division, so the result is truncated.
func reducePids(mode Mode, values []uint32) uint32 {
	if mode == Maximum {
		return slices.Max(values)
	}
	var sum uint64
	for _, v := range values {
		sum += uint64(v)
	}
	return uint32(sum / uint64(len(values)))
}
