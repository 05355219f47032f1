package stats

import (
	"math"
	"testing"

	. "github.com/franela/goblin"
	"github.com/stretchr/testify/assert"
)

func snapshot(name string, cpu float64, pids uint32) Snapshot {
	return Snapshot{
		ID:            name + "-id",
		Container:     name + "-group",
		Name:          name,
		CPUPercent:    cpu,
		MemoryPercent: cpu / 10,
		MemoryUsage:   Measurement{cpu, UnitMiB},
		MemoryLimit:   Measurement{2, UnitGiB},
		BlockIO:       IOPair{Measurement{cpu, UnitMB}, Measurement{cpu * 2, UnitKB}},
		NetIO:         IOPair{Measurement{cpu * 3, UnitB}, Measurement{cpu * 4, UnitGB}},
		PIDs:          pids,
	}
}

func names(aggs []AggregatedStat) []string {
	out := make([]string, len(aggs))
	for i, a := range aggs {
		out[i] = a.Name
	}
	return out
}

func TestAggregate(t *testing.T) {
	g := Goblin(t)

	g.Describe("Aggregate", func() {
		g.It("returns an empty result for no snapshots", func() {
			g.Assert(len(Aggregate(Average, nil))).Equal(0)
			g.Assert(len(Aggregate(Maximum, []Snapshot{}))).Equal(0)
		})

		g.It("returns exactly one stat per distinct name", func() {
			in := []Snapshot{
				snapshot("web", 1, 1),
				snapshot("db", 2, 1),
				snapshot("web", 3, 1),
				snapshot("cache", 4, 1),
				snapshot("db", 5, 1),
				snapshot("web", 6, 1),
			}
			for _, mode := range []Mode{Average, Maximum} {
				out := Aggregate(mode, in)
				g.Assert(names(out)).Equal([]string{"cache", "db", "web"})
				g.Assert(out[0].Samples).Equal(1)
				g.Assert(out[1].Samples).Equal(2)
				g.Assert(out[2].Samples).Equal(3)
			}
		})

		g.Describe("Average", func() {
			g.It("uses the arithmetic mean of every float metric", func() {
				out := Aggregate(Average, []Snapshot{
					snapshot("web", 10, 1),
					snapshot("web", 20, 1),
					snapshot("web", 30, 1),
				})
				g.Assert(len(out)).Equal(1)

				st := out[0]
				g.Assert(st.CPUPercent).Equal(20.0)
				g.Assert(st.MemoryPercent).Equal(2.0)
				g.Assert(st.MemoryUsage.Value).Equal(20.0)
				g.Assert(st.BlockIO.Incoming.Value).Equal(20.0)
				g.Assert(st.BlockIO.Outgoing.Value).Equal(40.0)
				g.Assert(st.NetIO.Incoming.Value).Equal(60.0)
				g.Assert(st.NetIO.Outgoing.Value).Equal(80.0)
			})

			g.It("truncates the process count average", func() {
				out := Aggregate(Average, []Snapshot{
					snapshot("web", 1, 1),
					snapshot("web", 1, 2),
				})
				g.Assert(out[0].PIDs).Equal(uint32(1))
			})

			g.It("does not overflow when summing large process counts", func() {
				out := Aggregate(Average, []Snapshot{
					snapshot("web", 1, math.MaxUint32),
					snapshot("web", 1, math.MaxUint32),
				})
				g.Assert(out[0].PIDs).Equal(uint32(math.MaxUint32))
			})
		})

		g.Describe("Maximum", func() {
			g.It("picks the largest value of every metric", func() {
				out := Aggregate(Maximum, []Snapshot{
					snapshot("web", 10, 4),
					snapshot("web", 45.5, 2),
					snapshot("web", 22, 9),
				})
				st := out[0]
				g.Assert(st.CPUPercent).Equal(45.5)
				g.Assert(st.MemoryUsage.Value).Equal(45.5)
				g.Assert(st.NetIO.Outgoing.Value).Equal(182.0)
				g.Assert(st.PIDs).Equal(uint32(9))
			})

			g.It("orders NaN below every other value", func() {
				out := Aggregate(Maximum, []Snapshot{
					snapshot("web", math.NaN(), 1),
					snapshot("web", 3, 1),
					snapshot("web", math.NaN(), 1),
				})
				g.Assert(out[0].CPUPercent).Equal(3.0)

				out = Aggregate(Maximum, []Snapshot{snapshot("web", math.NaN(), 1)})
				g.Assert(math.IsNaN(out[0].CPUPercent)).IsTrue()
			})
		})

		g.It("carries identity, limits and units from the first snapshot of each group", func() {
			first := snapshot("web", 10, 1)
			second := snapshot("web", 20, 1)
			second.ID = "recreated"
			second.Container = "other"
			second.MemoryLimit = Measurement{4, UnitGiB}
			second.MemoryUsage.Unit = UnitGiB

			other := snapshot("db", 5, 1)

			out := Aggregate(Average, []Snapshot{other, first, second})
			g.Assert(names(out)).Equal([]string{"db", "web"})

			st := out[1]
			g.Assert(st.ID).Equal("web-id")
			g.Assert(st.Container).Equal("web-group")
			g.Assert(st.MemoryLimit).Equal(Measurement{2, UnitGiB})
			g.Assert(st.MemoryUsage.Unit).Equal(UnitMiB)
			g.Assert(st.BlockIO.Outgoing.Unit).Equal(UnitKB)

			g.Assert(out[0].ID).Equal("db-id")
		})
	})
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":        Average,
		"average": Average,
		"AVG":     Average,
		"maximum": Maximum,
		" max ":   Maximum,
	} {
		m, err := ParseMode(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, m, in)
	}

	_, err := ParseMode("median")
	assert.Error(t, err)

	var m Mode
	assert.NoError(t, m.UnmarshalText([]byte("max")))
	assert.Equal(t, Maximum, m)
	assert.Equal(t, "maximum", m.String())
}
