package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-units"
	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/pterodactyl/telemetry/stats"
)

// The label set by compose on every container it creates. It is what the
// docker CLI reports as the container group.
const projectLabel = "com.docker.compose.project"

// Number of containers whose statistics are requested at the same time.
const concurrentRequests = 8

type engine interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerStats(ctx context.Context, containerID string, stream bool) (types.ContainerStats, error)
}

// API reads statistics directly from the Docker Engine API and renders them
// into the same text form the docker CLI prints, so that both sources feed
// identical records into the normalizer.
type API struct {
	client engine
}

// NewAPI connects to the Docker daemon, waiting up to timeout for it to start
// answering. An empty host uses DOCKER_HOST or the default socket.
func NewAPI(ctx context.Context, host string, timeout time.Duration) (*API, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "source: failed to create docker client")
	}
	a := &API{client: cli}
	if err := a.wait(ctx, timeout); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *API) wait(ctx context.Context, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	err := backoff.Retry(func() error {
		_, err := a.client.Ping(ctx)
		if err != nil {
			log.WithField("error", err).Debug("source: docker daemon is not responding yet")
		}
		return err
	}, backoff.WithContext(b, ctx))
	return errors.Wrap(err, "source: docker daemon did not respond")
}

func (a *API) Read(ctx context.Context) ([]stats.Record, error) {
	list, err := a.client.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "source: failed to list containers")
	}

	records := make([]*stats.Record, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrentRequests)
	for i, c := range list {
		g.Go(func() error {
			v, err := a.stats(gctx, c.ID)
			if err != nil {
				// The container stopped between being listed and being
				// queried, the CLI leaves these out as well.
				if client.IsErrNotFound(err) {
					return nil
				}
				return err
			}
			r := Render(c, v)
			records[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]stats.Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (a *API) stats(ctx context.Context, id string) (types.StatsJSON, error) {
	res, err := a.client.ContainerStats(ctx, id, false)
	if err != nil {
		return types.StatsJSON{}, err
	}
	defer res.Body.Close()

	var v types.StatsJSON
	if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
		return types.StatsJSON{}, errors.Wrapf(err, "source: failed to decode statistics for %s", id)
	}
	return v, nil
}

// Render formats the statistics of a container the way "docker stats" does.
func Render(c types.Container, v types.StatsJSON) stats.Record {
	id := shortID(c.ID)
	r := stats.Record{ID: id, Container: id, Name: name(c, v)}
	if p := c.Labels[projectLabel]; p != "" {
		r.Container = p
	}

	mem := float64(calculateMemory(v.MemoryStats))
	limit := float64(v.MemoryStats.Limit)
	memPerc := 0.0
	if limit != 0 {
		memPerc = mem / limit * 100
	}

	var rx, tx float64
	for _, nw := range v.Networks {
		rx += float64(nw.RxBytes)
		tx += float64(nw.TxBytes)
	}
	read, write := calculateBlockIO(v.BlkioStats)

	r.CPUPerc = fmt.Sprintf("%.2f%%", calculateAbsoluteCPU(v.PreCPUStats, v.CPUStats))
	r.MemPerc = fmt.Sprintf("%.2f%%", memPerc)
	r.MemUsage = units.BytesSize(mem) + " / " + units.BytesSize(limit)
	r.NetIO = units.HumanSizeWithPrecision(rx, 3) + " / " + units.HumanSizeWithPrecision(tx, 3)
	r.BlockIO = units.HumanSizeWithPrecision(float64(read), 3) + " / " + units.HumanSizeWithPrecision(float64(write), 3)
	r.PIDs = fmt.Sprintf("%d", v.PidsStats.Current)
	return r
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func name(c types.Container, v types.StatsJSON) string {
	if len(c.Names) > 0 {
		return strings.TrimPrefix(c.Names[0], "/")
	}
	return strings.TrimPrefix(v.Name, "/")
}

// The "docker stats" CLI call does not return the same value as the
// types.MemoryStats.Usage value, page cache is taken out first.
//
// @see https://github.com/docker/cli/blob/96e1d1d6/cli/command/container/stats_helpers.go#L227-L249
func calculateMemory(mem types.MemoryStats) uint64 {
	if v, ok := mem.Stats["total_inactive_file"]; ok && v < mem.Usage {
		return mem.Usage - v
	}
	if v := mem.Stats["inactive_file"]; v < mem.Usage {
		return mem.Usage - v
	}
	return mem.Usage
}

// Calculates the CPU usage of the container across every core of the host, so
// a container saturating two cores reports 200%.
//
// @see https://github.com/docker/cli/blob/aa097cf1aa19099da70930460250797c8920b709/cli/command/container/stats_helpers.go#L166
func calculateAbsoluteCPU(pStats types.CPUStats, cpu types.CPUStats) float64 {
	cpuDelta := float64(cpu.CPUUsage.TotalUsage) - float64(pStats.CPUUsage.TotalUsage)
	systemDelta := float64(cpu.SystemUsage) - float64(pStats.SystemUsage)

	cpus := float64(cpu.OnlineCPUs)
	if cpus == 0.0 {
		cpus = float64(len(cpu.CPUUsage.PercpuUsage))
	}

	if systemDelta > 0.0 && cpuDelta > 0.0 {
		return (cpuDelta / systemDelta) * cpus * 100.0
	}
	return 0
}

func calculateBlockIO(blkio types.BlkioStats) (read uint64, write uint64) {
	for _, e := range blkio.IoServiceBytesRecursive {
		switch strings.ToLower(e.Op) {
		case "read":
			read += e.Value
		case "write":
			write += e.Value
		}
	}
	return read, write
}
