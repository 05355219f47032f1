// Package collector polls the container runtime in a loop, groups the
// snapshots into fixed windows and hands every completed window to a single
// background worker that aggregates and publishes it.
package collector

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/gammazero/workerpool"

	"github.com/pterodactyl/telemetry/internal/notify"
	"github.com/pterodactyl/telemetry/metrics"
	"github.com/pterodactyl/telemetry/source"
	"github.com/pterodactyl/telemetry/stats"
	"github.com/pterodactyl/telemetry/system"
)

// Liveness receives a notification on startup, after every poll and once
// shutdown begins.
type Liveness interface {
	Notify(state notify.State, status string) error
}

// Publisher writes one aggregated window to the database.
type Publisher interface {
	Publish(ctx context.Context, aggs []stats.AggregatedStat, ts time.Time) error
}

type Options struct {
	// Node is the host label, it is only used for logging here.
	Node     string
	Mode     stats.Mode
	Interval time.Duration
	// PollDelay is the time to wait between polls, zero polls back to back.
	PollDelay time.Duration
}

type Collector struct {
	opts      Options
	source    source.Source
	publisher Publisher
	liveness  Liveness

	// At most one publish is ever running, further windows wait in the queue
	// of the pool.
	pool     *workerpool.WorkerPool
	window   *window
	boundary time.Time
	warnings *system.Rate
	// retry spaces out polls while the source keeps failing.
	retry backoff.BackOff

	now func() time.Time
}

func New(opts Options, src source.Source, pub Publisher, live Liveness) *Collector {
	return &Collector{
		opts:      opts,
		source:    src,
		publisher: pub,
		liveness:  live,
		warnings:  system.NewRate(10, time.Minute),
		retry:     newRetry(),
		now:       time.Now,
	}
}

func (c *Collector) log() *log.Entry {
	return log.WithFields(log.Fields{"component": "collector", "node": c.opts.Node})
}

// Run polls until the context is canceled. Before returning, whatever has
// been gathered for the current window is published and every pending publish
// is waited on. A publish that hangs therefore blocks Run from returning.
func (c *Collector) Run(ctx context.Context) error {
	if c.opts.Interval <= 0 {
		return errors.New("collector: interval must be greater than zero")
	}

	c.pool = workerpool.New(1)
	c.advance(c.now())
	c.notify(notify.Ready, "Collecting statistics for "+c.opts.Node)

	// Publishes must be able to finish once the loop has been told to stop.
	pctx := context.WithoutCancel(ctx)
	for ctx.Err() == nil {
		ok := c.poll(ctx)

		if now := c.now(); now.After(c.boundary) {
			c.handoff(pctx)
			c.advance(now)
		}

		delay := c.opts.PollDelay
		if ok {
			c.retry.Reset()
		} else if d := c.retry.NextBackOff(); d != backoff.Stop {
			delay = d
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}
	}

	c.log().Info("stopping collector and publishing remaining statistics")
	c.notify(notify.Stopping, "")
	c.handoff(pctx)
	c.pool.StopWait()
	return nil
}

// advance moves the boundary to the next multiple of the interval after now.
func (c *Collector) advance(now time.Time) {
	c.boundary = nextBoundary(now, c.opts.Interval)
	c.window = newWindow(c.boundary, c.opts.Interval)
	metrics.WindowSnapshots.Set(0)
	c.log().Infof("Publishing stats at %s for %s", c.boundary.Format(time.RFC3339), c.opts.Node)
}

// poll reads one batch of records into the current window and reports
// whether the source could be read.
func (c *Collector) poll(ctx context.Context) bool {
	metrics.PollsTotal.Inc()
	records, err := c.source.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		metrics.PollErrorsTotal.Inc()
		c.log().WithField("error", err).Error("failed to read container statistics")
		return false
	}

	for _, r := range records {
		s, soft, err := stats.Normalize(r)
		if err != nil {
			metrics.RecordsDroppedTotal.WithLabelValues("malformed").Inc()
			entry := c.log().WithField("container", r.Name).WithField("error", err)
			var fe *stats.FieldError
			if errors.As(err, &fe) {
				entry = entry.WithFields(log.Fields{"field": fe.Field, "value": fe.Value})
			}
			entry.Error("dropping malformed statistics record")
			continue
		}
		for _, fe := range soft {
			metrics.SoftFailuresTotal.WithLabelValues(fe.Field).Inc()
			if ok, skipped := c.warnings.Allow(); ok {
				c.log().WithFields(log.Fields{
					"container":  r.Name,
					"field":      fe.Field,
					"value":      fe.Value,
					"suppressed": skipped,
				}).Warn("could not parse statistics field, value will be reported as zero")
			}
		}
		c.window.add(s)
	}

	metrics.WindowSnapshots.Set(float64(c.window.len()))
	c.log().WithField("records", len(records)).Debug("gathered container statistics")
	c.notify(notify.Watchdog, "Gathered statistics for "+c.opts.Node)
	return true
}

// newRetry returns the wait used between polls of a failing source. It never
// gives up, the wait is capped at thirty seconds.
func newRetry() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// handoff passes the current window to the publish worker and replaces it
// with an empty one. Empty windows are never published.
func (c *Collector) handoff(ctx context.Context) {
	w := c.window
	c.window = &window{boundary: c.boundary}
	metrics.WindowSnapshots.Set(0)

	if w.len() == 0 {
		c.log().WithField("boundary", w.boundary).Debug("no statistics gathered for window, skipping publish")
		return
	}
	c.pool.Submit(func() {
		c.publish(ctx, w)
	})
}

func (c *Collector) publish(ctx context.Context, w *window) {
	start := time.Now()
	aggs := stats.Aggregate(c.opts.Mode, w.snapshots)
	err := c.publisher.Publish(ctx, aggs, w.boundary)
	metrics.PublishDuration.Observe(time.Since(start).Seconds())

	entry := c.log().WithFields(log.Fields{"containers": len(aggs), "snapshots": w.len(), "boundary": w.boundary})
	if err != nil {
		metrics.PublishesTotal.WithLabelValues("failure").Inc()
		entry.WithField("error", err).Error("failed to publish statistics")
		return
	}
	metrics.PublishesTotal.WithLabelValues("success").Inc()
	entry.Info("published container statistics")
}

func (c *Collector) notify(state notify.State, status string) {
	if c.liveness == nil {
		return
	}
	if err := c.liveness.Notify(state, status); err != nil {
		c.log().WithField("error", err).Warn("failed to notify service manager")
	}
}
