package ingest

import (
	"context"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"

	"github.com/pterodactyl/telemetry/disk"
	"github.com/pterodactyl/telemetry/metrics"
	"github.com/pterodactyl/telemetry/stats"
)

// Sink is a connection to the database. Write buffers every row it is given
// and flushes them in a single request.
type Sink interface {
	Write(ctx context.Context, rows []Row) error
	Close(ctx context.Context) error
}

// Dialer opens a new Sink using a client configuration string.
type Dialer func(ctx context.Context, conf string) (Sink, error)

// Publisher encodes a window of aggregated statistics, along with the current
// state of any configured disks, and writes them to the database.
type Publisher struct {
	Encoder Encoder
	// Conf is passed to Dial as-is, see Conf for building it.
	Conf string
	Dial Dialer

	// Disks is the list of device names to report on. Nothing is reported if
	// either this or DiskSource is empty.
	Disks      []string
	DiskSource disk.Source
}

func (p *Publisher) log() *log.Entry {
	return log.WithField("component", "publisher")
}

// Publish writes one row per aggregated stat, followed by the disk rows, all
// stamped with ts. Every row is encoded before a connection is opened so that
// an invalid identifier never reaches the database. Nothing is retried.
func (p *Publisher) Publish(ctx context.Context, aggs []stats.AggregatedStat, ts time.Time) error {
	rows, err := p.Encoder.Containers(aggs, ts)
	if err != nil {
		return errors.WrapIf(err, "ingest: failed to encode container statistics")
	}
	containers := len(rows)

	devices := p.devices(ctx)
	if len(devices) > 0 {
		drows, err := p.Encoder.Disks(devices, ts)
		if err != nil {
			return errors.WrapIf(err, "ingest: failed to encode disk statistics")
		}
		rows = append(rows, drows...)
	}

	sink, err := p.Dial(ctx, p.Conf)
	if err != nil {
		return errors.WrapIf(err, "ingest: failed to connect to database")
	}
	if err := sink.Write(ctx, rows); err != nil {
		if cerr := sink.Close(ctx); cerr != nil {
			p.log().WithField("error", cerr).Warn("failed to close database connection")
		}
		return errors.WrapIf(err, "ingest: failed to write rows")
	}
	if err := sink.Close(ctx); err != nil {
		return errors.WrapIf(err, "ingest: failed to close database connection")
	}

	metrics.RowsWrittenTotal.WithLabelValues(p.Encoder.Table).Add(float64(containers))
	if len(rows) > containers {
		metrics.RowsWrittenTotal.WithLabelValues(p.Encoder.DiskTable).Add(float64(len(rows) - containers))
	}
	return nil
}

// devices looks up every configured disk. A disk that cannot be found is
// left out without complaint, a lookup error is logged and the disk skipped.
func (p *Publisher) devices(ctx context.Context) []disk.Device {
	if p.DiskSource == nil || len(p.Disks) == 0 {
		return nil
	}
	var out []disk.Device
	for _, name := range p.Disks {
		found, err := p.DiskSource.Lookup(ctx, name)
		if err != nil {
			p.log().WithField("disk", name).WithField("error", err).Error("failed to look up disk statistics")
			continue
		}
		if len(found) == 0 {
			p.log().WithField("disk", name).Debug("disk is not mounted, skipping")
			continue
		}
		for _, d := range found {
			p.log().WithFields(log.Fields{"disk": name, "mount_point": d.MountPoint, "host": p.Encoder.Host}).Debug("added disk statistics")
		}
		out = append(out, found...)
	}
	return out
}
