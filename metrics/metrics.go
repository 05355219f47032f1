package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "telemetry"
	subsystem = "collector"
)

var (
	bootTimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "boot_time_seconds",
		Help:      "Boot time of this instance since epoch (1970)",
	})

	PollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "polls_total",
		Help:      "Number of times the container runtime was polled for statistics",
	})
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "poll_errors_total",
		Help:      "Number of polls that failed to return any statistics",
	})
	RecordsDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "records_dropped_total",
		Help:      "Number of statistics records dropped because a required field could not be parsed",
	}, []string{"reason"})
	SoftFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "soft_failures_total",
		Help:      "Number of statistics fields that could not be parsed and were reported as zero",
	}, []string{"field"})
	WindowSnapshots = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "window_snapshots",
		Help:      "Number of snapshots held in the current publish window",
	})

	PublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "publishes_total",
		Help:      "Number of window publishes by result",
	}, []string{"result"})
	RowsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rows_written_total",
		Help:      "Number of rows written to the database by table",
	}, []string{"table"})
	PublishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "publish_duration_seconds",
		Help:      "Time taken to aggregate and publish a single window",
		Buckets:   prometheus.DefBuckets,
	})
)

// Serve exposes the registered metrics on the given address until the context
// is canceled. An empty address only records the boot time and returns.
func Serve(ctx context.Context, bind string) {
	bootTimeSeconds.Set(float64(time.Now().UnixNano()) / 1e9)
	if bind == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: bind, Handler: mux, ReadHeaderTimeout: time.Second * 10}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.WithField("error", err).Warn("metrics: failed to shutdown server cleanly")
		}
	}()

	log.WithField("bind", bind).Info("metrics: serving prometheus metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithField("error", err).Error("failed to start metrics server")
	}
}
