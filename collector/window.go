package collector

import (
	"time"

	"github.com/pterodactyl/telemetry/stats"
)

// Snapshots reserved per minute of interval when a window is created, enough
// for 32 containers polled once a second.
const reservedPerMinute = 60 * 32

// window holds every snapshot gathered until boundary. Once a window is handed
// to the publish worker the collector never touches it again.
type window struct {
	boundary  time.Time
	snapshots []stats.Snapshot
}

func newWindow(boundary time.Time, interval time.Duration) *window {
	n := int(interval/time.Minute) * reservedPerMinute
	return &window{boundary: boundary, snapshots: make([]stats.Snapshot, 0, n)}
}

func (w *window) add(s stats.Snapshot) {
	w.snapshots = append(w.snapshots, s)
}

func (w *window) len() int {
	return len(w.snapshots)
}

// nextBoundary returns the first multiple of interval after now.
func nextBoundary(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval).Add(interval)
}
