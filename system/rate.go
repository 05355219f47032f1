package system

import (
	"sync"
	"time"
)

// Rate allows up to limit events per window of time and keeps count of the
// events it turned away, so that a caller can report how many were skipped
// once it is allowed through again.
type Rate struct {
	mu         sync.Mutex
	limit      uint64
	duration   time.Duration
	count      uint64
	suppressed uint64
	last       time.Time

	now func() time.Time
}

func NewRate(limit uint64, duration time.Duration) *Rate {
	return &Rate{
		limit:    limit,
		duration: duration,
		last:     time.Now(),
		now:      time.Now,
	}
}

// Try returns true if under the rate limit defined, or false if the rate limit
// has been exceeded for the current duration.
func (r *Rate) Try() bool {
	ok, _ := r.Allow()
	return ok
}

// Allow works like Try but also returns the number of events that were
// rejected since the last one that was allowed. The counter is cleared each
// time an event is allowed.
func (r *Rate) Allow() (bool, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.last) > r.duration {
		r.count = 0
		r.last = now
	}
	if r.count+1 > r.limit {
		r.suppressed++
		return false, 0
	}
	r.count++
	skipped := r.suppressed
	r.suppressed = 0
	return true, skipped
}

// Reset resets the internal state of the rate limiter back to zero.
func (r *Rate) Reset() {
	r.mu.Lock()
	r.count = 0
	r.suppressed = 0
	r.last = r.now()
	r.mu.Unlock()
}
