package signal

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDebounceWindow is the edge-suppression window used when none is
// configured. 200ms sits in the middle of the band that reliably filters
// radio flapping without delaying genuine changes noticeably.
const DefaultDebounceWindow = 200 * time.Millisecond

// Debouncer suppresses repeated and rapidly-flapping boolean edges.
//
// Signal implementations feed every raw observation into Allow and only
// forward the ones it accepts: same-state repeats are always dropped, and a
// genuine flip is dropped while it lands inside the window following the
// last delivered edge.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time

	primed bool
	last   bool
	lastAt time.Time
}

// NewDebouncer creates a debouncer with the given window. A non-positive
// window falls back to DefaultDebounceWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window, now: time.Now}
}

// SetNowFunc replaces the time source for deterministic testing.
func (d *Debouncer) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

// Allow reports whether the observed state constitutes a deliverable edge.
// The first observation is always delivered.
func (d *Debouncer) Allow(state bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if !d.primed {
		d.primed = true
		d.last = state
		d.lastAt = now
		return true
	}
	if state == d.last {
		return false
	}
	if now.Sub(d.lastAt) < d.window {
		logrus.WithFields(logrus.Fields{
			"function": "Allow",
			"state":    state,
			"elapsed":  now.Sub(d.lastAt),
			"window":   d.window,
		}).Debug("Suppressed flapping signal edge")
		return false
	}
	d.last = state
	d.lastAt = now
	return true
}
