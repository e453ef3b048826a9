package favorites

import (
	"sync"
	"time"
)

// DefaultSettle is how long search input must stay quiet before it is sent.
const DefaultSettle = 1000 * time.Millisecond

// Timer is the cancel handle of a scheduled call.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc in production.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs only the last function triggered within the settle window.
// Earlier pending calls are superseded, not queued.
type Debouncer struct {
	wait  time.Duration
	after AfterFunc

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	stopped bool
}

func NewDebouncer(wait time.Duration, after AfterFunc) *Debouncer {
	if wait <= 0 {
		wait = DefaultSettle
	}
	if after == nil {
		after = realAfterFunc
	}
	return &Debouncer{wait: wait, after: after}
}

// Trigger (re)starts the settle window with fn as the pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.after(d.wait, func() {
		d.mu.Lock()
		// a timer that lost the race with Stop/Trigger must not run
		if d.stopped || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop cancels the pending call and ignores all future triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether a call is waiting for the window to settle.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
