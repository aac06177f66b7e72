package autosave

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer runs only the last function triggered within its quiet period.
type Debouncer struct {
	clock clockwork.Clock
	delay time.Duration

	mu    sync.Mutex
	timer clockwork.Timer
	seq   uint64
	// wg counts scheduled calls until they fire or are stopped.
	wg sync.WaitGroup
}

func NewDebouncer(clock clockwork.Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Trigger replaces any pending call with fn and restarts the quiet period.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	seq := d.seq
	d.wg.Add(1)
	d.timer = d.clock.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		current := seq == d.seq
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop drops the pending call. It reports whether one was pending.
func (d *Debouncer) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

// Pending reports whether a call is scheduled and has not fired yet.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Wait blocks until every scheduled call has either run or been stopped.
func (d *Debouncer) Wait() {
	d.wg.Wait()
}

func (d *Debouncer) stopLocked() bool {
	d.seq++
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	if stopped {
		d.wg.Done()
	}
	d.timer = nil
	return stopped
}
