// Package debounce coalesces bursts of input into a single delayed call and
// tags each call with a sequence number so late responses can be dropped.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the quiet period after the last keystroke.
const DefaultDelay = 300 * time.Millisecond

// Debouncer is one input stream. Every Schedule or Invalidate supersedes
// whatever was issued before it.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	seq    uint64
	closed bool
}

func New(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{delay: delay}
}

// Schedule cancels any pending call and runs fn after the delay. fn gets
// the sequence number it was issued under.
func (d *Debouncer) Schedule(fn func(seq uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	if d.closed {
		return d.seq
	}

	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		if !d.Current(seq) {
			return
		}
		fn(seq)
	})
	return seq
}

// Invalidate cancels the pending call and marks every outstanding
// sequence as stale.
func (d *Debouncer) Invalidate() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
	return d.seq
}

// Current reports whether seq is still the latest issued sequence.
func (d *Debouncer) Current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.closed && seq == d.seq
}

// Close cancels the pending call; later schedules never fire.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
	d.closed = true
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
