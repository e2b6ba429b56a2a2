package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the idle window before a debounced search fires.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces rapid triggers into one execution after an idle
// window. Each Trigger cancels the previously scheduled one, so only the
// last function in a burst runs. Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
}

// NewDebouncer creates a debouncer. A non-positive delay selects
// DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run after the idle window, cancelling any
// previously scheduled function. fn runs on a timer goroutine.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops any pending execution.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// SearchDebounced schedules a search on the index's debouncer and delivers
// the results to deliver once the idle window elapses. A newer call
// supersedes a pending one; superseded calls never deliver.
func (ix *Index) SearchDebounced(d *Debouncer, query string, deliver func([]Match)) {
	d.Trigger(func() {
		deliver(ix.Search(query))
	})
}
