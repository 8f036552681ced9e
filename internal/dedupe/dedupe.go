// Package dedupe tracks recently seen form-submission ids so that retried
// webhook deliveries inside a short window are short-circuited without side
// effects. The set is intentionally volatile: across restarts the token
// store's consumed flag is the authoritative duplicate guard, this package
// only prevents double work for near-simultaneous redeliveries.
package dedupe

import (
	"sync"
	"time"
)

// DefaultWindow is the canonical dedupe window for retried submissions.
const DefaultWindow = 15 * time.Minute

// Deduplicator remembers submission ids for a trailing window.
type Deduplicator struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
	now     func() time.Time

	sweepTicker *time.Ticker
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// New creates a Deduplicator with the given window (DefaultWindow if <= 0)
// and starts a background sweep of expired entries.
func New(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultWindow
	}
	d := &Deduplicator{
		window:      window,
		entries:     make(map[string]time.Time),
		now:         time.Now,
		sweepTicker: time.NewTicker(window),
		stopCh:      make(chan struct{}),
	}
	go d.sweep()
	return d
}

// Seen reports whether id was registered within the window. When it was not,
// the id is registered as a side effect, so the first caller for a given id
// gets false and every caller inside the window after that gets true.
func (d *Deduplicator) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if deadline, ok := d.entries[id]; ok && now.Before(deadline) {
		return true
	}
	d.entries[id] = now.Add(d.window)
	return false
}

// Len returns the number of tracked ids, expired entries included until the
// next sweep. Test helper.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// Stop terminates the background sweep.
func (d *Deduplicator) Stop() {
	d.stopOnce.Do(func() {
		d.sweepTicker.Stop()
		close(d.stopCh)
	})
}

func (d *Deduplicator) sweep() {
	for {
		select {
		case <-d.stopCh:
			return
		case <-d.sweepTicker.C:
			d.mu.Lock()
			now := d.now()
			for id, deadline := range d.entries {
				if !now.Before(deadline) {
					delete(d.entries, id)
				}
			}
			d.mu.Unlock()
		}
	}
}
