package controller

import (
	"sync"
	"time"
)

// debouncer enforces a minimum interval between accepted toggles per key, so a held
// hotkey flips a flag once.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

func newDebouncer(window time.Duration, now func() time.Time) *debouncer {
	return &debouncer{window: window, now: now, last: make(map[string]time.Time)}
}

func (d *debouncer) allow(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if prev, ok := d.last[key]; ok && now.Sub(prev) < d.window {
		return false
	}
	d.last[key] = now
	return true
}
