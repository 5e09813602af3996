// Package perf keeps rolling timing statistics for pipeline stages and the steering
// tick.
package perf

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Stage names recorded by the pipeline and steering loop.
const (
	StageFrame  = "frame"
	StageSelect = "select"
	StageFilter = "filter"
	StageTick   = "tick"
)

const defaultWindow = 256

// Snapshot summarises the recent samples of one counter.
type Snapshot struct {
	Name   string
	Count  uint64
	Last   time.Duration
	Mean   time.Duration
	StdDev time.Duration
	Max    time.Duration
}

// Counter keeps the most recent durations in a ring buffer.
type Counter struct {
	mu    sync.Mutex
	name  string
	ring  []float64 // nanoseconds
	next  int
	full  bool
	count uint64
	last  time.Duration
	max   time.Duration
}

func NewCounter(name string, window int) *Counter {
	if window <= 0 {
		window = defaultWindow
	}
	return &Counter{name: name, ring: make([]float64, window)}
}

func (c *Counter) Observe(d time.Duration) {
	c.mu.Lock()
	c.ring[c.next] = float64(d)
	c.next++
	if c.next == len(c.ring) {
		c.next = 0
		c.full = true
	}
	c.count++
	c.last = d
	if d > c.max {
		c.max = d
	}
	c.mu.Unlock()
}

// Since observes the time elapsed from start.
func (c *Counter) Since(start time.Time) { c.Observe(time.Since(start)) }

func (c *Counter) Snapshot() Snapshot {
	c.mu.Lock()
	n := c.next
	if c.full {
		n = len(c.ring)
	}
	window := make([]float64, n)
	copy(window, c.ring[:n])
	s := Snapshot{Name: c.name, Count: c.count, Last: c.last, Max: c.max}
	c.mu.Unlock()

	switch len(window) {
	case 0:
	case 1:
		s.Mean = time.Duration(window[0])
	default:
		mean, std := stat.MeanStdDev(window, nil)
		s.Mean, s.StdDev = time.Duration(mean), time.Duration(std)
	}
	return s
}

// Monitor groups named counters.
type Monitor struct {
	mu       sync.RWMutex
	window   int
	counters map[string]*Counter
}

func NewMonitor(window int) *Monitor {
	return &Monitor{window: window, counters: make(map[string]*Counter)}
}

// Counter returns the named counter, creating it on first use.
func (m *Monitor) Counter(name string) *Counter {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[name]; !ok {
		c = NewCounter(name, m.window)
		m.counters[name] = c
	}
	return c
}

// Snapshots returns every counter's snapshot sorted by name.
func (m *Monitor) Snapshots() []Snapshot {
	m.mu.RLock()
	cs := make([]*Counter, 0, len(m.counters))
	for _, c := range m.counters {
		cs = append(cs, c)
	}
	m.mu.RUnlock()
	out := make([]Snapshot, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Log writes one debug line per counter.
func (m *Monitor) Log(logger *slog.Logger) {
	if logger == nil {
		return
	}
	for _, s := range m.Snapshots() {
		logger.Debug("perf.stats",
			"stage", s.Name,
			"count", s.Count,
			"last", s.Last,
			"mean", s.Mean,
			"stddev", s.StdDev,
			"max", s.Max,
		)
	}
}
