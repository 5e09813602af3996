package perf

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestCounterSnapshot(t *testing.T) {
	c := NewCounter("tick", 4)
	assert.Equal(t, Snapshot{Name: "tick"}, c.Snapshot())

	c.Observe(2 * time.Millisecond)
	s := c.Snapshot()
	assert.Equal(t, 2*time.Millisecond, s.Mean)
	assert.Zero(t, s.StdDev)

	for _, d := range []time.Duration{2, 4, 4, 4, 5, 5, 7, 9} {
		c.Observe(d * time.Millisecond)
	}
	got := c.Snapshot()
	// window holds the last four samples: 5, 5, 7, 9
	want := Snapshot{
		Name:  "tick",
		Count: 9,
		Last:  9 * time.Millisecond,
		Mean:  6500 * time.Microsecond,
		Max:   9 * time.Millisecond,
	}
	got.StdDev = 0
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, float64(1914854), float64(c.Snapshot().StdDev), 1000)
}

func TestMonitorCountersSorted(t *testing.T) {
	m := NewMonitor(8)
	m.Counter(StageTick).Observe(time.Millisecond)
	m.Counter(StageFrame).Observe(time.Millisecond)
	assert.Same(t, m.Counter(StageTick), m.Counter(StageTick))

	snaps := m.Snapshots()
	names := []string{snaps[0].Name, snaps[1].Name}
	assert.Equal(t, []string{StageFrame, StageTick}, names)

	var buf bytes.Buffer
	m.Log(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	assert.Equal(t, 2, strings.Count(buf.String(), "perf.stats"))
}
