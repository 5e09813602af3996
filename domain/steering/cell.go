package steering

import "sync/atomic"

// TargetSnapshot is one published target. Version increases with every publish so
// the loop can tell a fresh target from the one it already consumed.
type TargetSnapshot struct {
	X, Y    int
	HasBox  bool
	Version uint64
}

// Target returns the target as a Point.
func (s TargetSnapshot) Target() Point { return Point{X: s.X, Y: s.Y} }

// TargetCell is a single-writer latest-value cell shared between the frame context
// and the steering loop.
type TargetCell struct {
	latest  atomic.Pointer[TargetSnapshot]
	version atomic.Uint64
}

// Publish stores a new target with a box.
func (c *TargetCell) Publish(x, y int) {
	c.latest.Store(&TargetSnapshot{X: x, Y: y, HasBox: true, Version: c.version.Add(1)})
}

// Clear marks the target as lost, keeping the last coordinates.
func (c *TargetCell) Clear() {
	prev := c.Load()
	if !prev.HasBox && prev.Version != 0 {
		return
	}
	c.latest.Store(&TargetSnapshot{X: prev.X, Y: prev.Y, Version: c.version.Add(1)})
}

// Load returns the latest snapshot; the zero snapshot means nothing was published.
func (c *TargetCell) Load() TargetSnapshot {
	if s := c.latest.Load(); s != nil {
		return *s
	}
	return TargetSnapshot{}
}
