// Package steering drives the OS pointer toward the current target at a fixed rate
// using an absolute or a relative motion model.
package steering

import "github.com/soocke/cursor-pilot/domain/action"

// Params tunes both motion models. The relative-mode numbers are empirical.
type Params struct {
	StopThreshold   float64 // px, absolute mode
	SlowFactor      float64
	MinMove         float64
	SmoothingFactor float64

	RelativeStopThreshold float64 // px from screen center
	RelativeSlowFactor    float64
	RelativeStepScale     float64
	RelativeMinMove       float64
	// RelativeOutputScale converts the unit step into mouse_event counts before
	// truncation.
	RelativeOutputScale float64
	// VirtualTargetShift moves the stored target toward the pointer by this many
	// pixels per emitted count, which is what lets relative mode settle.
	VirtualTargetShift int
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		StopThreshold:         2,
		SlowFactor:            100,
		MinMove:               0.01,
		SmoothingFactor:       0.1,
		RelativeStopThreshold: 80,
		RelativeSlowFactor:    500,
		RelativeStepScale:     100,
		RelativeMinMove:       0.1,
		RelativeOutputScale:   10,
		VirtualTargetShift:    5,
	}
}

// AbsoluteStep returns the next absolute pointer position for one tick, or false
// when the pointer is within StopThreshold of the target.
func AbsoluteStep(cur, tgt Point, screen action.Screen, p Params) (Point, bool) {
	d := tgt.Vec().Sub(cur.Vec())
	if d.Mag() <= p.StopThreshold {
		return cur, false
	}
	move := d.Mul(p.SmoothingFactor / p.SlowFactor)
	move.X = atLeast(move.X, d.X, p.MinMove)
	move.Y = atLeast(move.Y, d.Y, p.MinMove)

	next := Point{X: int(float64(cur.X) + move.X), Y: int(float64(cur.Y) + move.Y)}
	// anti-stick: truncation must not swallow a pending delta
	if next.X == cur.X {
		next.X += sign(d.X)
	}
	if next.Y == cur.Y {
		next.Y += sign(d.Y)
	}
	if screen.Width > 0 && screen.Height > 0 {
		next.X = clampInt(next.X, 0, screen.Width-1)
		next.Y = clampInt(next.Y, 0, screen.Height-1)
	}
	return next, true
}

// RelativeStep computes the relative pointer delta for a target measured against the
// screen center, and the target shifted toward the pointer by the emitted delta.
// It returns false once the target is within RelativeStopThreshold.
func RelativeStep(tgt, center Point, p Params) (delta, shifted Point, ok bool) {
	d := tgt.Vec().Sub(center.Vec())
	dist := d.Mag()
	if dist <= p.RelativeStopThreshold || dist == 0 {
		return Point{}, tgt, false
	}
	n := d.Normalize()
	move := n.Mul(p.RelativeStepScale / p.RelativeSlowFactor)
	move.X = atLeast(move.X, n.X, p.RelativeMinMove)
	move.Y = atLeast(move.Y, n.Y, p.RelativeMinMove)

	delta = Point{X: int(move.X * p.RelativeOutputScale), Y: int(move.Y * p.RelativeOutputScale)}
	if delta.X == 0 {
		delta.X = sign(n.X)
	}
	if delta.Y == 0 {
		delta.Y = sign(n.Y)
	}
	shifted = Point{
		X: tgt.X - delta.X*p.VirtualTargetShift,
		Y: tgt.Y - delta.Y*p.VirtualTargetShift,
	}
	return delta, shifted, true
}
