package steering

import "math"

// Point is an integer screen coordinate.
type Point struct{ X, Y int }

// Vec converts p to a float vector.
func (p Point) Vec() Vector { return Vector{X: float64(p.X), Y: float64(p.Y)} }

// Vector is a 2D float vector.
type Vector struct{ X, Y float64 }

func (v Vector) Sub(o Vector) Vector  { return Vector{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector) Mul(s float64) Vector { return Vector{X: v.X * s, Y: v.Y * s} }
func (v Vector) Mag() float64         { return math.Hypot(v.X, v.Y) }

// Normalize returns the unit vector, or the zero vector for a zero input.
func (v Vector) Normalize() Vector {
	m := v.Mag()
	if m == 0 {
		return Vector{}
	}
	return Vector{X: v.X / m, Y: v.Y / m}
}

// atLeast raises |v| to min, in the sign of dir, when dir is non-zero.
func atLeast(v, dir, min float64) float64 {
	if dir == 0 || math.Abs(v) >= min {
		return v
	}
	return math.Copysign(min, dir)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
