package target

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRect is returned for rectangles that are not finite or whose bounds are
// not strictly ordered.
var ErrInvalidRect = errors.New("invalid rectangle")

// Rect is an axis-aligned bounding box in absolute screen pixels.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewRect returns the rectangle or ErrInvalidRect.
func NewRect(minX, minY, maxX, maxY float64) (Rect, error) {
	r := Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
	if !r.Valid() {
		return Rect{}, fmt.Errorf("%w: (%g,%g)-(%g,%g)", ErrInvalidRect, minX, minY, maxX, maxY)
	}
	return r, nil
}

// Valid reports whether all bounds are finite and min < max on both axes.
func (r Rect) Valid() bool {
	for _, v := range [...]float64{r.MinX, r.MinY, r.MaxX, r.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.MinX < r.MaxX && r.MinY < r.MaxY
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }
func (r Rect) Area() float64   { return r.Width() * r.Height() }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (x, y float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

// DetectedObject is one detection produced by the vision pipeline for a single frame.
// Values are copied, never shared, across the pipeline boundary.
type DetectedObject struct {
	Class      ClassID
	ClassName  string // as reported by the detector; may be empty for known classes
	Box        Rect
	DistanceM  float64
	Confidence float64
}

// Name returns the detector-supplied class name, falling back to the table name.
func (o DetectedObject) Name() string {
	if o.ClassName != "" {
		return o.ClassName
	}
	return o.Class.String()
}

// UsableDistance reports whether d is a real range reading: positive and finite.
// Detectors send 0 or omit the field when no range is available.
func UsableDistance(d float64) bool { return d > 0 && !math.IsInf(d, 0) }

// HasDistance reports whether the object carries a usable range.
func (o DetectedObject) HasDistance() bool { return UsableDistance(o.DistanceM) }

// Annotated pairs a detection with its target flag for display collaborators.
type Annotated struct {
	DetectedObject
	IsTarget bool
}
