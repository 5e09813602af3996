package filter

import (
	"fmt"

	"github.com/soocke/cursor-pilot/domain/target"
)

// BoxFilter smooths the top-left corner of a rectangle with two independent
// scalar filters. Width and height follow the raw input so box size stays
// responsive while only position lags.
type BoxFilter struct {
	x, y *ScalarKalman
	last target.Rect
	has  bool
}

// NewBoxFilter builds a filter whose axes share the variances q and r.
func NewBoxFilter(q, r float64) *BoxFilter {
	return &BoxFilter{x: NewScalarKalman(q, r), y: NewScalarKalman(q, r)}
}

// Update filters box and returns the smoothed rectangle. Invalid boxes are rejected
// and leave the filter untouched.
func (b *BoxFilter) Update(box target.Rect) (target.Rect, error) {
	if !box.Valid() {
		return target.Rect{}, fmt.Errorf("box filter: %w", target.ErrInvalidRect)
	}
	w, h := box.Width(), box.Height()
	fx := b.x.Update(box.MinX)
	fy := b.y.Update(box.MinY)
	b.last = target.Rect{MinX: fx, MinY: fy, MaxX: fx + w, MaxY: fy + h}
	b.has = true
	return b.last, nil
}

// Center returns the midpoint of the last filtered box.
func (b *BoxFilter) Center() (x, y float64, ok bool) {
	if !b.has {
		return 0, 0, false
	}
	x, y = b.last.Center()
	return x, y, true
}

// Last returns the last filtered box.
func (b *BoxFilter) Last() (target.Rect, bool) { return b.last, b.has }

func (b *BoxFilter) Reset() {
	b.x.Reset()
	b.y.Reset()
	b.last = target.Rect{}
	b.has = false
}
