package action

import (
	"fmt"

	"github.com/vova616/screenshot"
)

// Screen is the primary display size in pixels.
type Screen struct {
	Width, Height int
}

// Center returns the screen midpoint used to park the pointer in relative mode.
func (s Screen) Center() (int, int) { return s.Width / 2, s.Height / 2 }

// ScreenBounds discovers the primary screen size, falling back to the platform
// metric when the screenshot backend cannot report it.
func ScreenBounds() (Screen, error) {
	if r, err := screenshot.ScreenRect(); err == nil && r.Dx() > 0 && r.Dy() > 0 {
		return Screen{Width: r.Dx(), Height: r.Dy()}, nil
	}
	w, h, err := systemScreenSize()
	if err != nil {
		return Screen{}, fmt.Errorf("screen bounds: %w", err)
	}
	return Screen{Width: w, Height: h}, nil
}
