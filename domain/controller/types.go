package controller

import (
	"log/slog"
	"time"

	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/keyauto"
	"github.com/soocke/cursor-pilot/domain/perf"
	"github.com/soocke/cursor-pilot/domain/steering"
	"github.com/soocke/cursor-pilot/domain/target"
)

// TargetState is the filtered view of the current target.
type TargetState struct {
	FilteredBox      target.Rect
	FilteredDistance float64
	X, Y             int
}

// Deps are the collaborators a Controller needs. Zero fields get defaults.
type Deps struct {
	Input    action.Input
	Screen   action.Screen
	Logger   *slog.Logger
	Perf     *perf.Monitor
	Reporter *action.ErrorReporter
	// Now drives toggle debounce; defaults to time.Now.
	Now func() time.Time
	// Rand returns a value in [0,1) for attack interval jitter.
	Rand func() float64
}

// StatusSource is the read side consumed by presenters and the stats logger.
type StatusSource interface {
	Following() bool
	RelativeMode() bool
	CursorControl() bool
	Attack() bool
	Target() (TargetState, bool)
	LastDistance() float64
	IgnoredClasses() []string
	KeyState() keyauto.State
	SteeringStats() steering.Stats
	SelectionMode() target.Mode
}

// Toggler is the hotkey/button side.
type Toggler interface {
	ToggleFollowing() bool
	ToggleMode() bool
	ToggleCursorControl() bool
	ToggleAttack() bool
	ToggleClassIgnore(token string) (bool, error)
}
