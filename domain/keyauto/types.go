package keyauto

import "time"

// State enumerates the key automation states.
type State int

const (
	Released State = iota
	AutoPressed
	ManualOverride
	Closed
)

func (s State) String() string {
	switch s {
	case Released:
		return "released"
	case AutoPressed:
		return "auto_pressed"
	case ManualOverride:
		return "manual"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Listener is called after each state transition, outside the machine's lock.
type Listener func(prev, next State)

// Thresholds holds the hysteresis band. Press must be strictly above Release.
type Thresholds struct {
	Press   float64
	Release float64
}

// DefaultThresholds presses beyond 1.9 m and releases under 1.8 m.
func DefaultThresholds() Thresholds { return Thresholds{Press: 1.9, Release: 1.8} }

// Options configure a Machine.
type Options struct {
	Thresholds Thresholds
	// VerifyDelay is the pause between the shutdown release and its verification poll.
	VerifyDelay time.Duration
}

// StateSource exposes the current state to presenters.
type StateSource interface{ State() State }

// Contract is the surface the controller drives.
type Contract interface {
	StateSource
	Update(distance float64, following bool) error
	TargetLost() error
	Shutdown() (bool, error)
	AddListener(Listener)
}
