package model

import (
	"time"
)

// FollowSessionModel tracks how long following has been enabled in the current
// stretch and in total. Presenters poll Values; the zero value is ready to use.
type FollowSessionModel struct {
	active   bool
	start    time.Time
	current  time.Duration
	total    time.Duration
	sessions int
}

func NewFollowSessionModel() *FollowSessionModel { return &FollowSessionModel{} }

// OnTick advances the model with the following flag observed at now.
func (m *FollowSessionModel) OnTick(following bool, now time.Time) {
	if m == nil {
		return
	}
	switch {
	case following && !m.active:
		m.active = true
		m.start = now
		m.current = 0
		m.sessions++
	case following:
		m.current = now.Sub(m.start)
	case m.active:
		m.current = now.Sub(m.start)
		m.total += m.current
		m.active = false
	}
}

// Values returns the current (or last) stretch and the total including it.
func (m *FollowSessionModel) Values() (current, total time.Duration) {
	if m == nil {
		return 0, 0
	}
	current, total = m.current, m.total
	if m.active {
		total += current
	}
	return
}

// Sessions counts how many times following was switched on.
func (m *FollowSessionModel) Sessions() int {
	if m == nil {
		return 0
	}
	return m.sessions
}
