// Package keyauto holds a hysteresis key-press automaton that chases a target by
// holding a movement key while the filtered distance is large.
package keyauto

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/cursor-pilot/domain/action"
)

// Machine synthesizes key-down/key-up for a single key from filtered distance.
// A human hold of the same key puts it into ManualOverride, during which it never
// presses or releases. It is safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	kb        action.Keyboard
	key       action.VK
	opts      Options
	state     State
	listeners []Listener
	logger    *slog.Logger
	sleep     func(time.Duration)
}

type transition struct{ prev, next State }

// New returns a machine in the Released state.
func New(kb action.Keyboard, key action.VK, opts Options, logger *slog.Logger) *Machine {
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	return &Machine{kb: kb, key: key, opts: opts, state: Released, logger: logger, sleep: time.Sleep}
}

func (m *Machine) AddListener(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Key returns the automated key.
func (m *Machine) Key() action.VK { return m.key }

// Update runs one frame of the automaton with a filtered distance.
func (m *Machine) Update(distance float64, following bool) error {
	m.mu.Lock()
	var (
		trs []transition
		err error
	)
	switch {
	case m.state == Closed:
	case !following:
		if m.state == AutoPressed {
			err = m.releaseLocked(&trs)
		}
	default:
		err = m.followLocked(distance, &trs)
	}
	listeners := m.listeners
	m.mu.Unlock()
	m.notify(listeners, trs)
	return err
}

func (m *Machine) followLocked(distance float64, trs *[]transition) error {
	held, err := m.kb.IsKeyHeld(m.key)
	if err != nil {
		return err
	}
	switch m.state {
	case Released:
		// Only here is a held key unambiguously human: we are not holding it.
		if held {
			m.setLocked(ManualOverride, trs)
			return nil
		}
	case ManualOverride:
		if held {
			return nil
		}
		m.setLocked(Released, trs)
	}
	switch {
	case m.state == Released && distance > m.opts.Thresholds.Press:
		if err := m.kb.KeyDown(m.key); err != nil {
			return err
		}
		m.setLocked(AutoPressed, trs)
	case m.state == AutoPressed && distance < m.opts.Thresholds.Release:
		return m.releaseLocked(trs)
	}
	return nil
}

// TargetLost releases the key if the automation holds it.
func (m *Machine) TargetLost() error {
	m.mu.Lock()
	var (
		trs []transition
		err error
	)
	if m.state == AutoPressed {
		err = m.releaseLocked(&trs)
	}
	listeners := m.listeners
	m.mu.Unlock()
	m.notify(listeners, trs)
	return err
}

// Shutdown releases an automation-held key, verifies with a second poll and retries
// once if it still reads as held, then closes the machine. It reports whether a
// release was issued. Later calls do nothing.
func (m *Machine) Shutdown() (bool, error) {
	m.mu.Lock()
	if m.state == Closed {
		m.mu.Unlock()
		return false, nil
	}
	var (
		trs      []transition
		released bool
		errs     []error
	)
	if m.state == AutoPressed {
		if err := m.kb.KeyUp(m.key); err != nil {
			errs = append(errs, err)
		} else {
			released = true
		}
		if m.opts.VerifyDelay > 0 {
			m.sleep(m.opts.VerifyDelay)
		}
		// A human key-down reads the same as a lingering press here; retry anyway.
		held, perr := m.kb.IsKeyHeld(m.key)
		if perr != nil {
			errs = append(errs, perr)
		}
		if held || !released {
			if err := m.kb.KeyUp(m.key); err != nil {
				errs = append(errs, err)
			} else {
				released = true
			}
		}
	}
	m.setLocked(Closed, &trs)
	listeners := m.listeners
	m.mu.Unlock()
	m.notify(listeners, trs)
	if m.logger != nil {
		m.logger.Info("key automation closed", "key", m.key.String(), "released", released)
	}
	return released, errors.Join(errs...)
}

func (m *Machine) releaseLocked(trs *[]transition) error {
	if err := m.kb.KeyUp(m.key); err != nil {
		return err
	}
	m.setLocked(Released, trs)
	return nil
}

func (m *Machine) setLocked(next State, trs *[]transition) {
	prev := m.state
	if prev == next {
		return
	}
	m.state = next
	*trs = append(*trs, transition{prev: prev, next: next})
}

func (m *Machine) notify(listeners []Listener, trs []transition) {
	for _, t := range trs {
		if m.logger != nil {
			m.logger.Debug("key automation transition", "from", t.prev.String(), "to", t.next.String())
		}
		for _, l := range listeners {
			l(t.prev, t.next)
		}
	}
}

var _ Contract = (*Machine)(nil)
