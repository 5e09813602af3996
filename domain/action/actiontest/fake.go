// Package actiontest provides an in-memory action.Input for tests.
package actiontest

import (
	"sync"

	"github.com/soocke/cursor-pilot/domain/action"
)

// Call records one input call.
type Call struct {
	Op   string
	Key  action.VK
	X, Y int
}

// Fake is a concurrency-safe action.Input. IsKeyHeld reports the union of the
// human-held keys and keys the fake has been told to press, mirroring how the OS
// cannot tell the two apart.
type Fake struct {
	mu      sync.Mutex
	x, y    int
	human   map[action.VK]bool
	down    map[action.VK]bool
	errs    map[string]error
	calls   []Call
	onEvent func(Call)
}

// New returns a fake with the pointer at (x, y).
func New(x, y int) *Fake {
	return &Fake{x: x, y: y, human: map[action.VK]bool{}, down: map[action.VK]bool{}, errs: map[string]error{}}
}

// SetHuman marks vk as physically held (or not) by a user.
func (f *Fake) SetHuman(vk action.VK, held bool) {
	f.mu.Lock()
	f.human[vk] = held
	f.mu.Unlock()
}

// FailOp makes every call of op return err until cleared with a nil err.
func (f *Fake) FailOp(op string, err error) {
	f.mu.Lock()
	if err == nil {
		delete(f.errs, op)
	} else {
		f.errs[op] = err
	}
	f.mu.Unlock()
}

// OnEvent registers a hook invoked (outside the lock) after every recorded call.
func (f *Fake) OnEvent(fn func(Call)) {
	f.mu.Lock()
	f.onEvent = fn
	f.mu.Unlock()
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	err := f.errs[c.Op]
	f.calls = append(f.calls, c)
	hook := f.onEvent
	f.mu.Unlock()
	if hook != nil {
		hook(c)
	}
	if err != nil {
		return &action.OSError{Op: c.Op, Key: c.Key, Err: err}
	}
	return nil
}

func (f *Fake) CursorPos() (int, int, error) {
	f.mu.Lock()
	x, y, err := f.x, f.y, f.errs[action.OpCursorPos]
	f.mu.Unlock()
	if err != nil {
		return 0, 0, &action.OSError{Op: action.OpCursorPos, Err: err}
	}
	return x, y, nil
}

func (f *Fake) SetCursorPos(x, y int) error {
	if err := f.record(Call{Op: action.OpSetCursorPos, X: x, Y: y}); err != nil {
		return err
	}
	f.mu.Lock()
	f.x, f.y = x, y
	f.mu.Unlock()
	return nil
}

func (f *Fake) MoveRelative(dx, dy int) error {
	if err := f.record(Call{Op: action.OpMoveRelative, X: dx, Y: dy}); err != nil {
		return err
	}
	f.mu.Lock()
	f.x += dx
	f.y += dy
	f.mu.Unlock()
	return nil
}

func (f *Fake) KeyDown(vk action.VK) error {
	if err := f.record(Call{Op: action.OpKeyDown, Key: vk}); err != nil {
		return err
	}
	f.mu.Lock()
	f.down[vk] = true
	f.mu.Unlock()
	return nil
}

func (f *Fake) KeyUp(vk action.VK) error {
	if err := f.record(Call{Op: action.OpKeyUp, Key: vk}); err != nil {
		return err
	}
	f.mu.Lock()
	f.down[vk] = false
	f.mu.Unlock()
	return nil
}

func (f *Fake) IsKeyHeld(vk action.VK) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[action.OpKeyState]; err != nil {
		return false, &action.OSError{Op: action.OpKeyState, Key: vk, Err: err}
	}
	return f.human[vk] || f.down[vk], nil
}

func (f *Fake) ClickLeft() error { return f.record(Call{Op: action.OpClick}) }

// Pos returns the current pointer position.
func (f *Fake) Pos() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.x, f.y
}

// SyntheticDown reports whether the fake believes vk is pressed by KeyDown.
func (f *Fake) SyntheticDown(vk action.VK) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.down[vk]
}

// Count returns how many calls of op were recorded.
func (f *Fake) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Reset clears recorded calls.
func (f *Fake) Reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

var _ action.Input = (*Fake)(nil)
