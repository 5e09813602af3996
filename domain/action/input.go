// Package action abstracts the operating-system input surface: pointer queries and
// moves, key synthesis and polling, and mouse clicks.
package action

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by every call on platforms without an input backend.
var ErrUnsupported = errors.New("input synthesis not supported on this platform")

// Pointer queries and moves the OS cursor.
type Pointer interface {
	CursorPos() (x, y int, err error)
	SetCursorPos(x, y int) error
	MoveRelative(dx, dy int) error
}

// Keyboard synthesizes key transitions and polls the physical key state.
type Keyboard interface {
	KeyDown(vk VK) error
	KeyUp(vk VK) error
	IsKeyHeld(vk VK) (bool, error)
}

// Clicker synthesizes mouse button clicks.
type Clicker interface {
	ClickLeft() error
}

// Input is the full OS input surface used by the controller.
type Input interface {
	Pointer
	Keyboard
	Clicker
}

// OSError wraps a failed OS input call.
type OSError struct {
	Op  string
	Key VK // zero for pointer operations
	Err error
}

func (e *OSError) Error() string {
	if e.Key != 0 {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OSError) Unwrap() error { return e.Err }

// Operation names used in OSError.Op.
const (
	OpCursorPos    = "cursor_pos"
	OpSetCursorPos = "set_cursor_pos"
	OpMoveRelative = "move_relative"
	OpKeyDown      = "key_down"
	OpKeyUp        = "key_up"
	OpKeyState     = "key_state"
	OpClick        = "click"
)
