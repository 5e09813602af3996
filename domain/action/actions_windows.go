//go:build windows

package action

import (
	"errors"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procGetCursorPos     = user32.NewProc("GetCursorPos")
	procSetCursorPos     = user32.NewProc("SetCursorPos")
	procMouseEvent       = user32.NewProc("mouse_event")
	procKeybdEvent       = user32.NewProc("keybd_event")
	procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")
	procGetSystemMetrics = user32.NewProc("GetSystemMetrics")
)

const (
	mouseeventfMove     = 0x0001
	mouseeventfLeftDown = 0x0002
	mouseeventfLeftUp   = 0x0004
	keyeventfKeyUp      = 0x0002
	smCXScreen          = 0
	smCYScreen          = 1
)

// OSInput drives the Win32 input API through user32.dll.
type OSInput struct{}

// NewOSInput returns the platform input backend.
func NewOSInput() *OSInput { return &OSInput{} }

type point struct{ X, Y int32 }

func (OSInput) CursorPos() (int, int, error) {
	if err := procGetCursorPos.Find(); err != nil {
		return 0, 0, &OSError{Op: OpCursorPos, Err: err}
	}
	var p point
	r, _, callErr := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return 0, 0, &OSError{Op: OpCursorPos, Err: callErrOr(callErr)}
	}
	return int(p.X), int(p.Y), nil
}

func (OSInput) SetCursorPos(x, y int) error {
	if err := procSetCursorPos.Find(); err != nil {
		return &OSError{Op: OpSetCursorPos, Err: err}
	}
	r, _, callErr := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if r == 0 {
		return &OSError{Op: OpSetCursorPos, Err: callErrOr(callErr)}
	}
	return nil
}

// MoveRelative emits a relative pointer delta (mouse_event has no failure signal).
func (OSInput) MoveRelative(dx, dy int) error {
	if err := procMouseEvent.Find(); err != nil {
		return &OSError{Op: OpMoveRelative, Err: err}
	}
	_, _, _ = procMouseEvent.Call(mouseeventfMove, uintptr(int32(dx)), uintptr(int32(dy)), 0, 0)
	return nil
}

func (OSInput) KeyDown(vk VK) error {
	if err := procKeybdEvent.Find(); err != nil {
		return &OSError{Op: OpKeyDown, Key: vk, Err: err}
	}
	_, _, _ = procKeybdEvent.Call(uintptr(vk), 0, 0, 0)
	return nil
}

func (OSInput) KeyUp(vk VK) error {
	if err := procKeybdEvent.Find(); err != nil {
		return &OSError{Op: OpKeyUp, Key: vk, Err: err}
	}
	_, _, _ = procKeybdEvent.Call(uintptr(vk), 0, keyeventfKeyUp, 0)
	return nil
}

// IsKeyHeld reports the physical key state; the high bit of GetAsyncKeyState is set
// while the key is down.
func (OSInput) IsKeyHeld(vk VK) (bool, error) {
	if err := procGetAsyncKeyState.Find(); err != nil {
		return false, &OSError{Op: OpKeyState, Key: vk, Err: err}
	}
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0, nil
}

func (OSInput) ClickLeft() error {
	if err := procMouseEvent.Find(); err != nil {
		return &OSError{Op: OpClick, Err: err}
	}
	_, _, _ = procMouseEvent.Call(mouseeventfLeftDown, 0, 0, 0, 0)
	time.Sleep(30 * time.Millisecond)
	_, _, _ = procMouseEvent.Call(mouseeventfLeftUp, 0, 0, 0, 0)
	return nil
}

func systemScreenSize() (int, int, error) {
	if err := procGetSystemMetrics.Find(); err != nil {
		return 0, 0, err
	}
	cx, _, _ := procGetSystemMetrics.Call(smCXScreen)
	cy, _, _ := procGetSystemMetrics.Call(smCYScreen)
	if cx == 0 || cy == 0 {
		return 0, 0, errors.New("GetSystemMetrics returned zero size")
	}
	return int(cx), int(cy), nil
}

// callErrOr maps the zero Errno that Call reports on silent failures to an error.
func callErrOr(err error) error {
	if errno, ok := err.(windows.Errno); err == nil || (ok && errno == 0) {
		return errors.New("call failed")
	}
	return err
}

var _ Input = OSInput{}
