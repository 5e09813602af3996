//go:build !windows

package action

// OSInput is a stub backend; every call fails with ErrUnsupported.
type OSInput struct{}

// NewOSInput returns the platform input backend.
func NewOSInput() *OSInput { return &OSInput{} }

func (OSInput) CursorPos() (int, int, error) {
	return 0, 0, &OSError{Op: OpCursorPos, Err: ErrUnsupported}
}

func (OSInput) SetCursorPos(int, int) error {
	return &OSError{Op: OpSetCursorPos, Err: ErrUnsupported}
}

func (OSInput) MoveRelative(int, int) error {
	return &OSError{Op: OpMoveRelative, Err: ErrUnsupported}
}

func (OSInput) KeyDown(vk VK) error { return &OSError{Op: OpKeyDown, Key: vk, Err: ErrUnsupported} }
func (OSInput) KeyUp(vk VK) error   { return &OSError{Op: OpKeyUp, Key: vk, Err: ErrUnsupported} }

func (OSInput) IsKeyHeld(vk VK) (bool, error) {
	return false, &OSError{Op: OpKeyState, Key: vk, Err: ErrUnsupported}
}

func (OSInput) ClickLeft() error { return &OSError{Op: OpClick, Err: ErrUnsupported} }

func systemScreenSize() (int, int, error) { return 0, 0, ErrUnsupported }

var _ Input = OSInput{}
