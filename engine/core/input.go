package core

import "sync"

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// Key codes follow the virtual-key numbering; the platform layer maps its
// own key enum onto these.
type KeyCode uint16

const (
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_A      KeyCode = 0x41
	KEY_B      KeyCode = 0x42
	KEY_D      KeyCode = 0x44
	KEY_M      KeyCode = 0x4D
	KEY_N      KeyCode = 0x4E
	KEY_S      KeyCode = 0x53
	KEY_T      KeyCode = 0x54
	KEY_W      KeyCode = 0x57

	KEYS_MAX_KEYS KeyCode = 0xFF
)

type keyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

type mouseState struct {
	X       float64
	Y       float64
	Buttons [BUTTON_MAX_BUTTONS]bool
}

// Input keeps the current and previous frame state of keyboard and mouse.
// The platform writes it from its callbacks, the game loop reads it.
type Input struct {
	mu sync.Mutex

	KeyboardCurrent  keyboardState
	KeyboardPrevious keyboardState
	MouseCurrent     mouseState
	MousePrevious    mouseState
}

func NewInput() *Input {
	return &Input{}
}

// Update rolls the current state into the previous one. Call once per frame
// after the state has been consumed.
func (in *Input) Update() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.KeyboardPrevious = in.KeyboardCurrent
	in.MousePrevious = in.MouseCurrent
}

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.KeyboardCurrent.Keys[key] = pressed
}

func (in *Input) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS {
		return
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.MouseCurrent.Buttons[button] = pressed
}

func (in *Input) ProcessMouseMove(x, y float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.MouseCurrent.X = x
	in.MouseCurrent.Y = y
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.KeyboardCurrent.Keys[key]
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.KeyboardPrevious.Keys[key]
}

// KeyReleased reports a press followed by a release, the edge the debug
// toggles react to.
func (in *Input) KeyReleased(key KeyCode) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.KeyboardPrevious.Keys[key] && !in.KeyboardCurrent.Keys[key]
}

func (in *Input) IsButtonDown(button Button) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.MouseCurrent.Buttons[button]
}

func (in *Input) MousePosition() (float64, float64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.MouseCurrent.X, in.MouseCurrent.Y
}
