package core

// Key code definitions
type KeyCode uint16

const (
	KEY_ENTER  KeyCode = 0x0D
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_F1     KeyCode = 0x70
	KEY_F2     KeyCode = 0x71
	KEY_F3     KeyCode = 0x72
	KEY_F4     KeyCode = 0x73
	KEY_F11    KeyCode = 0x7A
	KEY_GRAVE  KeyCode = 0xC0
	KEYS_MAX_KEYS
)

// Keyboard state structure
type KeyboardState struct {
	Keys [256]bool
}

// Input holds the current and previous keyboard states and forwards
// changes onto the event bus.
type Input struct {
	bus      *EventBus
	current  KeyboardState
	previous KeyboardState
}

func NewInput(bus *EventBus) *Input {
	return &Input{bus: bus}
}

// Update copies the current state into the previous one. Call it once per
// frame after everything that reads input.
func (in *Input) Update() {
	in.previous = in.current
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	return in.current.Keys[key&0xFF]
}

func (in *Input) WasKeyDown(key KeyCode) bool {
	return in.previous.Keys[key&0xFF]
}

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	k := key & 0xFF
	// Only handle this if the state actually changed.
	if in.current.Keys[k] == pressed {
		return
	}
	in.current.Keys[k] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	if in.bus != nil {
		in.bus.Fire(EventContext{
			Type: code,
			Data: &KeyEvent{KeyCode: key},
		})
	}
}
