package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Resized from the OS. Data: *SystemEvent
	EVENT_CODE_RESIZED EventCode = 0x08

	// Resolution, multiplier or fullscreen changed through the frame system.
	// Data: *SystemEvent
	EVENT_CODE_RESOLUTION_CHANGED EventCode = 0x09

	// An asset under the data directory was created, written or removed.
	// Data: *AssetEvent
	EVENT_CODE_ASSET_CHANGED EventCode = 0x0A

	MAX_EVENT_CODE EventCode = 0xFF
)

// This should be more than enough codes...
const MAX_MESSAGE_CODES = 16384

type KeyEvent struct {
	KeyCode KeyCode
}

type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
	Multiplier   uint8
	Fullscreen   bool
}

type AssetEvent struct {
	Path    string
	Removed bool
}

type EventContext struct {
	Type EventCode
	Data interface{}
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus dispatches events synchronously to registered listeners, in
// registration order.
type EventBus struct {
	mutex      sync.RWMutex
	registered map[EventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]*registeredEvent),
	}
}

// Register listens for events sent with the provided code. Duplicate
// listener/code pairs are not registered again and return false.
func (b *EventBus) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	if int(code) >= MAX_MESSAGE_CODES || onEvent == nil {
		return false
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, e := range b.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	b.registered[code] = append(b.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister stops listener from receiving events with the provided code.
func (b *EventBus) Unregister(code EventCode, listener interface{}) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	events := b.registered[code]
	for i, e := range events {
		if e.listener == listener {
			b.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to the listeners of its code. If a handler returns
// true the event is considered handled and is not passed on.
func (b *EventBus) Fire(context EventContext) bool {
	b.mutex.RLock()
	events := make([]*registeredEvent, len(b.registered[context.Type]))
	copy(events, b.registered[context.Type])
	b.mutex.RUnlock()

	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}

func (b *EventBus) Shutdown() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.registered = make(map[EventCode][]*registeredEvent)
	return nil
}
