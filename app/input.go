package app

import (
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyEvent represents a key press event
type KeyEvent struct {
	Key     ebiten.Key
	Pressed bool // true for press, false for release
	Control bool // Control (Command on macOS) held
	Shift   bool
}

// MouseButtonEvent represents a mouse button event
type MouseButtonEvent struct {
	Button  ebiten.MouseButton
	Pressed bool // true for press, false for release
	X, Y    int
	Control bool
	Shift   bool
}

// InputManager turns the polled ebiten input into events delivered on
// subscriber channels.
type InputManager struct {
	subscribers      []chan KeyEvent
	mouseSubscribers []chan MouseButtonEvent
	subscribersMu    sync.RWMutex
}

// NewInputManager creates a new InputManager
func NewInputManager() *InputManager {
	return &InputManager{}
}

// Subscribe returns a channel that will receive key events
// The caller is responsible for reading from this channel to prevent blocking
func (im *InputManager) Subscribe() <-chan KeyEvent {
	im.subscribersMu.Lock()
	defer im.subscribersMu.Unlock()

	ch := make(chan KeyEvent, 50) // Buffered channel for each subscriber
	im.subscribers = append(im.subscribers, ch)
	return ch
}

// SubscribeMouseEvents returns a channel that will receive mouse button events
func (im *InputManager) SubscribeMouseEvents() <-chan MouseButtonEvent {
	im.subscribersMu.Lock()
	defer im.subscribersMu.Unlock()

	ch := make(chan MouseButtonEvent, 50)
	im.mouseSubscribers = append(im.mouseSubscribers, ch)
	return ch
}

func controlPressed() bool {
	return ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
}

// Update should be called every frame to check for input changes
func (im *InputManager) Update() {
	ctrl := controlPressed()
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)

	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		im.broadcastEvent(KeyEvent{Key: key, Pressed: true, Control: ctrl, Shift: shift})
	}
	for _, key := range inpututil.AppendJustReleasedKeys(nil) {
		im.broadcastEvent(KeyEvent{Key: key, Pressed: false, Control: ctrl, Shift: shift})
	}

	x, y := ebiten.CursorPosition()
	for btn := ebiten.MouseButton0; btn <= ebiten.MouseButton4; btn++ {
		if inpututil.IsMouseButtonJustPressed(btn) {
			im.broadcastMouseEvent(MouseButtonEvent{Button: btn, Pressed: true, X: x, Y: y, Control: ctrl, Shift: shift})

			// The back button of many mice acts as Escape
			if btn == ebiten.MouseButton3 {
				im.broadcastEvent(KeyEvent{Key: ebiten.KeyEscape, Pressed: true})
				im.broadcastEvent(KeyEvent{Key: ebiten.KeyEscape, Pressed: false})
			}
		}
		if inpututil.IsMouseButtonJustReleased(btn) {
			im.broadcastMouseEvent(MouseButtonEvent{Button: btn, Pressed: false, X: x, Y: y, Control: ctrl, Shift: shift})
		}
	}
}

// broadcastEvent sends the event to all subscribers
func (im *InputManager) broadcastEvent(event KeyEvent) {
	im.subscribersMu.RLock()
	defer im.subscribersMu.RUnlock()

	for _, subscriber := range im.subscribers {
		select {
		case subscriber <- event:
		default:
			// Channel is full, skip this subscriber to prevent blocking
		}
	}
}

// broadcastMouseEvent sends the mouse event to all mouse subscribers
func (im *InputManager) broadcastMouseEvent(event MouseButtonEvent) {
	im.subscribersMu.RLock()
	defer im.subscribersMu.RUnlock()

	for _, subscriber := range im.mouseSubscribers {
		select {
		case subscriber <- event:
		default:
		}
	}
}
