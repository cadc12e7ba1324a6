package app

import (
	"image/color"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// ToastOption represents styling options for toast text
type ToastOption struct {
	Colour color.RGBA
}

// Toast represents a single toast notification
type Toast struct {
	Lines       []string
	Colours     []color.RGBA
	AutoCloseAt time.Time
	Background  color.RGBA
	Border      color.RGBA
}

// ToastBuilder provides a fluent interface for building toasts
type ToastBuilder struct {
	toast *Toast
}

// ToastManager manages all active toasts
type ToastManager struct {
	mu        sync.Mutex
	toasts    []*Toast
	maxToasts int
	width     int
	margin    int
	face      font.Face
	now       func() time.Time
}

var (
	globalToastManager *ToastManager
	toastOnce          sync.Once
)

// NewToast creates a new toast builder
func NewToast() *ToastBuilder {
	return &ToastBuilder{toast: &Toast{
		AutoCloseAt: time.Now().Add(4 * time.Second),
		Background:  color.RGBA{40, 44, 52, 235},
		Border:      color.RGBA{90, 100, 120, 255},
	}}
}

// Text adds a line to the toast
func (tb *ToastBuilder) Text(s string, options ToastOption) *ToastBuilder {
	if options.Colour == (color.RGBA{}) {
		options.Colour = color.RGBA{235, 235, 235, 255}
	}
	tb.toast.Lines = append(tb.toast.Lines, s)
	tb.toast.Colours = append(tb.toast.Colours, options.Colour)
	return tb
}

// AutoClose sets how long the toast stays visible
func (tb *ToastBuilder) AutoClose(d time.Duration) *ToastBuilder {
	tb.toast.AutoCloseAt = time.Now().Add(d)
	return tb
}

// Show queues the toast
func (tb *ToastBuilder) Show() {
	GetToastManager().AddToast(tb.toast)
}

// GetToastManager returns the global toast manager
func GetToastManager() *ToastManager {
	toastOnce.Do(func() {
		globalToastManager = &ToastManager{
			maxToasts: 5,
			width:     360,
			margin:    10,
			face:      basicfont.Face7x13,
			now:       time.Now,
		}
	})
	return globalToastManager
}

// AddToast adds a toast, dropping the oldest when full
func (tm *ToastManager) AddToast(t *Toast) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.toasts = append(tm.toasts, t)
	if len(tm.toasts) > tm.maxToasts {
		tm.toasts = tm.toasts[len(tm.toasts)-tm.maxToasts:]
	}
}

// Update removes expired toasts
func (tm *ToastManager) Update() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	now := tm.now()
	kept := tm.toasts[:0]
	for _, t := range tm.toasts {
		if now.Before(t.AutoCloseAt) {
			kept = append(kept, t)
		}
	}
	tm.toasts = kept
}

// Len returns the number of visible toasts
func (tm *ToastManager) Len() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.toasts)
}

// Draw draws the toasts stacked in the bottom right corner
func (tm *ToastManager) Draw(screen *ebiten.Image) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	lineH := tm.face.Metrics().Height.Ceil()
	ascent := tm.face.Metrics().Ascent.Ceil()
	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	y := sh - tm.margin
	for i := len(tm.toasts) - 1; i >= 0; i-- {
		t := tm.toasts[i]
		h := len(t.Lines)*lineH + 16
		y -= h
		x := sw - tm.width - tm.margin
		vector.DrawFilledRect(screen, float32(x), float32(y), float32(tm.width), float32(h), t.Background, false)
		vector.StrokeRect(screen, float32(x), float32(y), float32(tm.width), float32(h), 1, t.Border, false)
		for j, line := range t.Lines {
			text.Draw(screen, line, tm.face, x+8, y+8+j*lineH+ascent, t.Colours[j])
		}
		y -= tm.margin / 2
	}
}
