package app

import (
	"fmt"
	"image/color"
	"log"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// PanicNotifier shows a recovered panic on top of the editor. The user can
// copy the stack trace, continue, or terminate.
type PanicNotifier struct {
	panicInfo    *PanicInfo
	stackTrace   string
	visible      bool
	scrollOffset int
	font         font.Face
	onTerminate  func()
}

// PanicInfo contains information about a panic
type PanicInfo struct {
	Error      interface{}
	StackTrace []byte
	Time       time.Time
	GoVersion  string
	OS         string
	Arch       string
}

var globalPanicNotifier *PanicNotifier

// InitPanicNotifier initializes the global panic notification system.
// onTerminate runs before the process exits from the dialog.
func InitPanicNotifier(onTerminate func()) {
	if globalPanicNotifier != nil {
		return
	}
	globalPanicNotifier = &PanicNotifier{font: basicfont.Face7x13, onTerminate: onTerminate}
}

// GetPanicNotifier returns the global panic notifier instance
func GetPanicNotifier() *PanicNotifier {
	if globalPanicNotifier == nil {
		InitPanicNotifier(nil)
	}
	return globalPanicNotifier
}

// ShowPanic records a recovered value and shows the dialog
func (pn *PanicNotifier) ShowPanic(r interface{}) {
	pn.panicInfo = &PanicInfo{
		Error:      r,
		StackTrace: debug.Stack(),
		Time:       time.Now(),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
	}
	pn.stackTrace = pn.formatReport()
	pn.scrollOffset = 0
	pn.visible = true
}

func (pn *PanicNotifier) formatReport() string {
	info := pn.panicInfo
	var b strings.Builder
	fmt.Fprintf(&b, "panic: %v\n", info.Error)
	fmt.Fprintf(&b, "time: %s\n", info.Time.Format(time.RFC3339))
	fmt.Fprintf(&b, "go: %s %s/%s\n\n", info.GoVersion, info.OS, info.Arch)
	b.Write(info.StackTrace)
	return b.String()
}

// IsVisible reports whether the dialog is shown
func (pn *PanicNotifier) IsVisible() bool { return pn.visible }

// Hide closes the dialog
func (pn *PanicNotifier) Hide() { pn.visible = false }

// Update handles the dialog keys. It returns true while the dialog is
// consuming input.
func (pn *PanicNotifier) Update() bool {
	if !pn.visible {
		return false
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyC):
		if err := writeClipboard(pn.stackTrace); err != nil {
			log.Printf("[PANIC] copy failed: %v", err)
		} else {
			NewToast().
				Text("Stack trace copied to clipboard", ToastOption{Colour: color.RGBA{100, 255, 100, 255}}).
				AutoClose(2 * time.Second).
				Show()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyEscape), inpututil.IsKeyJustPressed(ebiten.KeyEnter):
		pn.Hide()
	case inpututil.IsKeyJustPressed(ebiten.KeyQ):
		fmt.Printf("Panic occurred: %v\n", pn.panicInfo.Error)
		if pn.onTerminate != nil {
			pn.onTerminate()
		}
		os.Exit(1)
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowDown):
		pn.scrollOffset++
	case inpututil.IsKeyJustPressed(ebiten.KeyArrowUp):
		if pn.scrollOffset > 0 {
			pn.scrollOffset--
		}
	}
	return true
}

// Draw draws the dialog over the whole screen
func (pn *PanicNotifier) Draw(screen *ebiten.Image) {
	if !pn.visible {
		return
	}
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	vector.DrawFilledRect(screen, 0, 0, float32(w), float32(h), color.RGBA{0, 0, 0, 200}, false)
	vector.DrawFilledRect(screen, 40, 40, float32(w-80), float32(h-80), color.RGBA{50, 20, 20, 255}, false)
	vector.StrokeRect(screen, 40, 40, float32(w-80), float32(h-80), 2, color.RGBA{220, 80, 80, 255}, false)

	lineH := pn.font.Metrics().Height.Ceil()
	y := 60 + lineH
	text.Draw(screen, "Runtime Error - Panic   [C] copy  [Esc] continue  [Q] quit", pn.font, 60, y, color.RGBA{255, 200, 200, 255})
	y += 2 * lineH

	lines := strings.Split(pn.stackTrace, "\n")
	if pn.scrollOffset >= len(lines) {
		pn.scrollOffset = len(lines) - 1
	}
	for _, line := range lines[pn.scrollOffset:] {
		if y > h-60 {
			break
		}
		text.Draw(screen, strings.ReplaceAll(line, "\t", "    "), pn.font, 60, y, color.RGBA{230, 230, 230, 255})
		y += lineH
	}
}

// HandlePanic recovers a panic of the update or draw loop and shows it.
// It must be deferred directly.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Printf("[PANIC] Critical error caught: %v\n", r)
		GetPanicNotifier().ShowPanic(r)
	}
}
