package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gdide/javascript"
	"gdide/render"
	"gdide/storage"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

const (
	tabBarHeight     = 24
	consoleHeight    = 120
	maxConsoleLines  = 200
	dumpInterval     = 30 * time.Second
	closeConfirmTime = 5 * time.Second
	scrollStep       = 40
)

// Options configure a new editor.
type Options struct {
	Config *storage.EditorConfig
	Files  <-chan []string // Paths forwarded by other instances, may be nil
	OnExit func()          // Runs once when the window closes
}

// Editor is the events editor window. It implements ebiten.Game.
type Editor struct {
	cfg       *storage.EditorConfig
	renderCfg *render.Config
	uiFace    font.Face

	docs   []*Document
	active int

	input    *InputManager
	keys     <-chan KeyEvent
	mouse    <-chan MouseButtonEvent
	ipcFiles <-chan []string

	console      *javascript.Console
	builds       *BuildRunner
	consoleLines []string
	status       string

	lastDump     time.Time
	closeAskedAt time.Time
	onExit       func()
	width        int
	height       int
}

// New creates the editor with one empty document.
func New(opts Options) *Editor {
	cfg := opts.Config
	if cfg == nil {
		cfg = storage.DefaultConfig()
	}
	input := NewInputManager()
	console := javascript.NewConsole(256)
	e := &Editor{
		cfg:       cfg,
		renderCfg: RenderConfig(cfg),
		uiFace:    basicfont.Face7x13,
		input:     input,
		keys:      input.Subscribe(),
		mouse:     input.SubscribeMouseEvents(),
		ipcFiles:  opts.Files,
		console:   console,
		builds:    NewBuildRunner(console, time.Duration(cfg.BuildTimeoutSeconds)*time.Second),
		lastDump:  time.Now(),
		onExit:    opts.OnExit,
		width:     1280,
		height:    800,
	}
	e.docs = []*Document{NewDocument("Untitled", e.renderCfg, cfg.HistoryLimit)}
	return e
}

// Active returns the document being edited.
func (e *Editor) Active() *Document { return e.docs[e.active] }

// Documents returns the open documents.
func (e *Editor) Documents() []*Document { return e.docs }

// Status returns the status bar text.
func (e *Editor) Status() string { return e.status }

func (e *Editor) setStatus(format string, args ...any) {
	e.status = fmt.Sprintf(format, args...)
	log.Printf("[APP] %s", e.status)
}

// AddDocument opens doc in a new tab, replacing the initial empty
// document when it was never touched.
func (e *Editor) AddDocument(doc *Document) {
	if len(e.docs) == 1 && e.docs[0].Path == "" && !e.docs[0].Session.Dirty() && e.docs[0].Session.Tree().Len() == 0 {
		e.docs[0] = doc
		e.active = 0
		return
	}
	e.docs = append(e.docs, doc)
	e.active = len(e.docs) - 1
}

// RestoreDumps reopens the scenes of crash dumps as modified documents and
// returns how many were restored. A dump is deleted only once its document
// is open; the next periodic dump writes it again.
func (e *Editor) RestoreDumps(dumps []storage.Dump) int {
	restored := 0
	for _, d := range dumps {
		doc, err := RestoreDocument(d, e.renderCfg, e.cfg.HistoryLimit)
		if err != nil {
			log.Printf("[APP] cannot restore the dump of %q: %v", d.Path, err)
			continue
		}
		e.AddDocument(doc)
		restored++
		log.Printf("[APP] restored %s from the crash dump of %s", doc.Title(), d.Written.Format(time.RFC3339))
		if err := storage.RemoveDump(d.Path, doc.Session.Scene.Name); err != nil {
			log.Printf("[APP] failed to remove the dump of %s: %v", doc.Title(), err)
		}
	}
	if restored > 0 {
		// Dump the restored documents on the next frame.
		e.lastDump = time.Time{}
	}
	return restored
}

// OpenFile opens a scene file, or switches to it when already open.
func (e *Editor) OpenFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	for i, d := range e.docs {
		if d.Path == abs {
			e.active = i
			return nil
		}
	}
	doc, err := OpenDocument(abs, e.renderCfg, e.cfg.HistoryLimit)
	if errors.Is(err, os.ErrNotExist) {
		// Saving creates the file
		doc = NewDocument(strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)), e.renderCfg, e.cfg.HistoryLimit)
		doc.Path = abs
	} else if err != nil {
		return err
	}
	e.AddDocument(doc)
	e.cfg.AddRecentFile(abs)
	if err := storage.SaveConfig(e.cfg); err != nil {
		log.Printf("[APP] failed to save config: %v", err)
	}
	e.setStatus("Opened %s", filepath.Base(abs))
	return nil
}

// openFiles opens every path, reporting failures as toasts.
func (e *Editor) openFiles(paths []string) {
	for _, p := range paths {
		if err := e.OpenFile(p); err != nil {
			e.setStatus("Cannot open %s: %v", p, err)
			NewToast().Text(e.status, ToastOption{Colour: color.RGBA{255, 120, 120, 255}}).Show()
		}
	}
}

// Update updates the editor state
func (e *Editor) Update() error {
	// Handle panic recovery for the Update loop
	defer HandlePanic()

	if pn := GetPanicNotifier(); pn.IsVisible() && pn.Update() {
		return nil
	}

	if ebiten.IsWindowBeingClosed() {
		if e.requestClose() {
			return ebiten.Termination
		}
	}

	e.input.Update()
	GetToastManager().Update()
	e.drainChannels()

	if _, dy := ebiten.Wheel(); dy != 0 {
		e.scroll(-int(dy * scrollStep))
	}
	mx, my := ebiten.CursorPosition()
	e.Active().Session.Hover(mx, my)

	e.pollBuild()
	e.dumpPeriodically(time.Now())
	return nil
}

// drainChannels processes the events queued since the last frame
func (e *Editor) drainChannels() {
	for {
		select {
		case paths := <-e.ipcFiles:
			e.openFiles(paths)
			NewToast().Text(fmt.Sprintf("Opened %d file(s) from another window", len(paths)), ToastOption{}).Show()
		case ev := <-e.keys:
			e.handleKey(ev)
		case ev := <-e.mouse:
			e.handleMouse(ev)
		default:
			return
		}
	}
}

func (e *Editor) handleKey(ev KeyEvent) {
	if !ev.Pressed {
		return
	}
	switch {
	case ev.Key == ebiten.KeyTab && ev.Control:
		e.active = (e.active + 1) % len(e.docs)
		return
	case ev.Key == ebiten.KeyPageDown:
		e.scroll(e.height / 2)
		return
	case ev.Key == ebiten.KeyPageUp:
		e.scroll(-e.height / 2)
		return
	case ev.Key == ebiten.KeyF11:
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
		return
	}
	if cmd := commandForKey(e.cfg.Keybinds, ev); cmd != CommandNone {
		e.Execute(cmd)
	}
}

func (e *Editor) handleMouse(ev MouseButtonEvent) {
	if !ev.Pressed || ev.Button != ebiten.MouseButtonLeft {
		return
	}
	if ev.Y < tabBarHeight {
		e.clickTab(ev.X)
		return
	}
	e.Active().Session.Click(ev.X, ev.Y, ev.Control || ev.Shift)
}

func (e *Editor) clickTab(x int) {
	tabX := 0
	for i, d := range e.docs {
		w := render.MeasureText(e.uiFace, d.Title()) + 20
		if x >= tabX && x < tabX+w {
			e.active = i
			return
		}
		tabX += w
	}
}

// eventsViewport returns the area where events are drawn.
func (e *Editor) eventsViewport() image.Rectangle {
	return image.Rect(0, tabBarHeight, e.width, e.height-consoleHeight)
}

func (e *Editor) scroll(dy int) {
	doc := e.Active()
	view := e.eventsViewport()
	maxScroll := max(doc.Session.Height(view.Dx())-view.Dy()+20, 0)
	doc.Scroll = min(max(doc.Scroll+dy, 0), maxScroll)
}

func (e *Editor) pollBuild() {
	for _, msg := range e.console.Drain() {
		e.consoleLines = append(e.consoleLines, fmt.Sprintf("[%s] %s", msg.Source, msg.Text))
	}
	if n := len(e.consoleLines) - maxConsoleLines; n > 0 {
		e.consoleLines = e.consoleLines[n:]
	}
	res, ok := e.builds.Poll()
	if !ok {
		return
	}
	e.setStatus("%s", res.Summary())
	e.consoleLines = append(e.consoleLines, e.status)
	colour := color.RGBA{120, 255, 120, 255}
	if res.Err != nil {
		colour = color.RGBA{255, 120, 120, 255}
	}
	NewToast().Text(e.status, ToastOption{Colour: colour}).Show()
}

// dumpPeriodically writes recovery copies of the modified documents.
func (e *Editor) dumpPeriodically(now time.Time) {
	if now.Sub(e.lastDump) < dumpInterval {
		return
	}
	e.lastDump = now
	e.DumpAll()
}

// DumpAll writes recovery copies of the modified documents now.
func (e *Editor) DumpAll() {
	for _, d := range e.docs {
		if _, err := d.Dump(); err != nil {
			log.Printf("[APP] dump of %s failed: %v", d.Title(), err)
		}
	}
}

// requestClose reports whether the window may close. With unsaved changes
// the first request only warns.
func (e *Editor) requestClose() bool {
	dirty := 0
	for _, d := range e.docs {
		if d.Session.Dirty() {
			dirty++
		}
	}
	if dirty > 0 && time.Since(e.closeAskedAt) > closeConfirmTime {
		e.closeAskedAt = time.Now()
		NewToast().
			Text(fmt.Sprintf("%d document(s) have unsaved changes.", dirty), ToastOption{Colour: color.RGBA{255, 200, 120, 255}}).
			Text("Close the window again to quit without saving.", ToastOption{}).
			AutoClose(closeConfirmTime).
			Show()
		return false
	}
	if err := storage.ClearDumps(); err != nil {
		log.Printf("[APP] failed to clear dumps: %v", err)
	}
	if e.onExit != nil {
		e.onExit()
	}
	return true
}

// Draw draws the editor
func (e *Editor) Draw(screen *ebiten.Image) {
	// Handle panic recovery for the Draw loop
	defer HandlePanic()

	screen.Fill(e.renderCfg.Colors.Background)
	e.drawEvents(screen)
	e.drawTabs(screen)
	e.drawConsole(screen)

	GetToastManager().Draw(screen)

	if pn := GetPanicNotifier(); pn.IsVisible() {
		pn.Draw(screen)
	}
}

func (e *Editor) drawEvents(screen *ebiten.Image) {
	view := e.eventsViewport()
	sub, ok := screen.SubImage(view).(*ebiten.Image)
	if !ok {
		return
	}
	doc := e.Active()
	// SubImage keeps the coordinates of screen, so areas match the cursor.
	doc.Session.Render(NewEbitenSurface(sub), view.Min.X, view.Min.Y-doc.Scroll, view.Dx())
}

func (e *Editor) drawTabs(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, float32(e.width), tabBarHeight, color.RGBA{225, 230, 238, 255}, false)
	ascent := e.uiFace.Metrics().Ascent.Ceil()
	x := 0
	for i, d := range e.docs {
		title := d.Title()
		w := render.MeasureText(e.uiFace, title) + 20
		if i == e.active {
			vector.DrawFilledRect(screen, float32(x), 0, float32(w), tabBarHeight, color.White, false)
		}
		vector.StrokeRect(screen, float32(x)+0.5, 0.5, float32(w-1), tabBarHeight-1, 1, e.renderCfg.Colors.EventBorder, false)
		text.Draw(screen, title, e.uiFace, x+10, (tabBarHeight-ascent)/2+ascent, color.Black)
		x += w
	}
}

func (e *Editor) drawConsole(screen *ebiten.Image) {
	top := e.height - consoleHeight
	vector.DrawFilledRect(screen, 0, float32(top), float32(e.width), consoleHeight, color.RGBA{30, 32, 38, 255}, false)

	lineH := e.uiFace.Metrics().Height.Ceil()
	ascent := e.uiFace.Metrics().Ascent.Ceil()
	status := e.status
	if e.builds.Running() {
		status = "Building..."
	}
	text.Draw(screen, status, e.uiFace, 8, top+4+ascent, color.RGBA{200, 220, 255, 255})

	visible := (consoleHeight - lineH - 8) / lineH
	lines := e.consoleLines
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	for i, line := range lines {
		text.Draw(screen, line, e.uiFace, 8, top+4+(i+1)*lineH+ascent, color.RGBA{220, 220, 220, 255})
	}
}

// Layout returns the layout of the editor
func (e *Editor) Layout(outsideWidth, outsideHeight int) (int, int) {
	e.width = max(outsideWidth, 640)
	e.height = max(outsideHeight, 400)
	return e.width, e.height
}

// Run starts the ebiten loop. It returns when the window is closed.
func (e *Editor) Run() error {
	ebiten.SetWindowTitle("GDIDE Events Editor")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(e.width, e.height)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(ebiten.SyncWithFPS)

	err := ebiten.RunGameWithOptions(e, &ebiten.RunGameOptions{
		X11ClassName:    "GDIDE",
		X11InstanceName: "gdide",
	})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}
