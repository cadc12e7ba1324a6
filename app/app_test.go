package app

import (
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	eventeditor "gdide/event_editor"
	"gdide/javascript"
	"gdide/render"
	"gdide/storage"
	"gdide/typedef"

	"github.com/hajimehoshi/ebiten/v2"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "gdide-app-")
	if err != nil {
		panic(err)
	}
	os.Setenv("GDIDE_DATA_DIR", dir)
	log.SetOutput(io.Discard)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestKeyFromBinding(t *testing.T) {
	tests := []struct {
		binding string
		want    ebiten.Key
		ok      bool
	}{
		{"a", ebiten.KeyA, true},
		{"Z", ebiten.KeyZ, true},
		{"f5", ebiten.KeyF5, true},
		{"del", ebiten.KeyDelete, true},
		{"ArrowUp", ebiten.KeyArrowUp, true},
		{"", 0, false},
		{"F13", 0, false},
		{"ctrl", 0, false},
	}
	for _, tt := range tests {
		got, ok := keyFromBinding(tt.binding)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("keyFromBinding(%q) = %v, %v", tt.binding, got, ok)
		}
	}
}

func TestCommandForKey(t *testing.T) {
	kb := typedef.DefaultKeybinds()
	tests := []struct {
		name string
		ev   KeyEvent
		want Command
	}{
		{"ctrl+z undoes", KeyEvent{Key: ebiten.KeyZ, Pressed: true, Control: true}, CommandUndo},
		{"plain z types", KeyEvent{Key: ebiten.KeyZ, Pressed: true}, CommandNone},
		{"delete needs no modifier", KeyEvent{Key: ebiten.KeyDelete, Pressed: true}, CommandDeleteSelection},
		{"ctrl+delete is not delete", KeyEvent{Key: ebiten.KeyDelete, Pressed: true, Control: true}, CommandNone},
		{"f5 builds", KeyEvent{Key: ebiten.KeyF5, Pressed: true}, CommandBuild},
		{"release ignored", KeyEvent{Key: ebiten.KeyF5}, CommandNone},
		{"ctrl+w inserts a loop", KeyEvent{Key: ebiten.KeyW, Pressed: true, Control: true}, CommandInsertWhileEvent},
	}
	for _, tt := range tests {
		if got := commandForKey(kb, tt.ev); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	kb.Undo = ""
	if got := commandForKey(kb, KeyEvent{Key: ebiten.KeyZ, Pressed: true, Control: true}); got != CommandNone {
		t.Errorf("unbound undo still triggers %v", got)
	}
}

func TestEditorCommands(t *testing.T) {
	e := New(Options{})
	s := e.Active().Session

	e.Execute(CommandInsertWhileEvent)
	if s.Tree().Len() != 1 {
		t.Fatalf("events = %d", s.Tree().Len())
	}
	id := s.Tree().Roots()[0]
	if _, ok := s.Tree().Event(id).(*eventeditor.WhileEvent); !ok {
		t.Fatalf("inserted %T", s.Tree().Event(id))
	}

	// The new event is selected: conditions go to its first list.
	e.Execute(CommandAddCondition)
	e.Execute(CommandAddAction)
	loop := s.Tree().Event(id).(*eventeditor.WhileEvent)
	if loop.WhileConditions.Len() != 1 || loop.Actions.Len() != 1 {
		t.Fatalf("while conditions = %d, actions = %d", loop.WhileConditions.Len(), loop.Actions.Len())
	}

	e.Execute(CommandInsertEvent)
	if s.Tree().Len() != 2 || s.Tree().IndexOf(s.Selection.SelectedEvents()[0]) != 1 {
		t.Fatal("standard event not inserted after the loop")
	}

	e.Execute(CommandUndo)
	if s.Tree().Len() != 1 || !strings.HasPrefix(e.Status(), "Undo Insert") {
		t.Fatalf("after undo: %d events, status %q", s.Tree().Len(), e.Status())
	}
	e.Execute(CommandRedo)
	if s.Tree().Len() != 2 {
		t.Fatalf("after redo: %d events", s.Tree().Len())
	}

	s.Selection.Clear()
	e.Execute(CommandAddAction)
	if !strings.Contains(e.Status(), "select an event") {
		t.Fatalf("status = %q", e.Status())
	}
}

func TestInstructionTargetPrefersSelectedInstruction(t *testing.T) {
	e := New(Options{})
	s := e.Active().Session
	id, err := s.InsertEvent(typedef.NoEvent, 0, eventeditor.StandardEventType)
	if err != nil {
		t.Fatal(err)
	}
	ref, ok := instructionTarget(s.Selection, typedef.KindAction)
	if !ok || ref.Event != id || !ref.IsList() || ref.Kind != typedef.KindAction {
		t.Fatalf("ref = %+v", ref)
	}

	s.AddInstruction(ref, defaultAction)
	s.AddInstruction(ref, defaultAction)
	s.Selection.SelectInstruction(ref.ListRef(), false)
	first := ref
	first.Index = 0
	s.Selection.SelectInstruction(first, false)
	got, ok := instructionTarget(s.Selection, typedef.KindAction)
	if !ok || got != first {
		t.Fatalf("got %+v, want %+v", got, first)
	}
	// Conditions go to the first conditions list of the event of the selected action.
	cond, ok := instructionTarget(s.Selection, typedef.KindCondition)
	want := render.ItemRef{Event: id, Kind: typedef.KindCondition, Slot: 0, Index: -1}
	if !ok || cond != want {
		t.Fatalf("cond = %+v", cond)
	}
}

func TestOpenFileCreatesMissingAndSaves(t *testing.T) {
	e := New(Options{Config: storage.DefaultConfig()})
	path := filepath.Join(t.TempDir(), "level.xml")

	if err := e.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	if len(e.Documents()) != 1 || e.Active().Path != path {
		t.Fatalf("docs = %d, path = %q", len(e.Documents()), e.Active().Path)
	}
	if e.Active().Session.Scene.Name != "level" {
		t.Fatalf("scene name = %q", e.Active().Session.Scene.Name)
	}

	e.Execute(CommandInsertEvent)
	if e.Active().Title() != "level.xml*" {
		t.Fatalf("title = %q", e.Active().Title())
	}
	e.Execute(CommandSave)
	if e.Active().Title() != "level.xml" {
		t.Fatalf("title after save = %q", e.Active().Title())
	}

	other := New(Options{Config: storage.DefaultConfig()})
	if err := other.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	if other.Active().Session.Tree().Len() != 1 {
		t.Fatalf("reloaded %d events", other.Active().Session.Tree().Len())
	}
	// Opening again switches instead of duplicating.
	other.AddDocument(NewDocument("b", other.renderCfg, 10))
	if err := other.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	if len(other.Documents()) != 2 || other.Active().Path != path {
		t.Fatalf("docs = %d, active = %q", len(other.Documents()), other.Active().Path)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	doc := NewDocument("x", RenderConfig(storage.DefaultConfig()), 10)
	if err := doc.Save(); !errors.Is(err, ErrNoPath) {
		t.Fatalf("err = %v", err)
	}
}

func TestDocumentDumpAndRestore(t *testing.T) {
	storage.ClearDumps()
	cfg := RenderConfig(storage.DefaultConfig())
	doc := NewDocument("Level", cfg, 10)
	doc.Path = filepath.Join(t.TempDir(), "level.xml")

	if wrote, err := doc.Dump(); err != nil || wrote {
		t.Fatalf("clean document dumped: %v %v", wrote, err)
	}
	doc.Session.InsertWhileEvent(typedef.NoEvent, 0)
	if wrote, err := doc.Dump(); err != nil || !wrote {
		t.Fatalf("modified document not dumped: %v %v", wrote, err)
	}
	if wrote, _ := doc.Dump(); wrote {
		t.Fatal("unchanged document dumped twice")
	}

	dumps, err := storage.ReadDumps()
	if err != nil || len(dumps) != 1 {
		t.Fatalf("dumps = %d, err = %v", len(dumps), err)
	}
	restored, err := RestoreDocument(dumps[0], cfg, 10)
	if err != nil {
		t.Fatal(err)
	}
	if restored.Path != doc.Path || restored.Session.Tree().Len() != 1 || !restored.Session.Dirty() {
		t.Fatalf("restored %q with %d events", restored.Path, restored.Session.Tree().Len())
	}

	if err := doc.Save(); err != nil {
		t.Fatal(err)
	}
	if dumps, _ := storage.ReadDumps(); len(dumps) != 0 {
		t.Fatal("save should drop the dump")
	}
}

func TestRestoreDumpsKeepsFailedOnes(t *testing.T) {
	storage.ClearDumps()
	tree := eventeditor.NewTree()
	tree.Append(typedef.NoEvent, eventeditor.NewWhileEvent())
	path := filepath.Join(t.TempDir(), "crashed.xml")
	if err := storage.WriteDump(path, typedef.NewScene("crashed"), tree); err != nil {
		t.Fatal(err)
	}
	dumps, err := storage.ReadDumps()
	if err != nil || len(dumps) != 1 {
		t.Fatalf("dumps = %d, err = %v", len(dumps), err)
	}
	broken := storage.Dump{Path: filepath.Join(t.TempDir(), "broken.xml"), Scene: ""}

	e := New(Options{Config: storage.DefaultConfig()})
	if n := e.RestoreDumps(append(dumps, broken)); n != 1 {
		t.Fatalf("restored %d dumps, want 1", n)
	}
	if len(e.Documents()) != 1 || e.Active().Path != path || !e.Active().Session.Dirty() {
		t.Fatalf("docs = %d, active = %q", len(e.Documents()), e.Active().Path)
	}
	if left, _ := storage.ReadDumps(); len(left) != 0 {
		t.Fatalf("restored dump still on disk: %d", len(left))
	}

	e.dumpPeriodically(time.Now())
	if left, _ := storage.ReadDumps(); len(left) != 1 || left[0].Path != path {
		t.Fatal("restored document was not dumped again")
	}
	storage.ClearDumps()
}

func TestBuildRunner(t *testing.T) {
	tree := eventeditor.NewTree()
	loop := eventeditor.NewWhileEvent()
	loop.WhileConditions.Append(typedef.NewInstruction("VarScene", "n", "<", "3"))
	loop.Actions.Append(typedef.NewInstruction("ModVarScene", "n", "+", "1"))
	tree.Append(typedef.NoEvent, loop)

	console := javascript.NewConsole(16)
	b := NewBuildRunner(console, time.Second)
	if !b.Start("loop", tree.Clone(), typedef.NewScene("s"), typedef.StandardMetadata()) {
		t.Fatal("build not started")
	}

	deadline := time.After(5 * time.Second)
	for {
		if res, ok := b.Poll(); ok {
			if res.Err != nil {
				t.Fatal(res.Err)
			}
			if res.Variables["n"] != 3 || !strings.Contains(res.Code, "do {") {
				t.Fatalf("result = %+v", res)
			}
			if !strings.Contains(res.Summary(), "n=3") {
				t.Fatalf("summary = %q", res.Summary())
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("build did not finish")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestBuildRunnerTimeout(t *testing.T) {
	tree := eventeditor.NewTree()
	tree.Append(typedef.NoEvent, eventeditor.NewWhileEvent())

	b := NewBuildRunner(nil, 100*time.Millisecond)
	b.Start("forever", tree, typedef.NewScene("s"), typedef.StandardMetadata())
	if b.Start("again", tree, typedef.NewScene("s"), typedef.StandardMetadata()) {
		t.Fatal("second build started while the first runs")
	}
	deadline := time.After(5 * time.Second)
	for {
		if res, ok := b.Poll(); ok {
			if res.Err == nil || !strings.Contains(res.Summary(), "failed") {
				t.Fatalf("result = %+v", res)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("infinite loop was not interrupted")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestToastsExpire(t *testing.T) {
	tm := GetToastManager()
	now := time.Now()
	tm.now = func() time.Time { return now }
	defer func() { tm.now = time.Now }()

	before := tm.Len()
	NewToast().Text("hello", ToastOption{}).AutoClose(time.Second).Show()
	if tm.Len() != min(before+1, tm.maxToasts) {
		t.Fatalf("len = %d", tm.Len())
	}
	now = now.Add(time.Hour)
	tm.Update()
	if tm.Len() != 0 {
		t.Fatalf("len after expiry = %d", tm.Len())
	}
}
