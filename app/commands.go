package app

import (
	"errors"
	"image/color"
	"path/filepath"

	eventeditor "gdide/event_editor"
	"gdide/render"
	"gdide/typedef"
)

// Instructions added by the add condition and add action commands, edited
// afterwards.
var (
	defaultCondition = typedef.NewInstruction("VarScene", "score", "=", "0")
	defaultAction    = typedef.NewInstruction("ModVarScene", "score", "+", "1")
)

// Execute runs an editor command on the active document.
func (e *Editor) Execute(cmd Command) {
	doc := e.Active()
	s := doc.Session
	var err error

	switch cmd {
	case CommandInsertEvent:
		parent, index := s.InsertionPoint()
		_, err = s.InsertEvent(parent, index, eventeditor.StandardEventType)
	case CommandInsertWhileEvent:
		parent, index := s.InsertionPoint()
		_, err = s.InsertWhileEvent(parent, index)
	case CommandAddCondition:
		err = e.addInstruction(typedef.KindCondition, defaultCondition)
	case CommandAddAction:
		err = e.addInstruction(typedef.KindAction, defaultAction)
	case CommandDeleteSelection:
		if n := s.DeleteSelection(); n > 0 {
			e.setStatus("Deleted %d item(s)", n)
		}
	case CommandCopy:
		err = e.copySelection()
	case CommandPaste:
		var text string
		if text, err = readClipboard(); err == nil {
			err = s.Paste(text)
		}
	case CommandUndo:
		if desc, ok := s.Undo(); ok {
			e.setStatus("Undo %s", desc)
		}
	case CommandRedo:
		if desc, ok := s.Redo(); ok {
			e.setStatus("Redo %s", desc)
		}
	case CommandToggleDisabled:
		s.ToggleDisabled()
	case CommandToggleFolded:
		s.ToggleFolded()
	case CommandBuild:
		e.build()
	case CommandSave:
		err = e.save(doc)
	}

	if err != nil {
		e.setStatus("%v", err)
		NewToast().Text(e.status, ToastOption{Colour: color.RGBA{255, 120, 120, 255}}).Show()
	}
}

// instructionTarget picks where a new instruction of kind goes: after the
// selected instruction or at the end of the selected list, else at the end
// of the first list of the selected event.
func instructionTarget(sel *render.Selection, kind typedef.InstructionKind) (render.ItemRef, bool) {
	refs := sel.SelectedInstructions()
	for i := len(refs) - 1; i >= 0; i-- {
		if refs[i].Kind == kind {
			return refs[i], true
		}
	}
	events := sel.SelectedEvents()
	if len(events) == 0 {
		return render.ItemRef{}, false
	}
	return render.ItemRef{Event: events[len(events)-1], Kind: kind, Slot: 0, Index: -1}, true
}

func (e *Editor) addInstruction(kind typedef.InstructionKind, instr typedef.Instruction) error {
	s := e.Active().Session
	ref, ok := instructionTarget(s.Selection, kind)
	if !ok {
		return errors.New("select an event or a list first")
	}
	return s.AddInstruction(ref, instr)
}

func (e *Editor) copySelection() error {
	text, err := e.Active().Session.CopySelection()
	if err != nil || text == "" {
		return err
	}
	return writeClipboard(text)
}

func (e *Editor) build() {
	doc := e.Active()
	name := doc.Title()
	if !e.builds.Start(name, doc.Session.Snapshot(), doc.Session.Scene, e.renderCfg.Metadata) {
		e.setStatus("A build is already running")
		return
	}
	e.setStatus("Building %s", name)
}

func (e *Editor) save(doc *Document) error {
	if err := doc.Save(); err != nil {
		if errors.Is(err, ErrNoPath) {
			return errors.New("this scene has no file yet, start the editor with a file path to save it")
		}
		return err
	}
	e.setStatus("Saved %s", filepath.Base(doc.Path))
	return nil
}
