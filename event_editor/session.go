package eventeditor

import (
	"fmt"
	"log"
	"slices"
	"strings"

	"gdide/render"
	"gdide/typedef"
)

// DefaultHistoryLimit is the number of undo steps kept by a session.
const DefaultHistoryLimit = 100

type snapshot struct {
	tree        *Tree
	description string
}

// Session is the editing state of the events of one scene: the tree, the
// selection, the areas of the last render and the undo history. It is
// owned by the UI goroutine.
type Session struct {
	Scene     *typedef.Scene
	Selection *render.Selection
	Areas     *render.Areas

	tree   *Tree
	helper *render.Helper

	undo         []snapshot
	redo         []snapshot
	historyLimit int
	dirty        bool
}

// NewSession starts editing t. A nil tree starts an empty one.
func NewSession(scene *typedef.Scene, t *Tree, cfg *render.Config) *Session {
	if scene == nil {
		scene = typedef.NewScene("")
	}
	if t == nil {
		t = NewTree()
	}
	return &Session{
		Scene:        scene,
		Selection:    render.NewSelection(),
		Areas:        render.NewAreas(),
		tree:         t,
		helper:       render.NewHelper(cfg),
		historyLimit: DefaultHistoryLimit,
	}
}

// Tree returns the edited tree. It changes on undo and redo.
func (s *Session) Tree() *Tree { return s.tree }

// Helper returns the rendering helper of the session.
func (s *Session) Helper() *render.Helper { return s.helper }

// Dirty reports whether the events changed since the last MarkSaved.
func (s *Session) Dirty() bool { return s.dirty }

// MarkSaved clears the dirty flag.
func (s *Session) MarkSaved() { s.dirty = false }

// MarkModified sets the dirty flag without recording an undo step.
func (s *Session) MarkModified() { s.dirty = true }

// SetHistoryLimit bounds the number of undo steps.
func (s *Session) SetHistoryLimit(n int) {
	s.historyLimit = max(n, 1)
	s.trimHistory()
}

// record saves the current tree before an edit.
func (s *Session) record(description string) {
	s.undo = append(s.undo, snapshot{tree: s.tree.Clone(), description: description})
	s.redo = nil
	s.trimHistory()
	s.dirty = true
}

func (s *Session) trimHistory() {
	if extra := len(s.undo) - s.historyLimit; extra > 0 {
		s.undo = slices.Delete(s.undo, 0, extra)
	}
}

// CanUndo reports whether there is an edit to undo.
func (s *Session) CanUndo() bool { return len(s.undo) > 0 }

// CanRedo reports whether there is an undone edit to redo.
func (s *Session) CanRedo() bool { return len(s.redo) > 0 }

// Undo restores the tree as it was before the last edit and returns the
// description of that edit.
func (s *Session) Undo() (string, bool) {
	if len(s.undo) == 0 {
		return "", false
	}
	last := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, snapshot{tree: s.tree, description: last.description})
	s.tree = last.tree
	s.Selection.Clear()
	s.dirty = true
	log.Printf("[EVENTS] undo: %s", last.description)
	return last.description, true
}

// Redo applies again the last undone edit.
func (s *Session) Redo() (string, bool) {
	if len(s.redo) == 0 {
		return "", false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, snapshot{tree: s.tree, description: next.description})
	s.tree = next.tree
	s.Selection.Clear()
	s.dirty = true
	log.Printf("[EVENTS] redo: %s", next.description)
	return next.description, true
}

// InsertionPoint returns where new events go: after the selected event
// that comes last in the document, or at the end of the root events.
func (s *Session) InsertionPoint() (typedef.EventID, int) {
	if selected := s.selectedEventsInOrder(); len(selected) > 0 {
		last := selected[len(selected)-1]
		return s.tree.Parent(last), s.tree.IndexOf(last) + 1
	}
	return typedef.NoEvent, len(s.tree.roots)
}

// selectedEventsInOrder returns the selected events in document order.
func (s *Session) selectedEventsInOrder() []typedef.EventID {
	var ordered []typedef.EventID
	s.tree.Walk(typedef.NoEvent, func(id typedef.EventID, _ int) bool {
		if s.Selection.IsEventSelected(id) {
			ordered = append(ordered, id)
		}
		return true
	})
	return ordered
}

// InsertEvent creates an event of the given type at index among the
// children of parent and selects it.
func (s *Session) InsertEvent(parent typedef.EventID, index int, eventType string) (typedef.EventID, error) {
	ev, err := NewEvent(eventType)
	if err != nil {
		return typedef.NoEvent, err
	}
	if err := s.tree.checkParent(parent); err != nil {
		return typedef.NoEvent, err
	}
	s.record("Insert " + shortTypeName(eventType))
	id, err := s.tree.Insert(parent, index, ev)
	if err != nil {
		return typedef.NoEvent, err
	}
	s.Selection.SelectEvent(id, false)
	return id, nil
}

// InsertWhileEvent inserts an empty while loop.
func (s *Session) InsertWhileEvent(parent typedef.EventID, index int) (typedef.EventID, error) {
	return s.InsertEvent(parent, index, WhileEventType)
}

// list resolves the instructions list designated by ref.
func (s *Session) list(ref render.ItemRef) (*typedef.InstructionList, error) {
	ev := s.tree.Event(ref.Event)
	if ev == nil {
		return nil, fmt.Errorf("event %d: %w", ref.Event, ErrNoSuchEvent)
	}
	lists := ev.GetAllConditionsVectors()
	if ref.Kind == typedef.KindAction {
		lists = ev.GetAllActionsVectors()
	}
	if ref.Slot < 0 || ref.Slot >= len(lists) {
		return nil, fmt.Errorf("event %d has no %s list %d", ref.Event, ref.Kind, ref.Slot)
	}
	return lists[ref.Slot], nil
}

// AddInstruction inserts instr after the instruction designated by ref,
// or at the end of the list when ref designates a whole list.
func (s *Session) AddInstruction(ref render.ItemRef, instr typedef.Instruction) error {
	list, err := s.list(ref)
	if err != nil {
		return err
	}
	s.record("Add " + instr.Type)
	index := list.Len()
	if !ref.IsList() {
		index = ref.Index + 1
	}
	list.Insert(index, instr)
	return nil
}

// SetInstruction replaces the instruction designated by ref.
func (s *Session) SetInstruction(ref render.ItemRef, instr typedef.Instruction) error {
	list, err := s.list(ref)
	if err != nil {
		return err
	}
	if ref.IsList() || ref.Index >= list.Len() {
		return fmt.Errorf("no instruction %d in the list", ref.Index)
	}
	s.record("Edit " + instr.Type)
	list.Set(ref.Index, instr)
	return nil
}

// selectedInstructions returns the selected instructions, lists excluded.
func (s *Session) selectedInstructions() []render.ItemRef {
	return slices.DeleteFunc(s.Selection.SelectedInstructions(), func(r render.ItemRef) bool {
		return r.IsList()
	})
}

// DeleteSelection removes the selected instructions, or when none is
// selected, the selected events with their sub-events. It returns the
// number of removed items.
func (s *Session) DeleteSelection() int {
	if refs := s.selectedInstructions(); len(refs) > 0 {
		s.record("Delete instructions")
		removed := 0
		// Highest indexes first so the remaining refs stay valid.
		for i := len(refs) - 1; i >= 0; i-- {
			list, err := s.list(refs[i])
			if err != nil || refs[i].Index >= list.Len() {
				continue
			}
			list.Remove(refs[i].Index)
			removed++
		}
		s.Selection.Clear()
		return removed
	}

	var ids []typedef.EventID
	for _, id := range s.Selection.SelectedEvents() {
		if s.tree.Has(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	s.record("Delete events")
	removed := 0
	for _, id := range ids {
		// Already gone when an ancestor was removed first.
		if s.tree.Remove(id) == nil {
			removed++
		}
	}
	s.Selection.Clear()
	return removed
}

// ToggleDisabled flips the disabled flag of the selected events.
func (s *Session) ToggleDisabled() {
	s.toggle("Toggle disabled", func(b *EventBase) { b.SetDisabled(!b.IsDisabled()) })
}

// ToggleFolded flips the folded flag of the selected events.
func (s *Session) ToggleFolded() {
	s.toggle("Toggle folded", func(b *EventBase) { b.SetFolded(!b.IsFolded()) })
}

func (s *Session) toggle(description string, fn func(*EventBase)) {
	ids := s.Selection.SelectedEvents()
	if len(ids) == 0 {
		return
	}
	s.record(description)
	for _, id := range ids {
		if ev := s.tree.Event(id); ev != nil {
			fn(ev.Base())
		}
	}
}

// EditEvent opens the editor of an event and reports whether it changed.
func (s *Session) EditEvent(id typedef.EventID) (EditEventReturnType, error) {
	ev := s.tree.Event(id)
	if ev == nil {
		return Cancelled, fmt.Errorf("edit %d: %w", id, ErrNoSuchEvent)
	}
	res := ev.EditEvent()
	if res != Cancelled {
		s.dirty = true
	}
	return res, nil
}

// CopySelection serializes the selected instructions, or the selected
// events when no instruction is selected. It returns "" for an empty selection.
func (s *Session) CopySelection() (string, error) {
	if refs := s.selectedInstructions(); len(refs) > 0 {
		kind := refs[0].Kind
		var instrs []typedef.Instruction
		for _, r := range refs {
			if r.Kind != kind {
				continue
			}
			list, err := s.list(r)
			if err != nil || r.Index >= list.Len() {
				continue
			}
			instrs = append(instrs, list.At(r.Index))
		}
		return InstructionsToXML(kind, instrs)
	}
	ordered := s.selectedEventsInOrder()
	if len(ordered) == 0 {
		return "", nil
	}
	return EventsToXML(s.tree, ordered)
}

// Paste inserts clipboard text produced by CopySelection. Events go to the
// insertion point, instructions into the selected list.
func (s *Session) Paste(text string) error {
	text = strings.TrimSpace(text)
	switch {
	case strings.Contains(text, "<Instructions"):
		return s.pasteInstructions(text)
	case strings.Contains(text, "<Events"):
		src, err := EventsFromXML(text)
		if err != nil {
			return err
		}
		if len(src.roots) == 0 {
			return nil
		}
		parent, index := s.InsertionPoint()
		s.record("Paste events")
		ids, err := s.tree.Graft(parent, index, src)
		if err != nil {
			return err
		}
		s.Selection.Clear()
		for _, id := range ids {
			s.Selection.SelectEvent(id, true)
		}
		return nil
	}
	return fmt.Errorf("paste: clipboard holds no events nor instructions")
}

func (s *Session) pasteInstructions(text string) error {
	kind, instrs, err := InstructionsFromXML(text)
	if err != nil {
		return err
	}
	refs := s.Selection.SelectedInstructions()
	if len(refs) == 0 {
		return fmt.Errorf("paste: select a list to paste %ss into", kind)
	}
	target := refs[len(refs)-1]
	if target.Kind != kind {
		return fmt.Errorf("paste: cannot paste %ss into a %s list", kind, target.Kind)
	}
	list, err := s.list(target)
	if err != nil {
		return err
	}
	s.record("Paste instructions")
	index := list.Len()
	if !target.IsList() {
		index = target.Index + 1
	}
	for i, instr := range instrs {
		list.Insert(index+i, instr)
	}
	return nil
}

// Render draws the events and rebuilds the clickable areas.
func (s *Session) Render(surface render.Surface, x, y, width int) int {
	s.Areas.Clear()
	return RenderEvents(surface, s.tree, x, y, width, s.Areas, s.Selection, s.helper)
}

// Height returns the height of all the events drawn at width.
func (s *Session) Height(width int) int {
	return EventsHeight(s.tree, width, s.helper)
}

// Click selects what is under the point in the last render: an
// instruction or list first, then an event. Clicking nothing clears the
// selection. It reports whether something was hit.
func (s *Session) Click(x, y int, additive bool) bool {
	if ref, ok := s.Areas.InstructionAt(x, y); ok {
		s.Selection.SelectInstruction(ref, additive)
		return true
	}
	if id, ok := s.Areas.EventAt(x, y); ok {
		s.Selection.SelectEvent(id, additive)
		return true
	}
	if !additive {
		s.Selection.Clear()
	}
	return false
}

// Hover records the item under the mouse.
func (s *Session) Hover(x, y int) {
	if ref, ok := s.Areas.InstructionAt(x, y); ok {
		s.Selection.SetHovered(ref)
		return
	}
	s.Selection.ClearHovered()
}

// Snapshot returns a copy of the tree that a build can read while the
// session keeps being edited.
func (s *Session) Snapshot() *Tree { return s.tree.Clone() }

// Build generates the code of the scene from a snapshot of the tree.
func (s *Session) Build() string {
	return GenerateCode(s.Snapshot(), s.Scene, s.helper.Config().Metadata)
}

func shortTypeName(eventType string) string {
	if i := strings.LastIndex(eventType, "::"); i >= 0 {
		return eventType[i+2:]
	}
	return eventType
}
