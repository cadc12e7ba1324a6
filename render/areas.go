package render

import (
	"image"
	"sort"

	"gdide/typedef"
)

// ItemRef designates an instruction, or a whole instructions list when
// Index is -1. Slot is the position of the list among the condition (or
// action) lists of the event.
type ItemRef struct {
	Event typedef.EventID
	Kind  typedef.InstructionKind
	Slot  int
	Index int
}

// ListRef returns the reference of the list holding the item.
func (r ItemRef) ListRef() ItemRef {
	r.Index = -1
	return r
}

// IsList reports whether the reference designates a list rather than an instruction.
func (r ItemRef) IsList() bool { return r.Index < 0 }

type itemArea struct {
	rect image.Rectangle
	ref  ItemRef
}

type eventArea struct {
	rect image.Rectangle
	id   typedef.EventID
}

// Areas records the clickable rectangles of one render pass.
// It is cleared before each repaint.
type Areas struct {
	items  []itemArea
	events []eventArea
}

// NewAreas returns an empty recorder.
func NewAreas() *Areas { return &Areas{} }

// Clear forgets every recorded area.
func (a *Areas) Clear() {
	a.items = a.items[:0]
	a.events = a.events[:0]
}

// AddInstructionArea records the rectangle of an instruction or of a list.
func (a *Areas) AddInstructionArea(r image.Rectangle, ref ItemRef) {
	a.items = append(a.items, itemArea{r, ref})
}

// AddEventArea records the rectangle of an event.
func (a *Areas) AddEventArea(r image.Rectangle, id typedef.EventID) {
	a.events = append(a.events, eventArea{r, id})
}

// InstructionAt returns the instruction under the point, preferring
// instructions over the list containing them.
func (a *Areas) InstructionAt(x, y int) (ItemRef, bool) {
	p := image.Pt(x, y)
	var (
		found ItemRef
		ok    bool
	)
	for i := len(a.items) - 1; i >= 0; i-- {
		it := a.items[i]
		if !p.In(it.rect) {
			continue
		}
		if !it.ref.IsList() {
			return it.ref, true
		}
		if !ok {
			found, ok = it.ref, true
		}
	}
	return found, ok
}

// EventAt returns the innermost event under the point. Sub-events are
// recorded after their parent, so the last match wins.
func (a *Areas) EventAt(x, y int) (typedef.EventID, bool) {
	p := image.Pt(x, y)
	for i := len(a.events) - 1; i >= 0; i-- {
		if p.In(a.events[i].rect) {
			return a.events[i].id, true
		}
	}
	return typedef.NoEvent, false
}

// EventRect returns the rectangle recorded for an event.
func (a *Areas) EventRect(id typedef.EventID) (image.Rectangle, bool) {
	for _, e := range a.events {
		if e.id == id {
			return e.rect, true
		}
	}
	return image.Rectangle{}, false
}

// InstructionRect returns the rectangle recorded for an instruction or list.
func (a *Areas) InstructionRect(ref ItemRef) (image.Rectangle, bool) {
	for _, it := range a.items {
		if it.ref == ref {
			return it.rect, true
		}
	}
	return image.Rectangle{}, false
}

// Len returns the number of instruction and event areas.
func (a *Areas) Len() (items, events int) {
	return len(a.items), len(a.events)
}

// Selection is the selection state of the events editor.
type Selection struct {
	events       map[typedef.EventID]bool
	instructions map[ItemRef]bool
	hovered      ItemRef
	hasHover     bool
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{
		events:       make(map[typedef.EventID]bool),
		instructions: make(map[ItemRef]bool),
	}
}

// Clear deselects everything, hover included.
func (s *Selection) Clear() {
	clear(s.events)
	clear(s.instructions)
	s.hasHover = false
}

// SelectEvent selects an event. Without additive, the previous selection is dropped.
func (s *Selection) SelectEvent(id typedef.EventID, additive bool) {
	if !additive {
		clear(s.events)
		clear(s.instructions)
	}
	s.events[id] = true
}

// SelectInstruction selects an instruction (or a list) and its event.
func (s *Selection) SelectInstruction(ref ItemRef, additive bool) {
	if !additive {
		clear(s.events)
		clear(s.instructions)
	}
	s.instructions[ref] = true
	s.events[ref.Event] = true
}

// IsEventSelected reports whether the event is selected.
func (s *Selection) IsEventSelected(id typedef.EventID) bool { return s.events[id] }

// IsInstructionSelected reports whether the instruction or list is selected.
func (s *Selection) IsInstructionSelected(ref ItemRef) bool { return s.instructions[ref] }

// SetHovered records the item under the mouse.
func (s *Selection) SetHovered(ref ItemRef) {
	s.hovered, s.hasHover = ref, true
}

// ClearHovered forgets the hovered item.
func (s *Selection) ClearHovered() { s.hasHover = false }

// IsHovered reports whether ref is the hovered item.
func (s *Selection) IsHovered(ref ItemRef) bool { return s.hasHover && s.hovered == ref }

// SelectedEvents returns the selected events, sorted by id.
func (s *Selection) SelectedEvents() []typedef.EventID {
	ids := make([]typedef.EventID, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// SelectedInstructions returns the selected instructions and lists, ordered
// by event, kind, slot and index.
func (s *Selection) SelectedInstructions() []ItemRef {
	refs := make([]ItemRef, 0, len(s.instructions))
	for r := range s.instructions {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if a.Event != b.Event {
			return a.Event < b.Event
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.Index < b.Index
	})
	return refs
}

// RemoveEvent drops an event and its instructions from the selection.
func (s *Selection) RemoveEvent(id typedef.EventID) {
	delete(s.events, id)
	for r := range s.instructions {
		if r.Event == id {
			delete(s.instructions, r)
		}
	}
	if s.hasHover && s.hovered.Event == id {
		s.hasHover = false
	}
}
