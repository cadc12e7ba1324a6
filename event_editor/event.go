package eventeditor

import (
	"errors"
	"fmt"
	"sort"

	"gdide/codegen"
	"gdide/render"
	"gdide/typedef"

	"github.com/beevik/etree"
)

var (
	// ErrUnknownEvent is returned when creating an event of an unregistered type.
	ErrUnknownEvent = errors.New("unknown event type")
	// ErrNoSuchEvent is returned for ids that are not alive in a tree.
	ErrNoSuchEvent = errors.New("no such event")
	// ErrCycle is returned when a move would put an event below itself.
	ErrCycle = errors.New("an event cannot be moved below itself")
)

// EditEventReturnType tells the editor what an event editor did.
type EditEventReturnType int

const (
	ChangesMade EditEventReturnType = iota
	ChangesMadeButNoNeedForCompilation
	Cancelled
)

// Event is one block of the events tree. Sub-events are not owned by the
// event itself but by the Tree holding it; node gives access to them.
type Event interface {
	Type() string
	Base() *EventBase

	GenerateEventCode(g *codegen.Generator, node Node, parent *codegen.Context) string

	// Returned lists alias the event storage.
	GetAllConditionsVectors() []*typedef.InstructionList
	GetAllActionsVectors() []*typedef.InstructionList

	SaveToXml(el *etree.Element, node Node)
	LoadFromXml(el *etree.Element, node Node)

	Render(s render.Surface, x, y, width int, node Node, areas *render.Areas, sel *render.Selection, h *render.Helper)
	GetRenderedHeight(width int, node Node, h *render.Helper) int

	EditEvent() EditEventReturnType

	// Clone deep copies the event. Sub-events are copied by the tree.
	Clone() Event
}

// EventBase holds the state shared by every event type: flags, a revision
// stamp for flag changes and the memoized rendered height.
type EventBase struct {
	disabled bool
	folded   bool
	revision uint64
	height   heightCache
}

func newEventBase() EventBase {
	return EventBase{revision: typedef.NextRevision()}
}

// IsDisabled reports whether the event is skipped by code generation.
func (b *EventBase) IsDisabled() bool { return b.disabled }

// SetDisabled enables or disables the event.
func (b *EventBase) SetDisabled(disabled bool) {
	b.disabled = disabled
	b.revision = typedef.NextRevision()
}

// IsFolded reports whether the sub-events are hidden in the editor.
func (b *EventBase) IsFolded() bool { return b.folded }

// SetFolded folds or unfolds the sub-events.
func (b *EventBase) SetFolded(folded bool) {
	b.folded = folded
	b.revision = typedef.NextRevision()
}

// Revision returns the stamp of the last flag change.
func (b *EventBase) Revision() uint64 { return b.revision }

func (b *EventBase) clone() EventBase {
	return EventBase{disabled: b.disabled, folded: b.folded, revision: typedef.NextRevision()}
}

// heightCache memoizes a rendered height for a width, a config and the
// revision of the event subtree it was measured on.
type heightCache struct {
	cfg          *render.Config
	width        int
	revision     uint64
	height       int
	valid        bool
	computations int
}

func (c *heightCache) lookup(cfg *render.Config, width int, revision uint64) (int, bool) {
	if !c.valid || c.cfg != cfg || c.width != width || c.revision != revision {
		return 0, false
	}
	return c.height, true
}

func (c *heightCache) store(cfg *render.Config, width int, revision uint64, height int) {
	c.cfg, c.width, c.revision, c.height, c.valid = cfg, width, revision, height, true
	c.computations++
}

// contentRevision is the newest stamp among the flags and lists of an event.
func contentRevision(ev Event) uint64 {
	rev := ev.Base().Revision()
	for _, l := range ev.GetAllConditionsVectors() {
		rev = max(rev, l.Revision())
	}
	for _, l := range ev.GetAllActionsVectors() {
		rev = max(rev, l.Revision())
	}
	return rev
}

// Factory creates an empty event of a registered type.
type Factory func() Event

var eventTypes = make(map[string]Factory)

// RegisterEventType makes an event type available to NewEvent and to the
// XML loader. Registering a type twice replaces its factory.
func RegisterEventType(eventType string, factory Factory) {
	eventTypes[eventType] = factory
}

// NewEvent creates an empty event of the given type.
func NewEvent(eventType string) (Event, error) {
	factory, ok := eventTypes[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, eventType)
	}
	return factory(), nil
}

// EventTypes lists the registered event types, sorted.
func EventTypes() []string {
	types := make([]string, 0, len(eventTypes))
	for t := range eventTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func init() {
	RegisterEventType(StandardEventType, func() Event { return NewStandardEvent() })
	RegisterEventType(WhileEventType, func() Event { return NewWhileEvent() })
}
