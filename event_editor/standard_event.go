package eventeditor

import (
	"image"
	"strings"

	"gdide/codegen"
	"gdide/render"
	"gdide/typedef"

	"github.com/beevik/etree"
)

// StandardEventType is the type name of StandardEvent in files.
const StandardEventType = "BuiltinCommonInstructions::Standard"

// StandardEvent runs its actions and sub-events once when all its
// conditions are true.
type StandardEvent struct {
	EventBase

	Conditions *typedef.InstructionList
	Actions    *typedef.InstructionList
}

// NewStandardEvent returns an event with empty lists.
func NewStandardEvent() *StandardEvent {
	return &StandardEvent{
		EventBase:  newEventBase(),
		Conditions: typedef.NewInstructionList(),
		Actions:    typedef.NewInstructionList(),
	}
}

func (e *StandardEvent) Type() string { return StandardEventType }

func (e *StandardEvent) Base() *EventBase { return &e.EventBase }

func (e *StandardEvent) GenerateEventCode(g *codegen.Generator, node Node, parent *codegen.Context) string {
	ctx := parent.NewChild()

	conditionsCode, flags := g.GenerateConditionsListCode(e.Conditions, ctx)
	actionsCode := g.GenerateActionsListCode(e.Actions, ctx)
	subEventsCode := node.GenerateSubEventsCode(g, ctx)

	var b strings.Builder
	b.WriteString(ctx.GenerateObjectsDeclarationCode())
	b.WriteString(conditionsCode)
	b.WriteString("if (" + codegen.Predicate(flags) + ") {\n")
	b.WriteString(actionsCode)
	if subEventsCode != "" {
		writeSubEventsBlock(&b, subEventsCode)
	}
	b.WriteString("}\n")
	return b.String()
}

func (e *StandardEvent) GetAllConditionsVectors() []*typedef.InstructionList {
	return []*typedef.InstructionList{e.Conditions}
}

func (e *StandardEvent) GetAllActionsVectors() []*typedef.InstructionList {
	return []*typedef.InstructionList{e.Actions}
}

func (e *StandardEvent) SaveToXml(el *etree.Element, node Node) {
	SaveConditions(e.Conditions, el.CreateElement("Conditions"))
	SaveActions(e.Actions, el.CreateElement("Actions"))
	saveSubEvents(el, node)
}

func (e *StandardEvent) LoadFromXml(el *etree.Element, node Node) {
	openList(el, "Conditions", e.Conditions, typedef.KindCondition, StandardEventType)
	openList(el, "Actions", e.Actions, typedef.KindAction, StandardEventType)
	openSubEvents(el, node)
}

func (e *StandardEvent) Render(s render.Surface, x, y, width int, node Node, areas *render.Areas, sel *render.Selection, h *render.Helper) {
	renderColumns(s, x, y, width, e.GetRenderedHeight(width, node, h), node, e.Conditions, 0, e.Actions, areas, sel, h)
}

func (e *StandardEvent) GetRenderedHeight(width int, node Node, h *render.Helper) int {
	cfg := h.Config()
	revision := node.Revision()
	if height, ok := e.height.lookup(cfg, width, revision); ok {
		return height
	}
	height := columnsContentHeight(width, node, e.Conditions, e.Actions, h) + cfg.InstructionsListBorder*2
	e.height.store(cfg, width, revision, height)
	return height
}

func (e *StandardEvent) EditEvent() EditEventReturnType { return ChangesMade }

func (e *StandardEvent) Clone() Event {
	return &StandardEvent{
		EventBase:  e.EventBase.clone(),
		Conditions: e.Conditions.Clone(),
		Actions:    e.Actions.Clone(),
	}
}

// columnsContentHeight is the height of the taller of the conditions column
// and the actions column with the sub-events, borders excluded.
func columnsContentHeight(width int, node Node, conditions, actions *typedef.InstructionList, h *render.Helper) int {
	_, condWidth, _, actWidth := columns(h.Config(), width)
	condHeight := h.GetRenderedConditionsListHeight(conditions, condWidth)
	actHeight := h.GetRenderedActionsListHeight(actions, actWidth) + node.SubEventsHeight(actWidth, h)
	return max(condHeight, actHeight)
}

// renderColumns draws the conditions and actions columns of an event in a
// band of the given height, the sub-events below the actions.
func renderColumns(s render.Surface, x, y, width, height int, node Node, conditions *typedef.InstructionList, condSlot int, actions *typedef.InstructionList, areas *render.Areas, sel *render.Selection, h *render.Helper) {
	cfg := h.Config()
	border := cfg.InstructionsListBorder
	disabled := node.Event().Base().IsDisabled()
	condX, condWidth, actX, actWidth := columns(cfg, width)

	h.DrawNiceRectangle(s, image.Rect(x, y, x+actX-border, y+height), cfg.Colors.ConditionsFill)
	h.DrawNiceRectangle(s, image.Rect(x+actX-border, y, x+width, y+height), cfg.Colors.ActionsFill)

	h.DrawConditionsList(conditions, s, x+condX, y+border, condWidth,
		render.ItemRef{Event: node.ID(), Slot: condSlot}, disabled, areas, sel)
	actHeight := h.DrawActionsList(actions, s, x+actX, y+border, actWidth,
		render.ItemRef{Event: node.ID(), Slot: 0}, disabled, areas, sel)
	node.RenderSubEvents(s, x+actX, y+border+actHeight, actWidth, areas, sel, h)
}
