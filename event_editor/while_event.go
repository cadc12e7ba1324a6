package eventeditor

import (
	"image"
	"strings"

	"gdide/codegen"
	"gdide/render"
	"gdide/typedef"

	"github.com/beevik/etree"
)

// WhileEventType is the type name of WhileEvent in files.
const WhileEventType = "BuiltinCommonInstructions::While"

// WhileEvent repeats its conditions, actions and sub-events as long as the
// while conditions are true. The while conditions are tested at the start
// of each pass; the loop body is a do/while ended by a flag.
type WhileEvent struct {
	EventBase

	WhileConditions *typedef.InstructionList
	Conditions      *typedef.InstructionList
	Actions         *typedef.InstructionList
}

// NewWhileEvent returns a loop with empty lists.
func NewWhileEvent() *WhileEvent {
	return &WhileEvent{
		EventBase:       newEventBase(),
		WhileConditions: typedef.NewInstructionList(),
		Conditions:      typedef.NewInstructionList(),
		Actions:         typedef.NewInstructionList(),
	}
}

func (e *WhileEvent) Type() string { return WhileEventType }

func (e *WhileEvent) Base() *EventBase { return &e.EventBase }

// GenerateEventCode writes the loop. Objects are picked again on every
// pass: the declarations are inside the loop body. Every condition of a
// list is evaluated before the predicate ANDs their flags.
func (e *WhileEvent) GenerateEventCode(g *codegen.Generator, node Node, parent *codegen.Context) string {
	ctx := parent.NewChild()
	stop := g.Names().New("stopDoWhile")

	whileCode, whileFlags := g.GenerateConditionsListCode(e.WhileConditions, ctx)
	conditionsCode, conditionFlags := g.GenerateConditionsListCode(e.Conditions, ctx)
	actionsCode := g.GenerateActionsListCode(e.Actions, ctx)
	subEventsCode := node.GenerateSubEventsCode(g, ctx)

	var b strings.Builder
	b.WriteString("let " + stop + " = false;\n")
	b.WriteString("do {\n")
	b.WriteString(ctx.GenerateObjectsDeclarationCode())
	b.WriteString(whileCode)
	b.WriteString("if (" + codegen.Predicate(whileFlags) + ") {\n")
	b.WriteString(conditionsCode)
	b.WriteString("if (" + codegen.Predicate(conditionFlags) + ") {\n")
	b.WriteString(actionsCode)
	writeSubEventsBlock(&b, subEventsCode)
	b.WriteString("}\n")
	b.WriteString("} else " + stop + " = true;\n")
	b.WriteString("} while (!" + stop + ");\n")
	return b.String()
}

func (e *WhileEvent) GetAllConditionsVectors() []*typedef.InstructionList {
	return []*typedef.InstructionList{e.WhileConditions, e.Conditions}
}

func (e *WhileEvent) GetAllActionsVectors() []*typedef.InstructionList {
	return []*typedef.InstructionList{e.Actions}
}

func (e *WhileEvent) SaveToXml(el *etree.Element, node Node) {
	SaveConditions(e.WhileConditions, el.CreateElement("WhileConditions"))
	SaveConditions(e.Conditions, el.CreateElement("Conditions"))
	SaveActions(e.Actions, el.CreateElement("Actions"))
	saveSubEvents(el, node)
}

func (e *WhileEvent) LoadFromXml(el *etree.Element, node Node) {
	openList(el, "WhileConditions", e.WhileConditions, typedef.KindCondition, WhileEventType)
	openList(el, "Conditions", e.Conditions, typedef.KindCondition, WhileEventType)
	openList(el, "Actions", e.Actions, typedef.KindAction, WhileEventType)
	openSubEvents(el, node)
}

func (e *WhileEvent) whileConditionsWidth(cfg *render.Config, width int) int {
	return max(width-cfg.LabelColumnWidth-cfg.InstructionsListBorder*2, minColumnWidth)
}

// Render draws, from top to bottom, the while conditions next to their
// label, the repeat band, then the conditions and actions columns with the
// sub-events below the actions.
func (e *WhileEvent) Render(s render.Surface, x, y, width int, node Node, areas *render.Areas, sel *render.Selection, h *render.Helper) {
	cfg := h.Config()
	border := cfg.InstructionsListBorder
	disabled := e.IsDisabled()
	labelColor := cfg.Colors.Text
	if disabled {
		labelColor = cfg.Colors.DisabledText
	}

	whileWidth := e.whileConditionsWidth(cfg, width)
	whileHeight := h.GetRenderedConditionsListHeight(e.WhileConditions, whileWidth) + border*2
	header := image.Rect(x, y, x+width, y+whileHeight)
	h.DrawNiceRectangle(s, header, cfg.Colors.HeaderFill)
	h.DrawBoldText(s, cfg.Label(render.LabelWhile), x+5, y+5, labelColor)
	h.DrawConditionsList(e.WhileConditions, s, x+cfg.LabelColumnWidth+border, y+border, whileWidth,
		render.ItemRef{Event: node.ID(), Slot: 0}, disabled, areas, sel)

	repeat := image.Rect(x, header.Max.Y, x+width, header.Max.Y+cfg.RepeatBandHeight)
	h.DrawNiceRectangle(s, repeat, cfg.Colors.HeaderFill)
	h.DrawBoldText(s, cfg.Label(render.LabelRepeat), x+4, repeat.Min.Y+(cfg.RepeatBandHeight-cfg.LineHeight())/2, labelColor)

	bodyHeight := e.GetRenderedHeight(width, node, h) - whileHeight - cfg.RepeatBandHeight
	renderColumns(s, x, repeat.Max.Y, width, bodyHeight, node, e.Conditions, 1, e.Actions, areas, sel, h)
}

// GetRenderedHeight returns max(conditions, actions + sub-events) plus the
// while conditions, the repeat band and the borders. The result is cached
// until the width or anything in the event subtree changes.
func (e *WhileEvent) GetRenderedHeight(width int, node Node, h *render.Helper) int {
	cfg := h.Config()
	revision := node.Revision()
	if height, ok := e.height.lookup(cfg, width, revision); ok {
		return height
	}
	border := cfg.InstructionsListBorder
	whileHeight := h.GetRenderedConditionsListHeight(e.WhileConditions, e.whileConditionsWidth(cfg, width))
	height := columnsContentHeight(width, node, e.Conditions, e.Actions, h) +
		whileHeight + cfg.RepeatBandHeight + border*4
	e.height.store(cfg, width, revision, height)
	return height
}

// EditEvent has nothing to ask: the lists are edited in place.
func (e *WhileEvent) EditEvent() EditEventReturnType { return ChangesMade }

func (e *WhileEvent) Clone() Event {
	return &WhileEvent{
		EventBase:       e.EventBase.clone(),
		WhileConditions: e.WhileConditions.Clone(),
		Conditions:      e.Conditions.Clone(),
		Actions:         e.Actions.Clone(),
	}
}

func writeSubEventsBlock(b *strings.Builder, code string) {
	b.WriteString("{ // Subevents\n")
	b.WriteString(code)
	b.WriteString("} // Subevents end.\n")
}
