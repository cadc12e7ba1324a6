package eventeditor

import (
	"image"

	"gdide/codegen"
	"gdide/render"
	"gdide/typedef"
)

// Node is a handle on an event at its position in a tree. Events use it to
// reach their sub-events.
type Node struct {
	tree *Tree
	id   typedef.EventID
}

// ID returns the id of the event in its tree.
func (n Node) ID() typedef.EventID { return n.id }

// Tree returns the tree holding the event.
func (n Node) Tree() *Tree { return n.tree }

// Event returns the event, nil for a dead node.
func (n Node) Event() Event { return n.tree.Event(n.id) }

// SubEvents returns handles on the sub-events, in order.
func (n Node) SubEvents() []Node {
	ids := n.tree.Children(n.id)
	nodes := make([]Node, len(ids))
	for i, id := range ids {
		nodes[i] = Node{tree: n.tree, id: id}
	}
	return nodes
}

// HasSubEvents reports whether the event has at least one sub-event.
func (n Node) HasSubEvents() bool {
	return len(n.tree.Children(n.id)) > 0
}

// Revision returns the revision of the subtree rooted at the event.
func (n Node) Revision() uint64 { return n.tree.Revision(n.id) }

// GenerateCode writes the code of the event. Disabled events write nothing.
func (n Node) GenerateCode(g *codegen.Generator, parent *codegen.Context) string {
	ev := n.Event()
	if ev == nil || ev.Base().IsDisabled() {
		return ""
	}
	return ev.GenerateEventCode(g, n, parent)
}

// GenerateSubEventsCode writes the code of the sub-events in ctx.
func (n Node) GenerateSubEventsCode(g *codegen.Generator, ctx *codegen.Context) string {
	return g.GenerateEventsListCode(n.tree.Codes(n.tree.Children(n.id)), ctx)
}

// Height returns the rendered height of the event at width.
func (n Node) Height(width int, h *render.Helper) int {
	return n.Event().GetRenderedHeight(width, n, h)
}

// Render draws the event and records its area. It returns the height used.
func (n Node) Render(s render.Surface, x, y, width int, areas *render.Areas, sel *render.Selection, h *render.Helper) int {
	ev := n.Event()
	height := ev.GetRenderedHeight(width, n, h)
	r := image.Rect(x, y, x+width, y+height)
	// Recorded before the sub-events so that they win hit tests.
	if areas != nil {
		areas.AddEventArea(r, n.id)
	}
	ev.Render(s, x, y, width, n, areas, sel, h)
	if sel != nil && sel.IsEventSelected(n.id) {
		c := h.Config().Colors.SelectedEvent
		s.StrokeRect(r, c)
		s.StrokeRect(r.Inset(1), c)
	}
	return height
}

// SubEventsHeight returns the height of the sub-events drawn at width.
// Folded sub-events take a single placeholder line.
func (n Node) SubEventsHeight(width int, h *render.Helper) int {
	if !n.HasSubEvents() {
		return 0
	}
	cfg := h.Config()
	if n.Event().Base().IsFolded() {
		return cfg.EmptyListHeight
	}
	height := 0
	for _, sub := range n.SubEvents() {
		height += sub.Height(width-cfg.SubEventsIndent, h)
	}
	return height
}

// RenderSubEvents draws the sub-events below each other, indented.
func (n Node) RenderSubEvents(s render.Surface, x, y, width int, areas *render.Areas, sel *render.Selection, h *render.Helper) int {
	if !n.HasSubEvents() {
		return 0
	}
	cfg := h.Config()
	if n.Event().Base().IsFolded() {
		s.DrawText(cfg.Label(render.LabelFolded), x+cfg.SubEventsIndent, y+(cfg.EmptyListHeight-cfg.LineHeight())/2, cfg.Face, cfg.Colors.PlaceholderText)
		return cfg.EmptyListHeight
	}
	cy := y
	for _, sub := range n.SubEvents() {
		cy += sub.Render(s, x+cfg.SubEventsIndent, cy, width-cfg.SubEventsIndent, areas, sel, h)
	}
	return cy - y
}

// RenderEvents draws the root events of a tree from top to bottom and
// returns the total height.
func RenderEvents(s render.Surface, t *Tree, x, y, width int, areas *render.Areas, sel *render.Selection, h *render.Helper) int {
	cy := y
	for _, id := range t.roots {
		cy += t.Node(id).Render(s, x, cy, width, areas, sel, h)
	}
	return cy - y
}

// EventsHeight returns the height RenderEvents would use.
func EventsHeight(t *Tree, width int, h *render.Helper) int {
	height := 0
	for _, id := range t.roots {
		height += t.Node(id).Height(width, h)
	}
	return height
}

// GenerateCode generates the scene function for the events of t.
func GenerateCode(t *Tree, scene *typedef.Scene, meta *typedef.MetadataHolder) string {
	g := codegen.NewGenerator(scene, meta)
	return g.GenerateSceneCode(t.Codes(t.Roots()))
}

// columns splits a width into the conditions and the actions columns.
func columns(cfg *render.Config, width int) (condX, condW, actX, actW int) {
	b := cfg.InstructionsListBorder
	condX = b
	condW = max(cfg.ConditionsColumnWidth-b, minColumnWidth)
	actX = condX + condW + b
	actW = max(width-actX-b, minColumnWidth)
	return
}

const minColumnWidth = 40
