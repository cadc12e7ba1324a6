package eventeditor

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"gdide/typedef"

	"github.com/beevik/etree"
)

// ErrNotAScene is returned when a document has no <Scene> root.
var ErrNotAScene = errors.New("document is not a scene")

// SaveConditions writes each condition of list as a <Condition> child of el.
func SaveConditions(list *typedef.InstructionList, el *etree.Element) {
	saveInstructions(list, el, "Condition")
}

// SaveActions writes each action of list as an <Action> child of el.
func SaveActions(list *typedef.InstructionList, el *etree.Element) {
	saveInstructions(list, el, "Action")
}

// OpenConditions replaces the content of list by the <Condition> children of el.
func OpenConditions(list *typedef.InstructionList, el *etree.Element) {
	list.Replace(openInstructions(el, "Condition"))
}

// OpenActions replaces the content of list by the <Action> children of el.
func OpenActions(list *typedef.InstructionList, el *etree.Element) {
	list.Replace(openInstructions(el, "Action"))
}

func saveInstructions(list *typedef.InstructionList, el *etree.Element, tag string) {
	for _, instr := range list.All() {
		writeInstruction(el.CreateElement(tag), instr)
	}
}

func writeInstruction(el *etree.Element, instr typedef.Instruction) {
	t := el.CreateElement("Type")
	t.CreateAttr("value", instr.Type)
	t.CreateAttr("inverted", strconv.FormatBool(instr.Inverted))
	for _, p := range instr.Parameters {
		el.CreateElement("Parameter").CreateAttr("value", p)
	}
}

func openInstructions(el *etree.Element, tag string) []typedef.Instruction {
	var instrs []typedef.Instruction
	for _, child := range el.SelectElements(tag) {
		instr, ok := readInstruction(child)
		if ok {
			instrs = append(instrs, instr)
		}
	}
	return instrs
}

func readInstruction(el *etree.Element) (typedef.Instruction, bool) {
	t := el.SelectElement("Type")
	if t == nil {
		log.Printf("[EVENTS] <%s> without <Type>, skipped", el.Tag)
		return typedef.Instruction{}, false
	}
	instr := typedef.Instruction{
		Type:     t.SelectAttrValue("value", ""),
		Inverted: t.SelectAttrValue("inverted", "false") == "true",
	}
	for _, p := range el.SelectElements("Parameter") {
		instr.Parameters = append(instr.Parameters, p.SelectAttrValue("value", ""))
	}
	return instr, true
}

// openList loads the list stored in the child tag of el. A missing child
// is not an error: the list is left empty and a warning is logged.
func openList(el *etree.Element, tag string, list *typedef.InstructionList, kind typedef.InstructionKind, eventType string) {
	child := el.SelectElement(tag)
	if child == nil {
		log.Printf("[EVENTS] %s: missing <%s>, treated as empty", eventType, tag)
		list.Clear()
		return
	}
	if kind == typedef.KindAction {
		OpenActions(list, child)
	} else {
		OpenConditions(list, child)
	}
}

// SaveEvents writes the events ids of t, with their sub-events, as <Event>
// children of el.
func SaveEvents(t *Tree, ids []typedef.EventID, el *etree.Element) {
	for _, id := range ids {
		ev := t.Event(id)
		if ev == nil {
			continue
		}
		e := el.CreateElement("Event")
		e.CreateAttr("disabled", strconv.FormatBool(ev.Base().IsDisabled()))
		e.CreateAttr("folded", strconv.FormatBool(ev.Base().IsFolded()))
		e.CreateElement("Type").CreateAttr("value", ev.Type())
		ev.SaveToXml(e, t.Node(id))
	}
}

// OpenEvents loads the <Event> children of el and appends them to the
// children of parent. Events of unknown types are skipped with a warning.
// It returns the ids of the loaded events.
func OpenEvents(t *Tree, parent typedef.EventID, el *etree.Element) []typedef.EventID {
	var ids []typedef.EventID
	for _, e := range el.SelectElements("Event") {
		typeEl := e.SelectElement("Type")
		if typeEl == nil {
			log.Printf("[EVENTS] <Event> without <Type>, skipped")
			continue
		}
		ev, err := NewEvent(typeEl.SelectAttrValue("value", ""))
		if err != nil {
			log.Printf("[EVENTS] %v, event skipped", err)
			continue
		}
		ev.Base().disabled = e.SelectAttrValue("disabled", "false") == "true"
		ev.Base().folded = e.SelectAttrValue("folded", "false") == "true"
		id, err := t.Append(parent, ev)
		if err != nil {
			log.Printf("[EVENTS] cannot load event: %v", err)
			continue
		}
		ev.LoadFromXml(e, t.Node(id))
		ids = append(ids, id)
	}
	return ids
}

// saveSubEvents writes the <Events> child of an event, omitted when it has
// no sub-events.
func saveSubEvents(el *etree.Element, node Node) {
	if !node.HasSubEvents() {
		return
	}
	SaveEvents(node.Tree(), node.Tree().Children(node.ID()), el.CreateElement("Events"))
}

func openSubEvents(el *etree.Element, node Node) {
	if sub := el.SelectElement("Events"); sub != nil {
		OpenEvents(node.Tree(), node.ID(), sub)
	}
}

// newWriteDocument returns a document whose attribute values keep tabs,
// newlines and carriage returns as character references, so parameters
// survive the attribute value normalization of the parser.
func newWriteDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.WriteSettings.CanonicalAttrVal = true
	return doc
}

// EventsToXML serializes events of t (with their sub-events) as an
// <Events> document, the format used by the clipboard.
func EventsToXML(t *Tree, ids []typedef.EventID) (string, error) {
	doc := newWriteDocument()
	SaveEvents(t, ids, doc.CreateElement("Events"))
	doc.Indent(2)
	return doc.WriteToString()
}

// EventsFromXML parses an <Events> document into a new tree.
func EventsFromXML(s string) (*Tree, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return nil, fmt.Errorf("parse events: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Events" {
		return nil, fmt.Errorf("parse events: no <Events> root")
	}
	t := NewTree()
	OpenEvents(t, typedef.NoEvent, root)
	return t, nil
}

// InstructionsToXML serializes instructions as an <Instructions> document
// holding <Condition> or <Action> elements.
func InstructionsToXML(kind typedef.InstructionKind, instrs []typedef.Instruction) (string, error) {
	doc := newWriteDocument()
	root := doc.CreateElement("Instructions")
	saveInstructions(typedef.NewInstructionList(instrs...), root, instructionTag(kind))
	doc.Indent(2)
	return doc.WriteToString()
}

// InstructionsFromXML parses an <Instructions> document. The kind is the
// one of the first element found.
func InstructionsFromXML(s string) (typedef.InstructionKind, []typedef.Instruction, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return typedef.KindCondition, nil, fmt.Errorf("parse instructions: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Instructions" {
		return typedef.KindCondition, nil, fmt.Errorf("parse instructions: no <Instructions> root")
	}
	if actions := openInstructions(root, "Action"); len(actions) > 0 {
		return typedef.KindAction, actions, nil
	}
	return typedef.KindCondition, openInstructions(root, "Condition"), nil
}

func instructionTag(kind typedef.InstructionKind) string {
	if kind == typedef.KindAction {
		return "Action"
	}
	return "Condition"
}

// WriteScene saves a scene and its events as an XML document.
func WriteScene(w io.Writer, scene *typedef.Scene, t *Tree) error {
	doc := newWriteDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Scene")
	root.CreateAttr("name", scene.Name)

	objects := root.CreateElement("Objects")
	for _, name := range scene.Objects {
		objects.CreateElement("Object").CreateAttr("name", name)
	}
	groups := root.CreateElement("Groups")
	for _, name := range scene.GroupNames() {
		g := groups.CreateElement("Group")
		g.CreateAttr("name", name)
		for _, member := range scene.GroupMembers(name) {
			g.CreateElement("Object").CreateAttr("name", member)
		}
	}
	SaveEvents(t, t.Roots(), root.CreateElement("Events"))

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write scene %q: %w", scene.Name, err)
	}
	return nil
}

// ReadScene loads a scene document written by WriteScene.
func ReadScene(r io.Reader) (*typedef.Scene, *Tree, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, nil, fmt.Errorf("read scene: %w", err)
	}
	root := doc.SelectElement("Scene")
	if root == nil {
		return nil, nil, ErrNotAScene
	}
	scene := typedef.NewScene(root.SelectAttrValue("name", ""))
	if objects := root.SelectElement("Objects"); objects != nil {
		for _, o := range objects.SelectElements("Object") {
			scene.AddObject(o.SelectAttrValue("name", ""))
		}
	}
	if groups := root.SelectElement("Groups"); groups != nil {
		for _, g := range groups.SelectElements("Group") {
			var members []string
			for _, o := range g.SelectElements("Object") {
				members = append(members, o.SelectAttrValue("name", ""))
			}
			scene.AddGroup(g.SelectAttrValue("name", ""), members...)
		}
	}

	t := NewTree()
	if events := root.SelectElement("Events"); events != nil {
		OpenEvents(t, typedef.NoEvent, events)
	} else {
		log.Printf("[EVENTS] scene %q: missing <Events>, treated as empty", scene.Name)
	}
	return scene, t, nil
}
