package eventeditor

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"gdide/codegen"
	"gdide/render"
	"gdide/typedef"
)

func newSampleWhile() *WhileEvent {
	e := NewWhileEvent()
	e.WhileConditions.Append(typedef.NewInstruction("VarScene", "a", "=", "1"))
	e.Conditions.Append(typedef.NewInstruction("VarScene", "b", "<", "2"))
	e.Actions.Append(typedef.NewInstruction("ModVarScene", "c", "+", "1"))
	return e
}

func generate(t *testing.T, tree *Tree, id typedef.EventID) string {
	t.Helper()
	g := codegen.NewGenerator(typedef.NewScene("test"), typedef.StandardMetadata())
	return tree.Node(id).GenerateCode(g, g.NewRootContext())
}

func TestWhileEventGeneratesDoWhileWithExitFlag(t *testing.T) {
	tree := NewTree()
	id, _ := tree.Append(typedef.NoEvent, newSampleWhile())

	want := `let stopDoWhile = false;
do {
let condition0IsTrue = runtime.compareVariable("a", "==", 1);
if (true && condition0IsTrue) {
let condition0IsTrue2 = runtime.compareVariable("b", "<", 2);
if (true && condition0IsTrue2) {
runtime.modifyVariable("c", "+", 1);
{ // Subevents
} // Subevents end.
}
} else stopDoWhile = true;
} while (!stopDoWhile);
`
	if got := generate(t, tree, id); got != want {
		t.Fatalf("generated code:\n%s\nwant:\n%s", got, want)
	}
}

// Empty lists give always true predicates: the loop only ends if
// something outside of it stops the scene.
func TestEmptyWhileEventLoopsForever(t *testing.T) {
	tree := NewTree()
	id, _ := tree.Append(typedef.NoEvent, NewWhileEvent())

	want := `let stopDoWhile = false;
do {
if (true) {
if (true) {
{ // Subevents
} // Subevents end.
}
} else stopDoWhile = true;
} while (!stopDoWhile);
`
	if got := generate(t, tree, id); got != want {
		t.Fatalf("generated code:\n%s\nwant:\n%s", got, want)
	}
}

func TestNestedLoopsUseDistinctNames(t *testing.T) {
	tree := NewTree()
	outer, _ := tree.Append(typedef.NoEvent, newSampleWhile())
	tree.Append(outer, newSampleWhile())

	code := generate(t, tree, outer)
	for _, name := range []string{"let stopDoWhile = false;", "let stopDoWhile2 = false;", "while (!stopDoWhile2);",
		"let condition0IsTrue3 =", "let condition0IsTrue4 ="} {
		if !strings.Contains(code, name) {
			t.Errorf("missing %q in:\n%s", name, code)
		}
	}
}

func TestLoopPicksObjectsAgainFromParent(t *testing.T) {
	tree := NewTree()
	std := NewStandardEvent()
	std.Conditions.Append(typedef.NewInstruction("PosX", "Hero", ">", "10"))
	parent, _ := tree.Append(typedef.NoEvent, std)
	loop := NewWhileEvent()
	loop.WhileConditions.Append(typedef.NewInstruction("NbObjet", "Hero", ">", "0"))
	loop.Actions.Append(typedef.NewInstruction("Delete", "Hero"))
	tree.Append(parent, loop)

	code := generate(t, tree, parent)
	first := strings.Index(code, `let HeroObjects = runtime.getObjects("Hero");`)
	inner := strings.Index(code, "let HeroObjects2 = HeroObjects.slice();")
	doAt := strings.Index(code, "do {")
	if first < 0 || inner < 0 || doAt < 0 {
		t.Fatalf("missing declarations in:\n%s", code)
	}
	if !(first < doAt && doAt < inner) {
		t.Fatalf("loop objects must be declared inside the loop:\n%s", code)
	}
	if !strings.Contains(code, "for (const o of HeroObjects2) runtime.deleteObject(o);") {
		t.Fatalf("action does not use the loop list:\n%s", code)
	}
}

func TestDisabledEventGeneratesNothing(t *testing.T) {
	tree := NewTree()
	e := newSampleWhile()
	e.SetDisabled(true)
	tree.Append(typedef.NoEvent, e)

	code := GenerateCode(tree, nil, typedef.StandardMetadata())
	if code != "function runScene(runtime) {\n}\n" {
		t.Fatalf("code = %q", code)
	}
}

func TestListsAliasEventStorage(t *testing.T) {
	e := NewWhileEvent()
	conds := e.GetAllConditionsVectors()
	if len(conds) != 2 || conds[0] != e.WhileConditions || conds[1] != e.Conditions {
		t.Fatal("conditions vectors must be the while conditions then the conditions")
	}
	acts := e.GetAllActionsVectors()
	acts[0].Append(typedef.NewInstruction("Delete", "Hero"))
	if e.Actions.Len() != 1 {
		t.Fatal("mutation through the vector is not visible")
	}
	if e.EditEvent() != ChangesMade {
		t.Fatal("EditEvent must report changes")
	}
}

func TestWhileEventXMLRoundTrip(t *testing.T) {
	tree := NewTree()
	loop := newSampleWhile()
	loop.Conditions.Append(typedef.NewInstruction("PosX", "Hero", ">", "3").WithInverted(true))
	loop.SetFolded(true)
	id, _ := tree.Append(typedef.NoEvent, loop)
	sub := NewStandardEvent()
	sub.Actions.Append(typedef.NewInstruction("DebugLog", "inside"))
	subID, _ := tree.Append(id, sub)
	tree.Append(subID, NewWhileEvent())
	tree.Append(typedef.NoEvent, NewStandardEvent())

	text, err := EventsToXML(tree, tree.Roots())
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := EventsFromXML(text)
	if err != nil {
		t.Fatal(err)
	}
	if !sameForest(tree, typedef.NoEvent, loaded, typedef.NoEvent) {
		t.Fatalf("round trip changed the events:\n%s", text)
	}
	got := loaded.Event(loaded.Roots()[0])
	if !got.Base().IsFolded() || got.Base().IsDisabled() {
		t.Fatal("flags were not restored")
	}
}

func TestParameterWhitespaceSurvivesXML(t *testing.T) {
	params := []string{"a\r\nb", "tab\there", "line\nbreak", "\r", "  padded  ", `<&>"'`}
	for _, p := range params {
		tree := NewTree()
		loop := NewWhileEvent()
		loop.Actions.Append(typedef.NewInstruction("DebugLog", p))
		tree.Append(typedef.NoEvent, loop)

		text, err := EventsToXML(tree, tree.Roots())
		if err != nil {
			t.Fatal(err)
		}
		loaded, err := EventsFromXML(text)
		if err != nil {
			t.Fatal(err)
		}
		got := loaded.Event(loaded.Roots()[0]).(*WhileEvent).Actions.At(0).Parameter(0)
		if got != p {
			t.Errorf("events: %q came back as %q", p, got)
		}

		clip, err := InstructionsToXML(typedef.KindAction, loop.Actions.All())
		if err != nil {
			t.Fatal(err)
		}
		_, instrs, err := InstructionsFromXML(clip)
		if err != nil {
			t.Fatal(err)
		}
		if len(instrs) != 1 || instrs[0].Parameter(0) != p {
			t.Errorf("instructions: %q came back as %+v", p, instrs)
		}

		var buf bytes.Buffer
		scene := typedef.NewScene("s")
		if err := WriteScene(&buf, scene, tree); err != nil {
			t.Fatal(err)
		}
		_, sceneTree, err := ReadScene(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if got := sceneTree.Event(sceneTree.Roots()[0]).(*WhileEvent).Actions.At(0).Parameter(0); got != p {
			t.Errorf("scene: %q came back as %q", p, got)
		}
	}
}

func TestEmptySubEventsAreNotWritten(t *testing.T) {
	tree := NewTree()
	tree.Append(typedef.NoEvent, NewWhileEvent())
	text, err := EventsToXML(tree, tree.Roots())
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(text, "<Events"); n != 1 {
		t.Fatalf("found %d <Events> elements, want only the root:\n%s", n, text)
	}
	for _, tag := range []string{"<WhileConditions/>", "<Conditions/>", "<Actions/>"} {
		if !strings.Contains(text, tag) {
			t.Errorf("missing empty %s in:\n%s", tag, text)
		}
	}
}

func TestMissingActionsIsAnEmptyList(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	text := `<Events>
  <Event>
    <Type value="BuiltinCommonInstructions::While"/>
    <WhileConditions>
      <Condition><Type value="VarScene" inverted="false"/><Parameter value="a"/><Parameter value="="/><Parameter value="1"/></Condition>
    </WhileConditions>
    <Conditions/>
  </Event>
</Events>`
	tree, err := EventsFromXML(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Roots()) != 1 {
		t.Fatalf("roots = %d", len(tree.Roots()))
	}
	e := tree.Event(tree.Roots()[0]).(*WhileEvent)
	if e.WhileConditions.Len() != 1 || !e.Actions.IsEmpty() {
		t.Fatalf("while conditions = %d, actions = %d", e.WhileConditions.Len(), e.Actions.Len())
	}
	if !strings.Contains(buf.String(), "missing <Actions>") {
		t.Fatalf("no warning logged: %q", buf.String())
	}
}

func TestUnknownEventTypeIsSkipped(t *testing.T) {
	log.SetOutput(&bytes.Buffer{})
	defer log.SetOutput(os.Stderr)

	text := `<Events>
  <Event><Type value="Unknown::Thing"/></Event>
  <Event><Type value="BuiltinCommonInstructions::Standard"/><Conditions/><Actions/></Event>
</Events>`
	tree, err := EventsFromXML(text)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Len() != 1 || tree.Event(tree.Roots()[0]).Type() != StandardEventType {
		t.Fatalf("expected only the standard event, got %d events", tree.Len())
	}
}

func TestRenderedHeightIsMemoized(t *testing.T) {
	h := render.NewHelper(nil)
	tree := NewTree()
	loop := NewWhileEvent()
	id, _ := tree.Append(typedef.NoEvent, loop)
	node := tree.Node(id)

	if got := loop.GetRenderedHeight(800, node, h); got != 60 {
		t.Fatalf("empty loop height = %d, want 60", got)
	}
	loop.GetRenderedHeight(800, node, h)
	if loop.height.computations != 1 {
		t.Fatalf("computations = %d, want 1", loop.height.computations)
	}

	for i := 0; i < 3; i++ {
		loop.Actions.Append(typedef.NewInstruction("ModVarScene", "c", "+", "1"))
	}
	if got := loop.GetRenderedHeight(800, node, h); got != 93 {
		t.Fatalf("height after edit = %d, want 93", got)
	}
	if loop.height.computations != 2 {
		t.Fatalf("computations = %d, want 2", loop.height.computations)
	}

	loop.GetRenderedHeight(600, node, h)
	if loop.height.computations != 3 {
		t.Fatal("a new width must recompute")
	}
}

func TestSubEventEditInvalidatesParentHeight(t *testing.T) {
	h := render.NewHelper(nil)
	tree := NewTree()
	loop := NewWhileEvent()
	id, _ := tree.Append(typedef.NoEvent, loop)
	before := loop.GetRenderedHeight(800, tree.Node(id), h)

	sub := NewStandardEvent()
	tree.Append(id, sub)
	withSub := loop.GetRenderedHeight(800, tree.Node(id), h)
	if withSub <= before {
		t.Fatalf("adding a sub-event: %d <= %d", withSub, before)
	}

	sub.Actions.Append(typedef.NewInstruction("ModVarScene", "c", "+", "1"))
	if got := loop.GetRenderedHeight(800, tree.Node(id), h); got <= withSub {
		t.Fatalf("editing a sub-event: %d <= %d", got, withSub)
	}

	loop.SetFolded(true)
	folded := loop.GetRenderedHeight(800, tree.Node(id), h)
	if folded >= withSub {
		t.Fatalf("folded height %d should be smaller than %d", folded, withSub)
	}
}

func TestRenderRegistersAreas(t *testing.T) {
	h := render.NewHelper(nil)
	tree := NewTree()
	id, _ := tree.Append(typedef.NoEvent, newSampleWhile())
	areas := render.NewAreas()
	sel := render.NewSelection()
	surface := render.NewImageSurface(800, 200, h.Config().Colors.Background)

	height := RenderEvents(surface, tree, 0, 0, 800, areas, sel, h)
	if height != tree.Node(id).Height(800, h) {
		t.Fatalf("rendered %d, measured %d", height, tree.Node(id).Height(800, h))
	}
	items, events := areas.Len()
	// Three lists and three instructions.
	if items != 6 || events != 1 {
		t.Fatalf("areas = %d items, %d events", items, events)
	}
	ref, ok := areas.InstructionAt(100, 5)
	if !ok || ref.Kind != typedef.KindCondition || ref.Slot != 0 || ref.Index != 0 {
		t.Fatalf("while condition hit = %+v, %v", ref, ok)
	}
	if got, _ := areas.EventAt(5, 5); got != id {
		t.Fatalf("EventAt = %d", got)
	}
}

func TestWhileEventCloneIsDeep(t *testing.T) {
	e := newSampleWhile()
	c := e.Clone().(*WhileEvent)
	c.Actions.Append(typedef.NewInstruction("Delete", "Hero"))
	c.WhileConditions.Clear()
	if e.Actions.Len() != 1 || e.WhileConditions.Len() != 1 {
		t.Fatal("clone shares lists with the original")
	}
}

// sameForest compares the children of a in ta and b in tb, recursively.
func sameForest(ta *Tree, a typedef.EventID, tb *Tree, b typedef.EventID) bool {
	ca, cb := ta.Children(a), tb.Children(b)
	if len(ca) != len(cb) {
		return false
	}
	for i := range ca {
		ea, eb := ta.Event(ca[i]), tb.Event(cb[i])
		if ea.Type() != eb.Type() || !sameLists(ea.GetAllConditionsVectors(), eb.GetAllConditionsVectors()) ||
			!sameLists(ea.GetAllActionsVectors(), eb.GetAllActionsVectors()) {
			return false
		}
		if !sameForest(ta, ca[i], tb, cb[i]) {
			return false
		}
	}
	return true
}

func sameLists(a, b []*typedef.InstructionList) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
