package eventeditor

import (
	"errors"
	"reflect"
	"testing"

	"gdide/typedef"
)

func buildTree(t *testing.T) (*Tree, []typedef.EventID) {
	t.Helper()
	tree := NewTree()
	a, _ := tree.Append(typedef.NoEvent, NewStandardEvent())
	b, _ := tree.Append(a, newSampleWhile())
	c, _ := tree.Append(b, NewStandardEvent())
	d, _ := tree.Append(typedef.NoEvent, NewWhileEvent())
	return tree, []typedef.EventID{a, b, c, d}
}

func TestTreeInsertAndWalk(t *testing.T) {
	tree, ids := buildTree(t)
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]

	x, err := tree.Insert(typedef.NoEvent, 1, NewStandardEvent())
	if err != nil {
		t.Fatal(err)
	}
	if got := tree.Roots(); !reflect.DeepEqual(got, []typedef.EventID{a, x, d}) {
		t.Fatalf("roots = %v", got)
	}

	var order []typedef.EventID
	var depths []int
	tree.Walk(typedef.NoEvent, func(id typedef.EventID, depth int) bool {
		order = append(order, id)
		depths = append(depths, depth)
		return true
	})
	if !reflect.DeepEqual(order, []typedef.EventID{a, b, c, x, d}) || !reflect.DeepEqual(depths, []int{0, 1, 2, 0, 0}) {
		t.Fatalf("walk = %v %v", order, depths)
	}

	if _, err := tree.Insert(99, 0, NewStandardEvent()); !errors.Is(err, ErrNoSuchEvent) {
		t.Fatalf("insert under a missing parent: %v", err)
	}
}

func TestTreeRemoveDeletesSubtree(t *testing.T) {
	tree, ids := buildTree(t)
	if err := tree.Remove(ids[1]); err != nil {
		t.Fatal(err)
	}
	if tree.Has(ids[1]) || tree.Has(ids[2]) || tree.Len() != 2 {
		t.Fatalf("subtree still alive, len = %d", tree.Len())
	}
	if len(tree.Children(ids[0])) != 0 {
		t.Fatal("parent still lists the removed event")
	}
	if err := tree.Remove(ids[1]); !errors.Is(err, ErrNoSuchEvent) {
		t.Fatalf("second remove: %v", err)
	}
}

func TestTreeMoveRefusesCycles(t *testing.T) {
	tree, ids := buildTree(t)
	a, c, d := ids[0], ids[2], ids[3]

	if err := tree.Move(a, c, 0); !errors.Is(err, ErrCycle) {
		t.Fatalf("move below a descendant: %v", err)
	}
	if err := tree.Move(a, a, 0); !errors.Is(err, ErrCycle) {
		t.Fatalf("move below itself: %v", err)
	}
	if err := tree.Move(d, c, 0); err != nil {
		t.Fatal(err)
	}
	if tree.Parent(d) != c || !tree.IsAncestor(a, d) {
		t.Fatal("moved event is not below its new parent")
	}
	if got := tree.Roots(); !reflect.DeepEqual(got, []typedef.EventID{a}) {
		t.Fatalf("roots = %v", got)
	}
}

func TestTreeRevisionGrowsOnEveryChange(t *testing.T) {
	tree, ids := buildTree(t)
	rev := tree.Revision(ids[0])

	tree.Event(ids[2]).(*StandardEvent).Conditions.Append(typedef.NewInstruction("VarScene"))
	if r := tree.Revision(ids[0]); r <= rev {
		t.Fatal("editing a grandchild list did not change the revision")
	} else {
		rev = r
	}
	tree.Event(ids[1]).Base().SetDisabled(true)
	if r := tree.Revision(ids[0]); r <= rev {
		t.Fatal("changing a flag did not change the revision")
	} else {
		rev = r
	}
	tree.Remove(ids[2])
	if r := tree.Revision(ids[0]); r <= rev {
		t.Fatal("removing a sub-event did not change the revision")
	}
	rootRev := tree.Revision(typedef.NoEvent)
	tree.Append(typedef.NoEvent, NewStandardEvent())
	if tree.Revision(typedef.NoEvent) <= rootRev {
		t.Fatal("adding a root did not change the tree revision")
	}
}

func TestTreeRevisionReadsEachEventOncePerEdit(t *testing.T) {
	const depth = 200
	tree := NewTree()
	ids := make([]typedef.EventID, 0, depth)
	parent := typedef.NoEvent
	for range depth {
		id, _ := tree.Append(parent, NewWhileEvent())
		ids = append(ids, id)
		parent = id
	}

	rev := tree.Revision(typedef.NoEvent)
	if tree.revisionComputations != depth {
		t.Fatalf("first lookup computed %d subtrees, want %d", tree.revisionComputations, depth)
	}
	for _, id := range ids {
		tree.Revision(id)
	}
	if tree.revisionComputations != depth {
		t.Fatalf("cached lookups computed %d subtrees, want %d", tree.revisionComputations, depth)
	}

	deepest := tree.Event(ids[depth-1]).(*WhileEvent)
	deepest.Actions.Append(typedef.NewInstruction("DebugLog", "x"))
	if r := tree.Revision(ids[0]); r <= rev {
		t.Fatal("editing the deepest event did not change the root revision")
	}
	if r := tree.Revision(ids[depth-1]); r != deepest.Actions.Revision() {
		t.Fatalf("deepest revision = %d, want the list stamp %d", r, deepest.Actions.Revision())
	}
}

func TestTreeCloneIsolation(t *testing.T) {
	tree, ids := buildTree(t)
	clone := tree.Clone()

	clone.Event(ids[2]).(*StandardEvent).Actions.Append(typedef.NewInstruction("Delete", "Hero"))
	clone.Append(ids[1], NewStandardEvent())
	clone.Remove(ids[3])

	if !tree.Event(ids[2]).(*StandardEvent).Actions.IsEmpty() {
		t.Fatal("clone shares instruction lists with the original")
	}
	if len(tree.Children(ids[1])) != 1 || !tree.Has(ids[3]) {
		t.Fatal("clone shares structure with the original")
	}
}

// A deep chain is cloned and copied without recursion.
func TestDeepTreeClone(t *testing.T) {
	tree := NewTree()
	parent := typedef.NoEvent
	for i := 0; i < 10000; i++ {
		parent, _ = tree.Append(parent, NewStandardEvent())
	}
	clone := tree.Clone()
	if clone.Len() != 10000 {
		t.Fatalf("clone len = %d", clone.Len())
	}
	extracted := tree.Extract(tree.Roots())
	if extracted.Len() != 10000 {
		t.Fatalf("extract len = %d", extracted.Len())
	}
}

func TestExtractAndGraft(t *testing.T) {
	tree, ids := buildTree(t)
	// c is below b: it is copied once, with b.
	part := tree.Extract([]typedef.EventID{ids[2], ids[1]})
	if len(part.Roots()) != 1 || part.Len() != 2 {
		t.Fatalf("extract: %d roots, %d events", len(part.Roots()), part.Len())
	}
	if !sameForest(tree, ids[0], part, typedef.NoEvent) {
		t.Fatal("extracted subtree differs")
	}

	added, err := tree.Graft(ids[3], 0, part)
	if err != nil {
		t.Fatal(err)
	}
	if len(added) != 1 || tree.Parent(added[0]) != ids[3] || len(tree.Children(added[0])) != 1 {
		t.Fatalf("graft added %v", added)
	}
	part.Event(part.Roots()[0]).(*WhileEvent).Actions.Clear()
	if tree.Event(added[0]).(*WhileEvent).Actions.IsEmpty() {
		t.Fatal("grafted events share lists with the source")
	}
}

func TestNewEventRegistry(t *testing.T) {
	if _, err := NewEvent("Nope"); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("NewEvent(Nope) = %v", err)
	}
	ev, err := NewEvent(WhileEventType)
	if err != nil || ev.Type() != WhileEventType {
		t.Fatalf("NewEvent(while) = %v, %v", ev, err)
	}
	types := EventTypes()
	if len(types) < 2 {
		t.Fatalf("types = %v", types)
	}
}
