package eventeditor

import (
	"fmt"
	"slices"

	"gdide/codegen"
	"gdide/typedef"
)

type treeNode struct {
	event    Event
	parent   typedef.EventID
	children []typedef.EventID
	alive    bool
	revision uint64 // Stamp of the last structural change of the children

	subtreeRevision uint64 // Memoized Revision of the subtree
	memoizedAt      uint64 // CurrentRevision when subtreeRevision was computed
}

// Tree is an arena holding an events tree. Events are addressed by their
// index in the arena; parent and children are index links. Ids of removed
// events are never reused by the same tree.
type Tree struct {
	nodes    []treeNode
	roots    []typedef.EventID
	revision uint64

	revisionComputations int
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{revision: typedef.NextRevision()}
}

// Len returns the number of events in the tree.
func (t *Tree) Len() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].alive {
			n++
		}
	}
	return n
}

// Has reports whether id is an event of the tree.
func (t *Tree) Has(id typedef.EventID) bool {
	return id >= 0 && int(id) < len(t.nodes) && t.nodes[id].alive
}

// Event returns the event stored at id, nil when there is none.
func (t *Tree) Event(id typedef.EventID) Event {
	if !t.Has(id) {
		return nil
	}
	return t.nodes[id].event
}

// Node returns a handle on the event at id.
func (t *Tree) Node(id typedef.EventID) Node {
	return Node{tree: t, id: id}
}

// Roots returns the root events, in order.
func (t *Tree) Roots() []typedef.EventID {
	return slices.Clone(t.roots)
}

// Parent returns the parent of id, NoEvent for roots.
func (t *Tree) Parent(id typedef.EventID) typedef.EventID {
	if !t.Has(id) {
		return typedef.NoEvent
	}
	return t.nodes[id].parent
}

// Children returns the sub-events of id, or the roots for NoEvent.
func (t *Tree) Children(id typedef.EventID) []typedef.EventID {
	if id == typedef.NoEvent {
		return t.Roots()
	}
	if !t.Has(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].children)
}

// IndexOf returns the position of id among its siblings.
func (t *Tree) IndexOf(id typedef.EventID) int {
	return slices.Index(t.siblings(t.Parent(id)), id)
}

func (t *Tree) siblings(parent typedef.EventID) []typedef.EventID {
	if parent == typedef.NoEvent {
		return t.roots
	}
	return t.nodes[parent].children
}

func (t *Tree) setSiblings(parent typedef.EventID, ids []typedef.EventID) {
	if parent == typedef.NoEvent {
		t.roots = ids
		t.revision = typedef.NextRevision()
		return
	}
	t.nodes[parent].children = ids
	t.nodes[parent].revision = typedef.NextRevision()
}

func (t *Tree) checkParent(parent typedef.EventID) error {
	if parent != typedef.NoEvent && !t.Has(parent) {
		return fmt.Errorf("parent %d: %w", parent, ErrNoSuchEvent)
	}
	return nil
}

// Insert adds ev as the index-th child of parent (NoEvent for a root).
// The index is clamped to the number of children.
func (t *Tree) Insert(parent typedef.EventID, index int, ev Event) (typedef.EventID, error) {
	if ev == nil {
		return typedef.NoEvent, fmt.Errorf("insert: nil event")
	}
	if err := t.checkParent(parent); err != nil {
		return typedef.NoEvent, err
	}
	id := typedef.EventID(len(t.nodes))
	t.nodes = append(t.nodes, treeNode{
		event:    ev,
		parent:   parent,
		alive:    true,
		revision: typedef.NextRevision(),
	})
	sibs := t.siblings(parent)
	index = max(0, min(index, len(sibs)))
	t.setSiblings(parent, slices.Insert(slices.Clone(sibs), index, id))
	return id, nil
}

// Append adds ev after the last child of parent.
func (t *Tree) Append(parent typedef.EventID, ev Event) (typedef.EventID, error) {
	return t.Insert(parent, len(t.Children(parent)), ev)
}

// Remove deletes id and its whole subtree.
func (t *Tree) Remove(id typedef.EventID) error {
	if !t.Has(id) {
		return fmt.Errorf("remove %d: %w", id, ErrNoSuchEvent)
	}
	parent := t.nodes[id].parent
	t.setSiblings(parent, slices.DeleteFunc(slices.Clone(t.siblings(parent)), func(c typedef.EventID) bool {
		return c == id
	}))
	stack := []typedef.EventID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, t.nodes[cur].children...)
		t.nodes[cur] = treeNode{parent: typedef.NoEvent}
	}
	return nil
}

// IsAncestor reports whether a is a strict ancestor of b.
func (t *Tree) IsAncestor(a, b typedef.EventID) bool {
	for p := t.Parent(b); p != typedef.NoEvent; p = t.Parent(p) {
		if p == a {
			return true
		}
	}
	return false
}

// Move detaches id and inserts it as the index-th child of newParent.
// Moving an event below itself or one of its descendants fails with ErrCycle.
func (t *Tree) Move(id, newParent typedef.EventID, index int) error {
	if !t.Has(id) {
		return fmt.Errorf("move %d: %w", id, ErrNoSuchEvent)
	}
	if err := t.checkParent(newParent); err != nil {
		return err
	}
	if newParent == id || t.IsAncestor(id, newParent) {
		return fmt.Errorf("move %d under %d: %w", id, newParent, ErrCycle)
	}
	old := t.nodes[id].parent
	t.setSiblings(old, slices.DeleteFunc(slices.Clone(t.siblings(old)), func(c typedef.EventID) bool {
		return c == id
	}))
	sibs := t.siblings(newParent)
	index = max(0, min(index, len(sibs)))
	t.setSiblings(newParent, slices.Insert(slices.Clone(sibs), index, id))
	t.nodes[id].parent = newParent
	t.nodes[id].revision = typedef.NextRevision()
	return nil
}

// Revision returns the newest stamp of the subtree rooted at id: the events
// lists, flags and children links of every event below it. For NoEvent it
// covers the whole tree. Any edit in the subtree makes it grow.
func (t *Tree) Revision(id typedef.EventID) uint64 {
	if id == typedef.NoEvent {
		rev := t.revision
		for _, r := range t.roots {
			rev = max(rev, t.memoizedRevision(r))
		}
		return rev
	}
	if !t.Has(id) {
		return 0
	}
	return t.memoizedRevision(id)
}

// memoizedRevision computes the revision of a subtree once per global stamp.
// Every edit takes a new stamp, so a memo taken at the current stamp is still
// exact and a repaint reads each node once.
func (t *Tree) memoizedRevision(id typedef.EventID) uint64 {
	now := typedef.CurrentRevision()
	if n := &t.nodes[id]; n.memoizedAt != 0 && n.memoizedAt == now {
		return n.subtreeRevision
	}
	n := &t.nodes[id]
	rev := max(n.revision, contentRevision(n.event))
	for _, c := range n.children {
		rev = max(rev, t.memoizedRevision(c))
	}
	n.subtreeRevision, n.memoizedAt = rev, now
	t.revisionComputations++
	return rev
}

// Walk visits the subtree of id (the whole tree for NoEvent) in document
// order. Returning false from fn skips the sub-events of the visited event.
func (t *Tree) Walk(id typedef.EventID, fn func(id typedef.EventID, depth int) bool) {
	type item struct {
		id    typedef.EventID
		depth int
	}
	var stack []item
	push := func(ids []typedef.EventID, depth int) {
		for i := len(ids) - 1; i >= 0; i-- {
			stack = append(stack, item{ids[i], depth})
		}
	}
	if id == typedef.NoEvent {
		push(t.roots, 0)
	} else if t.Has(id) {
		stack = append(stack, item{id, 0})
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn(cur.id, cur.depth) {
			push(t.nodes[cur.id].children, cur.depth+1)
		}
	}
}

// Clone copies the whole arena. Ids are preserved and every event is deep
// copied, so the clone shares nothing with t.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes:    make([]treeNode, len(t.nodes)),
		roots:    slices.Clone(t.roots),
		revision: typedef.NextRevision(),
	}
	for i, n := range t.nodes {
		if !n.alive {
			c.nodes[i] = treeNode{parent: typedef.NoEvent}
			continue
		}
		c.nodes[i] = treeNode{
			event:    n.event.Clone(),
			parent:   n.parent,
			children: slices.Clone(n.children),
			alive:    true,
			revision: typedef.NextRevision(),
		}
	}
	return c
}

// Extract copies the subtrees rooted at ids into a new tree, as roots in
// the given order. Ids below another extracted id are copied only once,
// with their ancestor.
func (t *Tree) Extract(ids []typedef.EventID) *Tree {
	out := NewTree()
	for _, id := range ids {
		if !t.Has(id) {
			continue
		}
		nested := false
		for _, other := range ids {
			if other != id && t.IsAncestor(other, id) {
				nested = true
				break
			}
		}
		if !nested {
			copySubtree(out, typedef.NoEvent, len(out.roots), t, id)
		}
	}
	return out
}

// Graft inserts copies of all the roots of src (with their sub-events) as
// children of parent, starting at index. It returns the ids of the copied roots.
func (t *Tree) Graft(parent typedef.EventID, index int, src *Tree) ([]typedef.EventID, error) {
	if err := t.checkParent(parent); err != nil {
		return nil, err
	}
	index = max(0, min(index, len(t.siblings(parent))))
	var added []typedef.EventID
	for i, root := range src.roots {
		added = append(added, copySubtree(t, parent, index+i, src, root))
	}
	return added, nil
}

// copySubtree copies the subtree of src rooted at id below parent in dst,
// iteratively so deep trees do not grow the stack.
func copySubtree(dst *Tree, parent typedef.EventID, index int, src *Tree, id typedef.EventID) typedef.EventID {
	type pending struct {
		src    typedef.EventID
		parent typedef.EventID
	}
	top, _ := dst.Insert(parent, index, src.nodes[id].event.Clone())
	queue := []pending{}
	for _, c := range src.nodes[id].children {
		queue = append(queue, pending{c, top})
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		nid, _ := dst.Append(p.parent, src.nodes[p.src].event.Clone())
		for _, c := range src.nodes[p.src].children {
			queue = append(queue, pending{c, nid})
		}
	}
	return top
}

// Codes returns the code writers of the given events, in order.
func (t *Tree) Codes(ids []typedef.EventID) []codegen.EventCode {
	codes := make([]codegen.EventCode, 0, len(ids))
	for _, id := range ids {
		codes = append(codes, t.Node(id))
	}
	return codes
}
