package typedef

import "testing"

func TestInstructionListRevisionChangesOnMutation(t *testing.T) {
	l := NewInstructionList(NewInstruction("A"))
	rev := l.Revision()

	steps := []struct {
		name string
		mut  func()
	}{
		{"append", func() { l.Append(NewInstruction("B")) }},
		{"insert", func() { l.Insert(0, NewInstruction("C")) }},
		{"set", func() { l.Set(1, NewInstruction("D")) }},
		{"remove", func() { l.Remove(0) }},
		{"replace", func() { l.Replace([]Instruction{NewInstruction("E")}) }},
		{"clear", func() { l.Clear() }},
	}
	for _, step := range steps {
		step.mut()
		if l.Revision() <= rev {
			t.Fatalf("%s: revision did not grow (%d -> %d)", step.name, rev, l.Revision())
		}
		rev = l.Revision()
	}
}

func TestInstructionListCloneIsIndependent(t *testing.T) {
	l := NewInstructionList(NewInstruction("VarScene", "i", "<", "3"))
	c := l.Clone()
	c.Set(0, c.At(0).WithParameter(2, "10"))
	c.Append(NewInstruction("Always"))

	if l.Len() != 1 {
		t.Fatalf("original length changed: %d", l.Len())
	}
	if got := l.At(0).Parameter(2); got != "3" {
		t.Fatalf("original parameter changed: %q", got)
	}
	if l.Equal(c) {
		t.Fatal("clone should differ after mutation")
	}
}

func TestWithParameterDoesNotAlias(t *testing.T) {
	a := NewInstruction("T", "x")
	b := a.WithParameter(3, "y")
	if len(a.Parameters) != 1 || a.Parameters[0] != "x" {
		t.Fatalf("source instruction modified: %v", a.Parameters)
	}
	if len(b.Parameters) != 4 || b.Parameters[3] != "y" || b.Parameters[1] != "" {
		t.Fatalf("unexpected parameters: %q", b.Parameters)
	}
}

func TestInsertClampsIndex(t *testing.T) {
	l := NewInstructionList()
	l.Insert(10, NewInstruction("A"))
	l.Insert(-4, NewInstruction("B"))
	if l.At(0).Type != "B" || l.At(1).Type != "A" {
		t.Fatalf("unexpected order: %v", l.All())
	}
	l.Remove(7) // ignored
	if l.Len() != 2 {
		t.Fatalf("len = %d, want 2", l.Len())
	}
}

func TestFormatSentence(t *testing.T) {
	h := StandardMetadata()
	m, ok := h.Action("ModVarScene")
	if !ok {
		t.Fatal("ModVarScene not registered")
	}
	got := m.FormatSentence(NewInstruction("ModVarScene", "score", "+", "1"))
	if got != "Do +1 to variable score" {
		t.Fatalf("sentence = %q", got)
	}

	unknown, ok := h.Lookup(KindCondition, "Custom::Thing")
	if ok {
		t.Fatal("unknown type reported as registered")
	}
	if got := unknown.FormatSentence(NewInstruction("Custom::Thing", "a", "b")); got != "Custom::Thing(a, b)" {
		t.Fatalf("fallback sentence = %q", got)
	}
}

func TestNormalizeKeybinds(t *testing.T) {
	k := Keybinds{InsertEvent: "q", Undo: "not-a-key", Build: "f7"}
	NormalizeKeybinds(&k)
	if k.InsertEvent != "Q" {
		t.Fatalf("InsertEvent = %q", k.InsertEvent)
	}
	if k.Undo != "Z" {
		t.Fatalf("invalid binding should fall back to default, got %q", k.Undo)
	}
	if k.Build != "F7" {
		t.Fatalf("Build = %q", k.Build)
	}
	if k.DeleteSelection != "" {
		// empty means disabled and stays disabled
		t.Fatalf("DeleteSelection = %q", k.DeleteSelection)
	}
}
