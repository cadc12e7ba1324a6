package typedef

import (
	"slices"
	"sync/atomic"
)

// revisionCounter hands out process-wide monotonic revision stamps. Any
// mutation of an instruction list or of the events tree takes a fresh stamp,
// so comparing the max stamp of a subtree detects every change below it.
var revisionCounter atomic.Uint64

// NextRevision returns a new revision stamp, strictly greater than all
// previously returned ones.
func NextRevision() uint64 {
	return revisionCounter.Add(1)
}

// CurrentRevision returns the last stamp handed out. It stays the same as
// long as nothing is modified.
func CurrentRevision() uint64 {
	return revisionCounter.Load()
}

// EventID addresses an event inside an events tree arena.
type EventID int

// NoEvent is the parent of root events and the zero value for "no selection".
const NoEvent EventID = -1

// Instruction is a single condition or action invocation.
// Instructions are values: modifying one means building a new one.
type Instruction struct {
	Type       string   `json:"type"`
	Parameters []string `json:"parameters"`
	Inverted   bool     `json:"inverted,omitempty"` // Conditions only
}

// NewInstruction builds an instruction of the given type.
func NewInstruction(instrType string, params ...string) Instruction {
	return Instruction{Type: instrType, Parameters: slices.Clone(params)}
}

// Parameter returns the i-th parameter or "" when it is missing.
func (i Instruction) Parameter(n int) string {
	if n < 0 || n >= len(i.Parameters) {
		return ""
	}
	return i.Parameters[n]
}

// WithParameter returns a copy of the instruction with parameter n set,
// growing the parameter list if needed.
func (i Instruction) WithParameter(n int, value string) Instruction {
	params := slices.Clone(i.Parameters)
	for len(params) <= n {
		params = append(params, "")
	}
	params[n] = value
	i.Parameters = params
	return i
}

// WithInverted returns a copy of the instruction with the inversion flag set.
func (i Instruction) WithInverted(inverted bool) Instruction {
	i.Parameters = slices.Clone(i.Parameters)
	i.Inverted = inverted
	return i
}

// Equal reports whether both instructions have the same type, flag and parameters.
func (i Instruction) Equal(o Instruction) bool {
	return i.Type == o.Type && i.Inverted == o.Inverted && slices.Equal(i.Parameters, o.Parameters)
}

// InstructionList is an ordered list of conditions or actions.
// Every mutation stamps the list with a new revision.
type InstructionList struct {
	items    []Instruction
	revision uint64
}

// NewInstructionList builds a list holding copies of the given instructions.
func NewInstructionList(instrs ...Instruction) *InstructionList {
	l := &InstructionList{}
	for _, instr := range instrs {
		l.items = append(l.items, instr.WithInverted(instr.Inverted))
	}
	l.touch()
	return l
}

func (l *InstructionList) touch() {
	l.revision = NextRevision()
}

// Revision returns the stamp of the last mutation.
func (l *InstructionList) Revision() uint64 {
	return l.revision
}

// Len returns the number of instructions.
func (l *InstructionList) Len() int {
	return len(l.items)
}

// IsEmpty reports whether the list holds no instruction.
func (l *InstructionList) IsEmpty() bool {
	return len(l.items) == 0
}

// At returns the i-th instruction.
func (l *InstructionList) At(i int) Instruction {
	return l.items[i]
}

// All returns a copy of the instructions, in order.
func (l *InstructionList) All() []Instruction {
	return slices.Clone(l.items)
}

// Append adds instructions at the end of the list.
func (l *InstructionList) Append(instrs ...Instruction) {
	l.items = append(l.items, instrs...)
	l.touch()
}

// Insert adds an instruction at index i, clamped to the list bounds.
func (l *InstructionList) Insert(i int, instr Instruction) {
	i = max(0, min(i, len(l.items)))
	l.items = slices.Insert(l.items, i, instr)
	l.touch()
}

// Set replaces the i-th instruction.
func (l *InstructionList) Set(i int, instr Instruction) {
	l.items[i] = instr
	l.touch()
}

// Remove deletes the i-th instruction. Out of range indexes are ignored.
func (l *InstructionList) Remove(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.touch()
}

// Replace swaps the whole content of the list.
func (l *InstructionList) Replace(instrs []Instruction) {
	l.items = slices.Clone(instrs)
	l.touch()
}

// Clear empties the list.
func (l *InstructionList) Clear() {
	l.items = nil
	l.touch()
}

// Clone returns a deep copy with its own storage.
func (l *InstructionList) Clone() *InstructionList {
	if l == nil {
		return NewInstructionList()
	}
	return NewInstructionList(l.items...)
}

// Equal compares the content of two lists, ignoring revisions.
func (l *InstructionList) Equal(o *InstructionList) bool {
	return slices.EqualFunc(l.items, o.items, Instruction.Equal)
}
