package typedef

import (
	"sort"
	"strconv"
	"strings"
)

// InstructionKind tells conditions and actions apart.
type InstructionKind int

const (
	KindCondition InstructionKind = iota
	KindAction
)

func (k InstructionKind) String() string {
	if k == KindAction {
		return "action"
	}
	return "condition"
}

// ParameterType drives how a parameter is written in generated code.
type ParameterType string

const (
	ParamObject     ParameterType = "object"             // Object or group name, picked in the code generation context
	ParamExpression ParameterType = "expression"         // Numeric expression, copied verbatim
	ParamString     ParameterType = "string"             // Quoted as a string literal
	ParamRelational ParameterType = "relationalOperator" // =, !=, <, >, <=, >=
	ParamOperator   ParameterType = "operator"           // =, +, -, *, /
	ParamYesNo      ParameterType = "yesorno"
)

// ParameterMetadata describes one parameter of an instruction.
type ParameterMetadata struct {
	Type        ParameterType `json:"type"`
	Description string        `json:"description"`
}

// InstructionMetadata describes how an instruction is displayed and compiled.
//
// Sentence uses _PARAMn_ placeholders. Code is a JavaScript template where
// {n} is parameter n formatted for its type and {objects:n} is the variable
// holding the picked objects of parameter n.
type InstructionMetadata struct {
	Type       string              `json:"type"`
	Kind       InstructionKind     `json:"kind"`
	FullName   string              `json:"fullName"`
	Group      string              `json:"group"`
	Sentence   string              `json:"sentence"`
	Parameters []ParameterMetadata `json:"parameters"`
	Code       string              `json:"code"`
}

// ObjectParameters returns the indexes of object parameters.
func (m InstructionMetadata) ObjectParameters() []int {
	var idx []int
	for i, p := range m.Parameters {
		if p.Type == ParamObject {
			idx = append(idx, i)
		}
	}
	return idx
}

// FormatSentence substitutes the parameters of instr in the sentence.
// Instructions without a sentence fall back to "Type(p0, p1, ...)".
func (m InstructionMetadata) FormatSentence(instr Instruction) string {
	if m.Sentence == "" {
		return instr.Type + "(" + strings.Join(instr.Parameters, ", ") + ")"
	}
	s := m.Sentence
	for i := len(m.Parameters) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, "_PARAM"+strconv.Itoa(i)+"_", instr.Parameter(i))
	}
	return s
}

// MetadataHolder indexes instruction metadata by kind and type.
type MetadataHolder struct {
	conditions map[string]InstructionMetadata
	actions    map[string]InstructionMetadata
}

// NewMetadataHolder returns an empty holder.
func NewMetadataHolder() *MetadataHolder {
	return &MetadataHolder{
		conditions: make(map[string]InstructionMetadata),
		actions:    make(map[string]InstructionMetadata),
	}
}

// Register adds or replaces metadata.
func (h *MetadataHolder) Register(m InstructionMetadata) {
	if m.Kind == KindAction {
		h.actions[m.Type] = m
		return
	}
	h.conditions[m.Type] = m
}

// Condition returns the metadata of a condition type.
func (h *MetadataHolder) Condition(instrType string) (InstructionMetadata, bool) {
	m, ok := h.conditions[instrType]
	return m, ok
}

// Action returns the metadata of an action type.
func (h *MetadataHolder) Action(instrType string) (InstructionMetadata, bool) {
	m, ok := h.actions[instrType]
	return m, ok
}

// Lookup returns the metadata of an instruction of the given kind, or a
// placeholder describing an unknown instruction.
func (h *MetadataHolder) Lookup(kind InstructionKind, instrType string) (InstructionMetadata, bool) {
	var (
		m  InstructionMetadata
		ok bool
	)
	if h != nil {
		if kind == KindAction {
			m, ok = h.Action(instrType)
		} else {
			m, ok = h.Condition(instrType)
		}
	}
	if !ok {
		m = InstructionMetadata{Type: instrType, Kind: kind}
	}
	return m, ok
}

// Types lists the registered types of a kind, sorted.
func (h *MetadataHolder) Types(kind InstructionKind) []string {
	src := h.conditions
	if kind == KindAction {
		src = h.actions
	}
	types := make([]string, 0, len(src))
	for t := range src {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// StandardMetadata returns a holder filled with the built-in instructions.
func StandardMetadata() *MetadataHolder {
	h := NewMetadataHolder()
	for _, m := range builtinInstructions {
		h.Register(m)
	}
	return h
}

var builtinInstructions = []InstructionMetadata{
	{
		Type: "BuiltinCommonInstructions::Always", Kind: KindCondition,
		FullName: "Always", Group: "Advanced",
		Sentence: "Always",
		Code:     "true",
	},
	{
		Type: "VarScene", Kind: KindCondition,
		FullName: "Value of a scene variable", Group: "Variables",
		Sentence: "Variable _PARAM0_ is _PARAM1_ _PARAM2_",
		Parameters: []ParameterMetadata{
			{Type: ParamString, Description: "Variable"},
			{Type: ParamRelational, Description: "Sign of the test"},
			{Type: ParamExpression, Description: "Value to test"},
		},
		Code: "runtime.compareVariable({0}, {1}, {2})",
	},
	{
		Type: "ModVarScene", Kind: KindAction,
		FullName: "Value of a scene variable", Group: "Variables",
		Sentence: "Do _PARAM1__PARAM2_ to variable _PARAM0_",
		Parameters: []ParameterMetadata{
			{Type: ParamString, Description: "Variable"},
			{Type: ParamOperator, Description: "Modification's sign"},
			{Type: ParamExpression, Description: "Value"},
		},
		Code: "runtime.modifyVariable({0}, {1}, {2});",
	},
	{
		Type: "NbObjet", Kind: KindCondition,
		FullName: "Number of objects", Group: "Objects",
		Sentence: "The number of _PARAM0_ objects is _PARAM1_ _PARAM2_",
		Parameters: []ParameterMetadata{
			{Type: ParamObject, Description: "Object"},
			{Type: ParamRelational, Description: "Sign of the test"},
			{Type: ParamExpression, Description: "Value to test"},
		},
		Code: "runtime.compareNumber({objects:0}.length, {1}, {2})",
	},
	{
		Type: "PosX", Kind: KindCondition,
		FullName: "X position of an object", Group: "Objects",
		Sentence: "The X position of _PARAM0_ is _PARAM1_ _PARAM2_",
		Parameters: []ParameterMetadata{
			{Type: ParamObject, Description: "Object"},
			{Type: ParamRelational, Description: "Sign of the test"},
			{Type: ParamExpression, Description: "Value to test"},
		},
		Code: "({objects:0} = {objects:0}.filter(o => runtime.compareNumber(o.x, {1}, {2}))).length > 0",
	},
	{
		Type: "MettreX", Kind: KindAction,
		FullName: "X position of an object", Group: "Objects",
		Sentence: "Do _PARAM1__PARAM2_ to the X position of _PARAM0_",
		Parameters: []ParameterMetadata{
			{Type: ParamObject, Description: "Object"},
			{Type: ParamOperator, Description: "Modification's sign"},
			{Type: ParamExpression, Description: "Value"},
		},
		Code: "for (const o of {objects:0}) runtime.modifyObjectX(o, {1}, {2});",
	},
	{
		Type: "Delete", Kind: KindAction,
		FullName: "Delete an object", Group: "Objects",
		Sentence: "Delete _PARAM0_",
		Parameters: []ParameterMetadata{
			{Type: ParamObject, Description: "Object"},
		},
		Code: "for (const o of {objects:0}) runtime.deleteObject(o);",
	},
	{
		Type: "DebugLog", Kind: KindAction,
		FullName: "Log a message", Group: "Debug",
		Sentence: "Log _PARAM0_",
		Parameters: []ParameterMetadata{
			{Type: ParamString, Description: "Message"},
		},
		Code: "runtime.log({0});",
	},
}
