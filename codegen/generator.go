package codegen

import (
	"log"
	"regexp"
	"strconv"
	"strings"

	"gdide/typedef"
)

// RuntimeVariable is the name of the parameter through which generated code
// reaches the scene runtime.
const RuntimeVariable = "runtime"

// SceneFunction is the name of the function wrapping the code of a scene.
const SceneFunction = "runScene"

// EventCode is anything able to write its own code: events of the events
// tree, bound to their position so they can reach their sub-events.
type EventCode interface {
	GenerateCode(g *Generator, parent *Context) string
}

// Generator turns instruction lists and events into JavaScript statements.
type Generator struct {
	scene  *typedef.Scene
	meta   *typedef.MetadataHolder
	names  *NameAllocator
	warned map[string]bool
}

// NewGenerator creates a generator for the events of a scene.
// A nil holder means every instruction uses the generic runtime fallback.
func NewGenerator(scene *typedef.Scene, meta *typedef.MetadataHolder) *Generator {
	if scene == nil {
		scene = typedef.NewScene("")
	}
	names := NewNameAllocator()
	names.Reserve(RuntimeVariable, SceneFunction)
	return &Generator{
		scene:  scene,
		meta:   meta,
		names:  names,
		warned: make(map[string]bool),
	}
}

// Scene returns the scene the code is generated for.
func (g *Generator) Scene() *typedef.Scene { return g.scene }

// Metadata returns the instruction metadata used for code templates.
func (g *Generator) Metadata() *typedef.MetadataHolder { return g.meta }

// Names returns the allocator of the current generation.
func (g *Generator) Names() *NameAllocator { return g.names }

// NewRootContext returns a root context bound to this generator.
func (g *Generator) NewRootContext() *Context {
	return NewContext(g.names, g.scene)
}

// GenerateSceneCode wraps the code of the root events in the scene function.
// The generator allocates names for the whole function, so it must not be
// reused for another scene.
func (g *Generator) GenerateSceneCode(events []EventCode) string {
	ctx := g.NewRootContext()
	body := g.GenerateEventsListCode(events, ctx)

	var b strings.Builder
	b.WriteString("function " + SceneFunction + "(" + RuntimeVariable + ") {\n")
	b.WriteString(ctx.GenerateObjectsDeclarationCode())
	b.WriteString(body)
	b.WriteString("}\n")
	return b.String()
}

// GenerateEventsListCode writes each event in its own block, in order.
func (g *Generator) GenerateEventsListCode(events []EventCode, ctx *Context) string {
	var b strings.Builder
	for _, ev := range events {
		code := ev.GenerateCode(g, ctx)
		if code == "" {
			continue
		}
		b.WriteString("{\n")
		b.WriteString(code)
		b.WriteString("}\n")
	}
	return b.String()
}

// GenerateConditionsListCode declares one boolean flag per condition and
// returns the code along with the flag names, in list order. Every
// condition is evaluated: a false condition does not skip the next ones.
func (g *Generator) GenerateConditionsListCode(list *typedef.InstructionList, ctx *Context) (string, []string) {
	if list == nil {
		return "", nil
	}
	var b strings.Builder
	flags := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		flag := g.names.New("condition" + strconv.Itoa(i) + "IsTrue")
		flags = append(flags, flag)
		b.WriteString("let " + flag + " = " + g.GenerateConditionCode(list.At(i), ctx) + ";\n")
	}
	return b.String(), flags
}

// GenerateConditionCode returns the boolean expression of one condition.
func (g *Generator) GenerateConditionCode(instr typedef.Instruction, ctx *Context) string {
	m, ok := g.meta.Lookup(typedef.KindCondition, instr.Type)
	var expr string
	if ok && m.Code != "" {
		expr = g.expandTemplate(m, instr, ctx)
	} else {
		g.warnUnknown(typedef.KindCondition, instr.Type)
		expr = RuntimeVariable + ".condition(" + strconv.Quote(instr.Type) + ", " + quotedParameters(instr) + ")"
	}
	if instr.Inverted {
		return "!(" + expr + ")"
	}
	return expr
}

// GenerateActionsListCode writes the actions, one statement each, in order.
func (g *Generator) GenerateActionsListCode(list *typedef.InstructionList, ctx *Context) string {
	if list == nil {
		return ""
	}
	var b strings.Builder
	for i := 0; i < list.Len(); i++ {
		b.WriteString(g.GenerateActionCode(list.At(i), ctx))
		b.WriteString("\n")
	}
	return b.String()
}

// GenerateActionCode returns the statement of one action.
func (g *Generator) GenerateActionCode(instr typedef.Instruction, ctx *Context) string {
	m, ok := g.meta.Lookup(typedef.KindAction, instr.Type)
	if ok && m.Code != "" {
		return g.expandTemplate(m, instr, ctx)
	}
	g.warnUnknown(typedef.KindAction, instr.Type)
	return RuntimeVariable + ".action(" + strconv.Quote(instr.Type) + ", " + quotedParameters(instr) + ");"
}

// Predicate ANDs the flags of a conditions list. An empty list is always true.
func Predicate(flags []string) string {
	p := "true"
	for _, f := range flags {
		p += " && " + f
	}
	return p
}

var placeholderRe = regexp.MustCompile(`\{(objects:)?(\d+)\}`)

func (g *Generator) expandTemplate(m typedef.InstructionMetadata, instr typedef.Instruction, ctx *Context) string {
	// Object lists are requested even when the template only uses the name,
	// so that the context declares them before the instruction runs.
	objectVars := make(map[int]string)
	for _, i := range m.ObjectParameters() {
		if name := instr.Parameter(i); name != "" {
			objectVars[i] = ctx.ObjectsListNeeded(name)
		}
	}

	return placeholderRe.ReplaceAllStringFunc(m.Code, func(ph string) string {
		sub := placeholderRe.FindStringSubmatch(ph)
		n, _ := strconv.Atoi(sub[2])
		if sub[1] != "" {
			if v, ok := objectVars[n]; ok {
				return v
			}
			return "[]"
		}
		var pm typedef.ParameterMetadata
		if n < len(m.Parameters) {
			pm = m.Parameters[n]
		}
		return formatParameter(pm.Type, instr.Parameter(n))
	})
}

func (g *Generator) warnUnknown(kind typedef.InstructionKind, instrType string) {
	key := kind.String() + ":" + instrType
	if g.warned[key] {
		return
	}
	g.warned[key] = true
	log.Printf("[CODEGEN] no code template for %s %q, using the runtime fallback", kind, instrType)
}

func formatParameter(t typedef.ParameterType, value string) string {
	switch t {
	case typedef.ParamExpression:
		if v := strings.TrimSpace(value); v != "" {
			return v
		}
		return "0"
	case typedef.ParamRelational:
		return strconv.Quote(relationalOperator(value))
	case typedef.ParamOperator:
		return strconv.Quote(modificationOperator(value))
	case typedef.ParamYesNo:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "yes", "true", "1":
			return "true"
		}
		return "false"
	default:
		return strconv.Quote(value)
	}
}

func relationalOperator(op string) string {
	switch op = strings.TrimSpace(op); op {
	case "=", "==":
		return "=="
	case "!=", "<", ">", "<=", ">=":
		return op
	}
	return "=="
}

func modificationOperator(op string) string {
	switch op = strings.TrimSpace(op); op {
	case "=", "+", "-", "*", "/":
		return op
	}
	return "="
}

func quotedParameters(instr typedef.Instruction) string {
	quoted := make([]string, len(instr.Parameters))
	for i, p := range instr.Parameters {
		quoted[i] = strconv.Quote(p)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
