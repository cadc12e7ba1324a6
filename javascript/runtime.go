package javascript

import (
	"slices"
	"sort"
	"strings"
)

// Object is an instance of a scene object seen by generated code.
type Object struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// ConditionFunc implements a condition without code template.
type ConditionFunc func(params []string) bool

// ActionFunc implements an action without code template.
type ActionFunc func(params []string)

// SceneRuntime is the state a scene runs against: variables, object
// instances and handlers for instructions the generator could not expand.
// Generated code reaches it through the "runtime" parameter.
type SceneRuntime struct {
	variables  map[string]float64
	objects    map[string][]*Object
	conditions map[string]ConditionFunc
	actions    map[string]ActionFunc
	console    *Console
}

// NewSceneRuntime returns an empty runtime logging to console, which may be nil.
func NewSceneRuntime(console *Console) *SceneRuntime {
	return &SceneRuntime{
		variables:  make(map[string]float64),
		objects:    make(map[string][]*Object),
		conditions: make(map[string]ConditionFunc),
		actions:    make(map[string]ActionFunc),
		console:    console,
	}
}

// Variable returns a scene variable, 0 when unset.
func (r *SceneRuntime) Variable(name string) float64 { return r.variables[name] }

// SetVariable sets a scene variable.
func (r *SceneRuntime) SetVariable(name string, v float64) { r.variables[name] = v }

// Variables returns the names of the set variables, sorted.
func (r *SceneRuntime) Variables() []string {
	names := make([]string, 0, len(r.variables))
	for n := range r.variables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CreateObject adds an instance of the object name at (x, y).
func (r *SceneRuntime) CreateObject(name string, x, y float64) *Object {
	o := &Object{Name: name, X: x, Y: y}
	r.objects[name] = append(r.objects[name], o)
	return o
}

// Objects returns the live instances of an object.
func (r *SceneRuntime) Objects(name string) []*Object {
	return slices.Clone(r.objects[name])
}

// RegisterCondition installs the handler of a condition type.
func (r *SceneRuntime) RegisterCondition(instrType string, fn ConditionFunc) {
	r.conditions[instrType] = fn
}

// RegisterAction installs the handler of an action type.
func (r *SceneRuntime) RegisterAction(instrType string, fn ActionFunc) {
	r.actions[instrType] = fn
}

func (r *SceneRuntime) compareVariable(name, op string, value float64) bool {
	return compare(r.variables[name], op, value)
}

func (r *SceneRuntime) modifyVariable(name, op string, value float64) {
	r.variables[name] = modify(r.variables[name], op, value)
}

func (r *SceneRuntime) modifyObjectX(o *Object, op string, value float64) {
	if o != nil {
		o.X = modify(o.X, op, value)
	}
}

func (r *SceneRuntime) deleteObject(o *Object) {
	if o == nil {
		return
	}
	r.objects[o.Name] = slices.DeleteFunc(r.objects[o.Name], func(c *Object) bool { return c == o })
}

func (r *SceneRuntime) condition(instrType string, params []string) bool {
	fn, ok := r.conditions[instrType]
	if !ok {
		r.log("scene", "unknown condition "+instrType+"("+strings.Join(params, ", ")+")")
		return false
	}
	return fn(params)
}

func (r *SceneRuntime) action(instrType string, params []string) {
	fn, ok := r.actions[instrType]
	if !ok {
		r.log("scene", "unknown action "+instrType+"("+strings.Join(params, ", ")+")")
		return
	}
	fn(params)
}

func (r *SceneRuntime) log(source, msg string) {
	r.console.Printf(source, "%s", msg)
}

func compare(a float64, op string, b float64) bool {
	switch op {
	case "!=":
		return a != b
	case "<":
		return a < b
	case ">":
		return a > b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	}
	return a == b
}

func modify(v float64, op string, operand float64) float64 {
	switch op {
	case "+":
		return v + operand
	case "-":
		return v - operand
	case "*":
		return v * operand
	case "/":
		if operand == 0 {
			return v
		}
		return v / operand
	}
	return operand
}
