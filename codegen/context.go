package codegen

import (
	"strconv"
	"strings"

	"gdide/typedef"
)

// Context tracks which object lists are declared at one nesting level of the
// generated code. A context can look up declarations of its ancestors but
// never modifies them: an object picked in a child is a new list copied
// from the ancestor one, so filtering it does not leak to the parent or to
// siblings.
type Context struct {
	parent *Context
	depth  int
	names  *NameAllocator
	scene  *typedef.Scene

	declared map[string]string // Object or group name -> variable, for this context only
	order    []string          // Declaration order of the keys of declared
}

// NewContext creates a root context.
func NewContext(names *NameAllocator, scene *typedef.Scene) *Context {
	if names == nil {
		names = NewNameAllocator()
	}
	return &Context{
		names:    names,
		scene:    scene,
		declared: make(map[string]string),
	}
}

// InheritsFrom makes c a child of parent. Declarations visible in parent
// stay visible (read-only) from c; c starts with no declaration of its own.
func (c *Context) InheritsFrom(parent *Context) {
	c.parent = parent
	c.depth = parent.depth + 1
	c.names = parent.names
	c.scene = parent.scene
	c.declared = make(map[string]string)
	c.order = nil
}

// NewChild returns a fresh context inheriting from c.
func (c *Context) NewChild() *Context {
	child := &Context{}
	child.InheritsFrom(c)
	return child
}

// Parent returns the parent context, nil for a root.
func (c *Context) Parent() *Context { return c.parent }

// Depth returns the nesting level, 0 for a root.
func (c *Context) Depth() int { return c.depth }

// Names returns the allocator shared by the whole generation.
func (c *Context) Names() *NameAllocator { return c.names }

// ObjectsListNeeded records that code of this context uses the picked list
// of the object (or group) and returns the variable holding it.
func (c *Context) ObjectsListNeeded(name string) string {
	if v, ok := c.declared[name]; ok {
		return v
	}
	v := c.names.New(identifier(name) + "Objects")
	c.declared[name] = v
	c.order = append(c.order, name)
	return v
}

// ObjectDeclaredHere reports whether the object list is declared by this very context.
func (c *Context) ObjectDeclaredHere(name string) bool {
	_, ok := c.declared[name]
	return ok
}

// ObjectAlreadyDeclared reports whether the object list is declared by this
// context or by one of its ancestors.
func (c *Context) ObjectAlreadyDeclared(name string) bool {
	_, ok := c.lookup(name)
	return ok
}

// ObjectVariable returns the variable of the closest declaration of the object.
func (c *Context) ObjectVariable(name string) (string, bool) {
	return c.lookup(name)
}

func (c *Context) lookup(name string) (string, bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if v, ok := ctx.declared[name]; ok {
			return v, true
		}
	}
	return "", false
}

// DeclaredObjects lists the objects declared by this context, in order.
func (c *Context) DeclaredObjects() []string {
	return append([]string(nil), c.order...)
}

// GenerateObjectsDeclarationCode declares every object list needed by this
// context. Lists already picked by an ancestor are copied from it, the
// others are fetched from the runtime. Groups fetch all their members.
func (c *Context) GenerateObjectsDeclarationCode() string {
	var b strings.Builder
	for _, name := range c.order {
		v := c.declared[name]
		if c.parent != nil {
			if pv, ok := c.parent.lookup(name); ok {
				b.WriteString("let " + v + " = " + pv + ".slice();\n")
				continue
			}
		}
		b.WriteString("let " + v + " = " + c.fetchObjectsCode(name) + ";\n")
	}
	return b.String()
}

func (c *Context) fetchObjectsCode(name string) string {
	if c.scene.IsGroup(name) {
		members := c.scene.GroupMembers(name)
		parts := make([]string, 0, len(members))
		for _, m := range members {
			parts = append(parts, "runtime.getObjects("+strconv.Quote(m)+")")
		}
		return "[].concat(" + strings.Join(parts, ", ") + ")"
	}
	return "runtime.getObjects(" + strconv.Quote(name) + ")"
}
