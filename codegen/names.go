package codegen

import (
	"strconv"
	"strings"
	"unicode"
)

// NameAllocator hands out identifiers that are unique within one generated
// function. All contexts of a generation share the allocator of the root,
// so a name is never declared twice in nested or sibling scopes.
type NameAllocator struct {
	names map[string]int
}

// NewNameAllocator returns an allocator with no name taken.
func NewNameAllocator() *NameAllocator {
	return &NameAllocator{names: make(map[string]int)}
}

// New returns base if it is still free, otherwise base followed by the
// smallest counter that is free (base2, base3, ...).
func (a *NameAllocator) New(base string) string {
	if base == "" || base == "_" {
		base = "x"
	}
	if i, ok := a.names[base]; ok {
		a.names[base]++
		return a.New(base + strconv.Itoa(i))
	}
	a.names[base] = 2
	return base
}

// Reserve marks names as taken, typically runtime-provided globals.
func (a *NameAllocator) Reserve(names ...string) {
	for _, n := range names {
		if _, ok := a.names[n]; !ok {
			a.names[n] = 2
		}
	}
}

// Taken reports whether a name was handed out or reserved.
func (a *NameAllocator) Taken(name string) bool {
	_, ok := a.names[name]
	return ok
}

// identifier turns an arbitrary object name into a JavaScript identifier fragment.
func identifier(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}
