package typedef

import (
	"slices"
	"sort"
)

// Scene describes the objects known to the events of a layout.
// Object parameters of instructions name either an object or a group.
type Scene struct {
	Name    string              `json:"name"`
	Objects []string            `json:"objects"`
	Groups  map[string][]string `json:"groups,omitempty"` // Group name -> member object names
}

// NewScene creates an empty scene.
func NewScene(name string) *Scene {
	return &Scene{Name: name, Groups: make(map[string][]string)}
}

// HasObject reports whether an object of that name exists in the scene.
func (s *Scene) HasObject(name string) bool {
	return s != nil && slices.Contains(s.Objects, name)
}

// IsGroup reports whether name designates an object group.
func (s *Scene) IsGroup(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Groups[name]
	return ok
}

// GroupMembers returns the objects of a group, in declaration order.
func (s *Scene) GroupMembers(name string) []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.Groups[name])
}

// AddObject declares an object. Duplicates are ignored.
func (s *Scene) AddObject(name string) {
	if !s.HasObject(name) {
		s.Objects = append(s.Objects, name)
	}
}

// AddGroup declares (or replaces) a group of objects.
func (s *Scene) AddGroup(name string, members ...string) {
	if s.Groups == nil {
		s.Groups = make(map[string][]string)
	}
	s.Groups[name] = slices.Clone(members)
}

// GroupNames returns the group names sorted alphabetically.
func (s *Scene) GroupNames() []string {
	names := make([]string, 0, len(s.Groups))
	for name := range s.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the scene.
func (s *Scene) Clone() *Scene {
	cp := &Scene{Name: s.Name, Objects: slices.Clone(s.Objects), Groups: make(map[string][]string, len(s.Groups))}
	for name, members := range s.Groups {
		cp.Groups[name] = slices.Clone(members)
	}
	return cp
}
