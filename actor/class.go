package actor

import (
	"slices"
)

// Class tags an entity with its exact kind, e.g. "zombie" or "item".
type Class string

// ClassGroup is a named set of classes, queried by membership rather than
// by exact class.
type ClassGroup struct {
	Name    string
	classes map[Class]struct{}
}

func NewClassGroup(name string, classes ...Class) ClassGroup {
	g := ClassGroup{
		Name:    name,
		classes: make(map[Class]struct{}, len(classes)),
	}
	for _, c := range classes {
		g.classes[c] = struct{}{}
	}
	return g
}

// Contains reports whether class is a member of the group. The zero group
// contains nothing.
func (g ClassGroup) Contains(class Class) bool {
	_, ok := g.classes[class]
	return ok
}

// Classes returns the members sorted by name.
func (g ClassGroup) Classes() []Class {
	out := make([]Class, 0, len(g.classes))
	for c := range g.classes {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func (g ClassGroup) Len() int {
	return len(g.classes)
}
