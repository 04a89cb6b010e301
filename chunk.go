package voxelphys

import (
	"iter"
	"slices"

	"github.com/akmonengine/voxelphys/actor"
)

const (
	// ChunkSize is the width of a chunk and the height of a section, in blocks
	ChunkSize = 16
	// ChunkPadding widens chunk and section ranges so entities whose box
	// sticks out of the chunk holding their position are still found
	ChunkPadding = 2
)

// ChunkPos addresses a chunk column on the horizontal grid
type ChunkPos struct {
	X, Z int
}

// EntityBucket lists the entities of one section
type EntityBucket interface {
	AllOfGroup(group actor.ClassGroup) iter.Seq[*actor.Entity]
	AllOfClass(class actor.Class) iter.Seq[*actor.Entity]
}

// EntityChunk exposes the sections of a chunk, bottom to top
type EntityChunk interface {
	EntitySections() []EntityBucket
}

// ChunkSource looks up loaded chunks. Chunks that are not loaded report false.
type ChunkSource interface {
	Chunk(x, z int) (EntityChunk, bool)
}

// EntitySection stores the entities of a 16 block high slab of a chunk, in
// insertion order and indexed by class.
type EntitySection struct {
	entities []*actor.Entity
	byClass  map[actor.Class][]*actor.Entity
}

func NewEntitySection() *EntitySection {
	return &EntitySection{
		entities: make([]*actor.Entity, 0, 8),
		byClass:  make(map[actor.Class][]*actor.Entity),
	}
}

func (s *EntitySection) Add(e *actor.Entity) {
	s.entities = append(s.entities, e)
	s.byClass[e.Class] = append(s.byClass[e.Class], e)
}

// Remove reports whether e was stored in the section
func (s *EntitySection) Remove(e *actor.Entity) bool {
	i := slices.Index(s.entities, e)
	if i < 0 {
		return false
	}
	s.entities = slices.Delete(s.entities, i, i+1)

	list := s.byClass[e.Class]
	if j := slices.Index(list, e); j >= 0 {
		list = slices.Delete(list, j, j+1)
	}
	if len(list) == 0 {
		delete(s.byClass, e.Class)
	} else {
		s.byClass[e.Class] = list
	}

	return true
}

func (s *EntitySection) Len() int {
	return len(s.entities)
}

// All yields every entity of the section
func (s *EntitySection) All() iter.Seq[*actor.Entity] {
	return slices.Values(s.entities)
}

// AllOfClass yields the entities of exactly this class
func (s *EntitySection) AllOfClass(class actor.Class) iter.Seq[*actor.Entity] {
	return slices.Values(s.byClass[class])
}

// AllOfGroup yields the entities whose class belongs to the group
func (s *EntitySection) AllOfGroup(group actor.ClassGroup) iter.Seq[*actor.Entity] {
	return func(yield func(*actor.Entity) bool) {
		for _, e := range s.entities {
			if e.InGroup(group) && !yield(e) {
				return
			}
		}
	}
}

// Chunk is a column of entity sections
type Chunk struct {
	Pos ChunkPos

	sections []*EntitySection
	buckets  []EntityBucket
}

func NewChunk(pos ChunkPos, sectionCount int) *Chunk {
	sectionCount = max(0, sectionCount)
	c := &Chunk{
		Pos:      pos,
		sections: make([]*EntitySection, sectionCount),
		buckets:  make([]EntityBucket, sectionCount),
	}
	for i := range c.sections {
		c.sections[i] = NewEntitySection()
		c.buckets[i] = c.sections[i]
	}

	return c
}

// EntitySections returns the sections indexed from 0, the lowest one.
// The slice is shared and must not be modified.
func (c *Chunk) EntitySections() []EntityBucket {
	return c.buckets
}

// Section returns nil when i is out of range
func (c *Chunk) Section(i int) *EntitySection {
	if i < 0 || i >= len(c.sections) {
		return nil
	}
	return c.sections[i]
}

func (c *Chunk) SectionCount() int {
	return len(c.sections)
}

// Len counts the entities of every section
func (c *Chunk) Len() int {
	n := 0
	for _, s := range c.sections {
		n += s.Len()
	}
	return n
}

// All yields the entities section by section, bottom first
func (c *Chunk) All() iter.Seq[*actor.Entity] {
	return func(yield func(*actor.Entity) bool) {
		for _, s := range c.sections {
			for _, e := range s.entities {
				if !yield(e) {
					return
				}
			}
		}
	}
}
