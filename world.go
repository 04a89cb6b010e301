// Package voxelphys moves box entities through a voxel world: block
// collision, chunked entity storage and entity region queries.
package voxelphys

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/akmonengine/voxelphys/actor"
	"github.com/akmonengine/voxelphys/shape"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS       = 1
	DEFAULT_SECTION_COUNT = 16
)

// collisionTolerance is how far a clamped movement may differ from the
// requested one before it counts as a collision.
const collisionTolerance = 1e-5

var (
	ErrDuplicateEntity = errors.New("voxelphys: duplicate entity id")
	ErrUnknownEntity   = errors.New("voxelphys: unknown entity")
	ErrNilEntity       = errors.New("voxelphys: nil entity")
)

type placement struct {
	chunk   ChunkPos
	section int
}

type World struct {
	// Velocity added to every entity each tick
	Gravity mgl64.Vec3
	Workers int
	// Blocks the entities collide with, nil for an empty world
	Blocks BlockView
	// Entities of this group raise contact events between each other
	ContactGroup actor.ClassGroup

	Events Events
	Logger *slog.Logger

	// Number of 16 block sections per chunk, fixed for the life of the world
	sectionCount int
	tick         uint64
	chunks       map[ChunkPos]*Chunk
	entities     map[uint64]*actor.Entity
	order        []*actor.Entity
	placement    map[*actor.Entity]placement
}

func NewWorld(sectionCount int, blocks BlockView) *World {
	if sectionCount <= 0 {
		sectionCount = DEFAULT_SECTION_COUNT
	}

	return &World{
		sectionCount: sectionCount,
		Workers:      DEFAULT_WORKERS,
		Blocks:       blocks,
		Events:       NewEvents(),
		chunks:       make(map[ChunkPos]*Chunk),
		entities:     make(map[uint64]*actor.Entity),
		placement:    make(map[*actor.Entity]placement),
	}
}

func (w *World) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.Logger
}

// SectionCount returns the sections per chunk, the world spans y in
// [0, 16*SectionCount())
func (w *World) SectionCount() int {
	return w.sectionCount
}

// Tick returns the number of steps run so far
func (w *World) Tick() uint64 {
	return w.tick
}

// SetTick resets the step counter, used when resuming a saved world
func (w *World) SetTick(tick uint64) {
	w.tick = tick
}

// Chunk implements ChunkSource
func (w *World) Chunk(x, z int) (EntityChunk, bool) {
	c, ok := w.chunks[ChunkPos{X: x, Z: z}]
	if !ok {
		return nil, false
	}
	return c, true
}

// LoadedChunk returns the concrete chunk at (x, z)
func (w *World) LoadedChunk(x, z int) (*Chunk, bool) {
	c, ok := w.chunks[ChunkPos{X: x, Z: z}]
	return c, ok
}

// LoadChunk returns the chunk at (x, z), creating it empty if needed
func (w *World) LoadChunk(x, z int) *Chunk {
	pos := ChunkPos{X: x, Z: z}
	if c, ok := w.chunks[pos]; ok {
		return c
	}

	c := NewChunk(pos, w.sectionCount)
	w.chunks[pos] = c
	w.logger().Debug("chunk loaded", "x", x, "z", z)

	return c
}

// UnloadChunk drops the chunk at (x, z) together with its entities. It
// reports whether the chunk was loaded.
func (w *World) UnloadChunk(x, z int) bool {
	pos := ChunkPos{X: x, Z: z}
	c, ok := w.chunks[pos]
	if !ok {
		return false
	}

	dropped := slices.Collect(c.All())
	for _, e := range dropped {
		w.forget(e)
	}
	delete(w.chunks, pos)
	w.logger().Debug("chunk unloaded", "x", x, "z", z, "entities", len(dropped))

	return true
}

func (w *World) ChunkCount() int {
	return len(w.chunks)
}

// ChunkPositions lists the loaded chunks sorted by x then z
func (w *World) ChunkPositions() []ChunkPos {
	positions := slices.Collect(maps.Keys(w.chunks))
	slices.SortFunc(positions, func(a, b ChunkPos) int {
		if a.X != b.X {
			return cmp.Compare(a.X, b.X)
		}
		return cmp.Compare(a.Z, b.Z)
	})
	return positions
}

// AddEntity stores e in the section holding its position, loading the chunk
// if needed.
func (w *World) AddEntity(e *actor.Entity) error {
	if e == nil {
		return ErrNilEntity
	}
	if _, ok := w.entities[e.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateEntity, e.ID)
	}

	w.entities[e.ID] = e
	w.order = append(w.order, e)
	w.place(e, w.placementOf(e))
	w.logger().Debug("entity added", "id", e.ID, "class", e.Class, "position", e.Position)

	return nil
}

// RemoveEntity deletes the entity and its contact pairs, without exit events
func (w *World) RemoveEntity(id uint64) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}

	if p, ok := w.placement[e]; ok {
		w.unplace(e, p)
	}
	w.forget(e)
	w.logger().Debug("entity removed", "id", id)

	return nil
}

// forget drops e from the world indices, its section is left untouched
func (w *World) forget(e *actor.Entity) {
	delete(w.entities, e.ID)
	delete(w.placement, e)
	if i := slices.Index(w.order, e); i >= 0 {
		w.order = slices.Delete(w.order, i, i+1)
	}
	w.Events.forget(e)
}

func (w *World) Entity(id uint64) (*actor.Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Entities returns the entities in insertion order
func (w *World) Entities() []*actor.Entity {
	return slices.Clone(w.order)
}

func (w *World) EntityCount() int {
	return len(w.order)
}

// Teleport moves an entity without collision and files it in its new section
func (w *World) Teleport(id uint64, position mgl64.Vec3) error {
	e, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}

	e.SetPosition(position)
	w.relocate(e)

	return nil
}

func (w *World) placementOf(e *actor.Entity) placement {
	return placement{
		chunk:   ChunkPos{X: ChunkOf(e.Position.X()), Z: ChunkOf(e.Position.Z())},
		section: SectionOf(e.Position.Y(), w.sectionCount),
	}
}

// place files e in the section of p, clamped to the sections of its chunk
func (w *World) place(e *actor.Entity, p placement) {
	c := w.LoadChunk(p.chunk.X, p.chunk.Z)
	p.section = clamp(p.section, 0, c.SectionCount()-1)
	c.Section(p.section).Add(e)
	w.placement[e] = p
}

func (w *World) unplace(e *actor.Entity, p placement) {
	c, ok := w.chunks[p.chunk]
	if !ok {
		return
	}
	if s := c.Section(p.section); s != nil {
		s.Remove(e)
	}
}

// relocate moves e to the section holding its current position
func (w *World) relocate(e *actor.Entity) {
	next := w.placementOf(e)
	prev, ok := w.placement[e]
	if ok && prev == next {
		return
	}

	if ok {
		w.unplace(e, prev)
	}
	w.place(e, next)
}

// EntitiesOfClassGroup queries the loaded chunks of the world
func (w *World) EntitiesOfClassGroup(excluded *actor.Entity, group actor.ClassGroup, box shape.AABB, predicate Predicate) []*actor.Entity {
	return EntitiesOfClassGroup(w, excluded, group, box, predicate)
}

func (w *World) EntitiesOfClass(excluded *actor.Entity, class actor.Class, box shape.AABB, predicate Predicate) []*actor.Entity {
	return EntitiesOfClass(w, excluded, class, box, predicate)
}

type motion struct {
	entity      *actor.Entity
	requested   mgl64.Vec3
	wasOnGround bool
}

// Step advances the world by one tick
func (w *World) Step() {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)

	motions := make([]*motion, len(w.order))
	for i, e := range w.order {
		motions[i] = &motion{entity: e, wasOnGround: e.OnGround}
	}

	// Phase 1: gravity and block collision, entities only read blocks
	task(w.Workers, motions, func(m *motion) {
		w.move(m)
	})

	// Phase 2: storage and block events
	for _, m := range motions {
		w.relocate(m.entity)

		e := m.entity
		// resting on the ground is not reported as a collision
		vertical := e.VerticalCollision && !(e.OnGround && m.wasOnGround)
		if e.HorizontalCollision || vertical {
			w.Events.emit(BlockCollisionEvent{
				Entity:     e,
				Horizontal: e.HorizontalCollision,
				Vertical:   vertical,
				Requested:  m.requested,
			})
		}
		if e.OnGround && !m.wasOnGround {
			w.Events.emit(LandedEvent{Entity: e})
		}
	}

	// Phase 3: contacts
	if w.ContactGroup.Len() > 0 {
		w.detectContacts()
	}

	w.Events.flush()
	w.tick++
	w.logger().Debug("world step", "tick", w.tick, "entities", len(w.order), "chunks", len(w.chunks))
}

func (w *World) move(m *motion) {
	e := m.entity
	e.Accelerate(w.Gravity)
	m.requested = e.Velocity

	allowed := m.requested
	if w.Blocks != nil {
		allowed = AdjustMovement(w.Blocks, e.BoundingBox(), m.requested)
	}
	e.Move(allowed)

	xHit := collided(m.requested.X(), allowed.X())
	yHit := collided(m.requested.Y(), allowed.Y())
	zHit := collided(m.requested.Z(), allowed.Z())

	e.HorizontalCollision = xHit || zHit
	e.VerticalCollision = yHit
	e.OnGround = yHit && m.requested.Y() < 0

	if xHit {
		e.Velocity[0] = 0
	}
	if yHit {
		e.Velocity[1] = 0
	}
	if zHit {
		e.Velocity[2] = 0
	}
}

func collided(requested, allowed float64) bool {
	return math.Abs(requested-allowed) >= collisionTolerance
}

func (w *World) detectContacts() {
	for _, e := range w.order {
		if !e.InGroup(w.ContactGroup) {
			continue
		}
		for _, other := range w.EntitiesOfClassGroup(e, w.ContactGroup, e.BoundingBox(), nil) {
			w.Events.recordContact(e, other)
		}
	}
}
