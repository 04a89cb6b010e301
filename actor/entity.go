package actor

import (
	"github.com/akmonengine/voxelphys/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// Entity is a moving box in the voxel world
type Entity struct {
	ID    uint64
	Class Class

	// Position is the centre of the bottom face
	Position mgl64.Vec3
	// Velocity in blocks per tick
	Velocity mgl64.Vec3

	Width  float64
	Height float64

	// Collision flags, refreshed every tick
	OnGround            bool
	HorizontalCollision bool
	VerticalCollision   bool

	boundingBox shape.AABB
}

// NewEntity creates an entity standing at position
func NewEntity(id uint64, class Class, position mgl64.Vec3, width, height float64) *Entity {
	e := &Entity{
		ID:     id,
		Class:  class,
		Width:  width,
		Height: height,
	}
	e.SetPosition(position)

	return e
}

// BoxAt returns the box of an entity of the given size standing at position.
func BoxAt(position mgl64.Vec3, width, height float64) shape.AABB {
	half := width / 2
	return shape.AABB{
		Min: mgl64.Vec3{position.X() - half, position.Y(), position.Z() - half},
		Max: mgl64.Vec3{position.X() + half, position.Y() + height, position.Z() + half},
	}
}

func (e *Entity) BoundingBox() shape.AABB {
	return e.boundingBox
}

// SetPosition moves the entity and refreshes its cached bounding box
func (e *Entity) SetPosition(position mgl64.Vec3) {
	e.Position = position
	e.boundingBox = BoxAt(position, e.Width, e.Height)
}

// SetSize changes the entity dimensions, keeping its feet in place
func (e *Entity) SetSize(width, height float64) {
	e.Width = width
	e.Height = height
	e.boundingBox = BoxAt(e.Position, width, height)
}

func (e *Entity) Move(delta mgl64.Vec3) {
	e.SetPosition(e.Position.Add(delta))
}

// Accelerate adds acceleration to the velocity, for one tick
func (e *Entity) Accelerate(acceleration mgl64.Vec3) {
	e.Velocity = e.Velocity.Add(acceleration)
}

// IsOfClass matches the exact class only
func (e *Entity) IsOfClass(class Class) bool {
	return e.Class == class
}

func (e *Entity) InGroup(group ClassGroup) bool {
	return group.Contains(e.Class)
}
