package shape

import (
	"fmt"
	"math"
)

// Shape is the capability set shared by every collision shape variant, so
// that shape-combination code can treat a Cuboid and a generic Voxel shape
// interchangeably.
type Shape interface {
	// BoundingBox returns the tightest box enclosing all filled voxels.
	BoundingBox() AABB
	Min(axis Axis) float64
	Max(axis Axis) float64
	// PointPosition returns the index-th vertex coordinate on the axis.
	PointPosition(axis Axis, index int) (float64, error)
	// PointPositions returns the sorted vertex coordinates on the axis.
	PointPositions(axis Axis) []float64
	Contains(x, y, z float64) bool
	IsEmpty() bool
	// CoordIndex returns the voxel column coord falls into on the axis,
	// -1 below the first vertex.
	CoordIndex(axis Axis, coord float64) int
	// Intersects tests the shape translated by (dx, dy, dz) against box
	// with open-interval overlap.
	Intersects(box AABB, dx, dy, dz float64) bool
	// CalculateMaxDistance clamps a displacement of box along the cycle's
	// sweep axis so that it stops at the shape.
	CalculateMaxDistance(cycle AxisCycle, box AABB, maxDist float64) float64
	Voxels() *VoxelSet
}

// Offset translates any shape variant.
func Offset(s Shape, dx, dy, dz float64) Shape {
	switch v := s.(type) {
	case Cuboid:
		return v.Offset(dx, dy, dz)
	case *Cuboid:
		return v.Offset(dx, dy, dz)
	case *Voxel:
		return v.Offset(dx, dy, dz)
	}
	panic(fmt.Errorf("%w: %T", ErrUnsupportedShape, s))
}

// MaxDistance sweeps box along a world axis against s.
func MaxDistance(s Shape, axis Axis, box AABB, maxDist float64) float64 {
	return s.CalculateMaxDistance(Between(axis, X), box, maxDist)
}

// MaxOffset folds a displacement along axis through every shape, returning
// the largest movement none of them blocks.
func MaxOffset(axis Axis, box AABB, shapes []Shape, maxDist float64) float64 {
	cycle := Between(axis, X)
	for _, s := range shapes {
		if math.Abs(maxDist) < Epsilon {
			return 0
		}
		maxDist = s.CalculateMaxDistance(cycle, box, maxDist)
	}
	return maxDist
}
