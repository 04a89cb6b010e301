package shape

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Cuboid is a Shape made of exactly one axis-aligned box. A cuboid only has
// two vertices per axis, so every query reduces to comparisons against its
// corners instead of a walk over voxels.
//
// Cuboid is an immutable value and safe to share between goroutines.
type Cuboid struct {
	x1, y1, z1 float64
	x2, y2, z2 float64
	voxels     *VoxelSet
}

// NewCuboid builds a cuboid from its min and max corners. The corners are
// stored verbatim; an inverted axis produces an empty shape.
func NewCuboid(x1, y1, z1, x2, y2, z2 float64) Cuboid {
	return Cuboid{x1: x1, y1: y1, z1: z1, x2: x2, y2: y2, z2: z2, voxels: unitVoxelSet}
}

// FullCube is the unit block shape.
func FullCube() Cuboid {
	return NewCuboid(0, 0, 0, 1, 1, 1)
}

func (c Cuboid) Offset(dx, dy, dz float64) Cuboid {
	return Cuboid{
		x1: c.x1 + dx, y1: c.y1 + dy, z1: c.z1 + dz,
		x2: c.x2 + dx, y2: c.y2 + dy, z2: c.z2 + dz,
		voxels: c.voxels,
	}
}

func (c Cuboid) BoundingBox() AABB {
	return AABB{
		Min: mgl64.Vec3{c.x1, c.y1, c.z1},
		Max: mgl64.Vec3{c.x2, c.y2, c.z2},
	}
}

func (c Cuboid) Min(axis Axis) float64 {
	return axis.Choose(c.x1, c.y1, c.z1)
}

func (c Cuboid) Max(axis Axis) float64 {
	return axis.Choose(c.x2, c.y2, c.z2)
}

func (c Cuboid) PointPosition(axis Axis, index int) (float64, error) {
	if index < 0 || index > 1 {
		return 0, fmt.Errorf("%w: %d not in [0, 1]", ErrIndexOutOfRange, index)
	}
	if index == 0 {
		return c.Min(axis), nil
	}
	return c.Max(axis), nil
}

func (c Cuboid) PointPositions(axis Axis) []float64 {
	return []float64{c.Min(axis), c.Max(axis)}
}

// Contains uses the half-open box [min, max): a point on the max face
// belongs to the next cell.
func (c Cuboid) Contains(x, y, z float64) bool {
	return x >= c.x1 && x < c.x2 &&
		y >= c.y1 && y < c.y2 &&
		z >= c.z1 && z < c.z2
}

func (c Cuboid) IsEmpty() bool {
	return c.x1+Epsilon > c.x2 || c.y1+Epsilon > c.y2 || c.z1+Epsilon > c.z2
}

func (c Cuboid) CoordIndex(axis Axis, coord float64) int {
	if coord < c.Min(axis) {
		return -1
	}
	if coord >= c.Max(axis) {
		return 1
	}
	return 0
}

func (c Cuboid) Intersects(box AABB, dx, dy, dz float64) bool {
	return box.Min.X() < c.x2+dx && box.Max.X() > c.x1+dx &&
		box.Min.Y() < c.y2+dy && box.Max.Y() > c.y1+dy &&
		box.Min.Z() < c.z2+dz && box.Max.Z() > c.z1+dz
}

func (c Cuboid) Voxels() *VoxelSet {
	if c.voxels == nil {
		return unitVoxelSet
	}
	return c.voxels
}

func (c Cuboid) CalculateMaxDistance(cycle AxisCycle, box AABB, maxDist float64) float64 {
	if math.Abs(maxDist) < Epsilon {
		return 0
	}
	if c.IsEmpty() {
		return maxDist
	}

	penetration := c.calculatePenetration(cycle, box, maxDist)
	if penetration != maxDist && c.sideIntersects(cycle, box) {
		return penetration
	}

	return maxDist
}

func (c Cuboid) calculatePenetration(cycle AxisCycle, box AABB, maxDist float64) float64 {
	switch cycle {
	case CycleNone:
		return penetration1D(c.x1, c.x2, box.Min.X(), box.Max.X(), maxDist)
	case CycleForward:
		return penetration1D(c.z1, c.z2, box.Min.Z(), box.Max.Z(), maxDist)
	case CycleBackward:
		return penetration1D(c.y1, c.y2, box.Min.Y(), box.Max.Y(), maxDist)
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidCycle, int(cycle)))
}

// sideIntersects checks the box against the cross-section perpendicular to
// the sweep axis. Without that overlap the box passes beside the shape.
func (c Cuboid) sideIntersects(cycle AxisCycle, box AABB) bool {
	switch cycle {
	case CycleNone:
		return LessThan(c.y1, box.Max.Y()) && LessThan(box.Min.Y(), c.y2) &&
			LessThan(c.z1, box.Max.Z()) && LessThan(box.Min.Z(), c.z2)
	case CycleForward:
		return LessThan(c.x1, box.Max.X()) && LessThan(box.Min.X(), c.x2) &&
			LessThan(c.y1, box.Max.Y()) && LessThan(box.Min.Y(), c.y2)
	case CycleBackward:
		return LessThan(c.z1, box.Max.Z()) && LessThan(box.Min.Z(), c.z2) &&
			LessThan(c.x1, box.Max.X()) && LessThan(box.Min.X(), c.x2)
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidCycle, int(cycle)))
}

// penetration1D clamps maxDist against the extent [a1, a2] for a box spanning
// [b1, b2] on the same axis. Entity movement depends on the exact epsilon
// placement below: the positive and negative branches are mirrors, not
// symmetric rewrites.
func penetration1D(a1, a2, b1, b2, maxDist float64) float64 {
	var penetration float64

	if maxDist > 0 {
		penetration = a1 - b2

		if penetration < -Epsilon || maxDist < penetration {
			return maxDist
		}
		if penetration < Epsilon {
			return 0
		}
	} else {
		penetration = a2 - b1

		if penetration > Epsilon || maxDist > penetration {
			return maxDist
		}
		if penetration > -Epsilon {
			return 0
		}
	}

	return penetration
}
