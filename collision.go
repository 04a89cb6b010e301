package voxelphys

import (
	"math"

	"github.com/akmonengine/voxelphys/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// BlockShapes collects, in world coordinates, the shapes of the blocks
// overlapping box. Cells one block beyond the box are visited as well, for
// shapes taller or wider than their cell.
func BlockShapes(blocks BlockView, box shape.AABB) []shape.Shape {
	minX := int(math.Floor(box.Min.X()-shape.Epsilon)) - 1
	minY := int(math.Floor(box.Min.Y()-shape.Epsilon)) - 1
	minZ := int(math.Floor(box.Min.Z()-shape.Epsilon)) - 1
	maxX := int(math.Floor(box.Max.X()+shape.Epsilon)) + 1
	maxY := int(math.Floor(box.Max.Y()+shape.Epsilon)) + 1
	maxZ := int(math.Floor(box.Max.Z()+shape.Epsilon)) + 1

	var shapes []shape.Shape
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				s, ok := blocks.BlockShape(x, y, z)
				if !ok || s == nil || s.IsEmpty() {
					continue
				}

				s = shape.Offset(s, float64(x), float64(y), float64(z))
				if !s.BoundingBox().Overlaps(box) {
					continue
				}
				shapes = append(shapes, s)
			}
		}
	}

	return shapes
}

// AdjustMovement clamps movement of box so that it stops against the blocks.
// Y is resolved first, then the horizontal axis with the smaller motion, then
// the larger one.
func AdjustMovement(blocks BlockView, box shape.AABB, movement mgl64.Vec3) mgl64.Vec3 {
	if movement == (mgl64.Vec3{}) {
		return movement
	}
	return AdjustMovementAgainst(box, movement, BlockShapes(blocks, box.Stretch(movement)))
}

// AdjustMovementAgainst clamps movement of box against a fixed list of shapes
func AdjustMovementAgainst(box shape.AABB, movement mgl64.Vec3, shapes []shape.Shape) mgl64.Vec3 {
	if len(shapes) == 0 {
		return movement
	}

	dx, dy, dz := movement.X(), movement.Y(), movement.Z()

	if dy != 0 {
		dy = shape.MaxOffset(shape.Y, box, shapes, dy)
		if dy != 0 {
			box = box.Offset(mgl64.Vec3{0, dy, 0})
		}
	}

	zFirst := math.Abs(dx) < math.Abs(dz)
	if zFirst && dz != 0 {
		dz = shape.MaxOffset(shape.Z, box, shapes, dz)
		if dz != 0 {
			box = box.Offset(mgl64.Vec3{0, 0, dz})
		}
	}

	if dx != 0 {
		dx = shape.MaxOffset(shape.X, box, shapes, dx)
		if !zFirst && dx != 0 {
			box = box.Offset(mgl64.Vec3{dx, 0, 0})
		}
	}

	if !zFirst && dz != 0 {
		dz = shape.MaxOffset(shape.Z, box, shapes, dz)
	}

	return mgl64.Vec3{dx, dy, dz}
}
