package shape

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box. It is used both as a moving
// entity's swept volume and as a search region.
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABB builds a box from two corners, normalizing their order.
func NewAABB(x1, y1, z1, x2, y2, z2 float64) AABB {
	return AABB{
		Min: mgl64.Vec3{math.Min(x1, x2), math.Min(y1, y2), math.Min(z1, z2)},
		Max: mgl64.Vec3{math.Max(x1, x2), math.Max(y1, y2), math.Max(z1, z2)},
	}
}

func (a AABB) MinOn(axis Axis) float64 {
	return axis.Choose(a.Min.X(), a.Min.Y(), a.Min.Z())
}

func (a AABB) MaxOn(axis Axis) float64 {
	return axis.Choose(a.Max.X(), a.Max.Y(), a.Max.Z())
}

// Offset returns the box translated by d.
func (a AABB) Offset(d mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

// Stretch grows the box toward the direction of movement: negative
// components extend the min corner, positive ones the max corner.
func (a AABB) Stretch(d mgl64.Vec3) AABB {
	out := a
	for i := range 3 {
		if d[i] < 0 {
			out.Min[i] += d[i]
		} else {
			out.Max[i] += d[i]
		}
	}
	return out
}

// Expand grows the box by v on every side.
func (a AABB) Expand(v mgl64.Vec3) AABB {
	return AABB{Min: a.Min.Sub(v), Max: a.Max.Add(v)}
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap, touching faces included
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Intersects checks if two AABBs share interior volume. Touching faces do not count.
func (a AABB) Intersects(other AABB) bool {
	return a.Min.X() < other.Max.X() && a.Max.X() > other.Min.X() &&
		a.Min.Y() < other.Max.Y() && a.Max.Y() > other.Min.Y() &&
		a.Min.Z() < other.Max.Z() && a.Max.Z() > other.Min.Z()
}
