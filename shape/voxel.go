package shape

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Voxel is the general Shape: a voxel occupancy set laid over a rectilinear
// grid whose vertex coordinates are given per axis. Queries walk the voxels,
// so their cost grows with the grid size; Cuboid is the O(1) special case for
// a single filled voxel.
type Voxel struct {
	voxels *VoxelSet
	points [3][]float64
}

// NewVoxel builds a voxel shape. Each point list must hold size+1 ascending
// coordinates for its axis.
func NewVoxel(voxels *VoxelSet, xs, ys, zs []float64) (*Voxel, error) {
	v := &Voxel{voxels: voxels}
	for i, ps := range [3][]float64{xs, ys, zs} {
		axis := Axis(i)
		if len(ps) != voxels.Size(axis)+1 {
			return nil, fmt.Errorf("%w: axis %s has %d points, want %d",
				ErrPointCount, axis, len(ps), voxels.Size(axis)+1)
		}
		v.points[i] = slices.Clone(ps)
	}
	return v, nil
}

// NewGridVoxel lays the voxel set over the unit cube, with cells of
// 1/size on every axis.
func NewGridVoxel(voxels *VoxelSet) *Voxel {
	v := &Voxel{voxels: voxels}
	for _, axis := range axes {
		n := voxels.Size(axis)
		ps := make([]float64, n+1)
		for i := range ps {
			ps[i] = float64(i) / float64(n)
		}
		v.points[axis] = ps
	}
	return v
}

// CuboidVoxel builds the general representation of a single box, the
// variant a Cuboid stands in for.
func CuboidVoxel(x1, y1, z1, x2, y2, z2 float64) *Voxel {
	return &Voxel{
		voxels: unitVoxelSet,
		points: [3][]float64{{x1, x2}, {y1, y2}, {z1, z2}},
	}
}

func (v *Voxel) Offset(dx, dy, dz float64) *Voxel {
	out := &Voxel{voxels: v.voxels}
	for i, d := range [3]float64{dx, dy, dz} {
		ps := make([]float64, len(v.points[i]))
		for j, p := range v.points[i] {
			ps[j] = p + d
		}
		out.points[i] = ps
	}
	return out
}

func (v *Voxel) point(axis Axis, index int) float64 {
	return v.points[axis][index]
}

// BoundingBox returns the zero box for an empty shape.
func (v *Voxel) BoundingBox() AABB {
	if v.IsEmpty() {
		return AABB{}
	}
	return AABB{
		Min: mgl64.Vec3{v.Min(X), v.Min(Y), v.Min(Z)},
		Max: mgl64.Vec3{v.Max(X), v.Max(Y), v.Max(Z)},
	}
}

// Min returns +Inf when no voxel is filled.
func (v *Voxel) Min(axis Axis) float64 {
	i := v.voxels.Min(axis)
	if i >= v.voxels.Size(axis) {
		return math.Inf(1)
	}
	return v.point(axis, i)
}

// Max returns -Inf when no voxel is filled.
func (v *Voxel) Max(axis Axis) float64 {
	i := v.voxels.Max(axis)
	if i <= 0 {
		return math.Inf(-1)
	}
	return v.point(axis, i)
}

func (v *Voxel) PointPosition(axis Axis, index int) (float64, error) {
	if !axis.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis)))
	}
	if index < 0 || index >= len(v.points[axis]) {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, len(v.points[axis])-1)
	}
	return v.point(axis, index), nil
}

func (v *Voxel) PointPositions(axis Axis) []float64 {
	if !axis.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis)))
	}
	return slices.Clone(v.points[axis])
}

// CoordIndex binary searches the vertex list. The result lies in [-1, size].
func (v *Voxel) CoordIndex(axis Axis, coord float64) int {
	if !axis.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis)))
	}
	ps := v.points[axis]
	return sort.Search(len(ps), func(i int) bool {
		return coord < ps[i]
	}) - 1
}

func (v *Voxel) Contains(x, y, z float64) bool {
	return v.voxels.Contains(v.CoordIndex(X, x), v.CoordIndex(Y, y), v.CoordIndex(Z, z))
}

func (v *Voxel) IsEmpty() bool {
	return v.voxels.IsEmpty()
}

func (v *Voxel) Voxels() *VoxelSet {
	return v.voxels
}

func (v *Voxel) Intersects(box AABB, dx, dy, dz float64) bool {
	hit := false
	v.voxels.ForEach(func(x, y, z int) {
		if hit {
			return
		}
		hit = box.Min.X() < v.point(X, x+1)+dx && box.Max.X() > v.point(X, x)+dx &&
			box.Min.Y() < v.point(Y, y+1)+dy && box.Max.Y() > v.point(Y, y)+dy &&
			box.Min.Z() < v.point(Z, z+1)+dz && box.Max.Z() > v.point(Z, z)+dz
	})
	return hit
}

// CalculateMaxDistance scans voxel layers ahead of the box along the sweep
// axis, restricted to the columns the box covers on the two other axes. The
// first filled layer found bounds the motion.
func (v *Voxel) CalculateMaxDistance(cycle AxisCycle, box AABB, maxDist float64) float64 {
	if !cycle.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidCycle, int(cycle)))
	}
	if math.Abs(maxDist) < Epsilon {
		return 0
	}
	if v.IsEmpty() {
		return maxDist
	}

	inverse := cycle.Opposite()
	ax := inverse.Cycle(X)
	ay := inverse.Cycle(Y)
	az := inverse.Cycle(Z)

	boxMax := box.MaxOn(ax)
	boxMin := box.MinOn(ax)
	lo := v.CoordIndex(ax, boxMin+Epsilon)
	hi := v.CoordIndex(ax, boxMax-Epsilon)
	minA := max(0, v.CoordIndex(ay, box.MinOn(ay)+Epsilon))
	maxA := min(v.voxels.Size(ay), v.CoordIndex(ay, box.MaxOn(ay)-Epsilon)+1)
	minB := max(0, v.CoordIndex(az, box.MinOn(az)+Epsilon))
	maxB := min(v.voxels.Size(az), v.CoordIndex(az, box.MaxOn(az)-Epsilon)+1)
	size := v.voxels.Size(ax)

	if maxDist > 0 {
		for p := hi + 1; p < size; p++ {
			for q := minA; q < maxA; q++ {
				for r := minB; r < maxB; r++ {
					if v.voxels.InBoundsAndContains(inverse, p, q, r) {
						gap := v.point(ax, p) - boxMax
						if gap >= -Epsilon {
							maxDist = math.Min(maxDist, gap)
						}
						return maxDist
					}
				}
			}
		}
	} else if maxDist < 0 {
		for p := lo - 1; p >= 0; p-- {
			for q := minA; q < maxA; q++ {
				for r := minB; r < maxB; r++ {
					if v.voxels.InBoundsAndContains(inverse, p, q, r) {
						gap := v.point(ax, p+1) - boxMin
						if gap <= Epsilon {
							maxDist = math.Max(maxDist, gap)
						}
						return maxDist
					}
				}
			}
		}
	}

	return maxDist
}
