package shape

import (
	"fmt"
	"math/bits"
)

// VoxelSet is a dense bit-packed occupancy grid. It tracks the bounds of its
// filled cells so empty checks and bounding queries stay O(1).
type VoxelSet struct {
	size  [3]int
	words []uint64

	// filled bounds per axis: min inclusive, max exclusive
	min [3]int
	max [3]int
}

// NewVoxelSet allocates an empty set. Sizes below 1 are raised to 1.
func NewVoxelSet(sizeX, sizeY, sizeZ int) *VoxelSet {
	s := &VoxelSet{size: [3]int{max(1, sizeX), max(1, sizeY), max(1, sizeZ)}}
	n := s.size[0] * s.size[1] * s.size[2]
	s.words = make([]uint64, (n+63)/64)
	s.min = s.size
	return s
}

// FullVoxelSet returns a set with every cell filled.
func FullVoxelSet(sizeX, sizeY, sizeZ int) *VoxelSet {
	s := NewVoxelSet(sizeX, sizeY, sizeZ)
	for x := 0; x < s.size[0]; x++ {
		for y := 0; y < s.size[1]; y++ {
			for z := 0; z < s.size[2]; z++ {
				s.Set(x, y, z)
			}
		}
	}
	return s
}

var unitVoxelSet = FullVoxelSet(1, 1, 1)

func (s *VoxelSet) Size(axis Axis) int {
	if !axis.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis)))
	}
	return s.size[axis]
}

func (s *VoxelSet) index(x, y, z int) int {
	return (x*s.size[1]+y)*s.size[2] + z
}

func (s *VoxelSet) inBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < s.size[0] && y < s.size[1] && z < s.size[2]
}

// Set fills a cell. Out of range cells are ignored.
func (s *VoxelSet) Set(x, y, z int) {
	if !s.inBounds(x, y, z) {
		return
	}
	i := s.index(x, y, z)
	s.words[i/64] |= 1 << uint(i%64)

	p := [3]int{x, y, z}
	for a := range 3 {
		s.min[a] = min(s.min[a], p[a])
		s.max[a] = max(s.max[a], p[a]+1)
	}
}

// Contains reports whether a cell is filled. Out of range cells are empty.
func (s *VoxelSet) Contains(x, y, z int) bool {
	if !s.inBounds(x, y, z) {
		return false
	}
	i := s.index(x, y, z)
	return s.words[i/64]&(1<<uint(i%64)) != 0
}

// InBoundsAndContains reads a cell addressed in cycled coordinates.
func (s *VoxelSet) InBoundsAndContains(cycle AxisCycle, a, b, c int) bool {
	return s.Contains(
		cycle.ChooseInt(a, b, c, X),
		cycle.ChooseInt(a, b, c, Y),
		cycle.ChooseInt(a, b, c, Z),
	)
}

func (s *VoxelSet) IsEmpty() bool {
	return s.min[0] >= s.max[0]
}

// Min returns the lowest filled cell index on the axis, or the axis size when empty.
func (s *VoxelSet) Min(axis Axis) int {
	if !axis.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis)))
	}
	return s.min[axis]
}

// Max returns one past the highest filled cell index on the axis, or 0 when empty.
func (s *VoxelSet) Max(axis Axis) int {
	if !axis.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(axis)))
	}
	return s.max[axis]
}

// Count returns the number of filled cells.
func (s *VoxelSet) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// ForEach calls fn for every filled cell in x, y, z order.
func (s *VoxelSet) ForEach(fn func(x, y, z int)) {
	if s.IsEmpty() {
		return
	}
	for x := s.min[0]; x < s.max[0]; x++ {
		for y := s.min[1]; y < s.max[1]; y++ {
			for z := s.min[2]; z < s.max[2]; z++ {
				if s.Contains(x, y, z) {
					fn(x, y, z)
				}
			}
		}
	}
}
