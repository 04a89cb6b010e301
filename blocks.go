package voxelphys

import (
	"github.com/akmonengine/voxelphys/shape"
)

// BlockPos is the integer position of a block, its min corner in world space
type BlockPos struct {
	X, Y, Z int
}

// BlockView resolves the collision shape of a block, in block local
// coordinates ([0, 1] on each axis for a full block). Air reports false.
type BlockView interface {
	BlockShape(x, y, z int) (shape.Shape, bool)
}

// BlockMap is a sparse, map backed BlockView. It is not safe for concurrent
// writes; concurrent reads are fine.
type BlockMap struct {
	blocks map[BlockPos]shape.Shape
}

func NewBlockMap() *BlockMap {
	return &BlockMap{
		blocks: make(map[BlockPos]shape.Shape),
	}
}

func (m *BlockMap) BlockShape(x, y, z int) (shape.Shape, bool) {
	s, ok := m.blocks[BlockPos{X: x, Y: y, Z: z}]
	return s, ok
}

// Set places a block. A nil shape removes it.
func (m *BlockMap) Set(pos BlockPos, s shape.Shape) {
	if s == nil {
		delete(m.blocks, pos)
		return
	}
	m.blocks[pos] = s
}

// Fill places s in every cell of the inclusive box between from and to
func (m *BlockMap) Fill(from, to BlockPos, s shape.Shape) {
	for x := min(from.X, to.X); x <= max(from.X, to.X); x++ {
		for y := min(from.Y, to.Y); y <= max(from.Y, to.Y); y++ {
			for z := min(from.Z, to.Z); z <= max(from.Z, to.Z); z++ {
				m.Set(BlockPos{X: x, Y: y, Z: z}, s)
			}
		}
	}
}

func (m *BlockMap) Remove(pos BlockPos) {
	delete(m.blocks, pos)
}

func (m *BlockMap) Len() int {
	return len(m.blocks)
}

// Slab is the bottom half of a block
func Slab() shape.Cuboid {
	return shape.NewCuboid(0, 0, 0, 1, 0.5, 1)
}

// Stairs is a bottom slab with a half block step on the +Z side, built on a
// 2x2x2 voxel grid.
func Stairs() *shape.Voxel {
	set := shape.NewVoxelSet(2, 2, 2)
	for x := range 2 {
		for z := range 2 {
			set.Set(x, 0, z)
		}
		set.Set(x, 1, 1)
	}
	return shape.NewGridVoxel(set)
}
