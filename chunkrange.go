package voxelphys

import (
	"iter"
	"math"

	"github.com/akmonengine/voxelphys/shape"
)

// ChunkRange is a rectangle of chunk columns. The max bounds are exclusive.
type ChunkRange struct {
	MinX, MinZ int
	MaxX, MaxZ int
}

// ChunkRangeOf returns the chunks that may hold an entity overlapping box,
// padded by ChunkPadding blocks on each side.
func ChunkRangeOf(box shape.AABB) ChunkRange {
	return ChunkRange{
		MinX: int(math.Floor((box.Min.X() - ChunkPadding) / ChunkSize)),
		MinZ: int(math.Floor((box.Min.Z() - ChunkPadding) / ChunkSize)),
		MaxX: int(math.Ceil((box.Max.X() + ChunkPadding) / ChunkSize)),
		MaxZ: int(math.Ceil((box.Max.Z() + ChunkPadding) / ChunkSize)),
	}
}

func (r ChunkRange) Contains(x, z int) bool {
	return x >= r.MinX && x < r.MaxX && z >= r.MinZ && z < r.MaxZ
}

func (r ChunkRange) Len() int {
	return max(0, r.MaxX-r.MinX) * max(0, r.MaxZ-r.MinZ)
}

// Positions yields the chunk positions, X outer and Z inner
func (r ChunkRange) Positions() iter.Seq[ChunkPos] {
	return func(yield func(ChunkPos) bool) {
		for x := r.MinX; x < r.MaxX; x++ {
			for z := r.MinZ; z < r.MaxZ; z++ {
				if !yield(ChunkPos{X: x, Z: z}) {
					return
				}
			}
		}
	}
}

// SectionRange is an inclusive range of section indices. It is empty when
// Min > Max.
type SectionRange struct {
	Min, Max int
}

// SectionRangeOf returns the sections of a chunk with n sections that may
// hold an entity overlapping box. Both ends are clamped to [0, n-1].
func SectionRangeOf(box shape.AABB, n int) SectionRange {
	if n <= 0 {
		return SectionRange{Min: 0, Max: -1}
	}
	return SectionRange{
		Min: clamp(int(math.Floor((box.Min.Y()-ChunkPadding)/ChunkSize)), 0, n-1),
		Max: clamp(int(math.Floor((box.Max.Y()+ChunkPadding)/ChunkSize)), 0, n-1),
	}
}

func (r SectionRange) Empty() bool {
	return r.Min > r.Max
}

func (r SectionRange) Len() int {
	return max(0, r.Max-r.Min+1)
}

// ChunkOf returns the chunk coordinate holding a horizontal block coordinate
func ChunkOf(coord float64) int {
	return int(math.Floor(coord / ChunkSize))
}

// SectionOf returns the section holding height y, clamped to the n sections
// of a chunk.
func SectionOf(y float64, n int) int {
	return clamp(int(math.Floor(y/ChunkSize)), 0, max(0, n-1))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
