package voxelphys

import (
	"iter"

	"github.com/akmonengine/voxelphys/actor"
	"github.com/akmonengine/voxelphys/shape"
)

// Predicate filters query results. A nil predicate accepts every entity.
type Predicate func(e *actor.Entity) bool

// forEachSection walks the sections of the loaded chunks in range of box:
// chunk X outer, chunk Z inner, sections bottom to top. Chunks that are not
// loaded are skipped.
func forEachSection(chunks ChunkSource, box shape.AABB, fn func(bucket EntityBucket)) {
	for pos := range ChunkRangeOf(box).Positions() {
		chunk, ok := chunks.Chunk(pos.X, pos.Z)
		if !ok || chunk == nil {
			continue
		}

		sections := chunk.EntitySections()
		r := SectionRangeOf(box, len(sections))
		for i := r.Min; i <= r.Max; i++ {
			fn(sections[i])
		}
	}
}

func appendMatching(out []*actor.Entity, candidates iter.Seq[*actor.Entity], excluded *actor.Entity, box shape.AABB, predicate Predicate) []*actor.Entity {
	for e := range candidates {
		if e == excluded || !e.BoundingBox().Overlaps(box) {
			continue
		}
		if predicate != nil && !predicate(e) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// EntitiesOfClassGroup returns the entities whose class is in group and whose
// box overlaps box, leaving out excluded. Boxes that only touch count as
// overlapping.
func EntitiesOfClassGroup(chunks ChunkSource, excluded *actor.Entity, group actor.ClassGroup, box shape.AABB, predicate Predicate) []*actor.Entity {
	var out []*actor.Entity
	forEachSection(chunks, box, func(bucket EntityBucket) {
		out = appendMatching(out, bucket.AllOfGroup(group), excluded, box, predicate)
	})
	return out
}

// EntitiesOfClass is EntitiesOfClassGroup for a single exact class.
func EntitiesOfClass(chunks ChunkSource, excluded *actor.Entity, class actor.Class, box shape.AABB, predicate Predicate) []*actor.Entity {
	var out []*actor.Entity
	forEachSection(chunks, box, func(bucket EntityBucket) {
		out = appendMatching(out, bucket.AllOfClass(class), excluded, box, predicate)
	})
	return out
}
