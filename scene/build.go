package scene

import (
	"fmt"
	"log/slog"

	"github.com/akmonengine/voxelphys"
	"github.com/akmonengine/voxelphys/actor"
	"github.com/akmonengine/voxelphys/shape"
)

// Query is a ready to run region query
type Query struct {
	Name  string
	Box   shape.AABB
	group *actor.ClassGroup
	class actor.Class
}

// Run returns the matching entities of the world
func (q Query) Run(w *voxelphys.World) []*actor.Entity {
	if q.group != nil {
		return w.EntitiesOfClassGroup(nil, *q.group, q.Box, nil)
	}
	return w.EntitiesOfClass(nil, q.class, q.Box, nil)
}

// Scene is a built world with its named groups and queries
type Scene struct {
	World   *voxelphys.World
	Groups  map[string]actor.ClassGroup
	Queries []Query
}

// Build validates the config and creates the world it describes.
func (c Config) Build(logger *slog.Logger) (*Scene, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	blocks := voxelphys.NewBlockMap()
	for i, b := range c.Blocks {
		s, err := b.blockShape()
		if err != nil {
			return nil, fmt.Errorf("blocks[%d]: %w", i, err)
		}
		to := b.From
		if b.To != nil {
			to = *b.To
		}
		blocks.Fill(
			voxelphys.BlockPos{X: b.From[0], Y: b.From[1], Z: b.From[2]},
			voxelphys.BlockPos{X: to[0], Y: to[1], Z: to[2]},
			s,
		)
	}

	groups := make(map[string]actor.ClassGroup, len(c.Groups))
	for _, g := range c.Groups {
		classes := make([]actor.Class, len(g.Classes))
		for i, class := range g.Classes {
			classes[i] = actor.Class(class)
		}
		groups[g.Name] = actor.NewClassGroup(g.Name, classes...)
	}

	w := voxelphys.NewWorld(c.SectionCount, blocks)
	w.Gravity = c.Gravity
	w.Workers = max(voxelphys.DEFAULT_WORKERS, c.Workers)
	w.Logger = logger
	if c.ContactGroup != "" {
		w.ContactGroup = groups[c.ContactGroup]
	}

	for _, ec := range c.Entities {
		e := actor.NewEntity(ec.ID, actor.Class(ec.Class), ec.Position, ec.Width, ec.Height)
		e.Velocity = ec.Velocity
		if err := w.AddEntity(e); err != nil {
			return nil, fmt.Errorf("adding entity: %w", err)
		}
	}

	queries := make([]Query, 0, len(c.Queries))
	for _, qc := range c.Queries {
		q := Query{
			Name:  qc.Name,
			Box:   shape.NewAABB(qc.Min.X(), qc.Min.Y(), qc.Min.Z(), qc.Max.X(), qc.Max.Y(), qc.Max.Z()),
			class: actor.Class(qc.Class),
		}
		if qc.Group != "" {
			g := groups[qc.Group]
			q.group = &g
		}
		queries = append(queries, q)
	}

	return &Scene{World: w, Groups: groups, Queries: queries}, nil
}

func (b BlockConfig) blockShape() (shape.Shape, error) {
	switch b.Shape {
	case ShapeFull:
		return shape.FullCube(), nil
	case ShapeSlab:
		return voxelphys.Slab(), nil
	case ShapeStairs:
		return voxelphys.Stairs(), nil
	case ShapeCuboid:
		if b.Box == nil {
			return nil, fmt.Errorf("%w: cuboid needs a box", ErrInvalidConfig)
		}
		x := *b.Box
		return shape.NewCuboid(x[0], x[1], x[2], x[3], x[4], x[5]), nil
	}
	return nil, fmt.Errorf("%w: unknown shape %q", ErrInvalidConfig, b.Shape)
}
