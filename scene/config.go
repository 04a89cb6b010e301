// Package scene describes a voxel world in YAML and builds it.
package scene

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("scene: invalid config")

// Block shapes understood by BlockConfig.Shape
const (
	ShapeFull   = "full"
	ShapeSlab   = "slab"
	ShapeStairs = "stairs"
	ShapeCuboid = "cuboid"
)

// Config holds a whole scene: world settings, blocks, entities and the
// region queries the driver reports on.
type Config struct {
	SectionCount int        `yaml:"section_count"`
	Gravity      mgl64.Vec3 `yaml:"gravity"` // blocks per tick²
	Workers      int        `yaml:"workers"`

	// Driver
	Ticks        int           `yaml:"ticks"`         // 0 runs until interrupted
	TickInterval time.Duration `yaml:"tick_interval"` // 0 runs ticks back to back
	ReportEvery  int           `yaml:"report_every"`  // ticks between reports
	LogLevel     string        `yaml:"log_level"`

	Groups       []GroupConfig  `yaml:"groups"`
	ContactGroup string         `yaml:"contact_group"`
	Blocks       []BlockConfig  `yaml:"blocks"`
	Entities     []EntityConfig `yaml:"entities"`
	Queries      []QueryConfig  `yaml:"queries"`
}

// GroupConfig declares a named class group.
type GroupConfig struct {
	Name    string   `yaml:"name"`
	Classes []string `yaml:"classes"`
}

// BlockConfig fills the inclusive box From..To with one shape. To defaults to From.
type BlockConfig struct {
	Shape string  `yaml:"shape"`
	From  [3]int  `yaml:"from"`
	To    *[3]int `yaml:"to,omitempty"`
	// Box is the cuboid extent in block local coordinates, min then max
	Box *[6]float64 `yaml:"box,omitempty"`
}

type EntityConfig struct {
	ID       uint64     `yaml:"id"`
	Class    string     `yaml:"class"`
	Position mgl64.Vec3 `yaml:"position"`
	Velocity mgl64.Vec3 `yaml:"velocity"`
	Width    float64    `yaml:"width"`
	Height   float64    `yaml:"height"`
}

// QueryConfig is a region query reported by the driver. Exactly one of
// Group and Class must be set.
type QueryConfig struct {
	Name  string     `yaml:"name"`
	Group string     `yaml:"group,omitempty"`
	Class string     `yaml:"class,omitempty"`
	Min   mgl64.Vec3 `yaml:"min"`
	Max   mgl64.Vec3 `yaml:"max"`
}

// DefaultConfig returns an empty scene with sensible world settings.
func DefaultConfig() Config {
	return Config{
		SectionCount: 16,
		Gravity:      mgl64.Vec3{0, -0.08, 0},
		Workers:      1,
		Ticks:        100,
		TickInterval: 50 * time.Millisecond,
		ReportEvery:  20,
		LogLevel:     "info",
	}
}

// Load loads a scene from a YAML file on top of DefaultConfig.
// If the file doesn't exist, returns defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading scene %s: %w", path, err)
	}

	cfg, err = Parse(data)
	if err != nil {
		return cfg, fmt.Errorf("parsing scene %s: %w", path, err)
	}

	return cfg, nil
}

// Parse checks the document against the scene schema, then decodes it on
// top of DefaultConfig.
func Parse(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := CheckSchema(data); err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.SectionCount <= 0 {
		fail("section_count must be positive, got %d", c.SectionCount)
	}
	if c.Workers < 0 {
		fail("workers must not be negative, got %d", c.Workers)
	}
	if c.Ticks < 0 {
		fail("ticks must not be negative, got %d", c.Ticks)
	}
	if c.TickInterval < 0 {
		fail("tick_interval must not be negative, got %s", c.TickInterval)
	}

	groups := make(map[string]bool, len(c.Groups))
	for i, g := range c.Groups {
		if g.Name == "" {
			fail("groups[%d]: missing name", i)
		}
		if groups[g.Name] {
			fail("groups[%d]: duplicate group %q", i, g.Name)
		}
		groups[g.Name] = true
	}
	if c.ContactGroup != "" && !groups[c.ContactGroup] {
		fail("contact_group %q is not declared", c.ContactGroup)
	}

	for i, b := range c.Blocks {
		switch b.Shape {
		case ShapeFull, ShapeSlab, ShapeStairs:
		case ShapeCuboid:
			if b.Box == nil {
				fail("blocks[%d]: cuboid needs a box", i)
			}
		default:
			fail("blocks[%d]: unknown shape %q", i, b.Shape)
		}
	}

	ids := make(map[uint64]bool, len(c.Entities))
	for i, e := range c.Entities {
		if ids[e.ID] {
			fail("entities[%d]: duplicate id %d", i, e.ID)
		}
		ids[e.ID] = true
		if e.Class == "" {
			fail("entities[%d]: missing class", i)
		}
		if e.Width <= 0 || e.Height <= 0 {
			fail("entities[%d]: size must be positive, got %gx%g", i, e.Width, e.Height)
		}
	}

	for i, q := range c.Queries {
		if (q.Group == "") == (q.Class == "") {
			fail("queries[%d]: set exactly one of group and class", i)
		}
		if q.Group != "" && !groups[q.Group] {
			fail("queries[%d]: group %q is not declared", i, q.Group)
		}
	}

	return errors.Join(errs...)
}
