package scene

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleScene = `
section_count: 8
gravity: [0, -0.04, 0]
workers: 2
ticks: 40
tick_interval: 10ms
log_level: debug
groups:
  - name: monsters
    classes: [zombie, skeleton]
contact_group: monsters
blocks:
  - shape: full
    from: [-4, 0, -4]
    to: [4, 0, 4]
  - shape: slab
    from: [2, 1, 2]
  - shape: cuboid
    from: [-2, 1, -2]
    box: [0.25, 0, 0.25, 0.75, 1.5, 0.75]
entities:
  - id: 1
    class: zombie
    position: [0.5, 4, 0.5]
    width: 0.6
    height: 1.8
  - id: 2
    class: cow
    position: [1.5, 1, 1.5]
    velocity: [0.1, 0, 0]
    width: 0.9
    height: 1.4
queries:
  - name: near spawn
    group: monsters
    min: [-2, 0, -2]
    max: [2, 4, 2]
`

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScene), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.SectionCount)
	assert.Equal(t, mgl64.Vec3{0, -0.04, 0}, cfg.Gravity)
	assert.Equal(t, 10*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 20, cfg.ReportEvery, "unset keys keep their default")
	require.Len(t, cfg.Blocks, 3)
	assert.Nil(t, cfg.Blocks[1].To)
	require.NotNil(t, cfg.Blocks[2].Box)
	assert.Equal(t, 1.5, cfg.Blocks[2].Box[4])
	require.Len(t, cfg.Entities, 2)
	assert.Equal(t, mgl64.Vec3{0.1, 0, 0}, cfg.Entities[1].Velocity)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gravity: [1, 2]\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing scene")
}

func TestConfigRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(sampleScene))
	require.NoError(t, err)

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg, err := Parse([]byte(sampleScene))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		msg    string
	}{
		{"sections", func(c *Config) { c.SectionCount = 0 }, "section_count"},
		{"workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"unknown contact group", func(c *Config) { c.ContactGroup = "animals" }, "contact_group"},
		{"duplicate group", func(c *Config) { c.Groups = append(c.Groups, c.Groups[0]) }, "duplicate group"},
		{"unknown shape", func(c *Config) { c.Blocks[0].Shape = "fence" }, "unknown shape"},
		{"cuboid without box", func(c *Config) { c.Blocks[2].Box = nil }, "needs a box"},
		{"duplicate entity", func(c *Config) { c.Entities[1].ID = 1 }, "duplicate id"},
		{"empty entity", func(c *Config) { c.Entities[0].Width = 0 }, "size must be positive"},
		{"query with both filters", func(c *Config) { c.Queries[0].Class = "zombie" }, "exactly one"},
		{"query on unknown group", func(c *Config) { c.Queries[0].Group = "animals" }, "not declared"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SectionCount = 0
	cfg.Ticks = -1

	err := cfg.Validate()
	assert.ErrorContains(t, err, "section_count")
	assert.ErrorContains(t, err, "ticks")
}

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"unknown key", "section_cont: 8\n", "section_cont"},
		{"short vector", "gravity: [0, -1]\n", "gravity"},
		{"entity without size", "entities:\n  - id: 1\n    class: cow\n    position: [0, 0, 0]\n", "entities"},
		{"bad log level", "log_level: loud\n", "log_level"},
		{"float block position", "blocks:\n  - shape: full\n    from: [0.5, 0, 0]\n", "from"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSchema([]byte(tt.doc))
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.ErrorContains(t, err, tt.msg)

			_, err = Parse([]byte(tt.doc))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.NoError(t, CheckSchema(nil), "empty document keeps the defaults")
	assert.NoError(t, CheckSchema([]byte(sampleScene)))
}

func TestExampleSceneIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "example", "scene", "scene.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.NotEmpty(t, cfg.Entities)
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"example/scene/scene.yaml", false},
		{"/abs/scene.yaml", false},
		{"https://example.com/scene.yaml", true},
		{"git::https://example.com/scenes.git//arena.yaml", true},
		{"file:///tmp/scene.yaml", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRemote(tt.src), tt.src)
	}
}

func TestLoadSourceFetchesFileURL(t *testing.T) {
	src := filepath.Join(t.TempDir(), "arena.yaml")
	require.NoError(t, os.WriteFile(src, []byte(sampleScene), 0o644))

	cfg, err := LoadSource(context.Background(), "file::"+src)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.SectionCount)
	assert.Len(t, cfg.Entities, 2)

	local, err := LoadSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, cfg, local)
}

func TestFetchMissingSource(t *testing.T) {
	_, err := Fetch(context.Background(), "file::"+filepath.Join(t.TempDir(), "missing.yaml"), t.TempDir())
	assert.ErrorContains(t, err, "fetching scene")
}
