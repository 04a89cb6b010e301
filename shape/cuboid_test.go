package shape

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func unitCube() Cuboid {
	return NewCuboid(0, 0, 0, 1, 1, 1)
}

func TestCuboidBoundingBox(t *testing.T) {
	c := NewCuboid(0.25, 0, -1, 0.75, 0.5, 2)
	want := AABB{Min: mgl64.Vec3{0.25, 0, -1}, Max: mgl64.Vec3{0.75, 0.5, 2}}
	if got := c.BoundingBox(); got != want {
		t.Errorf("BoundingBox() = %v, want %v", got, want)
	}
}

func TestCuboidOffsetRoundTrip(t *testing.T) {
	c := NewCuboid(0.1, 0.2, 0.3, 0.7, 0.8, 0.9)
	back := c.Offset(12.345, -6.789, 1e5).Offset(-12.345, 6.789, -1e5)

	for _, axis := range Axes() {
		if math.Abs(back.Min(axis)-c.Min(axis)) > Epsilon || math.Abs(back.Max(axis)-c.Max(axis)) > Epsilon {
			t.Errorf("offset round trip drifted on %v: got [%v, %v], want [%v, %v]",
				axis, back.Min(axis), back.Max(axis), c.Min(axis), c.Max(axis))
		}
	}
}

func TestCuboidOffsetPreservesEmptiness(t *testing.T) {
	empty := NewCuboid(0, 0, 0, 1, 0, 1)
	if !empty.Offset(3, 4, 5).IsEmpty() {
		t.Errorf("offset of an empty cuboid should stay empty")
	}
	if unitCube().Offset(3, 4, 5).IsEmpty() {
		t.Errorf("offset of a full cuboid should stay non-empty")
	}
}

func TestCuboidMinMax(t *testing.T) {
	c := NewCuboid(1, 2, 3, 4, 5, 6)
	for i, axis := range Axes() {
		if got := c.Min(axis); got != float64(i+1) {
			t.Errorf("Min(%v) = %v, want %v", axis, got, i+1)
		}
		if got := c.Max(axis); got != float64(i+4) {
			t.Errorf("Max(%v) = %v, want %v", axis, got, i+4)
		}
	}
	expectPanic(t, ErrInvalidAxis, func() { c.Min(Axis(9)) })
}

func TestCuboidPointPosition(t *testing.T) {
	c := NewCuboid(1, 2, 3, 4, 5, 6)

	for _, axis := range Axes() {
		lo, err := c.PointPosition(axis, 0)
		if err != nil || lo != c.Min(axis) {
			t.Errorf("PointPosition(%v, 0) = %v, %v", axis, lo, err)
		}
		hi, err := c.PointPosition(axis, 1)
		if err != nil || hi != c.Max(axis) {
			t.Errorf("PointPosition(%v, 1) = %v, %v", axis, hi, err)
		}

		ps := c.PointPositions(axis)
		if len(ps) != 2 || ps[0] != lo || ps[1] != hi {
			t.Errorf("PointPositions(%v) = %v, want [%v %v]", axis, ps, lo, hi)
		}
	}

	for _, index := range []int{-1, 2, 100} {
		if _, err := c.PointPosition(X, index); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("PointPosition(x, %d) error = %v, want ErrIndexOutOfRange", index, err)
		}
	}
}

func TestCuboidContains(t *testing.T) {
	c := unitCube()

	tests := []struct {
		name    string
		x, y, z float64
		want    bool
	}{
		{"min corner", 0, 0, 0, true},
		{"center", 0.5, 0.5, 0.5, true},
		{"just below max", 0.999, 0.999, 0.999, true},
		{"on max x face", 1, 0.5, 0.5, false},
		{"on max y face", 0.5, 1, 0.5, false},
		{"on max z face", 0.5, 0.5, 1, false},
		{"below min", -0.001, 0.5, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Contains(tt.x, tt.y, tt.z); got != tt.want {
				t.Errorf("Contains(%v, %v, %v) = %v, want %v", tt.x, tt.y, tt.z, got, tt.want)
			}
		})
	}
}

func TestCuboidIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		c    Cuboid
		want bool
	}{
		{"unit cube", unitCube(), false},
		{"flat on y", NewCuboid(0, 0, 0, 1, 0, 1), true},
		{"thinner than epsilon", NewCuboid(0, 0, 0, 1, 1, Epsilon/2), true},
		{"thin but above epsilon", NewCuboid(0, 0, 0, 1, 1, 10*Epsilon), false},
		{"exactly epsilon on z", NewCuboid(0, 0, 0, 1, 1, Epsilon), false},
		{"exactly epsilon on x", NewCuboid(0, 0, 0, Epsilon, 1, 1), false},
		{"just under epsilon on y", NewCuboid(0, 0, 0, 1, Epsilon*0.999, 1), true},
		{"inverted x", NewCuboid(1, 0, 0, 0, 1, 1), true},
		{"zero value", Cuboid{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCuboidCoordIndex(t *testing.T) {
	c := NewCuboid(0, 2, 0, 1, 3, 1)

	tests := []struct {
		coord float64
		want  int
	}{
		{1.5, -1},
		{2, 0},
		{2.5, 0},
		{3, 1},
		{10, 1},
	}

	for _, tt := range tests {
		if got := c.CoordIndex(Y, tt.coord); got != tt.want {
			t.Errorf("CoordIndex(y, %v) = %d, want %d", tt.coord, got, tt.want)
		}
	}
}

func TestCuboidIntersects(t *testing.T) {
	c := unitCube()

	tests := []struct {
		name       string
		box        AABB
		dx, dy, dz float64
		want       bool
	}{
		{"overlapping", NewAABB(0.5, 0.5, 0.5, 1.5, 1.5, 1.5), 0, 0, 0, true},
		{"touching face", NewAABB(1, 0, 0, 2, 1, 1), 0, 0, 0, false},
		{"separated", NewAABB(2, 0, 0, 3, 1, 1), 0, 0, 0, false},
		{"overlapping after offset", NewAABB(2, 0, 0, 3, 1, 1), 1.5, 0, 0, true},
		{"moved away by offset", NewAABB(0.5, 0.5, 0.5, 0.6, 0.6, 0.6), 0, 0, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Intersects(tt.box, tt.dx, tt.dy, tt.dz); got != tt.want {
				t.Errorf("Intersects(%v, %v, %v, %v) = %v, want %v", tt.box, tt.dx, tt.dy, tt.dz, got, tt.want)
			}
		})
	}
}

func TestCuboidVoxels(t *testing.T) {
	if v := unitCube().Voxels(); v == nil || v.Count() != 1 {
		t.Errorf("cuboid voxel mask should be a single filled voxel")
	}
	if v := (Cuboid{}).Voxels(); v == nil {
		t.Errorf("zero cuboid should still expose a voxel mask")
	}
}

func TestCalculateMaxDistance(t *testing.T) {
	c := unitCube()

	tests := []struct {
		name    string
		cycle   AxisCycle
		box     AABB
		maxDist float64
		want    float64
	}{
		{
			name:    "box already past shape diagonally",
			cycle:   CycleNone,
			box:     NewAABB(0.5, 2, 2, 1.5, 3, 3),
			maxDist: 5,
			want:    5,
		},
		{
			name:    "box beyond shape on x",
			cycle:   CycleNone,
			box:     NewAABB(1, 0.5, 0.5, 2, 0.6, 0.6),
			maxDist: 2,
			want:    2,
		},
		{
			name:    "clamped to gap",
			cycle:   CycleNone,
			box:     NewAABB(-3, 0.25, 0.25, -1, 0.75, 0.75),
			maxDist: 2,
			want:    1,
		},
		{
			name:    "shape farther than requested motion",
			cycle:   CycleNone,
			box:     NewAABB(-3, 0.25, 0.25, -1, 0.75, 0.75),
			maxDist: 0.5,
			want:    0.5,
		},
		{
			name:    "touching face blocks",
			cycle:   CycleNone,
			box:     NewAABB(-1, 0.25, 0.25, 0, 0.75, 0.75),
			maxDist: 1,
			want:    0,
		},
		{
			name:    "gap within epsilon blocks",
			cycle:   CycleNone,
			box:     NewAABB(-1, 0.25, 0.25, -Epsilon/2, 0.75, 0.75),
			maxDist: 1,
			want:    0,
		},
		{
			name:    "negative motion clamped",
			cycle:   CycleNone,
			box:     NewAABB(3, 0.25, 0.25, 4, 0.75, 0.75),
			maxDist: -5,
			want:    -2,
		},
		{
			name:    "negative motion touching",
			cycle:   CycleNone,
			box:     NewAABB(1, 0.25, 0.25, 2, 0.75, 0.75),
			maxDist: -1,
			want:    0,
		},
		{
			name:    "negative motion moving away",
			cycle:   CycleNone,
			box:     NewAABB(-3, 0.25, 0.25, -1, 0.75, 0.75),
			maxDist: -1,
			want:    -1,
		},
		{
			name:    "passes beside the shape",
			cycle:   CycleNone,
			box:     NewAABB(-3, 2, 0.25, -1, 3, 0.75),
			maxDist: 2,
			want:    2,
		},
		{
			name:    "sliding on the top face",
			cycle:   CycleNone,
			box:     NewAABB(-3, 1, 0.25, -1, 2, 0.75),
			maxDist: 2,
			want:    2,
		},
		{
			name:    "negligible motion",
			cycle:   CycleNone,
			box:     NewAABB(5, 5, 5, 6, 6, 6),
			maxDist: Epsilon / 2,
			want:    0,
		},
		{
			name:    "forward cycle sweeps z",
			cycle:   CycleForward,
			box:     NewAABB(0.25, 0.25, -3, 0.75, 0.75, -1),
			maxDist: 2,
			want:    1,
		},
		{
			name:    "forward cycle checks x and y sides",
			cycle:   CycleForward,
			box:     NewAABB(2, 0.25, -3, 3, 0.75, -1),
			maxDist: 2,
			want:    2,
		},
		{
			name:    "backward cycle sweeps y, landing",
			cycle:   CycleBackward,
			box:     NewAABB(0.25, 2, 0.25, 0.75, 3, 0.75),
			maxDist: -3,
			want:    -1,
		},
		{
			name:    "backward cycle checks z and x sides",
			cycle:   CycleBackward,
			box:     NewAABB(0.25, 2, 1.5, 0.75, 3, 2),
			maxDist: -3,
			want:    -3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.CalculateMaxDistance(tt.cycle, tt.box, tt.maxDist)
			if got != tt.want {
				t.Errorf("CalculateMaxDistance(%v, %v, %v) = %v, want %v", tt.cycle, tt.box, tt.maxDist, got, tt.want)
			}
		})
	}
}

func TestCalculateMaxDistanceInvalidCycle(t *testing.T) {
	expectPanic(t, ErrInvalidCycle, func() {
		unitCube().CalculateMaxDistance(AxisCycle(3), NewAABB(-2, 0, 0, -1, 1, 1), 1)
	})
}

func TestCalculateMaxDistanceEmptyShape(t *testing.T) {
	c := NewCuboid(0, 0, 0, 1, 0, 1)
	box := NewAABB(0.25, 2, 0.25, 0.75, 3, 0.75)

	if got := c.CalculateMaxDistance(CycleNone, NewAABB(-3, -0.5, 0.25, -1, 0.5, 0.75), 2); got != 2 {
		t.Errorf("flat cuboid blocked sideways motion: got %v", got)
	}
	if got := c.CalculateMaxDistance(CycleBackward, box, -3); got != -3 {
		t.Errorf("flat cuboid blocked a fall: got %v", got)
	}
	if got := c.CalculateMaxDistance(CycleBackward, box, Epsilon/2); got != 0 {
		t.Errorf("negligible motion should still collapse to 0, got %v", got)
	}
}

func TestCalculateMaxDistanceSignAndMagnitude(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewCuboid(-0.5, 0, 0.25, 1.5, 1, 0.75)
	cycles := []AxisCycle{CycleNone, CycleForward, CycleBackward}

	for i := 0; i < 20000; i++ {
		x, y, z := rng.Float64()*6-3, rng.Float64()*6-3, rng.Float64()*6-3
		box := NewAABB(x, y, z, x+rng.Float64()*2, y+rng.Float64()*2, z+rng.Float64()*2)
		maxDist := rng.Float64()*8 - 4
		cycle := cycles[rng.Intn(len(cycles))]

		got := c.CalculateMaxDistance(cycle, box, maxDist)
		if got != 0 && math.Signbit(got) != math.Signbit(maxDist) {
			t.Fatalf("sign flipped: CalculateMaxDistance(%v, %v, %v) = %v", cycle, box, maxDist, got)
		}
		if math.Abs(got) > math.Abs(maxDist) {
			t.Fatalf("grew motion: CalculateMaxDistance(%v, %v, %v) = %v", cycle, box, maxDist, got)
		}
	}
}

func TestMaxOffset(t *testing.T) {
	floor := []Shape{
		NewCuboid(0, 0, 0, 1, 1, 1),
		NewCuboid(1, 0, 0, 2, 0.5, 1),
		NewCuboid(5, 0, 0, 6, 3, 1),
	}

	// falling box straddling the full block and the slab lands on the full block
	box := NewAABB(0.7, 3, 0.2, 1.3, 4.8, 0.8)
	if got := MaxOffset(Y, box, floor, -5); got != -2 {
		t.Errorf("MaxOffset(y) = %v, want -2", got)
	}

	// walking along +x at slab height is stopped by the far pillar only
	walker := NewAABB(2.2, 0.5, 0.2, 2.8, 2.3, 0.8)
	if got := MaxOffset(X, walker, floor, 4); math.Abs(got-2.2) > 1e-12 {
		t.Errorf("MaxOffset(x) = %v, want 2.2", got)
	}

	if got := MaxOffset(Z, walker, nil, 0.5); got != 0.5 {
		t.Errorf("MaxOffset with no shapes = %v, want 0.5", got)
	}
}

func TestOffsetDispatch(t *testing.T) {
	cube := Offset(unitCube(), 1, 2, 3)
	if _, ok := cube.(Cuboid); !ok {
		t.Fatalf("Offset of a Cuboid returned %T", cube)
	}
	if got := cube.Min(Y); got != 2 {
		t.Errorf("offset cuboid Min(y) = %v, want 2", got)
	}

	voxel := Offset(CuboidVoxel(0, 0, 0, 1, 1, 1), 1, 2, 3)
	if _, ok := voxel.(*Voxel); !ok {
		t.Fatalf("Offset of a Voxel returned %T", voxel)
	}
	if got := voxel.Max(Z); got != 4 {
		t.Errorf("offset voxel Max(z) = %v, want 4", got)
	}
}

func BenchmarkCuboidCalculateMaxDistance(b *testing.B) {
	c := unitCube()
	box := NewAABB(-3, 0.25, 0.25, -1, 0.75, 0.75)
	for i := 0; i < b.N; i++ {
		c.CalculateMaxDistance(CycleNone, box, 2)
	}
}

func BenchmarkVoxelCalculateMaxDistance(b *testing.B) {
	v := CuboidVoxel(0, 0, 0, 1, 1, 1)
	box := NewAABB(-3, 0.25, 0.25, -1, 0.75, 0.75)
	for i := 0; i < b.N; i++ {
		v.CalculateMaxDistance(CycleNone, box, 2)
	}
}
