package shape

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestAABBOverlaps_Touching(t *testing.T) {
	a := AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}}
	b := AABB{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 1, 1}}

	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Errorf("touching AABBs should overlap")
	}
	if a.Intersects(b) || b.Intersects(a) {
		t.Errorf("touching AABBs should not intersect")
	}
}

func TestAABBOverlaps_Separated(t *testing.T) {
	tests := []struct {
		name  string
		aabb1 AABB
		aabb2 AABB
	}{
		{
			name:  "Separated on X axis",
			aabb1: AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}},
			aabb2: AABB{Min: mgl64.Vec3{2, 0, 0}, Max: mgl64.Vec3{3, 1, 1}},
		},
		{
			name:  "Separated on Y axis",
			aabb1: AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}},
			aabb2: AABB{Min: mgl64.Vec3{0, -2, 0}, Max: mgl64.Vec3{1, -1, 1}},
		},
		{
			name:  "Separated on Z axis",
			aabb1: AABB{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 1, 1}},
			aabb2: AABB{Min: mgl64.Vec3{0, 0, 2}, Max: mgl64.Vec3{1, 1, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.aabb1.Overlaps(tt.aabb2) || tt.aabb2.Overlaps(tt.aabb1) {
				t.Errorf("AABBs should not overlap")
			}
			if tt.aabb1.Intersects(tt.aabb2) {
				t.Errorf("AABBs should not intersect")
			}
		})
	}
}

func TestNewAABBNormalizesCorners(t *testing.T) {
	got := NewAABB(1, 5, -1, 0, 2, -3)
	want := AABB{Min: mgl64.Vec3{0, 2, -3}, Max: mgl64.Vec3{1, 5, -1}}
	if got != want {
		t.Errorf("NewAABB = %v, want %v", got, want)
	}
}

func TestAABBStretch(t *testing.T) {
	a := NewAABB(0, 0, 0, 1, 1, 1)

	got := a.Stretch(mgl64.Vec3{2, -3, 0})
	want := AABB{Min: mgl64.Vec3{0, -3, 0}, Max: mgl64.Vec3{3, 1, 1}}
	if got != want {
		t.Errorf("Stretch = %v, want %v", got, want)
	}
}

func TestAABBOffsetAndExpand(t *testing.T) {
	a := NewAABB(0, 0, 0, 1, 1, 1)

	if got, want := a.Offset(mgl64.Vec3{1, 2, 3}), NewAABB(1, 2, 3, 2, 3, 4); got != want {
		t.Errorf("Offset = %v, want %v", got, want)
	}
	if got, want := a.Expand(mgl64.Vec3{1, 1, 1}), NewAABB(-1, -1, -1, 2, 2, 2); got != want {
		t.Errorf("Expand = %v, want %v", got, want)
	}
}

func TestAABBAxisAccessors(t *testing.T) {
	a := NewAABB(1, 2, 3, 4, 5, 6)
	for i, axis := range Axes() {
		if got := a.MinOn(axis); got != float64(i+1) {
			t.Errorf("MinOn(%v) = %v, want %v", axis, got, i+1)
		}
		if got := a.MaxOn(axis); got != float64(i+4) {
			t.Errorf("MaxOn(%v) = %v, want %v", axis, got, i+4)
		}
	}
}

func TestAABBContainsPoint(t *testing.T) {
	a := NewAABB(0, 0, 0, 1, 1, 1)
	if !a.ContainsPoint(mgl64.Vec3{1, 1, 1}) {
		t.Errorf("max corner should be contained")
	}
	if a.ContainsPoint(mgl64.Vec3{1.5, 0.5, 0.5}) {
		t.Errorf("outside point should not be contained")
	}
}
