// Package shape implements the collision shapes used by the voxel world:
// a single axis-aligned cuboid with O(1) sweep queries, and the general
// voxel-set shape it specializes.
package shape

import (
	"errors"
	"fmt"
)

// Epsilon is the tolerance applied to every geometric comparison that has to
// survive floating point noise from repeated offsets.
const Epsilon = 1e-7

var (
	ErrInvalidAxis      = errors.New("shape: invalid axis")
	ErrInvalidCycle     = errors.New("shape: invalid axis cycle")
	ErrIndexOutOfRange  = errors.New("shape: point index out of range")
	ErrPointCount       = errors.New("shape: point count does not match voxel size")
	ErrUnsupportedShape = errors.New("shape: unsupported shape variant")
)

// LessThan reports whether a is below b by more than Epsilon.
// Only the left operand is inflated.
func LessThan(a, b float64) bool {
	return a+Epsilon < b
}

// Axis is one of the three world axes.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

var axes = [3]Axis{X, Y, Z}

// Axes returns X, Y and Z in order.
func Axes() [3]Axis {
	return axes
}

func (a Axis) Valid() bool {
	return a >= X && a <= Z
}

// Choose returns the component of (x, y, z) matching the axis.
func (a Axis) Choose(x, y, z float64) float64 {
	switch a {
	case X:
		return x
	case Y:
		return y
	case Z:
		return z
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(a)))
}

func (a Axis) ChooseInt(x, y, z int) int {
	switch a {
	case X:
		return x
	case Y:
		return y
	case Z:
		return z
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(a)))
}

func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// AxisCycle is a cyclic permutation of the axes. It lets one 1D sweep routine
// serve all three world axes.
type AxisCycle int

const (
	// CycleNone keeps (x, y, z).
	CycleNone AxisCycle = iota
	// CycleForward maps (x, y, z) to (z, x, y).
	CycleForward
	// CycleBackward maps (x, y, z) to (y, z, x).
	CycleBackward
)

func (c AxisCycle) Valid() bool {
	return c >= CycleNone && c <= CycleBackward
}

// Between returns the cycle that carries from onto to.
func Between(from, to Axis) AxisCycle {
	if !from.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(from)))
	}
	if !to.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(to)))
	}
	return AxisCycle(((int(to)-int(from))%3 + 3) % 3)
}

// Opposite returns the inverse permutation.
func (c AxisCycle) Opposite() AxisCycle {
	switch c {
	case CycleNone:
		return CycleNone
	case CycleForward:
		return CycleBackward
	case CycleBackward:
		return CycleForward
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidCycle, int(c)))
}

// Cycle applies the permutation to a single axis.
func (c AxisCycle) Cycle(a Axis) Axis {
	if !a.Valid() {
		panic(fmt.Errorf("%w: %d", ErrInvalidAxis, int(a)))
	}
	switch c {
	case CycleNone:
		return a
	case CycleForward:
		return axes[(int(a)+1)%3]
	case CycleBackward:
		return axes[(int(a)+2)%3]
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidCycle, int(c)))
}

// Choose permutes (x, y, z) by the cycle, then selects the axis component.
func (c AxisCycle) Choose(x, y, z float64, a Axis) float64 {
	switch c {
	case CycleNone:
		return a.Choose(x, y, z)
	case CycleForward:
		return a.Choose(z, x, y)
	case CycleBackward:
		return a.Choose(y, z, x)
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidCycle, int(c)))
}

func (c AxisCycle) ChooseInt(x, y, z int, a Axis) int {
	switch c {
	case CycleNone:
		return a.ChooseInt(x, y, z)
	case CycleForward:
		return a.ChooseInt(z, x, y)
	case CycleBackward:
		return a.ChooseInt(y, z, x)
	}
	panic(fmt.Errorf("%w: %d", ErrInvalidCycle, int(c)))
}

// SweepAxis is the world axis a sweep under this cycle moves along:
// X for CycleNone, Z for CycleForward, Y for CycleBackward.
func (c AxisCycle) SweepAxis() Axis {
	return c.Opposite().Cycle(X)
}

func (c AxisCycle) String() string {
	switch c {
	case CycleNone:
		return "none"
	case CycleForward:
		return "forward"
	case CycleBackward:
		return "backward"
	}
	return fmt.Sprintf("AxisCycle(%d)", int(c))
}
