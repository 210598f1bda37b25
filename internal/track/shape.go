package track

import (
	gomath "math"

	"github.com/Faultbox/railplan/pkg/math"
)

// Shape is the orientation of a single track tile.
type Shape uint8

const (
	ShapeZO Shape = iota // Along Z
	ShapeXO              // Along X
	ShapePD              // Diagonal, x and z growing together
	ShapeND              // Diagonal, x growing as z shrinks
)

func (s Shape) String() string {
	switch s {
	case ShapeZO:
		return "ZO"
	case ShapeXO:
		return "XO"
	case ShapePD:
		return "PD"
	case ShapeND:
		return "ND"
	default:
		return "?"
	}
}

// dir8 holds the unit vectors at headings 0°, 45°, … 315°, measured from
// +Z toward +X.
var dir8 = func() [8]math.Vec3 {
	d := gomath.Sqrt2 / 2
	return [8]math.Vec3{
		{X: 0, Z: 1},
		{X: d, Z: d},
		{X: 1, Z: 0},
		{X: d, Z: -d},
		{X: 0, Z: -1},
		{X: -d, Z: -d},
		{X: -1, Z: 0},
		{X: -d, Z: d},
	}
}()

// dir8Index returns the index into dir8 of the heading closest to v. A
// vector with no horizontal component maps to +Z.
func dir8Index(v math.Vec3) int {
	if gomath.Abs(v.X) < 1e-9 && gomath.Abs(v.Z) < 1e-9 {
		return 0
	}
	deg := gomath.Atan2(v.X, v.Z) * 180 / gomath.Pi
	if deg < 0 {
		deg += 360
	}
	best, bestDiff := 0, gomath.MaxFloat64
	for i := range dir8 {
		diff := gomath.Abs(deg - float64(i)*45)
		diff = min(diff, 360-diff)
		if diff < bestDiff {
			best, bestDiff = i, diff
		}
	}
	return best
}

// Dir8 snaps v to the nearest of the eight horizontal compass directions.
func Dir8(v math.Vec3) math.Vec3 {
	return dir8[dir8Index(v)]
}

// ShapeOf returns the tile shape for travel along v.
func ShapeOf(v math.Vec3) Shape {
	switch dir8Index(v) % 4 {
	case 0:
		return ShapeZO
	case 1:
		return ShapePD
	case 2:
		return ShapeXO
	default:
		return ShapeND
	}
}

// Rotate8 snaps v to a compass direction and turns it by steps of 45°,
// positive steps turning from +Z toward +X.
func Rotate8(v math.Vec3, steps int) math.Vec3 {
	i := (dir8Index(v) + steps) % 8
	if i < 0 {
		i += 8
	}
	return dir8[i]
}
