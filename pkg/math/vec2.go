package math

import "math"

// Vec2 is a 2D vector in the horizontal plane (X, Z).
type Vec2 struct {
	X, Y float64
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{v.X + other.X, v.Y + other.Y}
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{v.X - other.X, v.Y - other.Y}
}

// Scale returns v * scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

// Dot returns the dot product.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Cross returns the z component of the 3D cross product.
func (v Vec2) Cross(other Vec2) float64 {
	return v.X*other.Y - v.Y*other.X
}

// Length returns the magnitude.
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit vector.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Distance returns the distance to another point.
func (v Vec2) Distance(other Vec2) float64 {
	return v.Sub(other).Length()
}

// Angle returns the heading of v in radians, measured from +X toward +Z.
func (v Vec2) Angle() float64 {
	return math.Atan2(v.Y, v.X)
}

// Intersect intersects the lines p1 + t*d1 and p2 + u*d2 and returns (t, u).
// ok is false when the lines are parallel.
func Intersect(p1, p2, d1, d2 Vec2) (t, u float64, ok bool) {
	det := d1.Cross(d2)
	if math.Abs(det) < 1e-5 {
		return 0, 0, false
	}
	diff := p2.Sub(p1)
	t = diff.Cross(d2) / det
	u = diff.Cross(d1) / det
	return t, u, true
}
