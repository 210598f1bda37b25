package curve

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/railplan/pkg/math"
)

// Frame is a local coordinate system at a curve point. Tangent0 is the
// horizontal travel direction, Normal0 is world up and Binormal0 points
// sideways (Tangent0 × Normal0).
type Frame struct {
	Point     math.Vec3
	Tangent   math.Vec3
	Tangent0  math.Vec3
	Normal0   math.Vec3
	Binormal0 math.Vec3
	GlobalT   float64 // Arc-length fraction over the whole curve
	LocalU    float64 // Parameter within the segment
	Segment   int
}

func newFrame(point, tangent math.Vec3, globalT, localU float64, seg int) Frame {
	t0 := tangent.Flat().Normalize()
	return Frame{
		Point:     point,
		Tangent:   tangent,
		Tangent0:  t0,
		Normal0:   math.Up,
		Binormal0: t0.Cross(math.Up),
		GlobalT:   globalT,
		LocalU:    localU,
		Segment:   seg,
	}
}

func toMgl(v math.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) math.Vec3 {
	return math.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// Basis returns the local-to-world rotation whose columns are Tangent0,
// Normal0 and Binormal0.
func (f Frame) Basis() mgl64.Mat3 {
	return mgl64.Mat3FromCols(toMgl(f.Tangent0), toMgl(f.Normal0), toMgl(f.Binormal0))
}

// ToLocal expresses world point p relative to the frame as (along, up,
// lateral).
func (f Frame) ToLocal(p math.Vec3) math.Vec3 {
	return fromMgl(f.Basis().Transpose().Mul3x1(toMgl(p.Sub(f.Point))))
}

// ToWorld maps a local (along, up, lateral) offset back to world space.
func (f Frame) ToWorld(local math.Vec3) math.Vec3 {
	return f.Point.Add(fromMgl(f.Basis().Mul3x1(toMgl(local))))
}
