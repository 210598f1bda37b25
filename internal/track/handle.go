package track

import (
	gomath "math"

	"github.com/Faultbox/railplan/internal/curve"
	"github.com/Faultbox/railplan/pkg/math"
)

// HandleLength returns the control handle length for a Bézier from p0
// (leaving along axis1) to p3 (axis2 pointing back along the curve).
//
// Turns are treated as an arc of a regular polygon with 360°/angle sides,
// giving (4/3)·tan(π/2n)·radius. Parallel axes form an S-curve whose handle
// comes from the longitudinal to lateral ratio when it lies in (1, 3), and
// a third of the chord otherwise. A zero result becomes 1.
func HandleLength(p0, p3, axis1, axis2 math.Vec3) float64 {
	axis1 = axis1.Normalize()
	axis2 = axis2.Normalize()
	cross1 := axis1.Cross(math.Up)
	cross2 := axis2.Cross(math.Up)

	a1 := gomath.Atan2(-axis2.Z, -axis2.X)
	a2 := gomath.Atan2(axis1.Z, axis1.X)
	const circle = 2 * gomath.Pi
	angle := gomath.Mod(a1-a2+circle, circle)
	if gomath.Abs(circle-angle) < gomath.Abs(angle) {
		angle = circle - angle
	}

	if gomath.Abs(angle) < equalEps {
		if t, u, ok := math.Intersect(p0.XZ(), p3.XZ(), axis1.XZ(), cross2.XZ()); ok {
			lo := min(gomath.Abs(t), gomath.Abs(u))
			hi := max(gomath.Abs(t), gomath.Abs(u))
			if lo > 1.2 && hi/lo > 1 && hi/lo < 3 {
				return hi - lo
			}
		}
		return p3.Distance(p0) / 3
	}

	n := circle / angle
	factor := 4.0 / 3.0 * gomath.Tan(gomath.Pi/(2*n))
	_, u, ok := math.Intersect(p0.XZ(), p3.XZ(), cross1.XZ(), cross2.XZ())
	if !ok {
		return p3.Distance(p0) / 3
	}

	handle := gomath.Abs(u) * factor
	if gomath.Abs(handle) < equalEps {
		handle = 1
	}
	return handle
}

// NewBezier builds the cubic Bézier from start to start+endOffset with
// handles sized by HandleLength.
func NewBezier(start, startAxis, endOffset, endAxis math.Vec3) curve.Segment {
	end := start.Add(endOffset)
	axis1 := startAxis.Normalize()
	axis2 := endAxis.Normalize()
	return curve.BezierFromHandles(start, axis1, end, axis2, HandleLength(start, end, axis1, axis2))
}
