package track

import (
	gomath "math"

	"github.com/Faultbox/railplan/pkg/math"
)

// Extended is a connection split into a straight lead-in, a curve and a
// straight lead-out.
type Extended struct {
	StartExt   float64   // Straight run from the start before the curve
	EndExt     float64   // Straight run before the end after the curve
	CurveStart math.Vec3 // Start position advanced by StartExt
	CurveEnd   math.Vec3 // End position pulled back by EndExt
	Straight   bool      // No curve needed; the ends are colinear
}

// Extension computes the straight extensions that make a connection's
// curve symmetric. For a turn the longer intersection leg is shortened to
// match the other. For an S-curve the forward run beyond the standard
// length is split between both ends. Climbing between the ends raises the
// minimum turn size.
func (r Rules) Extension(startPos, startAxis, endPos, endAxis math.Vec3) (Extended, Verdict) {
	v := r.Validate(startPos, startAxis, endPos, endAxis)
	if !v.Valid() {
		return Extended{}, v
	}

	axis1 := startAxis.Normalize()
	axis2 := endAxis.Normalize()
	ascend := gomath.Abs(endPos.Y - startPos.Y)
	var ext Extended

	if !v.Parallel {
		t, u, _ := math.Intersect(startPos.XZ(), endPos.XZ(), axis1.XZ(), axis2.XZ())
		d1, d2 := gomath.Abs(t), gomath.Abs(u)
		if d1 > d2 {
			ext.StartExt = d1 - d2
		} else if d2 > d1 {
			ext.EndExt = d2 - d1
		}
		if v.TurnSize < ascentTurnSize(v.Angle, ascend) {
			v.Reason = TooSteep
			return Extended{}, v
		}
	} else {
		cross2 := axis2.Cross(math.Up)
		t, u, ok := math.Intersect(startPos.XZ(), endPos.XZ(), axis1.XZ(), cross2.XZ())
		if ok {
			t, u = gomath.Abs(t), gomath.Abs(u)
			if u < equalEps {
				ext.Straight = true
			} else if target := sCurveLength(u); t > target {
				correction := int(t - target)
				ext.StartExt = float64(correction/2 + correction%2)
				ext.EndExt = float64(correction / 2)
			}
		}
	}

	ext.CurveStart = startPos.Add(axis1.Flat().Normalize().Scale(ext.StartExt))
	ext.CurveEnd = endPos.Add(axis2.Flat().Normalize().Scale(ext.EndExt))
	return ext, v
}

// Extension computes extensions with the default rules.
func Extension(startPos, startAxis, endPos, endAxis math.Vec3) (Extended, Verdict) {
	return Rules{MaxSpan: DefaultMaxSpan}.Extension(startPos, startAxis, endPos, endAxis)
}

// ascentTurnSize is the minimum turn size that can carry a climb of ascend.
func ascentTurnSize(angle, ascend float64) float64 {
	if isNinety(angle) {
		return 7 + max(0, ascend-3)*2
	}
	return 3.25 + max(0, ascend-1.5)*13.66
}
