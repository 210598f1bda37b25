// Package track turns a processed waypoint polyline into a chain of rail
// segments and the per-tile placements that build it.
package track

import (
	gomath "math"

	"github.com/Faultbox/railplan/pkg/math"
)

// DefaultMaxSpan is the longest connection a single segment may cover.
const DefaultMaxSpan = 100.0

// equalEps matches the tolerance used for near-zero geometry checks.
const equalEps = 1e-5

// Reason explains a Verdict.
type Reason uint8

const (
	Valid Reason = iota
	TooFar
	Coincident
	HeadOn         // Parallel tangents pointing the same way
	TurnTooSharp   // Turn angle outside [60°, 300°]
	BehindEndpoint // Tangent intersection behind an endpoint
	TurnTooTight   // Shorter intersection leg below the minimum turn size
	TooSteep       // Turn too small for the climb it has to carry
	SCurveBehind   // End lies behind the start of an S-curve
	SCurveTooTight // S-curve too short for its lateral offset
)

var reasonNames = [...]string{
	Valid:          "valid",
	TooFar:         "too far",
	Coincident:     "coincident endpoints",
	HeadOn:         "head-on parallel",
	TurnTooSharp:   "turn too sharp",
	BehindEndpoint: "intersection behind endpoint",
	TurnTooTight:   "turn radius too small",
	TooSteep:       "turn too small for ascent",
	SCurveBehind:   "s-curve behind start",
	SCurveTooTight: "s-curve too tight",
}

func (r Reason) String() string {
	if int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return "unknown"
}

// Verdict is the outcome of a placement check.
type Verdict struct {
	Reason   Reason
	Parallel bool
	Angle    float64 // Absolute heading difference in degrees, non-parallel only
	TurnSize float64 // Shorter intersection leg minus margin, non-parallel only
}

// Valid reports whether the connection may be built.
func (v Verdict) Valid() bool {
	return v.Reason == Valid
}

// Rules holds the tunable limits of placement validation.
type Rules struct {
	MaxSpan float64
}

// Validate checks a connection with the default rules.
func Validate(startPos, startAxis, endPos, endAxis math.Vec3) Verdict {
	return Rules{MaxSpan: DefaultMaxSpan}.Validate(startPos, startAxis, endPos, endAxis)
}

// Validate checks whether a single line or Bézier can join startPos,
// leaving along startAxis, to endPos, arriving against endAxis. endAxis
// points back along the connection, so a straight run has opposite axes.
func (r Rules) Validate(startPos, startAxis, endPos, endAxis math.Vec3) Verdict {
	maxSpan := r.MaxSpan
	if maxSpan <= 0 {
		maxSpan = DefaultMaxSpan
	}
	if startPos.DistanceSq(endPos) > maxSpan*maxSpan {
		return Verdict{Reason: TooFar}
	}
	if startPos == endPos {
		return Verdict{Reason: Coincident}
	}

	axis1 := startAxis.Normalize()
	axis2 := endAxis.Normalize()
	t, u, ok := math.Intersect(startPos.XZ(), endPos.XZ(), axis1.XZ(), axis2.XZ())
	if !ok {
		return validateParallel(startPos, endPos, axis1, axis2)
	}

	v := Verdict{Angle: turnAngle(axis1, axis2)}
	if v.Angle < 60 || v.Angle > 300 {
		v.Reason = TurnTooSharp
		return v
	}
	if t < 0 || u < 0 {
		v.Reason = BehindEndpoint
		return v
	}
	v.TurnSize = min(gomath.Abs(t), gomath.Abs(u)) - 0.1
	if v.TurnSize < minTurnSize(v.Angle) {
		v.Reason = TurnTooTight
	}
	return v
}

func validateParallel(startPos, endPos, axis1, axis2 math.Vec3) Verdict {
	v := Verdict{Parallel: true}
	if axis1.Dot(axis2) > 0 {
		v.Reason = HeadOn
		return v
	}

	cross2 := axis2.Cross(math.Up)
	t, u, ok := math.Intersect(startPos.XZ(), endPos.XZ(), axis1.XZ(), cross2.XZ())
	if !ok {
		return v
	}
	if t < 0 {
		v.Reason = SCurveBehind
		return v
	}
	if lateral := gomath.Abs(u); lateral >= equalEps {
		if gomath.Abs(t) < sCurveLength(lateral) {
			v.Reason = SCurveTooTight
		}
	}
	return v
}

// turnAngle returns |heading(axis2) − heading(axis1)| in degrees, without
// wrapping. A straight run scores 180.
func turnAngle(axis1, axis2 math.Vec3) float64 {
	a1 := gomath.Atan2(axis2.Z, axis2.X)
	a2 := gomath.Atan2(axis1.Z, axis1.X)
	return gomath.Abs((a1 - a2) * 180 / gomath.Pi)
}

// isNinety reports whether a turn angle sits on a multiple of 90°.
func isNinety(angle float64) bool {
	return gomath.Mod(angle+0.25, 90) < 1
}

func minTurnSize(angle float64) float64 {
	if isNinety(angle) {
		return 7
	}
	return 3.25
}

// sCurveLength is the shortest forward run that resolves a lateral offset.
func sCurveLength(lateral float64) float64 {
	if lateral <= 1 {
		return 3
	}
	return lateral * 2
}
