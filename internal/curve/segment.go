// Package curve holds composite rail curves built from straight and cubic
// Bézier segments, with nearest-point frames and arc-length queries.
package curve

import (
	"fmt"

	"github.com/Faultbox/railplan/pkg/math"
)

// Kind tags the shape of a Segment.
type Kind uint8

const (
	KindLine Kind = iota + 1
	KindBezier
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindBezier:
		return "bezier"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ControlPoints returns how many points define a segment of this kind.
func (k Kind) ControlPoints() int {
	switch k {
	case KindLine:
		return 2
	case KindBezier:
		return 4
	default:
		return 0
	}
}

// bezierSteps is the polyline resolution used to measure a Bézier.
const bezierSteps = 20

// Segment is a line (Points[0], Points[1]) or a cubic Bézier
// (Points[0..3]).
type Segment struct {
	Kind   Kind
	Points [4]math.Vec3
}

// Line returns a straight segment from a to b.
func Line(a, b math.Vec3) Segment {
	return Segment{Kind: KindLine, Points: [4]math.Vec3{a, b}}
}

// Bezier returns a cubic Bézier segment.
func Bezier(p0, p1, p2, p3 math.Vec3) Segment {
	return Segment{Kind: KindBezier, Points: [4]math.Vec3{p0, p1, p2, p3}}
}

// BezierFromHandles builds a Bézier from start, end and the two end axes
// with both handles of length handle. endAxis points back along the curve,
// so P2 = end + endAxis·handle.
func BezierFromHandles(start, startAxis, end, endAxis math.Vec3, handle float64) Segment {
	return Bezier(
		start,
		start.Add(startAxis.Normalize().Scale(handle)),
		end.Add(endAxis.Normalize().Scale(handle)),
		end,
	)
}

// Controls returns the defining points of s.
func (s Segment) Controls() []math.Vec3 {
	return s.Points[:s.Kind.ControlPoints()]
}

// Start returns the first endpoint.
func (s Segment) Start() math.Vec3 {
	return s.Points[0]
}

// End returns the last endpoint.
func (s Segment) End() math.Vec3 {
	switch s.Kind {
	case KindLine:
		return s.Points[1]
	case KindBezier:
		return s.Points[3]
	default:
		return s.Points[0]
	}
}

// PointAt evaluates the segment at u in [0, 1].
func (s Segment) PointAt(u float64) math.Vec3 {
	p := s.Points
	switch s.Kind {
	case KindLine:
		return p[0].Lerp(p[1], u)
	case KindBezier:
		v := 1 - u
		return p[0].Scale(v * v * v).
			Add(p[1].Scale(3 * v * v * u)).
			Add(p[2].Scale(3 * v * u * u)).
			Add(p[3].Scale(u * u * u))
	default:
		return p[0]
	}
}

// TangentAt returns the unit tangent at u.
func (s Segment) TangentAt(u float64) math.Vec3 {
	p := s.Points
	switch s.Kind {
	case KindLine:
		return p[1].Sub(p[0]).Normalize()
	case KindBezier:
		v := 1 - u
		return p[1].Sub(p[0]).Scale(3 * v * v).
			Add(p[2].Sub(p[1]).Scale(6 * v * u)).
			Add(p[3].Sub(p[2]).Scale(3 * u * u)).
			Normalize()
	default:
		return math.Vec3{}
	}
}

// Length returns the arc length. Béziers are measured along a fixed
// polyline approximation.
func (s Segment) Length() float64 {
	switch s.Kind {
	case KindLine:
		return s.Points[0].Distance(s.Points[1])
	case KindBezier:
		length := 0.0
		prev := s.PointAt(0)
		for i := 1; i <= bezierSteps; i++ {
			cur := s.PointAt(float64(i) / bezierSteps)
			length += prev.Distance(cur)
			prev = cur
		}
		return length
	default:
		return 0
	}
}

// uAtDistance inverts Length for a distance d along the segment.
func (s Segment) uAtDistance(d float64) float64 {
	switch s.Kind {
	case KindLine:
		l := s.Length()
		if l == 0 {
			return 0
		}
		return clamp01(d / l)
	case KindBezier:
		walked := 0.0
		prev := s.PointAt(0)
		for i := 1; i <= bezierSteps; i++ {
			cur := s.PointAt(float64(i) / bezierSteps)
			step := prev.Distance(cur)
			if walked+step >= d {
				frac := 0.0
				if step > 0 {
					frac = (d - walked) / step
				}
				return (float64(i-1) + clamp01(frac)) / bezierSteps
			}
			walked += step
			prev = cur
		}
		return 1
	default:
		return 0
	}
}

// Rasterize projects the segment onto a horizontal grid of cell size n and
// returns the visited points in cell units, y = 0. Lines step roughly once
// per cell; Béziers use the fixed polyline resolution.
func (s Segment) Rasterize(n int) []math.Vec3 {
	if n <= 0 {
		n = 1
	}
	steps := bezierSteps
	if s.Kind == KindLine {
		steps = max(1, int(s.Length()/float64(n)))
	}
	out := make([]math.Vec3, 0, steps+1)
	for i := 0; i <= steps; i++ {
		p := s.PointAt(float64(i) / float64(steps))
		out = append(out, math.Vec3{X: p.X / float64(n), Z: p.Z / float64(n)})
	}
	return out
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
