package track

import (
	gomath "math"

	"github.com/Faultbox/railplan/internal/curve"
	"github.com/Faultbox/railplan/pkg/math"
)

// BezierInfo carries the geometry of a curved connection anchored at a
// placement.
type BezierInfo struct {
	Start     math.Vec3
	StartAxis math.Vec3
	EndOffset math.Vec3 // End position relative to Start
	EndAxis   math.Vec3 // Points back along the curve
}

// End returns the absolute end position.
func (b BezierInfo) End() math.Vec3 {
	return b.Start.Add(b.EndOffset)
}

// Placement describes one physical track tile.
type Placement struct {
	Pos      [3]int // x, y, z in blocks
	Shape    Shape
	Bezier   *BezierInfo // Set on tiles that anchor a curved connection
	EndShape Shape       // Orientation at the far end of Bezier
	Forced   bool        // Part of a connection that failed validation
}

// Result is an assembled connection.
type Result struct {
	Segments   []curve.Segment
	Placements []Placement
	Forced     int // Connections built without passing validation

	Curve *curve.Composite // Built from Segments once assembly finishes

	lineOpen bool // Last segment came from AddLine and may be extended
}

// AddLine appends a straight segment and one placement per tile along it.
// A line continuing the previous AddLine segment in the same direction and
// level extends it instead, sharing the joint tile.
func (r *Result) AddLine(start, end math.Vec3, forced bool) {
	first := 0
	if n := len(r.Segments); n > 0 && r.lineOpen && continuesLine(r.Segments[n-1], start, end) {
		r.Segments[n-1] = curve.Line(r.Segments[n-1].Start(), end)
		first = 1
	} else {
		r.Segments = append(r.Segments, curve.Line(start, end))
	}
	r.lineOpen = true

	// Unit steps along the dominant axis; the other axis follows the line.
	d := end.Sub(start)
	major := max(gomath.Abs(d.X), gomath.Abs(d.Z))
	steps := int(major)
	shape := ShapeOf(d)
	for k := first; k <= steps; k++ {
		r.Placements = append(r.Placements, Placement{
			Pos:      [3]int{int(start.X + lineStep(d.X, major, k)), int(start.Y), int(start.Z + lineStep(d.Z, major, k))},
			Shape:    shape,
			EndShape: shape,
			Forced:   forced,
		})
	}
}

// lineStep is the offset along one axis after k steps of a line whose
// dominant axis spans major.
func lineStep(v, major float64, k int) float64 {
	switch {
	case major == 0:
		return 0
	case gomath.Abs(v) == major:
		return gomath.Copysign(float64(k), v)
	default:
		return v * float64(k) / major
	}
}

func continuesLine(prev curve.Segment, start, end math.Vec3) bool {
	if prev.Kind != curve.KindLine || prev.End() != start {
		return false
	}
	a, b := prev.Start(), prev.End()
	if a.Y != b.Y || start.Y != end.Y {
		return false
	}
	return b.Sub(a).Normalize().Dot(end.Sub(start).Normalize()) > 0.9999
}

// AddBezier appends a curved connection from start to start+endOffset and
// a single placement anchoring it. A request whose axes are colinear with
// the offset degrades to a straight segment but keeps the anchor.
func (r *Result) AddBezier(start, startAxis, endOffset, endAxis math.Vec3, forced bool) {
	if gomath.Abs(startAxis.Dot(endAxis)) > 0.9999 && startAxis.Dot(endOffset.Normalize()) > 0.9999 {
		r.Segments = append(r.Segments, curve.Line(start, start.Add(endOffset)))
	} else {
		r.Segments = append(r.Segments, NewBezier(start, startAxis, endOffset, endAxis))
	}
	r.lineOpen = false
	r.Placements = append(r.Placements, Placement{
		Pos:   start.Trunc(),
		Shape: ShapeOf(startAxis),
		Bezier: &BezierInfo{
			Start:     start,
			StartAxis: startAxis,
			EndOffset: endOffset,
			EndAxis:   endAxis,
		},
		EndShape: ShapeOf(endAxis),
		Forced:   forced,
	})
}

// finish builds the composite curve.
func (r *Result) finish() {
	r.Curve = curve.New(r.Segments...)
}
