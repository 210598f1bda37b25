package curve

import (
	gomath "math"
	"math/rand"
	"testing"

	"github.com/Faultbox/railplan/pkg/math"
)

const eps = 1e-9

func near(a, b math.Vec3, tol float64) bool {
	return a.ApproxEqual(b, tol)
}

func TestLineSegment(t *testing.T) {
	s := Line(math.V3(0, 0, 0), math.V3(3, 0, 4))
	if got := s.Length(); gomath.Abs(got-5) > eps {
		t.Errorf("Length() = %v, want 5", got)
	}
	if got := s.PointAt(0.5); !near(got, math.V3(1.5, 0, 2), eps) {
		t.Errorf("PointAt(0.5) = %v", got)
	}
	if got := s.TangentAt(0.3); !near(got, math.V3(0.6, 0, 0.8), eps) {
		t.Errorf("TangentAt() = %v", got)
	}
	if s.End() != math.V3(3, 0, 4) || len(s.Controls()) != 2 {
		t.Errorf("End() = %v, Controls() = %v", s.End(), s.Controls())
	}
}

func TestBezierSegment(t *testing.T) {
	// Evenly spaced colinear controls trace the straight line at uniform speed.
	s := Bezier(math.V3(0, 0, 0), math.V3(1, 0, 0), math.V3(2, 0, 0), math.V3(3, 0, 0))
	if got := s.Length(); gomath.Abs(got-3) > 1e-9 {
		t.Errorf("Length() = %v, want 3", got)
	}
	if got := s.PointAt(0.5); !near(got, math.V3(1.5, 0, 0), eps) {
		t.Errorf("PointAt(0.5) = %v", got)
	}
	if got := s.TangentAt(1); !near(got, math.V3(1, 0, 0), eps) {
		t.Errorf("TangentAt(1) = %v", got)
	}

	quarter := BezierFromHandles(math.V3(0, 0, 0), math.V3(1, 0, 0), math.V3(10, 0, 10), math.V3(0, 0, -1), 5.5)
	if quarter.Points[1] != math.V3(5.5, 0, 0) || quarter.Points[2] != math.V3(10, 0, 4.5) {
		t.Errorf("handles = %v, %v", quarter.Points[1], quarter.Points[2])
	}
	arc := gomath.Pi / 2 * 10
	if got := quarter.Length(); gomath.Abs(got-arc) > 0.1 {
		t.Errorf("quarter Length() = %v, want about %v", got, arc)
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		k      Kind
		name   string
		points int
	}{
		{KindLine, "line", 2},
		{KindBezier, "bezier", 4},
		{Kind(9), "kind(9)", 0},
	}
	for _, tt := range tests {
		if tt.k.String() != tt.name || tt.k.ControlPoints() != tt.points {
			t.Errorf("%d: %q/%d", tt.k, tt.k.String(), tt.k.ControlPoints())
		}
	}
}

func TestRasterize(t *testing.T) {
	pts := Line(math.V3(0, 5, 0), math.V3(10, 5, 0)).Rasterize(2)
	if len(pts) != 6 {
		t.Fatalf("len = %d, want 6", len(pts))
	}
	for i, p := range pts {
		if !near(p, math.V3(float64(i), 0, 0), eps) {
			t.Errorf("pts[%d] = %v", i, p)
		}
	}
	if got := len(Bezier(math.V3(0, 0, 0), math.V3(1, 0, 0), math.V3(2, 0, 1), math.V3(3, 0, 3)).Rasterize(1)); got != 21 {
		t.Errorf("bezier raster len = %d, want 21", got)
	}
}

func lShape() *Composite {
	return New(
		Line(math.V3(0, 0, 0), math.V3(10, 0, 0)),
		Line(math.V3(10, 0, 0), math.V3(10, 0, 10)),
	)
}

func TestCompositeLength(t *testing.T) {
	c := lShape()
	if c.Len() != 2 || gomath.Abs(c.TotalLength()-20) > eps {
		t.Errorf("Len() = %d, TotalLength() = %v", c.Len(), c.TotalLength())
	}
	c.Append(Line(math.V3(10, 0, 10), math.V3(0, 0, 10)))
	if gomath.Abs(c.TotalLength()-30) > eps {
		t.Errorf("TotalLength() after Append = %v", c.TotalLength())
	}
}

func TestFrameAt(t *testing.T) {
	c := lShape()
	tests := []struct {
		name     string
		query    math.Vec3
		point    math.Vec3
		tangent0 math.Vec3
		globalT  float64
		seg      int
	}{
		{"first leg", math.V3(5, 3, 2), math.V3(5, 0, 0), math.V3(1, 0, 0), 0.25, 0},
		{"second leg", math.V3(10.5, 0, 5), math.V3(10, 0, 5), math.V3(0, 0, 1), 0.75, 1},
		{"between samples", math.V3(3.1, 0, -1), math.V3(3.1, 0, 0), math.V3(1, 0, 0), 0.155, 0},
		{"before start", math.V3(-4, 0, 0), math.V3(0, 0, 0), math.V3(1, 0, 0), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := c.FrameAt(tt.query)
			if !ok {
				t.Fatal("FrameAt() found nothing")
			}
			if !near(f.Point, tt.point, 1e-6) {
				t.Errorf("Point = %v, want %v", f.Point, tt.point)
			}
			if !near(f.Tangent0, tt.tangent0, 1e-6) {
				t.Errorf("Tangent0 = %v, want %v", f.Tangent0, tt.tangent0)
			}
			if gomath.Abs(f.GlobalT-tt.globalT) > 1e-6 {
				t.Errorf("GlobalT = %v, want %v", f.GlobalT, tt.globalT)
			}
			if f.Segment != tt.seg {
				t.Errorf("Segment = %d, want %d", f.Segment, tt.seg)
			}
			if f.Normal0 != math.Up {
				t.Errorf("Normal0 = %v", f.Normal0)
			}
			if !near(f.Binormal0, f.Tangent0.Cross(math.Up), eps) {
				t.Errorf("Binormal0 = %v", f.Binormal0)
			}
		})
	}
}

func TestFrameAtIgnoresElevation(t *testing.T) {
	c := New(Line(math.V3(0, 0, 0), math.V3(10, 10, 0)))
	f, ok := c.FrameAt(math.V3(5, -50, 0))
	if !ok {
		t.Fatal("FrameAt() found nothing")
	}
	if !near(f.Point, math.V3(5, 5, 0), 1e-6) {
		t.Errorf("Point = %v, want (5, 5, 0)", f.Point)
	}
	if !near(f.Tangent0, math.V3(1, 0, 0), 1e-9) {
		t.Errorf("Tangent0 = %v", f.Tangent0)
	}
	if gomath.Abs(f.Tangent.Y) < 0.5 {
		t.Errorf("Tangent = %v lost its slope", f.Tangent)
	}
}

func TestFrameAtEmpty(t *testing.T) {
	if _, ok := New().FrameAt(math.V3(0, 0, 0)); ok {
		t.Error("FrameAt() on empty curve reported a frame")
	}
}

func TestFrameLocalRoundTrip(t *testing.T) {
	c := lShape()
	f, _ := c.FrameAt(math.V3(5, 0, 0))

	p := math.V3(6, 2, 3)
	local := f.ToLocal(p)
	if !near(local, math.V3(1, 2, 3), 1e-9) {
		t.Errorf("ToLocal() = %v, want (1, 2, 3)", local)
	}
	if back := f.ToWorld(local); !near(back, p, 1e-9) {
		t.Errorf("ToWorld() = %v, want %v", back, p)
	}
}

func TestPointAtDistance(t *testing.T) {
	c := lShape()
	tests := []struct {
		d    float64
		want math.Vec3
	}{
		{0, math.V3(0, 0, 0)},
		{4, math.V3(4, 0, 0)},
		{10, math.V3(10, 0, 0)},
		{15, math.V3(10, 0, 5)},
		{100, math.V3(10, 0, 10)},
		{-3, math.V3(0, 0, 0)},
	}
	for _, tt := range tests {
		if got := c.PointAtDistance(tt.d); !near(got, tt.want, 1e-9) {
			t.Errorf("PointAtDistance(%v) = %v, want %v", tt.d, got, tt.want)
		}
	}

	pts := c.Sample(5)
	if len(pts) != 5 || !near(pts[4], math.V3(10, 0, 10), eps) {
		t.Errorf("Sample(5) = %v", pts)
	}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	c := New(
		Bezier(math.V3(0, 0, 0), math.V3(20, 0, 0), math.V3(30, 5, 10), math.V3(30, 5, 30)),
		Line(math.V3(30, 5, 30), math.V3(30, 8, 60)),
	)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		q := math.V3(rng.Float64()*70-20, 0, rng.Float64()*90-20)
		got := c.samples[c.nearest(c.tree, q, -1)].pos.DistanceSq(q)

		want := gomath.MaxFloat64
		for _, s := range c.samples {
			want = min(want, s.pos.DistanceSq(q))
		}
		if gomath.Abs(got-want) > 1e-9 {
			t.Fatalf("query %v: kd-tree %v, brute force %v", q, got, want)
		}
	}
}

func TestSecondOnSegmentStaysOnSegment(t *testing.T) {
	c := New(
		Line(math.V3(0, 0, 0), math.V3(30, 0, 0)),
		Bezier(math.V3(30, 0, 0), math.V3(40, 0, 0), math.V3(50, 0, 10), math.V3(50, 0, 20)),
		Line(math.V3(50, 0, 20), math.V3(50, 0, 60)),
	)
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		q := math.V3(rng.Float64()*70-10, 0, rng.Float64()*80-10)
		best := c.nearest(c.tree, q, -1)
		second := c.secondOnSegment(best, q)
		if second < 0 || c.samples[second].seg != c.samples[best].seg {
			t.Fatalf("query %v: second %d not on segment %d", q, second, c.samples[best].seg)
		}

		want := gomath.MaxFloat64
		for j, s := range c.samples {
			if j != best && s.seg == c.samples[best].seg {
				want = min(want, s.pos.DistanceSq(q))
			}
		}
		if got := c.samples[second].pos.DistanceSq(q); gomath.Abs(got-want) > 1e-9 {
			t.Fatalf("query %v: second sample %v, brute force %v", q, got, want)
		}
	}
}
