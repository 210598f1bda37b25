package curve

import (
	gomath "math"
	"sort"

	"github.com/Faultbox/railplan/pkg/math"
)

// SamplesPerSegment is the number of intervals sampled on each segment.
const SamplesPerSegment = 50

// sample is a point on the curve projected to the horizontal plane.
type sample struct {
	pos     math.Vec3 // Y is always 0
	tangent math.Vec3
	u       float64 // Parameter within the segment
	seg     int
	globalT float64 // Arc-length parameter over the whole curve
}

// Composite is an ordered chain of segments with a horizontal spatial index
// over its samples. It is not safe for concurrent mutation.
type Composite struct {
	segments []Segment
	lengths  []float64
	samples  []sample
	total    float64
	tree     *kdNode
}

// New returns a composite of segs.
func New(segs ...Segment) *Composite {
	c := &Composite{segments: append([]Segment(nil), segs...)}
	c.rebuild()
	return c
}

// Append adds a segment and rebuilds the samples and index.
func (c *Composite) Append(seg Segment) {
	c.segments = append(c.segments, seg)
	c.rebuild()
}

// Segments returns the segments in order. The slice must not be modified.
func (c *Composite) Segments() []Segment {
	return c.segments
}

// Len returns the number of segments.
func (c *Composite) Len() int {
	return len(c.segments)
}

// Segment returns the i-th segment.
func (c *Composite) Segment(i int) Segment {
	return c.segments[i]
}

// TotalLength returns the summed segment lengths.
func (c *Composite) TotalLength() float64 {
	return c.total
}

func (c *Composite) rebuild() {
	c.lengths = make([]float64, len(c.segments))
	c.total = 0
	for i, s := range c.segments {
		c.lengths[i] = s.Length()
		c.total += c.lengths[i]
	}

	c.samples = make([]sample, 0, len(c.segments)*(SamplesPerSegment+1))
	acc := 0.0
	for i, s := range c.segments {
		for j := 0; j <= SamplesPerSegment; j++ {
			u := float64(j) / SamplesPerSegment
			t := 0.0
			if c.total > 0 {
				t = (acc + u*c.lengths[i]) / c.total
			}
			c.samples = append(c.samples, sample{
				pos:     s.PointAt(u).Flat(),
				tangent: s.TangentAt(u),
				u:       u,
				seg:     i,
				globalT: t,
			})
		}
		acc += c.lengths[i]
	}

	idx := make([]int, len(c.samples))
	for i := range idx {
		idx[i] = i
	}
	c.tree = c.buildTree(idx, 0)
}

// FrameAt returns the frame at the curve point horizontally nearest to p.
// It reports false for an empty curve.
func (c *Composite) FrameAt(p math.Vec3) (Frame, bool) {
	if c.tree == nil {
		return Frame{}, false
	}
	q := p.Flat()

	best := c.nearest(c.tree, q, -1)
	second := c.secondOnSegment(best, q)
	if second < 0 {
		return Frame{}, false
	}
	a, b := c.samples[best], c.samples[second]

	line := b.pos.Sub(a.pos)
	factor := 0.0
	if l := line.LengthSq(); l > 1e-6 {
		factor = q.Sub(a.pos).Dot(line) / l
	}
	factor = clamp01(factor)

	tangent := a.tangent.Lerp(b.tangent, factor).Normalize()
	u := a.u + (b.u-a.u)*factor
	t := a.globalT + (b.globalT-a.globalT)*factor
	point := c.segments[a.seg].PointAt(u)

	return newFrame(point, tangent, t, u, a.seg), true
}

// secondOnSegment returns the sample nearest q on the same segment as best,
// excluding best itself, or -1.
func (c *Composite) secondOnSegment(best int, q math.Vec3) int {
	// Samples of one segment are contiguous.
	lo := c.samples[best].seg * (SamplesPerSegment + 1)
	second := -1
	minDist := gomath.MaxFloat64
	for i := lo; i <= lo+SamplesPerSegment; i++ {
		if i == best {
			continue
		}
		if d := c.samples[i].pos.DistanceSq(q); d < minDist {
			minDist = d
			second = i
		}
	}
	return second
}

// PointAtDistance returns the curve point d units of arc length from the
// start. d is clamped to [0, TotalLength].
func (c *Composite) PointAtDistance(d float64) math.Vec3 {
	if len(c.segments) == 0 {
		return math.Vec3{}
	}
	d = min(max(d, 0), c.total)
	for i, s := range c.segments {
		if d <= c.lengths[i] || i == len(c.segments)-1 {
			return s.PointAt(s.uAtDistance(d))
		}
		d -= c.lengths[i]
	}
	return c.segments[len(c.segments)-1].End()
}

// Sample returns points spaced step units of arc length apart, including
// both ends.
func (c *Composite) Sample(step float64) []math.Vec3 {
	if len(c.segments) == 0 || step <= 0 {
		return nil
	}
	n := int(gomath.Ceil(c.total / step))
	out := make([]math.Vec3, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, c.PointAtDistance(float64(i)*step))
	}
	return append(out, c.segments[len(c.segments)-1].End())
}

// kdNode is a 2-D (x, z) tree node over sample indices.
type kdNode struct {
	sample      int
	axis        int // 0 splits on X, 1 on Z
	left, right *kdNode
}

func axisValue(v math.Vec3, axis int) float64 {
	if axis == 0 {
		return v.X
	}
	return v.Z
}

func (c *Composite) buildTree(idx []int, depth int) *kdNode {
	if len(idx) == 0 {
		return nil
	}
	axis := depth % 2
	sort.SliceStable(idx, func(i, j int) bool {
		return axisValue(c.samples[idx[i]].pos, axis) < axisValue(c.samples[idx[j]].pos, axis)
	})
	mid := len(idx) / 2
	return &kdNode{
		sample: idx[mid],
		axis:   axis,
		left:   c.buildTree(idx[:mid], depth+1),
		right:  c.buildTree(idx[mid+1:], depth+1),
	}
}

func (c *Composite) nearest(n *kdNode, q math.Vec3, best int) int {
	if n == nil {
		return best
	}
	pos := c.samples[n.sample].pos
	if best < 0 || pos.DistanceSq(q) < c.samples[best].pos.DistanceSq(q) {
		best = n.sample
	}

	diff := axisValue(q, n.axis) - axisValue(pos, n.axis)
	near, far := n.right, n.left
	if diff < 0 {
		near, far = n.left, n.right
	}
	best = c.nearest(near, q, best)
	if diff*diff < c.samples[best].pos.DistanceSq(q) {
		best = c.nearest(far, q, best)
	}
	return best
}
