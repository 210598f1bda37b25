package terrain

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/logger"
)

// Sampler builds height grids by quadtree subdivision, probing the oracle
// densely only where terrain is not locally flat.
type Sampler struct {
	Threshold int // Max probe spread for a node to count as flat
	MaxDepth  int
	Probes    int // Probe grid edge per node
	Workers   int // Max concurrent oracle calls

	fn  HeightFunc
	log *zap.Logger
}

// Stats reports the work done by one Build.
type Stats struct {
	Samples     int64
	Leaves      int64
	DenseLeaves int64
	Elapsed     time.Duration
}

// NewSampler creates a sampler over fn.
func NewSampler(cfg config.SamplerConfig, fn HeightFunc) *Sampler {
	return &Sampler{
		Threshold: cfg.Threshold,
		MaxDepth:  cfg.MaxDepth,
		Probes:    max(cfg.Probes, 1),
		Workers:   max(cfg.Workers, 1),
		fn:        fn,
		log:       logger.Named("sampler"),
	}
}

// QuadTree is the result of a Build.
type QuadTree struct {
	root  *quadNode
	size  int
	Stats Stats
}

type quadNode struct {
	x, z, w, h int
	depth      int
	value      int   // Broadcast height for flat leaves
	dense      []int // Per-cell heights for leaves sampled exhaustively, [dx*h+dz]
	children   []*quadNode
}

func (n *quadNode) leaf() bool {
	return len(n.children) == 0
}

// build carries the shared state of one Build call.
type build struct {
	s       *Sampler
	sem     chan struct{}
	samples atomic.Int64
	leaves  atomic.Int64
	dense   atomic.Int64
}

// Build samples a size×size region. Probe calls run concurrently, bounded by
// Workers. If ctx is cancelled no new probes are issued and the partial tree
// is discarded.
func (s *Sampler) Build(ctx context.Context, size int) (*QuadTree, error) {
	start := time.Now()
	b := &build{s: s, sem: make(chan struct{}, s.Workers)}

	root := &quadNode{w: size, h: size}
	if size > 0 {
		if err := b.grow(ctx, root); err != nil {
			return nil, err
		}
	}

	tree := &QuadTree{
		root: root,
		size: size,
		Stats: Stats{
			Samples:     b.samples.Load(),
			Leaves:      b.leaves.Load(),
			DenseLeaves: b.dense.Load(),
			Elapsed:     time.Since(start),
		},
	}
	s.log.Debug("height grid built",
		zap.Int("size", size),
		zap.Int64("samples", tree.Stats.Samples),
		zap.Int64("leaves", tree.Stats.Leaves),
		zap.Duration("elapsed", tree.Stats.Elapsed))
	return tree, nil
}

// grow resolves n into a leaf or recurses into its children in parallel.
func (b *build) grow(ctx context.Context, n *quadNode) error {
	p := b.s.Probes
	if n.w <= p && n.h <= p {
		return b.fillDense(ctx, n)
	}

	pts := probePoints(n, p)
	heights, err := b.probe(ctx, pts)
	if err != nil {
		return err
	}

	lo, hi := heights[0], heights[0]
	sum := 0
	for _, h := range heights {
		lo = min(lo, h)
		hi = max(hi, h)
		sum += h
	}

	if hi-lo <= b.s.Threshold || n.depth >= b.s.MaxDepth {
		n.value = roundDiv(sum, len(heights))
		b.leaves.Add(1)
		return nil
	}

	n.children = split(n)
	g, gctx := errgroup.WithContext(ctx)
	for _, child := range n.children {
		g.Go(func() error {
			return b.grow(gctx, child)
		})
	}
	return g.Wait()
}

func (b *build) fillDense(ctx context.Context, n *quadNode) error {
	pts := make([][2]int, 0, n.w*n.h)
	for dx := range n.w {
		for dz := range n.h {
			pts = append(pts, [2]int{n.x + dx, n.z + dz})
		}
	}
	heights, err := b.probe(ctx, pts)
	if err != nil {
		return err
	}
	n.dense = heights
	b.leaves.Add(1)
	b.dense.Add(1)
	return nil
}

// probe samples all points and returns only once every call has finished.
func (b *build) probe(ctx context.Context, pts [][2]int) ([]int, error) {
	out := make([]int, len(pts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.s.Workers)
	for i, pt := range pts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			v, err := b.sample(gctx, pt[0], pt[1])
			out[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A cancellation observed before any Go call returns no error from Wait.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *build) sample(ctx context.Context, x, z int) (int, error) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	defer func() { <-b.sem }()

	b.samples.Add(1)
	return b.s.fn(x, z), nil
}

// probePoints spreads a p×p grid over the interior of n, one point at the
// centre of each sub-cell.
func probePoints(n *quadNode, p int) [][2]int {
	pts := make([][2]int, 0, p*p)
	for i := range p {
		px := n.x + (2*i+1)*n.w/(2*p)
		for j := range p {
			pz := n.z + (2*j+1)*n.h/(2*p)
			pts = append(pts, [2]int{px, pz})
		}
	}
	return pts
}

// split divides n into four children that tile it exactly, including odd extents.
func split(n *quadNode) []*quadNode {
	w1, h1 := n.w/2, n.h/2
	w2, h2 := n.w-w1, n.h-h1
	candidates := []*quadNode{
		{x: n.x, z: n.z, w: w1, h: h1},
		{x: n.x + w1, z: n.z, w: w2, h: h1},
		{x: n.x, z: n.z + h1, w: w1, h: h2},
		{x: n.x + w1, z: n.z + h1, w: w2, h: h2},
	}
	children := candidates[:0]
	for _, c := range candidates {
		if c.w > 0 && c.h > 0 {
			c.depth = n.depth + 1
			children = append(children, c)
		}
	}
	return children
}

// GenerateImage rasterises the tree into a w×h grid. Cells outside the
// sampled region are left at zero.
func (t *QuadTree) GenerateImage(w, h int) HeightGrid {
	img := NewHeightGrid(w, h)
	if t == nil || t.root == nil || t.size == 0 {
		return img
	}
	t.root.paint(img, w, h)
	return img
}

func (n *quadNode) paint(img HeightGrid, w, h int) {
	if !n.leaf() {
		for _, c := range n.children {
			c.paint(img, w, h)
		}
		return
	}
	for dx := range n.w {
		x := n.x + dx
		if x >= w {
			break
		}
		for dz := range n.h {
			z := n.z + dz
			if z >= h {
				break
			}
			if n.dense != nil {
				img[x][z] = n.dense[dx*n.h+dz]
			} else {
				img[x][z] = n.value
			}
		}
	}
}

// Sample is Build followed by GenerateImage over the full size.
func (s *Sampler) Sample(ctx context.Context, size int) (HeightGrid, error) {
	tree, err := s.Build(ctx, size)
	if err != nil {
		return nil, err
	}
	return tree.GenerateImage(size, size), nil
}

func roundDiv(sum, n int) int {
	if n == 0 {
		return 0
	}
	if sum >= 0 {
		return (sum + n/2) / n
	}
	return -((-sum + n/2) / n)
}
