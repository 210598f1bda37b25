package region

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AvoidanceGrid scans every chunk of the cross window around center for
// obstacles and returns a penalty grid with AvoidPenalty on cells within
// AvoidRadius of any obstacle. Scans run concurrently, bounded by the
// sampler worker limit. It returns an all-zero grid when the builder has no
// obstacle oracle.
func (b *Builder) AvoidanceGrid(ctx context.Context, center Coord) (CostGrid, error) {
	win := b.Window(center)
	out := NewCostGrid(win.Size(), 0)
	if b.obstacles == nil {
		return out, nil
	}

	var (
		mu      sync.Mutex
		anchors [][2]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.Sampler.Workers, 1))

	chunks := b.cfg.World.RegionChunks
	for _, n := range center.Cross() {
		baseX := n.Coord.X * chunks
		baseZ := n.Coord.Z * chunks
		for cx := 0; cx < chunks; cx++ {
			for cz := 0; cz < chunks; cz++ {
				chunkX, chunkZ := baseX+cx, baseZ+cz
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					found, err := b.obstacles.Obstacles(gctx, chunkX, chunkZ)
					if err != nil {
						return fmt.Errorf("scanning chunk (%d, %d): %w", chunkX, chunkZ, err)
					}
					if len(found) == 0 {
						return nil
					}
					mu.Lock()
					anchors = append(anchors, found...)
					mu.Unlock()
					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := b.cfg.Cost.AvoidRadius
	for _, a := range anchors {
		px, pz := win.WorldToCell(float64(a[0]), float64(a[1]))
		stamp(out, px, pz, r, b.cfg.Cost.AvoidPenalty)
	}
	b.log.Debug("avoidance layer built",
		zap.Stringer("region", center),
		zap.Int("obstacles", len(anchors)))
	return out, nil
}

// stamp sets penalty on every cell within radius r of (px, pz).
func stamp(g CostGrid, px, pz, r, penalty int) {
	for x := px - r; x <= px+r; x++ {
		if x < 0 || x >= len(g) {
			continue
		}
		for z := pz - r; z <= pz+r; z++ {
			if z < 0 || z >= len(g[x]) {
				continue
			}
			dx, dz := x-px, z-pz
			if dx*dx+dz*dz <= r*r {
				g[x][z] = penalty
			}
		}
	}
}
