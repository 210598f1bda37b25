package region

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/logger"
	"github.com/Faultbox/railplan/internal/terrain"
)

// Unknown marks cost grid cells with no data. The pathfinder never enters them.
const Unknown = math.MaxInt32

// HeightOracle reports the terrain surface height at a world block position.
type HeightOracle interface {
	Height(worldX, worldZ int) int
}

// ObstacleOracle enumerates obstacle anchor positions (world blocks, x and z)
// inside one chunk.
type ObstacleOracle interface {
	Obstacles(ctx context.Context, chunkX, chunkZ int) ([][2]int, error)
}

// CostGrid is a (3·edge)×(3·edge) grid indexed [x][z].
type CostGrid [][]int

// NewCostGrid allocates an n×n grid filled with v.
func NewCostGrid(n, v int) CostGrid {
	g := make(CostGrid, n)
	for x := range g {
		g[x] = make([]int, n)
		if v != 0 {
			for z := range g[x] {
				g[x][z] = v
			}
		}
	}
	return g
}

// Size returns the edge length of the grid.
func (g CostGrid) Size() int {
	return len(g)
}

// At returns the value at (x, z), or Unknown outside the grid.
func (g CostGrid) At(x, z int) int {
	if x < 0 || z < 0 || x >= len(g) || z >= len(g[x]) {
		return Unknown
	}
	return g[x][z]
}

// Builder assembles cost grids for one world seed.
type Builder struct {
	cfg       *config.Config
	cache     *GridCache
	oracle    HeightOracle
	obstacles ObstacleOracle
	log       *zap.Logger
}

// NewBuilder creates a builder. obstacles may be nil when structure
// avoidance is not wanted.
func NewBuilder(cfg *config.Config, cache *GridCache, oracle HeightOracle, obstacles ObstacleOracle) *Builder {
	return &Builder{
		cfg:       cfg,
		cache:     cache,
		oracle:    oracle,
		obstacles: obstacles,
		log:       logger.Named("region"),
	}
}

// Window returns the coordinate mapping for a grid centred on center.
func (b *Builder) Window(center Coord) Window {
	return Window{
		Center:       center,
		Edge:         b.cfg.World.RegionCells(),
		CellSize:     b.cfg.World.CellSize(),
		RegionBlocks: b.cfg.World.RegionBlocks(),
	}
}

// HeightGrid returns the region's height grid, sampling it on a cache miss.
// A failed or cancelled sample is not cached.
func (b *Builder) HeightGrid(ctx context.Context, c Coord) (terrain.HeightGrid, error) {
	seed := b.cfg.World.Seed
	if grid, ok := b.cache.Load(seed, c); ok {
		return grid, nil
	}

	edge := b.cfg.World.RegionCells()
	cell := b.cfg.World.CellSize()
	originX := c.X * b.cfg.World.RegionBlocks()
	originZ := c.Z * b.cfg.World.RegionBlocks()

	sampler := terrain.NewSampler(b.cfg.Sampler, func(x, z int) int {
		return b.oracle.Height(int(float64(x)*cell)+originX, int(float64(z)*cell)+originZ)
	})
	tree, err := sampler.Build(ctx, edge)
	if err != nil {
		b.log.Warn("height grid build aborted", zap.Stringer("region", c), zap.Error(err))
		return nil, fmt.Errorf("sampling region %s: %w", c, err)
	}
	b.log.Info("height grid built",
		zap.Stringer("region", c),
		zap.Int64("samples", tree.Stats.Samples),
		zap.Duration("elapsed", tree.Stats.Elapsed))

	grid := tree.GenerateImage(edge, edge)
	b.cache.Store(seed, c, grid)
	return grid, nil
}

// CostGrid composes the centre region and its four edge neighbours into one
// grid. Diagonal thirds stay Unknown.
func (b *Builder) CostGrid(ctx context.Context, center Coord) (CostGrid, error) {
	edge := b.cfg.World.RegionCells()
	out := NewCostGrid(3*edge, Unknown)

	for _, n := range center.Cross() {
		grid, err := b.HeightGrid(ctx, n.Coord)
		if err != nil {
			return nil, err
		}
		blit(out, grid, (n.DX+1)*edge, (n.DZ+1)*edge)
	}
	return out, nil
}

func blit(dst CostGrid, src terrain.HeightGrid, ox, oz int) {
	for x := range src {
		for z, v := range src[x] {
			dst[ox+x][oz+z] = v
		}
	}
}

// Combine returns base with penalty added cell by cell. Unknown cells stay
// Unknown and sums saturate below it.
func Combine(base, penalty CostGrid) CostGrid {
	out := make(CostGrid, len(base))
	for x := range base {
		out[x] = make([]int, len(base[x]))
		for z, v := range base[x] {
			p := 0
			if x < len(penalty) && z < len(penalty[x]) {
				p = penalty[x][z]
			}
			switch {
			case v == Unknown:
				out[x][z] = Unknown
			case v+p >= Unknown:
				out[x][z] = Unknown - 1
			default:
				out[x][z] = v + p
			}
		}
	}
	return out
}
