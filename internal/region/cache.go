package region

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Faultbox/railplan/internal/terrain"
)

// GridCache holds region height grids keyed by world seed and region. It is
// safe for concurrent use. Two callers racing on a missing region may both
// compute it; the last Store wins.
type GridCache struct {
	cache *ristretto.Cache[string, terrain.HeightGrid]
}

// NewGridCache creates a cache bounded to roughly maxCells grid cells.
func NewGridCache(maxCells int64) (*GridCache, error) {
	if maxCells <= 0 {
		maxCells = 1 << 20
	}
	cache, err := ristretto.NewCache[string, terrain.HeightGrid](&ristretto.Config[string, terrain.HeightGrid]{
		NumCounters:        10000,
		MaxCost:            maxCells,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating grid cache: %w", err)
	}
	return &GridCache{cache: cache}, nil
}

func cacheKey(seed int64, c Coord) string {
	return fmt.Sprintf("%d|%d|%d", seed, c.X, c.Z)
}

// Load returns the cached grid for a region.
func (g *GridCache) Load(seed int64, c Coord) (terrain.HeightGrid, bool) {
	return g.cache.Get(cacheKey(seed, c))
}

// Store caches a grid. The write is visible to Load once Store returns.
func (g *GridCache) Store(seed int64, c Coord, grid terrain.HeightGrid) {
	cost := int64(grid.Width() * grid.Depth())
	if cost == 0 {
		cost = 1
	}
	g.cache.Set(cacheKey(seed, c), grid, cost)
	g.cache.Wait()
}

// Forget drops a region from the cache.
func (g *GridCache) Forget(seed int64, c Coord) {
	g.cache.Del(cacheKey(seed, c))
}

// Close releases the cache's background goroutines.
func (g *GridCache) Close() {
	g.cache.Close()
}
