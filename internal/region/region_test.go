package region

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Faultbox/railplan/internal/config"
)

// stepOracle returns a constant height per region so every region grid is
// flat and identifiable.
type stepOracle struct {
	blocks int
	calls  atomic.Int64
}

func (o *stepOracle) Height(x, z int) int {
	o.calls.Add(1)
	return floorDiv(x, o.blocks)*10 + floorDiv(z, o.blocks)*1000
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.RegionChunks = 2
	cfg.World.ChunkSize = 16
	cfg.World.SamplesPerChunk = 4
	cfg.Sampler.Workers = 4
	cfg.Cost.AvoidRadius = 1
	cfg.Cost.AvoidPenalty = 500
	return cfg
}

func newTestBuilder(t *testing.T, obstacles ObstacleOracle) (*Builder, *stepOracle, *GridCache) {
	t.Helper()
	cfg := testConfig()
	cache, err := NewGridCache(1 << 16)
	if err != nil {
		t.Fatalf("NewGridCache() error = %v", err)
	}
	t.Cleanup(cache.Close)
	oracle := &stepOracle{blocks: cfg.World.RegionBlocks()}
	return NewBuilder(cfg, cache, oracle, obstacles), oracle, cache
}

func TestFromChunkAndBlock(t *testing.T) {
	tests := []struct {
		x, z int
		want Coord
	}{
		{0, 0, Coord{0, 0}},
		{127, 127, Coord{0, 0}},
		{128, 0, Coord{1, 0}},
		{-1, -128, Coord{-1, -1}},
		{-129, 5, Coord{-2, 0}},
	}
	for _, tt := range tests {
		if got := FromChunk(tt.x, tt.z, 128); got != tt.want {
			t.Errorf("FromChunk(%d, %d) = %v, want %v", tt.x, tt.z, got, tt.want)
		}
	}
	if got := FromBlock(-1, 2048, 2048); got != (Coord{-1, 1}) {
		t.Errorf("FromBlock(-1, 2048) = %v", got)
	}
}

func TestWindowRoundTrip(t *testing.T) {
	w := Window{Center: Coord{2, -1}, Edge: 8, CellSize: 4, RegionBlocks: 32}
	if w.Size() != 24 {
		t.Fatalf("Size() = %d, want 24", w.Size())
	}
	for _, c := range [][2]int{{0, 0}, {8, 8}, {23, 5}, {12, 17}} {
		x, z := w.CellToWorld(c[0], c[1])
		px, pz := w.WorldToCell(x, z)
		if px != c[0] || pz != c[1] {
			t.Errorf("cell %v -> world (%v, %v) -> cell (%d, %d)", c, x, z, px, pz)
		}
	}
	if lx, lz := w.ToCenter(8, 9); lx != 0 || lz != 1 {
		t.Errorf("ToCenter(8, 9) = (%d, %d), want (0, 1)", lx, lz)
	}
	if w.Contains(24, 0) || w.Contains(-1, 3) || !w.Contains(23, 23) {
		t.Error("Contains() bounds wrong")
	}
}

func TestCostGridLayout(t *testing.T) {
	b, _, _ := newTestBuilder(t, nil)
	grid, err := b.CostGrid(context.Background(), Coord{0, 0})
	if err != nil {
		t.Fatalf("CostGrid() error = %v", err)
	}
	if grid.Size() != 24 {
		t.Fatalf("Size() = %d, want 24", grid.Size())
	}

	tests := []struct {
		name string
		x, z int
		want int
	}{
		{"centre", 12, 12, 0},
		{"north", 12, 3, -1000},
		{"south", 12, 20, 1000},
		{"west", 3, 12, -10},
		{"east", 20, 12, 10},
		{"north-west", 0, 0, Unknown},
		{"north-east", 23, 0, Unknown},
		{"south-west", 0, 23, Unknown},
		{"south-east", 16, 16, Unknown},
		{"outside", 24, 0, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.At(tt.x, tt.z); got != tt.want {
				t.Errorf("At(%d, %d) = %d, want %d", tt.x, tt.z, got, tt.want)
			}
		})
	}
}

func TestHeightGridCached(t *testing.T) {
	b, oracle, _ := newTestBuilder(t, nil)
	ctx := context.Background()

	if _, err := b.HeightGrid(ctx, Coord{3, 3}); err != nil {
		t.Fatalf("HeightGrid() error = %v", err)
	}
	first := oracle.calls.Load()
	if first == 0 {
		t.Fatal("oracle never called")
	}
	if _, err := b.HeightGrid(ctx, Coord{3, 3}); err != nil {
		t.Fatalf("HeightGrid() error = %v", err)
	}
	if got := oracle.calls.Load(); got != first {
		t.Errorf("second HeightGrid() made %d oracle calls, want 0", got-first)
	}
}

func TestHeightGridCancelledNotCached(t *testing.T) {
	b, _, cache := newTestBuilder(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.HeightGrid(ctx, Coord{1, 1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("HeightGrid() error = %v, want context.Canceled", err)
	}
	if _, ok := cache.Load(b.cfg.World.Seed, Coord{1, 1}); ok {
		t.Error("cancelled build was cached")
	}
}

func TestCacheKeyIncludesSeed(t *testing.T) {
	cache, err := NewGridCache(1 << 10)
	if err != nil {
		t.Fatalf("NewGridCache() error = %v", err)
	}
	defer cache.Close()

	cache.Store(1, Coord{0, 0}, [][]int{{1}})
	if _, ok := cache.Load(2, Coord{0, 0}); ok {
		t.Error("grid visible under another seed")
	}
	if g, ok := cache.Load(1, Coord{0, 0}); !ok || g[0][0] != 1 {
		t.Errorf("Load() = %v, %v", g, ok)
	}
	cache.Forget(1, Coord{0, 0})
	if _, ok := cache.Load(1, Coord{0, 0}); ok {
		t.Error("Forget() left the grid cached")
	}
}

type pointObstacles struct {
	at    [2]int
	calls atomic.Int64
	fail  error
}

func (o *pointObstacles) Obstacles(_ context.Context, chunkX, chunkZ int) ([][2]int, error) {
	o.calls.Add(1)
	if o.fail != nil {
		return nil, o.fail
	}
	if floorDiv(o.at[0], 16) == chunkX && floorDiv(o.at[1], 16) == chunkZ {
		return [][2]int{o.at}, nil
	}
	return nil, nil
}

func TestAvoidanceGrid(t *testing.T) {
	obs := &pointObstacles{at: [2]int{10, 10}}
	b, _, _ := newTestBuilder(t, obs)

	grid, err := b.AvoidanceGrid(context.Background(), Coord{0, 0})
	if err != nil {
		t.Fatalf("AvoidanceGrid() error = %v", err)
	}
	// 5 regions of 2x2 chunks.
	if got := obs.calls.Load(); got != 20 {
		t.Errorf("scanned %d chunks, want 20", got)
	}

	// Block (10, 10) lies in cell (2, 2) of the centre region.
	cx, cz := 8+2, 8+2
	for _, tt := range []struct {
		x, z int
		want int
	}{
		{cx, cz, 500},
		{cx + 1, cz, 500},
		{cx, cz - 1, 500},
		{cx + 1, cz + 1, 0},
		{cx + 2, cz, 0},
		{0, 0, 0},
	} {
		if got := grid.At(tt.x, tt.z); got != tt.want {
			t.Errorf("At(%d, %d) = %d, want %d", tt.x, tt.z, got, tt.want)
		}
	}
}

func TestAvoidanceGridScanError(t *testing.T) {
	boom := errors.New("boom")
	b, _, _ := newTestBuilder(t, &pointObstacles{fail: boom})
	if _, err := b.AvoidanceGrid(context.Background(), Coord{0, 0}); !errors.Is(err, boom) {
		t.Errorf("AvoidanceGrid() error = %v, want %v", err, boom)
	}
}

func TestAvoidanceGridWithoutOracle(t *testing.T) {
	b, _, _ := newTestBuilder(t, nil)
	grid, err := b.AvoidanceGrid(context.Background(), Coord{0, 0})
	if err != nil {
		t.Fatalf("AvoidanceGrid() error = %v", err)
	}
	if grid.Size() != 24 || grid.At(12, 12) != 0 {
		t.Error("expected empty 24x24 grid")
	}
}

func TestCombine(t *testing.T) {
	base := CostGrid{{1, Unknown}, {Unknown - 2, 4}}
	pen := CostGrid{{10, 10}, {10, 0}}
	got := Combine(base, pen)
	want := CostGrid{{11, Unknown}, {Unknown - 1, 4}}
	for x := range want {
		for z := range want[x] {
			if got[x][z] != want[x][z] {
				t.Errorf("Combine()[%d][%d] = %d, want %d", x, z, got[x][z], want[x][z])
			}
		}
	}
	if base[0][0] != 1 {
		t.Error("Combine() modified its input")
	}
}
