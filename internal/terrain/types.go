// Package terrain builds region height grids from a host height oracle.
package terrain

// HeightFunc returns the surface height at a grid cell. It must be safe for
// concurrent use and deterministic for a fixed world seed.
type HeightFunc func(cellX, cellZ int) int

// HeightGrid is a dense grid of heights indexed [x][z].
type HeightGrid [][]int

// NewHeightGrid allocates a w×h grid.
func NewHeightGrid(w, h int) HeightGrid {
	g := make(HeightGrid, w)
	for x := range w {
		g[x] = make([]int, h)
	}
	return g
}

// Width returns the number of cells along X.
func (g HeightGrid) Width() int {
	return len(g)
}

// Depth returns the number of cells along Z.
func (g HeightGrid) Depth() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// At returns the height at (x, z), clamping out-of-range coordinates to the edge.
func (g HeightGrid) At(x, z int) int {
	if len(g) == 0 {
		return 0
	}
	x = clampInt(x, 0, g.Width()-1)
	z = clampInt(z, 0, g.Depth()-1)
	return g[x][z]
}

// Range returns the lowest and highest height in the grid.
func (g HeightGrid) Range() (lo, hi int) {
	if g.Width() == 0 || g.Depth() == 0 {
		return 0, 0
	}
	lo, hi = g[0][0], g[0][0]
	for _, col := range g {
		for _, h := range col {
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	return lo, hi
}

// Dense samples fn at every cell of a w×h grid.
func Dense(fn HeightFunc, w, h int) HeightGrid {
	g := NewHeightGrid(w, h)
	for x := range w {
		for z := range h {
			g[x][z] = fn(x, z)
		}
	}
	return g
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
