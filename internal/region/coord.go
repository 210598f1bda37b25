// Package region composes per-region height grids into pathfinding cost grids.
package region

import (
	"fmt"
	"math"
)

// Coord identifies a fixed-size square region of the world.
type Coord struct {
	X, Z int
}

// String returns "(x, z)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Z)
}

// Offset returns the coordinate dx, dz regions away.
func (c Coord) Offset(dx, dz int) Coord {
	return Coord{c.X + dx, c.Z + dz}
}

// Cross returns the centre and its four edge neighbours with their offsets,
// in the order centre, north, south, west, east.
func (c Coord) Cross() [5]Neighbor {
	return [5]Neighbor{
		{c, 0, 0},
		{c.Offset(0, -1), 0, -1},
		{c.Offset(0, 1), 0, 1},
		{c.Offset(-1, 0), -1, 0},
		{c.Offset(1, 0), 1, 0},
	}
}

// Neighbor is a region of a cross window with its offset from the centre.
type Neighbor struct {
	Coord  Coord
	DX, DZ int
}

// FromChunk returns the region containing a chunk.
func FromChunk(chunkX, chunkZ, regionChunks int) Coord {
	return Coord{floorDiv(chunkX, regionChunks), floorDiv(chunkZ, regionChunks)}
}

// FromBlock returns the region containing a world block.
func FromBlock(x, z, regionBlocks int) Coord {
	return Coord{floorDiv(x, regionBlocks), floorDiv(z, regionBlocks)}
}

// Window maps between world block coordinates and the cell space of a cost
// grid centred on one region.
type Window struct {
	Center       Coord
	Edge         int     // Cells per region edge
	CellSize     float64 // Blocks per cell edge
	RegionBlocks int     // Blocks per region edge
}

// Size returns the edge length of the cost grid in cells.
func (w Window) Size() int {
	return 3 * w.Edge
}

// CellToWorld returns the world block position of a cost grid cell.
func (w Window) CellToWorld(px, pz int) (float64, float64) {
	lx, lz := w.ToCenter(px, pz)
	return float64(lx)*w.CellSize + float64(w.Center.X*w.RegionBlocks),
		float64(lz)*w.CellSize + float64(w.Center.Z*w.RegionBlocks)
}

// WorldToCell returns the cost grid cell containing a world block position.
func (w Window) WorldToCell(x, z float64) (int, int) {
	lx := int(math.Floor((x - float64(w.Center.X*w.RegionBlocks)) / w.CellSize))
	lz := int(math.Floor((z - float64(w.Center.Z*w.RegionBlocks)) / w.CellSize))
	return lx + w.Edge, lz + w.Edge
}

// ToCenter converts cost grid cells to cells relative to the centre region.
func (w Window) ToCenter(px, pz int) (int, int) {
	return px - w.Edge, pz - w.Edge
}

// Contains reports whether a cell lies inside the grid.
func (w Window) Contains(px, pz int) bool {
	n := w.Size()
	return px >= 0 && pz >= 0 && px < n && pz < n
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
