// Package pathfind finds lowest-cost routes across a cost grid.
package pathfind

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/logger"
	"github.com/Faultbox/railplan/internal/region"
)

var (
	ErrNoRoute     = errors.New("no route")
	ErrOutOfBounds = errors.New("cell out of bounds")
)

// Grid is a square cost field indexed (x, z). Cells at region.Unknown are
// impassable.
type Grid interface {
	Size() int
	At(x, z int) int
}

// node is a cell in the A* search.
type node struct {
	x, z   int
	g, h   float64
	f      float64
	seq    int // Insertion order, breaks F ties
	parent *node
	index  int // Index in heap
}

// openSet is a priority queue ordered by F, then insertion order.
type openSet []*node

func (h openSet) Len() int { return len(h) }
func (h openSet) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h openSet) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *openSet) Pop() any {
	old := *h
	n := len(old)
	nd := old[n-1]
	old[n-1] = nil
	nd.index = -1
	*h = old[:n-1]
	return nd
}

// directions covers 8-way movement. Odd indices are diagonal.
var directions = [8][2]int{
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
}

// Finder runs A* over a Grid.
type Finder struct {
	DiagonalFactor float64
	log            *zap.Logger
}

// NewFinder creates a finder.
func NewFinder(cfg config.PathfindConfig) *Finder {
	f := cfg.DiagonalFactor
	if f <= 0 {
		f = math.Sqrt2
	}
	return &Finder{DiagonalFactor: f, log: logger.Named("pathfind")}
}

// FindPath returns the cells of a minimal-cost path from start to goal,
// both inclusive. Each step costs the destination cell's value, multiplied
// by DiagonalFactor for diagonal steps.
func (f *Finder) FindPath(grid Grid, start, goal [2]int) ([][2]int, error) {
	n := grid.Size()
	if !inBounds(n, start) {
		return nil, fmt.Errorf("start %v: %w", start, ErrOutOfBounds)
	}
	if !inBounds(n, goal) {
		return nil, fmt.Errorf("goal %v: %w", goal, ErrOutOfBounds)
	}
	if !passable(grid, start[0], start[1]) || !passable(grid, goal[0], goal[1]) {
		return nil, fmt.Errorf("%v -> %v: endpoint impassable: %w", start, goal, ErrNoRoute)
	}

	scale := minCost(grid)
	closed := make([]bool, n*n)
	nodes := make(map[int]*node)
	seq := 0

	open := &openSet{}
	heap.Init(open)
	first := &node{x: start[0], z: start[1], h: f.heuristic(start, goal, scale)}
	first.f = first.h
	heap.Push(open, first)
	nodes[key(n, start[0], start[1])] = first

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)
		if current.x == goal[0] && current.z == goal[1] {
			path := reconstruct(current)
			f.log.Debug("path found",
				zap.Int("cells", len(path)),
				zap.Float64("cost", current.g),
				zap.Int("expanded", seq))
			return path, nil
		}
		closed[key(n, current.x, current.z)] = true

		for i, dir := range directions {
			nx, nz := current.x+dir[0], current.z+dir[1]
			if !inBounds(n, [2]int{nx, nz}) || !passable(grid, nx, nz) {
				continue
			}
			k := key(n, nx, nz)
			if closed[k] {
				continue
			}

			step := float64(max(grid.At(nx, nz), 0))
			if i%2 == 1 {
				// No corner cutting past impassable cells.
				if !passable(grid, current.x+dir[0], current.z) ||
					!passable(grid, current.x, current.z+dir[1]) {
					continue
				}
				step *= f.DiagonalFactor
			}
			g := current.g + step

			neighbor, exists := nodes[k]
			if !exists {
				seq++
				neighbor = &node{
					x:      nx,
					z:      nz,
					g:      g,
					h:      f.heuristic([2]int{nx, nz}, goal, scale),
					seq:    seq,
					parent: current,
				}
				neighbor.f = neighbor.g + neighbor.h
				nodes[k] = neighbor
				heap.Push(open, neighbor)
			} else if g < neighbor.g {
				neighbor.g = g
				neighbor.f = neighbor.g + neighbor.h
				neighbor.parent = current
				heap.Fix(open, neighbor.index)
			}
		}
	}

	return nil, fmt.Errorf("%v -> %v: %w", start, goal, ErrNoRoute)
}

// heuristic is the octile distance scaled by the cheapest cell, which never
// overestimates the remaining cost.
func (f *Finder) heuristic(a, b [2]int, scale float64) float64 {
	dx := abs(b[0] - a[0])
	dz := abs(b[1] - a[1])
	diag := min(dx, dz)
	straight := max(dx, dz) - diag
	return (float64(diag)*min(f.DiagonalFactor, 2) + float64(straight)) * scale
}

func minCost(grid Grid) float64 {
	lo := math.MaxInt
	n := grid.Size()
	for x := range n {
		for z := range n {
			if v := grid.At(x, z); v != region.Unknown && v < lo {
				lo = v
			}
		}
	}
	if lo == math.MaxInt || lo < 0 {
		return 0
	}
	return float64(lo)
}

func passable(grid Grid, x, z int) bool {
	return grid.At(x, z) != region.Unknown
}

func inBounds(n int, c [2]int) bool {
	return c[0] >= 0 && c[0] < n && c[1] >= 0 && c[1] < n
}

func key(n, x, z int) int {
	return z*n + x
}

func reconstruct(nd *node) [][2]int {
	var path [][2]int
	for nd != nil {
		path = append(path, [2]int{nd.x, nd.z})
		nd = nd.parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
