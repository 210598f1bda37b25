package pathfind

import (
	"errors"
	"testing"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/region"
)

// uniform creates an n×n grid of cost c with the given cells overridden.
func uniform(n, c int, set map[[2]int]int) region.CostGrid {
	g := region.NewCostGrid(n, c)
	for p, v := range set {
		g[p[0]][p[1]] = v
	}
	return g
}

func newFinder() *Finder {
	return NewFinder(config.PathfindConfig{DiagonalFactor: 1.414})
}

func pathCost(f *Finder, g region.CostGrid, path [][2]int) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		step := float64(g.At(path[i][0], path[i][1]))
		if path[i][0] != path[i-1][0] && path[i][1] != path[i-1][1] {
			step *= f.DiagonalFactor
		}
		total += step
	}
	return total
}

func checkContiguous(t *testing.T, path [][2]int) {
	t.Helper()
	for i := 1; i < len(path); i++ {
		dx := abs(path[i][0] - path[i-1][0])
		dz := abs(path[i][1] - path[i-1][1])
		if dx > 1 || dz > 1 || dx+dz == 0 {
			t.Fatalf("step %d: %v -> %v is not an 8-way move", i, path[i-1], path[i])
		}
	}
}

func TestFindPathStraight(t *testing.T) {
	f := newFinder()
	g := uniform(10, 1, nil)

	path, err := f.FindPath(g, [2]int{0, 5}, [2]int{9, 5})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if len(path) != 10 {
		t.Errorf("len(path) = %d, want 10", len(path))
	}
	if path[0] != [2]int{0, 5} || path[len(path)-1] != [2]int{9, 5} {
		t.Errorf("path endpoints = %v, %v", path[0], path[len(path)-1])
	}
	checkContiguous(t, path)
}

func TestFindPathDiagonal(t *testing.T) {
	f := newFinder()
	g := uniform(5, 1, nil)

	path, err := f.FindPath(g, [2]int{0, 0}, [2]int{4, 4})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if len(path) != 5 {
		t.Errorf("len(path) = %d, want 5 diagonal steps", len(path))
	}
}

func TestFindPathDetoursAroundPenalty(t *testing.T) {
	f := newFinder()
	set := map[[2]int]int{}
	for z := 0; z < 8; z++ {
		set[[2]int{5, z}] = 1000
	}
	g := uniform(11, 1, set)

	path, err := f.FindPath(g, [2]int{0, 2}, [2]int{10, 2})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	checkContiguous(t, path)
	for _, p := range path {
		if p[0] == 5 && p[1] < 8 {
			t.Errorf("path crosses penalised cell %v", p)
		}
	}
}

func TestFindPathCrossesPenaltyWhenCheaper(t *testing.T) {
	f := newFinder()
	set := map[[2]int]int{}
	for z := 0; z < 11; z++ {
		set[[2]int{5, z}] = 3
	}
	g := uniform(11, 1, set)

	path, err := f.FindPath(g, [2]int{0, 5}, [2]int{10, 5})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if got := pathCost(f, g, path); got != 12 {
		t.Errorf("path cost = %v, want 12", got)
	}
}

func TestFindPathOptimal(t *testing.T) {
	f := newFinder()
	// A ring of cheap cells around expensive terrain.
	g := uniform(6, 10, nil)
	for i := 0; i < 6; i++ {
		g[i][0], g[i][5] = 1, 1
		g[0][i], g[5][i] = 1, 1
	}

	path, err := f.FindPath(g, [2]int{0, 3}, [2]int{5, 3})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	checkContiguous(t, path)
	// Along the nearer z = 5 side, cutting both corners diagonally.
	want := 1 + 1.414 + 3 + 1.414 + 1
	if got := pathCost(f, g, path); got > want+1e-9 {
		t.Errorf("path cost = %v, want %v", got, want)
	}
}

func TestFindPathUnknownIsImpassable(t *testing.T) {
	f := newFinder()
	set := map[[2]int]int{}
	for z := 0; z < 5; z++ {
		set[[2]int{2, z}] = region.Unknown
	}
	g := uniform(5, 1, set)

	_, err := f.FindPath(g, [2]int{0, 2}, [2]int{4, 2})
	if !errors.Is(err, ErrNoRoute) {
		t.Errorf("FindPath() error = %v, want ErrNoRoute", err)
	}
}

func TestFindPathSurroundedGoal(t *testing.T) {
	f := newFinder()
	set := map[[2]int]int{}
	for _, d := range directions {
		set[[2]int{3 + d[0], 3 + d[1]}] = region.Unknown
	}
	g := uniform(7, 1, set)

	if _, err := f.FindPath(g, [2]int{0, 0}, [2]int{3, 3}); !errors.Is(err, ErrNoRoute) {
		t.Errorf("FindPath() error = %v, want ErrNoRoute", err)
	}
}

func TestFindPathOutOfBounds(t *testing.T) {
	f := newFinder()
	g := uniform(5, 1, nil)

	tests := []struct {
		name        string
		start, goal [2]int
	}{
		{"start negative", [2]int{-1, 0}, [2]int{4, 4}},
		{"goal too large", [2]int{0, 0}, [2]int{5, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.FindPath(g, tt.start, tt.goal); !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("FindPath() error = %v, want ErrOutOfBounds", err)
			}
		})
	}
}

func TestFindPathSameCell(t *testing.T) {
	f := newFinder()
	g := uniform(3, 1, nil)

	path, err := f.FindPath(g, [2]int{1, 1}, [2]int{1, 1})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if len(path) != 1 {
		t.Errorf("len(path) = %d, want 1", len(path))
	}
}

func TestFindPathDeterministic(t *testing.T) {
	f := newFinder()
	g := uniform(9, 2, map[[2]int]int{{4, 4}: 50})

	first, err := f.FindPath(g, [2]int{0, 0}, [2]int{8, 8})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := f.FindPath(g, [2]int{0, 0}, [2]int{8, 8})
		if err != nil {
			t.Fatalf("FindPath() error = %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: len %d, want %d", i, len(again), len(first))
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d differs at %d: %v vs %v", i, j, again[j], first[j])
			}
		}
	}
}
