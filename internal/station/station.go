// Package station derives route connection endpoints from station exits.
package station

import (
	"math/rand/v2"
	"sort"

	"github.com/Faultbox/railplan/pkg/math"
)

const (
	// ExitLead is how far the pathfinding anchor sits ahead of an exit.
	ExitLead = 15
	// ExitSideStep is how far the anchor is pushed along the connection axis.
	ExitSideStep = 30
)

// Exit is a station track exit in world blocks, with the direction a train
// leaves along.
type Exit struct {
	Pos [3]int // x, y, z
	Dir math.Vec3
}

// Position returns the exit position as a vector.
func (e Exit) Position() math.Vec3 {
	return math.V3(float64(e.Pos[0]), float64(e.Pos[1]), float64(e.Pos[2]))
}

// Endpoints fixes both ends of a connection. Directions are unit and
// horizontal. ConnectStart and ConnectEnd are the pathfinding anchors as
// world (x, z, elevation).
type Endpoints struct {
	Start    math.Vec3
	StartDir math.Vec3
	End      math.Vec3
	EndDir   math.Vec3
	ExitDir  math.Vec3 // Axis the connection runs along, from start to end

	ConnectStart [3]int
	ConnectEnd   [3]int
}

// jitter returns a deterministic offset in [-1, 1) for ordering exits that
// share a coordinate.
func jitter(seed int64) float64 {
	r := rand.New(rand.NewPCG(uint64(seed), 0))
	return r.Float64()*2 - 1
}

// AssignExits orders exits north, south, west, east, followed by any
// remaining exits in their original order. North has the smallest z, south
// the largest, then west and east by x among the rest. Fewer than four exits
// are returned unchanged.
func AssignExits(exits []Exit) []Exit {
	if len(exits) < 4 {
		return append([]Exit(nil), exits...)
	}

	rest := make([]int, len(exits))
	for i := range rest {
		rest[i] = i
	}
	sortBy(rest, func(i int) float64 {
		z := exits[i].Pos[2]
		return float64(z) + jitter(751049+int64(z))
	})
	north, south := rest[0], rest[len(rest)-1]
	rest = rest[1 : len(rest)-1]

	sortBy(rest, func(i int) float64 {
		x := exits[i].Pos[0]
		return float64(x) + jitter(751052+int64(x))
	})
	west, east := rest[0], rest[len(rest)-1]

	out := []Exit{exits[north], exits[south], exits[west], exits[east]}
	taken := map[int]bool{north: true, south: true, west: true, east: true}
	for i, e := range exits {
		if !taken[i] {
			out = append(out, e)
		}
	}
	return out
}

func sortBy(idx []int, key func(int) float64) {
	keys := make(map[int]float64, len(idx))
	for _, i := range idx {
		keys[i] = key(i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] < keys[idx[b]]
	})
}

// Connect joins exit a to exit b along exitDir.
func Connect(a, b Exit, exitDir math.Vec3) Endpoints {
	exitDir = exitDir.Flat().Normalize()
	return Endpoints{
		Start:        a.Position(),
		StartDir:     a.Dir,
		End:          b.Position(),
		EndDir:       b.Dir,
		ExitDir:      exitDir,
		ConnectStart: anchor(a, exitDir),
		ConnectEnd:   anchor(b, exitDir.Neg()),
	}
}

// anchor places the pathfinding start ahead of the exit block centre and
// keeps the exit's elevation.
func anchor(e Exit, exitDir math.Vec3) [3]int {
	centre := e.Position().Add(math.V3(0.5, 0.5, 0.5))
	p := centre.Add(e.Dir.Scale(ExitLead)).Add(exitDir.Scale(ExitSideStep))
	return [3]int{int(p.X), int(p.Z), e.Pos[1]}
}

// Link is one connection between two neighbouring regions' stations.
type Link int

const (
	LinkEast  Link = iota // This region's east exit to the eastern neighbour's west exit
	LinkWest              // Western neighbour's east exit to this region's west exit
	LinkNorth             // Northern neighbour's south exit to this region's north exit
	LinkSouth             // This region's south exit to the southern neighbour's north exit
)

// Neighbourhood holds the assigned exits (N, S, W, E order) of a region and
// its four edge neighbours.
type Neighbourhood struct {
	Center, North, South, West, East []Exit
}

// Connections returns the four links of a region. Regions with fewer than
// four exits on either side of a link are skipped.
func (n Neighbourhood) Connections() map[Link]Endpoints {
	const (
		north = iota
		south
		west
		east
	)
	xAxis := math.V3(1, 0, 0)
	zAxis := math.V3(0, 0, 1)

	out := make(map[Link]Endpoints, 4)
	add := func(l Link, from []Exit, fi int, to []Exit, ti int, axis math.Vec3) {
		if len(from) < 4 || len(to) < 4 {
			return
		}
		out[l] = Connect(from[fi], to[ti], axis)
	}
	add(LinkEast, n.Center, east, n.East, west, xAxis)
	add(LinkWest, n.West, east, n.Center, west, xAxis)
	add(LinkNorth, n.North, south, n.Center, north, zAxis)
	add(LinkSouth, n.Center, south, n.South, north, zAxis)
	return out
}
