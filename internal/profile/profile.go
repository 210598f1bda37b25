// Package profile turns a grid path into a buildable elevation profile.
//
// The stages run in a fixed order: clamp, pin endpoints, level, smooth,
// blend, round. Leveling has to precede smoothing, otherwise the flat
// bridge and tunnel runs it creates are averaged away.
package profile

import (
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/logger"
)

// Waypoint is a path cell with its elevation.
type Waypoint struct {
	X, Z int
	Y    int
}

// Path is an ordered list of waypoints.
type Path []Waypoint

// Cells returns the (x, z) cells of the path.
func (p Path) Cells() [][2]int {
	out := make([][2]int, len(p))
	for i, w := range p {
		out[i] = [2]int{w.X, w.Z}
	}
	return out
}

// Heights supplies the raw surface height of a grid cell.
type Heights interface {
	At(x, z int) int
}

// Processor adjusts path elevations between two fixed endpoint heights.
type Processor struct {
	SeaLevel     int
	MaxIncrement int
	TunnelRate   float64 // Required distance/index ratio for an ascending run
	BridgeRate   float64 // Required distance/index ratio for a descending run

	log *zap.Logger
}

// NewProcessor creates a processor from configuration.
func NewProcessor(world config.WorldConfig, cfg config.ProfileConfig) *Processor {
	return &Processor{
		SeaLevel:     world.SeaLevel,
		MaxIncrement: world.MaxIncrement,
		TunnelRate:   cfg.TunnelRate,
		BridgeRate:   cfg.BridgeRate,
		log:          logger.Named("profile"),
	}
}

// Process samples cells from heights and runs every stage. The first and
// last waypoints always sit at startY and endY.
func (p *Processor) Process(cells [][2]int, heights Heights, startY, endY int) Path {
	if len(cells) == 0 {
		return nil
	}

	raw := make([]int, len(cells))
	for i, c := range cells {
		raw[i] = heights.At(c[0], c[1])
	}

	ys := Clamp(raw, p.SeaLevel+5, p.SeaLevel+p.MaxIncrement)
	ys = PinEndpoints(ys, float64(startY), float64(endY))
	ys = Level(ys, p.TunnelRate, p.BridgeRate)

	half := HalfWindow(ys)
	if smoothed, ok := Smooth(ys, half); ok {
		ys = Blend(smoothed, half, float64(startY), float64(endY))
	}

	path := Round(cells, ys)
	if p.log != nil {
		p.log.Debug("profile processed",
			zap.Int("points", len(path)),
			zap.Int("half_window", half))
	}
	return path
}

// Clamp converts raw heights into elevations bounded to [lo, hi].
func Clamp(raw []int, lo, hi int) []float64 {
	out := make([]float64, len(raw))
	for i, h := range raw {
		out[i] = float64(min(max(h, lo), hi))
	}
	return out
}

// PinEndpoints returns ys with the first and last values replaced.
func PinEndpoints(ys []float64, startY, endY float64) []float64 {
	out := append([]float64(nil), ys...)
	if len(out) == 0 {
		return out
	}
	out[0] = startY
	out[len(out)-1] = endY
	return out
}

// baseline is the straight elevation line between the path endpoints.
func baseline(first, last float64, i, n int) float64 {
	span := float64(n - 1)
	return first*((span-float64(i))/span) + last*(float64(i)/span)
}

// Level flattens runs between points of equal height relative to the
// straight endpoint baseline. A run starting on a descent is flattened when
// its along-path distance exceeds bridgeRate times its index span scaled by
// the baseline slope; an ascent uses tunnelRate. The endpoints never move.
// Paths shorter than two points are returned unchanged.
func Level(ys []float64, tunnelRate, bridgeRate float64) []float64 {
	n := len(ys)
	if n < 2 {
		return append([]float64(nil), ys...)
	}
	first, last := ys[0], ys[n-1]

	rel := make([]float64, n)
	dist := make([]float64, n)
	groups := make(map[int][]int)
	for i, y := range ys {
		rel[i] = y - baseline(first, last, i, n)
		if i > 0 {
			dist[i] = dist[i-1] + 1 + math.Abs(y-ys[i-1])
		}
		k := int(rel[i])
		groups[k] = append(groups[k], i)
	}

	// Secant of the baseline slope.
	sec := math.Sqrt(float64(n*n)+(first-last)*(first-last)) / float64(n)

	out := make([]float64, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, rel[j])
		hd := 0
		if j < n-1 {
			hd = int(rel[j+1]) - int(rel[j])
		}
		if hd == 0 {
			continue
		}

		next, ok := nextInGroup(groups[int(rel[j])], j)
		if !ok {
			continue
		}
		span := float64(next-j) * sec
		gap := dist[next] - dist[j]
		bridge := hd < 0 && span*bridgeRate < gap
		tunnel := hd > 0 && span*tunnelRate < gap
		if bridge || tunnel {
			for k := j + 1; k <= next; k++ {
				out = append(out, rel[j])
			}
			j = next
		}
	}

	for i := range out {
		out[i] += baseline(first, last, i, n)
	}
	// A run may end on the last point and carry its start height onto it.
	out[0], out[n-1] = first, last
	return out
}

// nextInGroup returns the index following i in an ascending index group.
func nextInGroup(group []int, i int) (int, bool) {
	for k, idx := range group {
		if idx == i {
			if k+1 < len(group) {
				return group[k+1], true
			}
			return 0, false
		}
	}
	return 0, false
}

// HalfWindow returns the smoothing half-window for ys: half the integer
// elevation range, plus one.
func HalfWindow(ys []float64) int {
	if len(ys) == 0 {
		return 1
	}
	lo, hi := int(ys[0]), int(ys[0])
	for _, y := range ys {
		lo = min(lo, int(y))
		hi = max(hi, int(y))
	}
	return (hi-lo)/2 + 1
}

// Smooth applies a symmetric moving average of half-width half to every
// interior point. Window positions outside the path take the nearer
// endpoint's value. It reports false, returning ys unchanged, when the path
// is too short for the window.
func Smooth(ys []float64, half int) ([]float64, bool) {
	n := len(ys)
	if n <= 2*half || 2*half < 3 {
		return append([]float64(nil), ys...), false
	}

	out := make([]float64, n)
	out[0] = ys[0]
	out[n-1] = ys[n-1]
	for i := 1; i < n-1; i++ {
		sum := 0.0
		for j := i - half; j <= i+half; j++ {
			switch {
			case j < 0:
				sum += ys[0]
			case j >= n:
				sum += ys[n-1]
			default:
				sum += ys[j]
			}
		}
		out[i] = sum / float64(2*half+1)
	}
	return out, true
}

// Blend eases the first and last half+10 samples from the endpoint
// elevations into the interior. Paths too short to hold both runs are
// returned unchanged.
func Blend(ys []float64, half int, startY, endY float64) []float64 {
	out := append([]float64(nil), ys...)
	n := len(out)
	run := half + 10
	if n <= 2*half+20 {
		return out
	}
	for i := 1; i < run; i++ {
		t := float64(i) / float64(run)
		out[i] = startY*(1-t) + out[i]*t
		out[n-1-i] = endY*(1-t) + out[n-1-i]*t
	}
	return out
}

// Round pairs cells with elevations rounded half up.
func Round(cells [][2]int, ys []float64) Path {
	n := min(len(cells), len(ys))
	out := make(Path, n)
	for i := range n {
		out[i] = Waypoint{X: cells[i][0], Z: cells[i][1], Y: int(math.Floor(ys[i] + 0.5))}
	}
	return out
}
