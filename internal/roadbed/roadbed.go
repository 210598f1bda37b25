// Package roadbed plans the cross-section columns that carry track through
// a chunk: embankment on the ground, deck on bridges and bore in tunnels.
package roadbed

import (
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/curve"
	"github.com/Faultbox/railplan/internal/logger"
	"github.com/Faultbox/railplan/pkg/math"
)

// Kind is the roadbed variant chosen for a column.
type Kind uint8

const (
	Ground Kind = iota
	Bridge
	Tunnel
)

func (k Kind) String() string {
	switch k {
	case Ground:
		return "ground"
	case Bridge:
		return "bridge"
	case Tunnel:
		return "tunnel"
	default:
		return "unknown"
	}
}

// Section is the cross-section profile of one roadbed kind, in blocks
// relative to the curve.
type Section struct {
	HalfWidth float64 // Lateral reach either side of the centre line
	Lower     int     // Lowest layer below the curve
	Upper     int     // Highest layer above the curve
}

// DefaultSections are the profiles used unless a Stamper overrides them.
var DefaultSections = [...]Section{
	Ground: {HalfWidth: 3, Lower: -3, Upper: 0},
	Bridge: {HalfWidth: 2, Lower: -1, Upper: 1},
	Tunnel: {HalfWidth: 3, Lower: -1, Upper: 5},
}

// HeightOracle reports the surface height of a world column.
type HeightOracle interface {
	Height(worldX, worldZ int) int
}

// Column is the roadbed plan for one world column.
type Column struct {
	X, Z     int // World block position
	Kind     Kind
	CurveY   int     // Elevation of the nearest curve point
	Bottom   int     // Lowest layer, inclusive
	Top      int     // Highest layer, inclusive
	LocalX   float64 // Arc length along the curve
	LocalZ   float64 // Signed lateral offset from the centre line
	FillDown bool    // Extend support below Bottom down to solid ground
}

// Stamper chooses and positions roadbed sections along a curve.
type Stamper struct {
	BridgeClearance int
	TunnelCover     int
	ChunkSize       int
	Sections        [3]Section

	log *zap.Logger
}

// NewStamper creates a stamper from configuration.
func NewStamper(world config.WorldConfig, cfg config.RoadbedConfig) *Stamper {
	return &Stamper{
		BridgeClearance: cfg.BridgeClearance,
		TunnelCover:     cfg.TunnelCover,
		ChunkSize:       world.ChunkSize,
		Sections:        DefaultSections,
		log:             logger.Named("roadbed"),
	}
}

// KindAt picks the roadbed for a curve elevation over a ground height.
func (s *Stamper) KindAt(curveY float64, ground int) Kind {
	switch {
	case curveY > float64(ground+s.BridgeClearance):
		return Bridge
	case curveY < float64(ground-s.TunnelCover):
		return Tunnel
	default:
		return Ground
	}
}

// Column plans world column (x, z) from the curve frame nearest to it.
// length is the curve's total length. It reports false when the column
// lies outside the chosen section.
func (s *Stamper) Column(f curve.Frame, length float64, x, z, ground int) (Column, bool) {
	kind := s.KindAt(f.Point.Y, ground)
	sec := s.Sections[kind]

	local := f.ToLocal(math.V3(float64(x), f.Point.Y, float64(z)))
	if gomath.Abs(local.Z) > sec.HalfWidth {
		return Column{}, false
	}

	y := int(f.Point.Y)
	return Column{
		X:        x,
		Z:        z,
		Kind:     kind,
		CurveY:   y,
		Bottom:   y + sec.Lower,
		Top:      y + sec.Upper,
		LocalX:   f.GlobalT * length,
		LocalZ:   local.Z,
		FillDown: kind != Tunnel,
	}, true
}

// Chunk plans every column of chunk (chunkX, chunkZ) that the curve's
// roadbed covers. Ground heights are read under the nearest curve point.
func (s *Stamper) Chunk(c *curve.Composite, chunkX, chunkZ int, oracle HeightOracle) []Column {
	size := s.ChunkSize
	if size <= 0 {
		size = 16
	}
	length := c.TotalLength()

	var out []Column
	for dx := 0; dx < size; dx++ {
		for dz := 0; dz < size; dz++ {
			x, z := chunkX*size+dx, chunkZ*size+dz
			f, ok := c.FrameAt(math.V3(float64(x), 0, float64(z)))
			if !ok {
				return nil
			}
			ground := oracle.Height(int(f.Point.X), int(f.Point.Z))
			if col, ok := s.Column(f, length, x, z, ground); ok {
				out = append(out, col)
			}
		}
	}

	if s.log != nil && len(out) > 0 {
		s.log.Debug("roadbed chunk planned",
			zap.Int("chunk_x", chunkX),
			zap.Int("chunk_z", chunkZ),
			zap.Int("columns", len(out)))
	}
	return out
}

// Chunks returns the chunks whose columns may carry roadbed for c: those
// touched by the curve samples, grown by one chunk on every side.
func (s *Stamper) Chunks(c *curve.Composite) [][2]int {
	size := s.ChunkSize
	if size <= 0 {
		size = 16
	}
	seen := make(map[[2]int]bool)
	var out [][2]int
	for _, p := range c.Sample(float64(size) / 2) {
		cx := int(gomath.Floor(p.X / float64(size)))
		cz := int(gomath.Floor(p.Z / float64(size)))
		for dx := -1; dx <= 1; dx++ {
			for dz := -1; dz <= 1; dz++ {
				k := [2]int{cx + dx, cz + dz}
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
	}
	return out
}
