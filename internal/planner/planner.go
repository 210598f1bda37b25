// Package planner wires the routing stages into one connection planner:
// cost field, pathfinding, height profile and track assembly.
package planner

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/curve"
	"github.com/Faultbox/railplan/internal/logger"
	"github.com/Faultbox/railplan/internal/pathfind"
	"github.com/Faultbox/railplan/internal/profile"
	"github.com/Faultbox/railplan/internal/region"
	"github.com/Faultbox/railplan/internal/roadbed"
	"github.com/Faultbox/railplan/internal/station"
	"github.com/Faultbox/railplan/internal/track"
	"github.com/Faultbox/railplan/pkg/math"
)

var (
	ErrOutsideWindow = errors.New("anchor outside the cost grid")
	ErrPathTooShort  = errors.New("path too short to assemble")
)

// trim is how many path cells are dropped at each end before assembly; the
// station connectors cover them.
const trim = 2

// HeightOracle reports the terrain surface height of a world column.
type HeightOracle interface {
	Height(worldX, worldZ int) int
}

// ObstacleOracle lists structure anchors inside a chunk.
type ObstacleOracle interface {
	Obstacles(ctx context.Context, chunkX, chunkZ int) ([][2]int, error)
}

// Sink receives the physical result of a route.
type Sink interface {
	Place(p track.Placement) error
	Stamp(c *curve.Composite) error
}

// Request asks for one connection inside the cost window of Region.
type Request struct {
	Region    region.Coord
	Endpoints station.Endpoints
}

// Route is a planned connection.
type Route struct {
	Region    region.Coord
	Endpoints station.Endpoints
	Cells     [][2]int     // Pathfinder cells in cost grid space
	Profile   profile.Path // Cells with processed elevations
	Waypoints []math.Vec3  // World positions handed to the assembler
	Track     track.Result
	Elapsed   time.Duration
}

// Planner plans connections for one world. It is safe for concurrent use.
type Planner struct {
	cfg       *config.Config
	cache     *region.GridCache
	builder   *region.Builder
	finder    *pathfind.Finder
	processor *profile.Processor
	assembler *track.Assembler
	stamper   *roadbed.Stamper
	oracle    HeightOracle

	log *zap.Logger
}

// New creates a planner. obstacles may be nil.
func New(cfg *config.Config, oracle HeightOracle, obstacles ObstacleOracle) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := region.NewGridCache(cfg.Cost.CacheMaxCells)
	if err != nil {
		return nil, fmt.Errorf("creating grid cache: %w", err)
	}
	assembler, err := track.NewAssembler(cfg.Track)
	if err != nil {
		cache.Close()
		return nil, err
	}

	return &Planner{
		cfg:       cfg,
		cache:     cache,
		builder:   region.NewBuilder(cfg, cache, oracle, obstacles),
		finder:    pathfind.NewFinder(cfg.Pathfind),
		processor: profile.NewProcessor(cfg.World, cfg.Profile),
		assembler: assembler,
		stamper:   roadbed.NewStamper(cfg.World, cfg.Roadbed),
		oracle:    oracle,
		log:       logger.Named("planner"),
	}, nil
}

// Close releases the grid cache.
func (p *Planner) Close() {
	p.cache.Close()
}

// Window returns the cost grid mapping for a region.
func (p *Planner) Window(c region.Coord) region.Window {
	return p.builder.Window(c)
}

// Plan runs the whole pipeline for one connection.
func (p *Planner) Plan(ctx context.Context, req Request) (*Route, error) {
	began := time.Now()
	ep := req.Endpoints
	ep.ExitDir = track.Dir8(ep.ExitDir)

	heights, err := p.builder.CostGrid(ctx, req.Region)
	if err != nil {
		return nil, fmt.Errorf("building cost grid: %w", err)
	}
	avoid, err := p.builder.AvoidanceGrid(ctx, req.Region)
	if err != nil {
		return nil, fmt.Errorf("building avoidance grid: %w", err)
	}
	cost := region.Combine(heights, avoid)

	win := p.builder.Window(req.Region)
	start, err := anchorCell(win, ep.ConnectStart)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	goal, err := anchorCell(win, ep.ConnectEnd)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	cells, err := p.finder.FindPath(cost, start, goal)
	if err != nil {
		return nil, fmt.Errorf("finding path in %s: %w", req.Region, err)
	}

	prof := p.processor.Process(cells, heights, ep.ConnectStart[2], ep.ConnectEnd[2])
	if len(prof) < 2*trim+2 {
		return nil, fmt.Errorf("%w: %d cells", ErrPathTooShort, len(prof))
	}

	waypoints := make([]math.Vec3, 0, len(prof)-2*trim)
	for _, w := range prof[trim : len(prof)-trim] {
		x, z := win.CellToWorld(w.X, w.Z)
		waypoints = append(waypoints, math.V3(x, float64(w.Y), z))
	}

	res, err := p.assembler.Assemble(waypoints, ep)
	if err != nil {
		return nil, fmt.Errorf("assembling track: %w", err)
	}

	route := &Route{
		Region:    req.Region,
		Endpoints: ep,
		Cells:     cells,
		Profile:   prof,
		Waypoints: waypoints,
		Track:     res,
		Elapsed:   time.Since(began),
	}
	p.log.Info("route planned",
		zap.Stringer("region", req.Region),
		zap.Int("cells", len(cells)),
		zap.Int("segments", len(res.Segments)),
		zap.Int("forced", res.Forced),
		zap.Float64("length", res.Curve.TotalLength()),
		zap.Duration("elapsed", route.Elapsed))
	return route, nil
}

func anchorCell(win region.Window, a [3]int) ([2]int, error) {
	x, z := win.WorldToCell(float64(a[0]), float64(a[1]))
	if !win.Contains(x, z) {
		return [2]int{}, fmt.Errorf("%w: (%d, %d) maps to cell (%d, %d)", ErrOutsideWindow, a[0], a[1], x, z)
	}
	return [2]int{x, z}, nil
}

// PlanLinks plans every station link of a region concurrently. Links with
// no route are logged and left out of the result.
func (p *Planner) PlanLinks(ctx context.Context, center region.Coord, links map[station.Link]station.Endpoints) (map[station.Link]*Route, error) {
	var (
		mu  sync.Mutex
		out = make(map[station.Link]*Route, len(links))
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Sampler.Workers/4, 1))
	for link, ep := range links {
		g.Go(func() error {
			route, err := p.Plan(ctx, Request{Region: center, Endpoints: ep})
			if errors.Is(err, pathfind.ErrNoRoute) || errors.Is(err, ErrOutsideWindow) || errors.Is(err, ErrPathTooShort) {
				p.log.Warn("link skipped", zap.Stringer("region", center), zap.Int("link", int(link)), zap.Error(err))
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[link] = route
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delivery counts what Deliver handed to a sink.
type Delivery struct {
	Placed  int
	Skipped int
}

// Deliver hands a route's placements and curve to sink. Curved placements
// climbing more than the configured vertical offset are skipped.
func (p *Planner) Deliver(route *Route, sink Sink) (Delivery, error) {
	var d Delivery
	limit := p.cfg.Track.MaxVerticalOffset
	for _, pl := range route.Track.Placements {
		if pl.Bezier != nil && gomath.Abs(pl.Bezier.EndOffset.Y) > limit {
			p.log.Warn("placement skipped: vertical offset too large",
				zap.Int("x", pl.Pos[0]), zap.Int("y", pl.Pos[1]), zap.Int("z", pl.Pos[2]),
				zap.Float64("offset", pl.Bezier.EndOffset.Y))
			d.Skipped++
			continue
		}
		if err := sink.Place(pl); err != nil {
			return d, fmt.Errorf("placing track at %v: %w", pl.Pos, err)
		}
		d.Placed++
	}
	if err := sink.Stamp(route.Track.Curve); err != nil {
		return d, fmt.Errorf("stamping roadbed: %w", err)
	}
	return d, nil
}

// Roadbed plans the roadbed columns of one chunk for a route, reading the
// terrain from the planner's height oracle.
func (p *Planner) Roadbed(route *Route, chunkX, chunkZ int) []roadbed.Column {
	return p.stamper.Chunk(route.Track.Curve, chunkX, chunkZ, p.oracle)
}

// RoadbedChunks lists the chunks a route's roadbed may reach.
func (p *Planner) RoadbedChunks(route *Route) [][2]int {
	return p.stamper.Chunks(route.Track.Curve)
}
