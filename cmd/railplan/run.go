package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/curve"
	"github.com/Faultbox/railplan/internal/formats"
	"github.com/Faultbox/railplan/internal/logger"
	"github.com/Faultbox/railplan/internal/planner"
	"github.com/Faultbox/railplan/internal/region"
	"github.com/Faultbox/railplan/internal/station"
	"github.com/Faultbox/railplan/internal/terrain"
	"github.com/Faultbox/railplan/internal/track"
	"github.com/Faultbox/railplan/pkg/math"
)

// surfaceLift raises the generated terrain's mean above sea level.
const surfaceLift = 8

type planOptions struct {
	from, fromDir    string
	to, toDir        string
	axis             string
	regionX, regionZ int
	out              string
	roadbed          bool
}

func loadConfig(f commonFlags) (*config.Config, error) {
	ov := config.Overrides{
		Debug:    f.debug,
		Strategy: f.strategy,
		Workers:  f.workers,
		LogFile:  f.logFile,
	}
	if f.seedSet {
		ov.Seed = &f.seed
	}
	return config.Load(f.configPath, ov)
}

func runPlan(ctx context.Context, common commonFlags, opts planOptions) error {
	cfg, err := loadConfig(common)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("config: %+v", *cfg)

	a, err := parseExit(opts.from, opts.fromDir)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	b, err := parseExit(opts.to, opts.toDir)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	axis, err := connectionAxis(opts.axis, a, b)
	if err != nil {
		return err
	}

	oracle := terrain.NewNoiseOracle(cfg.World.Seed, cfg.World.SeaLevel+surfaceLift)
	p, err := planner.New(cfg, oracle, nil)
	if err != nil {
		return err
	}
	defer p.Close()

	req := planner.Request{
		Region:    region.Coord{X: opts.regionX, Z: opts.regionZ},
		Endpoints: station.Connect(a, b, axis),
	}
	logger.Info("planning",
		zap.Stringer("region", req.Region),
		zap.String("strategy", cfg.Track.Strategy),
		zap.Int64("seed", cfg.World.Seed))

	logger.Debug("endpoints",
		zap.Ints("connect_start", req.Endpoints.ConnectStart[:]),
		zap.Ints("connect_end", req.Endpoints.ConnectEnd[:]))

	route, err := p.Plan(ctx, req)
	if err != nil {
		logger.Error("planning failed", zap.Error(err))
		return err
	}

	sink := &bundleSink{}
	d, err := p.Deliver(route, sink)
	if err != nil {
		return err
	}
	if d.Skipped > 0 {
		logger.Warn("placements left out of the bundle", zap.Int("skipped", d.Skipped))
	}
	if err := formats.WriteBundleFile(opts.out, sink.bundle()); err != nil {
		return fmt.Errorf("writing bundle: %w", err)
	}

	printRoute(os.Stdout, route, d)
	if opts.roadbed {
		printRoadbed(os.Stdout, p, route)
	}
	fmt.Printf("Wrote %s\n", opts.out)
	return nil
}

// bundleSink collects delivered placements and the stamped curve.
type bundleSink struct {
	placements []track.Placement
	curve      *curve.Composite
}

func (s *bundleSink) Place(p track.Placement) error {
	s.placements = append(s.placements, p)
	return nil
}

func (s *bundleSink) Stamp(c *curve.Composite) error {
	s.curve = c
	return nil
}

func (s *bundleSink) bundle() *formats.Bundle {
	return &formats.Bundle{
		Route:      formats.NewRouteRecord(s.curve),
		Placements: formats.NewPlacementRecord(s.placements),
	}
}

func runInspect(path string, verbose bool) error {
	b, err := formats.ReadBundleFile(path)
	if err != nil {
		return err
	}
	printBundle(os.Stdout, path, b, verbose)
	return nil
}

func runConfig(common commonFlags, save string, install bool) error {
	cfg, err := loadConfig(common)
	if err != nil {
		return err
	}
	printConfig(os.Stdout, cfg)
	if install {
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("installing config: %w", err)
		}
		fmt.Printf("Installed %s\n", filepath.Join(config.ConfigDir(), "railplan.yaml"))
	}
	if save != "" {
		if err := cfg.SaveTo(save); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Saved %s\n", save)
	}
	return nil
}

// parseExit reads "x,y,z" and a compass letter.
func parseExit(pos, dir string) (station.Exit, error) {
	parts := strings.Split(pos, ",")
	if len(parts) != 3 {
		return station.Exit{}, fmt.Errorf("position %q is not x,y,z", pos)
	}
	var e station.Exit
	for i, s := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return station.Exit{}, fmt.Errorf("position %q: %w", pos, err)
		}
		e.Pos[i] = v
	}
	d, err := compass(dir)
	if err != nil {
		return station.Exit{}, err
	}
	e.Dir = d
	return e, nil
}

func compass(s string) (math.Vec3, error) {
	switch strings.ToLower(s) {
	case "n", "north":
		return math.V3(0, 0, -1), nil
	case "s", "south":
		return math.V3(0, 0, 1), nil
	case "e", "east":
		return math.V3(1, 0, 0), nil
	case "w", "west":
		return math.V3(-1, 0, 0), nil
	default:
		return math.Vec3{}, fmt.Errorf("unknown direction %q", s)
	}
}

// connectionAxis returns the axis from a towards b. An empty name picks the
// axis with the larger offset.
func connectionAxis(name string, a, b station.Exit) (math.Vec3, error) {
	if name != "" {
		return compass(name)
	}
	dx := b.Pos[0] - a.Pos[0]
	dz := b.Pos[2] - a.Pos[2]
	switch {
	case dx == 0 && dz == 0:
		return math.Vec3{}, fmt.Errorf("exits share a column")
	case abs(dx) >= abs(dz) && dx > 0:
		return math.V3(1, 0, 0), nil
	case abs(dx) >= abs(dz):
		return math.V3(-1, 0, 0), nil
	case dz > 0:
		return math.V3(0, 0, 1), nil
	default:
		return math.V3(0, 0, -1), nil
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
