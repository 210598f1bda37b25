package track

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/zap"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/logger"
	"github.com/Faultbox/railplan/internal/station"
	"github.com/Faultbox/railplan/pkg/math"
)

var (
	ErrTooShort        = errors.New("route needs at least two waypoints")
	ErrUnknownStrategy = errors.New("unknown assembly strategy")
)

// Strategy selects how waypoints are joined.
type Strategy int

const (
	// StrategyGreedy joins each anchor to the farthest valid waypoint in
	// the lookahead window.
	StrategyGreedy Strategy = iota
	// StrategyAngleBuckets classifies each turn and splits sharp ones
	// with synthesised extension points.
	StrategyAngleBuckets
)

func (s Strategy) String() string {
	switch s {
	case StrategyGreedy:
		return "greedy"
	case StrategyAngleBuckets:
		return "buckets"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps a configuration name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "greedy":
		return StrategyGreedy, nil
	case "buckets", "angle-buckets":
		return StrategyAngleBuckets, nil
	default:
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownStrategy)
	}
}

// Assembler converts waypoint polylines into track.
type Assembler struct {
	Lookahead     int
	Strategy      Strategy
	StationOffset float64 // Connector run out of each station exit
	Rules         Rules

	log *zap.Logger
}

// NewAssembler creates an assembler from configuration.
func NewAssembler(cfg config.TrackConfig) (*Assembler, error) {
	s, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return &Assembler{
		Lookahead:     max(cfg.Lookahead, 2),
		Strategy:      s,
		StationOffset: cfg.StationOffset,
		Rules:         Rules{MaxSpan: cfg.MaxSpan},
		log:           logger.Named("track"),
	}, nil
}

func (a *Assembler) zlog() *zap.Logger {
	if a.log == nil {
		return zap.NewNop()
	}
	return a.log
}

// flatDir returns the horizontal unit direction from a to b.
func flatDir(a, b math.Vec3) math.Vec3 {
	return b.Sub(a).Flat().Normalize()
}

// Assemble builds the whole connection: a connector out of the start
// station, the scanned waypoints, and a connector into the end station.
// points are world positions with elevation in Y.
func (a *Assembler) Assemble(points []math.Vec3, ep station.Endpoints) (Result, error) {
	if len(points) < 2 {
		return Result{}, ErrTooShort
	}
	n := len(points)
	first, last := points[0], points[n-1]
	firstBack := flatDir(points[1], first)
	lastDir := flatDir(points[n-2], last)
	off := a.StationOffset
	exit := ep.ExitDir

	var res Result

	pA := ep.Start.Add(ep.StartDir.Scale(off)).Add(exit.Scale(off))
	if ep.StartDir.Dot(exit) > 0.999 {
		res.AddLine(ep.Start, pA, false)
	} else {
		res.AddBezier(ep.Start, ep.StartDir, pA.Sub(ep.Start), exit.Neg(), false)
	}
	res.AddBezier(pA, exit, first.Sub(pA), firstBack, false)

	a.scan(&res, points)

	pB := ep.End.Add(ep.EndDir.Scale(off)).Add(exit.Neg().Scale(off))
	res.AddBezier(last, lastDir, pB.Sub(last), exit.Neg(), false)
	if ep.EndDir.Dot(exit.Neg()) > 0.999 {
		res.AddLine(pB, ep.End, false)
	} else {
		res.AddBezier(pB, exit, ep.End.Sub(pB), ep.EndDir, false)
	}

	res.finish()
	a.zlog().Info("connection assembled",
		zap.Stringer("strategy", a.Strategy),
		zap.Int("waypoints", n),
		zap.Int("segments", len(res.Segments)),
		zap.Int("placements", len(res.Placements)),
		zap.Int("forced", res.Forced))
	return res, nil
}

// Scan joins the waypoints alone, without station connectors.
func (a *Assembler) Scan(points []math.Vec3) (Result, error) {
	if len(points) < 2 {
		return Result{}, ErrTooShort
	}
	var res Result
	a.scan(&res, points)
	res.finish()
	return res, nil
}

func (a *Assembler) scan(res *Result, points []math.Vec3) {
	switch a.Strategy {
	case StrategyAngleBuckets:
		a.scanBuckets(res, points)
	default:
		a.scanGreedy(res, points)
	}
}

// startDir is the travel direction leaving waypoint i.
func startDir(points []math.Vec3, i int) math.Vec3 {
	if i == 0 {
		return flatDir(points[0], points[1])
	}
	return flatDir(points[i-1], points[i])
}

// scanGreedy walks the waypoints, each time connecting to the farthest
// waypoint within the lookahead window that validates. When none does it
// forces a connection two waypoints ahead.
func (a *Assembler) scanGreedy(res *Result, points []math.Vec3) {
	n := len(points)
	for i := 0; i < n-1; i++ {
		from := points[i]
		dir := startDir(points, i)

		lowest := 2
		if n-1-i == 1 {
			lowest = 1
		}
		joined := false
		for j := min(a.Lookahead, n-1-i); j >= lowest; j-- {
			to := points[i+j]
			toDir := flatDir(points[i+j-1], to)
			if a.Rules.Validate(from, dir, to, toDir.Neg()).Valid() {
				connect(res, from, dir, to, toDir, false)
				i += j - 1
				joined = true
				break
			}
		}
		if joined {
			continue
		}

		var to, toDir math.Vec3
		if i+1 == n-1 {
			to = points[i+1]
			toDir = flatDir(points[i], to)
		} else {
			to = points[i+2]
			toDir = flatDir(points[i+1], to)
			i++
		}
		a.force(res, from, dir, to, toDir)
	}
}

func (a *Assembler) force(res *Result, from, dir, to, toDir math.Vec3) {
	v := a.Rules.Validate(from, dir, to, toDir.Neg())
	a.zlog().Warn("forced track connection",
		zap.Float64("x", from.X), zap.Float64("y", from.Y), zap.Float64("z", from.Z),
		zap.Float64("to_x", to.X), zap.Float64("to_y", to.Y), zap.Float64("to_z", to.Z),
		zap.Stringer("reason", v.Reason))
	connect(res, from, dir, to, toDir, true)
	res.Forced++
}

// connect emits a line when the connection is straight and level and a
// Bézier otherwise. toDir is the travel direction arriving at to.
func connect(res *Result, from, dir, to, toDir math.Vec3, forced bool) {
	if isStraight(from, dir, to, toDir) {
		res.AddLine(from, to, forced)
		return
	}
	res.AddBezier(from, dir, to.Sub(from), toDir.Neg(), forced)
}

func isStraight(from, dir, to, toDir math.Vec3) bool {
	return from.Y == to.Y &&
		dir.Dot(toDir) > 0.9999 &&
		dir.Dot(to.Sub(from).Normalize()) > 0.9999
}

// Turn buckets for the angle-bucket strategy, by absolute heading change.
const (
	bucketColinear = 1.0  // Below this the axes count as parallel
	bucketRight    = 91.0 // Up to 90°: 135° and right-angle corners
)

// headingChange returns the signed heading change in degrees from d to e,
// in (-180, 180]. Positive turns from +X toward +Z.
func headingChange(d, e math.Vec3) float64 {
	a := (gomath.Atan2(e.Z, e.X) - gomath.Atan2(d.Z, d.X)) * 180 / gomath.Pi
	for a <= -180 {
		a += 360
	}
	for a > 180 {
		a -= 360
	}
	return a
}

// scanBuckets walks the waypoints like scanGreedy but plans each candidate
// by its turn bucket, inserting straight extensions and, for turns past
// 90°, an intermediate extension point.
func (a *Assembler) scanBuckets(res *Result, points []math.Vec3) {
	n := len(points)
	for i := 0; i < n-1; i++ {
		from := points[i]
		dir := startDir(points, i)

		lowest := 2
		if n-1-i == 1 {
			lowest = 1
		}
		joined := false
		for j := min(a.Lookahead, n-1-i); j >= lowest; j-- {
			to := points[i+j]
			toDir := flatDir(points[i+j-1], to)
			if segs, ok := a.plan(from, dir, to, toDir, 0); ok {
				for _, s := range segs {
					s.emit(res)
				}
				i += j - 1
				joined = true
				break
			}
		}
		if joined {
			continue
		}

		var to, toDir math.Vec3
		if i+1 == n-1 {
			to = points[i+1]
			toDir = flatDir(points[i], to)
		} else {
			to = points[i+2]
			toDir = flatDir(points[i+1], to)
			i++
		}
		a.force(res, from, dir, to, toDir)
	}
}

// step is one planned piece of a bucketed connection.
type step struct {
	line     bool
	from, to math.Vec3
	dir      math.Vec3 // Travel direction leaving from
	toDir    math.Vec3 // Travel direction arriving at to
}

func (s step) emit(res *Result) {
	if s.line {
		res.AddLine(s.from, s.to, false)
		return
	}
	res.AddBezier(s.from, s.dir, s.to.Sub(s.from), s.toDir.Neg(), false)
}

// maxSplit bounds how often a sharp turn is divided.
const maxSplit = 2

// plan returns the pieces joining from to to, or false when no bucketed
// layout validates.
func (a *Assembler) plan(from, dir, to, toDir math.Vec3, depth int) ([]step, bool) {
	if from == to {
		return nil, false
	}
	turn := headingChange(dir, toDir)

	switch abs := gomath.Abs(turn); {
	case abs < bucketColinear && isStraight(from, dir, to, toDir):
		return []step{{line: true, from: from, to: to, dir: dir, toDir: toDir}}, true

	case abs <= bucketRight:
		// Colinear with an offset, near-parallel, 135° and 90° corners.
		ext, v := a.Rules.Extension(from, dir, to, toDir.Neg())
		if !v.Valid() {
			return nil, false
		}
		if ext.Straight && from.Y == to.Y {
			return []step{{line: true, from: from, to: to, dir: dir, toDir: toDir}}, true
		}
		var out []step
		if ext.StartExt > 0 {
			out = append(out, step{line: true, from: from, to: ext.CurveStart, dir: dir, toDir: dir})
		}
		out = append(out, step{from: ext.CurveStart, to: ext.CurveEnd, dir: dir, toDir: toDir})
		if ext.EndExt > 0 {
			out = append(out, step{line: true, from: ext.CurveEnd, to: to, dir: toDir, toDir: toDir})
		}
		return out, true

	default:
		// Sharper than a right angle: cut the corner where both tangent
		// rays meet with a straight on a compass heading between them,
		// then join each half on its own.
		if depth >= maxSplit {
			return nil, false
		}
		s, r, ok := math.Intersect(from.XZ(), to.XZ(), dir.XZ(), toDir.XZ())
		if !ok || s <= 0 || r >= 0 {
			return nil, false
		}
		corner := from.Add(dir.Scale(s))
		q1 := corner.Sub(dir.Scale(min(s, -r) / 2))
		midDir := Rotate8(dir, -int(gomath.Round(turn/90)))
		w, b, ok := math.Intersect(q1.XZ(), corner.XZ(), midDir.XZ(), toDir.XZ())
		if !ok || w <= 0 || b <= 0 || b >= -r {
			return nil, false
		}
		mid := q1.Lerp(corner.Add(toDir.Scale(b)), 0.5)
		mid.Y = (from.Y + to.Y) / 2
		first, ok := a.plan(from, dir, mid, midDir, depth+1)
		if !ok {
			return nil, false
		}
		second, ok := a.plan(mid, midDir, to, toDir, depth+1)
		if !ok {
			return nil, false
		}
		return append(first, second...), true
	}
}
