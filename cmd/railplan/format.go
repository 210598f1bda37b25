package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Faultbox/railplan/internal/config"
	"github.com/Faultbox/railplan/internal/curve"
	"github.com/Faultbox/railplan/internal/formats"
	"github.com/Faultbox/railplan/internal/planner"
	"github.com/Faultbox/railplan/internal/roadbed"
)

func printRoute(w io.Writer, r *planner.Route, d planner.Delivery) {
	lines, beziers := countKinds(r.Track.Segments)
	fmt.Fprintf(w, "Route in region %s\n", r.Region)
	fmt.Fprintf(w, "  Path cells:  %d\n", len(r.Cells))
	fmt.Fprintf(w, "  Waypoints:   %d\n", len(r.Waypoints))
	fmt.Fprintf(w, "  Segments:    %d (%d lines, %d curves)\n", len(r.Track.Segments), lines, beziers)
	fmt.Fprintf(w, "  Length:      %.1f blocks\n", r.Track.Curve.TotalLength())
	fmt.Fprintf(w, "  Placements:  %d placed, %d skipped\n", d.Placed, d.Skipped)
	fmt.Fprintf(w, "  Forced:      %d\n", r.Track.Forced)
	fmt.Fprintf(w, "  Elapsed:     %s\n", r.Elapsed)
}

func printRoadbed(w io.Writer, p *planner.Planner, r *planner.Route) {
	var counts [3]int
	chunks := 0
	for _, k := range p.RoadbedChunks(r) {
		cols := p.Roadbed(r, k[0], k[1])
		if len(cols) > 0 {
			chunks++
		}
		for _, c := range cols {
			counts[c.Kind]++
		}
	}
	fmt.Fprintf(w, "Roadbed over %d chunks\n", chunks)
	for _, k := range []roadbed.Kind{roadbed.Ground, roadbed.Bridge, roadbed.Tunnel} {
		fmt.Fprintf(w, "  %-8s %d columns\n", k.String()+":", counts[k])
	}
}

func printBundle(w io.Writer, path string, b *formats.Bundle, verbose bool) {
	c := b.Route.Curve()
	lines, beziers := countKinds(b.Route.Segments)
	fmt.Fprintf(w, "Bundle %s\n", path)
	fmt.Fprintf(w, "  Route version:     %s\n", b.Route.Version)
	fmt.Fprintf(w, "  Segments:          %d (%d lines, %d curves)\n", len(b.Route.Segments), lines, beziers)
	fmt.Fprintf(w, "  Length:            %.1f blocks\n", c.TotalLength())
	fmt.Fprintf(w, "  Placement version: %s\n", b.Placements.Version)
	fmt.Fprintf(w, "  Placements:        %d (%d forced)\n", len(b.Placements.Placements), b.Placements.ForcedCount())

	if !verbose {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tSTART\tEND\tLENGTH")
	for i, s := range b.Route.Segments {
		fmt.Fprintf(tw, "%d\t%s\t%v\t%v\t%.2f\n", i, s.Kind, s.Start(), s.End(), s.Length())
	}
	tw.Flush()
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Config OK")
	fmt.Fprintf(w, "  Seed:        %d\n", cfg.World.Seed)
	fmt.Fprintf(w, "  Region:      %d chunks, %d cells, %.1f blocks/cell\n",
		cfg.World.RegionChunks, cfg.World.RegionCells(), cfg.World.CellSize())
	fmt.Fprintf(w, "  Strategy:    %s (lookahead %d, max span %.0f)\n",
		cfg.Track.Strategy, cfg.Track.Lookahead, cfg.Track.MaxSpan)
	fmt.Fprintf(w, "  Workers:     %d\n", cfg.Sampler.Workers)
	fmt.Fprintf(w, "  Log level:   %s\n", cfg.Logging.Level)
}

func countKinds(segs []curve.Segment) (lines, beziers int) {
	for _, s := range segs {
		if s.Kind == curve.KindBezier {
			beziers++
		} else {
			lines++
		}
	}
	return lines, beziers
}
