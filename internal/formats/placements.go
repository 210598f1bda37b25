package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/railplan/internal/track"
	"github.com/Faultbox/railplan/pkg/math"
)

// ErrInvalidShape is returned for a placement with an unknown tile shape.
var ErrInvalidShape = errors.New("invalid placement shape")

const (
	placementMagic = "RTPL"

	// pos (3×int32), shape, end shape, forced, bezier flag
	placementSize = 3*4 + 4
)

const (
	flagForced = 1 << iota
	flagBezier
)

// PlacementRecord is the persisted tile list of one connection.
type PlacementRecord struct {
	Version    Version
	Placements []track.Placement
}

// NewPlacementRecord wraps placements.
func NewPlacementRecord(placements []track.Placement) *PlacementRecord {
	return &PlacementRecord{Version: CurrentVersion, Placements: placements}
}

// ForcedCount returns how many placements belong to forced connections.
func (p *PlacementRecord) ForcedCount() int {
	n := 0
	for _, pl := range p.Placements {
		if pl.Forced {
			n++
		}
	}
	return n
}

// MarshalBinary encodes the record as "RTPL".
//
// Each placement is its position as three int32, the shape and end shape
// bytes, and the forced and bezier flags. Curved placements are followed by
// the start, start axis, end offset and end axis as float64 triples.
func (p *PlacementRecord) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	writeHeader(buf, placementMagic, len(p.Placements))
	for i, pl := range p.Placements {
		for _, c := range pl.Pos {
			binary.Write(buf, binary.LittleEndian, int32(c))
		}
		buf.WriteByte(byte(pl.Shape))
		buf.WriteByte(byte(pl.EndShape))

		var flags byte
		if pl.Forced {
			flags |= flagForced
		}
		if pl.Bezier != nil {
			flags |= flagBezier
		}
		buf.WriteByte(flags)
		buf.WriteByte(0) // reserved

		if pl.Bezier == nil {
			continue
		}
		b := pl.Bezier
		for _, v := range [4]math.Vec3{b.Start, b.StartAxis, b.EndOffset, b.EndAxis} {
			if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
				return nil, fmt.Errorf("writing placement %d: %w", i, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// ParsePlacements parses an "RTPL" record from raw bytes.
func ParsePlacements(data []byte) (*PlacementRecord, error) {
	version, count, r, err := readHeader(data, placementMagic)
	if err != nil {
		return nil, err
	}
	if count > r.Len()/placementSize {
		return nil, fmt.Errorf("%w: %d placements in %d bytes", ErrTruncated, count, r.Len())
	}

	rec := &PlacementRecord{
		Version:    version,
		Placements: make([]track.Placement, 0, count),
	}
	for i := 0; i < count; i++ {
		pl, err := parsePlacement(r)
		if err != nil {
			return nil, fmt.Errorf("parsing placement %d: %w", i, err)
		}
		rec.Placements = append(rec.Placements, pl)
	}
	return rec, nil
}

func parsePlacement(r *bytes.Reader) (track.Placement, error) {
	var raw struct {
		Pos      [3]int32
		Shape    uint8
		EndShape uint8
		Flags    uint8
		_        uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return track.Placement{}, fmt.Errorf("%w: reading placement", ErrTruncated)
	}
	if raw.Shape > uint8(track.ShapeND) || raw.EndShape > uint8(track.ShapeND) {
		return track.Placement{}, fmt.Errorf("%w: %d/%d", ErrInvalidShape, raw.Shape, raw.EndShape)
	}

	pl := track.Placement{
		Pos:      [3]int{int(raw.Pos[0]), int(raw.Pos[1]), int(raw.Pos[2])},
		Shape:    track.Shape(raw.Shape),
		EndShape: track.Shape(raw.EndShape),
		Forced:   raw.Flags&flagForced != 0,
	}
	if raw.Flags&flagBezier == 0 {
		return pl, nil
	}

	var v [4]math.Vec3
	if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
		return track.Placement{}, fmt.Errorf("%w: reading bezier", ErrTruncated)
	}
	pl.Bezier = &track.BezierInfo{
		Start:     v[0],
		StartAxis: v[1],
		EndOffset: v[2],
		EndAxis:   v[3],
	}
	return pl, nil
}
