// Package formats provides binary codecs for planned routes.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/Faultbox/railplan/internal/curve"
	"github.com/Faultbox/railplan/pkg/math"
)

// Record format errors.
var (
	ErrInvalidMagic       = errors.New("invalid record magic")
	ErrUnsupportedVersion = errors.New("unsupported record version")
	ErrTruncated          = errors.New("truncated record data")
	ErrInvalidTag         = errors.New("invalid segment tag")
)

// Version represents a record format version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentVersion is written by every encoder in this package.
var CurrentVersion = Version{Major: 1, Minor: 0}

const (
	routeMagic = "RTRC"
	headerSize = 10 // magic, version, count
	vec3Size   = 24
)

// writeHeader writes magic, version (stored as minor, major) and count.
func writeHeader(buf *bytes.Buffer, magic string, count int) {
	buf.WriteString(magic)
	buf.WriteByte(CurrentVersion.Minor)
	buf.WriteByte(CurrentVersion.Major)
	binary.Write(buf, binary.LittleEndian, uint32(count))
}

// readHeader validates magic and version and returns the record count.
func readHeader(data []byte, magic string) (Version, int, *bytes.Reader, error) {
	if len(data) < headerSize {
		return Version{}, 0, nil, ErrTruncated
	}
	if string(data[0:4]) != magic {
		return Version{}, 0, nil, fmt.Errorf("%w: expected %q", ErrInvalidMagic, magic)
	}
	version := Version{Major: data[5], Minor: data[4]}
	if version.Major != CurrentVersion.Major {
		return Version{}, 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}
	count := binary.LittleEndian.Uint32(data[6:10])
	return version, int(count), bytes.NewReader(data[headerSize:]), nil
}

// RouteRecord is the persisted geometry of one connection.
type RouteRecord struct {
	Version  Version
	Segments []curve.Segment
}

// NewRouteRecord wraps the segments of c.
func NewRouteRecord(c *curve.Composite) *RouteRecord {
	return &RouteRecord{Version: CurrentVersion, Segments: c.Segments()}
}

// Curve rebuilds the queryable curve.
func (r *RouteRecord) Curve() *curve.Composite {
	return curve.New(r.Segments...)
}

// MarshalBinary encodes the record as "RTRC": a header, then per segment a
// tag byte holding the control point count followed by that many float64
// triples.
func (r *RouteRecord) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	writeHeader(buf, routeMagic, len(r.Segments))
	for i, seg := range r.Segments {
		n := seg.Kind.ControlPoints()
		if n == 0 {
			return nil, fmt.Errorf("segment %d: %w: kind %d", i, ErrInvalidTag, seg.Kind)
		}
		buf.WriteByte(byte(n))
		for _, p := range seg.Controls() {
			if err := binary.Write(buf, binary.LittleEndian, p); err != nil {
				return nil, fmt.Errorf("writing segment %d: %w", i, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// ParseRoute parses an "RTRC" record from raw bytes.
func ParseRoute(data []byte) (*RouteRecord, error) {
	version, count, r, err := readHeader(data, routeMagic)
	if err != nil {
		return nil, err
	}

	// Every segment needs at least a tag and two points.
	if count > r.Len()/(1+2*vec3Size) {
		return nil, fmt.Errorf("%w: %d segments in %d bytes", ErrTruncated, count, r.Len())
	}

	rec := &RouteRecord{
		Version:  version,
		Segments: make([]curve.Segment, 0, count),
	}
	for i := 0; i < count; i++ {
		seg, err := parseSegment(r)
		if err != nil {
			return nil, fmt.Errorf("parsing segment %d: %w", i, err)
		}
		rec.Segments = append(rec.Segments, seg)
	}
	return rec, nil
}

func parseSegment(r *bytes.Reader) (curve.Segment, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return curve.Segment{}, fmt.Errorf("%w: reading tag", ErrTruncated)
	}

	var pts [4]math.Vec3
	n := int(tag)
	if n != curve.KindLine.ControlPoints() && n != curve.KindBezier.ControlPoints() {
		return curve.Segment{}, fmt.Errorf("%w: %d", ErrInvalidTag, tag)
	}
	for i := 0; i < n; i++ {
		if err := binary.Read(r, binary.LittleEndian, &pts[i]); err != nil {
			return curve.Segment{}, fmt.Errorf("%w: reading point %d", ErrTruncated, i)
		}
	}

	if n == 2 {
		return curve.Line(pts[0], pts[1]), nil
	}
	return curve.Bezier(pts[0], pts[1], pts[2], pts[3]), nil
}

// ParseRouteFile parses an "RTRC" record from disk.
func ParseRouteFile(path string) (*RouteRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading route file: %w", err)
	}
	return ParseRoute(data)
}

// WriteRouteFile writes the record to disk.
func WriteRouteFile(path string, rec *RouteRecord) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing route file: %w", err)
	}
	return nil
}
