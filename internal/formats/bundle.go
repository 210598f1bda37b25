package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

// maxRecordSize bounds a single record inside a bundle.
const maxRecordSize = 1 << 30

// Bundle pairs a route with its placements.
type Bundle struct {
	Route      *RouteRecord
	Placements *PlacementRecord
}

// WriteBundle writes both records, each prefixed by its uint32 length, to
// a zstd stream.
func WriteBundle(w io.Writer, b *Bundle) error {
	route, err := b.Route.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding route: %w", err)
	}
	placements, err := b.Placements.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding placements: %w", err)
	}

	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	for _, rec := range [][]byte{route, placements} {
		if err := binary.Write(zw, binary.LittleEndian, uint32(len(rec))); err != nil {
			zw.Close()
			return fmt.Errorf("writing bundle: %w", err)
		}
		if _, err := zw.Write(rec); err != nil {
			zw.Close()
			return fmt.Errorf("writing bundle: %w", err)
		}
	}
	return zw.Close()
}

// ReadBundle reads a bundle written by WriteBundle.
func ReadBundle(r io.Reader) (*Bundle, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("creating zstd reader: %w", err)
	}
	defer zr.Close()

	route, err := readRecord(zr)
	if err != nil {
		return nil, fmt.Errorf("reading route: %w", err)
	}
	placements, err := readRecord(zr)
	if err != nil {
		return nil, fmt.Errorf("reading placements: %w", err)
	}

	b := &Bundle{}
	if b.Route, err = ParseRoute(route); err != nil {
		return nil, err
	}
	if b.Placements, err = ParsePlacements(placements); err != nil {
		return nil, err
	}
	return b, nil
}

func readRecord(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: reading length", ErrTruncated)
	}
	if n > maxRecordSize {
		return nil, fmt.Errorf("record length %d exceeds limit", n)
	}
	// Grow with the data actually present rather than trusting n.
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(r, int64(n))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if buf.Len() < int(n) {
		return nil, fmt.Errorf("%w: record has %d of %d bytes", ErrTruncated, buf.Len(), n)
	}
	return buf.Bytes(), nil
}

// WriteBundleFile writes a bundle to disk.
func WriteBundleFile(path string, b *Bundle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bundle file: %w", err)
	}
	if err := WriteBundle(f, b); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadBundleFile reads a bundle from disk.
func ReadBundleFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bundle file: %w", err)
	}
	defer f.Close()
	return ReadBundle(f)
}
