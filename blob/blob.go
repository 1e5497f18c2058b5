// Package blob contains a reader for the compressed blob store of a
// streamed scene. Each section is a chain of zlib pages holding the
// payload bytes of all its components back to back.
package blob

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/Luzifer/soi-extract/binio"
	"github.com/Luzifer/soi-extract/toc"
)

type (
	// Reader reads sections from a blob store
	Reader struct {
		archiveReader io.ReaderAt
	}

	// SectionData holds the fully inflated data of one section
	SectionData struct {
		Uncached []byte
		Cached   []byte
	}

	// Payload is the data of one component inside a section
	Payload struct {
		Component toc.Component
		Data      []byte
	}
)

// NewReader creates a Reader on top of the given blob store
func NewReader(r io.ReaderAt) *Reader {
	return &Reader{archiveReader: r}
}

// ReadSection inflates all pages of the section. Uncached pages start
// at the section offset, cached pages follow directly.
func (r *Reader) ReadSection(s *toc.Section) (*SectionData, error) {
	zh := s.Header.Zlib
	offset := int64(s.Header.Memory.Offset)

	uncached, next, err := r.inflatePages(offset, zh.UncachedSizes)
	if err != nil {
		return nil, fmt.Errorf("inflating uncached pages: %w", err)
	}

	cached, _, err := r.inflatePages(next, zh.CachedSizes)
	if err != nil {
		return nil, fmt.Errorf("inflating cached pages: %w", err)
	}

	return &SectionData{Uncached: uncached, Cached: cached}, nil
}

// Payloads slices the data of every component out of the section data
func (d *SectionData) Payloads(s *toc.Section) ([]Payload, error) {
	out := make([]Payload, 0, len(s.Uncached)+len(s.Cached))

	for _, c := range s.Components() {
		data := d.Uncached
		if c.Cached {
			data = d.Cached
		}

		b, err := Slice(data, c.Memory)
		if err != nil {
			return nil, fmt.Errorf("extracting component %q: %w", c.Path, err)
		}
		out = append(out, Payload{Component: c, Data: b})
	}

	return out, nil
}

// Slice extracts the range described by m from data. The result is a
// copy so section buffers can be released independently.
func Slice(data []byte, m toc.MemoryEntry) ([]byte, error) {
	start, size := int64(m.Offset), int64(m.Size)
	if start < 0 || size < 0 || start+size > int64(len(data)) {
		return nil, fmt.Errorf("%w: range %d+%d outside of %d bytes", binio.ErrBufferExhausted, start, size, len(data))
	}

	out := make([]byte, size)
	copy(out, data[start:start+size])
	return out, nil
}

func (r *Reader) inflatePages(offset int64, sizes []int32) (data []byte, next int64, err error) {
	for i, size := range sizes {
		if size < 0 {
			return nil, 0, fmt.Errorf("%w: page %d has negative size", binio.ErrFormat, i)
		}

		zr, err := zlib.NewReader(io.NewSectionReader(r.archiveReader, offset, int64(size)))
		if err != nil {
			return nil, 0, fmt.Errorf("opening page %d: %w", i, err)
		}

		page, err := io.ReadAll(zr)
		zr.Close() //nolint:errcheck,gosec // read-only, error is reported by ReadAll
		if err != nil {
			return nil, 0, fmt.Errorf("reading page %d: %w", i, err)
		}

		data = append(data, page...)
		offset += int64(size)
	}

	return data, offset, nil
}
