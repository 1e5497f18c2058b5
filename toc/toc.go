// Package toc contains a reader for the table-of-contents file of a
// streamed scene, listing its sections and the components inside them
package toc

import (
	"fmt"
	"os"

	"github.com/Luzifer/soi-extract/binio"
)

const pathSize = 260

type (
	// TOC holds all sections of a scene in file order. The position of
	// a section in Sections is its section id.
	TOC struct {
		Sections []*Section

		byInstance map[uint32]componentKey
	}

	// Section describes one independently compressed chunk of the
	// blob store and the components stored inside it
	Section struct {
		ID     uint32
		Header SectionHeader

		Uncached []Component
		Cached   []Component
	}

	// SectionHeader carries the section metadata
	SectionHeader struct {
		Name string

		TotalComponentCount    int32
		UncachedComponentCount int32
		CachedComponentCount   int32

		SharedSectionOffset int32
		UncachedPageOffset  int32
		CachedPageOffset    int32

		LinkTable [8]int32
		Bounding  Bounding

		Memory           MemoryEntry
		UncachedDataSize int32
		CachedDataSize   int32

		Zlib ZlibHeader
	}

	// ZlibHeader lists the compressed page sizes of a section. Pages
	// are stored back to back, uncached pages first.
	ZlibHeader struct {
		UncachedTotalSize int32
		CachedTotalSize   int32

		UncachedSizes []int32
		CachedSizes   []int32
	}

	// Bounding is the axis aligned box of a section
	Bounding struct {
		MinX, MaxX float32
		MinY, MaxY float32
		MinZ, MaxZ float32
	}

	// MemoryEntry is an offset / size pair
	MemoryEntry struct {
		Offset int32
		Size   int32
	}

	// Component identifies one asset instance inside a section. It is
	// never modified after the TOC has been read.
	Component struct {
		Section    uint32
		ID         uint32
		InstanceID uint32
		Kind       Kind
		Memory     MemoryEntry
		Path       string
		Cached     bool
	}

	componentKey struct {
		section, component uint32
	}

	sectionRecord struct {
		Name [pathSize]byte

		TotalComponentCount    int32
		UncachedComponentCount int32
		CachedComponentCount   int32

		SharedSectionOffset int32
		UncachedPageOffset  int32
		CachedPageOffset    int32

		LinkTable [8]int32
		Bounding  Bounding

		Memory           MemoryEntry
		UncachedDataSize int32
		CachedDataSize   int32

		UncachedTotalSize int32
		CachedTotalSize   int32
		UncachedAmount    int32
		CachedAmount      int32
	}

	componentRecord struct {
		Path        [pathSize]byte
		InstanceID  int32
		ComponentID int32
		Memory      MemoryEntry
		Kind        Kind
	}
)

// ReadFile reads and parses the TOC at the given path
func ReadFile(path string) (*TOC, error) {
	data, err := os.ReadFile(path) //#nosec:G304 // Intended to open arbitrary files
	if err != nil {
		return nil, fmt.Errorf("reading TOC file: %w", err)
	}
	return Parse(data)
}

// Parse reads sections until the end of data is reached
func Parse(data []byte) (*TOC, error) {
	var (
		c        = binio.NewCursor(data)
		sections []*Section
	)

	for c.Remaining() > 0 {
		id := uint32(len(sections)) //#nosec:G115 // section count is far below 2^32
		s, err := readSection(c, id)
		if err != nil {
			return nil, fmt.Errorf("reading section %d: %w", id, err)
		}
		sections = append(sections, s)
	}

	return New(sections), nil
}

// New creates a TOC from already decoded sections and builds the
// instance lookup over them
func New(sections []*Section) *TOC {
	out := &TOC{
		Sections:   sections,
		byInstance: make(map[uint32]componentKey),
	}

	for _, s := range out.Sections {
		for _, list := range [][]Component{s.Uncached, s.Cached} {
			for _, comp := range list {
				if _, ok := out.byInstance[comp.InstanceID]; ok {
					// First match wins
					continue
				}
				out.byInstance[comp.InstanceID] = componentKey{s.ID, comp.ID}
			}
		}
	}

	return out
}

// FindIDs looks up the section and component id owning the given
// instance id in both component lists of all sections
func (t *TOC) FindIDs(instanceID uint32) (sectionID, componentID uint32, ok bool) {
	k, ok := t.byInstance[instanceID]
	return k.section, k.component, ok
}

// Components returns all components of all sections, uncached before
// cached within a section
func (t *TOC) Components() []Component {
	var out []Component
	for _, s := range t.Sections {
		out = append(out, s.Components()...)
	}
	return out
}

// Components returns the uncached followed by the cached components
func (s *Section) Components() []Component {
	out := make([]Component, 0, len(s.Uncached)+len(s.Cached))
	out = append(out, s.Uncached...)
	return append(out, s.Cached...)
}

func readSection(c *binio.Cursor, id uint32) (*Section, error) {
	var rec sectionRecord
	c.Read(&rec)
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	s := &Section{
		ID: id,
		Header: SectionHeader{
			Name:                   binio.String(rec.Name[:]),
			TotalComponentCount:    rec.TotalComponentCount,
			UncachedComponentCount: rec.UncachedComponentCount,
			CachedComponentCount:   rec.CachedComponentCount,
			SharedSectionOffset:    rec.SharedSectionOffset,
			UncachedPageOffset:     rec.UncachedPageOffset,
			CachedPageOffset:       rec.CachedPageOffset,
			LinkTable:              rec.LinkTable,
			Bounding:               rec.Bounding,
			Memory:                 rec.Memory,
			UncachedDataSize:       rec.UncachedDataSize,
			CachedDataSize:         rec.CachedDataSize,
			Zlib: ZlibHeader{
				UncachedTotalSize: rec.UncachedTotalSize,
				CachedTotalSize:   rec.CachedTotalSize,
			},
		},
	}

	var err error
	if s.Header.Zlib.UncachedSizes, err = readSizes(c, rec.UncachedAmount); err != nil {
		return nil, fmt.Errorf("reading uncached page sizes: %w", err)
	}
	if s.Header.Zlib.CachedSizes, err = readSizes(c, rec.CachedAmount); err != nil {
		return nil, fmt.Errorf("reading cached page sizes: %w", err)
	}

	if s.Uncached, err = readComponents(c, id, rec.UncachedComponentCount, false); err != nil {
		return nil, fmt.Errorf("reading uncached components: %w", err)
	}
	if s.Cached, err = readComponents(c, id, rec.CachedComponentCount, true); err != nil {
		return nil, fmt.Errorf("reading cached components: %w", err)
	}

	return s, nil
}

func readSizes(c *binio.Cursor, n int32) ([]int32, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative page count %d", binio.ErrFormat, n)
	}
	if !c.Need(int(n), 4) { //nolint:mnd
		return nil, c.Err()
	}

	sizes := make([]int32, n)
	c.Read(sizes)
	return sizes, c.Err()
}

func readComponents(c *binio.Cursor, section uint32, n int32, cached bool) ([]Component, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative component count %d", binio.ErrFormat, n)
	}

	var out []Component
	for i := int32(0); i < n; i++ {
		var rec componentRecord
		c.Read(&rec)
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("reading component %d: %w", i, err)
		}

		if !rec.Kind.Valid() {
			return nil, fmt.Errorf("%w: component %d has unknown kind %d", binio.ErrFormat, i, rec.Kind)
		}
		if rec.Memory.Offset < 0 || rec.Memory.Size < 0 {
			return nil, fmt.Errorf("%w: component %d has negative memory entry", binio.ErrFormat, i)
		}

		out = append(out, Component{
			Section:    section,
			ID:         uint32(rec.ComponentID), //#nosec:G115 // ids are stored signed, used unsigned
			InstanceID: uint32(rec.InstanceID),  //#nosec:G115 // ids are stored signed, used unsigned
			Kind:       rec.Kind,
			Memory:     rec.Memory,
			Path:       binio.String(rec.Path[:]),
			Cached:     cached,
		})
	}

	return out, nil
}
