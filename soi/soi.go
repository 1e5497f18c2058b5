// Package soi contains a reader for the scene object index, holding the
// headers of every streamed component of a scene
package soi

import (
	"fmt"
	"os"

	"github.com/Luzifer/soi-extract/binio"
	"github.com/Luzifer/soi-extract/collision"
	"github.com/Luzifer/soi-extract/motion"
	"github.com/Luzifer/soi-extract/texture"
	"github.com/Luzifer/soi-extract/xng"
)

const nameSize = 260

type (
	// Options configure the parser
	Options struct {
		// Textures decodes the platform texture headers, defaults to
		// the Xbox 360 header
		Textures texture.HeaderDecoder
	}

	// Header is the fixed file header
	Header struct {
		Version int32

		Flags             int32
		Sections          int32
		CollisionModels   int32
		RenderableModels  int32
		MotionPacks       int32
		StreamingTextures int32
		StaticTextures    int32
		UncachedPages     int32
		CachedPages       int32

		MotionPacksOffset      int32
		RenderableModelsOffset int32
		CollisionModelsOffset  int32
		TexturesOffset         int32
		CollisionGridsOffset   int32

		StreamingMode int32
		Reserved      [16]byte
	}

	// ModelInfo is the common placement header of every record
	ModelInfo struct {
		Flags       int32
		Position    binio.Vec4
		LookVector  binio.Vec4
		UpVector    binio.Vec4
		IsAnimated  int32
		SectionID   int32
		ComponentID int32

		RawName [nameSize]byte

		Zone           int32
		ParameterCount int32
	}

	// Parameter is a named value attached to a model
	Parameter struct {
		RawName  [nameSize]byte
		RawValue [nameSize]byte
	}

	// StreamingTexture is a texture whose pixels live in the blob store
	StreamingTexture struct {
		Info    ModelInfo
		Padding uint32
		Header  texture.Header
	}

	// StaticTexture is a texture stored as complete DDS file inside
	// the index
	StaticTexture struct {
		Info ModelInfo
		DDS  []byte
	}

	// MotionPack is a streamed animation
	MotionPack struct {
		Info   ModelInfo
		Header *motion.Header
	}

	// RenderableModel is a streamed mesh
	RenderableModel struct {
		Info       ModelInfo
		Parameters []Parameter
		Header     *xng.Model
	}

	// CollisionModel is a streamed collision model
	CollisionModel struct {
		Info       ModelInfo
		Parameters []Parameter
		Header     *collision.Model
	}

	// Index is the parsed scene object index. It is not modified
	// after parsing and safe for concurrent readers.
	Index struct {
		Header            Header
		UncachedPageSizes []int32
		CachedPageSizes   []int32

		StreamingTextures []*StreamingTexture
		StaticTextures    []*StaticTexture
		MotionPacks       []*MotionPack
		RenderableModels  []*RenderableModel
		CollisionModels   []*CollisionModel

		streamingTextures map[key]*StreamingTexture
		staticTextures    map[key]*StaticTexture
		motionPacks       map[key]*MotionPack
		renderableModels  map[key]*RenderableModel
		collisionModels   map[key]*CollisionModel
	}

	key struct {
		section, component uint32
	}
)

// Name returns the model name
func (m ModelInfo) Name() string { return binio.String(m.RawName[:]) }

func (m ModelInfo) key() key {
	return key{uint32(m.SectionID), uint32(m.ComponentID)} //#nosec:G115 // ids are stored signed, used unsigned
}

// Name returns the parameter name
func (p Parameter) Name() string { return binio.String(p.RawName[:]) }

// Value returns the parameter value
func (p Parameter) Value() string { return binio.String(p.RawValue[:]) }

func (p Parameter) String() string { return p.Name() + "=" + p.Value() }

// ReadFile reads and parses the index at the given path
func ReadFile(path string, opts Options) (*Index, error) {
	data, err := os.ReadFile(path) //#nosec:G304 // Intended to open arbitrary files
	if err != nil {
		return nil, fmt.Errorf("reading SOI file: %w", err)
	}
	return Parse(data, opts)
}

// Parse reads the header and all records in file order
func Parse(data []byte, opts Options) (*Index, error) {
	if opts.Textures == nil {
		opts.Textures = texture.X360Decoder{}
	}

	var (
		c   = binio.NewCursor(data)
		idx = &Index{}
		err error
	)

	c.Read(&idx.Header)
	if err = c.Err(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	h := idx.Header
	if idx.UncachedPageSizes, err = readSizes(c, h.UncachedPages); err != nil {
		return nil, fmt.Errorf("reading uncached page sizes: %w", err)
	}
	if idx.CachedPageSizes, err = readSizes(c, h.CachedPages); err != nil {
		return nil, fmt.Errorf("reading cached page sizes: %w", err)
	}

	if err = readList(c, "streaming texture", h.StreamingTextures, &idx.StreamingTextures, func(c *binio.Cursor) (*StreamingTexture, error) {
		return readStreamingTexture(c, opts.Textures)
	}); err != nil {
		return nil, err
	}
	if err = readList(c, "static texture", h.StaticTextures, &idx.StaticTextures, readStaticTexture); err != nil {
		return nil, err
	}
	if err = readList(c, "motion pack", h.MotionPacks, &idx.MotionPacks, readMotionPack); err != nil {
		return nil, err
	}
	if err = readList(c, "renderable model", h.RenderableModels, &idx.RenderableModels, readRenderableModel); err != nil {
		return nil, err
	}
	if err = readList(c, "collision model", h.CollisionModels, &idx.CollisionModels, readCollisionModel); err != nil {
		return nil, err
	}

	idx.streamingTextures = buildLookup(idx.StreamingTextures, func(t *StreamingTexture) ModelInfo { return t.Info })
	idx.staticTextures = buildLookup(idx.StaticTextures, func(t *StaticTexture) ModelInfo { return t.Info })
	idx.motionPacks = buildLookup(idx.MotionPacks, func(m *MotionPack) ModelInfo { return m.Info })
	idx.renderableModels = buildLookup(idx.RenderableModels, func(m *RenderableModel) ModelInfo { return m.Info })
	idx.collisionModels = buildLookup(idx.CollisionModels, func(m *CollisionModel) ModelInfo { return m.Info })

	return idx, nil
}

// FindStreamingTexture returns the streaming texture with the given ids
func (i *Index) FindStreamingTexture(section, component uint32) (*StreamingTexture, bool) {
	t, ok := i.streamingTextures[key{section, component}]
	return t, ok
}

// FindStaticTexture returns the static texture with the given ids
func (i *Index) FindStaticTexture(section, component uint32) (*StaticTexture, bool) {
	t, ok := i.staticTextures[key{section, component}]
	return t, ok
}

// FindMotionPack returns the motion pack with the given ids
func (i *Index) FindMotionPack(section, component uint32) (*MotionPack, bool) {
	m, ok := i.motionPacks[key{section, component}]
	return m, ok
}

// FindModel returns the renderable model with the given ids
func (i *Index) FindModel(section, component uint32) (*RenderableModel, bool) {
	m, ok := i.renderableModels[key{section, component}]
	return m, ok
}

// FindCollisionModel returns the collision model with the given ids
func (i *Index) FindCollisionModel(section, component uint32) (*CollisionModel, bool) {
	m, ok := i.collisionModels[key{section, component}]
	return m, ok
}

func buildLookup[T any](records []*T, info func(*T) ModelInfo) map[key]*T {
	out := make(map[key]*T, len(records))
	for _, r := range records {
		k := info(r).key()
		if _, ok := out[k]; ok {
			// First match wins
			continue
		}
		out[k] = r
	}
	return out
}
