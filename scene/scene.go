// Package scene ties the table of contents and the scene object index
// of a scene together to find the header belonging to a component
package scene

import (
	"errors"
	"fmt"

	"github.com/Luzifer/soi-extract/soi"
	"github.com/Luzifer/soi-extract/toc"
)

// ErrLookupMiss is returned when no header exists for a component,
// neither under its own ids nor under the ids owning its instance
var ErrLookupMiss = errors.New("component header not found")

type (
	// Index resolves component headers. It is read-only and safe for
	// concurrent use.
	Index struct {
		TOC *toc.TOC
		SOI *soi.Index
	}

	// Texture is either a streaming or a static texture
	Texture struct {
		Streaming *soi.StreamingTexture
		Static    *soi.StaticTexture
	}
)

// New creates an Index from the parsed files
func New(t *toc.TOC, s *soi.Index) *Index {
	return &Index{TOC: t, SOI: s}
}

// Open reads the TOC and SOI files of a scene
func Open(tocPath, soiPath string, opts soi.Options) (*Index, error) {
	t, err := toc.ReadFile(tocPath)
	if err != nil {
		return nil, fmt.Errorf("opening TOC: %w", err)
	}

	s, err := soi.ReadFile(soiPath, opts)
	if err != nil {
		return nil, fmt.Errorf("opening SOI: %w", err)
	}

	return New(t, s), nil
}

// resolve tries the direct lookup and falls back to the ids owning the
// instance when the component itself is not known to the index
func resolve[T any](i *Index, section, component, instance uint32, find func(section, component uint32) (T, bool)) (T, bool) {
	if v, ok := find(section, component); ok {
		return v, true
	}

	if s, c, ok := i.TOC.FindIDs(instance); ok {
		return find(s, c)
	}

	var zero T
	return zero, false
}

func missError(kind toc.Kind, section, component, instance uint32) error {
	return fmt.Errorf(
		"%w: %s (section %d, component %d, instance %d)",
		ErrLookupMiss, kind, section, component, instance,
	)
}

// ResolveModel finds the renderable model header
func (i *Index) ResolveModel(section, component, instance uint32) (*soi.RenderableModel, error) {
	if m, ok := resolve(i, section, component, instance, i.SOI.FindModel); ok {
		return m, nil
	}
	return nil, missError(toc.KindRenderableModel, section, component, instance)
}

// ResolveCollisionModel finds the collision model header
func (i *Index) ResolveCollisionModel(section, component, instance uint32) (*soi.CollisionModel, error) {
	if m, ok := resolve(i, section, component, instance, i.SOI.FindCollisionModel); ok {
		return m, nil
	}
	return nil, missError(toc.KindCollisionModel, section, component, instance)
}

// ResolveMotionPack finds the motion pack header
func (i *Index) ResolveMotionPack(section, component, instance uint32) (*soi.MotionPack, error) {
	if m, ok := resolve(i, section, component, instance, i.SOI.FindMotionPack); ok {
		return m, nil
	}
	return nil, missError(toc.KindMotionPack, section, component, instance)
}

// ResolveTexture finds the texture header, streaming textures take
// precedence over static ones
func (i *Index) ResolveTexture(section, component, instance uint32) (Texture, error) {
	if t, ok := resolve(i, section, component, instance, i.SOI.FindStreamingTexture); ok {
		return Texture{Streaming: t}, nil
	}
	if t, ok := resolve(i, section, component, instance, i.SOI.FindStaticTexture); ok {
		return Texture{Static: t}, nil
	}
	return Texture{}, missError(toc.KindTexture, section, component, instance)
}
