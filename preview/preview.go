// Package preview exports decoded collision geometry as binary glTF
// for inspection in common 3D viewers
package preview

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"

	"github.com/Luzifer/soi-extract/collision"
)

const gltfVersion = "2.0"

// ErrNoGeometry is returned for bodies without any triangle
var ErrNoGeometry = errors.New("no triangles to export")

// Collision writes one mesh per soultree object of the body, using
// the leaf triangles as faces. Nothing is written to w on error.
func Collision(w io.Writer, body *collision.Body) error {
	doc := &gltf.Document{}
	doc.Asset.Version = gltfVersion
	doc.Asset.Generator = "soi-extract"
	sceneIndex := uint32(0)
	doc.Scene = &sceneIndex
	doc.Scenes = append(doc.Scenes, &gltf.Scene{})
	doc.Buffers = append(doc.Buffers, &gltf.Buffer{})

	for _, g := range body.Objects {
		addObject(doc, g)
	}

	if len(doc.Meshes) == 0 {
		return ErrNoGeometry
	}

	buf := new(bytes.Buffer)
	enc := gltf.NewEncoder(buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding glTF: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing glTF: %w", err)
	}
	return nil
}

func addObject(doc *gltf.Document, g *collision.Geometry) {
	positions := g.Positions()

	var indices []uint32
	for _, l := range g.Leaves {
		if !validTriangle(l.Vertices, len(positions)) {
			continue
		}
		for _, v := range l.Vertices {
			indices = append(indices, uint32(v)) //#nosec:G115 // checked to be positive
		}
	}

	if len(indices) == 0 {
		return
	}

	buffer := doc.Buffers[0]
	data := new(bytes.Buffer)

	// errors are impossible when writing into a bytes.Buffer
	_ = binary.Write(data, binary.LittleEndian, indices)
	indexView := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: buffer.ByteLength,
		ByteLength: uint32(data.Len()), //#nosec:G115 // bounded by the leaf count
	}

	_ = binary.Write(data, binary.LittleEndian, positions)
	positionView := &gltf.BufferView{
		Buffer:     0,
		ByteOffset: indexView.ByteOffset + indexView.ByteLength,
		ByteLength: uint32(data.Len()) - indexView.ByteLength, //#nosec:G115 // bounded by the vertex count
	}

	buffer.ByteLength += uint32(data.Len()) //#nosec:G115 // bounded by the object size
	buffer.Data = append(buffer.Data, data.Bytes()...)

	bvIndex := uint32(len(doc.BufferViews)) //#nosec:G115 // small
	bvPos := bvIndex + 1
	doc.BufferViews = append(doc.BufferViews, indexView, positionView)

	accIndex := uint32(len(doc.Accessors)) //#nosec:G115 // small
	accPos := accIndex + 1
	lo, hi := bounds(positions)
	doc.Accessors = append(doc.Accessors,
		&gltf.Accessor{
			BufferView:    &bvIndex,
			ComponentType: gltf.ComponentUint,
			Type:          gltf.AccessorScalar,
			Count:         uint32(len(indices)), //#nosec:G115 // bounded by the leaf count
		},
		&gltf.Accessor{
			BufferView:    &bvPos,
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(len(positions)), //#nosec:G115 // bounded by the vertex count
			Min:           lo[:],
			Max:           hi[:],
		},
	)

	meshIndex := uint32(len(doc.Meshes)) //#nosec:G115 // small
	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Primitives: []*gltf.Primitive{{
			Indices:    &accIndex,
			Attributes: gltf.Attribute{"POSITION": accPos},
			Mode:       gltf.PrimitiveTriangles,
		}},
	})

	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes))) //#nosec:G115 // small
	doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: &meshIndex})
}

func validTriangle(v [3]int16, vertices int) bool {
	for _, i := range v {
		if i < 0 || int(i) >= vertices {
			return false
		}
	}
	return true
}

func bounds(positions []vec3.T) (lo, hi vec3.T) {
	if len(positions) == 0 {
		return lo, hi
	}

	lo, hi = positions[0], positions[0]
	for i := range positions[1:] {
		p := &positions[i+1]
		lo = vec3.Min(&lo, p)
		hi = vec3.Max(&hi, p)
	}
	return lo, hi
}
