package collision

import (
	"fmt"

	"github.com/flywave/go3d/vec3"

	"github.com/Luzifer/soi-extract/binio"
)

type (
	// Geometry is the payload of one soultree object re-attached to
	// its header. Exactly one of the float / quantized slices is set
	// for vertices and (if loaded) normals.
	Geometry struct {
		Object *Object

		Vertices          []vec3.T
		QuantizedVertices []binio.Vec3i16

		Normals          []vec3.T
		QuantizedNormals []binio.Vec3i16

		TreeFaces []TreeFace
		Leaves    []TreeFaceLeaf
	}

	// Body is the decoded payload of a whole model
	Body struct {
		Objects []*Geometry
		// Planes holds the untouched payload of a finite plane model
		Planes []byte
	}

	packedTreeFace struct {
		Volume      float32
		Radius      float32
		TypeIndices [2]int16
		Vectors     [2]vec3.T
	}

	alignedTreeFace struct {
		Vectors     [2]binio.Vec4
		TypeIndices [2]int16
		Volume      float32
		Radius      float32
		_           [20]byte
	}

	packedLeaf struct {
		Vertices    [3]int16
		Unknown     float32
		Unknown2    uint16
		Normal      binio.Vec3i16
		UnknownBits uint16
	}

	alignedLeaf struct {
		Normal   binio.Vec4
		DValue   float32
		Vertices [3]int16
		_        [6]byte
	}
)

// Record sizes in the streaming payload
const (
	packedTreeFaceSize  = 36
	alignedTreeFaceSize = 64
	packedLeafSize      = 20
	alignedLeafSize     = 32

	alignedPadding = 16
)

// Positions returns the vertex positions in unit scale
func (g *Geometry) Positions() []vec3.T {
	if g.QuantizedVertices != nil {
		return binio.DequantizeAll(g.QuantizedVertices)
	}
	return g.Vertices
}

// DecodePayload walks the streaming payload of the model and attaches
// the arrays to the object headers. The whole payload must be used.
func (m *Model) DecodePayload(payload []byte, layout Layout) (*Body, error) {
	if _, err := m.Type.Output(); err != nil {
		return nil, err
	}
	if layout != LayoutPacked && layout != LayoutAligned {
		return nil, fmt.Errorf("collision layout %s: %w", layout, binio.ErrFormat)
	}

	c := binio.NewCursor(payload)
	body := &Body{}

	if m.Type == TypeStreamingFinitePlane {
		body.Planes = c.Rest()
		return body, nil
	}

	for i, obj := range m.SoultreeObjects() {
		g, err := decodeObject(c, obj, layout)
		if err != nil {
			return nil, fmt.Errorf("decoding object %d: %w", i, err)
		}
		body.Objects = append(body.Objects, g)
	}

	if c.Remaining() != 0 {
		return nil, fmt.Errorf(
			"%w: walked %d of %d payload bytes",
			binio.ErrBufferExhausted, c.Pos(), c.Len(),
		)
	}

	return body, nil
}

func decodeObject(c *binio.Cursor, obj *Object, layout Layout) (*Geometry, error) {
	if err := validateObject(obj); err != nil {
		return nil, err
	}

	g := &Geometry{Object: obj}

	g.Vertices, g.QuantizedVertices = readVectors(c, int(obj.VertexCount), obj.Quantized == 1, layout)
	if obj.LoadNormals == 1 {
		g.Normals, g.QuantizedNormals = readVectors(c, int(obj.VertexCount), obj.Quantized == 1, layout)
	}
	skipPadding(c, obj, layout)
	g.TreeFaces = readTreeFaces(c, int(obj.TreeFaceCount), layout)
	g.Leaves = readLeaves(c, int(obj.TreeFaceLeafCount), layout, g.Positions())

	return g, c.Err()
}

// readVectors reads count vertices or normals. The aligned layout
// stores a fourth component which is dropped.
func readVectors(c *binio.Cursor, count int, quantized bool, layout Layout) ([]vec3.T, []binio.Vec3i16) {
	switch {
	case quantized && layout == LayoutAligned:
		raw := make([]binio.Vec4i16, 0)
		if c.Need(count, 8) { //nolint:mnd
			raw = make([]binio.Vec4i16, count)
			c.Read(raw)
		}
		out := make([]binio.Vec3i16, len(raw))
		for i := range raw {
			out[i] = raw[i].XYZ()
		}
		return nil, out

	case quantized:
		out := make([]binio.Vec3i16, 0)
		if c.Need(count, 6) { //nolint:mnd
			out = make([]binio.Vec3i16, count)
			c.Read(out)
		}
		return nil, out

	case layout == LayoutAligned:
		raw := make([]binio.Vec4, 0)
		if c.Need(count, 16) { //nolint:mnd
			raw = make([]binio.Vec4, count)
			c.Read(raw)
		}
		out := make([]vec3.T, len(raw))
		for i := range raw {
			out[i] = raw[i].XYZ()
		}
		return out, nil

	default:
		out := make([]vec3.T, 0)
		if c.Need(count, 12) { //nolint:mnd
			out = make([]vec3.T, count)
			c.Read(out)
		}
		return out, nil
	}
}

// skipPadding consumes the alignment block the aligned layout inserts
// after the vertex data of objects with an odd vertex count
func skipPadding(c *binio.Cursor, obj *Object, layout Layout) {
	if layout == LayoutAligned && obj.VertexCount%2 == 1 {
		c.Skip(alignedPadding)
	}
}

func readTreeFaces(c *binio.Cursor, count int, layout Layout) []TreeFace {
	out := make([]TreeFace, 0)

	switch layout {
	case LayoutAligned:
		if !c.Need(count, alignedTreeFaceSize) {
			return out
		}
		raw := make([]alignedTreeFace, count)
		c.Read(raw)
		for _, f := range raw {
			out = append(out, TreeFace{
				Volume:      f.Volume,
				Vectors:     [2]vec3.T{f.Vectors[0].XYZ(), f.Vectors[1].XYZ()},
				TypeIndices: f.TypeIndices,
			})
		}

	default:
		if !c.Need(count, packedTreeFaceSize) {
			return out
		}
		raw := make([]packedTreeFace, count)
		c.Read(raw)
		for _, f := range raw {
			out = append(out, TreeFace{
				Volume:      f.Volume,
				Vectors:     f.Vectors,
				TypeIndices: f.TypeIndices,
			})
		}
	}

	return out
}

// readLeaves reads count leaf triangles. The packed layout carries no
// plane constant, it is derived from the first vertex of the triangle.
func readLeaves(c *binio.Cursor, count int, layout Layout, positions []vec3.T) []TreeFaceLeaf {
	out := make([]TreeFaceLeaf, 0)

	switch layout {
	case LayoutAligned:
		if !c.Need(count, alignedLeafSize) {
			return out
		}
		raw := make([]alignedLeaf, count)
		c.Read(raw)
		for _, l := range raw {
			out = append(out, TreeFaceLeaf{
				DValue:   l.DValue,
				Normal:   l.Normal.XYZ(),
				Vertices: l.Vertices,
			})
		}

	default:
		if !c.Need(count, packedLeafSize) {
			return out
		}
		raw := make([]packedLeaf, count)
		c.Read(raw)
		for i, l := range raw {
			v := int(l.Vertices[0])
			if v < 0 || v >= len(positions) {
				c.Fail(fmt.Errorf("%w: leaf %d references vertex %d of %d", binio.ErrFormat, i, v, len(positions)))
				return out
			}

			normal := l.Normal.Dequantize()
			out = append(out, TreeFaceLeaf{
				DValue:   PlaneConstant(positions[v], normal),
				Normal:   normal,
				Vertices: l.Vertices,
			})
		}
	}

	return out
}

// PlaneConstant returns the distance term of the plane through vertex
// with the given normal
func PlaneConstant(vertex, normal vec3.T) float32 {
	return -vec3.Dot(&vertex, &normal)
}
