// Package xng decodes the streaming renderable model header of a scene
// and rebuilds standalone XNG mesh files from it and the payload
package xng

import (
	"fmt"

	"github.com/Luzifer/soi-extract/binio"
)

// The streaming header and the standalone file carry different tags
var (
	StreamingMagic = []byte("xgs\x00")
	FileMagic      = []byte("xng\x00")
)

// Vertex type bits
const (
	VertexDelta       uint32 = 0x100
	VertexCompression uint32 = 0x2000
)

const (
	boneSize     = 224
	meshNameSize = 64
	// smallest possible mesh record: two u32, six u8, two u16
	minMeshSize = 18
)

type (
	// Bone is one skeleton bone
	Bone struct {
		Name   [128]byte
		Matrix [16]float32
		Center [3]float32
		Half   [3]float32
		Radius float32
		Parent uint32
	}

	// DeltaBlock holds the morph data of a mesh
	DeltaBlock struct {
		NumChannels    uint32
		ControllerName [64]byte
		XYZBits        uint32
		ForceUnique    uint8
		Unknown        uint32
		Unknown2       uint32

		DeltaPositions []binio.Vec4
		DeltaNormals   []binio.Vec4
		DeltaIndices   []int32
		Positions      []binio.Vec4
		Normals        []binio.Vec4
	}

	// Mesh is the header of one mesh, its vertex and index streams are
	// part of the payload
	Mesh struct {
		SurfaceIndex uint32
		VertexType   uint32
		Compression  *[8]float32

		Compressed uint8
		Streaming  uint8
		Unknown    [3]uint8

		TextureCoordinateSets []float32

		NumVertices    uint16
		NumFaceIndices uint16

		Delta *DeltaBlock
	}

	// LOD is one level of detail
	LOD struct {
		AutoLODValue float32
		Meshes       []Mesh
	}

	// Model is a renderable model header
	Model struct {
		Version      int32
		Bones        []Bone
		MeshNames    [][meshNameSize]byte
		SkinAnimates uint8
		HasWeight    uint8
		Unused       uint8
		LODs         []LOD
	}
)

// DisplayName returns the bone name
func (b Bone) DisplayName() string { return binio.String(b.Name[:]) }

// Names returns the decoded mesh names
func (m *Model) Names() []string {
	out := make([]string, len(m.MeshNames))
	for i := range m.MeshNames {
		out[i] = binio.String(m.MeshNames[i][:])
	}
	return out
}

// Decode reads a renderable model header from the scene index stream
func Decode(c *binio.Cursor) (*Model, error) {
	m := &Model{}

	c.Expect(StreamingMagic)
	m.Version = c.I32()

	numBones := int(c.U32())
	if c.Need(numBones, boneSize) {
		m.Bones = make([]Bone, numBones)
		c.Read(m.Bones)
	}

	numNames := c.Count("mesh name count")
	if c.Need(numNames, meshNameSize) {
		m.MeshNames = make([][meshNameSize]byte, numNames)
		c.Read(m.MeshNames)
	}

	numLODs := int(c.U8())
	m.SkinAnimates = c.U8()
	m.HasWeight = c.U8()
	m.Unused = c.U8()

	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("reading model header: %w", err)
	}

	m.LODs = make([]LOD, numLODs)
	for i := range m.LODs {
		if err := decodeLOD(c, &m.LODs[i]); err != nil {
			return nil, fmt.Errorf("reading LOD %d: %w", i, err)
		}
	}

	return m, nil
}

func decodeLOD(c *binio.Cursor, l *LOD) error {
	l.AutoLODValue = c.F32()

	n := int(c.U32())
	if !c.Need(n, minMeshSize) {
		return c.Err()
	}

	l.Meshes = make([]Mesh, n)
	for i := range l.Meshes {
		decodeMesh(c, &l.Meshes[i])
		if err := c.Err(); err != nil {
			return fmt.Errorf("reading mesh %d: %w", i, err)
		}
	}

	return nil
}

func decodeMesh(c *binio.Cursor, m *Mesh) {
	m.SurfaceIndex = c.U32()
	m.VertexType = c.U32()

	if m.VertexType&VertexCompression != 0 {
		m.Compression = new([8]float32)
		c.Read(m.Compression)
	}

	numSets := int(c.U8())
	m.Compressed = c.U8()
	m.Streaming = c.U8()
	c.Read(&m.Unknown)

	if c.Need(numSets, 4) { //nolint:mnd
		m.TextureCoordinateSets = make([]float32, numSets)
		c.Read(m.TextureCoordinateSets)
	}

	m.NumVertices = c.U16()
	m.NumFaceIndices = c.U16()

	if m.VertexType&VertexDelta != 0 {
		m.Delta = decodeDelta(c)
	}
}

func decodeDelta(c *binio.Cursor) *DeltaBlock {
	d := &DeltaBlock{}

	d.NumChannels = c.U32()
	c.Read(&d.ControllerName)
	numVertices := int(c.U32())
	d.XYZBits = c.U32()
	d.ForceUnique = c.U8()
	d.Unknown = c.U32()
	d.Unknown2 = c.U32()
	deltaCount := int(c.U32())

	if c.Need(deltaCount, 16+16+4) { //nolint:mnd
		d.DeltaPositions = make([]binio.Vec4, deltaCount)
		d.DeltaNormals = make([]binio.Vec4, deltaCount)
		d.DeltaIndices = make([]int32, deltaCount)
		c.Read(d.DeltaPositions)
		c.Read(d.DeltaNormals)
		c.Read(d.DeltaIndices)
	}

	if c.Need(numVertices, 16+16) { //nolint:mnd
		d.Positions = make([]binio.Vec4, numVertices)
		d.Normals = make([]binio.Vec4, numVertices)
		c.Read(d.Positions)
		c.Read(d.Normals)
	}

	return d
}
