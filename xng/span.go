package xng

// vertexStream is one optional per-vertex stream of the payload
type vertexStream struct {
	bit    uint32
	stride int
}

// vertexStreams lists the streams in payload order
var vertexStreams = []vertexStream{
	{0x01, 12},
	{0x02, 12},
	{0x08, 4},
	{0x04, 8},
	{0x40, 4},
	{0x1000, 32},
	{0x10, 8},
	{0x4000, 8},
	{0x8000, 8},
	{0x20, 12},
}

// PayloadSpan returns the number of payload bytes occupied by a mesh
// with the given vertex type: the face indices padded to four bytes and
// every present vertex stream
func PayloadSpan(vertexType uint32, numVertices, numFaceIndices int) int {
	span := numFaceIndices * 2 //nolint:mnd
	if numFaceIndices%2 == 1 {
		span += 2
	}

	for _, s := range vertexStreams {
		if vertexType&s.bit == s.bit {
			span += numVertices * s.stride
		}
	}

	return span
}

// Span returns the payload span of the mesh
func (m Mesh) Span() int {
	return PayloadSpan(m.VertexType, int(m.NumVertices), int(m.NumFaceIndices))
}
