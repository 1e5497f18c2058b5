package collision

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Luzifer/soi-extract/binio"
)

// Rebuild decodes the streaming payload of the model and writes the
// standalone collision file to w. Nothing is written on error.
func Rebuild(w io.Writer, m *Model, payload []byte, layout Layout) error {
	if _, err := m.Type.Output(); err != nil {
		return err
	}

	body, err := m.DecodePayload(payload, layout)
	if err != nil {
		return err
	}

	return m.Encode(w, body)
}

// Encode writes the model with the given body as standalone collision
// file. Nothing is written to w on error.
func (m *Model) Encode(w io.Writer, body *Body) error {
	out, err := m.Type.Output()
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	bw := binio.NewWriter(buf)

	bw.Raw(Magic)
	bw.Write(m.TypeTag, m.Version, out)

	switch m.Type {
	case TypeStreamingSoultree:
		if len(body.Objects) != 1 {
			return fmt.Errorf("%w: soultree needs one object, got %d", binio.ErrFormat, len(body.Objects))
		}
		writeObject(bw, body.Objects[0])

	case TypeStreamingHeirarchy:
		if len(body.Objects) != len(m.Objects) {
			return fmt.Errorf("%w: hierarchy has %d objects, body %d", binio.ErrFormat, len(m.Objects), len(body.Objects))
		}
		bw.Write(int32(len(m.Objects)), m.ReverseCollisionMode) //#nosec:G115 // bounded by the decoded count
		for _, g := range body.Objects {
			writeObject(bw, g)
		}

	case TypeStreamingFinitePlane:
		bw.Write(m.PlaneCount, m.Half)
		bw.Raw(body.Planes)
	}

	if err := bw.Err(); err != nil {
		return fmt.Errorf("encoding %s: %w", m.Type, err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing collision model: %w", err)
	}
	return nil
}

func writeObject(bw *binio.Writer, g *Geometry) {
	o := g.Object

	bw.Write(
		o.TempCMT,
		o.OBB,
		o.ReverseCollisionMode,
		o.VertexCount,
		o.TreeFaceCount,
		o.TreeFaceLeafCount,
		o.Quantized,
	)

	if o.Quantized == 1 {
		bw.Write(g.QuantizedVertices)
	} else {
		bw.Write(g.Vertices)
	}

	bw.Write(o.LoadNormals)
	if o.LoadNormals == 1 {
		if o.Quantized == 1 {
			bw.Write(g.QuantizedNormals)
		} else {
			bw.Write(g.Normals)
		}
	}

	bw.Write(g.TreeFaces, g.Leaves)
}
