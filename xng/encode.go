package xng

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Luzifer/soi-extract/binio"
)

// Validate checks every mesh of the model is a streaming mesh
func (m *Model) Validate() error {
	for li, l := range m.LODs {
		for mi, mesh := range l.Meshes {
			if mesh.Streaming != 1 {
				return fmt.Errorf("%w: LOD %d mesh %d has streaming flag %d", binio.ErrFormat, li, mi, mesh.Streaming)
			}
		}
	}
	return nil
}

// Encode writes the standalone XNG file built from the header and the
// component payload. Nothing is written to w on error.
func (m *Model) Encode(w io.Writer, payload []byte) error {
	if err := m.Validate(); err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	bw := binio.NewWriter(buf)

	bw.Raw(FileMagic)
	bw.Write(m.Version, uint32(len(m.Bones)), m.Bones) //#nosec:G115 // decoded from u32
	bw.Write(int32(len(m.MeshNames)), m.MeshNames)     //#nosec:G115 // decoded from i32
	bw.Write(uint8(len(m.LODs)), m.SkinAnimates, m.HasWeight, m.Unused)

	data := binio.NewCursor(payload)

	for li, l := range m.LODs {
		bw.Write(l.AutoLODValue, uint32(len(l.Meshes))) //#nosec:G115 // decoded from u32
		for mi := range l.Meshes {
			mesh := &l.Meshes[mi]
			writeMesh(bw, mesh)

			bw.Raw(data.Take(mesh.Span()))
			if err := data.Err(); err != nil {
				return fmt.Errorf("LOD %d mesh %d payload: %w", li, mi, err)
			}

			if mesh.Delta != nil {
				writeDelta(bw, mesh.Delta)
			}
		}
	}

	if err := bw.Err(); err != nil {
		return fmt.Errorf("encoding model: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	return nil
}

func writeMesh(bw *binio.Writer, mesh *Mesh) {
	bw.Write(mesh.SurfaceIndex, mesh.VertexType)
	if mesh.Compression != nil {
		bw.Write(mesh.Compression)
	}

	// standalone meshes are not streamed
	bw.Write(
		uint8(len(mesh.TextureCoordinateSets)), //#nosec:G115 // decoded from u8
		mesh.Compressed,
		uint8(0),
		mesh.Unknown,
		mesh.TextureCoordinateSets,
		mesh.NumVertices,
		mesh.NumFaceIndices,
	)
}

func writeDelta(bw *binio.Writer, d *DeltaBlock) {
	bw.Write(
		d.NumChannels,
		d.ControllerName,
		uint32(len(d.Positions)), //#nosec:G115 // decoded from u32
		d.XYZBits,
		d.ForceUnique,
		d.Unknown,
		d.Unknown2,
		uint32(len(d.DeltaPositions)), //#nosec:G115 // decoded from u32
		d.DeltaPositions,
		d.DeltaNormals,
		d.DeltaIndices,
		d.Positions,
		d.Normals,
	)
}
