package preview

import (
	"bytes"
	"errors"
	"testing"

	"github.com/flywave/go3d/vec3"
	"github.com/qmuntal/gltf"

	"github.com/Luzifer/soi-extract/binio"
	"github.com/Luzifer/soi-extract/collision"
)

func TestCollision(t *testing.T) {
	body := &collision.Body{Objects: []*collision.Geometry{
		{
			Vertices: []vec3.T{{0, 0, 0}, {2, 0, -1}, {0, 3, 1}},
			Leaves: []collision.TreeFaceLeaf{
				{Vertices: [3]int16{0, 1, 2}},
				{Vertices: [3]int16{0, 1, 7}}, // broken, skipped
			},
		},
		{Vertices: []vec3.T{{1, 1, 1}}},
	}}

	out := new(bytes.Buffer)
	if err := Collision(out, body); err != nil {
		t.Fatalf("exporting: %v", err)
	}

	if !bytes.HasPrefix(out.Bytes(), []byte("glTF")) {
		t.Fatalf("output is no binary glTF")
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(out.Bytes())).Decode(doc); err != nil {
		t.Fatalf("decoding output: %v", err)
	}

	if len(doc.Meshes) != 1 || len(doc.Nodes) != 1 {
		t.Fatalf("expected one mesh, got %d meshes / %d nodes", len(doc.Meshes), len(doc.Nodes))
	}
	if c := doc.Accessors[0].Count; c != 3 {
		t.Errorf("expected 3 indices, got %d", c)
	}

	pos := doc.Accessors[1]
	if pos.Count != 3 {
		t.Errorf("expected 3 positions, got %d", pos.Count)
	}
	if len(pos.Min) != 3 || pos.Min[2] != -1 || pos.Max[1] != 3 {
		t.Errorf("unexpected bounds %v / %v", pos.Min, pos.Max)
	}
}

func TestCollisionQuantized(t *testing.T) {
	body := &collision.Body{Objects: []*collision.Geometry{{
		Object:            &collision.Object{Quantized: 1},
		QuantizedVertices: []binio.Vec3i16{{16384, 0, 0}, {0, 16384, 0}, {0, 0, 16384}},
		Leaves:            []collision.TreeFaceLeaf{{Vertices: [3]int16{0, 1, 2}}},
	}}}

	if err := Collision(new(bytes.Buffer), body); err != nil {
		t.Errorf("exporting: %v", err)
	}
}

func TestCollisionEmpty(t *testing.T) {
	out := new(bytes.Buffer)
	if err := Collision(out, &collision.Body{Planes: []byte{1, 2, 3}}); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("expected ErrNoGeometry, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("%d bytes written without geometry", out.Len())
	}
}
