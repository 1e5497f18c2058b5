package scene

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/Luzifer/soi-extract/binio"
	"github.com/Luzifer/soi-extract/collision"
	"github.com/Luzifer/soi-extract/soi"
	"github.com/Luzifer/soi-extract/texture"
	"github.com/Luzifer/soi-extract/toc"
	"github.com/Luzifer/soi-extract/xng"
)

func mustWrite(t *testing.T, buf *bytes.Buffer, vs ...any) {
	t.Helper()
	for _, v := range vs {
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			t.Fatalf("writing %T: %v", v, err)
		}
	}
}

func modelInfo(name string, section, component, params int32) soi.ModelInfo {
	mi := soi.ModelInfo{
		Position:       binio.Vec4{1, 2.5, -3, 1},
		LookVector:     binio.Vec4{0, 0, 1, 0},
		UpVector:       binio.Vec4{0, 1, 0, 0},
		SectionID:      section,
		ComponentID:    component,
		ParameterCount: params,
	}
	copy(mi.RawName[:], binio.FixedString(name, 260))
	return mi
}

// testIndex holds headers for model (0, 5), collision model (0, 6),
// streaming texture (0, 7) and static texture (0, 8). The TOC maps the
// instances 77, 78, 79 and 80 to them and lists each instance a second
// time in section 1 under ids the SOI does not know.
func testIndex(t *testing.T) *Index {
	t.Helper()

	buf := new(bytes.Buffer)
	mustWrite(t, buf, soi.Header{StreamingTextures: 1, StaticTextures: 1, RenderableModels: 1, CollisionModels: 1})

	mustWrite(t, buf, modelInfo("tex/stream", 0, 7, 0), uint32(0), texture.X360Header{})
	mustWrite(t, buf, modelInfo("tex/static", 0, 8, 0), uint32(0))

	var p soi.Parameter
	copy(p.RawName[:], "Shadow")
	copy(p.RawValue[:], "on")
	mustWrite(t, buf, modelInfo("models/car", 0, 5, 1), p)
	mustWrite(t, buf, xng.StreamingMagic, int32(1), uint32(0), int32(0), [4]uint8{})

	mustWrite(t, buf, modelInfo("col/car", 0, 6, 0))
	mustWrite(t, buf, collision.Magic, [4]byte{}, int32(1), collision.TypeStreamingFinitePlane, int32(1), [3]float32{})

	s, err := soi.Parse(buf.Bytes(), soi.Options{})
	if err != nil {
		t.Fatalf("parsing SOI: %v", err)
	}

	tc := toc.New([]*toc.Section{
		{ID: 0, Uncached: []toc.Component{
			{Section: 0, ID: 5, InstanceID: 77, Kind: toc.KindRenderableModel, Path: "models/car"},
			{Section: 0, ID: 6, InstanceID: 78, Kind: toc.KindCollisionModel, Path: "col/car"},
		}, Cached: []toc.Component{
			{Section: 0, ID: 7, InstanceID: 79, Kind: toc.KindTexture, Path: "tex/stream"},
			{Section: 0, ID: 8, InstanceID: 80, Kind: toc.KindTexture, Path: "tex/static"},
		}},
		{ID: 1, Uncached: []toc.Component{
			{Section: 1, ID: 0, InstanceID: 77, Kind: toc.KindRenderableModel, Path: "models/car"},
			{Section: 1, ID: 1, InstanceID: 78, Kind: toc.KindCollisionModel, Path: "col/car"},
			{Section: 1, ID: 2, InstanceID: 79, Kind: toc.KindTexture, Path: "tex/stream"},
			{Section: 1, ID: 3, InstanceID: 80, Kind: toc.KindTexture, Path: "tex/static"},
			{Section: 1, ID: 4, InstanceID: 81, Kind: toc.KindMotionPack, Path: "anim/none"},
		}},
	})

	return New(tc, s)
}

func TestResolveFallback(t *testing.T) {
	idx := testIndex(t)

	direct, err := idx.ResolveModel(0, 5, 77)
	if err != nil {
		t.Fatalf("direct lookup: %v", err)
	}
	fallback, err := idx.ResolveModel(1, 0, 77)
	if err != nil {
		t.Fatalf("fallback lookup: %v", err)
	}
	if direct != fallback {
		t.Error("fallback resolved to a different header")
	}

	col, err := idx.ResolveCollisionModel(1, 1, 78)
	if err != nil || col.Info.Name() != "col/car" {
		t.Errorf("unexpected collision lookup %v, %v", col, err)
	}
}

func TestResolveMiss(t *testing.T) {
	idx := testIndex(t)

	for name, fn := range map[string]func() error{
		"unknown instance": func() error { _, err := idx.ResolveModel(1, 9, 99); return err },
		"wrong kind":       func() error { _, err := idx.ResolveModel(1, 1, 78); return err },
		"motion pack":      func() error { _, err := idx.ResolveMotionPack(1, 4, 81); return err },
		"texture":          func() error { _, err := idx.ResolveTexture(1, 0, 77); return err },
	} {
		t.Run(name, func(t *testing.T) {
			if err := fn(); !errors.Is(err, ErrLookupMiss) {
				t.Errorf("expected ErrLookupMiss, got %v", err)
			}
		})
	}
}

func TestResolveTexture(t *testing.T) {
	idx := testIndex(t)

	tex, err := idx.ResolveTexture(1, 2, 79)
	if err != nil || tex.Streaming == nil || tex.Static != nil {
		t.Errorf("expected streaming texture, got %+v, %v", tex, err)
	}

	tex, err = idx.ResolveTexture(1, 3, 80)
	if err != nil || tex.Static == nil || tex.Streaming != nil {
		t.Errorf("expected static texture, got %+v, %v", tex, err)
	}
}

func TestDump(t *testing.T) {
	idx := testIndex(t)

	buf := new(bytes.Buffer)
	if err := idx.Dump(buf); err != nil {
		t.Fatalf("dumping scene: %v", err)
	}

	entry := "SLT=models/car\nPosition=1 2.5 -3 1\nLookVector=0 0 1 0\nUpVector=0 1 0 0\nShadow=on\n\n" +
		"COL=col/car.col\nPosition=1 2.5 -3 1\nLookVector=0 0 1 0\nUpVector=0 1 0 0\n\n"
	if expect := entry + entry; buf.String() != expect {
		t.Errorf("unexpected dump\n%s", buf.String())
	}
}

func TestDumpMiss(t *testing.T) {
	idx := testIndex(t)
	idx.TOC.Sections[0].Uncached = append([]toc.Component{
		{Section: 0, ID: 9, InstanceID: 999, Kind: toc.KindCollisionModel, Path: "col/lost"},
	}, idx.TOC.Sections[0].Uncached...)
	idx.TOC.Sections[1].Uncached = append(idx.TOC.Sections[1].Uncached,
		toc.Component{Section: 1, ID: 9, InstanceID: 998, Kind: toc.KindRenderableModel, Path: "models/lost"})

	buf := new(bytes.Buffer)
	err := idx.Dump(buf)
	if !errors.Is(err, ErrLookupMiss) {
		t.Fatalf("expected ErrLookupMiss, got %v", err)
	}
	for _, path := range []string{"col/lost", "models/lost"} {
		if !strings.Contains(err.Error(), path) {
			t.Errorf("error does not name %q: %v", path, err)
		}
	}

	entry := "SLT=models/car\nPosition=1 2.5 -3 1\nLookVector=0 0 1 0\nUpVector=0 1 0 0\nShadow=on\n\n" +
		"COL=col/car.col\nPosition=1 2.5 -3 1\nLookVector=0 0 1 0\nUpVector=0 1 0 0\n\n"
	if expect := entry + entry; buf.String() != expect {
		t.Errorf("resolvable entries were not written\n%s", buf.String())
	}
}
