// Package collision decodes the streaming collision models of a scene
// and rebuilds them into standalone collision (GOL) files
package collision

import (
	"fmt"
	"strings"

	"github.com/flywave/go3d/vec3"

	"github.com/Luzifer/soi-extract/binio"
)

// Magic starts every collision model, streaming or not
var Magic = []byte{0x00, 0x00, 0x04, 0xD2}

// Type is the collision topology discriminant
type Type int32

// Collision topologies. Only the streaming ones are produced by the
// streaming path, each maps onto its non-streaming twin on output.
const (
	TypeSoultree Type = iota
	TypeSoultreeHeirarchy
	TypeRays
	TypeDynamicRays
	TypeRadiusedLine
	TypeSphere
	TypeBox
	TypeEcosystem
	TypeFinitePlane

	TypeStreamingSoultree
	TypeStreamingHeirarchy
	TypeStreamingFinitePlane
)

var typeNames = map[Type]string{
	TypeSoultree:             "Soultree",
	TypeSoultreeHeirarchy:    "SoultreeHeirarchy",
	TypeRays:                 "Rays",
	TypeDynamicRays:          "DynamicRays",
	TypeRadiusedLine:         "RadiusedLine",
	TypeSphere:               "Sphere",
	TypeBox:                  "Box",
	TypeEcosystem:            "Ecosystem",
	TypeFinitePlane:          "FinitePlane",
	TypeStreamingSoultree:    "StreamingSoultree",
	TypeStreamingHeirarchy:   "StreamingHeirarchy",
	TypeStreamingFinitePlane: "StreamingFinitePlane",
}

func (t Type) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", int32(t))
}

// Output returns the discriminant written for a streaming type and
// fails for everything the streaming path cannot produce
func (t Type) Output() (Type, error) {
	switch t {
	case TypeStreamingSoultree:
		return TypeSoultree, nil
	case TypeStreamingHeirarchy:
		return TypeSoultreeHeirarchy, nil
	case TypeStreamingFinitePlane:
		return TypeFinitePlane, nil
	default:
		return t, fmt.Errorf("%w: collision type %s", binio.ErrFormat, t)
	}
}

// Layout selects the payload layout of the producer which wrote the
// streaming data. There is no default, both exist in the wild.
type Layout int

const (
	// LayoutUnset is the zero value and rejected by the encoder
	LayoutUnset Layout = iota
	// LayoutPacked stores 3 component vectors, 36 byte tree faces and
	// 20 byte leaves with a quantized normal and no plane constant
	LayoutPacked
	// LayoutAligned stores 4 component vectors, 64 byte tree faces,
	// 32 byte leaves with plane constant and pads odd vertex counts
	LayoutAligned
)

// ParseLayout parses the name of a layout
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "packed":
		return LayoutPacked, nil
	case "aligned", "ror":
		return LayoutAligned, nil
	default:
		return LayoutUnset, fmt.Errorf("unknown collision layout %q (use packed or aligned)", s)
	}
}

func (l Layout) String() string {
	switch l {
	case LayoutPacked:
		return "packed"
	case LayoutAligned:
		return "aligned"
	default:
		return "unset"
	}
}

type (
	// TreeFace is the canonical (output) tree face record
	TreeFace struct {
		Volume      float32
		Vectors     [2]vec3.T
		TypeIndices [2]int16
	}

	// TreeFaceLeaf is the canonical (output) leaf triangle carrying
	// its plane as distance constant and unit normal
	TreeFaceLeaf struct {
		DValue   float32
		Normal   vec3.T
		Vertices [3]int16
	}

	// Object is the header of a soultree. The vertex, normal, face and
	// leaf arrays are not part of it, they live in the payload and are
	// only reachable through the counts.
	Object struct {
		TempCMT              int32
		OBB                  [12]float32
		ReverseCollisionMode int32
		VertexCount          uint32
		TreeFaceCount        uint32
		TreeFaceLeafCount    uint32
		Quantized            int32
		LoadNormals          int32
		TopTreeFace          TreeFace
	}

	// HierarchyEntry is one object of a soultree hierarchy
	HierarchyEntry struct {
		ObjectID int32
		Object   Object
	}

	// Model is a collision model header as stored in the scene index
	Model struct {
		TypeTag [4]byte
		Version int32
		Type    Type

		// TypeStreamingSoultree
		Object Object

		// TypeStreamingHeirarchy
		ReverseCollisionMode int32
		Objects              []HierarchyEntry

		// TypeStreamingFinitePlane
		PlaneCount int32
		Half       vec3.T
	}
)

// SoultreeObjects returns the soultree objects of the model in payload order
func (m *Model) SoultreeObjects() []*Object {
	switch m.Type {
	case TypeStreamingSoultree:
		return []*Object{&m.Object}
	case TypeStreamingHeirarchy:
		out := make([]*Object, len(m.Objects))
		for i := range m.Objects {
			out[i] = &m.Objects[i].Object
		}
		return out
	default:
		return nil
	}
}
