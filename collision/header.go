package collision

import (
	"fmt"

	"github.com/Luzifer/soi-extract/binio"
)

// Decode reads a collision model header from the scene index stream
func Decode(c *binio.Cursor) (*Model, error) {
	m := &Model{}

	c.Expect(Magic)
	c.Read(&m.TypeTag)
	m.Version = c.I32()
	m.Type = Type(c.I32())
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("reading collision header: %w", err)
	}

	switch m.Type {
	case TypeStreamingSoultree:
		c.Read(&m.Object)
		if err := validateObject(&m.Object); err != nil {
			return nil, err
		}

	case TypeStreamingHeirarchy:
		n := c.Count("object count")
		m.ReverseCollisionMode = c.I32()
		if !c.Need(n, objectHeaderSize+4) {
			break
		}
		m.Objects = make([]HierarchyEntry, n)
		for i := range m.Objects {
			c.Read(&m.Objects[i])
			if err := validateObject(&m.Objects[i].Object); err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
		}

	case TypeStreamingFinitePlane:
		m.PlaneCount = c.I32()
		c.Read(&m.Half)

	default:
		return nil, fmt.Errorf("%w: collision type %s is not streamed", binio.ErrFormat, m.Type)
	}

	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", m.Type, err)
	}
	return m, nil
}

const objectHeaderSize = 108

func validateObject(o *Object) error {
	if o.Quantized != 0 && o.Quantized != 1 {
		return fmt.Errorf("%w: quantized flag %d", binio.ErrFormat, o.Quantized)
	}
	if o.LoadNormals != 0 && o.LoadNormals != 1 {
		return fmt.Errorf("%w: load normals flag %d", binio.ErrFormat, o.LoadNormals)
	}
	return nil
}
