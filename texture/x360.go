package texture

import (
	"fmt"

	"github.com/Luzifer/soi-extract/binio"
)

const x360HeaderSize = 52

type (
	// X360Decoder decodes the Xbox 360 D3DBaseTexture header
	X360Decoder struct{}

	// X360Header is the Xbox 360 D3DBaseTexture: the resource header
	// followed by the GPU texture fetch constant
	X360Header struct {
		Common         uint32
		ReferenceCount uint32
		Fence          uint32
		ReadFence      uint32
		Identifier     uint32
		BaseFlush      uint32
		MipFlush       uint32
		Fetch          [6]uint32
	}
)

var _ HeaderDecoder = X360Decoder{}

// Size implements HeaderDecoder
func (X360Decoder) Size() int { return x360HeaderSize }

// Decode implements HeaderDecoder
func (X360Decoder) Decode(c *binio.Cursor) (Header, error) {
	h := &X360Header{}
	c.Read(h)
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("reading texture header: %w", err)
	}
	return h, nil
}

func bits(v uint32, offset, width uint) uint32 {
	return (v >> offset) & (1<<width - 1)
}

// Descriptor decodes the fetch constant
//
//nolint:mnd // bit layout of the fetch constant
func (h *X360Header) Descriptor() Descriptor {
	f := h.Fetch

	return Descriptor{
		Pitch: int(bits(f[0], 22, 9)) << 5,
		Tiled: bits(f[0], 31, 1) == 1,

		Format:      Format(bits(f[1], 0, 6)),
		Endian:      Endian(bits(f[1], 6, 2)),
		BaseAddress: bits(f[1], 12, 20) << 12,

		Width:  int(bits(f[2], 0, 13)) + 1,
		Height: int(bits(f[2], 13, 13)) + 1,

		MinMipLevel: int(bits(f[4], 2, 4)),
		MaxMipLevel: int(bits(f[4], 6, 4)),

		Dimension:  Dimension(bits(f[5], 9, 2)),
		PackedMips: bits(f[5], 11, 1) == 1,
		MipAddress: bits(f[5], 12, 20) << 12,
	}
}
