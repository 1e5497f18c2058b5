package texture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Luzifer/soi-extract/binio"
)

type blockInfo struct {
	width, height, size int
	fourCC              string
}

var formats = map[Format]blockInfo{
	Format8888:  {1, 1, 4, ""},
	FormatDXT1:  {4, 4, 8, "DXT1"},
	FormatDXT23: {4, 4, 16, "DXT3"},
	FormatDXT45: {4, 4, 16, "DXT5"},
}

const (
	ddsMagic = "DDS "

	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPitch       = 0x8
	ddsdPixelFormat = 0x1000
	ddsdMipMapCount = 0x20000
	ddsdLinearSize  = 0x80000

	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40

	ddsCapsTexture = 0x1000

	// tiled surfaces are laid out in macro tiles of 32x32 blocks
	tileBlocks = 32
)

type (
	ddsPixelFormat struct {
		Size        uint32
		Flags       uint32
		FourCC      [4]byte
		RGBBitCount uint32
		RBitMask    uint32
		GBitMask    uint32
		BBitMask    uint32
		ABitMask    uint32
	}

	ddsHeader struct {
		Size              uint32
		Flags             uint32
		Height            uint32
		Width             uint32
		PitchOrLinearSize uint32
		Depth             uint32
		MipMapCount       uint32
		Reserved1         [11]uint32
		PixelFormat       ddsPixelFormat
		Caps              uint32
		Caps2             uint32
		Caps3             uint32
		Caps4             uint32
		Reserved2         uint32
	}
)

// DDSConverter writes the base mip level of a texture as DDS file,
// undoing the GPU tiling and byte order
type DDSConverter struct{}

var _ Converter = DDSConverter{}

// Convert implements Converter
func (DDSConverter) Convert(w io.Writer, d Descriptor, pixels []byte) error {
	if err := d.Validate(); err != nil {
		return err
	}

	info := formats[d.Format]
	data, err := untile(d, info, SwapEndian(pixels, d.Endian))
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	buf.WriteString(ddsMagic)
	if err := binary.Write(buf, binary.LittleEndian, ddsHeaderFor(d, info, len(data))); err != nil {
		return fmt.Errorf("encoding DDS header: %w", err)
	}
	buf.Write(data)

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing DDS: %w", err)
	}
	return nil
}

func ddsHeaderFor(d Descriptor, info blockInfo, dataSize int) ddsHeader {
	h := ddsHeader{
		Size:        124, //nolint:mnd
		Flags:       ddsdCaps | ddsdHeight | ddsdWidth | ddsdPixelFormat | ddsdMipMapCount,
		Height:      uint32(d.Height), //#nosec:G115 // 13 bit value
		Width:       uint32(d.Width),  //#nosec:G115 // 13 bit value
		MipMapCount: 1,
		PixelFormat: ddsPixelFormat{Size: 32}, //nolint:mnd
		Caps:        ddsCapsTexture,
	}

	if info.fourCC != "" {
		h.Flags |= ddsdLinearSize
		h.PitchOrLinearSize = uint32(dataSize) //#nosec:G115 // bounded by the texture size
		h.PixelFormat.Flags = ddpfFourCC
		copy(h.PixelFormat.FourCC[:], info.fourCC)
		return h
	}

	h.Flags |= ddsdPitch
	h.PitchOrLinearSize = uint32(d.Width * info.size) //#nosec:G115 // bounded by the texture size
	h.PixelFormat.Flags = ddpfRGB | ddpfAlphaPixels
	h.PixelFormat.RGBBitCount = 32
	h.PixelFormat.RBitMask = 0x00ff0000
	h.PixelFormat.GBitMask = 0x0000ff00
	h.PixelFormat.BBitMask = 0x000000ff
	h.PixelFormat.ABitMask = 0xff000000
	return h
}

// untile copies the blocks of the base level into linear order
func untile(d Descriptor, info blockInfo, src []byte) ([]byte, error) {
	wBlocks := (d.Width + info.width - 1) / info.width
	hBlocks := (d.Height + info.height - 1) / info.height

	pitch := max(d.Pitch/info.width, wBlocks)
	if d.Tiled {
		pitch = (pitch + tileBlocks - 1) / tileBlocks * tileBlocks
	}

	out := make([]byte, wBlocks*hBlocks*info.size)
	for y := 0; y < hBlocks; y++ {
		for x := 0; x < wBlocks; x++ {
			off := (y*pitch + x) * info.size
			if d.Tiled {
				off = TiledOffset(x, y, pitch, info.size) * info.size
			}

			if off+info.size > len(src) {
				return nil, fmt.Errorf(
					"%w: block (%d, %d) at offset %d, texture data has %d bytes",
					binio.ErrBufferExhausted, x, y, off, len(src),
				)
			}

			dst := (y*wBlocks + x) * info.size
			copy(out[dst:dst+info.size], src[off:off+info.size])
		}
	}

	return out, nil
}

// TiledOffset returns the block index of block (x, y) inside a tiled
// surface of the given pitch (in blocks) and block size (in bytes)
//
//nolint:mnd // tiling function of the GPU
func TiledOffset(x, y, pitch, blockSize int) int {
	alignedWidth := (pitch + 31) &^ 31
	logBpp := (blockSize >> 2) + ((blockSize >> 1) >> (blockSize >> 2))

	macro := ((x >> 5) + (y>>5)*(alignedWidth>>5)) << (logBpp + 7)
	micro := ((x & 7) + ((y & 6) << 2)) << logBpp
	offset := macro + ((micro &^ 15) << 1) + (micro & 15) + ((y & 8) << (3 + logBpp)) + ((y & 1) << 4)

	return (((offset &^ 511) << 3) +
		((offset & 448) << 2) +
		(offset & 63) +
		((y & 16) << 7) +
		((((y & 8) >> 2) + (x >> 3)) & 3) << 6) >> logBpp
}

// SwapEndian returns a copy of b with the GPU byte swap undone
func SwapEndian(b []byte, e Endian) []byte {
	out := bytes.Clone(b)

	switch e {
	case Endian8In16:
		for i := 0; i+1 < len(out); i += 2 {
			out[i], out[i+1] = out[i+1], out[i]
		}

	case Endian8In32:
		for i := 0; i+3 < len(out); i += 4 {
			out[i], out[i+1], out[i+2], out[i+3] = out[i+3], out[i+2], out[i+1], out[i]
		}

	case Endian16In32:
		for i := 0; i+3 < len(out); i += 4 {
			out[i], out[i+1], out[i+2], out[i+3] = out[i+2], out[i+3], out[i], out[i+1]
		}
	}

	return out
}
