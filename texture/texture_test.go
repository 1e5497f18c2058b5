package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Luzifer/soi-extract/binio"
)

func TestX360Descriptor(t *testing.T) {
	h := &X360Header{}
	h.Fetch[0] = 1<<31 | 4<<22              // tiled, pitch 4*32
	h.Fetch[1] = 0x12345<<12 | 1<<6 | 18    // base, 8in16, DXT1
	h.Fetch[2] = (256-1)<<13 | (128 - 1)    // 128x256
	h.Fetch[4] = 5<<6 | 1<<2                // mips 1..5
	h.Fetch[5] = 0xABCDE<<12 | 1<<11 | 1<<9 // mip address, packed, 2D

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, h); err != nil {
		t.Fatalf("writing header: %v", err)
	}
	if buf.Len() != (X360Decoder{}).Size() {
		t.Fatalf("header has %d bytes, decoder expects %d", buf.Len(), (X360Decoder{}).Size())
	}

	decoded, err := (X360Decoder{}).Decode(binio.NewCursor(buf.Bytes()))
	if err != nil {
		t.Fatalf("decoding: %v", err)
	}

	expect := Descriptor{
		Format:      FormatDXT1,
		Dimension:   Dimension2D,
		Width:       128,
		Height:      256,
		Pitch:       128,
		Tiled:       true,
		PackedMips:  true,
		Endian:      Endian8In16,
		BaseAddress: 0x12345000,
		MipAddress:  0xABCDE000,
		MinMipLevel: 1,
		MaxMipLevel: 5,
	}
	if d := decoded.Descriptor(); d != expect {
		t.Errorf("unexpected descriptor\n got %+v\nwant %+v", d, expect)
	}
	if err := expect.Validate(); err != nil {
		t.Errorf("validating: %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Descriptor{Format: Format8888, Dimension: Dimension2D, Width: 1, Height: 1}

	for name, mod := range map[string]func(*Descriptor){
		"cube":           func(d *Descriptor) { d.Dimension = DimensionCube },
		"3d":             func(d *Descriptor) { d.Dimension = Dimension3D },
		"unknown format": func(d *Descriptor) { d.Format = 2 },
		"zero width":     func(d *Descriptor) { d.Width = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			d := valid
			mod(&d)
			if err := d.Validate(); !errors.Is(err, binio.ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}

func TestSwapEndian(t *testing.T) {
	in := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	for e, expect := range map[Endian][]byte{
		EndianNone:   {1, 2, 3, 4, 5, 6, 7, 8},
		Endian8In16:  {2, 1, 4, 3, 6, 5, 8, 7},
		Endian8In32:  {4, 3, 2, 1, 8, 7, 6, 5},
		Endian16In32: {3, 4, 1, 2, 7, 8, 5, 6},
	} {
		if out := SwapEndian(in, e); !bytes.Equal(out, expect) {
			t.Errorf("endian %d: expected %v, got %v", e, expect, out)
		}
	}

	if in[0] != 1 {
		t.Error("input was modified")
	}
}

func TestTiledOffsetPermutation(t *testing.T) {
	for _, size := range []int{4, 8, 16} {
		seen := make(map[int]bool)
		for y := 0; y < tileBlocks; y++ {
			for x := 0; x < tileBlocks; x++ {
				off := TiledOffset(x, y, tileBlocks, size)
				if off < 0 || off >= tileBlocks*tileBlocks {
					t.Fatalf("block size %d: offset %d of (%d, %d) outside macro tile", size, off, x, y)
				}
				if seen[off] {
					t.Fatalf("block size %d: offset %d used twice", size, off)
				}
				seen[off] = true
			}
		}
	}

	if off := TiledOffset(0, 0, 64, 8); off != 0 {
		t.Errorf("expected origin at 0, got %d", off)
	}
}

func TestConvertLinear(t *testing.T) {
	d := Descriptor{Format: Format8888, Dimension: Dimension2D, Width: 2, Height: 2, Pitch: 4}
	// two rows of four texels, only the first two are part of the image
	pixels := []byte{
		1, 1, 1, 1, 2, 2, 2, 2, 0, 0, 0, 0, 0, 0, 0, 0,
		3, 3, 3, 3, 4, 4, 4, 4, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	out := new(bytes.Buffer)
	if err := (DDSConverter{}).Convert(out, d, pixels); err != nil {
		t.Fatalf("converting: %v", err)
	}

	b := out.Bytes()
	if len(b) != 128+16 {
		t.Fatalf("expected 144 bytes, got %d", len(b))
	}
	if string(b[:4]) != "DDS " {
		t.Errorf("unexpected magic %q", b[:4])
	}
	if h, w := binary.LittleEndian.Uint32(b[12:]), binary.LittleEndian.Uint32(b[16:]); h != 2 || w != 2 {
		t.Errorf("unexpected size %dx%d", w, h)
	}
	if !bytes.Equal(b[128:], []byte{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4}) {
		t.Errorf("unexpected pixel data %v", b[128:])
	}
}

func TestConvertTiled(t *testing.T) {
	d := Descriptor{Format: FormatDXT1, Dimension: Dimension2D, Width: 8, Height: 8, Tiled: true}

	// every block carries its own index
	pixels := make([]byte, tileBlocks*tileBlocks*8)
	for i := 0; i < tileBlocks*tileBlocks; i++ {
		binary.BigEndian.PutUint16(pixels[i*8:], uint16(i))
	}

	out := new(bytes.Buffer)
	if err := (DDSConverter{}).Convert(out, d, pixels); err != nil {
		t.Fatalf("converting: %v", err)
	}

	b := out.Bytes()[128:]
	if len(b) != 4*8 {
		t.Fatalf("expected 4 blocks, got %d bytes", len(b))
	}
	if fourCC := string(out.Bytes()[84:88]); fourCC != "DXT1" {
		t.Errorf("unexpected fourCC %q", fourCC)
	}

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			got := int(binary.BigEndian.Uint16(b[(y*2+x)*8:]))
			if expect := TiledOffset(x, y, tileBlocks, 8); got != expect {
				t.Errorf("block (%d, %d): expected source block %d, got %d", x, y, expect, got)
			}
		}
	}
}

func TestConvertShortData(t *testing.T) {
	d := Descriptor{Format: FormatDXT45, Dimension: Dimension2D, Width: 16, Height: 16}

	out := new(bytes.Buffer)
	if err := (DDSConverter{}).Convert(out, d, make([]byte, 100)); !errors.Is(err, binio.ErrBufferExhausted) {
		t.Errorf("expected ErrBufferExhausted, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("%d bytes written on error", out.Len())
	}
}
