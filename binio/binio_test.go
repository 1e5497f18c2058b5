package binio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/flywave/go3d/vec3"
)

func TestDequantize(t *testing.T) {
	for input, expect := range map[Vec3i16]vec3.T{
		{16384, -16384, 0}: {1, -1, 0},
		{8192, 0, -4096}:   {0.5, 0, -0.25},
		{0, 0, 0}:          {0, 0, 0},
	} {
		if got := input.Dequantize(); got != expect {
			t.Errorf("Unexpected dequantization of %v: expect=%v result=%v", input, expect, got)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := (Vec4{1, 2, 3, 4}).XYZ(); got != (vec3.T{1, 2, 3}) {
		t.Errorf("unexpected float truncation: %v", got)
	}
	if got := (Vec4i16{-1, 2, -3, 4}).XYZ(); got != (Vec3i16{-1, 2, -3}) {
		t.Errorf("unexpected int16 truncation: %v", got)
	}
}

func TestString(t *testing.T) {
	for name, tc := range map[string]struct {
		in     []byte
		expect string
	}{
		"nul padded":    {[]byte("tex/road.dds\x00\x00\x00\x00"), "tex/road.dds"},
		"garbage after": {[]byte("abc\x00def"), "abc"},
		"no terminator": {[]byte("abcd"), "abcd"},
		"latin1 mapped": {[]byte{'c', 0xe9, 0x00}, "cé"},
		"empty field":   {make([]byte, 8), ""},
		"zero width":    {nil, ""},
	} {
		t.Run(name, func(t *testing.T) {
			if got := String(tc.in); got != tc.expect {
				t.Errorf("expect=%q result=%q", tc.expect, got)
			}
		})
	}
}

func TestFixedString(t *testing.T) {
	b := FixedString("cé", 6)
	if !bytes.Equal(b, []byte{'c', 0xe9, 0, 0, 0, 0}) {
		t.Errorf("unexpected encoding %x", b)
	}
	if got := FixedString("abcdef", 4); !bytes.Equal(got, []byte("abc\x00")) {
		t.Errorf("expected truncation keeping the terminator, got %q", got)
	}
	if got := String(FixedString("round/trip", 260)); got != "round/trip" {
		t.Errorf("round trip yielded %q", got)
	}
}

func TestCursorReads(t *testing.T) {
	c := NewCursor([]byte{
		0x01,
		0x00, 0x02,
		0xff, 0xff, 0xff, 0xfe,
		0x3f, 0x80, 0x00, 0x00,
		0x40, 0x00, 0x00, 0x00, 0x00, 0x01,
	})

	if v := c.U8(); v != 1 {
		t.Errorf("U8: %d", v)
	}
	if v := c.U16(); v != 2 {
		t.Errorf("U16: %d", v)
	}
	if v := c.I32(); v != -2 {
		t.Errorf("I32: %d", v)
	}
	if v := c.F32(); v != 1 {
		t.Errorf("F32: %f", v)
	}

	var q Vec3i16
	c.Read(&q)
	if q != (Vec3i16{0x4000, 0, 1}) {
		t.Errorf("Read: %v", q)
	}
	if err := c.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Remaining() != 0 || c.Pos() != c.Len() {
		t.Errorf("cursor not at end: pos=%d len=%d", c.Pos(), c.Len())
	}
}

func TestCursorExhaustion(t *testing.T) {
	c := NewCursor([]byte{0, 0, 0})
	if v := c.U32(); v != 0 {
		t.Errorf("expected zero value on short read, got %d", v)
	}
	if !errors.Is(c.Err(), ErrBufferExhausted) {
		t.Fatalf("expected ErrBufferExhausted, got %v", c.Err())
	}
	if c.Pos() != 0 {
		t.Errorf("failed read must not advance, pos=%d", c.Pos())
	}

	// sticky: later reads stay no-ops even if they would fit
	if v := c.U8(); v != 0 || c.Pos() != 0 {
		t.Errorf("read after failure returned %d at %d", v, c.Pos())
	}
}

func TestCursorNeed(t *testing.T) {
	c := NewCursor(make([]byte, 12))
	if !c.Need(3, 4) {
		t.Fatalf("3x4 bytes must fit into 12: %v", c.Err())
	}
	if c.Need(4, 4) {
		t.Fatal("4x4 bytes must not fit into 12")
	}
	if !errors.Is(c.Err(), ErrBufferExhausted) {
		t.Errorf("expected ErrBufferExhausted, got %v", c.Err())
	}
}

func TestCursorExpectAndCount(t *testing.T) {
	c := NewCursor([]byte("xgs\x00"))
	c.Expect([]byte("xng\x00"))
	if !errors.Is(c.Err(), ErrFormat) {
		t.Errorf("expected ErrFormat for magic mismatch, got %v", c.Err())
	}

	c = NewCursor([]byte{0xff, 0xff, 0xff, 0xff})
	if n := c.Count("things"); n != 0 {
		t.Errorf("negative count must yield 0, got %d", n)
	}
	if !errors.Is(c.Err(), ErrFormat) {
		t.Errorf("expected ErrFormat for negative count, got %v", c.Err())
	}
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.Write(int32(-2), uint16(1), vec3.T{1, 0, 0})
	w.Raw([]byte{0xaa})

	if err := w.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expect := []byte{
		0xff, 0xff, 0xff, 0xfe,
		0x00, 0x01,
		0x3f, 0x80, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0xaa,
	}
	if !bytes.Equal(buf.Bytes(), expect) {
		t.Errorf("unexpected output\n got %x\nwant %x", buf.Bytes(), expect)
	}
}
