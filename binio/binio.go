// Package binio contains the big-endian primitives shared by the
// streaming asset decoders and the re-encoders
package binio

import (
	"bytes"
	"errors"

	"github.com/flywave/go3d/vec3"
	"golang.org/x/text/encoding/charmap"
)

// QuantizationDivisor is the fixed point scale of quantized vectors
const QuantizationDivisor = 16384.0

var (
	// ErrFormat marks input the decoders do not understand: bad magic,
	// unsupported discriminants or flag values
	ErrFormat = errors.New("unsupported format")
	// ErrBufferExhausted marks count / length mismatches between a header
	// and the buffer it describes
	ErrBufferExhausted = errors.New("buffer exhausted")
)

type (
	// Vec4 is a four component float vector as stored by the engine
	Vec4 [4]float32
	// Vec3i16 is a quantized three component vector
	Vec3i16 [3]int16
	// Vec4i16 is a quantized four component vector
	Vec4i16 [4]int16
)

// XYZ drops the W component
func (v Vec4) XYZ() vec3.T { return vec3.T{v[0], v[1], v[2]} }

// XYZ drops the W component
func (v Vec4i16) XYZ() Vec3i16 { return Vec3i16{v[0], v[1], v[2]} }

// Dequantize converts the fixed point vector to unit scale floats
func (v Vec3i16) Dequantize() vec3.T {
	return vec3.T{
		float32(v[0]) / QuantizationDivisor,
		float32(v[1]) / QuantizationDivisor,
		float32(v[2]) / QuantizationDivisor,
	}
}

// DequantizeAll converts a list of quantized vectors
func DequantizeAll(in []Vec3i16) []vec3.T {
	out := make([]vec3.T, len(in))
	for i := range in {
		out[i] = in[i].Dequantize()
	}
	return out
}

// String decodes a fixed width, NUL padded string field. Everything
// after the first NUL is ignored, bytes are interpreted as ISO-8859-1.
func String(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		// ISO-8859-1 maps every byte, this is not expected to happen
		return string(b)
	}
	return string(out)
}

// FixedString encodes s into a NUL padded field of the given width,
// truncating when it does not fit (the last byte always stays NUL)
func FixedString(s string, width int) []byte {
	out := make([]byte, width)
	enc, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(s))
	if err != nil {
		enc = []byte(s)
	}
	if len(enc) > width-1 {
		enc = enc[:width-1]
	}
	copy(out, enc)
	return out
}
