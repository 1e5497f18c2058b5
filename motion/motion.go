// Package motion decodes streaming motion pack headers and writes
// standalone motion (GOT) files
package motion

import (
	"bytes"
	"fmt"
	"io"

	"github.com/Luzifer/soi-extract/binio"
)

// VersionExtended marks headers carrying an additional trailing blob
// which is not part of the standalone file
const VersionExtended int32 = -8

// Header is a streaming motion pack header
type Header struct {
	Version     int32
	MotionType  int32
	FrameCount  uint32
	BoneTargets []string

	Duration       float32
	RotationType   uint32
	PositionType   uint32
	NumPositions   uint32
	NumRotations   uint32
	NumCameraInfos uint32
	Padding        uint32

	Extension []byte
}

// Decode reads a motion pack header from the scene index stream
func Decode(c *binio.Cursor) (*Header, error) {
	h := &Header{}

	h.Version = c.I32()
	h.MotionType = c.I32()
	h.FrameCount = c.U32()

	n := int(c.U32())
	if c.Need(n, 4) { //nolint:mnd
		h.BoneTargets = make([]string, n)
		for i := range h.BoneTargets {
			// bone names are length prefixed, not NUL padded
			h.BoneTargets[i] = string(c.Take(int(c.U32())))
		}
	}

	h.Duration = c.F32()
	h.RotationType = c.U32()
	h.PositionType = c.U32()
	h.NumPositions = c.U32()
	h.NumRotations = c.U32()
	h.NumCameraInfos = c.U32()
	h.Padding = c.U32()

	if h.Version == VersionExtended {
		h.Extension = bytes.Clone(c.Take(int(c.U32())))
	}

	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("reading motion pack header: %w", err)
	}
	return h, nil
}

// Encode writes the standalone motion file: the header without the
// extension blob followed by the component payload. Nothing is written
// to w on error.
func (h *Header) Encode(w io.Writer, payload []byte) error {
	buf := new(bytes.Buffer)
	bw := binio.NewWriter(buf)

	bw.Write(h.Version, h.MotionType, h.FrameCount, uint32(len(h.BoneTargets))) //#nosec:G115 // decoded from u32
	for _, t := range h.BoneTargets {
		bw.Write(uint32(len(t))) //#nosec:G115 // decoded from u32
		bw.Raw([]byte(t))
	}
	bw.Write(
		h.Duration,
		h.RotationType,
		h.PositionType,
		h.NumPositions,
		h.NumRotations,
		h.NumCameraInfos,
		h.Padding,
	)
	bw.Raw(payload)

	if err := bw.Err(); err != nil {
		return fmt.Errorf("encoding motion pack: %w", err)
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("writing motion pack: %w", err)
	}
	return nil
}
