package soi

import (
	"bytes"
	"fmt"

	"github.com/Luzifer/soi-extract/binio"
	"github.com/Luzifer/soi-extract/collision"
	"github.com/Luzifer/soi-extract/motion"
	"github.com/Luzifer/soi-extract/texture"
	"github.com/Luzifer/soi-extract/xng"
)

const (
	modelInfoSize = 332
	parameterSize = 2 * nameSize
)

func readSizes(c *binio.Cursor, n int32) ([]int32, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative page count %d", binio.ErrFormat, n)
	}
	if !c.Need(int(n), 4) { //nolint:mnd
		return nil, c.Err()
	}

	sizes := make([]int32, n)
	c.Read(sizes)
	return sizes, c.Err()
}

func readList[T any](c *binio.Cursor, what string, n int32, out *[]*T, read func(*binio.Cursor) (*T, error)) error {
	if n < 0 {
		return fmt.Errorf("%w: negative %s count %d", binio.ErrFormat, what, n)
	}
	if !c.Need(int(n), modelInfoSize) {
		return fmt.Errorf("reading %s list: %w", what, c.Err())
	}

	*out = make([]*T, 0, n)
	for i := int32(0); i < n; i++ {
		r, err := read(c)
		if err != nil {
			return fmt.Errorf("reading %s %d: %w", what, i, err)
		}
		*out = append(*out, r)
	}

	return nil
}

func readModelInfo(c *binio.Cursor) (ModelInfo, error) {
	var info ModelInfo
	c.Read(&info)
	if err := c.Err(); err != nil {
		return info, fmt.Errorf("reading model info: %w", err)
	}
	return info, nil
}

func readParameters(c *binio.Cursor, n int32) ([]Parameter, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative parameter count %d", binio.ErrFormat, n)
	}
	if !c.Need(int(n), parameterSize) {
		return nil, fmt.Errorf("reading parameters: %w", c.Err())
	}

	params := make([]Parameter, n)
	c.Read(params)
	return params, c.Err()
}

func readStreamingTexture(c *binio.Cursor, dec texture.HeaderDecoder) (*StreamingTexture, error) {
	info, err := readModelInfo(c)
	if err != nil {
		return nil, err
	}

	t := &StreamingTexture{Info: info, Padding: c.U32()}
	if err = c.Err(); err != nil {
		return nil, fmt.Errorf("reading padding: %w", err)
	}

	if !c.Need(1, dec.Size()) {
		return nil, fmt.Errorf("reading texture header of %q: %w", info.Name(), c.Err())
	}
	if t.Header, err = dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding texture header of %q: %w", info.Name(), err)
	}
	return t, nil
}

func readStaticTexture(c *binio.Cursor) (*StaticTexture, error) {
	info, err := readModelInfo(c)
	if err != nil {
		return nil, err
	}

	dds := bytes.Clone(c.Take(int(c.U32())))
	if err = c.Err(); err != nil {
		return nil, fmt.Errorf("reading DDS of %q: %w", info.Name(), err)
	}
	return &StaticTexture{Info: info, DDS: dds}, nil
}

func readMotionPack(c *binio.Cursor) (*MotionPack, error) {
	info, err := readModelInfo(c)
	if err != nil {
		return nil, err
	}

	h, err := motion.Decode(c)
	if err != nil {
		return nil, fmt.Errorf("decoding motion pack %q: %w", info.Name(), err)
	}
	return &MotionPack{Info: info, Header: h}, nil
}

func readRenderableModel(c *binio.Cursor) (*RenderableModel, error) {
	info, err := readModelInfo(c)
	if err != nil {
		return nil, err
	}

	m := &RenderableModel{Info: info}
	if m.Parameters, err = readParameters(c, info.ParameterCount); err != nil {
		return nil, fmt.Errorf("model %q: %w", info.Name(), err)
	}
	if m.Header, err = xng.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding model %q: %w", info.Name(), err)
	}
	return m, nil
}

func readCollisionModel(c *binio.Cursor) (*CollisionModel, error) {
	info, err := readModelInfo(c)
	if err != nil {
		return nil, err
	}

	m := &CollisionModel{Info: info}
	if m.Parameters, err = readParameters(c, info.ParameterCount); err != nil {
		return nil, fmt.Errorf("collision model %q: %w", info.Name(), err)
	}
	if m.Header, err = collision.Decode(c); err != nil {
		return nil, fmt.Errorf("decoding collision model %q: %w", info.Name(), err)
	}
	return m, nil
}
