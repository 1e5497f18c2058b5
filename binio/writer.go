package binio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer writes big-endian values and keeps the first error
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first write error
func (w *Writer) Err() error { return w.err }

// Write encodes fixed size values in order
func (w *Writer) Write(vs ...any) {
	for _, v := range vs {
		if w.err != nil {
			return
		}
		if err := binary.Write(w.w, binary.BigEndian, v); err != nil {
			w.err = fmt.Errorf("encoding %T: %w", v, err)
			return
		}
	}
}

// Raw writes b unmodified
func (w *Writer) Raw(b []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(b); err != nil {
		w.err = fmt.Errorf("writing raw data: %w", err)
	}
}
