// Package texture decodes the platform texture headers of streaming
// textures and converts their pixel data into DDS files
package texture

import (
	"fmt"
	"io"

	"github.com/Luzifer/soi-extract/binio"
)

// Format is the GPU texture format
type Format uint32

// Formats the converter knows about
const (
	Format8888  Format = 6
	FormatDXT1  Format = 18
	FormatDXT23 Format = 19
	FormatDXT45 Format = 20
)

func (f Format) String() string {
	switch f {
	case Format8888:
		return "8888"
	case FormatDXT1:
		return "DXT1"
	case FormatDXT23:
		return "DXT2_3"
	case FormatDXT45:
		return "DXT4_5"
	default:
		return fmt.Sprintf("Format(%d)", uint32(f))
	}
}

// Dimension is the texture topology
type Dimension uint32

// Dimensions
const (
	Dimension1D Dimension = iota
	Dimension2D
	Dimension3D
	DimensionCube
)

// Endian is the byte swap mode the GPU applies when fetching
type Endian uint32

// Swap modes
const (
	EndianNone Endian = iota
	Endian8In16
	Endian8In32
	Endian16In32
)

type (
	// Descriptor holds everything needed to convert texture data
	Descriptor struct {
		Format    Format
		Dimension Dimension
		Width     int
		Height    int
		// Pitch is the row pitch in texels
		Pitch      int
		Tiled      bool
		PackedMips bool
		Endian     Endian

		BaseAddress uint32
		MipAddress  uint32
		MinMipLevel int
		MaxMipLevel int
	}

	// Header is a decoded platform texture header
	Header interface {
		Descriptor() Descriptor
	}

	// HeaderDecoder reads a platform texture header from the scene
	// index. The decoder is chosen when opening the index.
	HeaderDecoder interface {
		// Size returns the on-disk size of the header
		Size() int
		Decode(c *binio.Cursor) (Header, error)
	}

	// Converter writes texture data described by a Descriptor as a
	// standard image file
	Converter interface {
		Convert(w io.Writer, d Descriptor, pixels []byte) error
	}
)

// Validate checks the converter is able to handle the texture
func (d Descriptor) Validate() error {
	if d.Dimension != Dimension2D {
		return fmt.Errorf("%w: texture dimension %d", binio.ErrFormat, d.Dimension)
	}

	if _, ok := formats[d.Format]; !ok {
		return fmt.Errorf("%w: texture format %s", binio.ErrFormat, d.Format)
	}

	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: texture size %dx%d", binio.ErrFormat, d.Width, d.Height)
	}

	return nil
}
