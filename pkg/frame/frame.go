// Package frame defines the raster image passed between capture,
// conversion, transform and encoding.
package frame

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// Channels is the number of interleaved 8-bit channels per pixel.
const Channels = 3

// ErrMalformed is returned when a frame is not a well-formed raster.
var ErrMalformed = errors.New("frame: malformed raster")

// ChannelOrder is the sequence color components are packed in per pixel.
type ChannelOrder int

const (
	// BGR is the native order of most camera drivers (OpenCV default).
	BGR ChannelOrder = iota
	// RGB is the order expected by image codecs and displays.
	RGB
)

// String implements fmt.Stringer.
func (o ChannelOrder) String() string {
	switch o {
	case BGR:
		return "bgr"
	case RGB:
		return "rgb"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// Valid reports whether o is a known channel order.
func (o ChannelOrder) Valid() bool {
	return o == BGR || o == RGB
}

// Frame is one raster image captured at a point in time.
// Pix holds Width*Height pixels, row-major, Channels bytes each.
type Frame struct {
	Width  int
	Height int
	Order  ChannelOrder
	Pix    []byte
}

// New allocates a zeroed frame.
func New(width, height int, order ChannelOrder) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Frame{
		Width:  width,
		Height: height,
		Order:  order,
		Pix:    make([]byte, width*height*Channels),
	}
}

// Stride returns the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * Channels
}

// Validate checks that f is a well-formed raster.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrMalformed)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrMalformed, f.Width, f.Height)
	}
	if !f.Order.Valid() {
		return fmt.Errorf("%w: unknown channel order %s", ErrMalformed, f.Order)
	}
	if want := f.Width * f.Height * Channels; len(f.Pix) != want {
		return fmt.Errorf("%w: %d bytes for %dx%d, want %d", ErrMalformed, len(f.Pix), f.Width, f.Height, want)
	}
	return nil
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{Width: f.Width, Height: f.Height, Order: f.Order, Pix: pix}
}

// Equal reports whether f and g have the same dimensions, order and pixels.
func (f *Frame) Equal(g *Frame) bool {
	if f == nil || g == nil {
		return f == g
	}
	return f.Width == g.Width && f.Height == g.Height && f.Order == g.Order && bytes.Equal(f.Pix, g.Pix)
}

// At returns the three channel bytes of pixel (x, y) in storage order.
func (f *Frame) At(x, y int) (c0, c1, c2 byte) {
	i := y*f.Stride() + x*Channels
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// RGBAt returns pixel (x, y) as red, green, blue regardless of storage order.
func (f *Frame) RGBAt(x, y int) (r, g, b byte) {
	c0, c1, c2 := f.At(x, y)
	if f.Order == BGR {
		return c2, c1, c0
	}
	return c0, c1, c2
}

// Image converts f to an RGBA image honoring its channel order.
func (f *Frame) Image() (*image.RGBA, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			r, g, b := f.RGBAt(x, y)
			o := img.PixOffset(x, y)
			img.Pix[o] = r
			img.Pix[o+1] = g
			img.Pix[o+2] = b
			img.Pix[o+3] = 0xff
		}
	}
	return img, nil
}

// FromImage builds a frame in the given order from any image.
func FromImage(img image.Image, order ChannelOrder) (*Frame, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrMalformed)
	}
	if !order.Valid() {
		return nil, fmt.Errorf("%w: unknown channel order %s", ErrMalformed, order)
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	f := New(b.Dx(), b.Dy(), order)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			o := rgba.PixOffset(x, y)
			i := y*f.Stride() + x*Channels
			r, g, bl := rgba.Pix[o], rgba.Pix[o+1], rgba.Pix[o+2]
			if order == BGR {
				f.Pix[i], f.Pix[i+1], f.Pix[i+2] = bl, g, r
			} else {
				f.Pix[i], f.Pix[i+1], f.Pix[i+2] = r, g, bl
			}
		}
	}
	return f, nil
}
