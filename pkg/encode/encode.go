// Package encode turns frames into displayable image blobs.
package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/teslashibe/camview/pkg/frame"
)

// Sentinel errors for common error conditions.
var (
	// ErrUnsupportedFormat is returned for a format the encoder cannot produce.
	ErrUnsupportedFormat = errors.New("encode: unsupported format")
)

// Format is an output image format.
type Format string

const (
	// JPEG is lossy and the default for live display.
	JPEG Format = "jpeg"
	// PNG is lossless; larger and slower to encode.
	PNG Format = "png"
	// BMP is uncompressed.
	BMP Format = "bmp"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 85

// ParseFormat accepts a format name or file extension ("jpg", ".png").
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "jpeg", "jpg", "":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case PNG:
		return "image/png"
	case BMP:
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// Ext returns the file extension of the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case PNG:
		return ".png"
	case BMP:
		return ".bmp"
	default:
		return ".jpg"
	}
}

// Encoder encodes frames. Implementations honor the frame's channel order.
type Encoder interface {
	Encode(f *frame.Frame, format Format) ([]byte, error)
}

// Func adapts a function to the Encoder interface.
type Func func(f *frame.Frame, format Format) ([]byte, error)

// Encode implements Encoder.
func (fn Func) Encode(f *frame.Frame, format Format) ([]byte, error) {
	return fn(f, format)
}

// Option configures a Std encoder.
type Option func(*Std)

// WithQuality sets the JPEG quality (1-100). Out of range values are clamped.
func WithQuality(q int) Option {
	return func(e *Std) {
		switch {
		case q < 1:
			q = 1
		case q > 100:
			q = 100
		}
		e.quality = q
	}
}

// Std encodes with the Go image codecs.
type Std struct {
	quality int
}

// New creates a Std encoder.
func New(opts ...Option) *Std {
	e := &Std{quality: DefaultQuality}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Quality returns the configured JPEG quality.
func (e *Std) Quality() int {
	return e.quality
}

// Encode implements Encoder.
func (e *Std) Encode(f *frame.Frame, format Format) ([]byte, error) {
	img, err := f.Image()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case JPEG, "":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: e.quality})
	case PNG:
		err = png.Encode(&buf, img)
	case BMP:
		err = bmp.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
