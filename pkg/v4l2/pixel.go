// Package v4l2 is a capture backend that talks to Video4Linux2 devices
// directly through github.com/blackjack/webcam, without OpenCV.
//
// Importing the package on Linux registers the "v4l2" capture backend.
// YUYV 4:2:2 and Motion-JPEG streams are supported.
package v4l2

import (
	"bytes"
	"fmt"
	"image/color"
	"image/jpeg"

	"github.com/teslashibe/camview/pkg/frame"
)

// Backend is the name the capture backend registers under.
const Backend = "v4l2"

// Pixel formats as V4L2 fourcc codes.
const (
	FormatYUYV  uint32 = 0x56595559
	FormatMJPEG uint32 = 0x47504A4D
	FormatPJPG  uint32 = 0x47504A50
)

// DevicePath maps a camera index to its device node.
func DevicePath(index int) string {
	return fmt.Sprintf("/dev/video%d", index)
}

// YUYVToBGR converts a packed YUYV 4:2:2 buffer to a BGR frame. Each four
// byte group Y0 U Y1 V carries two pixels sharing one chroma pair.
func YUYVToBGR(buf []byte, width, height int) (*frame.Frame, error) {
	if width <= 0 || height <= 0 || width%2 != 0 {
		return nil, fmt.Errorf("%w: yuyv size %dx%d", frame.ErrMalformed, width, height)
	}
	if want := 2 * width * height; len(buf) != want {
		return nil, fmt.Errorf("%w: yuyv length %d, want %d", frame.ErrMalformed, len(buf), want)
	}

	f := frame.New(width, height, frame.BGR)
	out := f.Pix
	for i, o := 0, 0; i < len(buf); i, o = i+4, o+6 {
		y0, u, y1, v := buf[i], buf[i+1], buf[i+2], buf[i+3]

		r, g, b := color.YCbCrToRGB(y0, u, v)
		out[o], out[o+1], out[o+2] = b, g, r

		r, g, b = color.YCbCrToRGB(y1, u, v)
		out[o+3], out[o+4], out[o+5] = b, g, r
	}
	return f, nil
}

// MJPEGToBGR decodes one Motion-JPEG frame.
func MJPEGToBGR(buf []byte) (*frame.Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("v4l2: decode mjpeg: %w", err)
	}
	return frame.FromImage(img, frame.BGR)
}

// decode converts a raw device buffer in format to a BGR frame.
func decode(format uint32, buf []byte, width, height int) (*frame.Frame, error) {
	switch format {
	case FormatYUYV:
		return YUYVToBGR(buf, width, height)
	case FormatMJPEG, FormatPJPG:
		return MJPEGToBGR(buf)
	default:
		return nil, fmt.Errorf("v4l2: unsupported pixel format %#x", format)
	}
}
