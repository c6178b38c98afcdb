// Package colorconv reorders frame channels between camera and display layouts.
package colorconv

import (
	"fmt"

	"github.com/teslashibe/camview/pkg/frame"
)

// Func converts a frame to another channel layout. Implementations must not
// mutate their input.
type Func func(*frame.Frame) (*frame.Frame, error)

// BGRToRGB converts a camera-native frame to display order.
func BGRToRGB(f *frame.Frame) (*frame.Frame, error) {
	return swap(f, frame.BGR, frame.RGB)
}

// RGBToBGR converts a display-order frame back to camera order.
func RGBToBGR(f *frame.Frame) (*frame.Frame, error) {
	return swap(f, frame.RGB, frame.BGR)
}

// Convert returns a copy of f with channels in the given order.
// A frame already in that order is copied unchanged.
func Convert(f *frame.Frame, to frame.ChannelOrder) (*frame.Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("colorconv: %w", err)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("colorconv: %w: target order %s", frame.ErrMalformed, to)
	}
	if f.Order == to {
		return f.Clone(), nil
	}
	return swap(f, f.Order, to)
}

// swap exchanges the first and third channel of every pixel and tags the
// result with to. The input tag is not checked, matching cvtColor.
func swap(f *frame.Frame, from, to frame.ChannelOrder) (*frame.Frame, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("colorconv: %s to %s: %w", from, to, err)
	}
	out := &frame.Frame{
		Width:  f.Width,
		Height: f.Height,
		Order:  to,
		Pix:    make([]byte, len(f.Pix)),
	}
	for i := 0; i < len(f.Pix); i += frame.Channels {
		out.Pix[i] = f.Pix[i+2]
		out.Pix[i+1] = f.Pix[i+1]
		out.Pix[i+2] = f.Pix[i]
	}
	return out, nil
}
