// Package opencv is the gocv backend: camera capture through VideoCapture,
// color conversion through cvtColor and encoding through imencode.
//
// Importing the package registers the "opencv" capture backend.
package opencv

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/camview/pkg/frame"
)

// ErrUnsupportedMat is returned for a Mat that is not 8-bit 3-channel.
var ErrUnsupportedMat = errors.New("opencv: unsupported mat type")

// ToMat copies a frame into a new CV_8UC3 Mat. The caller owns the Mat.
func ToMat(f *frame.Frame) (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.NewMat(), fmt.Errorf("opencv: %w", err)
	}
	m, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("opencv: mat from frame: %w", err)
	}
	return m, nil
}

// FromMat copies a CV_8UC3 Mat into a frame tagged with order.
func FromMat(m gocv.Mat, order frame.ChannelOrder) (*frame.Frame, error) {
	if m.Empty() {
		return nil, nil
	}
	if m.Type() != gocv.MatTypeCV8UC3 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMat, m.Type())
	}
	f := &frame.Frame{
		Width:  m.Cols(),
		Height: m.Rows(),
		Order:  order,
		Pix:    m.ToBytes(),
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("opencv: %w", err)
	}
	return f, nil
}
