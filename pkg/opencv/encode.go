package opencv

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/camview/pkg/encode"
	"github.com/teslashibe/camview/pkg/frame"
)

// Encoder encodes with cv::imencode. Frames are converted to BGR first,
// since imencode assumes BGR input.
type Encoder struct {
	quality int
}

// NewEncoder creates an Encoder with the given JPEG quality. Out of range
// values fall back to encode.DefaultQuality.
func NewEncoder(quality int) *Encoder {
	if quality < 1 || quality > 100 {
		quality = encode.DefaultQuality
	}
	return &Encoder{quality: quality}
}

// Encode implements encode.Encoder.
func (e *Encoder) Encode(f *frame.Frame, format encode.Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("opencv: %w", err)
	}
	if f.Order == frame.RGB {
		bgr, err := RGBToBGR(f)
		if err != nil {
			return nil, err
		}
		f = bgr
	}

	m, err := ToMat(f)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	var params []int
	switch format {
	case encode.JPEG, "":
		format = encode.JPEG
		params = []int{int(gocv.IMWriteJpegQuality), e.quality}
	case encode.PNG, encode.BMP:
	default:
		return nil, fmt.Errorf("%w: %q", encode.ErrUnsupportedFormat, format)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.FileExt(format.Ext()), m, params)
	if err != nil {
		return nil, fmt.Errorf("opencv: imencode %s: %w", format, err)
	}
	defer buf.Close()

	// GetBytes aliases native memory freed by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
