package opencv

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/camview/pkg/frame"
)

var errConvert = errors.New("opencv: cvtColor produced no output")

// BGRToRGB converts with cv::cvtColor(COLOR_BGR2RGB). Like the OpenCV call
// it swaps the first and third channel regardless of the input tag.
func BGRToRGB(f *frame.Frame) (*frame.Frame, error) {
	return cvt(f, gocv.ColorBGRToRGB, frame.RGB)
}

// RGBToBGR converts with cv::cvtColor(COLOR_RGB2BGR).
func RGBToBGR(f *frame.Frame) (*frame.Frame, error) {
	return cvt(f, gocv.ColorRGBToBGR, frame.BGR)
}

func cvt(f *frame.Frame, code gocv.ColorConversionCode, to frame.ChannelOrder) (*frame.Frame, error) {
	src, err := ToMat(f)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.CvtColor(src, &dst, code)
	if dst.Empty() {
		return nil, errConvert
	}

	out, err := FromMat(dst, to)
	if err != nil {
		return nil, fmt.Errorf("opencv: convert: %w", err)
	}
	return out, nil
}

// Mirror flips a frame around its vertical axis with cv::flip.
func Mirror(f *frame.Frame) (*frame.Frame, error) {
	src, err := ToMat(f)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()

	gocv.Flip(src, &dst, 1)
	return FromMat(dst, f.Order)
}
