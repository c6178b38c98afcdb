package transform

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fogleman/gg"

	"github.com/teslashibe/camview/pkg/frame"
)

// Stamp draws a caption in the top-left corner of every frame. text
// receives the 1-based number of the frame being stamped.
func Stamp(text func(n int) string) Func {
	var count atomic.Int64
	return func(f *frame.Frame) (*frame.Frame, error) {
		img, err := f.Image()
		if err != nil {
			return nil, fmt.Errorf("stamp: %w", err)
		}
		s := text(int(count.Add(1)))

		dc := gg.NewContextForRGBA(img)
		w, h := dc.MeasureString(s)
		dc.SetRGBA(0, 0, 0, 0.6)
		dc.DrawRectangle(4, 4, w+8, h+8)
		dc.Fill()
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(s, 8, 8, 0, 1)

		return frame.FromImage(img, f.Order)
	}
}

// Clock stamps the wall-clock time and the frame number.
func Clock() Func {
	return Stamp(func(n int) string {
		return fmt.Sprintf("%s  #%d", time.Now().Format("15:04:05.000"), n)
	})
}
