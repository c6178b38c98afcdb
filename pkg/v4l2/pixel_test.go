package v4l2

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/teslashibe/camview/pkg/frame"
)

func TestYUYVToBGR(t *testing.T) {
	t.Run("gray levels", func(t *testing.T) {
		// Neutral chroma: every pixel is gray with its own luma.
		buf := []byte{
			16, 128, 235, 128,
			126, 128, 126, 128,
		}
		f, err := YUYVToBGR(buf, 2, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.Order != frame.BGR {
			t.Errorf("expected BGR, got %v", f.Order)
		}
		for _, tc := range []struct{ x, y int }{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			b, g, r := f.At(tc.x, tc.y)
			if b != g || g != r {
				t.Errorf("pixel (%d,%d) not gray: %d %d %d", tc.x, tc.y, b, g, r)
			}
		}
		if b0, _, _ := f.At(0, 0); b0 != 16 {
			t.Errorf("expected luma 16, got %d", b0)
		}
		if b1, _, _ := f.At(1, 0); b1 != 235 {
			t.Errorf("expected luma 235, got %d", b1)
		}
	})

	t.Run("matches image/color", func(t *testing.T) {
		buf := []byte{81, 90, 145, 240}
		f, err := YUYVToBGR(buf, 2, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		wr, wg, wb := color.YCbCrToRGB(81, 90, 240)
		b, g, r := f.At(0, 0)
		if r != wr || g != wg || b != wb {
			t.Errorf("got %d,%d,%d want %d,%d,%d", r, g, b, wr, wg, wb)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		tests := []struct {
			name string
			buf  []byte
			w, h int
		}{
			{"short buffer", make([]byte, 6), 2, 2},
			{"odd width", make([]byte, 6), 3, 1},
			{"zero size", nil, 0, 0},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := YUYVToBGR(tc.buf, tc.w, tc.h); !errors.Is(err, frame.ErrMalformed) {
					t.Errorf("expected ErrMalformed, got %v", err)
				}
			})
		}
	})
}

func TestMJPEGToBGR(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatalf("encode: %v", err)
	}

	f, err := MJPEGToBGR(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Width != 8 || f.Height != 8 || f.Order != frame.BGR {
		t.Errorf("unexpected frame %dx%d %v", f.Width, f.Height, f.Order)
	}

	if _, err := MJPEGToBGR([]byte("not a jpeg")); err == nil {
		t.Error("expected decode error")
	}
}

func TestDecodeUnsupported(t *testing.T) {
	if _, err := decode(0x34524742, []byte{1, 2, 3}, 1, 1); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDevicePath(t *testing.T) {
	if got := DevicePath(2); got != "/dev/video2" {
		t.Errorf("DevicePath(2) = %q", got)
	}
}
