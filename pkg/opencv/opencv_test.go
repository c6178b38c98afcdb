package opencv

import (
	"bytes"
	"errors"
	"image/jpeg"
	"image/png"
	"os"
	"strconv"
	"testing"

	"github.com/teslashibe/camview/pkg/capture"
	"github.com/teslashibe/camview/pkg/colorconv"
	"github.com/teslashibe/camview/pkg/encode"
	"github.com/teslashibe/camview/pkg/frame"
)

func testFrame() *frame.Frame {
	f := frame.New(4, 2, frame.BGR)
	for i := range f.Pix {
		f.Pix[i] = byte(i * 7)
	}
	return f
}

func TestMatRoundTrip(t *testing.T) {
	f := testFrame()
	m, err := ToMat(f)
	if err != nil {
		t.Fatalf("ToMat: %v", err)
	}
	defer m.Close()

	if m.Rows() != 2 || m.Cols() != 4 {
		t.Errorf("expected 2x4 mat, got %dx%d", m.Rows(), m.Cols())
	}

	back, err := FromMat(m, frame.BGR)
	if err != nil {
		t.Fatalf("FromMat: %v", err)
	}
	if !back.Equal(f) {
		t.Error("round trip changed the frame")
	}
}

func TestToMatMalformed(t *testing.T) {
	m, err := ToMat(&frame.Frame{Width: 2, Height: 2, Order: frame.BGR, Pix: []byte{1}})
	defer m.Close()
	if !errors.Is(err, frame.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestConvertMatchesPureGo(t *testing.T) {
	f := testFrame()

	want, err := colorconv.BGRToRGB(f)
	if err != nil {
		t.Fatalf("colorconv: %v", err)
	}
	got, err := BGRToRGB(f)
	if err != nil {
		t.Fatalf("BGRToRGB: %v", err)
	}
	if !got.Equal(want) {
		t.Error("cvtColor result differs from colorconv")
	}

	back, err := RGBToBGR(got)
	if err != nil {
		t.Fatalf("RGBToBGR: %v", err)
	}
	if !back.Equal(f) {
		t.Error("round trip changed the frame")
	}
}

func TestMirror(t *testing.T) {
	f := testFrame()
	m, err := Mirror(f)
	if err != nil {
		t.Fatalf("Mirror: %v", err)
	}
	a0, a1, a2 := f.At(0, 1)
	b0, b1, b2 := m.At(3, 1)
	if a0 != b0 || a1 != b1 || a2 != b2 {
		t.Error("left column should become right column")
	}
}

func TestEncoder(t *testing.T) {
	rgb, _ := colorconv.BGRToRGB(testFrame())
	enc := NewEncoder(90)

	t.Run("jpeg", func(t *testing.T) {
		data, err := enc.Encode(rgb, encode.JPEG)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
			t.Errorf("output is not a JPEG: %v", err)
		}
	})

	t.Run("png is lossless and order aware", func(t *testing.T) {
		data, err := enc.Encode(rgb, encode.PNG)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("output is not a PNG: %v", err)
		}
		r, g, b, _ := img.At(1, 0).RGBA()
		wr, wg, wb := rgb.RGBAt(1, 0)
		if byte(r>>8) != wr || byte(g>>8) != wg || byte(b>>8) != wb {
			t.Errorf("pixel mismatch: got %d,%d,%d want %d,%d,%d", r>>8, g>>8, b>>8, wr, wg, wb)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := enc.Encode(rgb, encode.Format("gif")); !errors.Is(err, encode.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}

func TestBackendRegistered(t *testing.T) {
	if _, err := capture.Lookup(Backend); err != nil {
		t.Fatalf("opencv backend not registered: %v", err)
	}
}

func TestOpenMissingCamera(t *testing.T) {
	dev, err := Open(97, capture.Settings{})
	if err != nil {
		t.Fatalf("expected a closed handle, got error %v", err)
	}
	if dev == nil {
		t.Fatal("expected a handle for a missing camera")
	}
	if dev.IsOpened() {
		t.Skip("camera 97 exists on this machine")
	}
	if _, err := dev.Read(); !errors.Is(err, capture.ErrNotOpened) {
		t.Errorf("expected ErrNotOpened, got %v", err)
	}
	if err := dev.Release(); err != nil {
		t.Errorf("release: %v", err)
	}
	if err := dev.Release(); !errors.Is(err, capture.ErrReleased) {
		t.Errorf("expected ErrReleased on second release, got %v", err)
	}
}

// TestOpenCamera needs a real camera; set CAMVIEW_TEST_DEVICE to its index.
func TestOpenCamera(t *testing.T) {
	idx := os.Getenv("CAMVIEW_TEST_DEVICE")
	if idx == "" {
		t.Skip("CAMVIEW_TEST_DEVICE not set, skipping camera test")
	}
	index, err := strconv.Atoi(idx)
	if err != nil {
		t.Fatalf("bad CAMVIEW_TEST_DEVICE: %v", err)
	}

	dev, err := Open(index, capture.HD720Settings())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !dev.IsOpened() {
		t.Skip("camera could not be acquired")
	}

	f, err := dev.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.Order != frame.BGR {
		t.Errorf("expected BGR frame, got %v", f.Order)
	}

	if err := dev.Release(); err != nil {
		t.Errorf("Release: %v", err)
	}
	if err := dev.Release(); !errors.Is(err, capture.ErrReleased) {
		t.Errorf("second Release: expected ErrReleased, got %v", err)
	}
	if _, err := dev.Read(); !errors.Is(err, capture.ErrReleased) {
		t.Errorf("Read after Release: expected ErrReleased, got %v", err)
	}
}
