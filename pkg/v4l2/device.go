//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/blackjack/webcam"

	"github.com/teslashibe/camview/pkg/capture"
	"github.com/teslashibe/camview/pkg/frame"
)

// waitSeconds bounds one WaitForFrame call. A timeout is retried, so a
// stalled camera blocks Read rather than ending the stream.
const waitSeconds = 5

func init() {
	capture.Register(Backend, Open)
}

// preferred lists formats in the order they are tried.
var preferred = []uint32{FormatYUYV, FormatMJPEG, FormatPJPG}

// Device is a streaming V4L2 camera.
type Device struct {
	mu       sync.Mutex
	cam      *webcam.Webcam
	src      frameSource
	format   uint32
	width    int
	height   int
	released bool
}

// Open opens /dev/video<index>, negotiates a pixel format and size and
// starts streaming. Settings with zero size pick the largest size the
// device offers.
func Open(index int, settings capture.Settings) (capture.Device, error) {
	cam, err := webcam.Open(DevicePath(index))
	if err != nil {
		return nil, fmt.Errorf("v4l2: open %s: %w", DevicePath(index), err)
	}

	d, err := start(cam, settings)
	if err != nil {
		cam.Close()
		return nil, err
	}
	return d, nil
}

func start(cam *webcam.Webcam, settings capture.Settings) (*Device, error) {
	supported := cam.GetSupportedFormats()

	var format webcam.PixelFormat
	for _, f := range preferred {
		if _, ok := supported[webcam.PixelFormat(f)]; ok {
			format = webcam.PixelFormat(f)
			break
		}
	}
	if format == 0 {
		return nil, fmt.Errorf("v4l2: no supported pixel format in %v", supported)
	}

	width, height := uint32(settings.Width), uint32(settings.Height)
	if width == 0 || height == 0 {
		sizes := cam.GetSupportedFrameSizes(format)
		if len(sizes) == 0 {
			return nil, fmt.Errorf("v4l2: no frame sizes for %s", supported[format])
		}
		sort.Slice(sizes, func(i, j int) bool {
			return sizes[i].MaxWidth*sizes[i].MaxHeight < sizes[j].MaxWidth*sizes[j].MaxHeight
		})
		width, height = sizes[len(sizes)-1].MaxWidth, sizes[len(sizes)-1].MaxHeight
	}

	got, w, h, err := cam.SetImageFormat(format, width, height)
	if err != nil {
		return nil, fmt.Errorf("v4l2: set format: %w", err)
	}
	if err := cam.StartStreaming(); err != nil {
		return nil, fmt.Errorf("v4l2: start streaming: %w", err)
	}

	return &Device{cam: cam, src: cam, format: uint32(got), width: int(w), height: int(h)}, nil
}

// IsOpened implements capture.Device.
func (d *Device) IsOpened() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.released
}

// Read implements capture.Device. Frames are BGR.
func (d *Device) Read() (*frame.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil, capture.ErrReleased
	}

	buf, err := nextFrame(d.src)
	if err != nil {
		return nil, err
	}
	return decode(d.format, buf, d.width, d.height)
}

// frameSource is the part of *webcam.Webcam that Read uses.
type frameSource interface {
	WaitForFrame(timeout uint32) error
	ReadFrame() ([]byte, error)
}

// nextFrame blocks until src delivers a non-empty buffer. Timeouts and
// empty buffers are retried; any other error is returned.
func nextFrame(src frameSource) ([]byte, error) {
	for {
		err := src.WaitForFrame(waitSeconds)
		var timeout *webcam.Timeout
		switch {
		case err == nil:
		case errors.As(err, &timeout):
			continue
		default:
			return nil, fmt.Errorf("v4l2: wait: %w", err)
		}

		buf, err := src.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("v4l2: read: %w", err)
		}
		if len(buf) > 0 {
			return buf, nil
		}
	}
}

// Release implements capture.Device.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return capture.ErrReleased
	}
	d.released = true
	d.cam.StopStreaming()
	return d.cam.Close()
}

// Size returns the negotiated frame size.
func (d *Device) Size() (width, height int) {
	return d.width, d.height
}
