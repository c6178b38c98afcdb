// Package screen is a capture backend that grabs the desktop instead of a
// camera. Useful for demos and for machines without a webcam.
//
// Importing the package registers the "screen" capture backend.
package screen

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/vova616/screenshot"

	"github.com/teslashibe/camview/pkg/capture"
	"github.com/teslashibe/camview/pkg/frame"
)

// Backend is the name the capture backend registers under.
const Backend = "screen"

// ErrNoSuchScreen is returned for any index but 0; only the primary
// screen is supported.
var ErrNoSuchScreen = errors.New("screen: only screen 0 is supported")

func init() {
	capture.Register(Backend, Open)
}

// Grabber captures a region of the screen.
type Grabber func(rect image.Rectangle) (*image.RGBA, error)

// Device reads frames from a screen region.
type Device struct {
	mu       sync.Mutex
	grab     Grabber
	rect     image.Rectangle
	released bool
}

// Open prepares the primary screen. A non-zero Width and Height in settings
// limit capture to that region at the top-left corner.
func Open(index int, settings capture.Settings) (capture.Device, error) {
	if index != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchScreen, index)
	}
	bounds, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("screen: %w", err)
	}
	return NewDevice(screenshot.CaptureRect, Region(bounds, settings)), nil
}

// NewDevice builds a device around any grabber.
func NewDevice(grab Grabber, rect image.Rectangle) *Device {
	return &Device{grab: grab, rect: rect}
}

// Region clips the requested size to the screen bounds.
func Region(bounds image.Rectangle, settings capture.Settings) image.Rectangle {
	if settings.Width <= 0 || settings.Height <= 0 {
		return bounds
	}
	r := image.Rect(0, 0, settings.Width, settings.Height).Add(bounds.Min)
	return r.Intersect(bounds)
}

// IsOpened implements capture.Device.
func (d *Device) IsOpened() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.released && !d.rect.Empty()
}

// Read implements capture.Device. Frames are BGR, like a camera.
func (d *Device) Read() (*frame.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil, capture.ErrReleased
	}
	img, err := d.grab(d.rect)
	if err != nil {
		return nil, fmt.Errorf("screen: grab: %w", err)
	}
	return frame.FromImage(img, frame.BGR)
}

// Release implements capture.Device.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.released {
		return capture.ErrReleased
	}
	d.released = true
	return nil
}
