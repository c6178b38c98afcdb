package opencv

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/camview/pkg/capture"
	"github.com/teslashibe/camview/pkg/frame"
)

// Backend is the name the capture backend registers under.
const Backend = "opencv"

func init() {
	capture.Register(Backend, Open)
}

// Device is a VideoCapture-backed camera.
type Device struct {
	mu       sync.Mutex
	cam      *gocv.VideoCapture
	img      gocv.Mat
	released bool
}

// Open acquires camera index and requests the given settings. A camera that
// exists but cannot be acquired comes back with IsOpened() == false.
func Open(index int, settings capture.Settings) (capture.Device, error) {
	cam, err := gocv.OpenVideoCapture(index)
	if cam == nil {
		return nil, fmt.Errorf("opencv: open device %d: %w", index, err)
	}
	dev := &Device{cam: cam, img: gocv.NewMat()}
	if err != nil || !cam.IsOpened() {
		return dev, nil
	}

	if settings.Width > 0 {
		cam.Set(gocv.VideoCaptureFrameWidth, float64(settings.Width))
	}
	if settings.Height > 0 {
		cam.Set(gocv.VideoCaptureFrameHeight, float64(settings.Height))
	}
	if settings.Framerate > 0 {
		cam.Set(gocv.VideoCaptureFPS, float64(settings.Framerate))
	}
	return dev, nil
}

// IsOpened implements capture.Device.
func (d *Device) IsOpened() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.released && d.cam.IsOpened()
}

// Read implements capture.Device. Frames are BGR, as delivered by OpenCV.
func (d *Device) Read() (*frame.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil, capture.ErrReleased
	}
	if !d.cam.IsOpened() {
		return nil, capture.ErrNotOpened
	}
	if ok := d.cam.Read(&d.img); !ok || d.img.Empty() {
		return nil, capture.ErrEndOfStream
	}
	return FromMat(d.img, frame.BGR)
}

// Release implements capture.Device.
func (d *Device) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return capture.ErrReleased
	}
	d.released = true
	d.img.Close()
	return d.cam.Close()
}

// Size reports the resolution the driver actually granted.
func (d *Device) Size() (width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.cam.Get(gocv.VideoCaptureFrameWidth)), int(d.cam.Get(gocv.VideoCaptureFrameHeight))
}
