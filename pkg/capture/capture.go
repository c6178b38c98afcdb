// Package capture provides the camera device contract used by the stream loop.
//
// Backends register an Opener under a name:
//   - opencv  - gocv VideoCapture (registered by pkg/opencv)
//   - v4l2    - Video4Linux2 through blackjack/webcam (registered by pkg/v4l2)
//   - screen  - the desktop (registered by pkg/screen)
//   - pattern - synthetic color bars, no hardware needed
//   - mock    - scripted frames for tests
package capture

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/teslashibe/camview/pkg/frame"
)

// Sentinel errors for common error conditions.
var (
	// ErrEndOfStream is returned by Read when the device has no more frames.
	ErrEndOfStream = errors.New("capture: end of stream")

	// ErrNotOpened is returned when reading from a device that is not open.
	ErrNotOpened = errors.New("capture: device not opened")

	// ErrReleased is returned when using a device after Release.
	ErrReleased = errors.New("capture: device released")

	// ErrUnknownBackend is returned by Open for an unregistered backend.
	ErrUnknownBackend = errors.New("capture: unknown backend")
)

// Device is an exclusively owned camera handle.
type Device interface {
	// IsOpened reports whether the device was acquired successfully.
	IsOpened() bool

	// Read blocks until the next frame is available. It returns
	// ErrEndOfStream, or a nil frame with a nil error, once the stream is
	// exhausted. Frames are in the device's native channel order.
	Read() (*frame.Frame, error)

	// Release gives the device back to the system. The loop calls it
	// exactly once per device, including devices that never opened.
	// Release is not idempotent: a second call returns ErrReleased and the
	// caller treats that as a bug, not a device fault.
	Release() error
}

// Opener acquires the device at index. A device that exists but could not
// be acquired is returned with IsOpened() == false. An Opener that returns
// a non-nil device together with an error still hands over ownership; the
// caller releases it.
type Opener func(index int, settings Settings) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Opener{}
)

// Register makes a backend available by name. Registering the same name
// twice replaces the previous opener.
func Register(name string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = open
}

// Lookup returns the opener registered under name.
func Lookup(name string) (Opener, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	open, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, backendsLocked())
	}
	return open, nil
}

// Open acquires device index through the named backend.
func Open(backend string, index int, settings Settings) (Device, error) {
	open, err := Lookup(backend)
	if err != nil {
		return nil, err
	}
	return open(index, settings)
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return backendsLocked()
}

func backendsLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEndOfStream reports whether a Read result means the stream is exhausted.
func IsEndOfStream(f *frame.Frame, err error) bool {
	if errors.Is(err, ErrEndOfStream) {
		return true
	}
	return err == nil && f == nil
}
