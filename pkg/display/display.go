// Package display defines the live output slot frames are shown in.
package display

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for common error conditions.
var (
	// ErrEmptyImage is returned when creating or updating with no data.
	ErrEmptyImage = errors.New("display: empty image")

	// ErrClosed is returned when using a surface or handle after Close.
	ErrClosed = errors.New("display: closed")
)

// Surface creates live display slots.
type Surface interface {
	// Create shows the initial encoded image and returns a handle that can
	// replace it in place.
	Create(data []byte, width, height int) (Handle, error)
}

// Handle is a single live, updatable output slot.
type Handle interface {
	// ID identifies the slot on its surface.
	ID() string

	// Update replaces the shown image.
	Update(data []byte) error
}

// NewID returns a fresh slot identifier.
func NewID() string {
	return uuid.NewString()
}

// Update is one recorded image shown in a slot.
type Update struct {
	Data   []byte
	Width  int
	Height int
	At     time.Time
}

// Recorder is an in-memory Surface that keeps every image it was given.
// It backs headless runs and tests.
type Recorder struct {
	mu      sync.Mutex
	handles []*RecordedHandle
	keep    bool
}

// NewRecorder creates a recorder. With keepData false only the latest image
// of each slot is retained.
func NewRecorder(keepData bool) *Recorder {
	return &Recorder{keep: keepData}
}

// Create implements Surface.
func (r *Recorder) Create(data []byte, width, height int) (Handle, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	h := &RecordedHandle{
		id:     NewID(),
		keep:   r.keep,
		width:  width,
		height: height,
	}
	h.record(data)

	r.mu.Lock()
	r.handles = append(r.handles, h)
	r.mu.Unlock()
	return h, nil
}

// Creates returns how many slots were created.
func (r *Recorder) Creates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Handles returns the created slots in creation order.
func (r *Recorder) Handles() []*RecordedHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*RecordedHandle, len(r.handles))
	copy(out, r.handles)
	return out
}

// RecordedHandle is a slot created by a Recorder.
type RecordedHandle struct {
	id     string
	keep   bool
	width  int
	height int

	mu      sync.Mutex
	updates int
	latest  []byte
	history []Update
}

// ID implements Handle.
func (h *RecordedHandle) ID() string {
	return h.id
}

// Update implements Handle.
func (h *RecordedHandle) Update(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}
	h.mu.Lock()
	h.updates++
	h.mu.Unlock()
	h.record(data)
	return nil
}

func (h *RecordedHandle) record(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = data
	if h.keep {
		h.history = append(h.history, Update{Data: data, Width: h.width, Height: h.height, At: time.Now()})
	}
}

// Size returns the dimensions given at creation.
func (h *RecordedHandle) Size() (width, height int) {
	return h.width, h.height
}

// Updates returns how many times Update succeeded.
func (h *RecordedHandle) Updates() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.updates
}

// Latest returns the image currently shown.
func (h *RecordedHandle) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// History returns every image shown, oldest first. Empty unless the
// recorder keeps data.
func (h *RecordedHandle) History() []Update {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Update, len(h.history))
	copy(out, h.history)
	return out
}
