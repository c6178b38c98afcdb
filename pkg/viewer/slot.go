package viewer

import (
	"sync"
	"time"

	"github.com/teslashibe/camview/pkg/display"
	"github.com/teslashibe/camview/pkg/hub"
)

// SlotInfo describes a display slot for the API and viewer page.
type SlotInfo struct {
	ID          string    `json:"id"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	ContentType string    `json:"content_type"`
	Updates     int       `json:"updates"`
	Bytes       int       `json:"bytes"`
	Viewers     int       `json:"viewers"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Slot is a live display slot. It implements display.Handle.
type Slot struct {
	id          string
	contentType string
	hub         *hub.Hub

	mu        sync.RWMutex
	width     int
	height    int
	latest    []byte
	updates   int
	createdAt time.Time
	updatedAt time.Time
	closed    bool
}

// ID implements display.Handle.
func (s *Slot) ID() string {
	return s.id
}

// Update implements display.Handle. Viewers receive the image as a binary
// websocket message.
func (s *Slot) Update(data []byte) error {
	if len(data) == 0 {
		return display.ErrEmptyImage
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return display.ErrClosed
	}
	s.latest = data
	s.updates++
	s.updatedAt = time.Now()
	s.mu.Unlock()

	s.hub.PublishImage(data)
	return nil
}

// Latest returns the image currently shown and its content type.
func (s *Slot) Latest() ([]byte, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.contentType
}

// Info returns a snapshot of the slot.
func (s *Slot) Info() SlotInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SlotInfo{
		ID:          s.id,
		Width:       s.width,
		Height:      s.height,
		ContentType: s.contentType,
		Updates:     s.updates,
		Bytes:       len(s.latest),
		Viewers:     s.hub.Viewers(),
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
}

func (s *Slot) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Stop()
}
