// Package hub fans display updates out to websocket viewers.
//
// One goroutine (Run) owns the viewer set; viewers join and leave over
// channels, and published messages are copied into each viewer's queue.
// A viewer that falls behind loses its oldest queued frame, so it always
// converges on the latest image. The hub remembers the last image it
// delivered and queues it for every viewer as it joins.
package hub

import (
	"log/slog"
	"sync"
)

// Kind selects the websocket frame type a message is written as.
type Kind int

const (
	// KindText is written as a text frame (JSON slot metadata).
	KindText Kind = iota
	// KindBinary is written as a binary frame (an encoded image).
	KindBinary
)

// Message is one unit delivered to every viewer.
type Message struct {
	Kind Kind
	Data []byte
}

// NewText wraps pre-encoded JSON.
func NewText(data []byte) Message {
	return Message{Kind: KindText, Data: data}
}

// NewBinary wraps an encoded image.
func NewBinary(data []byte) Message {
	return Message{Kind: KindBinary, Data: data}
}

// Hub serves one display slot.
type Hub struct {
	name string
	log  *slog.Logger

	in    chan Message
	join  chan *Viewer
	leave chan *Viewer
	done  chan struct{}
	once  sync.Once

	// latest is owned by the Run goroutine.
	latest *Message

	mu      sync.RWMutex
	viewers map[*Viewer]struct{}
	running bool
}

// New creates a hub. Call Run in its own goroutine.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:    name,
		log:     logger.With("hub", name),
		in:      make(chan Message, 64),
		join:    make(chan *Viewer),
		leave:   make(chan *Viewer),
		done:    make(chan struct{}),
		viewers: make(map[*Viewer]struct{}),
	}
}

// Name returns the name the hub was created with.
func (h *Hub) Name() string {
	return h.name
}

// Run delivers messages until Stop is called. Every viewer queue is
// closed on return, which makes the viewers send a close frame.
func (h *Hub) Run() {
	h.setRunning(true)
	defer h.closeAll()

	for {
		select {
		case <-h.done:
			return

		case v := <-h.join:
			h.mu.Lock()
			h.viewers[v] = struct{}{}
			n := len(h.viewers)
			h.mu.Unlock()
			if h.latest != nil {
				v.offer(*h.latest)
			}
			h.log.Debug("viewer joined", "viewers", n)

		case v := <-h.leave:
			h.mu.Lock()
			if _, ok := h.viewers[v]; ok {
				delete(h.viewers, v)
				close(v.queue)
			}
			n := len(h.viewers)
			h.mu.Unlock()
			h.log.Debug("viewer left", "viewers", n)

		case msg := <-h.in:
			if msg.Kind == KindBinary {
				h.latest = &msg
			}
			h.mu.RLock()
			for v := range h.viewers {
				if v.offer(msg) {
					h.log.Debug("viewer behind, dropped stale frame")
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) setRunning(running bool) {
	h.mu.Lock()
	h.running = running
	h.mu.Unlock()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		delete(h.viewers, v)
		close(v.queue)
	}
	h.running = false
}

// Stop ends Run. It may be called more than once.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Publish queues msg for every viewer. It never blocks: when the hub is
// stopped or its inbox is full the message is discarded.
func (h *Hub) Publish(msg Message) {
	select {
	case h.in <- msg:
	case <-h.done:
	default:
		h.log.Warn("hub inbox full, discarding message")
	}
}

// PublishImage publishes an encoded image.
func (h *Hub) PublishImage(data []byte) {
	h.Publish(NewBinary(data))
}

// Viewers returns the number of attached viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
