// Package viewer serves live display slots to a browser.
//
// Each slot created through the display.Surface interface gets a page tile
// and a websocket; every Update is pushed to connected viewers as a binary
// message holding the encoded image.
package viewer

import (
	"embed"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/camview/pkg/display"
	"github.com/teslashibe/camview/pkg/encode"
	"github.com/teslashibe/camview/pkg/hub"
)

//go:embed static
var staticFS embed.FS

// DefaultAddr binds the viewer to localhost only.
const DefaultAddr = "127.0.0.1:8090"

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithFormat sets the image format slots are fed with.
func WithFormat(f encode.Format) Option {
	return func(s *Server) {
		s.format = f
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.log = logger
	}
}

// Server is the live display web server
type Server struct {
	app    *fiber.App
	addr   string
	format encode.Format
	log    *slog.Logger

	mu     sync.RWMutex
	slots  map[string]*Slot
	order  []string
	closed bool
}

// NewServer creates a new viewer server
func NewServer(opts ...Option) *Server {
	s := &Server{
		addr:   DefaultAddr,
		format: encode.JPEG,
		log:    slog.Default(),
		slots:  make(map[string]*Slot),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "viewer")

	app := fiber.New(fiber.Config{
		AppName:               "camview",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/displays", s.handleListDisplays)
	api.Get("/displays/:id", s.handleGetDisplay)
	api.Get("/displays/:id/frame", s.handleGetFrame)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/displays/:id", s.requireSlot, websocket.New(s.handleDisplayWS))

	// Viewer page
	app.Use("/", filesystem.New(filesystem.Config{
		Root:       http.FS(staticFS),
		PathPrefix: "static",
		Index:      "index.html",
	}))

	s.app = app
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Start starts the web server and blocks until it stops
func (s *Server) Start() error {
	s.log.Info("viewer listening", "url", "http://"+s.addr)
	return s.app.Listen(s.addr)
}

// Serve serves on an existing listener
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("viewer listening", "url", "http://"+ln.Addr().String())
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.log.Error("viewer stopped", "error", err)
		}
	}()
}

// Create implements display.Surface.
func (s *Server) Create(data []byte, width, height int) (display.Handle, error) {
	if len(data) == 0 {
		return nil, display.ErrEmptyImage
	}

	now := time.Now()
	id := display.NewID()
	slot := &Slot{
		id:          id,
		contentType: s.format.ContentType(),
		hub:         hub.New(id, s.log),
		width:       width,
		height:      height,
		latest:      data,
		createdAt:   now,
		updatedAt:   now,
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, display.ErrClosed
	}
	s.slots[id] = slot
	s.order = append(s.order, id)
	s.mu.Unlock()

	slot.hub.PublishImage(data)
	go slot.hub.Run()
	s.log.Info("display slot created", "display_id", id, "width", width, "height", height)
	return slot, nil
}

// Slot returns the slot with the given id, or nil.
func (s *Server) Slot(id string) *Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[id]
}

// Slots returns info for every slot in creation order.
func (s *Server) Slots() []SlotInfo {
	s.mu.RLock()
	slots := make([]*Slot, 0, len(s.order))
	for _, id := range s.order {
		slots = append(slots, s.slots[id])
	}
	s.mu.RUnlock()

	infos := make([]SlotInfo, len(slots))
	for i, slot := range slots {
		infos[i] = slot.Info()
	}
	return infos
}

// Shutdown disconnects viewers and stops the web server
func (s *Server) Shutdown() error {
	s.mu.Lock()
	s.closed = true
	slots := make([]*Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		slots = append(slots, slot)
	}
	s.mu.Unlock()

	for _, slot := range slots {
		slot.close()
	}
	return s.app.Shutdown()
}
