package viewer

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/camview/pkg/hub"
)

// handleListDisplays returns every slot
func (s *Server) handleListDisplays(c *fiber.Ctx) error {
	return c.JSON(s.Slots())
}

// handleGetDisplay returns one slot
func (s *Server) handleGetDisplay(c *fiber.Ctx) error {
	slot := s.Slot(c.Params("id"))
	if slot == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "display not found",
		})
	}
	return c.JSON(slot.Info())
}

// handleGetFrame returns the image currently shown in a slot
func (s *Server) handleGetFrame(c *fiber.Ctx) error {
	slot := s.Slot(c.Params("id"))
	if slot == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "display not found",
		})
	}
	data, contentType := slot.Latest()
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}

// requireSlot rejects websocket upgrades for unknown slots
func (s *Server) requireSlot(c *fiber.Ctx) error {
	slot := s.Slot(c.Params("id"))
	if slot == nil {
		return fiber.ErrNotFound
	}
	c.Locals("slot", slot)
	return c.Next()
}

// handleDisplayWS streams a slot to one viewer: slot info as JSON, the
// current image, then every update. The hub supplies the current image when
// the viewer joins, so no update can fall between snapshot and join.
func (s *Server) handleDisplayWS(c *websocket.Conn) {
	slot, ok := c.Locals("slot").(*Slot)
	if !ok {
		c.Close()
		return
	}

	info, err := json.Marshal(slot.Info())
	if err != nil {
		c.Close()
		return
	}
	v := hub.Attach(slot.hub, c, hub.NewText(info))
	if v == nil {
		c.Close()
		return
	}
	v.Serve()
}
