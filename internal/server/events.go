package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/pleimann/multipicture/internal/logging"
	"github.com/pleimann/multipicture/internal/renderer"
)

// Event is a host notification posted to /events. Type selects which of
// the other fields are read.
type Event struct {
	Type string `json:"type"`

	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	XStep   float64 `json:"x_step"`
	YStep   float64 `json:"y_step"`
	XPixels int     `json:"x_pixels"`
	YPixels int     `json:"y_pixels"`

	Visible bool `json:"visible"`
	Locked  bool `json:"locked"`

	Width  int `json:"width"`
	Height int `json:"height"`

	Providers []string `json:"providers"`
}

func (s *Server) postEvent(c *fiber.Ctx) error {
	var ev Event
	if err := c.BodyParser(&ev); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON")
	}
	if err := s.dispatch(ev); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) dispatch(ev Event) error {
	logging.For("server").Debug("event", "type", ev.Type)

	switch ev.Type {
	case "offsets":
		s.renderer.OnOffsetsChanged(renderer.Offsets{
			X: ev.X, Y: ev.Y,
			XStep: ev.XStep, YStep: ev.YStep,
			XPixels: ev.XPixels, YPixels: ev.YPixels,
		})
	case "visibility":
		s.renderer.OnVisibilityChanged(ev.Visible)
	case "surface":
		if ev.Width <= 0 || ev.Height <= 0 {
			return fmt.Errorf("surface size must be positive, got %dx%d", ev.Width, ev.Height)
		}
		s.renderer.OnSurfaceChanged(ev.Width, ev.Height)
	case "double_tap":
		s.renderer.OnDoubleTap()
	case "low_memory":
		s.renderer.OnLowMemory()
	case "lock":
		s.renderer.SetLocked(ev.Locked)
	case "providers":
		s.renderer.OnProvidersChanged(ev.Providers...)
	case "":
		return fmt.Errorf("missing event type")
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}
