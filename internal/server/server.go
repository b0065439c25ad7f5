// Package server exposes the renderer over HTTP: the latest frame as PNG,
// a JSON status snapshot, and endpoints that inject host events.
package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/pleimann/multipicture/internal/action"
	"github.com/pleimann/multipicture/internal/display"
	"github.com/pleimann/multipicture/internal/logging"
	"github.com/pleimann/multipicture/internal/renderer"
)

// Renderer is the part of *renderer.Renderer the server drives.
type Renderer interface {
	State() renderer.State
	OnOffsetsChanged(o renderer.Offsets)
	OnVisibilityChanged(visible bool)
	OnSurfaceChanged(width, height int)
	OnDoubleTap()
	OnLowMemory()
	SetLocked(locked bool)
	OnProvidersChanged(names ...string)
}

// FrameSource yields the latest frame as PNG.
type FrameSource interface {
	PNG() ([]byte, uint64, error)
}

// ActionRunner runs keypad actions; *action.Executor satisfies it.
type ActionRunner interface {
	Execute(a action.Action) error
}

type Server struct {
	app      *fiber.App
	renderer Renderer
	frames   FrameSource
	actions  ActionRunner
}

// New builds the routes. actions may be nil, in which case /actions
// answers 404.
func New(r Renderer, frames FrameSource, actions ActionRunner) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "multipicture",
			DisableStartupMessage: true,
		}),
		renderer: r,
		frames:   frames,
		actions:  actions,
	}

	s.app.Get("/frame", s.serveFrame)
	s.app.Get("/status", s.serveStatus)
	s.app.Post("/events", s.postEvent)
	s.app.Post("/actions/:name", s.postAction)
	return s
}

// Listen blocks serving addr until Shutdown.
func (s *Server) Listen(addr string) error {
	logging.For("server").Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) serveFrame(c *fiber.Ctx) error {
	data, seq, err := s.frames.PNG()
	if errors.Is(err, display.ErrNoFrame) {
		return c.Status(fiber.StatusServiceUnavailable).SendString("No frame available")
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
	}

	etag := `"` + strconv.FormatUint(seq, 10) + `"`
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderETag, etag)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Send(data)
}

func (s *Server) serveStatus(c *fiber.Ctx) error {
	return c.JSON(s.renderer.State())
}

func (s *Server) postAction(c *fiber.Ctx) error {
	if s.actions == nil {
		return fiber.ErrNotFound
	}
	a, err := action.Parse(c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err := s.actions.Execute(a); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(fiber.StatusNoContent)
}
