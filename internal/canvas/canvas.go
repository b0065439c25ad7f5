// Package canvas is the drawing surface the renderer paints frames on.
package canvas

import (
	"image"

	"github.com/pleimann/multipicture/internal/geom"
)

// TextureID names an uploaded texture. Zero is never a valid id.
type TextureID int

// Color is a straight-alpha colour with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// FromARGB unpacks 0xAARRGGBB.
func FromARGB(c uint32) Color {
	return Color{
		R: float64(c>>16&0xff) / 255,
		G: float64(c>>8&0xff) / 255,
		B: float64(c&0xff) / 255,
		A: float64(c>>24&0xff) / 255,
	}
}

// WithAlpha returns c with its alpha replaced.
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// ARGB packs c as 0xAARRGGBB.
func (c Color) ARGB() uint32 {
	return uint32(clamp8(c.A))<<24 | uint32(clamp8(c.R))<<16 | uint32(clamp8(c.G))<<8 | uint32(clamp8(c.B))
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Canvas draws quads in scene space. Every quad is the screen rectangle
// transformed by a matrix; see package geom for the coordinate system.
//
// A Canvas is owned by one goroutine; implementations need not be safe for
// concurrent drawing.
type Canvas interface {
	Resize(width, height int) error
	UploadTexture(img image.Image) (TextureID, error)
	DeleteTexture(id TextureID)
	// DrawTexture stretches a texture over the quad. alpha scales opacity
	// and fade scales colour toward black.
	DrawTexture(m geom.Matrix, id TextureID, alpha, fade float64)
	// DrawRect fills and/or outlines the quad. Nil colours are skipped.
	DrawRect(m geom.Matrix, fill, border *Color)
	SetClipRect(r geom.Rect)
	ClearClipRect()
	DrawBackground(c Color)
	// Swap presents the frame. It returns false when the surface was lost.
	Swap() bool
}

// FrameSink receives each presented frame.
type FrameSink interface {
	PublishFrame(img image.Image)
}
