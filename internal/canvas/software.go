package canvas

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/gogpu/gg"

	"github.com/pleimann/multipicture/internal/geom"
	"github.com/pleimann/multipicture/internal/logging"
)

// BorderWidth is the outline width in pixels used by DrawRect.
const BorderWidth = 2.0

// Software rasterizes frames on the CPU with gg.
type Software struct {
	mu       sync.Mutex
	dc       *gg.Context
	vp       geom.Viewport
	textures map[TextureID]*image.RGBA
	nextID   TextureID
	sink     FrameSink
	frames   int
}

// NewSoftware returns a canvas of the given size. sink may be nil.
func NewSoftware(width, height int, sink FrameSink) *Software {
	return &Software{
		dc:       gg.NewContext(width, height),
		vp:       geom.Viewport{Width: width, Height: height},
		textures: make(map[TextureID]*image.RGBA),
		sink:     sink,
	}
}

func (s *Software) Resize(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.dc.Resize(width, height); err != nil {
		return fmt.Errorf("resize canvas: %w", err)
	}
	s.vp = geom.Viewport{Width: width, Height: height}
	return nil
}

// Viewport reports the current pixel size.
func (s *Software) Viewport() geom.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp
}

func (s *Software) UploadTexture(img image.Image) (TextureID, error) {
	if img == nil {
		return 0, fmt.Errorf("upload texture: nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return 0, fmt.Errorf("upload texture: empty image")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.textures[s.nextID] = rgba
	return s.nextID, nil
}

func (s *Software) DeleteTexture(id TextureID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.textures, id)
}

// TextureCount reports how many textures are resident.
func (s *Software) TextureCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.textures)
}

func (s *Software) DrawTexture(m geom.Matrix, id TextureID, alpha, fade float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tex, ok := s.textures[id]
	if !ok || alpha <= 0 {
		return
	}
	quad, ok := s.project(m)
	if !ok {
		return
	}
	inv, ok := squareToQuad(quad).invert()
	if !ok {
		return
	}

	alpha = clampUnit(alpha)
	fade = clampUnit(fade)
	s.tracePath(quad)
	s.dc.SetFillBrush(gg.NewCustomBrush(func(x, y float64) gg.RGBA {
		u, v, ok := inv.apply(x, y)
		if !ok || u < 0 || u > 1 || v < 0 || v > 1 {
			return gg.Transparent
		}
		c := sample(tex, u, v)
		return gg.RGBA{R: c.R * fade, G: c.G * fade, B: c.B * fade, A: c.A * alpha}
	}))
	if err := s.dc.Fill(); err != nil {
		logging.For("canvas").Debug("texture fill failed", "id", id, "error", err)
	}
}

func (s *Software) DrawRect(m geom.Matrix, fill, border *Color) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fill == nil && border == nil {
		return
	}
	quad, ok := s.project(m)
	if !ok {
		return
	}

	log := logging.For("canvas")
	if fill != nil {
		s.tracePath(quad)
		s.dc.SetFillBrush(gg.Solid(toRGBA(*fill)))
		if err := s.dc.Fill(); err != nil {
			log.Debug("rect fill failed", "error", err)
		}
	}
	if border != nil {
		s.tracePath(quad)
		s.dc.SetStrokeBrush(gg.Solid(toRGBA(*border)))
		s.dc.SetLineWidth(BorderWidth)
		if err := s.dc.Stroke(); err != nil {
			log.Debug("rect stroke failed", "error", err)
		}
	}
}

func (s *Software) SetClipRect(r geom.Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, y, w, h := s.vp.PixelRect(r)
	s.dc.ResetClip()
	s.dc.ClipRect(x, y, w, h)
}

func (s *Software) ClearClipRect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.ResetClip()
}

func (s *Software) DrawBackground(c Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dc.ClearWithColor(toRGBA(c))
}

// Swap hands the finished frame to the sink.
func (s *Software) Swap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	if s.sink != nil {
		s.sink.PublishFrame(s.dc.Image())
	}
	return true
}

// Frames reports how many frames were presented.
func (s *Software) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Snapshot returns a copy of the current back buffer.
func (s *Software) Snapshot() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dc.Image()
}

// project maps the screen quad through m into pixel space, in the order
// top-left, top-right, bottom-right, bottom-left.
func (s *Software) project(m geom.Matrix) ([4]point, bool) {
	r := geom.ScreenRect(s.vp.Aspect())
	corners := [4]geom.Vec3{
		{X: r.Left, Y: r.Top},
		{X: r.Right, Y: r.Top},
		{X: r.Right, Y: r.Bottom},
		{X: r.Left, Y: r.Bottom},
	}

	var quad [4]point
	for i, c := range corners {
		x, y, ok := s.vp.Project(m.Apply(c))
		if !ok {
			return quad, false
		}
		quad[i] = point{x, y}
	}
	return quad, true
}

func (s *Software) tracePath(q [4]point) {
	s.dc.ClearPath()
	s.dc.MoveTo(q[0].x, q[0].y)
	s.dc.LineTo(q[1].x, q[1].y)
	s.dc.LineTo(q[2].x, q[2].y)
	s.dc.LineTo(q[3].x, q[3].y)
	s.dc.ClosePath()
}

// sample reads tex bilinearly at normalized coordinates and returns a
// straight-alpha colour.
func sample(tex *image.RGBA, u, v float64) gg.RGBA {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()

	fx := u*float64(w) - 0.5
	fy := v*float64(h) - 0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)

	var acc [4]float64
	for j := 0; j < 2; j++ {
		wy := 1 - ty
		if j == 1 {
			wy = ty
		}
		for i := 0; i < 2; i++ {
			wx := 1 - tx
			if i == 1 {
				wx = tx
			}
			px := clampInt(x0+i, 0, w-1)
			py := clampInt(y0+j, 0, h-1)
			o := tex.PixOffset(b.Min.X+px, b.Min.Y+py)
			k := wx * wy
			acc[0] += float64(tex.Pix[o]) * k
			acc[1] += float64(tex.Pix[o+1]) * k
			acc[2] += float64(tex.Pix[o+2]) * k
			acc[3] += float64(tex.Pix[o+3]) * k
		}
	}

	if acc[3] <= 0 {
		return gg.Transparent
	}
	// image.RGBA is premultiplied.
	return gg.RGBA{R: acc[0] / acc[3], G: acc[1] / acc[3], B: acc[2] / acc[3], A: acc[3] / 255}
}

func toRGBA(c Color) gg.RGBA {
	return gg.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
