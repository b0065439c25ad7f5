package geom

// EyeDistance is how far in front of the screen plane the viewer sits.
// The vertical field of view is chosen so the z=0 screen exactly fills the
// viewport.
const EyeDistance = 3.0

const nearPlane = 0.05

// Rect is an axis-aligned rectangle in scene units with Top > Bottom.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// ScreenRect returns the rectangle covered by the visible screen.
func ScreenRect(aspect float64) Rect {
	return Rect{Left: -aspect, Top: 1, Right: aspect, Bottom: -1}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Top <= r.Bottom
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// Viewport maps projected scene coordinates onto a pixel surface.
type Viewport struct {
	Width, Height int
}

// Aspect returns width / height, or 1 for a degenerate viewport.
func (v Viewport) Aspect() float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return 1
	}
	return float64(v.Width) / float64(v.Height)
}

// Project maps a scene point to pixel coordinates. ok is false when the
// point is at or behind the eye.
func (v Viewport) Project(p Vec3) (x, y float64, ok bool) {
	depth := EyeDistance - p.Z
	if depth < nearPlane {
		return 0, 0, false
	}
	f := EyeDistance / depth
	return v.PixelX(p.X * f), v.PixelY(p.Y * f), true
}

// PixelX converts a scene x on the z=0 plane to a pixel column.
func (v Viewport) PixelX(sx float64) float64 {
	return (sx/v.Aspect() + 1) / 2 * float64(v.Width)
}

// PixelY converts a scene y on the z=0 plane to a pixel row.
func (v Viewport) PixelY(sy float64) float64 {
	return (1 - sy) / 2 * float64(v.Height)
}

// PixelRect converts a z=0 scene rectangle to pixel x, y, width and height.
func (v Viewport) PixelRect(r Rect) (x, y, w, h float64) {
	x0 := v.PixelX(r.Left)
	x1 := v.PixelX(r.Right)
	y0 := v.PixelY(r.Top)
	y1 := v.PixelY(r.Bottom)
	return x0, y0, x1 - x0, y1 - y0
}
