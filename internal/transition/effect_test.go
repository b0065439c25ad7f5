package transition

import (
	"math"
	"testing"

	"github.com/pleimann/multipicture/internal/geom"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestComputeVisibility(t *testing.T) {
	tests := []struct {
		kind   Kind
		dx, dy float64
		want   bool
	}{
		{None, 0, 0, true},
		{None, 0.5, 0, true},
		{None, -0.5, 0, false},
		{None, 0.6, 0, false},
		{Crossfade, 0.99, 0, true},
		{Crossfade, 1, 0, false},
		{Crossfade, -1, 0, false},
		{FadeInOut, 0.5, 0.5, true},
		{FadeInOut, 0, -0.5, false},
		{Slide, 5, -5, true},
		{ZoomInOut, -0.999, 0, true},
		{ZoomInOut, 0, 1, false},
		{Wipe, 0.3, 0, true},
		{Wipe, -1, 0, false},
		{Card, -1, -1, true},
		{Card, -1.01, 0, false},
		{Card, 3, 0, true},
		{Slide3D, 1, 0, true},
		{Slide3D, 1.01, 0, false},
		{Slide3D, -3, 0, true},
		{Rotation3D, 0.5, 0, true},
		{Rotation3D, 0.51, 0, false},
		{Swing, -0.9, 0.2, true},
		{Swap, 1, 1, true},
		{Cube, 1, 0, true},
		{Random, 0, 0, false},
	}

	for _, tt := range tests {
		_, ok := Compute(tt.kind, tt.dx, tt.dy, 0.75)
		if ok != tt.want {
			t.Errorf("Compute(%v, %v, %v) ok = %v, want %v", tt.kind, tt.dx, tt.dy, ok, tt.want)
		}
	}
}

func TestNoDisplacementIsIdentity(t *testing.T) {
	for _, k := range RandomPool {
		e, ok := Compute(k, 0, 0, 0.6)
		if !ok {
			t.Errorf("%v at rest not drawn", k)
			continue
		}
		if !e.Matrix.ApproxEqual(geom.Identity(), 1e-9) {
			t.Errorf("%v at rest matrix = %v, want identity", k, e.Matrix.Mat4())
		}
		if !approx(e.Alpha, 1) {
			t.Errorf("%v at rest alpha = %v, want 1", k, e.Alpha)
		}
	}
}

func TestAlphaFormulas(t *testing.T) {
	tests := []struct {
		kind   Kind
		dx, dy float64
		want   float64
	}{
		{Crossfade, 0.5, 0, 0.5},
		{Crossfade, -0.5, 0.5, 0.25},
		{FadeInOut, 0.25, 0, 0.5},
		{FadeInOut, 0.1, -0.4, 0.2},
		{Slide3D, -0.5, 0, 0.5},
		{Slide3D, 0.5, 0.2, 1},
		{Swap, 0.5, 0, 1},
		{Swap, 0.75, 0, math.Min((math.Cos(0.75*math.Pi)+1)*2, 1)},
		{Cube, 0.5, 0, math.Cos(math.Pi / 4)},
		{Slide, 0.4, 0, 1},
	}

	for _, tt := range tests {
		e, ok := Compute(tt.kind, tt.dx, tt.dy, 1)
		if !ok {
			t.Errorf("%v(%v,%v) not drawn", tt.kind, tt.dx, tt.dy)
			continue
		}
		if !approx(e.Alpha, tt.want) {
			t.Errorf("%v(%v,%v) alpha = %v, want %v", tt.kind, tt.dx, tt.dy, e.Alpha, tt.want)
		}
	}
}

func TestFlags(t *testing.T) {
	tests := []struct {
		kind   Kind
		fill   bool
		border bool
	}{
		{None, true, false},
		{Crossfade, false, false},
		{FadeInOut, false, false},
		{Slide, true, false},
		{ZoomInOut, false, false},
		{Wipe, true, false},
		{Card, true, false},
		{Slide3D, false, false},
		{Rotation3D, false, true},
		{Swing, false, true},
		{Swap, false, false},
		{Cube, false, true},
	}

	for _, tt := range tests {
		e, _ := Compute(tt.kind, 0, 0, 1)
		if e.FillBackground != tt.fill || e.NeedBorder != tt.border {
			t.Errorf("%v fill=%v border=%v, want fill=%v border=%v",
				tt.kind, e.FillBackground, e.NeedBorder, tt.fill, tt.border)
		}
	}
}

func TestSlideTranslation(t *testing.T) {
	e, _ := Compute(Slide, -0.25, 0.5, 0.5)
	p := e.Matrix.Apply(geom.Vec3{})
	if !approx(p.X, -0.25) || !approx(p.Y, -1) || !approx(p.Z, 0) {
		t.Errorf("slide origin = %v, want (-0.25, -1, 0)", p)
	}
}

func TestZoomInOutScale(t *testing.T) {
	e, _ := Compute(ZoomInOut, 0.5, 0, 2)
	// The corner (aspect, 1) scales by 0.5 then shifts right by dx*aspect.
	p := e.Matrix.Apply(geom.Vec3{X: 2, Y: 1})
	if !approx(p.X, 2) || !approx(p.Y, 0.5) {
		t.Errorf("zoom corner = %v, want (2, 0.5)", p)
	}
}

func TestWipeClip(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   geom.Rect
	}{
		{0, 0, geom.Rect{Left: -2, Top: 1, Right: 2, Bottom: -1}},
		{0.25, 0, geom.Rect{Left: -1, Top: 1, Right: 2, Bottom: -1}},
		{-0.25, 0, geom.Rect{Left: -2, Top: 1, Right: 1, Bottom: -1}},
		{0, 0.5, geom.Rect{Left: -2, Top: 0, Right: 2, Bottom: -1}},
		{0, -0.5, geom.Rect{Left: -2, Top: 1, Right: 2, Bottom: 0}},
	}

	for _, tt := range tests {
		e, ok := Compute(Wipe, tt.dx, tt.dy, 2)
		if !ok || e.Clip == nil {
			t.Errorf("wipe(%v,%v) has no clip", tt.dx, tt.dy)
			continue
		}
		c := *e.Clip
		if !approx(c.Left, tt.want.Left) || !approx(c.Top, tt.want.Top) ||
			!approx(c.Right, tt.want.Right) || !approx(c.Bottom, tt.want.Bottom) {
			t.Errorf("wipe(%v,%v) clip = %+v, want %+v", tt.dx, tt.dy, c, tt.want)
		}
	}
}

func TestCardOnlyMovesOutgoing(t *testing.T) {
	// The incoming screen (negative delta) stays put under the outgoing one.
	e, _ := Compute(Card, -0.3, 0, 1)
	if !e.Matrix.ApproxEqual(geom.Identity(), eps) {
		t.Error("card with negative delta should not move")
	}
	e, _ = Compute(Card, 0.3, 0, 1)
	if p := e.Matrix.Apply(geom.Vec3{}); !approx(p.X, 0.6) {
		t.Errorf("card origin x = %v, want 0.6", p.X)
	}
}

func TestRotation3DFlipsHalfway(t *testing.T) {
	e, _ := Compute(Rotation3D, 0.5, 0, 1)
	// Rotated 90 degrees about Y the right edge points along -z.
	p := e.Matrix.Apply(geom.Vec3{X: 1})
	if !approx(p.X, 0) {
		t.Errorf("rotated edge x = %v, want 0", p.X)
	}
	if !approx(p.Z, -1-0.5*2) {
		t.Errorf("rotated edge z = %v, want %v", p.Z, -1-0.5*2)
	}
}

func TestSwingHingesOnEdge(t *testing.T) {
	// A screen displaced to the right turns about its right edge.
	e, _ := Compute(Swing, 0.4, 0, 1.5)
	p := e.Matrix.Apply(geom.Vec3{X: 1.5, Y: 1})
	if !approx(p.X, 1.5) || !approx(p.Y, 1) || !approx(p.Z, 0) {
		t.Errorf("hinge corner moved to %v", p)
	}
}

func TestCubeQuarterTurn(t *testing.T) {
	e, _ := Compute(Cube, 1, 0, 1)
	if !approx(e.Alpha, 0) {
		t.Errorf("cube at full turn alpha = %v, want 0", e.Alpha)
	}
	p := e.Matrix.Apply(geom.Vec3{})
	if !approx(p.X, 1) || !approx(p.Z, -1) {
		t.Errorf("cube center = %v, want (1, 0, -1)", p)
	}
}
