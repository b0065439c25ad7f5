package geom

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestIdentityTransform(t *testing.T) {
	p := Identity().Apply(Vec3{1, -2, 3})
	if p != (Vec3{1, -2, 3}) {
		t.Errorf("Identity().Apply = %v, want {1 -2 3}", p)
	}
}

func TestPostMultiplyOrder(t *testing.T) {
	// translate then scale: the scale is applied to the point first.
	m := Identity().Translate(10, 0, 0).Scale(2, 2, 1)
	p := m.Apply(Vec3{1, 1, 0})
	if !near(p.X, 12) || !near(p.Y, 2) {
		t.Errorf("Translate.Scale applied to (1,1) = %v, want (12,2)", p)
	}

	m = Identity().Scale(2, 2, 1).Translate(10, 0, 0)
	p = m.Apply(Vec3{1, 1, 0})
	if !near(p.X, 22) || !near(p.Y, 2) {
		t.Errorf("Scale.Translate applied to (1,1) = %v, want (22,2)", p)
	}
}

func TestRotations(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
		in   Vec3
		want Vec3
	}{
		{"z 90", Identity().RotateZ(90), Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"y 90", Identity().RotateY(90), Vec3{1, 0, 0}, Vec3{0, 0, -1}},
		{"x 90", Identity().RotateX(90), Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"y 180", Identity().RotateY(180), Vec3{1, 0, 0}, Vec3{-1, 0, 0}},
		{"z -360", Identity().RotateZ(-360), Vec3{1, 0, 0}, Vec3{1, 0, 0}},
		{"z 45", Identity().RotateZ(45), Vec3{1, 0, 0}, Vec3{math.Sqrt2 / 2, math.Sqrt2 / 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.Apply(tt.in)
			if !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) || !near(got.Z, tt.want.Z) {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestProject(t *testing.T) {
	v := Viewport{Width: 200, Height: 100}

	x, y, ok := v.Project(Vec3{-2, 1, 0})
	if !ok || !near(x, 0) || !near(y, 0) {
		t.Errorf("Project(top-left) = (%v, %v, %v), want (0, 0, true)", x, y, ok)
	}
	x, y, ok = v.Project(Vec3{2, -1, 0})
	if !ok || !near(x, 200) || !near(y, 100) {
		t.Errorf("Project(bottom-right) = (%v, %v, %v), want (200, 100, true)", x, y, ok)
	}

	// Farther away points move toward the center.
	x, _, ok = v.Project(Vec3{2, 0, -EyeDistance})
	if !ok || !near(x, 150) {
		t.Errorf("Project(far right) x = %v, want 150", x)
	}

	if _, _, ok := v.Project(Vec3{0, 0, EyeDistance}); ok {
		t.Error("Project(at eye) ok = true, want false")
	}
}

func TestPixelRect(t *testing.T) {
	v := Viewport{Width: 200, Height: 100}
	x, y, w, h := v.PixelRect(Rect{Left: 0, Top: 1, Right: 2, Bottom: 0})
	if !near(x, 100) || !near(y, 0) || !near(w, 100) || !near(h, 50) {
		t.Errorf("PixelRect = (%v, %v, %v, %v), want (100, 0, 100, 50)", x, y, w, h)
	}

	if !(Rect{Left: 1, Top: 1, Right: 1, Bottom: 0}).Empty() {
		t.Error("zero-width rect should be empty")
	}
}
