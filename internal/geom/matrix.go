// Package geom provides the 4x4 transform and projection math used to place
// textured quads in the scene.
//
// The scene is a right-handed space in which the visible screen is the z=0
// rectangle x in [-aspect, aspect], y in [-1, 1]. Matrices operate on column
// vectors and every chaining method post-multiplies, so the operation
// written last is the first one applied to a point.
package geom

import (
	"math"

	"golang.org/x/image/math/f64"
)

// Vec3 is a point in scene space.
type Vec3 struct {
	X, Y, Z float64
}

// Vec4 is a homogeneous point.
type Vec4 struct {
	X, Y, Z, W float64
}

// Matrix is a 4x4 transform stored in row-major order.
type Matrix struct {
	m f64.Mat4
}

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{m: f64.Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

// FromMat4 wraps a row-major matrix.
func FromMat4(m f64.Mat4) Matrix {
	return Matrix{m: m}
}

// Mat4 returns the row-major elements.
func (a Matrix) Mat4() f64.Mat4 {
	return a.m
}

// At returns the element at row r, column c.
func (a Matrix) At(r, c int) float64 {
	return a.m[r*4+c]
}

// Mul returns a × b.
func (a Matrix) Mul(b Matrix) Matrix {
	var out f64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += a.m[r*4+k] * b.m[k*4+c]
			}
			out[r*4+c] = s
		}
	}
	return Matrix{m: out}
}

// Translate returns a × T(x, y, z).
func (a Matrix) Translate(x, y, z float64) Matrix {
	return a.Mul(Matrix{m: f64.Mat4{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	}})
}

// Scale returns a × S(x, y, z).
func (a Matrix) Scale(x, y, z float64) Matrix {
	return a.Mul(Matrix{m: f64.Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}})
}

// RotateX returns a × Rx(deg).
func (a Matrix) RotateX(deg float64) Matrix {
	s, c := sincos(deg)
	return a.Mul(Matrix{m: f64.Mat4{
		1, 0, 0, 0,
		0, c, -s, 0,
		0, s, c, 0,
		0, 0, 0, 1,
	}})
}

// RotateY returns a × Ry(deg).
func (a Matrix) RotateY(deg float64) Matrix {
	s, c := sincos(deg)
	return a.Mul(Matrix{m: f64.Mat4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}})
}

// RotateZ returns a × Rz(deg).
func (a Matrix) RotateZ(deg float64) Matrix {
	s, c := sincos(deg)
	return a.Mul(Matrix{m: f64.Mat4{
		c, -s, 0, 0,
		s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}})
}

// Transform applies the matrix to p with w = 1.
func (a Matrix) Transform(p Vec3) Vec4 {
	m := &a.m
	return Vec4{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
		W: m[12]*p.X + m[13]*p.Y + m[14]*p.Z + m[15],
	}
}

// Apply transforms p and divides by w.
func (a Matrix) Apply(p Vec3) Vec3 {
	v := a.Transform(p)
	if v.W == 0 || v.W == 1 {
		return Vec3{v.X, v.Y, v.Z}
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}

// ApproxEqual reports whether every element of a and b differs by at most eps.
func (a Matrix) ApproxEqual(b Matrix, eps float64) bool {
	for i := range a.m {
		if math.Abs(a.m[i]-b.m[i]) > eps {
			return false
		}
	}
	return true
}

func sincos(deg float64) (float64, float64) {
	// Exact values for right angles keep axis-aligned quads crisp.
	switch math.Mod(deg, 360) {
	case 0:
		return 0, 1
	case 90, -270:
		return 1, 0
	case 180, -180:
		return 0, -1
	case 270, -90:
		return -1, 0
	}
	return math.Sincos(deg * math.Pi / 180)
}
