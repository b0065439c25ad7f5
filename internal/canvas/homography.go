package canvas

// homography maps the unit square onto a quadrilateral:
//
//	x = (a*u + b*v + c) / (g*u + h*v + 1)
//	y = (d*u + e*v + f) / (g*u + h*v + 1)
type homography [9]float64

type point struct{ x, y float64 }

// squareToQuad builds the mapping for corners (0,0), (1,0), (1,1), (0,1)
// landing on q[0], q[1], q[2], q[3].
func squareToQuad(q [4]point) homography {
	sx := q[0].x - q[1].x + q[2].x - q[3].x
	sy := q[0].y - q[1].y + q[2].y - q[3].y

	if sx == 0 && sy == 0 {
		return homography{
			q[1].x - q[0].x, q[3].x - q[0].x, q[0].x,
			q[1].y - q[0].y, q[3].y - q[0].y, q[0].y,
			0, 0, 1,
		}
	}

	dx1, dx2 := q[1].x-q[2].x, q[3].x-q[2].x
	dy1, dy2 := q[1].y-q[2].y, q[3].y-q[2].y
	den := dx1*dy2 - dx2*dy1
	if den == 0 {
		return homography{}
	}
	g := (sx*dy2 - dx2*sy) / den
	h := (dx1*sy - sx*dy1) / den
	return homography{
		q[1].x - q[0].x + g*q[1].x, q[3].x - q[0].x + h*q[3].x, q[0].x,
		q[1].y - q[0].y + g*q[1].y, q[3].y - q[0].y + h*q[3].y, q[0].y,
		g, h, 1,
	}
}

// invert returns the inverse mapping; ok is false for a degenerate quad.
func (m homography) invert() (homography, bool) {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]

	A := e*i - f*h
	B := -(d*i - f*g)
	C := d*h - e*g
	det := a*A + b*B + c*C
	if det == 0 {
		return homography{}, false
	}
	inv := 1 / det
	return homography{
		A * inv, -(b*i - c*h) * inv, (b*f - c*e) * inv,
		B * inv, (a*i - c*g) * inv, -(a*f - c*d) * inv,
		C * inv, -(a*h - b*g) * inv, (a*e - b*d) * inv,
	}, true
}

func (m homography) apply(x, y float64) (float64, float64, bool) {
	w := m[6]*x + m[7]*y + m[8]
	if w == 0 {
		return 0, 0, false
	}
	return (m[0]*x + m[1]*y + m[2]) / w, (m[3]*x + m[4]*y + m[5]) / w, true
}
