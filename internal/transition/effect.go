package transition

import (
	"math"

	"github.com/pleimann/multipicture/internal/geom"
)

// Effect describes how one screen is drawn at a given scroll delta.
type Effect struct {
	Matrix         geom.Matrix
	Clip           *geom.Rect
	Alpha          float64
	FillBackground bool
	NeedBorder     bool
}

type effectFunc func(e *Effect, dx, dy, aspect float64) bool

var effects = map[Kind]effectFunc{
	None:       noneEffect,
	Crossfade:  crossfadeEffect,
	FadeInOut:  fadeInOutEffect,
	Slide:      slideEffect,
	ZoomInOut:  zoomInOutEffect,
	Wipe:       wipeEffect,
	Card:       cardEffect,
	Slide3D:    slide3DEffect,
	Rotation3D: rotation3DEffect,
	Swing:      swingEffect,
	Swap:       swapEffect,
	Cube:       cubeEffect,
}

// Compute returns the effect for a screen displaced by (dx, dy) screens from
// the viewport. ok is false when the screen is not drawn at all. Random must
// be resolved to a concrete kind first; it draws nothing.
func Compute(kind Kind, dx, dy, aspect float64) (Effect, bool) {
	e := Effect{Matrix: geom.Identity(), Alpha: 1}
	fn, found := effects[kind]
	if !found {
		return Effect{}, false
	}
	if !fn(&e, dx, dy, aspect) {
		return Effect{}, false
	}
	return e, true
}

func halfRange(dx, dy float64) bool {
	return dx > -0.5 && dx <= 0.5 && dy > -0.5 && dy <= 0.5
}

func openRange(dx, dy float64) bool {
	return dx > -1 && dx < 1 && dy > -1 && dy < 1
}

func noneEffect(e *Effect, dx, dy, _ float64) bool {
	if !halfRange(dx, dy) {
		return false
	}
	e.FillBackground = true
	return true
}

func crossfadeEffect(e *Effect, dx, dy, _ float64) bool {
	if !openRange(dx, dy) {
		return false
	}
	e.Alpha *= (1 - math.Abs(dx)) * (1 - math.Abs(dy))
	return true
}

func fadeInOutEffect(e *Effect, dx, dy, _ float64) bool {
	if !halfRange(dx, dy) {
		return false
	}
	e.Alpha *= 1 - math.Max(math.Abs(dx), math.Abs(dy))*2
	return true
}

func slideEffect(e *Effect, dx, dy, aspect float64) bool {
	e.Matrix = e.Matrix.Translate(dx*2*aspect, -dy*2, 0)
	e.FillBackground = true
	return true
}

func zoomInOutEffect(e *Effect, dx, dy, aspect float64) bool {
	if !openRange(dx, dy) {
		return false
	}
	f := math.Min(1-math.Abs(dx), 1-math.Abs(dy))
	e.Matrix = e.Matrix.
		Translate(dx*aspect, -dy, 0).
		Scale(f, f, 1)
	return true
}

func wipeEffect(e *Effect, dx, dy, aspect float64) bool {
	if !openRange(dx, dy) {
		return false
	}
	var l, t, r, b float64
	if dx <= 0 {
		l, r = -1, dx*2+1
	} else {
		l, r = dx*2-1, 1
	}
	if dy <= 0 {
		t, b = 1, -dy*2-1
	} else {
		t, b = -dy*2+1, -1
	}
	e.Clip = &geom.Rect{Left: l * aspect, Top: t, Right: r * aspect, Bottom: b}
	e.FillBackground = true
	return true
}

func cardEffect(e *Effect, dx, dy, aspect float64) bool {
	if dx < -1 || dy < -1 {
		return false
	}
	tx := math.Max(dx, 0) * aspect
	ty := math.Max(dy, 0)
	e.Matrix = e.Matrix.Translate(tx*2, -ty*2, 0)
	e.FillBackground = true
	return true
}

func slide3DEffect(e *Effect, dx, dy, aspect float64) bool {
	if dx > 1 || dy > 1 {
		return false
	}
	const ratio = 3.0
	tx := -math.Log(1 - dx)
	ty := -math.Log(1 - dy)
	e.Matrix = e.Matrix.Translate(
		(tx+ty*0.25)*ratio*aspect,
		(tx*0.25+ty)*-ratio,
		(dx+dy)*8)
	e.Alpha *= math.Min(math.Min(dx, dy)+1, 1)
	return true
}

func rotation3DEffect(e *Effect, dx, dy, aspect float64) bool {
	if !halfRange(dx, dy) {
		return false
	}
	f := 1 - (1-math.Abs(dx))*(1-math.Abs(dy))
	e.Matrix = e.Matrix.
		Translate(0, 0, f*-(1+aspect)).
		RotateY(dx * 180).
		RotateX(dy * -180)
	e.NeedBorder = true
	return true
}

func swingEffect(e *Effect, dx, dy, aspect float64) bool {
	tx, ty := -aspect, 1.0
	if dx <= 0 {
		tx = aspect
	}
	if dy <= 0 {
		ty = -1
	}
	e.Matrix = e.Matrix.
		Translate(-tx, -ty, 0).
		RotateY(dx*-120).
		RotateX(dy*120).
		Translate(tx, ty, 0)
	e.NeedBorder = true
	return true
}

func swapEffect(e *Effect, dx, dy, aspect float64) bool {
	f := math.Max(math.Abs(dx), math.Abs(dy))
	a1 := f * math.Pi
	a2 := math.Atan2(-dy, dx)
	e.Matrix = e.Matrix.Translate(
		math.Cos(a2)*math.Sin(a1)*1.01*aspect,
		math.Sin(a2)*math.Sin(a1)*-1.01,
		(math.Cos(a1)-1)*2)
	e.Alpha *= math.Min((math.Cos(a1)+1)*2, 1)
	return true
}

func cubeEffect(e *Effect, dx, dy, aspect float64) bool {
	f := math.Max(math.Abs(dx), math.Abs(dy))
	a1 := f * math.Pi / 2
	a2 := math.Atan2(-dy, dx)
	e.Matrix = e.Matrix.
		Translate(
			math.Cos(a2)*math.Sin(a1)*aspect,
			math.Sin(a2)*math.Sin(a1),
			(math.Cos(a1)-1)*(aspect+1)*0.5).
		RotateY(dx * 90).
		RotateX(dy * -90)
	e.Alpha *= math.Min(math.Cos(a1), 1)
	e.NeedBorder = true
	return true
}
