package renderer

import (
	"math"
	"time"

	"github.com/pleimann/multipicture/internal/canvas"
	"github.com/pleimann/multipicture/internal/config"
	"github.com/pleimann/multipicture/internal/transition"
)

// candidates lists the screens that can be on screen at the current
// scroll position: the 2x2 block around it plus the keyguard screen.
func (r *Renderer) candidates() (ds []transition.ScreenDelta, dx, dy float64) {
	xn := int(math.Floor(r.xcur))
	yn := int(math.Floor(r.ycur))
	dx = float64(xn) - r.xcur
	dy = float64(yn) - r.ycur

	ds = []transition.ScreenDelta{
		r.gridDelta(xn, yn, dx, dy, true),
		r.gridDelta(xn+1, yn, dx+1, dy, dx != 0),
		r.gridDelta(xn, yn+1, dx, dy+1, dy != 0),
		r.gridDelta(xn+1, yn+1, dx+1, dy+1, dx != 0 && dy != 0),
		{
			Index:    config.KeyguardIndex,
			DX:       r.keyguardDX,
			DA:       1,
			Visible:  r.keyguardVisible && r.keyguard != nil,
			Keyguard: true,
		},
	}
	return ds, dx, dy
}

func (r *Renderer) gridDelta(xn, yn int, dx, dy float64, visible bool) transition.ScreenDelta {
	idx := r.cols*yn + xn
	d := transition.ScreenDelta{Index: idx, DX: dx, DY: dy, DA: r.keyguardDX}
	d.Visible = visible && d.DA > 0 &&
		xn >= 0 && xn < r.cols && yn >= 0 && yn < r.rows &&
		idx < len(r.slots)
	return d
}

// drawScene paints the background and every visible screen.
func (r *Renderer) drawScene(now time.Time) {
	ds, dx, dy := r.candidates()
	kind := r.transitions.Select(dx, dy, now)

	var color uint32
	for _, d := range ds {
		if d.Visible {
			color = mergeColor(color, r.slotAt(d.Index).weightedColor(d.DX, d.DY, d.DA))
		}
	}
	r.bgColor = color | 0xff000000
	r.canvas.DrawBackground(canvas.FromARGB(r.bgColor))

	if transition.NeedsDepthSort(kind) {
		transition.SortBackToFront(ds)
	}
	for _, d := range ds {
		if !d.Visible {
			continue
		}
		k := kind
		if d.Keyguard {
			k = transition.FadeInOut
		}
		r.drawSlot(r.slotAt(d.Index), k, d.DX, d.DY, now)
	}
}

// drawSlot paints one screen with its transition effect.
func (r *Renderer) drawSlot(s *slot, kind transition.Kind, dx, dy float64, now time.Time) {
	effect, ok := transition.Compute(kind, dx, dy, float64(r.width)/float64(r.height))
	if !ok {
		return
	}
	if effect.Clip != nil {
		r.canvas.SetClipRect(*effect.Clip)
		defer r.canvas.ClearClipRect()
	}

	var tex *textureInfo
	switch s.status {
	case Normal, FadeIn, FadeOut, NotAvailable:
		tex = &s.tex
	case Spinner:
		tex = &r.spinner
	}

	var bg *canvas.Color
	if effect.FillBackground {
		c := canvas.FromARGB(s.backgroundColor()).WithAlpha(1)
		bg = &c
	}

	fade := s.fadeRatio()
	border := 1 - fade
	opacity := 1.0
	if s.status == Spinner || s.status == NotAvailable {
		border = 1
		opacity = s.opacity
	}

	switch {
	case effect.NeedBorder && border > 0:
		bc := canvas.FromARGB(BorderColor).WithAlpha(effect.Alpha * border)
		r.canvas.DrawRect(effect.Matrix, bg, &bc)
	case effect.FillBackground:
		r.canvas.DrawRect(effect.Matrix, bg, nil)
	}

	m := effect.Matrix
	if s.status == Spinner {
		frame := (now.UnixMilli() / SpinnerFrameDuration.Milliseconds()) % SpinnerTotalFrames
		m = m.RotateZ(-360 * float64(frame) / SpinnerTotalFrames)
	}

	if tex == nil {
		return
	}
	id, ok := tex.uploadedID()
	if !ok {
		return
	}

	alpha := effect.Alpha * fade
	center := m.Scale(tex.widthRatio, tex.heightRatio, 1)
	r.canvas.DrawTexture(center, id, alpha*opacity, fade)

	if !tex.enableReflection {
		return
	}
	if r.reflectTop {
		top := center.Translate(0, 2, 0).Scale(1, -1, 1)
		if effect.FillBackground {
			r.canvas.DrawRect(top, bg, nil)
		}
		r.canvas.DrawTexture(top, id, alpha*opacity/4, fade)
	}
	if r.reflectBottom {
		bottom := center.Translate(0, -2, 0).Scale(1, -1, 1)
		if effect.FillBackground {
			r.canvas.DrawRect(bottom, bg, nil)
		}
		r.canvas.DrawTexture(bottom, id, alpha*opacity/4, fade)
	}
}
