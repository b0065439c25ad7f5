package renderer

// normalizeOffsets rewrites the offsets reported by launchers that do not
// follow the usual convention. portrait is only consulted by the
// honeycomb_launcher workaround.
func normalizeOffsets(launcher string, o Offsets, portrait bool) Offsets {
	switch launcher {
	case "htc_sense", "htc_sense_5screen":
		if o.XStep < 0 {
			n := 7
			if launcher == "htc_sense_5screen" {
				n = 5
			}
			margin := 1 / float64(n+1)
			o.XStep = 1 / float64(n-1)
			o.X = (o.X - margin) / (1 - margin*2)
		}
	case "honeycomb_launcher":
		if portrait {
			o.X = (o.X - 0.25) * 2
		}
		o.Y, o.YStep = 0, 0
	case "no_vertical":
		o.Y, o.YStep = 0, 0
	case "force_5screen":
		o.XStep = 1.0 / 4
		o.Y, o.YStep = 0, 0
	case "force_7screen":
		o.XStep = 1.0 / 6
		o.Y, o.YStep = 0, 0
	}
	return o
}

// gridSize is the number of screens along an axis with the given step.
func gridSize(step float64) int {
	if step <= 0 {
		return 1
	}
	return int(1/step) + 1
}

// changeOffsets moves the view. A change in grid size discards every slot.
func (r *Renderer) changeOffsets(o Offsets) {
	o = normalizeOffsets(r.launcher, o, r.height > r.width)

	cols, rows := gridSize(o.XStep), gridSize(o.YStep)
	if cols != r.cols || rows != r.rows {
		r.cols, r.rows = cols, rows
		r.clearSlots()
		r.updateScreenSize()
	}

	r.xcur, r.ycur = 0, 0
	if o.XStep > 0 {
		r.xcur = o.X / o.XStep
	}
	if o.YStep > 0 {
		r.ycur = o.Y / o.YStep
	}
}
