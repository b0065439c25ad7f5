package transition

import (
	"math"
	"sort"
)

// ScreenDelta is one candidate screen in a frame.
type ScreenDelta struct {
	Index    int
	DX, DY   float64
	DA       float64
	Visible  bool
	Keyguard bool
}

// Distance is the larger of |DX| and |DY|.
func (d ScreenDelta) Distance() float64 {
	return math.Max(math.Abs(d.DX), math.Abs(d.DY))
}

// NeedsDepthSort reports whether kind places screens at different depths so
// that farther screens must be drawn first.
func NeedsDepthSort(kind Kind) bool {
	return kind == Swap || kind == Cube
}

// SortBackToFront orders keyguard screens last and the rest by decreasing
// distance from the viewport. Equal distances keep their order.
func SortBackToFront(ds []ScreenDelta) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Keyguard != ds[j].Keyguard {
			return !ds[i].Keyguard
		}
		return ds[i].Distance() > ds[j].Distance()
	})
}
