// Package budget derives per-texture pixel ceilings from a memory limit.
package budget

const (
	// PixelsPerMB is the number of 16-bit pixels that fit in one megabyte.
	PixelsPerMB = 512 * 1024

	// MemoryOffsetMB is reserved for everything that is not a texture.
	MemoryOffsetMB = 8

	// AutoMemoryMB is used when the configured ceiling is "auto".
	AutoMemoryMB = 64

	// Unlimited marks a ceiling that is not enforced.
	Unlimited = -1
)

// Budget bounds the size of decoded work buffers and uploaded textures.
type Budget struct {
	MaxScreenPixels int
	MaxWorkPixels   int
}

// Compute splits maxMemoryMB across slotCount textures plus three spares
// (one decode buffer and two transient copies).
func Compute(maxMemoryMB, slotCount int) Budget {
	if maxMemoryMB <= 0 {
		return Budget{MaxScreenPixels: Unlimited, MaxWorkPixels: Unlimited}
	}
	if slotCount < 0 {
		slotCount = 0
	}

	total := maxMemoryMB * PixelsPerMB
	screen := total / (slotCount + 3)
	return Budget{
		MaxScreenPixels: screen,
		MaxWorkPixels:   screen * 2,
	}
}

// EffectiveMemoryMB turns a configured ceiling into the amount available
// for textures. A non-positive result means unlimited.
func EffectiveMemoryMB(configured int, auto bool) int {
	if auto {
		configured = AutoMemoryMB
	}
	if configured <= 0 {
		return 0
	}
	mb := configured - MemoryOffsetMB
	if mb <= 0 {
		return 0
	}
	return mb
}

// Limited reports whether any ceiling is enforced.
func (b Budget) Limited() bool {
	return b.MaxScreenPixels > 0
}

// FitsWork reports whether a w x h decode buffer is within the work ceiling.
func (b Budget) FitsWork(w, h int) bool {
	return b.MaxWorkPixels <= 0 || w*h <= b.MaxWorkPixels
}

// FitsScreen reports whether a w x h texture is within the screen ceiling.
func (b Budget) FitsScreen(w, h int) bool {
	return b.MaxScreenPixels <= 0 || w*h <= b.MaxScreenPixels
}
