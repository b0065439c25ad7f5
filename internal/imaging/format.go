package imaging

import (
	"image"

	"github.com/pleimann/multipicture/internal/budget"
)

// PixelFormat is the storage precision a texture is uploaded with.
type PixelFormat int

const (
	ARGB8888 PixelFormat = iota
	ARGB4444
	RGB565
)

func (f PixelFormat) String() string {
	switch f {
	case ARGB8888:
		return "argb8888"
	case ARGB4444:
		return "argb4444"
	case RGB565:
		return "rgb565"
	default:
		return "unknown"
	}
}

// BytesPerPixel is the uploaded size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	if f == ARGB8888 {
		return 4
	}
	return 2
}

// ChooseFormat picks full precision when the budget allows a 32-bit texture
// and otherwise a 16-bit format that keeps alpha only when needed.
func ChooseFormat(w, h int, hasAlpha bool, b budget.Budget) PixelFormat {
	if b.MaxScreenPixels <= 0 || w*h*2 <= b.MaxScreenPixels {
		return ARGB8888
	}
	if hasAlpha {
		return ARGB4444
	}
	return RGB565
}

// Quantize reduces img in place to the precision of f.
func Quantize(img *image.RGBA, f PixelFormat) {
	switch f {
	case ARGB4444:
		for i := 0; i < len(img.Pix); i++ {
			img.Pix[i] = (img.Pix[i] >> 4) * 0x11
		}
	case RGB565:
		for i := 0; i+3 < len(img.Pix); i += 4 {
			r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			img.Pix[i] = r&0xf8 | r>>5
			img.Pix[i+1] = g&0xfc | g>>6
			img.Pix[i+2] = b&0xf8 | b>>5
			img.Pix[i+3] = 0xff
		}
	}
}
