package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// StatusTextSize is the point size of placeholder text at 72 DPI.
const StatusTextSize = 24

var (
	faceOnce   sync.Once
	statusFace font.Face
	faceErr    error
)

func loadFace() (font.Face, error) {
	faceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			faceErr = fmt.Errorf("parse font: %w", err)
			return
		}
		statusFace, faceErr = opentype.NewFace(f, &opentype.FaceOptions{
			Size:    StatusTextSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	})
	return statusFace, faceErr
}

// RenderStatusText draws white lines centred on a transparent canvas whose
// sides are powers of two just large enough for the text.
func RenderStatusText(lines ...string) (*image.RGBA, error) {
	face, err := loadFace()
	if err != nil {
		return nil, err
	}

	m := face.Metrics()
	lineH := (m.Ascent + m.Descent).Ceil()
	gap := lineH / 4

	maxW := 1
	for _, l := range lines {
		if adv := font.MeasureString(face, l).Ceil(); adv > maxW {
			maxW = adv
		}
	}
	totalH := len(lines)*lineH + (len(lines)-1)*gap
	if totalH < 1 {
		totalH = 1
	}

	bw, bh := LeastPowerOf2GE(maxW), LeastPowerOf2GE(totalH)
	img := image.NewRGBA(image.Rect(0, 0, bw, bh))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
	}
	top := (bh - totalH) / 2
	for i, l := range lines {
		adv := font.MeasureString(face, l)
		baseline := top + i*(lineH+gap) + m.Ascent.Ceil()
		d.Dot = fixed.Point26_6{
			X: (fixed.I(bw) - adv) / 2,
			Y: fixed.I(baseline),
		}
		d.DrawString(l)
	}
	return img, nil
}

// NotAvailableText returns the placeholder lines for a screen. A negative
// index is the keyguard screen.
func NotAvailableText(index int) []string {
	first := fmt.Sprintf("Picture %d is not available", index+1)
	if index < 0 {
		first = "Keyguard picture is not available"
	}
	return []string{first, "Check the picture source settings"}
}
