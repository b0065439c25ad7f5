package imaging

import (
	"bytes"
	_ "embed"
	"fmt"
	"image"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/spinner.svg
var spinnerSVG []byte

// DefaultSpinnerSize is the rendered spinner edge in pixels.
const DefaultSpinnerSize = 96

// SpinnerTexture rasterises the loading spinner centred on a power-of-two
// canvas. The spinner has fifteen spokes so one spinner frame is one spoke.
func SpinnerTexture(size int) (*image.RGBA, error) {
	if size <= 0 {
		size = DefaultSpinnerSize
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(spinnerSVG))
	if err != nil {
		return nil, fmt.Errorf("read spinner: %w", err)
	}

	tw := LeastPowerOf2GE(size)
	img := image.NewRGBA(image.Rect(0, 0, tw, tw))
	off := float64(tw-size) / 2
	icon.SetTarget(off, off, float64(size), float64(size))

	scanner := rasterx.NewScannerGV(tw, tw, img, img.Bounds())
	dasher := rasterx.NewDasher(tw, tw, scanner)
	icon.Draw(dasher, 1.0)
	return img, nil
}
