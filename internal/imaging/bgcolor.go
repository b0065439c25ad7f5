package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// MaxDetectPixels bounds the image the background detector scans.
const MaxDetectPixels = 8192

const edgeRatio = 10

// DetectBackgroundColor finds the dominant colour of img, weighting pixels
// near the edges more heavily. Axes that are letterboxed (ratio < 1) get
// double edge weight since their edges meet the fill colour. The result is
// opaque 0xAARRGGBB.
func DetectBackgroundColor(img image.Image, widthRatio, heightRatio float64) uint32 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return 0xff000000
	}

	r := 1
	for w*h/(r*r) > MaxDetectPixels {
		r++
	}
	w, h = w/r, h/r
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	small := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(small, small.Bounds(), img, b, draw.Src, nil)

	rex, rey := 100, 100
	if widthRatio < 1 {
		rex = 200
	}
	if heightRatio < 1 {
		rey = 200
	}

	weightX := make([]int, w)
	for x := range weightX {
		weightX[x] = edgeWeight(x, w, rex)
	}

	pixel := func(x, y int) uint32 {
		c := small.NRGBAAt(x, y)
		return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	}

	var cnt [0x1000]int
	for y := 0; y < h; y++ {
		ry := edgeWeight(y, h, rey)
		for x := 0; x < w; x++ {
			cnt[coarse(pixel(x, y))] += 10 + weightX[x] + ry
		}
	}
	base := argmax(&cnt)

	cnt = [0x1000]int{}
	for y := 0; y < h; y++ {
		ry := edgeWeight(y, h, rey)
		for x := 0; x < w; x++ {
			c := pixel(x, y)
			if coarse(c) != base {
				continue
			}
			cnt[fine(c)] += 10 + weightX[x] + ry
		}
	}
	detail := argmax(&cnt)

	rgb := uint32(base&0xf00)<<12 | uint32(base&0x0f0)<<8 | uint32(base&0x00f)<<4 |
		uint32(detail&0xf00)<<8 | uint32(detail&0x0f0)<<4 | uint32(detail&0x00f)
	return 0xff000000 | rgb
}

// edgeWeight tapers linearly from peak at the border to 0 one tenth in.
func edgeWeight(i, n, peak int) int {
	switch {
	case i < n/edgeRatio:
		return (n - i*edgeRatio) * peak / n
	case i > n*(edgeRatio-1)/edgeRatio:
		return (i*edgeRatio - n*(edgeRatio-1)) * peak / n
	}
	return 0
}

// coarse packs the high nibble of each channel.
func coarse(c uint32) int {
	return int(c>>12&0xf00 | c>>8&0x0f0 | c>>4&0x00f)
}

// fine packs the low nibble of each channel.
func fine(c uint32) int {
	return int(c>>8&0xf00 | c>>4&0x0f0 | c&0x00f)
}

// argmax returns the first index holding the largest count.
func argmax(cnt *[0x1000]int) int {
	best := 0
	for i := 1; i < len(cnt); i++ {
		if cnt[best] < cnt[i] {
			best = i
		}
	}
	return best
}

// ColorFromARGB converts packed ARGB to a color.NRGBA.
func ColorFromARGB(c uint32) color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}
}
