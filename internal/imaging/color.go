package imaging

import "image"

// Luminance weights used by the saturation matrix.
const (
	lumR = 0.213
	lumG = 0.715
	lumB = 0.072
)

// Saturate applies a saturation colour matrix to img in place. s = 1 leaves
// the image unchanged, s = 0 produces greyscale and s > 1 oversaturates.
func Saturate(img *image.RGBA, s float64) {
	if s == 1 {
		return
	}
	inv := 1 - s
	r, g, b := lumR*inv, lumG*inv, lumB*inv
	m := [3][3]float64{
		{r + s, g, b},
		{r, g + s, b},
		{r, g, b + s},
	}

	for i := 0; i+3 < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3])
		in := [3]float64{float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])}
		for c := 0; c < 3; c++ {
			v := m[c][0]*in[0] + m[c][1]*in[1] + m[c][2]*in[2]
			// Premultiplied channels never exceed alpha.
			if v < 0 {
				v = 0
			} else if v > a {
				v = a
			}
			img.Pix[i+c] = uint8(v + 0.5)
		}
	}
}
