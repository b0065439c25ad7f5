package imaging

import (
	"context"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/pleimann/multipicture/internal/budget"
	"github.com/pleimann/multipicture/internal/logging"
)

// Request describes one picture to turn into a texture.
type Request struct {
	URI         string
	Orientation int
	// Width and Height are the screen size in pixels.
	Width, Height int
	// ClipRatio blends between letterboxing (0) and cropping to fill (1).
	ClipRatio  float64
	Saturation float64
	Budget     budget.Budget
}

// Texture is a decoded, cropped and scaled picture ready for upload.
type Texture struct {
	Image *image.RGBA
	// WidthRatio and HeightRatio are the fraction of the screen the texture
	// covers along each screen axis.
	WidthRatio  float64
	HeightRatio float64
	Format      PixelFormat
}

// Pipeline decodes pictures through an Opener.
type Pipeline struct {
	opener Opener
}

// NewPipeline creates a pipeline. A nil opener reads local files.
func NewPipeline(o Opener) *Pipeline {
	if o == nil {
		o = FileOpener{}
	}
	return &Pipeline{opener: o}
}

// Dimensions reads the intrinsic size of the picture without decoding pixels.
func (p *Pipeline) Dimensions(uri string) (int, int, error) {
	rc, err := p.opener.Open(uri)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: open %s: %v", ErrUnavailable, uri, err)
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: read header %s: %v", ErrUnavailable, uri, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %s has size %dx%d", ErrUnavailable, uri, cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}

// SampleRatio returns the smallest integer divisor that brings a w x h
// picture within the work budget.
func SampleRatio(w, h int, b budget.Budget) int {
	r := 1
	for b.MaxWorkPixels > 0 && (w/r)*(h/r) > b.MaxWorkPixels {
		r++
	}
	return r
}

// Load decodes req.URI into a texture. Every failure wraps ErrUnavailable.
func (p *Pipeline) Load(ctx context.Context, req Request) (*Texture, error) {
	log := logging.For("imaging")

	if req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: screen size %dx%d", ErrUnavailable, req.Width, req.Height)
	}
	orientation := NormalizeOrientation(req.Orientation)
	quarter := orientation == 90 || orientation == 270
	targetW, targetH := req.Width, req.Height
	if quarter {
		targetW, targetH = req.Height, req.Width
	}

	w, h, err := p.Dimensions(req.URI)
	if err != nil {
		return nil, err
	}
	ratio := SampleRatio(w, h, req.Budget)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := p.decode(req.URI, ratio)
	if err != nil {
		return nil, err
	}

	g := computeGeometry(src.Bounds().Dx(), src.Bounds().Dy(), targetW, targetH, req.ClipRatio, req.Budget)
	tex := &Texture{
		WidthRatio:  g.xratio,
		HeightRatio: g.yratio,
	}
	if quarter {
		tex.WidthRatio, tex.HeightRatio = g.yratio, g.xratio
	}

	hasAlpha := !isOpaque(src) || orientation%90 != 0
	tex.Image = render(src, g, orientation)
	Saturate(tex.Image, req.Saturation)

	tex.Format = ChooseFormat(g.texW, g.texH, hasAlpha, req.Budget)
	Quantize(tex.Image, tex.Format)

	log.Debug("texture loaded",
		"uri", req.URI,
		"source", fmt.Sprintf("%dx%d", w, h),
		"sample", ratio,
		"texture", fmt.Sprintf("%dx%d", tex.Image.Bounds().Dx(), tex.Image.Bounds().Dy()),
		"format", tex.Format)
	return tex, nil
}

func (p *Pipeline) decode(uri string, ratio int) (image.Image, error) {
	rc, err := p.opener.Open(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrUnavailable, uri, err)
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, uri, err)
	}
	if ratio <= 1 {
		return img, nil
	}

	b := img.Bounds()
	sw, sh := b.Dx()/ratio, b.Dy()/ratio
	if sw <= 0 || sh <= 0 {
		return nil, fmt.Errorf("%w: %s too small to sample by %d", ErrUnavailable, uri, ratio)
	}
	dst := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}

type geometry struct {
	src        image.Rectangle
	texW, texH int
	xratio     float64
	yratio     float64
}

// computeGeometry picks the centred source region and the power-of-two
// texture size for a bw x bh bitmap shown on a targetW x targetH screen.
func computeGeometry(bw, bh, targetW, targetH int, clip float64, b budget.Budget) geometry {
	bxs := float64(targetW) / float64(bw)
	bys := float64(targetH) / float64(bh)
	bmax, bmin := math.Max(bxs, bys), math.Min(bxs, bys)
	bscale := bmax*clip + bmin*(1-clip)

	cw := float64(bw) - float64(targetW)/bscale
	ch := float64(bh) - float64(targetH)/bscale
	srcX, srcY := 0, 0
	if cw >= 0 {
		srcX = int(cw / 2)
	}
	if ch >= 0 {
		srcY = int(ch / 2)
	}
	srcW := bw - srcX*2
	srcH := bh - srcY*2

	g := geometry{
		src:    image.Rect(srcX, srcY, srcX+srcW, srcY+srcH),
		xratio: 1,
		yratio: 1,
	}
	if cw < 0 {
		g.xratio = float64(bw) * bscale / float64(targetW)
	}
	if ch < 0 {
		g.yratio = float64(bh) * bscale / float64(targetH)
	}

	g.texW = LeastPowerOf2GE(int(float64(srcW) * bscale))
	g.texH = LeastPowerOf2GE(int(float64(srcH) * bscale))
	for b.MaxScreenPixels > 0 && g.texW*g.texH > b.MaxScreenPixels {
		if float64(g.texW)/float64(targetW) >= float64(g.texH)/float64(targetH) {
			g.texW /= 2
		} else {
			g.texH /= 2
		}
	}
	return g
}

// render scales the source region to the texture size and rotates it about
// its centre. Quarter turns produce a texture with swapped dimensions.
func render(src image.Image, g geometry, orientation int) *image.RGBA {
	dw, dh := g.texW, g.texH
	if orientation == 90 || orientation == 270 {
		dw, dh = dh, dw
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	sx := float64(g.texW) / float64(g.src.Dx())
	sy := float64(g.texH) / float64(g.src.Dy())
	cx := float64(g.src.Min.X) + float64(g.src.Dx())/2
	cy := float64(g.src.Min.Y) + float64(g.src.Dy())/2

	if orientation == 0 {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, g.src, draw.Src, nil)
		return dst
	}

	sin, cos := math.Sincos(float64(orientation) * math.Pi / 180)
	switch orientation {
	case 90:
		sin, cos = 1, 0
	case 180:
		sin, cos = 0, -1
	case 270:
		sin, cos = -1, 0
	}

	// dst = T(dst centre) · R · S · T(-src centre)
	a, b := cos*sx, -sin*sy
	d, e := sin*sx, cos*sy
	s2d := f64.Aff3{
		a, b, float64(dw)/2 - a*cx - b*cy,
		d, e, float64(dh)/2 - d*cx - e*cy,
	}
	draw.BiLinear.Transform(dst, s2d, src, g.src, draw.Src, nil)
	return dst
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
