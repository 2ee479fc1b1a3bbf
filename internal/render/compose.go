package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/gift"
)

// GaussianBlur softens a mask; larger sigma spreads it further.
func GaussianBlur(mask *image.Alpha, sigma float32) *image.Alpha {
	if sigma <= 0 {
		return mask
	}
	g := gift.New(gift.GaussianBlur(sigma))

	// Alpha and Gray share one byte per pixel, so the blur can run on a Gray view.
	src := &image.Gray{Pix: mask.Pix, Stride: mask.Stride, Rect: mask.Rect}
	dst := image.NewGray(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	return &image.Alpha{Pix: dst.Pix, Stride: dst.Stride, Rect: dst.Rect}
}

// FillMask paints c over dst wherever mask is set, scaling c's alpha by the mask.
func FillMask(dst *image.NRGBA, mask *image.Alpha, c color.NRGBA) {
	bounds := dst.Bounds().Intersect(mask.Bounds())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			m := mask.AlphaAt(x, y).A
			if m == 0 {
				continue
			}
			s := c
			s.A = uint8((int(c.A)*int(m) + 127) / 255)
			over(dst, x, y, s)
		}
	}
}

// ApplyMask multiplies dst's alpha by mask, clipping dst to the mask's shape.
func ApplyMask(dst *image.NRGBA, mask *image.Alpha) {
	bounds := dst.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := dst.PixOffset(x, y)
			m := 0
			if (image.Point{X: x, Y: y}).In(mask.Rect) {
				m = int(mask.AlphaAt(x, y).A)
			}
			dst.Pix[i+3] = uint8((int(dst.Pix[i+3])*m + 127) / 255)
		}
	}
}

// Fade scales dst's alpha by opacity in [0, 1].
func Fade(dst *image.NRGBA, opacity float64) {
	if opacity >= 1 {
		return
	}
	if opacity < 0 {
		opacity = 0
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = uint8(math.Round(float64(dst.Pix[i]) * opacity))
	}
}

// over blends one non-premultiplied source pixel onto dst (source-over).
func over(dst *image.NRGBA, x, y int, s color.NRGBA) {
	if s.A == 0 {
		return
	}
	d := dst.NRGBAAt(x, y)

	sa := float64(s.A) / 255.0
	da := float64(d.A) / 255.0

	outA := sa + da*(1.0-sa)
	if outA == 0 {
		dst.SetNRGBA(x, y, color.NRGBA{})
		return
	}

	blend := func(srcVal, dstVal uint8) uint8 {
		srcPremult := float64(srcVal) * sa
		dstPremult := float64(dstVal) * da
		outPremult := srcPremult + dstPremult*(1.0-sa)
		return uint8(math.Round(outPremult / outA))
	}

	dst.SetNRGBA(x, y, color.NRGBA{
		R: blend(s.R, d.R),
		G: blend(s.G, d.G),
		B: blend(s.B, d.B),
		A: uint8(math.Round(outA * 255.0)),
	})
}
