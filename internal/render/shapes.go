package render

import (
	"image"
	"math"

	"golang.org/x/image/vector"
)

// kappa places cubic Bézier control points to approximate a quarter circle.
const kappa = 0.5522847498

// rect is a float rectangle in device pixels.
type rect struct {
	x0, y0, x1, y1 float64
}

func (r rect) inset(d float64) rect {
	return rect{r.x0 + d, r.y0 + d, r.x1 - d, r.y1 - d}
}

func (r rect) offset(dx, dy float64) rect {
	return rect{r.x0 + dx, r.y0 + dy, r.x1 + dx, r.y1 + dy}
}

func (r rect) empty() bool {
	return r.x1 <= r.x0 || r.y1 <= r.y0
}

// roundedRectMask rasterizes an anti-aliased rounded rectangle into an alpha mask
// of the given canvas size. The radius is clamped to half the shorter side.
func roundedRectMask(canvasW, canvasH int, r rect, radius float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, canvasW, canvasH))
	if r.empty() || canvasW <= 0 || canvasH <= 0 {
		return mask
	}

	rad := math.Min(radius, math.Min(r.x1-r.x0, r.y1-r.y0)/2)
	if rad < 0 {
		rad = 0
	}

	ras := vector.NewRasterizer(canvasW, canvasH)
	// MoveTo/LineTo take float32 pixel coordinates.
	f := func(v float64) float32 { return float32(v) }
	k := rad * kappa

	ras.MoveTo(f(r.x0+rad), f(r.y0))
	ras.LineTo(f(r.x1-rad), f(r.y0))
	if rad > 0 {
		ras.CubeTo(f(r.x1-rad+k), f(r.y0), f(r.x1), f(r.y0+rad-k), f(r.x1), f(r.y0+rad))
	}
	ras.LineTo(f(r.x1), f(r.y1-rad))
	if rad > 0 {
		ras.CubeTo(f(r.x1), f(r.y1-rad+k), f(r.x1-rad+k), f(r.y1), f(r.x1-rad), f(r.y1))
	}
	ras.LineTo(f(r.x0+rad), f(r.y1))
	if rad > 0 {
		ras.CubeTo(f(r.x0+rad-k), f(r.y1), f(r.x0), f(r.y1-rad+k), f(r.x0), f(r.y1-rad))
	}
	ras.LineTo(f(r.x0), f(r.y0+rad))
	if rad > 0 {
		ras.CubeTo(f(r.x0), f(r.y0+rad-k), f(r.x0+rad-k), f(r.y0), f(r.x0+rad), f(r.y0))
	}
	ras.ClosePath()

	ras.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}
