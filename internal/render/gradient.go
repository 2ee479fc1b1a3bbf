package render

import (
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
)

// ColorStop is a color at a position along the strip.
type ColorStop struct {
	Color  colormodel.RGB
	Offset float64 // 0.0 to 1.0
}

// hueStopStep is the spacing of the hue gradient's color stops in degrees.
const hueStopStep = 30

// HueStops returns the stops of the hue strip: pure hues every 30 degrees, with
// red at both ends.
func HueStops() []ColorStop {
	stops := make([]ColorStop, 0, 360/hueStopStep+1)
	for i := 0; i <= 360; i += hueStopStep {
		stops = append(stops, ColorStop{
			Offset: float64(i) / 360,
			Color:  colormodel.HSLToRGB(float64(i%360), 100, 50),
		})
	}
	return stops
}

// ShadeStops returns the stops of the shade strip for a base color: white, base, black.
// A base that does not parse shades the red fallback.
func ShadeStops(base string) []ColorStop {
	rgb, ok := colormodel.ParseColor(base)
	if !ok {
		rgb = colormodel.Red.RGB
	}
	return []ColorStop{
		{Offset: 0, Color: colormodel.RGB{R: 255, G: 255, B: 255}},
		{Offset: 0.5, Color: rgb},
		{Offset: 1, Color: colormodel.RGB{}},
	}
}

// StopsFor returns the stops for a strip: hue stops when base is empty.
func StopsFor(base string) []ColorStop {
	if base == "" {
		return HueStops()
	}
	return ShadeStops(base)
}

// ColorAtOffset interpolates the stops linearly in RGB at t, padding beyond the ends.
func ColorAtOffset(stops []ColorStop, t float64) color.NRGBA {
	if len(stops) == 0 {
		return color.NRGBA{}
	}
	if len(stops) == 1 || t <= stops[0].Offset {
		return stops[0].Color.NRGBA()
	}

	idx := sort.Search(len(stops), func(i int) bool {
		return stops[i].Offset >= t
	})
	if idx >= len(stops) {
		return stops[len(stops)-1].Color.NRGBA()
	}

	a, b := stops[idx-1], stops[idx]
	if b.Offset == a.Offset {
		return a.Color.NRGBA()
	}
	local := (t - a.Offset) / (b.Offset - a.Offset)
	r, g, bl := colormodel.MixRGB(a.Color, b.Color, local)
	return color.NRGBA{R: channel(r), G: channel(g), B: channel(bl), A: 255}
}

// FillGradient paints a horizontal gradient across dst, sampling at pixel centres.
func FillGradient(dst *image.NRGBA, stops []ColorStop) {
	bounds := dst.Bounds()
	w := bounds.Dx()
	if w == 0 {
		return
	}

	row := make([]color.NRGBA, w)
	for x := range row {
		row[x] = ColorAtOffset(stops, (float64(x)+0.5)/float64(w))
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := 0; x < w; x++ {
			dst.SetNRGBA(bounds.Min.X+x, y, row[x])
		}
	}
}

func channel(v float64) uint8 {
	v = math.Floor(v + 0.5)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
