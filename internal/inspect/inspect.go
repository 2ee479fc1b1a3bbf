// Package inspect describes a color beyond hex, RGB and HSL: perceptual
// coordinates, luminance, the closest CSS color name and a readable pointer color.
package inspect

import (
	"math"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Lab is a CIE L*a*b* coordinate under D65.
type Lab struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// HCL is the cylindrical form of Lab: hue in degrees, chroma and luminance.
type HCL struct {
	H float64 `json:"h"`
	C float64 `json:"c"`
	L float64 `json:"l"`
}

// Description is a ColorValue with derived properties.
type Description struct {
	colormodel.ColorValue
	Lab       Lab     `json:"lab"`
	HCL       HCL     `json:"hcl"`
	Luminance float64 `json:"luminance"`
	// Name is the nearest CSS color name, Distance its CIEDE2000 distance.
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	// Pointer is black or white, whichever contrasts more with the color.
	Pointer       string  `json:"pointer"`
	ContrastWhite float64 `json:"contrastWhite"`
	ContrastBlack float64 `json:"contrastBlack"`
}

// Describe parses input like colormodel.ParseColor and describes it. Channels
// outside [0, 255] are clamped first.
func Describe(input string) (Description, bool) {
	rgb, ok := colormodel.ParseColor(input)
	if !ok {
		return Description{}, false
	}
	return DescribeRGB(rgb), true
}

// DescribeRGB describes an RGB triple.
func DescribeRGB(rgb colormodel.RGB) Description {
	n := rgb.NRGBA()
	clamped := colormodel.RGB{R: int(n.R), G: int(n.G), B: int(n.B)}
	c, _ := colorful.MakeColor(n)

	d := Description{ColorValue: colormodel.FromRGB(clamped)}

	l, a, b := c.Lab()
	d.Lab = Lab{L: round3(l), A: round3(a), B: round3(b)}
	h, ch, lum := c.Hcl()
	d.HCL = HCL{H: round3(h), C: round3(ch), L: round3(lum)}

	y := Luminance(c)
	d.Luminance = round3(y)
	d.ContrastWhite = round3(contrast(1, y))
	d.ContrastBlack = round3(contrast(y, 0))
	d.Pointer = "#ffffff"
	if d.ContrastBlack > d.ContrastWhite {
		d.Pointer = "#000000"
	}

	d.Name, d.Distance = Nearest(c)
	d.Distance = round3(d.Distance)
	return d
}

// Luminance is the WCAG relative luminance of c.
func Luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Nearest returns the CSS color name closest to c by CIEDE2000. Ties go to
// the alphabetically first name.
func Nearest(c colorful.Color) (string, float64) {
	best, bestDist := "", math.Inf(1)
	for _, name := range colornames.Names {
		cand, _ := colorful.MakeColor(colornames.Map[name])
		if dist := c.DistanceCIEDE2000(cand); dist < bestDist {
			best, bestDist = name, dist
		}
	}
	return best, bestDist
}

func contrast(lighter, darker float64) float64 {
	return (lighter + 0.05) / (darker + 0.05)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
