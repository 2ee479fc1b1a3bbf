// Package colormodel converts between hex, RGB and HSL color representations,
// parses color strings and mixes colors.
//
// Every function is pure and safe for concurrent use. Malformed input never
// produces an error: low-level parsers report failure through a boolean, and the
// convenience constructors fall back to pure red (hue 0).
package colormodel

import (
	"image/color"
	"math"
)

// RGB holds integer color channels. Channels are normally within [0, 255], but
// values parsed from rgb() strings are not range checked.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// HSL holds hue in degrees [0, 360], saturation and lightness in percent [0, 100].
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// ColorValue is a color snapshot in three mutually consistent representations.
type ColorValue struct {
	Hex string `json:"hex"`
	RGB RGB    `json:"rgb"`
	HSL HSL    `json:"hsl"`
}

// NRGBA returns the color as an opaque color.NRGBA with channels clamped to [0, 255].
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: clampU8(c.R), G: clampU8(c.G), B: clampU8(c.B), A: 255}
}

// NRGBA returns the RGB representation as an opaque color.NRGBA.
func (v ColorValue) NRGBA() color.NRGBA {
	return v.RGB.NRGBA()
}

// FromRGB builds the canonical ColorValue for an RGB triple.
func FromRGB(rgb RGB) ColorValue {
	return ColorValue{
		Hex: RGBToHex(float64(rgb.R), float64(rgb.G), float64(rgb.B)),
		RGB: rgb,
		HSL: RGBToHSL(rgb.R, rgb.G, rgb.B),
	}
}

// round rounds half-up, so 127.5 becomes 128 and -0.5 becomes 0.
func round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// clampU8 clamps an int value to the uint8 range [0, 255].
func clampU8(x int) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

// clampChannel clamps x to [0, 255]; NaN becomes 0.
func clampChannel(x float64) float64 {
	if !(x > 0) {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}
