package colormodel

// CreateColorFromHue returns the pure color at the given hue (saturation 100,
// lightness 50). The hue is stored as given and is not clamped; callers keep it
// within [0, 360].
func CreateColorFromHue(hue float64) ColorValue {
	rgb := HSLToRGB(hue, 100, 50)
	return ColorValue{
		Hex: RGBToHex(float64(rgb.R), float64(rgb.G), float64(rgb.B)),
		RGB: rgb,
		HSL: HSL{H: hue, S: 100, L: 50},
	}
}

// Red is the fallback ColorValue used when input cannot be parsed.
var Red = CreateColorFromHue(0)

// LookupHue returns the hue of a color string and whether it parsed.
func LookupHue(s string) (float64, bool) {
	rgb, ok := ParseColor(s)
	if !ok {
		return 0, false
	}
	return RGBToHSL(rgb.R, rgb.G, rgb.B).H, true
}

// HueFromColor returns the hue of a color string, or 0 when it does not parse.
// A genuine hue of 0 and a parse failure are indistinguishable; use LookupHue
// to tell them apart.
func HueFromColor(s string) float64 {
	h, _ := LookupHue(s)
	return h
}

// ParseColorValue parses a color string into a ColorValue and reports whether it parsed.
func ParseColorValue(s string) (ColorValue, bool) {
	rgb, ok := ParseColor(s)
	if !ok {
		return ColorValue{}, false
	}
	return FromRGB(rgb), true
}

// CreateColorValue parses a color string into a ColorValue, falling back to Red.
func CreateColorValue(s string) ColorValue {
	v, ok := ParseColorValue(s)
	if !ok {
		return Red
	}
	return v
}
