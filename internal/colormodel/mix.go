package colormodel

// MixRGB linearly interpolates each channel from one color to another without
// rounding. t is not clamped, so values outside [0, 1] extrapolate.
func MixRGB(from, to RGB, t float64) (r, g, b float64) {
	r = float64(from.R) + float64(to.R-from.R)*t
	g = float64(from.G) + float64(to.G-from.G)*t
	b = float64(from.B) + float64(to.B-from.B)*t
	return r, g, b
}

// MixColors interpolates between two hex colors and returns the hex result.
// If either endpoint is not a valid six digit hex color, from is returned unchanged.
func MixColors(from, to string, t float64) string {
	a, ok := HexToRGB(from)
	if !ok {
		return from
	}
	b, ok := HexToRGB(to)
	if !ok {
		return from
	}
	return RGBToHex(MixRGB(a, b, t))
}
