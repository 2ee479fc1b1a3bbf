package colormodel

import "math"

// HSLToRGB converts HSL (hue in degrees, saturation and lightness in percent)
// to integer RGB. A zero saturation yields the achromatic gray round(l*2.55).
// Channels are rounded half-up and clamped to [0, 255].
func HSLToRGB(h, s, l float64) RGB {
	h /= 360
	s /= 100
	l /= 100

	var r, g, b float64
	if s == 0 {
		r, g, b = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		r = hueToRGB(p, q, h+1.0/3)
		g = hueToRGB(p, q, h)
		b = hueToRGB(p, q, h-1.0/3)
	}

	return RGB{
		R: int(clampChannel(round(r * 255))),
		G: int(clampChannel(round(g * 255))),
		B: int(clampChannel(round(b * 255))),
	}
}

// hueToRGB evaluates one channel of the HSL piecewise function at t (in turns).
func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// RGBToHSL converts RGB channels to HSL with hue, saturation and lightness
// rounded to whole numbers. Achromatic input (max == min) yields h = s = 0.
// Hue rounding can produce 360, which is equivalent to 0.
func RGBToHSL(r, g, b int) HSL {
	rf := float64(r) / 255
	gf := float64(g) / 255
	bf := float64(b) / 255

	maxv := max3(rf, gf, bf)
	minv := min3(rf, gf, bf)
	l := (maxv + minv) / 2

	var h, s float64
	if maxv != minv {
		d := maxv - minv
		if l > 0.5 {
			s = d / (2 - maxv - minv)
		} else {
			s = d / (maxv + minv)
		}

		switch maxv {
		case rf:
			h = (gf - bf) / d
			if gf < bf {
				h += 6
			}
		case gf:
			h = (bf-rf)/d + 2
		case bf:
			h = (rf-gf)/d + 4
		}
		h /= 6
	}

	return HSL{
		H: round(h * 360),
		S: round(s * 100),
		L: round(l * 100),
	}
}

// max3 returns the maximum of three values.
func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// min3 returns the minimum of three values.
func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}
