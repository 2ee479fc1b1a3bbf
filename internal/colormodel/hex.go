package colormodel

import (
	"regexp"
	"strconv"
)

var hexPattern = regexp.MustCompile(`(?i)^#?([0-9a-f]{2})([0-9a-f]{2})([0-9a-f]{2})$`)

// RGBToHex encodes channels as a lowercase "#rrggbb" string. Fractional channels
// are rounded half-up; channels outside [0, 255] are clamped before encoding.
func RGBToHex(r, g, b float64) string {
	buf := make([]byte, 0, 7)
	buf = append(buf, '#')
	for _, c := range [3]float64{r, g, b} {
		v := int(clampChannel(round(c)))
		buf = append(buf, hexDigits[v>>4], hexDigits[v&0x0f])
	}
	return string(buf)
}

const hexDigits = "0123456789abcdef"

// HexToRGB decodes a six digit hex color with an optional leading '#'.
// Short (#fff), alpha (#rrggbbaa) and malformed input report false.
func HexToRGB(s string) (RGB, bool) {
	m := hexPattern.FindStringSubmatch(s)
	if m == nil {
		return RGB{}, false
	}

	var ch [3]int
	for i := range ch {
		v, err := strconv.ParseUint(m[i+1], 16, 8)
		if err != nil {
			return RGB{}, false
		}
		ch[i] = int(v)
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, true
}
