package colormodel

import (
	"regexp"
	"strconv"
	"strings"
)

// The functional notations match anywhere in the input and accept integers only:
// no percentages in rgb(), no alpha, no range checks.
var (
	rgbPattern = regexp.MustCompile(`rgb\((\d+),\s*(\d+),\s*(\d+)\)`)
	hslPattern = regexp.MustCompile(`hsl\((\d+),\s*(\d+)%,\s*(\d+)%\)`)
)

// ParseColor parses "#rrggbb", "rgb(r, g, b)" or "hsl(h, s%, l%)" into RGB.
// Input starting with '#' is handed to the hex codec only. Named colors, rgba(),
// hsla() and malformed syntax report false.
func ParseColor(s string) (RGB, bool) {
	if strings.HasPrefix(s, "#") {
		return HexToRGB(s)
	}

	if m := rgbPattern.FindStringSubmatch(s); m != nil {
		v, ok := atoi3(m[1:])
		if !ok {
			return RGB{}, false
		}
		return RGB{R: v[0], G: v[1], B: v[2]}, true
	}

	if m := hslPattern.FindStringSubmatch(s); m != nil {
		v, ok := atoi3(m[1:])
		if !ok {
			return RGB{}, false
		}
		return HSLToRGB(float64(v[0]), float64(v[1]), float64(v[2])), true
	}

	return RGB{}, false
}

// atoi3 converts three digit strings; values overflowing int report false.
func atoi3(parts []string) ([3]int, bool) {
	var out [3]int
	for i := range out {
		n, err := strconv.Atoi(parts[i])
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
