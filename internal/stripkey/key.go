// Package stripkey identifies a rendered color strip by size and base color.
package stripkey

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
)

// HueBase is the base name of the default hue gradient.
const HueBase = "hue"

// HiDPISuffix marks a strip rendered at twice the nominal size.
const HiDPISuffix = "@2x"

// Key identifies a strip: its nominal size and the gradient it shows.
// Base is HueBase for the hue strip, or six lowercase hex digits for the
// shade strip of a custom color.
type Key struct {
	Base   string
	Width  int
	Height int
}

// New builds a Key. An empty base selects the hue strip; any other base must be
// a color accepted by colormodel.ParseColor and is normalized to hex.
func New(width, height int, base string) (Key, error) {
	if width <= 0 || height <= 0 {
		return Key{}, fmt.Errorf("invalid strip size %dx%d: must be positive", width, height)
	}

	norm, err := NormalizeBase(base)
	if err != nil {
		return Key{}, err
	}
	return Key{Width: width, Height: height, Base: norm}, nil
}

// NormalizeBase maps a user supplied base color to its key form.
func NormalizeBase(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" || strings.EqualFold(base, HueBase) {
		return HueBase, nil
	}

	rgb, ok := colormodel.ParseColor(base)
	if !ok {
		// Allow the bare hex digits used in key strings.
		rgb, ok = colormodel.HexToRGB(base)
	}
	if !ok {
		return "", fmt.Errorf("invalid base color %q", base)
	}
	hex := colormodel.RGBToHex(float64(rgb.R), float64(rgb.G), float64(rgb.B))
	return strings.TrimPrefix(hex, "#"), nil
}

// IsHue reports whether the key selects the hue strip.
func (k Key) IsHue() bool {
	return k.Base == HueBase || k.Base == ""
}

// CustomColor returns the "#rrggbb" base color, or "" for the hue strip.
func (k Key) CustomColor() string {
	if k.IsHue() {
		return ""
	}
	return "#" + k.Base
}

// String returns the key in format "w{width}_h{height}_{hue|c{rrggbb}}".
func (k Key) String() string {
	if k.IsHue() {
		return fmt.Sprintf("w%d_h%d_%s", k.Width, k.Height, HueBase)
	}
	return fmt.Sprintf("w%d_h%d_c%s", k.Width, k.Height, k.Base)
}

// Path returns the flat file name for this key.
func (k Key) Path(suffix, extension string) string {
	return fmt.Sprintf("%s%s.%s", k.String(), suffix, extension)
}

// NestedPath returns the "{base}/{w}x{h}{suffix}.{ext}" file path for this key.
func (k Key) NestedPath(suffix, extension string) string {
	base := k.Base
	if k.IsHue() {
		base = HueBase
	}
	return fmt.Sprintf("%s/%dx%d%s.%s", base, k.Width, k.Height, suffix, extension)
}

// Parse parses a key string produced by String.
func Parse(s string) (Key, error) {
	var k Key
	var base string
	n, err := fmt.Sscanf(s, "w%d_h%d_%s", &k.Width, &k.Height, &base)
	if err != nil || n != 3 {
		return Key{}, fmt.Errorf("invalid strip key format: %s", s)
	}

	switch {
	case base == HueBase:
		k.Base = HueBase
	case strings.HasPrefix(base, "c"):
		rgb, ok := colormodel.HexToRGB(base[1:])
		if !ok || strings.HasPrefix(base[1:], "#") {
			return Key{}, fmt.Errorf("invalid strip key base: %s", s)
		}
		k.Base = strings.TrimPrefix(colormodel.RGBToHex(float64(rgb.R), float64(rgb.G), float64(rgb.B)), "#")
	default:
		return Key{}, fmt.Errorf("invalid strip key base: %s", s)
	}

	if k.Width <= 0 || k.Height <= 0 {
		return Key{}, fmt.Errorf("invalid strip key size: %s", s)
	}
	return k, nil
}

// ScaleForSuffix returns the device pixel ratio for a file suffix.
func ScaleForSuffix(suffix string) int {
	if suffix == HiDPISuffix {
		return 2
	}
	return 1
}

// Sizes expands every base across every size, hue strips included when a base is empty.
func Sizes(sizes [][2]int, bases []string) ([]Key, error) {
	keys := make([]Key, 0, len(sizes)*len(bases))
	seen := make(map[Key]bool)
	for _, base := range bases {
		for _, sz := range sizes {
			k, err := New(sz[0], sz[1], base)
			if err != nil {
				return nil, err
			}
			if seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// ParseSize parses "WIDTHxHEIGHT".
func ParseSize(s string) ([2]int, error) {
	var w, h int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%dx%d", &w, &h); err != nil {
		return [2]int{}, fmt.Errorf("invalid size %q: expected WIDTHxHEIGHT", s)
	}
	if w <= 0 || h <= 0 {
		return [2]int{}, fmt.Errorf("invalid size %q: must be positive", s)
	}
	return [2]int{w, h}, nil
}
