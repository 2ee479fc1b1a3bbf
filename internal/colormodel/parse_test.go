package colormodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RGB
		ok   bool
	}{
		{"hex", "#3366ff", RGB{51, 102, 255}, true},
		{"hex uppercase", "#3366FF", RGB{51, 102, 255}, true},
		{"short hex is rejected", "#36f", RGB{}, false},
		{"hash prefix never falls through", "#rgb(1, 2, 3)", RGB{}, false},
		{"rgb", "rgb(10, 20, 30)", RGB{10, 20, 30}, true},
		{"rgb without spaces", "rgb(10,20,30)", RGB{10, 20, 30}, true},
		{"rgb with loose spacing", "rgb(10,   20,\t30)", RGB{10, 20, 30}, true},
		{"rgb is not range checked", "rgb(999, 999, 999)", RGB{999, 999, 999}, true},
		{"rgb inside other text", "color: rgb(1, 2, 3);", RGB{1, 2, 3}, true},
		{"rgb with leading space", "rgb( 10, 20, 30)", RGB{}, false},
		{"rgb percentages", "rgb(10%, 20%, 30%)", RGB{}, false},
		{"rgba", "rgba(10, 20, 30, 0.5)", RGB{}, false},
		{"hsl red", "hsl(0, 100%, 50%)", RGB{255, 0, 0}, true},
		{"hsl blue-ish", "hsl(200, 50%, 50%)", RGB{64, 149, 191}, true},
		{"hsl without percent", "hsl(0, 100, 50)", RGB{}, false},
		{"hsla", "hsla(0, 100%, 50%, 1)", RGB{}, false},
		{"named color", "red", RGB{}, false},
		{"empty", "", RGB{}, false},
		{"overflow", "rgb(99999999999999999999, 0, 0)", RGB{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseColor(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHueFromColor(t *testing.T) {
	assert.Equal(t, 0.0, HueFromColor("not-a-color"))
	assert.Equal(t, 0.0, HueFromColor("#ff0000"))
	assert.Equal(t, 120.0, HueFromColor("#00ff00"))
	assert.Equal(t, 225.0, HueFromColor("rgb(51, 102, 255)"))
	assert.Equal(t, 200.0, HueFromColor("hsl(200, 50%, 50%)"))
}

func TestLookupHue(t *testing.T) {
	h, ok := LookupHue("#ff0000")
	assert.True(t, ok)
	assert.Equal(t, 0.0, h)

	h, ok = LookupHue("not-a-color")
	assert.False(t, ok)
	assert.Equal(t, 0.0, h)
}

func TestCreateColorFromHue(t *testing.T) {
	tests := []struct {
		hue float64
		hex string
	}{
		{0, "#ff0000"},
		{60, "#ffff00"},
		{120, "#00ff00"},
		{240, "#0000ff"},
		{360, "#ff0000"},
	}

	for _, tt := range tests {
		v := CreateColorFromHue(tt.hue)
		assert.Equal(t, tt.hex, v.Hex, "hue %v", tt.hue)
		assert.Equal(t, HSL{H: tt.hue, S: 100, L: 50}, v.HSL)
	}

	// Hue is kept exactly as passed.
	v := CreateColorFromHue(123.4)
	assert.Equal(t, 123.4, v.HSL.H)
}

func TestCreateColorValue(t *testing.T) {
	v := CreateColorValue("rgb(255, 0, 128)")
	assert.Equal(t, "#ff0080", v.Hex)
	assert.Equal(t, RGB{255, 0, 128}, v.RGB)
	assert.Equal(t, HSL{330, 100, 50}, v.HSL)

	v = CreateColorValue("#FFFFFF")
	assert.Equal(t, "#ffffff", v.Hex)
	assert.Equal(t, HSL{0, 0, 100}, v.HSL)

	for _, bad := range []string{"", "red", "#fff", "#000000ff", "hsla(0, 0%, 0%, 1)"} {
		assert.Equal(t, Red, CreateColorValue(bad), bad)
	}
	assert.Equal(t, "#ff0000", Red.Hex)
}

func TestParseColorValue(t *testing.T) {
	_, ok := ParseColorValue("nope")
	assert.False(t, ok)

	v, ok := ParseColorValue("hsl(120, 100%, 50%)")
	assert.True(t, ok)
	assert.Equal(t, "#00ff00", v.Hex)
}

func TestMixColors(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		t        float64
		want     string
	}{
		{"start", "#ffffff", "#000000", 0, "#ffffff"},
		{"end", "#ffffff", "#000000", 1, "#000000"},
		{"middle", "#ffffff", "#000000", 0.5, "#808080"},
		{"red to blue", "#ff0000", "#0000ff", 0.5, "#800080"},
		{"quarter", "#000000", "#ffffff", 0.25, "#404040"},
		{"no hash", "ffffff", "000000", 1, "#000000"},
		{"extrapolates then clamps", "#808080", "#ffffff", 2, "#ffffff"},
		{"negative t", "#808080", "#ffffff", -2, "#000000"},
		{"bad from", "badhex", "#000000", 0.5, "badhex"},
		{"bad to", "#ffffff", "nope", 0.5, "#ffffff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MixColors(tt.from, tt.to, tt.t))
		})
	}
}

func TestMixRGB(t *testing.T) {
	r, g, b := MixRGB(RGB{0, 100, 200}, RGB{100, 0, 200}, 0.25)
	assert.InDelta(t, 25.0, r, 1e-9)
	assert.InDelta(t, 75.0, g, 1e-9)
	assert.InDelta(t, 200.0, b, 1e-9)
}

func TestNRGBA(t *testing.T) {
	c := RGB{R: 999, G: -1, B: 12}.NRGBA()
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(0), c.G)
	assert.Equal(t, uint8(12), c.B)
	assert.Equal(t, uint8(255), c.A)
}
