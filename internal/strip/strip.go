package strip

import (
	"math"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
)

// Key names a keyboard key using DOM KeyboardEvent.key values.
type Key string

const (
	KeyArrowLeft  Key = "ArrowLeft"
	KeyArrowRight Key = "ArrowRight"
	KeyHome       Key = "Home"
	KeyEnd        Key = "End"
)

// Mode is the gradient a strip shows.
type Mode string

const (
	ModeHue   Mode = "hue"
	ModeShade Mode = "shade"
)

const (
	hueStep   = 1.0
	ratioStep = 0.01
	shadeMid  = 0.5
)

// Cursor values reported by Strip.Cursor.
const (
	CursorGrab       = "grab"
	CursorGrabbing   = "grabbing"
	CursorNotAllowed = "not-allowed"
)

// Strip is one color strip instance. The zero value is not usable; call New.
type Strip struct {
	cfg Config
	// custom is the shade base normalized to "#rrggbb" when it parses, else as configured.
	custom   string
	hue      float64
	ratio    float64
	dragging bool
}

// New creates a strip positioned at the hue of cfg.Value, or centred in shade mode.
func New(cfg Config) *Strip {
	cfg = cfg.WithDefaults()
	s := &Strip{cfg: cfg}
	s.custom = normalizeCustom(cfg.CustomColor)
	s.hue = colormodel.HueFromColor(cfg.Value)
	if s.shadeMode() {
		s.ratio = shadeMid
	} else {
		s.ratio = s.hue / 360
	}
	return s
}

// normalizeCustom canonicalizes a base color to hex so it can be mixed. A base
// that does not parse shades red, matching the rendered gradient.
func normalizeCustom(c string) string {
	if c == "" {
		return ""
	}
	if rgb, ok := colormodel.ParseColor(c); ok {
		return colormodel.RGBToHex(float64(rgb.R), float64(rgb.G), float64(rgb.B))
	}
	return colormodel.Red.Hex
}

// Config returns the effective configuration, defaults applied.
func (s *Strip) Config() Config {
	return s.cfg
}

// Mode reports whether the strip picks hues or shades.
func (s *Strip) Mode() Mode {
	if s.shadeMode() {
		return ModeShade
	}
	return ModeHue
}

func (s *Strip) shadeMode() bool {
	return s.cfg.CustomColor != ""
}

// ColorAt maps a pixel offset from the strip's left edge to a color.
// Offsets outside the strip clamp to its ends.
func (s *Strip) ColorAt(x float64) colormodel.ColorValue {
	return s.colorAtRatio(s.ratioAt(x))
}

func (s *Strip) ratioAt(x float64) float64 {
	return clamp(x/s.cfg.Width, 0, 1)
}

func (s *Strip) colorAtRatio(ratio float64) colormodel.ColorValue {
	if !s.shadeMode() {
		return colormodel.CreateColorFromHue(ratio * 360)
	}
	return s.shadeAt(ratio)
}

// shadeAt mixes white into the base color on the left half and black on the right half.
func (s *Strip) shadeAt(ratio float64) colormodel.ColorValue {
	var hex string
	if ratio < shadeMid {
		hex = colormodel.MixColors("#ffffff", s.custom, ratio/shadeMid)
	} else {
		hex = colormodel.MixColors(s.custom, "#000000", (ratio-shadeMid)/shadeMid)
	}

	rgb, ok := colormodel.HexToRGB(hex)
	if !ok {
		// An unmixable base color passes through MixColors unchanged.
		return colormodel.CreateColorValue(hex)
	}
	return colormodel.ColorValue{
		Hex: hex,
		RGB: rgb,
		HSL: colormodel.RGBToHSL(rgb.R, rgb.G, rgb.B),
	}
}

// moveTo updates position state for a pointer at x and returns the color there.
func (s *Strip) moveTo(x float64) colormodel.ColorValue {
	s.ratio = s.ratioAt(x)
	c := s.colorAtRatio(s.ratio)
	if !s.shadeMode() {
		s.hue = c.HSL.H
	}
	return c
}

// PointerDown starts a drag at x and fires OnChange. It reports false when the
// strip is disabled.
func (s *Strip) PointerDown(x float64) bool {
	if s.cfg.Disabled {
		return false
	}
	s.dragging = true
	s.emitChange(s.moveTo(x))
	return true
}

// PointerMove follows a drag to x and fires OnChange. Moves outside a drag are ignored.
func (s *Strip) PointerMove(x float64) bool {
	if !s.dragging || s.cfg.Disabled {
		return false
	}
	s.emitChange(s.moveTo(x))
	return true
}

// PointerUp ends a drag at x and fires OnChangeComplete.
func (s *Strip) PointerUp(x float64) bool {
	if !s.dragging {
		return false
	}
	s.dragging = false
	s.emitComplete(s.moveTo(x))
	return true
}

// KeyDown steps the strip with arrow keys or jumps to an end with Home and End.
// Handled keys fire OnChange then OnChangeComplete; other keys report false.
func (s *Strip) KeyDown(key Key) bool {
	if s.cfg.Disabled {
		return false
	}

	var c colormodel.ColorValue
	if s.shadeMode() {
		ratio, ok := step(key, s.ratio, ratioStep, 1)
		if !ok {
			return false
		}
		s.ratio = ratio
		c = s.shadeAt(ratio)
	} else {
		hue, ok := step(key, s.hue, hueStep, 360)
		if !ok {
			return false
		}
		s.hue = hue
		c = colormodel.CreateColorFromHue(hue)
	}

	s.emitChange(c)
	s.emitComplete(c)
	return true
}

// step applies a key to v within [0, limit].
func step(key Key, v, delta, limit float64) (float64, bool) {
	switch key {
	case KeyArrowLeft:
		return math.Max(0, v-delta), true
	case KeyArrowRight:
		return math.Min(limit, v+delta), true
	case KeyHome:
		return 0, true
	case KeyEnd:
		return limit, true
	default:
		return v, false
	}
}

// SetValue changes the controlled value. In hue mode the position follows the
// value's hue; in shade mode the position is kept.
func (s *Strip) SetValue(v string) {
	s.cfg.Value = v
	if !s.shadeMode() {
		s.syncHue()
	}
}

func (s *Strip) syncHue() {
	s.hue = colormodel.HueFromColor(s.cfg.Value)
	s.ratio = s.hue / 360
}

// SetCustomColor switches to shade mode around c, recentring the pointer when the
// base changes. An empty c returns to hue mode at the current value's hue.
func (s *Strip) SetCustomColor(c string) {
	if c == s.cfg.CustomColor {
		return
	}
	s.cfg.CustomColor = c
	s.custom = normalizeCustom(c)
	if c != "" {
		s.ratio = shadeMid
		return
	}
	s.syncHue()
}

// SetDisabled enables or disables interaction. Disabling does not end a drag;
// the following pointer up still completes it.
func (s *Strip) SetDisabled(disabled bool) {
	s.cfg.Disabled = disabled
}

// Dragging reports whether a drag is in progress.
func (s *Strip) Dragging() bool { return s.dragging }

// Hue returns the current hue in hue mode.
func (s *Strip) Hue() float64 { return s.hue }

// Ratio returns the last position as a fraction of the strip width.
func (s *Strip) Ratio() float64 { return s.ratio }

// PointerPosition returns the pointer centre in pixels from the left edge.
func (s *Strip) PointerPosition() float64 {
	if s.shadeMode() {
		return s.ratio * s.cfg.Width
	}
	return s.hue / 360 * s.cfg.Width
}

// Color returns the color under the pointer.
func (s *Strip) Color() colormodel.ColorValue {
	if s.shadeMode() {
		return s.shadeAt(s.ratio)
	}
	return colormodel.CreateColorFromHue(s.hue)
}

// Cursor returns the CSS cursor for the strip.
func (s *Strip) Cursor() string {
	switch {
	case s.cfg.Disabled:
		return CursorNotAllowed
	case s.dragging:
		return CursorGrabbing
	default:
		return CursorGrab
	}
}

// ValueNow is the slider value announced to assistive technology: the current hue.
func (s *Strip) ValueNow() float64 { return s.hue }

// TabIndex is -1 while disabled so the strip leaves the focus order.
func (s *Strip) TabIndex() int {
	if s.cfg.Disabled {
		return -1
	}
	return 0
}

// State is a snapshot of a strip for rendering and transport.
type State struct {
	Color       colormodel.ColorValue `json:"color"`
	Mode        Mode                  `json:"mode"`
	Cursor      string                `json:"cursor"`
	CustomColor string                `json:"custom_color,omitempty"`
	Hue         float64               `json:"hue"`
	Ratio       float64               `json:"ratio"`
	PointerX    float64               `json:"pointer_x"`
	ValueNow    float64               `json:"value_now"`
	Width       float64               `json:"width"`
	Height      float64               `json:"height"`
	TabIndex    int                   `json:"tab_index"`
	Dragging    bool                  `json:"dragging"`
	Disabled    bool                  `json:"disabled"`
}

// State returns a snapshot of the strip.
func (s *Strip) State() State {
	return State{
		Color:       s.Color(),
		Mode:        s.Mode(),
		Cursor:      s.Cursor(),
		CustomColor: s.cfg.CustomColor,
		Hue:         s.hue,
		Ratio:       s.ratio,
		PointerX:    s.PointerPosition(),
		ValueNow:    s.ValueNow(),
		Width:       s.cfg.Width,
		Height:      s.cfg.Height,
		TabIndex:    s.TabIndex(),
		Dragging:    s.dragging,
		Disabled:    s.cfg.Disabled,
	}
}

func (s *Strip) emitChange(c colormodel.ColorValue) {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(c)
	}
}

func (s *Strip) emitComplete(c colormodel.ColorValue) {
	if s.cfg.OnChangeComplete != nil {
		s.cfg.OnChangeComplete(c)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
