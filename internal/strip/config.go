// Package strip implements the color strip slider as a headless state machine.
//
// A Strip turns pointer positions and key presses into color values: in hue mode
// the strip spans the color wheel, in shade mode it runs from white through a
// custom base color to black. Hosts deliver events one at a time; a Strip is not
// safe for concurrent use.
package strip

import "github.com/MeKo-Tech/colorstrip/internal/colormodel"

// Defaults for a zero Config.
const (
	DefaultValue         = "#000000ff"
	DefaultWidth         = 300
	DefaultHeight        = 20
	DefaultPointerWidth  = 12
	DefaultPointerColor  = "#ffffff"
	DefaultPointerRadius = 2
	DefaultDragScale     = 1.1
)

// Pointer configures the draggable handle.
type Pointer struct {
	// Height defaults to the strip height.
	Height      float64 `json:"height,omitempty" mapstructure:"height"`
	Width       float64 `json:"width,omitempty" mapstructure:"width"`
	Color       string  `json:"color,omitempty" mapstructure:"color"`
	BorderColor string  `json:"border_color,omitempty" mapstructure:"border_color"`
	BorderWidth float64 `json:"border_width,omitempty" mapstructure:"border_width"`
	// Radius is the corner radius; nil selects DefaultPointerRadius, 0 a square pointer.
	Radius    *float64 `json:"radius,omitempty" mapstructure:"radius"`
	DragScale float64  `json:"drag_scale,omitempty" mapstructure:"drag_scale"`
	// NoShadow and NoScaleOnDrag invert the defaults so a zero Pointer is fully styled.
	NoShadow      bool `json:"no_shadow,omitempty" mapstructure:"no_shadow"`
	NoScaleOnDrag bool `json:"no_scale_on_drag,omitempty" mapstructure:"no_scale_on_drag"`
}

// Config configures a Strip.
type Config struct {
	OnChange         func(colormodel.ColorValue) `json:"-"`
	OnChangeComplete func(colormodel.ColorValue) `json:"-"`

	// Value is any string accepted by colormodel.ParseColor.
	Value string `json:"value,omitempty" mapstructure:"value"`
	// CustomColor switches the strip to shade mode when non-empty.
	CustomColor string  `json:"custom_color,omitempty" mapstructure:"custom_color"`
	Pointer     Pointer `json:"pointer" mapstructure:"pointer"`
	Width       float64 `json:"width,omitempty" mapstructure:"width"`
	Height      float64 `json:"height,omitempty" mapstructure:"height"`
	Rounded     float64 `json:"rounded,omitempty" mapstructure:"rounded"`
	Disabled    bool    `json:"disabled,omitempty" mapstructure:"disabled"`
}

// WithDefaults returns a copy of c with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Value == "" {
		c.Value = DefaultValue
	}
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Height <= 0 {
		c.Height = DefaultHeight
	}
	if c.Rounded < 0 {
		c.Rounded = 0
	}
	c.Pointer = c.Pointer.withDefaults(c.Height)
	return c
}

func (p Pointer) withDefaults(stripHeight float64) Pointer {
	if p.Width <= 0 {
		p.Width = DefaultPointerWidth
	}
	if p.Height <= 0 {
		p.Height = stripHeight
	}
	if p.Color == "" {
		p.Color = DefaultPointerColor
	}
	if p.Radius == nil || *p.Radius < 0 {
		r := float64(DefaultPointerRadius)
		p.Radius = &r
	}
	if p.DragScale <= 0 {
		p.DragScale = DefaultDragScale
	}
	if p.BorderWidth < 0 {
		p.BorderWidth = 0
	}
	return p
}

// CornerRadius returns the configured corner radius or the default.
func (p Pointer) CornerRadius() float64 {
	if p.Radius == nil || *p.Radius < 0 {
		return DefaultPointerRadius
	}
	return *p.Radius
}

// Shadow reports whether the pointer casts a drop shadow.
func (p Pointer) Shadow() bool { return !p.NoShadow }

// ScaleOnDrag reports whether the pointer grows while dragging.
func (p Pointer) ScaleOnDrag() bool { return !p.NoScaleOnDrag }
