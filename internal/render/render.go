// Package render rasterizes color strips: the gradient, rounded corners and the
// pointer with its drop shadow.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
	"golang.org/x/image/colornames"
)

// Shadow geometry in CSS pixels: "0 4px 6px -1px rgba(0, 0, 0, 0.1)".
const (
	shadowOffsetY = 4
	shadowBlur    = 6
	shadowSpread  = -1
	shadowAlpha   = 0.1

	disabledOpacity = 0.5
)

// MaxDimension bounds either side of a rendered image in device pixels.
const MaxDimension = 16384

// Options describe a strip independent of interaction state. Sizes are in CSS
// pixels; Scale is the device pixel ratio.
type Options struct {
	// CustomColor selects the shade gradient when non-empty.
	CustomColor string
	Pointer     strip.Pointer
	Width       float64
	Height      float64
	Rounded     float64
	Scale       float64
	Disabled    bool
}

// State is the interaction state drawn on top of the gradient.
type State struct {
	PointerX    float64
	Dragging    bool
	ShowPointer bool
}

// OptionsFromStrip captures a strip's configuration and current state.
func OptionsFromStrip(s *strip.Strip, scale float64) (Options, State) {
	cfg := s.Config()
	opts := Options{
		Width:       cfg.Width,
		Height:      cfg.Height,
		CustomColor: cfg.CustomColor,
		Rounded:     cfg.Rounded,
		Disabled:    cfg.Disabled,
		Pointer:     cfg.Pointer,
		Scale:       scale,
	}
	st := State{
		PointerX:    s.PointerPosition(),
		Dragging:    s.Dragging(),
		ShowPointer: true,
	}
	return opts, st
}

// Normalize fills defaults and validates sizes.
func (o Options) Normalize() (Options, error) {
	if o.Width <= 0 {
		o.Width = strip.DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = strip.DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Rounded < 0 {
		o.Rounded = 0
	}
	w, h := o.PixelSize()
	if w <= 0 || h <= 0 {
		return o, fmt.Errorf("strip renders to an empty image (%dx%d)", w, h)
	}
	if w > MaxDimension || h > MaxDimension {
		return o, fmt.Errorf("strip too large: %dx%d pixels", w, h)
	}
	cfg := strip.Config{Width: o.Width, Height: o.Height, Pointer: o.Pointer}.WithDefaults()
	o.Pointer = cfg.Pointer
	return o, nil
}

// PixelSize returns the output image size in device pixels.
func (o Options) PixelSize() (int, int) {
	scale := o.Scale
	if scale <= 0 {
		scale = 1
	}
	return int(math.Round(o.Width * scale)), int(math.Round(o.Height * scale))
}

// Strip renders the gradient with rounded corners and no pointer.
func Strip(opts Options) (*image.NRGBA, error) {
	return Render(opts, State{})
}

// Render draws the strip and, when st.ShowPointer is set, its pointer.
func Render(opts Options, st State) (*image.NRGBA, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	w, h := opts.PixelSize()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	FillGradient(img, StopsFor(opts.CustomColor))

	if opts.Rounded > 0 {
		ApplyMask(img, roundedRectMask(w, h, rect{0, 0, float64(w), float64(h)}, opts.Rounded*opts.Scale))
	}

	if st.ShowPointer {
		drawPointer(img, opts, st)
	}

	if opts.Disabled {
		Fade(img, disabledOpacity)
	}
	return img, nil
}

// drawPointer draws the pointer centred on st.PointerX and the strip's vertical middle.
func drawPointer(dst *image.NRGBA, opts Options, st State) {
	p := opts.Pointer
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()

	scale := opts.Scale
	if st.Dragging && p.ScaleOnDrag() {
		scale *= p.DragScale
	}

	pw := p.Width * scale
	ph := p.Height * scale
	cx := st.PointerX * opts.Scale
	cy := float64(h) / 2
	body := rect{cx - pw/2, cy - ph/2, cx + pw/2, cy + ph/2}
	radius := p.CornerRadius() * scale

	if p.Shadow() {
		spread := shadowSpread * opts.Scale
		shadow := body.inset(-spread).offset(0, shadowOffsetY*opts.Scale)
		mask := roundedRectMask(w, h, shadow, radius+spread)
		mask = GaussianBlur(mask, float32(shadowBlur*opts.Scale/2))
		FillMask(dst, mask, color.NRGBA{A: uint8(math.Round(shadowAlpha * 255))})
	}

	fill := parsePaint(p.Color, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	if bw := p.BorderWidth * scale; bw > 0 && p.BorderColor != "" {
		border := parsePaint(p.BorderColor, color.NRGBA{A: 255})
		FillMask(dst, roundedRectMask(w, h, body, radius), border)
		body = body.inset(bw)
		radius = math.Max(0, radius-bw)
	}
	FillMask(dst, roundedRectMask(w, h, body, radius), fill)
}

// parsePaint accepts anything colormodel.ParseColor does plus CSS color names.
func parsePaint(s string, fallback color.NRGBA) color.NRGBA {
	if rgb, ok := colormodel.ParseColor(s); ok {
		return rgb.NRGBA()
	}
	if c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(s))]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	return fallback
}
