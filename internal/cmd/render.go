package cmd

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/colorstrip/internal/render"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a single strip to PNG",
	Long: `Render one color strip with its pointer to a PNG file.

Without --base the hue strip is drawn; with a base color the strip shows the
shades of that color from white to black. The pointer sits where --value puts
it unless --at places it at a ratio of the strip width.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "strip.png", "Output PNG file (- for stdout)")
	renderCmd.Flags().Int("width", strip.DefaultWidth, "Strip width in CSS pixels")
	renderCmd.Flags().Int("height", strip.DefaultHeight, "Strip height in CSS pixels")
	renderCmd.Flags().String("base", "", "Custom base color; selects the shade strip")
	renderCmd.Flags().String("value", strip.DefaultValue, "Current color, positions the pointer")
	renderCmd.Flags().Float64("at", -1, "Pointer position as a ratio of the width (0..1); overrides --value")
	renderCmd.Flags().Bool("dragging", false, "Draw the pointer in its dragging state")
	renderCmd.Flags().Bool("disabled", false, "Draw the strip disabled")
	renderCmd.Flags().Bool("no-pointer", false, "Omit the pointer")
	renderCmd.Flags().Float64("scale", 1, "Device pixel ratio")
	renderCmd.Flags().Float64("rounded", 0, "Corner radius in CSS pixels")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")

	renderCmd.Flags().Float64("pointer-width", strip.DefaultPointerWidth, "Pointer width in CSS pixels")
	renderCmd.Flags().String("pointer-color", strip.DefaultPointerColor, "Pointer fill color")
	renderCmd.Flags().String("pointer-border-color", "", "Pointer border color")
	renderCmd.Flags().Float64("pointer-border-width", 0, "Pointer border width in CSS pixels")
	renderCmd.Flags().Float64("pointer-radius", strip.DefaultPointerRadius, "Pointer corner radius")
	renderCmd.Flags().Float64("drag-scale", strip.DefaultDragScale, "Pointer scale while dragging")
	renderCmd.Flags().Bool("no-shadow", false, "Draw the pointer without a drop shadow")

	bindFlags(renderCmd, []struct{ key, flag string }{
		{"render.output", "output"},
		{"render.width", "width"},
		{"render.height", "height"},
		{"render.base", "base"},
		{"render.value", "value"},
		{"render.at", "at"},
		{"render.dragging", "dragging"},
		{"render.disabled", "disabled"},
		{"render.no_pointer", "no-pointer"},
		{"render.scale", "scale"},
		{"render.rounded", "rounded"},
		{"render.png_compression", "png-compression"},
		{"render.pointer.width", "pointer-width"},
		{"render.pointer.color", "pointer-color"},
		{"render.pointer.border_color", "pointer-border-color"},
		{"render.pointer.border_width", "pointer-border-width"},
		{"render.pointer.radius", "pointer-radius"},
		{"render.pointer.drag_scale", "drag-scale"},
		{"render.pointer.no_shadow", "no-shadow"},
	})
}

// renderRequest is the resolved input of the render command.
type renderRequest struct {
	Config      strip.Config
	At          float64
	Dragging    bool
	NoPointer   bool
	Scale       float64
	Compression string
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	req := renderRequest{
		Config: strip.Config{
			Value:       viper.GetString("render.value"),
			CustomColor: viper.GetString("render.base"),
			Width:       float64(viper.GetInt("render.width")),
			Height:      float64(viper.GetInt("render.height")),
			Rounded:     viper.GetFloat64("render.rounded"),
			Disabled:    viper.GetBool("render.disabled"),
			Pointer:     pointerFromConfig("render.pointer"),
		},
		At:          viper.GetFloat64("render.at"),
		Dragging:    viper.GetBool("render.dragging"),
		NoPointer:   viper.GetBool("render.no_pointer"),
		Scale:       viper.GetFloat64("render.scale"),
		Compression: viper.GetString("render.png_compression"),
	}
	output := viper.GetString("render.output")

	var buf bytes.Buffer
	if err := renderStrip(&buf, req); err != nil {
		return err
	}

	if output == "-" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write strip: %w", err)
	}

	logger.Info("Strip rendered", "path", output, "bytes", buf.Len())
	return nil
}

// renderStrip builds a strip from req and encodes its image to w.
func renderStrip(w io.Writer, req renderRequest) error {
	if req.At > 1 {
		return fmt.Errorf("pointer position %g out of range [0, 1]", req.At)
	}
	if req.Config.Width <= 0 || req.Config.Height <= 0 {
		return fmt.Errorf("invalid strip size %gx%g: must be positive", req.Config.Width, req.Config.Height)
	}

	s := strip.New(req.Config)
	opts, st := render.OptionsFromStrip(s, req.Scale)
	if req.At >= 0 {
		st.PointerX = req.At * s.Config().Width
	}
	st.Dragging = req.Dragging
	st.ShowPointer = true

	var img *image.NRGBA
	var err error
	if req.NoPointer {
		img, err = render.Strip(opts)
	} else {
		img, err = render.Render(opts, st)
	}
	if err != nil {
		return fmt.Errorf("failed to render strip: %w", err)
	}
	if err := render.EncodePNG(w, img, req.Compression); err != nil {
		return fmt.Errorf("failed to encode strip: %w", err)
	}
	return nil
}

// pointerFromConfig reads pointer settings stored under prefix.
// An unset radius stays nil so the strip applies its default.
func pointerFromConfig(prefix string) strip.Pointer {
	p := strip.Pointer{
		Width:       viper.GetFloat64(prefix + ".width"),
		Color:       viper.GetString(prefix + ".color"),
		BorderColor: viper.GetString(prefix + ".border_color"),
		BorderWidth: viper.GetFloat64(prefix + ".border_width"),
		DragScale:   viper.GetFloat64(prefix + ".drag_scale"),
		NoShadow:    viper.GetBool(prefix + ".no_shadow"),
	}
	if viper.IsSet(prefix + ".radius") {
		r := viper.GetFloat64(prefix + ".radius")
		p.Radius = &r
	}
	return p
}
