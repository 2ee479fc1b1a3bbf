package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
	"github.com/MeKo-Tech/colorstrip/internal/inspect"
	"github.com/spf13/cobra"
)

var colorCmd = &cobra.Command{
	Use:   "color <value>",
	Short: "Convert a color to hex, RGB and HSL",
	Long: `Parse a color given as hex ("#3366ff"), rgb(r, g, b) or
hsl(h, s%, l%) and print it in all three forms.

Unparseable input falls back to pure red, like the widget does, unless
--strict is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runColor,
}

var mixCmd = &cobra.Command{
	Use:   "mix <from> <to> <t>",
	Short: "Interpolate between two colors in RGB space",
	Args:  cobra.ExactArgs(3),
	RunE:  runMix,
}

var hueCmd = &cobra.Command{
	Use:   "hue <degrees|color>",
	Short: "Print the fully saturated color for a hue, or the hue of a color",
	Args:  cobra.ExactArgs(1),
	RunE:  runHue,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <value>",
	Short: "Describe a color: Lab, HCL, luminance, nearest name and contrast",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(colorCmd, mixCmd, hueCmd, inspectCmd)

	colorCmd.Flags().Bool("strict", false, "Fail on unparseable input instead of falling back to red")
	for _, c := range []*cobra.Command{colorCmd, mixCmd, hueCmd, inspectCmd} {
		c.Flags().Bool("json", false, "Print JSON")
	}
}

func runColor(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	asJSON, _ := cmd.Flags().GetBool("json")

	v, ok := colormodel.ParseColorValue(args[0])
	if !ok {
		if strict {
			return fmt.Errorf("invalid color %q", args[0])
		}
		if logger == nil {
			initLogging()
		}
		logger.Warn("Unparseable color; using red", "value", args[0])
		v = colormodel.Red
	}
	return printColorValue(cmd.OutOrStdout(), v, asJSON)
}

func runMix(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	t, err := strconv.ParseFloat(args[2], 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("invalid mix ratio %q: must be a finite number", args[2])
	}

	hex := colormodel.MixColors(args[0], args[1], t)
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]string{"hex": hex})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hex)
	return err
}

func runHue(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	h, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		// Not a number: report the hue of the color instead.
		hue, ok := colormodel.LookupHue(args[0])
		if !ok {
			return fmt.Errorf("invalid hue or color %q", args[0])
		}
		if asJSON {
			return writeJSON(out, map[string]float64{"hue": hue})
		}
		_, err = fmt.Fprintln(out, formatNumber(hue))
		return err
	}

	if math.IsNaN(h) || h < 0 || h > 360 {
		return fmt.Errorf("hue %s out of range [0, 360]", args[0])
	}
	return printColorValue(out, colormodel.CreateColorFromHue(h), asJSON)
}

func runInspect(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	d, ok := inspect.Describe(args[0])
	if !ok {
		return fmt.Errorf("invalid color %q", args[0])
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), d)
	}

	out := cmd.OutOrStdout()
	if err := printColorValue(out, d.ColorValue, false); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out,
		"lab        %s, %s, %s\nhcl        %s, %s, %s\nluminance  %s\nname       %s (distance %s)\npointer    %s (white %s:1, black %s:1)\n",
		formatNumber(d.Lab.L), formatNumber(d.Lab.A), formatNumber(d.Lab.B),
		formatNumber(d.HCL.H), formatNumber(d.HCL.C), formatNumber(d.HCL.L),
		formatNumber(d.Luminance),
		d.Name, formatNumber(d.Distance),
		d.Pointer, formatNumber(d.ContrastWhite), formatNumber(d.ContrastBlack),
	)
	return err
}

func printColorValue(w io.Writer, v colormodel.ColorValue, asJSON bool) error {
	if asJSON {
		return writeJSON(w, v)
	}
	_, err := fmt.Fprintf(w, "hex        %s\nrgb        rgb(%d, %d, %d)\nhsl        hsl(%s, %s%%, %s%%)\n",
		v.Hex,
		v.RGB.R, v.RGB.G, v.RGB.B,
		formatNumber(v.HSL.H), formatNumber(v.HSL.S), formatNumber(v.HSL.L),
	)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatNumber prints at most two decimals without trailing zeros.
func formatNumber(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
