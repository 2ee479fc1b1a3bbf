package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
	"github.com/MeKo-Tech/colorstrip/internal/inspect"
	"github.com/MeKo-Tech/colorstrip/internal/pipeline"
	"github.com/MeKo-Tech/colorstrip/internal/render"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
	"github.com/MeKo-Tech/colorstrip/internal/stripdb"
	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger = newLogger(io.Discard, false)
	os.Exit(m.Run())
}

// run invokes a command's RunE on a fresh command so flags never leak between tests.
func run(t *testing.T, fn func(*cobra.Command, []string) error, args []string, flags ...string) (string, error) {
	t.Helper()
	c := &cobra.Command{}
	c.Flags().Bool("strict", false, "")
	c.Flags().Bool("json", false, "")
	for _, f := range flags {
		require.NoError(t, c.Flags().Set(f, "true"))
	}
	var out bytes.Buffer
	c.SetOut(&out)
	err := fn(c, args)
	return out.String(), err
}

func TestColorCommand(t *testing.T) {
	out, err := run(t, runColor, []string{"#ff0000"})
	require.NoError(t, err)
	assert.Equal(t, "hex        #ff0000\nrgb        rgb(255, 0, 0)\nhsl        hsl(0, 100%, 50%)\n", out)

	out, err = run(t, runColor, []string{"rgb(0, 0, 255)"}, "json")
	require.NoError(t, err)
	var v colormodel.ColorValue
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "#0000ff", v.Hex)
	assert.Equal(t, colormodel.RGB{R: 0, G: 0, B: 255}, v.RGB)
}

func TestColorCommand_Fallback(t *testing.T) {
	out, err := run(t, runColor, []string{"not a color"})
	require.NoError(t, err)
	assert.Contains(t, out, "#ff0000")

	_, err = run(t, runColor, []string{"not a color"}, "strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid color")
}

func TestMixCommand(t *testing.T) {
	out, err := run(t, runMix, []string{"#000000", "#ffffff", "0.5"})
	require.NoError(t, err)
	assert.Equal(t, "#808080\n", out)

	out, err = run(t, runMix, []string{"#ff0000", "#0000ff", "1"}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"hex":"#0000ff"}`, out)

	for _, bad := range []string{"half", "NaN", "Inf"} {
		_, err = run(t, runMix, []string{"#000000", "#ffffff", bad})
		assert.Error(t, err, bad)
	}
}

func TestHueCommand(t *testing.T) {
	out, err := run(t, runHue, []string{"120"})
	require.NoError(t, err)
	assert.Contains(t, out, "hex        #00ff00\n")

	out, err = run(t, runHue, []string{"#0000ff"})
	require.NoError(t, err)
	assert.Equal(t, "240\n", out)

	_, err = run(t, runHue, []string{"361"})
	assert.Error(t, err)
	_, err = run(t, runHue, []string{"bogus"})
	assert.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	out, err := run(t, runInspect, []string{"#ffffff"}, "json")
	require.NoError(t, err)
	var d inspect.Description
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "white", d.Name)
	assert.Equal(t, "#000000", d.Pointer)

	out, err = run(t, runInspect, []string{"#000000"})
	require.NoError(t, err)
	assert.Contains(t, out, "name       black")

	_, err = run(t, runInspect, []string{"nope"})
	assert.Error(t, err)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0", formatNumber(0))
	assert.Equal(t, "33.33", formatNumber(100.0/3))
	assert.Equal(t, "50", formatNumber(50.000001))
	assert.Equal(t, "-1.5", formatNumber(-1.5))
}

func TestRenderStrip(t *testing.T) {
	req := renderRequest{Scale: 2, At: 0.25, Dragging: true}
	req.Config.Width = 300
	req.Config.Height = 20

	var buf bytes.Buffer
	require.NoError(t, renderStrip(&buf, req))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestRenderStrip_NoPointer(t *testing.T) {
	decode := func(noPointer bool) image.Image {
		req := renderRequest{Scale: 1, At: 0.5, NoPointer: noPointer}
		req.Config.Width = 300
		req.Config.Height = 20
		var buf bytes.Buffer
		require.NoError(t, renderStrip(&buf, req))
		img, err := png.Decode(&buf)
		require.NoError(t, err)
		return img
	}

	cfg := strip.Config{Width: 300, Height: 20}
	opts, _ := render.OptionsFromStrip(strip.New(cfg), 1)
	want, err := render.Strip(opts)
	require.NoError(t, err)

	plain := decode(true)
	withPointer := decode(false)
	for _, x := range []int{10, 150, 290} {
		assert.Equal(t, want.NRGBAAt(x, 10), color.NRGBAModel.Convert(plain.At(x, 10)), "x=%d", x)
	}
	assert.NotEqual(t, want.NRGBAAt(150, 10), color.NRGBAModel.Convert(withPointer.At(150, 10)))
}

func TestPointerFromConfig_Radius(t *testing.T) {
	assert.Nil(t, pointerFromConfig("radius_unset").Radius)

	viper.Set("radius_square.radius", 0)
	p := pointerFromConfig("radius_square")
	require.NotNil(t, p.Radius)
	assert.Equal(t, 0.0, *p.Radius)
}

func TestRenderStrip_Invalid(t *testing.T) {
	req := renderRequest{Scale: 1, At: 1.5}
	req.Config.Width = 300
	req.Config.Height = 20
	assert.Error(t, renderStrip(io.Discard, req))

	req = renderRequest{Scale: 1, At: -1, Compression: "fastest"}
	req.Config.Width = 300
	req.Config.Height = 20
	assert.Error(t, renderStrip(io.Discard, req))
}

func TestBatchKeys(t *testing.T) {
	keys, err := batchKeys([]string{"300x20", "150x10"}, []string{"hue", "#3366FF"})
	require.NoError(t, err)
	require.Len(t, keys, 4)
	assert.Equal(t, "w300_h20_hue", keys[0].String())
	assert.Equal(t, "w150_h10_c3366ff", keys[3].String())

	_, err = batchKeys([]string{"300"}, []string{"hue"})
	assert.Error(t, err)
	_, err = batchKeys([]string{"300x20"}, []string{"not-a-color"})
	assert.Error(t, err)
}

func batchDefaults() batchOptions {
	return batchOptions{
		Sizes:       []string{"30x4", "20x2"},
		Bases:       []string{"hue", "#3366ff"},
		Workers:     2,
		Compression: "speed",
		PointerAt:   0.5,
		Format:      formatFolder,
		Layout:      pipeline.LayoutFlat,
	}
}

func TestGenerateBatch_Folder(t *testing.T) {
	opts := batchDefaults()
	opts.OutputDir = t.TempDir()
	opts.HiDPI = true

	summary, err := generateBatch(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, batchSummary{Total: 8}, summary)

	for _, name := range []string{
		"w30_h4_hue.png", "w30_h4_hue@2x.png",
		"w20_h2_hue.png", "w20_h2_hue@2x.png",
		"w30_h4_c3366ff.png", "w30_h4_c3366ff@2x.png",
		"w20_h2_c3366ff.png", "w20_h2_c3366ff@2x.png",
	} {
		assert.FileExists(t, filepath.Join(opts.OutputDir, name))
	}

	f, err := os.Open(filepath.Join(opts.OutputDir, "w30_h4_hue@2x.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 60, img.Bounds().Dx())
}

func TestGenerateBatch_StripDB(t *testing.T) {
	opts := batchDefaults()
	opts.Format = formatStripDB
	opts.OutputFile = filepath.Join(t.TempDir(), "strips.db")
	opts.Name = "test"

	summary, err := generateBatch(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)

	reader, err := stripdb.OpenReader(opts.OutputFile)
	require.NoError(t, err)
	defer reader.Close()

	entries, err := reader.Keys()
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	meta, err := reader.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "test", meta.Name)
	assert.Equal(t, []string{"hue", "3366ff"}, meta.Bases)
	assert.Equal(t, []int{1}, meta.Scales)

	key, err := stripkey.New(30, 4, "hue")
	require.NoError(t, err)
	data, err := reader.ReadStrip(key, 1)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 30, img.Bounds().Dx())
}

func TestGenerateBatch_Validation(t *testing.T) {
	opts := batchDefaults()
	opts.Format = "zip"
	_, err := generateBatch(context.Background(), opts)
	assert.ErrorContains(t, err, "invalid format")

	opts = batchDefaults()
	opts.Format = formatStripDB
	_, err = generateBatch(context.Background(), opts)
	assert.ErrorContains(t, err, "--output-file")

	opts = batchDefaults()
	opts.OutputDir = t.TempDir()
	opts.Sizes = nil
	_, err = generateBatch(context.Background(), opts)
	assert.ErrorContains(t, err, "nothing to generate")
}

func TestGenerateBatch_Cancelled(t *testing.T) {
	opts := batchDefaults()
	opts.OutputDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := generateBatch(ctx, opts)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, summary.Failed)
}

func TestGenerateBatch_AllowFailures(t *testing.T) {
	opts := batchDefaults()
	opts.Sizes = []string{"20000x2"}
	opts.Bases = []string{"hue"}
	opts.OutputDir = t.TempDir()

	summary, err := generateBatch(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, 1, summary.Failed)

	opts.AllowFailures = true
	summary, err = generateBatch(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
}

func TestParseStripPath(t *testing.T) {
	tests := []struct {
		path      string
		wantKey   string
		wantScale int
		wantOK    bool
	}{
		{"w300_h20_hue.png", "w300_h20_hue", 1, true},
		{"w300_h20_c3366ff@2x.png", "w300_h20_c3366ff", 2, true},
		{"hue/300x20.png", "w300_h20_hue", 1, true},
		{"3366ff/150x10@2x.png", "w150_h10_c3366ff", 2, true},
		{"3366FF/150x10.png", "w150_h10_c3366ff", 1, true},
		{"red/150x10.png", "", 0, false},
		{"hue/extra/300x20.png", "", 0, false},
		{"w300_h20_hue.jpg", "", 0, false},
		{"README.md", "", 0, false},
		{"z1_x2_y3.png", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			key, scale, ok := parseStripPath(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantKey, key.String())
			assert.Equal(t, tt.wantScale, scale)
		})
	}
}

func TestPackStrips(t *testing.T) {
	opts := batchDefaults()
	opts.OutputDir = t.TempDir()
	opts.Layout = pipeline.LayoutNested
	opts.HiDPI = true
	_, err := generateBatch(context.Background(), opts)
	require.NoError(t, err)

	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(opts.OutputDir, "notes.txt"), []byte("hi"), 0o644))

	out := filepath.Join(t.TempDir(), "packed.db")
	n, err := packStrips(opts.OutputDir, out, "packed", "from folder")
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	reader, err := stripdb.OpenReader(out)
	require.NoError(t, err)
	defer reader.Close()

	meta, err := reader.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "packed", meta.Name)
	assert.Equal(t, "from folder", meta.Description)
	assert.Equal(t, []string{"20x2", "30x4"}, meta.Sizes)
	assert.Equal(t, []string{"3366ff", "hue"}, meta.Bases)
	assert.Equal(t, []int{1, 2}, meta.Scales)

	key, err := stripkey.New(20, 2, "#3366ff")
	require.NoError(t, err)
	_, err = reader.ReadStrip(key, 2)
	require.NoError(t, err)
}

func TestPackStrips_Empty(t *testing.T) {
	_, err := packStrips(t.TempDir(), filepath.Join(t.TempDir(), "x.db"), "x", "")
	assert.ErrorContains(t, err, "no strips found")

	_, err = packStrips("", "x.db", "x", "")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	newLogger(&buf, true).Debug("shown", "key", "value")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "key=value")
}
