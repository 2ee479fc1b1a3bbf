// Package pipeline renders strips for keys and stores them as PNG files or in an archive.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/colorstrip/internal/render"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
)

// Output layouts for strips written to a folder.
const (
	LayoutFlat   = "flat"   // w300_h20_hue@2x.png
	LayoutNested = "nested" // hue/300x20@2x.png
)

// StripWriter stores encoded strips, e.g. a stripdb.Writer.
type StripWriter interface {
	WriteStrip(key stripkey.Key, scale int, pngData []byte) error
}

// GeneratorOptions configures how strips are drawn and where they go.
type GeneratorOptions struct {
	// OutputDir receives PNG files unless Writer is set.
	OutputDir string
	Layout    string
	Writer    StripWriter

	Pointer     strip.Pointer
	Rounded     float64
	Disabled    bool
	Compression string

	// ShowPointer draws the pointer at PointerAt, a ratio of the strip width.
	ShowPointer bool
	PointerAt   float64
}

// Generator renders strips and writes them out. It is safe for concurrent use
// when its StripWriter is.
type Generator struct {
	opts   GeneratorOptions
	logger *slog.Logger
}

// NewGenerator validates options and prepares a generator.
func NewGenerator(opts GeneratorOptions, logger *slog.Logger) (*Generator, error) {
	if opts.Writer == nil && opts.OutputDir == "" {
		return nil, fmt.Errorf("either an output directory or a strip writer is required")
	}
	switch opts.Layout {
	case "":
		opts.Layout = LayoutFlat
	case LayoutFlat, LayoutNested:
	default:
		return nil, fmt.Errorf("invalid layout %q: must be %s or %s", opts.Layout, LayoutFlat, LayoutNested)
	}
	if _, err := render.ParseCompression(opts.Compression); err != nil {
		return nil, err
	}
	if opts.PointerAt < 0 || opts.PointerAt > 1 {
		return nil, fmt.Errorf("pointer position %g out of range [0, 1]", opts.PointerAt)
	}

	return &Generator{opts: opts, logger: logger}, nil
}

// Path returns where a folder-backed generator writes key with suffix.
func (g *Generator) Path(key stripkey.Key, suffix string) string {
	name := key.Path(suffix, "png")
	if g.opts.Layout == LayoutNested {
		name = key.NestedPath(suffix, "png")
	}
	return filepath.Join(g.opts.OutputDir, filepath.FromSlash(name))
}

// Render draws key at the scale its suffix implies and returns the PNG.
func (g *Generator) Render(key stripkey.Key, suffix string) ([]byte, error) {
	opts := render.Options{
		CustomColor: key.CustomColor(),
		Pointer:     g.opts.Pointer,
		Width:       float64(key.Width),
		Height:      float64(key.Height),
		Rounded:     g.opts.Rounded,
		Scale:       float64(stripkey.ScaleForSuffix(suffix)),
		Disabled:    g.opts.Disabled,
	}
	st := render.State{
		ShowPointer: g.opts.ShowPointer,
		PointerX:    g.opts.PointerAt * float64(key.Width),
	}

	img, err := render.Render(opts, st)
	if err != nil {
		return nil, fmt.Errorf("failed to render strip %s: %w", key, err)
	}
	data, err := render.PNGBytes(img, g.opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("failed to encode strip %s: %w", key, err)
	}
	return data, nil
}

// Generate renders key and stores it. With a folder output it returns the file
// path and skips files that already exist unless force is set; with a writer it
// returns the key string.
func (g *Generator) Generate(ctx context.Context, key stripkey.Key, force bool, suffix string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if g.opts.Writer != nil {
		data, err := g.Render(key, suffix)
		if err != nil {
			return "", err
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		scale := stripkey.ScaleForSuffix(suffix)
		if err := g.opts.Writer.WriteStrip(key, scale, data); err != nil {
			return "", fmt.Errorf("failed to store strip %s: %w", key, err)
		}
		g.log().Debug("Stored strip", "key", key.String(), "scale", scale, "bytes", len(data))
		return key.String() + suffix, nil
	}

	finalPath := g.Path(key, suffix)
	if !force {
		if _, err := os.Stat(finalPath); err == nil {
			g.log().Info("Strip already exists; skipping", "key", key.String(), "path", finalPath)
			return finalPath, nil
		}
	}

	data, err := g.Render(key, suffix)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := writeFileAtomic(finalPath, data); err != nil {
		return "", fmt.Errorf("failed to write strip file: %w", err)
	}

	g.log().Info("Wrote strip", "key", key.String(), "path", finalPath)
	return finalPath, nil
}

// writeFileAtomic writes through a temp file so readers never see a partial PNG.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".strip-*.png")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName) // nolint:errcheck
		return err
	}
	return nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
