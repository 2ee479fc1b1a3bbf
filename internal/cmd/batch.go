package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/colorstrip/internal/pipeline"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
	"github.com/MeKo-Tech/colorstrip/internal/stripdb"
	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
	"github.com/MeKo-Tech/colorstrip/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	formatFolder  = "folder"
	formatStripDB = "stripdb"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate strips for every size and base color",
	Long: `Generate one strip per combination of --sizes and --bases in parallel.

Strips go to --output-dir as PNG files, or into a strip archive with
--format=stripdb. The hue strip is selected by the base "hue".`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringSlice("sizes", []string{"300x20"}, "Strip sizes as WIDTHxHEIGHT")
	batchCmd.Flags().StringSlice("bases", []string{stripkey.HueBase}, "Base colors (hue for the hue strip)")
	batchCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some strips fail")
	batchCmd.Flags().Bool("force", false, "Force regeneration even if the strip file exists")
	batchCmd.Flags().Bool("hidpi", false, "Also generate a 2x (@2x) strip alongside each base strip")
	batchCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	batchCmd.Flags().Float64("rounded", 0, "Corner radius in CSS pixels")
	batchCmd.Flags().Bool("show-pointer", false, "Draw the pointer on every strip")
	batchCmd.Flags().Float64("pointer-at", 0.5, "Pointer position as a ratio of the width (with --show-pointer)")

	batchCmd.Flags().String("format", formatFolder, "Output format: folder or stripdb")
	batchCmd.Flags().String("output-file", "", "Archive path for --format=stripdb (e.g., strips.db)")
	batchCmd.Flags().String("layout", pipeline.LayoutFlat, "Folder layout: flat (w{w}_h{h}_{base}.png) or nested ({base}/{w}x{h}.png)")
	batchCmd.Flags().String("name", "colorstrip", "Archive name stored in metadata")

	bindFlags(batchCmd, []struct{ key, flag string }{
		{"batch.sizes", "sizes"},
		{"batch.bases", "bases"},
		{"batch.workers", "workers"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
		{"batch.force", "force"},
		{"batch.hidpi", "hidpi"},
		{"batch.png_compression", "png-compression"},
		{"batch.rounded", "rounded"},
		{"batch.show_pointer", "show-pointer"},
		{"batch.pointer_at", "pointer-at"},
		{"batch.format", "format"},
		{"batch.output_file", "output-file"},
		{"batch.layout", "layout"},
		{"batch.name", "name"},
	})
}

// batchOptions is the resolved input of the batch command.
type batchOptions struct {
	Sizes         []string
	Bases         []string
	Workers       int
	Progress      bool
	ProgressOut   io.Writer
	AllowFailures bool
	Force         bool
	HiDPI         bool
	Compression   string
	Rounded       float64
	Pointer       strip.Pointer
	ShowPointer   bool
	PointerAt     float64
	Format        string
	OutputDir     string
	OutputFile    string
	Layout        string
	Name          string
}

// batchSummary counts the outcome of a batch run.
type batchSummary struct {
	Total  int
	Failed int
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	opts := batchOptions{
		Sizes:         viper.GetStringSlice("batch.sizes"),
		Bases:         viper.GetStringSlice("batch.bases"),
		Workers:       viper.GetInt("batch.workers"),
		Progress:      viper.GetBool("batch.progress"),
		AllowFailures: viper.GetBool("batch.allow_failures"),
		Force:         viper.GetBool("batch.force"),
		HiDPI:         viper.GetBool("batch.hidpi"),
		Compression:   viper.GetString("batch.png_compression"),
		Rounded:       viper.GetFloat64("batch.rounded"),
		Pointer:       pointerFromConfig("batch.pointer"),
		ShowPointer:   viper.GetBool("batch.show_pointer"),
		PointerAt:     viper.GetFloat64("batch.pointer_at"),
		Format:        viper.GetString("batch.format"),
		OutputDir:     viper.GetString("output-dir"),
		OutputFile:    viper.GetString("batch.output_file"),
		Layout:        viper.GetString("batch.layout"),
		Name:          viper.GetString("batch.name"),
	}

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	_, err := generateBatch(ctx, opts)
	return err
}

// generateBatch renders every strip opts describes and stores it.
func generateBatch(ctx context.Context, opts batchOptions) (batchSummary, error) {
	if opts.Format != formatFolder && opts.Format != formatStripDB {
		return batchSummary{}, fmt.Errorf("invalid format %q: must be '%s' or '%s'", opts.Format, formatFolder, formatStripDB)
	}
	if opts.Format == formatStripDB && opts.OutputFile == "" {
		return batchSummary{}, fmt.Errorf("--output-file is required when using --format=stripdb")
	}

	keys, err := batchKeys(opts.Sizes, opts.Bases)
	if err != nil {
		return batchSummary{}, err
	}
	if len(keys) == 0 {
		return batchSummary{}, fmt.Errorf("nothing to generate: no sizes or bases given")
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	tasks := worker.Tasks(keys, opts.Force, opts.HiDPI)

	log := logger
	if log == nil {
		log = newLogger(io.Discard, false)
	}
	log.Info("Starting batch strip generation",
		"strips", len(keys),
		"total_with_hidpi", len(tasks),
		"workers", workers,
		"format", opts.Format,
		"output_dir", opts.OutputDir,
	)

	var db *stripdb.Writer
	genOpts := pipeline.GeneratorOptions{
		OutputDir:   opts.OutputDir,
		Layout:      opts.Layout,
		Pointer:     opts.Pointer,
		Rounded:     opts.Rounded,
		Compression: opts.Compression,
		ShowPointer: opts.ShowPointer,
		PointerAt:   opts.PointerAt,
	}
	if opts.Format == formatStripDB {
		db, err = stripdb.New(opts.OutputFile, archiveMetadata(opts, keys))
		if err != nil {
			return batchSummary{}, fmt.Errorf("failed to create strip archive: %w", err)
		}
		defer db.Close()
		genOpts.Writer = db
	}

	gen, err := pipeline.NewGenerator(genOpts, log)
	if err != nil {
		return batchSummary{}, fmt.Errorf("failed to init generator: %w", err)
	}

	progress := worker.NewProgress(len(tasks), opts.Progress)
	if opts.ProgressOut != nil {
		progress.SetOutput(opts.ProgressOut)
	}

	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	failed := worker.Failed(results)
	for _, r := range failed {
		log.Error("Strip generation failed", "strip", r.Task.String(), "error", r.Err)
	}
	log.Info(progress.Summary())

	summary := batchSummary{Total: len(tasks), Failed: len(failed)}

	if db != nil {
		if err := db.Flush(); err != nil {
			return summary, fmt.Errorf("failed to flush strip archive: %w", err)
		}
		log.Info("Strip archive complete", "path", opts.OutputFile)
	}

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("batch generation cancelled: %w", err)
	}
	if len(failed) > 0 {
		if !opts.AllowFailures {
			return summary, fmt.Errorf("%d strips failed to generate", len(failed))
		}
		log.Warn("Some strips failed to generate, but continuing due to --allow-failures flag", "failed_count", len(failed))
	}
	return summary, nil
}

// batchKeys expands size and base lists into strip keys.
func batchKeys(sizeList, bases []string) ([]stripkey.Key, error) {
	sizes := make([][2]int, 0, len(sizeList))
	for _, s := range sizeList {
		sz, err := stripkey.ParseSize(s)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, sz)
	}
	return stripkey.Sizes(sizes, bases)
}

func archiveMetadata(opts batchOptions, keys []stripkey.Key) stripdb.Metadata {
	meta := stripdb.Metadata{
		Name:        opts.Name,
		Format:      "png",
		Description: "Color strip gradients",
		Version:     "1.0",
		Sizes:       opts.Sizes,
		Scales:      []int{1},
	}
	if opts.HiDPI {
		meta.Scales = append(meta.Scales, 2)
	}

	seen := make(map[string]bool)
	for _, k := range keys {
		if !seen[k.Base] {
			seen[k.Base] = true
			meta.Bases = append(meta.Bases, k.Base)
		}
	}
	return meta
}
