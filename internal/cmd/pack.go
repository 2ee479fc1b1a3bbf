package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MeKo-Tech/colorstrip/internal/stripdb"
	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack a folder of strip PNGs into a strip archive",
	Long: `Pack strips generated with --format=folder into a single strip archive.

Both layouts are recognised: flat file names like w300_h20_hue@2x.png and
nested paths like hue/300x20@2x.png. Other files are ignored.`,
	RunE: runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)

	packCmd.Flags().String("input-dir", "", "Input directory containing strip PNGs (defaults to --output-dir)")
	packCmd.Flags().String("output-file", "strips.db", "Output archive path")
	packCmd.Flags().String("name", "colorstrip", "Archive name")
	packCmd.Flags().String("description", "Color strip gradients", "Archive description")

	bindFlags(packCmd, []struct{ key, flag string }{
		{"pack.input_dir", "input-dir"},
		{"pack.output_file", "output-file"},
		{"pack.name", "name"},
		{"pack.description", "description"},
	})
}

func runPack(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	inputDir := viper.GetString("pack.input_dir")
	if inputDir == "" {
		inputDir = viper.GetString("output-dir")
	}

	n, err := packStrips(inputDir, viper.GetString("pack.output_file"), viper.GetString("pack.name"), viper.GetString("pack.description"))
	if err != nil {
		return err
	}
	logger.Info("Packing complete", "output", viper.GetString("pack.output_file"), "strips", n)
	return nil
}

// stripFile is a strip PNG found on disk.
type stripFile struct {
	key   stripkey.Key
	scale int
	path  string
}

// packStrips writes every strip found in inputDir to a new archive and returns how many it stored.
func packStrips(inputDir, outputFile, name, description string) (int, error) {
	if inputDir == "" {
		return 0, fmt.Errorf("input directory is required")
	}

	files, err := scanStripsDirectory(inputDir)
	if err != nil {
		return 0, fmt.Errorf("failed to scan strips directory: %w", err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no strips found in %s", inputDir)
	}

	log := logger
	if log == nil {
		log = newLogger(io.Discard, false)
	}
	log.Info("Found strips", "count", len(files), "dir", inputDir)

	meta := packMetadata(files)
	meta.Name = name
	meta.Description = description

	writer, err := stripdb.New(outputFile, meta)
	if err != nil {
		return 0, fmt.Errorf("failed to create strip archive: %w", err)
	}
	defer writer.Close()

	written := 0
	for i, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			log.Error("Failed to read strip", "path", f.path, "error", err)
			continue
		}
		if err := writer.WriteStrip(f.key, f.scale, data); err != nil {
			log.Error("Failed to write strip", "strip", f.key.String(), "scale", f.scale, "error", err)
			continue
		}
		written++

		if (i+1)%100 == 0 {
			log.Info("Progress", "packed", i+1, "total", len(files))
		}
	}

	if err := writer.Flush(); err != nil {
		return written, fmt.Errorf("failed to flush strips: %w", err)
	}
	return written, nil
}

// scanStripsDirectory finds strip PNGs in either folder layout, sorted by path.
func scanStripsDirectory(dir string) ([]stripFile, error) {
	var files []stripFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key, scale, ok := parseStripPath(filepath.ToSlash(rel))
		if !ok {
			return nil
		}
		files = append(files, stripFile{key: key, scale: scale, path: path})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].path < files[j].path })
	return files, nil
}

// parseStripPath recognises "w300_h20_hue@2x.png" and "hue/300x20@2x.png".
func parseStripPath(rel string) (stripkey.Key, int, bool) {
	name, ok := strings.CutSuffix(rel, ".png")
	if !ok {
		return stripkey.Key{}, 0, false
	}
	scale := 1
	if trimmed, found := strings.CutSuffix(name, stripkey.HiDPISuffix); found {
		name = trimmed
		scale = stripkey.ScaleForSuffix(stripkey.HiDPISuffix)
	}

	dir, file, nested := strings.Cut(name, "/")
	if !nested {
		key, err := stripkey.Parse(name)
		if err != nil {
			return stripkey.Key{}, 0, false
		}
		return key, scale, true
	}

	if strings.Contains(file, "/") {
		return stripkey.Key{}, 0, false
	}
	size, err := stripkey.ParseSize(file)
	if err != nil {
		return stripkey.Key{}, 0, false
	}
	key, err := stripkey.New(size[0], size[1], dir)
	if err != nil || key.Base != strings.ToLower(dir) {
		return stripkey.Key{}, 0, false
	}
	return key, scale, true
}

// packMetadata lists the sizes, bases and scales found on disk.
func packMetadata(files []stripFile) stripdb.Metadata {
	meta := stripdb.Metadata{Format: "png", Version: "1.0"}
	sizes := make(map[string]bool)
	bases := make(map[string]bool)
	scales := make(map[int]bool)
	for _, f := range files {
		size := fmt.Sprintf("%dx%d", f.key.Width, f.key.Height)
		if !sizes[size] {
			sizes[size] = true
			meta.Sizes = append(meta.Sizes, size)
		}
		if !bases[f.key.Base] {
			bases[f.key.Base] = true
			meta.Bases = append(meta.Bases, f.key.Base)
		}
		if !scales[f.scale] {
			scales[f.scale] = true
			meta.Scales = append(meta.Scales, f.scale)
		}
	}
	sort.Strings(meta.Sizes)
	sort.Strings(meta.Bases)
	sort.Ints(meta.Scales)
	return meta
}
