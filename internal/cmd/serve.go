package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/MeKo-Tech/colorstrip/assets"
	"github.com/MeKo-Tech/colorstrip/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve strips, the color API and the demo UI",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("cache-dir", "", "Directory caching rendered strips (defaults to --output-dir)")
	serveCmd.Flags().String("demo-dir", "", "Serve the demo UI from this directory instead of the embedded copy")
	serveCmd.Flags().String("archive", "", "Strip archive to serve under /archive/")

	serveCmd.Flags().Bool("generate-missing", true, "Render missing strips on-demand and cache them to disk")
	serveCmd.Flags().Bool("disable-cache", false, "Always re-render strips (still writes to disk)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent strip renders (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 30*time.Second, "Timeout per strip render")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for rendered strips")
	serveCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().Float64("rounded", 0, "Corner radius of rendered strips in CSS pixels")
	serveCmd.Flags().Bool("show-pointer", false, "Draw the pointer on rendered strips")
	serveCmd.Flags().Float64("pointer-at", 0.5, "Pointer position as a ratio of the width (with --show-pointer)")

	serveCmd.Flags().Duration("session-ttl", 30*time.Minute, "Idle time after which widget sessions expire")
	serveCmd.Flags().Int("max-sessions", 1000, "Maximum number of live widget sessions")

	bindFlags(serveCmd, []struct{ key, flag string }{
		{"serve.addr", "addr"},
		{"serve.cache_dir", "cache-dir"},
		{"serve.demo_dir", "demo-dir"},
		{"serve.archive", "archive"},
		{"serve.generate_missing", "generate-missing"},
		{"serve.disable_cache", "disable-cache"},
		{"serve.max_concurrent_generations", "max-concurrent-generations"},
		{"serve.generation_timeout", "generation-timeout"},
		{"serve.cache_control", "cache-control"},
		{"serve.png_compression", "png-compression"},
		{"serve.rounded", "rounded"},
		{"serve.show_pointer", "show-pointer"},
		{"serve.pointer_at", "pointer-at"},
		{"serve.session_ttl", "session-ttl"},
		{"serve.max_sessions", "max-sessions"},
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	cfg, err := serverConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to init server: %w", err)
	}
	defer srv.Close()

	logger.Info("server listening",
		"addr", addr,
		"cache_dir", cfg.Strips.CacheDir,
		"archive", viper.GetString("serve.archive"),
		"generate_missing", cfg.Strips.GenerateMissing,
		"max_concurrent_generations", cfg.Strips.MaxConcurrentGenerations,
	)

	return srv.ListenAndServe(ctx, addr)
}

// serverConfig assembles the server configuration from viper.
func serverConfig() (server.Config, error) {
	cacheDir := viper.GetString("serve.cache_dir")
	if cacheDir == "" {
		cacheDir = viper.GetString("output-dir")
	}

	cfg := server.Config{
		Strips: server.OnDemandConfig{
			CacheDir:                 cacheDir,
			Compression:              viper.GetString("serve.png_compression"),
			CacheControl:             viper.GetString("serve.cache_control"),
			Pointer:                  pointerFromConfig("serve.pointer"),
			Rounded:                  viper.GetFloat64("serve.rounded"),
			ShowPointer:              viper.GetBool("serve.show_pointer"),
			PointerAt:                viper.GetFloat64("serve.pointer_at"),
			MaxConcurrentGenerations: viper.GetInt("serve.max_concurrent_generations"),
			GenerationTimeout:        viper.GetDuration("serve.generation_timeout"),
			GenerateMissing:          viper.GetBool("serve.generate_missing"),
			DisableCache:             viper.GetBool("serve.disable_cache"),
		},
		Sessions: server.SessionConfig{
			TTL:         viper.GetDuration("serve.session_ttl"),
			MaxSessions: viper.GetInt("serve.max_sessions"),
		},
	}

	if archive := viper.GetString("serve.archive"); archive != "" {
		cfg.Archive = &server.ArchiveConfig{Path: archive}
	}

	var demo fs.FS
	if dir := viper.GetString("serve.demo_dir"); dir != "" {
		demo = os.DirFS(dir)
	} else {
		var err error
		demo, err = assets.Demo()
		if err != nil {
			return cfg, fmt.Errorf("failed to load embedded demo: %w", err)
		}
	}
	cfg.Demo = demo
	return cfg, nil
}
