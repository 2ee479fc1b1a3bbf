// Package server exposes strips and the color library over HTTP: on-demand
// strip rendering backed by a cache directory, an optional stripdb archive,
// JSON color endpoints and server-side widget sessions.
package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"
)

// Config configures a Server. Archive is optional.
type Config struct {
	Strips   OnDemandConfig
	Archive  *ArchiveConfig
	Sessions SessionConfig
	// Demo is served under /demo/ when set.
	Demo fs.FS
}

// Server wires the HTTP handlers together.
type Server struct {
	strips   *OnDemandStrips
	archive  *ArchiveHandler
	sessions *SessionStore
	api      *ColorAPI
	demo     fs.FS
	logger   *slog.Logger
}

// New builds a server and starts its session janitor.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	strips, err := NewOnDemandStrips(cfg.Strips, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		strips:   strips,
		sessions: NewSessionStore(cfg.Sessions, logger),
		api:      NewColorAPI(logger),
		demo:     cfg.Demo,
		logger:   logger,
	}

	if cfg.Archive != nil {
		s.archive, err = NewArchiveHandler(*cfg.Archive, logger)
		if err != nil {
			return nil, err
		}
	}

	s.sessions.Start(ctx)
	return s, nil
}

// Handler returns the routed, CORS-enabled handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("GET /strips/{file}", s.strips.Handler())
	mux.Handle("GET /status", s.strips.StatusHandler())
	mux.Handle("GET /status/stream", s.strips.StatusStreamHandler(0))

	if s.archive != nil {
		mux.Handle("GET /archive/{file}", s.archive.Handler())
		mux.Handle("GET /archive/{$}", s.archive.IndexHandler())
	}

	s.api.Register(mux)
	s.sessions.Register(mux)

	if s.demo != nil {
		mux.Handle("GET /demo/", http.StripPrefix("/demo/", http.FileServerFS(s.demo)))
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/demo/", http.StatusFound)
		})
	}

	return withCORS(mux)
}

// Close stops the session janitor and closes the archive.
func (s *Server) Close() error {
	s.sessions.Stop()
	if s.archive != nil {
		return s.archive.Close()
	}
	return nil
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log().Info("shutting down server", "addr", addr)
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
