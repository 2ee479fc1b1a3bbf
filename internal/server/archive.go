package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/colorstrip/internal/stripdb"
	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
)

// ArchiveHandler serves strips from a stripdb archive.
type ArchiveHandler struct {
	reader       *stripdb.Reader
	logger       *slog.Logger
	cacheControl string
}

// ArchiveConfig configures the archive handler.
type ArchiveConfig struct {
	Path         string
	CacheControl string
}

// NewArchiveHandler opens the archive read-only.
func NewArchiveHandler(cfg ArchiveConfig, logger *slog.Logger) (*ArchiveHandler, error) {
	reader, err := stripdb.OpenReader(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open strip archive: %w", err)
	}

	cacheControl := cfg.CacheControl
	if cacheControl == "" {
		cacheControl = "public, max-age=86400"
	}
	return &ArchiveHandler{reader: reader, logger: logger, cacheControl: cacheControl}, nil
}

// Handler serves GET /archive/{file}.
func (h *ArchiveHandler) Handler() http.Handler {
	return http.HandlerFunc(h.serveStrip)
}

func (h *ArchiveHandler) serveStrip(w http.ResponseWriter, r *http.Request) {
	key, suffix, ok := parseStripFile(r.PathValue("file"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	data, err := h.reader.ReadStrip(key, stripkey.ScaleForSuffix(suffix))
	if errors.Is(err, stripdb.ErrNotFound) {
		http.Error(w, "strip not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log().Error("Failed to read strip", "strip", key.String()+suffix, "error", err)
		http.Error(w, "failed to read strip", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", h.cacheControl)
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

type archiveIndex struct {
	Metadata stripdb.Metadata `json:"metadata"`
	Strips   []string         `json:"strips"`
}

// IndexHandler lists the archive's metadata and strip file names as JSON.
func (h *ArchiveHandler) IndexHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta, err := h.reader.Metadata()
		if err != nil {
			h.log().Error("Failed to read archive metadata", "error", err)
			http.Error(w, "failed to read archive", http.StatusInternalServerError)
			return
		}
		entries, err := h.reader.Keys()
		if err != nil {
			h.log().Error("Failed to list archive", "error", err)
			http.Error(w, "failed to read archive", http.StatusInternalServerError)
			return
		}

		idx := archiveIndex{Metadata: meta, Strips: make([]string, 0, len(entries))}
		for _, e := range entries {
			suffix := ""
			if e.Scale == 2 {
				suffix = stripkey.HiDPISuffix
			}
			idx.Strips = append(idx.Strips, e.Key.Path(suffix, "png"))
		}
		writeJSON(w, http.StatusOK, idx, h.log())
	})
}

// Close closes the archive.
func (h *ArchiveHandler) Close() error {
	return h.reader.Close()
}

func (h *ArchiveHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
