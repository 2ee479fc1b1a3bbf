package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/colorstrip/internal/pipeline"
	"github.com/MeKo-Tech/colorstrip/internal/render"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
)

// OnDemandConfig configures strip serving from a cache directory.
type OnDemandConfig struct {
	CacheDir     string
	Compression  string
	CacheControl string
	Pointer      strip.Pointer
	Rounded      float64
	// ShowPointer draws the pointer at PointerAt (a width ratio) on every strip.
	ShowPointer              bool
	PointerAt                float64
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
	GenerateMissing          bool
	DisableCache             bool
}

// OnDemandStrips serves cached strips and renders missing ones on request.
type OnDemandStrips struct {
	gen    *pipeline.Generator
	logger *slog.Logger
	sem    chan struct{}
	locks  keyedLocks
	cfg    OnDemandConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	totalServed    atomic.Int64
	currentRenders sync.Map // strip name -> start time
	queuedRenders  atomic.Int32
	queuedStrips   sync.Map // strip name -> queue time
}

// StripStatus reports the render activity of an OnDemandStrips.
type StripStatus struct {
	ActiveRenders int      `json:"active_renders"`
	TotalRendered int64    `json:"total_rendered"`
	TotalFailed   int64    `json:"total_failed"`
	TotalServed   int64    `json:"total_served"`
	CurrentStrips []string `json:"current_strips"`
	MaxConcurrent int      `json:"max_concurrent"`
	QueuedRenders int      `json:"queued_renders"`
	QueuedStrips  []string `json:"queued_strips"`
}

// NewOnDemandStrips fills config defaults and prepares the cache generator.
func NewOnDemandStrips(cfg OnDemandConfig, logger *slog.Logger) (*OnDemandStrips, error) {
	if cfg.CacheDir == "" {
		cfg.CacheDir = "./strips"
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	gen, err := pipeline.NewGenerator(pipeline.GeneratorOptions{
		OutputDir:   cfg.CacheDir,
		Layout:      pipeline.LayoutFlat,
		Pointer:     cfg.Pointer,
		Rounded:     cfg.Rounded,
		Compression: cfg.Compression,
		ShowPointer: cfg.ShowPointer,
		PointerAt:   cfg.PointerAt,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create strip generator: %w", err)
	}

	return &OnDemandStrips{
		gen:    gen,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}, nil
}

// Status returns a snapshot of render activity.
func (o *OnDemandStrips) Status() StripStatus {
	return StripStatus{
		ActiveRenders: int(o.activeRenders.Load()),
		TotalRendered: o.totalRendered.Load(),
		TotalFailed:   o.totalFailed.Load(),
		TotalServed:   o.totalServed.Load(),
		CurrentStrips: sortedKeys(&o.currentRenders),
		MaxConcurrent: o.cfg.MaxConcurrentGenerations,
		QueuedRenders: int(o.queuedRenders.Load()),
		QueuedStrips:  sortedKeys(&o.queuedStrips),
	}
}

// StatusHandler serves Status as JSON.
func (o *OnDemandStrips) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, o.Status(), o.log())
	})
}

// StatusStreamHandler pushes Status as server-sent events until the client leaves.
func (o *OnDemandStrips) StatusStreamHandler(interval time.Duration) http.Handler {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		o.sendStatusEvent(w, flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				o.sendStatusEvent(w, flusher)
			}
		}
	})
}

func (o *OnDemandStrips) sendStatusEvent(w http.ResponseWriter, flusher http.Flusher) {
	data, err := json.Marshal(o.Status())
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// Handler serves GET /strips/{file}.
func (o *OnDemandStrips) Handler() http.Handler {
	return http.HandlerFunc(o.serveStrip)
}

func (o *OnDemandStrips) serveStrip(w http.ResponseWriter, r *http.Request) {
	key, suffix, ok := parseStripFile(r.PathValue("file"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	name := key.String() + suffix
	fullPath := o.gen.Path(key, suffix)
	w.Header().Set("Cache-Control", o.cfg.CacheControl)

	if !o.cfg.DisableCache && fileExists(fullPath) {
		o.serveFile(w, r, fullPath)
		return
	}

	if !o.cfg.GenerateMissing {
		http.Error(w, fmt.Sprintf("strip not found: %s", name), http.StatusNotFound)
		return
	}

	unlock := o.locks.lock(name)
	defer unlock()

	// Another request may have rendered it while we waited.
	if !o.cfg.DisableCache && fileExists(fullPath) {
		o.serveFile(w, r, fullPath)
		return
	}

	o.queuedRenders.Add(1)
	o.queuedStrips.Store(name, time.Now())
	select {
	case o.sem <- struct{}{}:
		o.queuedRenders.Add(-1)
		o.queuedStrips.Delete(name)
		defer func() { <-o.sem }()
	case <-r.Context().Done():
		o.queuedRenders.Add(-1)
		o.queuedStrips.Delete(name)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), o.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	o.activeRenders.Add(1)
	o.currentRenders.Store(name, start)

	_, err := o.gen.Generate(ctx, key, true, suffix)

	o.activeRenders.Add(-1)
	o.currentRenders.Delete(name)

	if err != nil {
		o.totalFailed.Add(1)
		o.log().Error("failed to generate strip", "strip", name, "error", err)
		http.Error(w, fmt.Sprintf("failed to generate strip %s: %v", name, err), http.StatusInternalServerError)
		return
	}
	o.totalRendered.Add(1)
	o.log().Info("strip generated on-demand", "strip", name, "ms", time.Since(start).Milliseconds())

	if !fileExists(fullPath) {
		http.Error(w, "strip generation completed but file missing on disk", http.StatusInternalServerError)
		return
	}
	o.serveFile(w, r, fullPath)
}

func (o *OnDemandStrips) serveFile(w http.ResponseWriter, r *http.Request, p string) {
	o.totalServed.Add(1)
	http.ServeFile(w, r, p)
}

// keyedLocks serializes work per key. An entry lives only while some
// caller holds or waits on it.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// lock acquires the mutex for key and returns its release func.
func (k *keyedLocks) lock(key string) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = make(map[string]*keyLock)
	}
	l, ok := k.m[key]
	if !ok {
		l = &keyLock{}
		k.m[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}

func (o *OnDemandStrips) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}

// parseStripFile parses "w300_h20_hue.png" or "w300_h20_c3366ff@2x.png".
func parseStripFile(file string) (stripkey.Key, string, bool) {
	if file == "" || strings.ContainsAny(file, `/\`) || filepath.Ext(file) != ".png" {
		return stripkey.Key{}, "", false
	}
	name := strings.TrimSuffix(file, ".png")
	suffix := ""
	if strings.HasSuffix(name, stripkey.HiDPISuffix) {
		suffix = stripkey.HiDPISuffix
		name = strings.TrimSuffix(name, stripkey.HiDPISuffix)
	}

	key, err := stripkey.Parse(name)
	if err != nil {
		return stripkey.Key{}, "", false
	}
	scale := stripkey.ScaleForSuffix(suffix)
	if key.Width*scale > render.MaxDimension || key.Height*scale > render.MaxDimension {
		return stripkey.Key{}, "", false
	}
	return key, suffix, true
}

func sortedKeys(m *sync.Map) []string {
	keys := []string{}
	m.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}
