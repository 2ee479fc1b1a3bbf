package server

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
	"github.com/MeKo-Tech/colorstrip/internal/inspect"
)

// ColorAPI exposes the color library over HTTP.
type ColorAPI struct {
	logger *slog.Logger
}

// NewColorAPI creates the color endpoints.
func NewColorAPI(logger *slog.Logger) *ColorAPI {
	return &ColorAPI{logger: logger}
}

// Register adds the color endpoints under /api/ to mux.
func (a *ColorAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/color", a.handleColor)
	mux.HandleFunc("GET /api/hue", a.handleHue)
	mux.HandleFunc("GET /api/mix", a.handleMix)
	mux.HandleFunc("GET /api/hue-color", a.handleHueColor)
	mux.HandleFunc("GET /api/inspect", a.handleInspect)
}

type colorResponse struct {
	colormodel.ColorValue
	OK bool `json:"ok"`
}

// handleColor parses ?value=. Unparseable input yields the red fallback with
// ok=false, or 400 when strict=true.
func (a *ColorAPI) handleColor(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	v, ok := colormodel.ParseColorValue(value)
	if !ok {
		if strict, _ := strconv.ParseBool(r.URL.Query().Get("strict")); strict {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid color %q", value), a.log())
			return
		}
		v = colormodel.Red
	}
	writeJSON(w, http.StatusOK, colorResponse{ColorValue: v, OK: ok}, a.log())
}

type hueResponse struct {
	Hue float64 `json:"hue"`
	OK  bool    `json:"ok"`
}

func (a *ColorAPI) handleHue(w http.ResponseWriter, r *http.Request) {
	h, ok := colormodel.LookupHue(r.URL.Query().Get("value"))
	writeJSON(w, http.StatusOK, hueResponse{Hue: h, OK: ok}, a.log())
}

type mixResponse struct {
	Hex string `json:"hex"`
}

func (a *ColorAPI) handleMix(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := strconv.ParseFloat(q.Get("t"), 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		writeError(w, http.StatusBadRequest, "t must be a finite number", a.log())
		return
	}
	writeJSON(w, http.StatusOK, mixResponse{Hex: colormodel.MixColors(q.Get("from"), q.Get("to"), t)}, a.log())
}

func (a *ColorAPI) handleHueColor(w http.ResponseWriter, r *http.Request) {
	h, err := strconv.ParseFloat(r.URL.Query().Get("h"), 64)
	if err != nil || math.IsNaN(h) || h < 0 || h > 360 {
		writeError(w, http.StatusBadRequest, "h must be a number in [0, 360]", a.log())
		return
	}
	writeJSON(w, http.StatusOK, colormodel.CreateColorFromHue(h), a.log())
}

func (a *ColorAPI) handleInspect(w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")
	d, ok := inspect.Describe(value)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid color %q", value), a.log())
		return
	}
	writeJSON(w, http.StatusOK, d, a.log())
}

func (a *ColorAPI) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}
