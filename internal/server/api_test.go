package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apiGet(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	NewColorAPI(nil).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestColorAPI_Color(t *testing.T) {
	rec := apiGet(t, "/api/color?value=rgb(51,%20102,%20255)")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	out := decodeMap(t, rec)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, "#3366ff", out["hex"])
	assert.Equal(t, map[string]any{"r": 51.0, "g": 102.0, "b": 255.0}, out["rgb"])
	assert.Equal(t, map[string]any{"h": 225.0, "s": 100.0, "l": 60.0}, out["hsl"])
}

func TestColorAPI_ColorFallback(t *testing.T) {
	out := decodeMap(t, apiGet(t, "/api/color?value=nope"))
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, "#ff0000", out["hex"])

	rec := apiGet(t, "/api/color?value=nope&strict=true")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeMap(t, rec)["error"], "nope")
}

func TestColorAPI_Hue(t *testing.T) {
	out := decodeMap(t, apiGet(t, "/api/hue?value=%2300ff00"))
	assert.Equal(t, 120.0, out["hue"])
	assert.Equal(t, true, out["ok"])

	out = decodeMap(t, apiGet(t, "/api/hue?value=garbage"))
	assert.Equal(t, 0.0, out["hue"])
	assert.Equal(t, false, out["ok"])
}

func TestColorAPI_Mix(t *testing.T) {
	out := decodeMap(t, apiGet(t, "/api/mix?from=%23000000&to=%23ffffff&t=0.5"))
	assert.Equal(t, "#808080", out["hex"])

	out = decodeMap(t, apiGet(t, "/api/mix?from=red&to=%23ffffff&t=0.5"))
	assert.Equal(t, "red", out["hex"], "invalid endpoints return from unchanged")

	for _, q := range []string{"t=", "t=abc", "t=NaN", "t=Inf"} {
		rec := apiGet(t, "/api/mix?from=%23000000&to=%23ffffff&"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestColorAPI_HueColor(t *testing.T) {
	out := decodeMap(t, apiGet(t, "/api/hue-color?h=240"))
	assert.Equal(t, "#0000ff", out["hex"])

	for _, q := range []string{"h=", "h=-1", "h=361", "h=NaN"} {
		rec := apiGet(t, "/api/hue-color?"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestColorAPI_Inspect(t *testing.T) {
	rec := apiGet(t, "/api/inspect?value=%23ffffff")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeMap(t, rec)
	assert.Equal(t, "white", out["name"])
	assert.Equal(t, "#000000", out["pointer"])

	rec = apiGet(t, "/api/inspect?value=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestColorAPI_MethodNotAllowed(t *testing.T) {
	mux := http.NewServeMux()
	NewColorAPI(nil).Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/color?value=red", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
