package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Strips.CacheDir == "" {
		cfg.Strips.CacheDir = t.TempDir()
	}
	s, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Healthz(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, body := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_CORSPreflight(t *testing.T) {
	ts := newTestServer(t, Config{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/sessions", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestServer_Routes(t *testing.T) {
	demo := fstest.MapFS{"index.html": {Data: []byte("<h1>demo</h1>")}}
	ts := newTestServer(t, Config{
		Strips:  OnDemandConfig{GenerateMissing: true},
		Archive: &ArchiveConfig{Path: writeArchive(t)},
		Demo:    demo,
	})

	resp, _ := get(t, ts.URL+"/strips/w30_h4_hue.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, ts.URL+"/archive/w300_h20_hue.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "one", body)

	resp, body = get(t, ts.URL+"/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"total_rendered":1`)

	resp, body = get(t, ts.URL+"/api/color?value=%23ffffff")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"ok":true`)

	resp, body = get(t, ts.URL+"/demo/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "demo")

	resp, _ = get(t, ts.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "root redirects to the demo")
	assert.Equal(t, "/demo/", resp.Request.URL.Path)
}

func TestServer_NoArchive(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, _ := get(t, ts.URL+"/archive/w300_h20_hue.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ShutdownOnCancel(t *testing.T) {
	s, err := New(context.Background(), Config{Strips: OnDemandConfig{CacheDir: t.TempDir()}}, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	cancel()
	assert.NoError(t, <-done)
}
