package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MeKo-Tech/topomap/internal/heightfield"
	"github.com/MeKo-Tech/topomap/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingGenerator wraps a real generator and counts builds.
type countingGenerator struct {
	next  Generator
	calls atomic.Int32
	fail  bool
}

func (c *countingGenerator) Generate(ctx context.Context, key heightfield.Key, force bool) (string, error) {
	c.calls.Add(1)
	if c.fail {
		return "", errors.New("simulated failure")
	}
	return c.next.Generate(ctx, key, force)
}

func newTestServer(t *testing.T, cfg OnDemandTerrainConfig) (*OnDemandTerrain, *countingGenerator) {
	t.Helper()
	pcfg := pipeline.DefaultConfig()
	pcfg.OutputDir = cfg.TerrainDir
	pcfg.Style.Size = 32
	gen, err := pipeline.NewGenerator(pcfg, quietLogger())
	require.NoError(t, err)

	cg := &countingGenerator{next: gen}
	od, err := NewOnDemandTerrain(cg, cfg, quietLogger())
	require.NoError(t, err)
	return od, cg
}

func TestParseTerrainPath(t *testing.T) {
	tests := []struct {
		path string
		key  heightfield.Key
		ext  string
		ok   bool
	}{
		{"/terrain/s42_n129.json", heightfield.Key{Seed: 42, Nodes: 129}, "json", true},
		{"/terrain/s-1_n9.geojson", heightfield.Key{Seed: -1, Nodes: 9}, "geojson", true},
		{"/terrain/s7_n17.png", heightfield.Key{Seed: 7, Nodes: 17}, "png", true},
		{"/terrain/s7_n17.jpg", heightfield.Key{}, "", false},
		{"/terrain/s7_n16.png", heightfield.Key{}, "", false},
		{"/terrain/s7_n17", heightfield.Key{}, "", false},
		{"/tiles/s7_n17.png", heightfield.Key{}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			key, ext, ok := parseTerrainPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestServeGeneratesOnceAndCaches(t *testing.T) {
	dir := t.TempDir()
	od, cg := newTestServer(t, OnDemandTerrainConfig{TerrainDir: dir, GenerateMissing: true})
	h := od.Handler()

	for _, ext := range []string{"json", "geojson", "png"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/s11_n17."+ext, nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, contentTypes[ext], rec.Header().Get("Content-Type"))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	}
	assert.Equal(t, int32(1), cg.calls.Load(), "one build serves every artefact")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/s11_n17.json", nil))
	var doc pipeline.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "s11_n17", doc.Key)
	assert.Equal(t, 17, doc.Nodes)

	st := od.Status()
	assert.Equal(t, int64(1), st.TotalBuilt)
	assert.Equal(t, 0, st.ActiveBuilds)
	assert.Empty(t, st.CurrentKeys)
}

func TestServeConcurrentRequestsShareBuild(t *testing.T) {
	od, cg := newTestServer(t, OnDemandTerrainConfig{TerrainDir: t.TempDir(), GenerateMissing: true, MaxConcurrentGenerations: 4})
	h := od.Handler()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/s3_n33.png", nil))
			assert.Equal(t, http.StatusOK, rec.Code)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), cg.calls.Load())
}

func TestServeMissingWithoutGeneration(t *testing.T) {
	od, cg := newTestServer(t, OnDemandTerrainConfig{TerrainDir: t.TempDir()})

	rec := httptest.NewRecorder()
	od.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/s1_n9.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, int32(0), cg.calls.Load())
}

func TestServeExistingFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s1_n9.geojson"), []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	od, cg := newTestServer(t, OnDemandTerrainConfig{TerrainDir: dir})

	rec := httptest.NewRecorder()
	od.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/s1_n9.geojson", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "FeatureCollection")
	assert.Equal(t, int32(0), cg.calls.Load())
}

func TestServeRejects(t *testing.T) {
	od, _ := newTestServer(t, OnDemandTerrainConfig{TerrainDir: t.TempDir(), GenerateMissing: true, MaxNodes: 65})
	h := od.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/s1_n129.json", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/garbage.json", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/terrain/s1_n9.json", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServeGenerationFailure(t *testing.T) {
	od, cg := newTestServer(t, OnDemandTerrainConfig{TerrainDir: t.TempDir(), GenerateMissing: true})
	cg.fail = true

	rec := httptest.NewRecorder()
	od.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/terrain/s1_n9.json", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int64(1), od.Status().TotalFailed)
}

func TestStatusHandler(t *testing.T) {
	od, _ := newTestServer(t, OnDemandTerrainConfig{TerrainDir: t.TempDir(), MaxConcurrentGenerations: 3})

	rec := httptest.NewRecorder()
	od.StatusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var st TerrainStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 3, st.MaxConcurrent)
}

func TestNewOnDemandTerrainRequiresGenerator(t *testing.T) {
	_, err := NewOnDemandTerrain(nil, OnDemandTerrainConfig{}, nil)
	require.Error(t, err)
}
