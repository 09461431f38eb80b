// Package server serves generated terrains over HTTP, building missing ones
// on demand.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/topomap/internal/heightfield"
	"github.com/MeKo-Tech/topomap/internal/pipeline"
)

// Generator builds the artefacts for a terrain key into the terrain dir.
type Generator interface {
	Generate(ctx context.Context, key heightfield.Key, force bool) (string, error)
}

type OnDemandTerrainConfig struct {
	TerrainDir               string
	CacheControl             string
	MaxNodes                 int
	MaxConcurrentGenerations int
	GenerationTimeout        time.Duration
	GenerateMissing          bool
	DisableCache             bool
}

type OnDemandTerrain struct {
	gen    Generator
	logger *slog.Logger
	sem    chan struct{}
	locks  sync.Map
	cfg    OnDemandTerrainConfig

	activeBuilds  atomic.Int32
	totalBuilt    atomic.Int64
	totalFailed   atomic.Int64
	currentBuilds sync.Map // key string -> start time

	queuedBuilds atomic.Int32
	queuedKeys   sync.Map // key string -> queue time
}

// TerrainStatus is the JSON body of the status endpoint.
type TerrainStatus struct {
	ActiveBuilds  int      `json:"active_builds"`
	TotalBuilt    int64    `json:"total_built"`
	TotalFailed   int64    `json:"total_failed"`
	CurrentKeys   []string `json:"current_keys"`
	MaxConcurrent int      `json:"max_concurrent"`
	QueuedBuilds  int      `json:"queued_builds"`
	QueuedKeys    []string `json:"queued_keys"`
}

var contentTypes = map[string]string{
	pipeline.ExtMesh:    "application/json",
	pipeline.ExtGeoJSON: "application/geo+json",
	pipeline.ExtPreview: "image/png",
}

func NewOnDemandTerrain(gen Generator, cfg OnDemandTerrainConfig, logger *slog.Logger) (*OnDemandTerrain, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.TerrainDir == "" {
		cfg.TerrainDir = "./terrain"
	}
	if cfg.MaxNodes <= 0 {
		cfg.MaxNodes = pipeline.MaxRequestNodes
	}
	if cfg.MaxConcurrentGenerations <= 0 {
		cfg.MaxConcurrentGenerations = 1
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 2 * time.Minute
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}

	return &OnDemandTerrain{
		gen:    gen,
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentGenerations),
	}, nil
}

// Status returns a snapshot of the build counters.
func (t *OnDemandTerrain) Status() TerrainStatus {
	return TerrainStatus{
		ActiveBuilds:  int(t.activeBuilds.Load()),
		TotalBuilt:    t.totalBuilt.Load(),
		TotalFailed:   t.totalFailed.Load(),
		CurrentKeys:   mapKeys(&t.currentBuilds),
		MaxConcurrent: t.cfg.MaxConcurrentGenerations,
		QueuedBuilds:  int(t.queuedBuilds.Load()),
		QueuedKeys:    mapKeys(&t.queuedKeys),
	}
}

// StatusHandler returns an HTTP handler for the status endpoint (JSON).
func (t *OnDemandTerrain) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
			http.Error(w, "failed to encode status", http.StatusInternalServerError)
		}
	})
}

// StatusStreamHandler pushes the status as Server-Sent Events every 250ms.
func (t *OnDemandTerrain) StatusStreamHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "SSE not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()

		t.sendStatusEvent(w, flusher)
		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				t.sendStatusEvent(w, flusher)
			}
		}
	})
}

func (t *OnDemandTerrain) sendStatusEvent(w http.ResponseWriter, flusher http.Flusher) {
	data, err := json.Marshal(t.Status())
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

func (t *OnDemandTerrain) Handler() http.Handler {
	return http.HandlerFunc(t.serveTerrain)
}

func (t *OnDemandTerrain) serveTerrain(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	key, ext, ok := parseTerrainPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if key.Nodes > t.cfg.MaxNodes {
		http.Error(w, fmt.Sprintf("terrain too large: %d nodes (max %d)", key.Nodes, t.cfg.MaxNodes), http.StatusBadRequest)
		return
	}

	filename := key.Path(ext)
	fullPath := filepath.Join(t.cfg.TerrainDir, filename)

	w.Header().Set("Cache-Control", t.cfg.CacheControl)
	w.Header().Set("Content-Type", contentTypes[ext])

	if !t.cfg.DisableCache && fileExists(fullPath) {
		http.ServeFile(w, r, fullPath)
		return
	}

	if !t.cfg.GenerateMissing {
		http.Error(w, fmt.Sprintf("terrain not found: %s", filename), http.StatusNotFound)
		return
	}

	// One build per key covers every artefact extension.
	name := key.String()
	mu := t.getLock(name)
	mu.Lock()
	defer mu.Unlock()

	if !t.cfg.DisableCache && fileExists(fullPath) {
		http.ServeFile(w, r, fullPath)
		return
	}

	t.queuedBuilds.Add(1)
	t.queuedKeys.Store(name, time.Now())

	select {
	case t.sem <- struct{}{}:
		t.queuedBuilds.Add(-1)
		t.queuedKeys.Delete(name)
		defer func() { <-t.sem }()
	case <-r.Context().Done():
		t.queuedBuilds.Add(-1)
		t.queuedKeys.Delete(name)
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.GenerationTimeout)
	defer cancel()

	start := time.Now()
	t.activeBuilds.Add(1)
	t.currentBuilds.Store(name, start)

	_, err := t.gen.Generate(ctx, key, t.cfg.DisableCache)

	t.activeBuilds.Add(-1)
	t.currentBuilds.Delete(name)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to generate terrain", "key", name, "error", err)
		http.Error(w, fmt.Sprintf("failed to generate terrain %s: %v", name, err), http.StatusInternalServerError)
		return
	}
	t.totalBuilt.Add(1)
	t.log().Info("terrain generated on-demand", "key", name, "ms", time.Since(start).Milliseconds())

	if !fileExists(fullPath) {
		http.Error(w, "terrain generation completed but file missing on disk", http.StatusInternalServerError)
		return
	}

	http.ServeFile(w, r, fullPath)
}

func (t *OnDemandTerrain) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := t.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

func (t *OnDemandTerrain) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}

// parseTerrainPath accepts /terrain/s42_n129.json, .geojson, or .png.
func parseTerrainPath(requestPath string) (heightfield.Key, string, bool) {
	if !strings.HasPrefix(requestPath, "/terrain/") {
		return heightfield.Key{}, "", false
	}
	base := path.Base(requestPath)
	name, ext, ok := strings.Cut(base, ".")
	if !ok || !slices.Contains(pipeline.Extensions, ext) {
		return heightfield.Key{}, "", false
	}

	key, err := heightfield.ParseKey(name)
	if err != nil {
		return heightfield.Key{}, "", false
	}
	return key, ext, true
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}

func mapKeys(m *sync.Map) []string {
	var out []string
	m.Range(func(key, _ any) bool {
		out = append(out, key.(string))
		return true
	})
	slices.Sort(out)
	return out
}
