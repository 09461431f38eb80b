package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/MeKo-Tech/topomap/internal/contour"
	"github.com/MeKo-Tech/topomap/internal/geojson"
	"github.com/MeKo-Tech/topomap/internal/geometry"
	"github.com/MeKo-Tech/topomap/internal/heightfield"
	"github.com/MeKo-Tech/topomap/internal/raster"
)

// Artefact extensions written by Generate, in write order.
const (
	ExtMesh    = "json"
	ExtGeoJSON = "geojson"
	ExtPreview = "png"
)

// Extensions lists every artefact a generated terrain has on disk.
var Extensions = []string{ExtMesh, ExtGeoJSON, ExtPreview}

// Config holds everything needed to turn a key into artefacts. The key
// supplies the seed and node count; Terrain supplies the rest.
type Config struct {
	Terrain   heightfield.Params
	Method    heightfield.Method
	Levels    []float64 // explicit elevations; empty means DefaultLevels(Variation, Increment)
	Increment float64
	Contour   contour.Options
	Workers   int
	Style     raster.Style
	OutputDir string
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		Terrain:   heightfield.DefaultParams(),
		Method:    heightfield.MethodDiamondSquare,
		Increment: 0.1,
		Contour:   contour.DefaultOptions(),
		Workers:   1,
		Style:     raster.DefaultStyle(),
		OutputDir: "./terrain",
	}
}

// Topography is one fully built terrain.
type Topography struct {
	Key      heightfield.Key
	Method   heightfield.Method
	Grid     *heightfield.Grid
	Stats    heightfield.Stats
	Contours *contour.Set
	Mesh     geometry.Mesh
}

// Generator wires synthesis, contour extraction, and export into one step.
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

// NewGenerator validates cfg and prepares a generator.
func NewGenerator(cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.Terrain.Nodes == 0 {
		cfg.Terrain.Nodes = heightfield.DefaultParams().Nodes
	}
	if err := cfg.Terrain.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Levels) == 0 {
		if _, err := contour.DefaultLevels(cfg.Terrain.Variation, cfg.Increment).Values(); err != nil {
			return nil, err
		}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Contour.Logger == nil {
		cfg.Contour.Logger = logger
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// Levels returns the contour elevations this generator traces.
func (g *Generator) Levels() []float64 {
	if len(g.cfg.Levels) > 0 {
		return append([]float64(nil), g.cfg.Levels...)
	}
	// Validated in NewGenerator.
	values, _ := contour.DefaultLevels(g.cfg.Terrain.Variation, g.cfg.Increment).Values()
	return values
}

// Params returns the terrain parameters for key.
func (g *Generator) Params(key heightfield.Key) heightfield.Params {
	p := g.cfg.Terrain
	p.Nodes = key.Nodes
	return p
}

// Build synthesizes the terrain for key and traces its contours.
func (g *Generator) Build(ctx context.Context, key heightfield.Key) (*Topography, error) {
	start := time.Now()
	p := g.Params(key)

	grid, err := heightfield.Synthesize(p, g.cfg.Method, key.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize %s: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	levels := g.Levels()
	set, err := contour.NewExtractor(grid, g.cfg.Contour).ExtractConcurrent(ctx, levels, g.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to extract contours for %s: %w", key, err)
	}

	topo := &Topography{
		Key:      key,
		Method:   g.cfg.Method,
		Grid:     grid,
		Stats:    grid.Stats(),
		Contours: set,
		Mesh:     geometry.Build(grid, set),
	}

	sum := set.Summary()
	g.log().Debug("Built terrain",
		"key", key.String(),
		"method", string(g.cfg.Method),
		"levels", sum.Levels,
		"contours", sum.Strands+sum.Loops,
		"truncated", sum.Truncated,
		"ms", time.Since(start).Milliseconds(),
	)
	return topo, nil
}

// Generate builds key and writes its mesh, GeoJSON, and preview into the
// output directory. Existing artefacts are kept unless force is set.
// Returns the mesh path.
func (g *Generator) Generate(ctx context.Context, key heightfield.Key, force bool) (string, error) {
	meshPath := filepath.Join(g.cfg.OutputDir, key.Path(ExtMesh))
	if !force && g.complete(key) {
		g.log().Info("Terrain already exists; skipping", "key", key.String(), "path", meshPath)
		return meshPath, nil
	}

	if err := os.MkdirAll(g.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	g.log().Info("Building terrain", "key", key.String())
	topo, err := g.Build(ctx, key)
	if err != nil {
		return "", err
	}

	for _, ext := range Extensions {
		data, err := g.Encode(topo, ext)
		if err != nil {
			return "", err
		}
		path := filepath.Join(g.cfg.OutputDir, key.Path(ext))
		if err := writeFileAtomic(path, data); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	g.log().Info("Wrote terrain", "key", key.String(), "dir", g.cfg.OutputDir)
	return meshPath, nil
}

// Encode renders one artefact of topo.
func (g *Generator) Encode(topo *Topography, ext string) ([]byte, error) {
	switch ext {
	case ExtMesh:
		data, err := json.Marshal(NewDocument(topo, g.Params(topo.Key)))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal mesh: %w", err)
		}
		return data, nil
	case ExtGeoJSON:
		return geojson.ToGeoJSONBytes(topo.Contours)
	case ExtPreview:
		img := raster.NewRenderer(topo.Grid, g.cfg.Style).Render(topo.Contours)
		var buf bytes.Buffer
		if err := raster.EncodePNG(&buf, img); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown artefact extension %q", ext)
	}
}

func (g *Generator) complete(key heightfield.Key) bool {
	for _, ext := range Extensions {
		if _, err := os.Stat(filepath.Join(g.cfg.OutputDir, key.Path(ext))); err != nil {
			return false
		}
	}
	return true
}

// writeFileAtomic writes via a temp file in the same directory so readers
// never observe a partial artefact.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() // nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
