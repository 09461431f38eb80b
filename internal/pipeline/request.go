package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/topomap/internal/heightfield"
)

// MaxRequestNodes is the largest grid a Request may ask for. It is also
// the default node cap of the terrain server.
const MaxRequestNodes = 1025

// Request is a self-contained build request, as sent by browser code.
// Zero fields take the DefaultConfig values.
type Request struct {
	Seed      int64     `json:"seed"`
	Nodes     int       `json:"nodes"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Variation *float64  `json:"variation,omitempty"`
	Method    string    `json:"method"`
	Increment float64   `json:"increment"`
	Levels    []float64 `json:"levels"`
	MaxMoves  int       `json:"max_moves"`
}

// Config merges the request into the defaults.
func (r Request) Config() (Config, error) {
	if r.Nodes < 0 || r.Nodes > MaxRequestNodes {
		return Config{}, fmt.Errorf("%w: %d nodes (max %d)", heightfield.ErrInvalidNodes, r.Nodes, MaxRequestNodes)
	}

	cfg := DefaultConfig()
	if r.Nodes != 0 {
		cfg.Terrain.Nodes = r.Nodes
	}
	if r.Width != 0 {
		cfg.Terrain.Width = r.Width
	}
	if r.Height != 0 {
		cfg.Terrain.Height = r.Height
	}
	if r.Variation != nil {
		cfg.Terrain.Variation = *r.Variation
	}
	if r.Increment != 0 {
		cfg.Increment = r.Increment
	}
	if r.MaxMoves != 0 {
		cfg.Contour.MaxMoves = r.MaxMoves
	}
	cfg.Levels = r.Levels

	method, err := heightfield.ParseMethod(r.Method)
	if err != nil {
		return Config{}, err
	}
	cfg.Method = method
	return cfg, nil
}

// BuildRequest parses a JSON request, builds the terrain in memory, and
// returns the mesh document as JSON.
func BuildRequest(ctx context.Context, raw []byte, logger *slog.Logger) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}

	cfg, err := req.Config()
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(cfg, logger)
	if err != nil {
		return nil, err
	}

	key := heightfield.Key{Seed: req.Seed, Nodes: gen.Config().Terrain.Nodes}
	topo, err := gen.Build(ctx, key)
	if err != nil {
		return nil, err
	}
	return gen.Encode(topo, ExtMesh)
}
