package cmd

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/topomap/internal/contour"
	"github.com/MeKo-Tech/topomap/internal/heightfield"
	"github.com/MeKo-Tech/topomap/internal/pipeline"
	"github.com/spf13/viper"
)

// pipelineConfig assembles the generator config from the bound viper keys.
func pipelineConfig(outputDir string) (pipeline.Config, error) {
	method, err := heightfield.ParseMethod(viper.GetString("terrain.method"))
	if err != nil {
		return pipeline.Config{}, err
	}
	levels, err := parseLevels(viper.GetString("contours.levels"))
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("invalid contours.levels: %w", err)
	}

	size := viper.GetFloat64("terrain.size")
	cfg := pipeline.DefaultConfig()
	cfg.Terrain = heightfield.Params{
		Nodes:     viper.GetInt("terrain.nodes"),
		Width:     size,
		Height:    size,
		Variation: viper.GetFloat64("terrain.variation"),
	}
	cfg.Method = method
	cfg.Levels = levels
	cfg.Increment = viper.GetFloat64("contours.increment")
	cfg.Contour = contour.Options{
		Logger:   logger,
		Epsilon:  viper.GetFloat64("contours.epsilon"),
		MaxMoves: viper.GetInt("contours.max_moves"),
	}
	cfg.Workers = viper.GetInt("contours.workers")
	cfg.Style.Size = viper.GetInt("render.size")
	cfg.Style.Blur = float32(viper.GetFloat64("render.blur"))
	cfg.OutputDir = outputDir
	return cfg, nil
}

// parseLevels parses "-0.5, 0, 0.5" into elevations. Empty input means no
// explicit levels.
func parseLevels(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	levels := make([]float64, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number at position %d: %w", i, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("level at position %d is not finite", i)
		}
		levels = append(levels, v)
	}
	return levels, nil
}

// parseSeeds parses "1,5..8,-3" into [1 5 6 7 8 -3].
func parseSeeds(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("no seeds given")
	}

	const maxSeeds = 100000
	var seeds []int64
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "..")
		if !isRange {
			hi = lo
		}

		from, err := strconv.ParseInt(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed at position %d: %w", i, err)
		}
		to, err := strconv.ParseInt(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed at position %d: %w", i, err)
		}
		if from > to {
			return nil, fmt.Errorf("seed range %q runs backwards", part)
		}
		// Unsigned difference so full-width ranges cannot wrap.
		span := uint64(to) - uint64(from)
		if span >= maxSeeds || uint64(len(seeds))+span >= maxSeeds {
			return nil, fmt.Errorf("too many seeds (max %d)", maxSeeds)
		}
		for i := int64(0); i <= int64(span); i++ {
			seeds = append(seeds, from+i)
		}
	}
	return seeds, nil
}
