package contour

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/MeKo-Tech/topomap/internal/heightfield"
)

// DefaultMaxMoves caps the number of cell steps a single contour may take.
const DefaultMaxMoves = 1000

// Options tunes extraction.
type Options struct {
	Logger   *slog.Logger
	Epsilon  float64
	MaxMoves int
}

// DefaultOptions returns the stock tolerance and move cap.
func DefaultOptions() Options {
	return Options{
		Epsilon:  DefaultEpsilon,
		MaxMoves: DefaultMaxMoves,
	}
}

// Extractor traces contours on one grid. It is safe for concurrent Trace
// calls because every call owns its own search state.
type Extractor struct {
	grid *heightfield.Grid
	opts Options
	cell float64
}

// NewExtractor prepares an extractor; zero option fields take defaults.
func NewExtractor(g *heightfield.Grid, opts Options) *Extractor {
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	if opts.MaxMoves <= 0 {
		opts.MaxMoves = DefaultMaxMoves
	}
	spacing := math.Max(g.Width(), g.Height()) / float64(g.Size()-1)
	return &Extractor{grid: g, opts: opts, cell: spacing}
}

// Trace returns the contours at elevation z in seed order. Elevations that
// never cross a grid edge produce an empty slice.
func (e *Extractor) Trace(z float64) []Contour {
	if math.IsNaN(z) || math.IsInf(z, 0) {
		e.log().Warn("skipping non-finite contour level", "level", z)
		return []Contour{}
	}

	t := &tracer{
		grid:     e.grid,
		visited:  newPointIndex(e.cell, e.opts.Epsilon),
		z:        z,
		maxMoves: e.opts.MaxMoves,
	}
	contours := t.run()
	if contours == nil {
		contours = []Contour{}
	}

	for i, c := range contours {
		if c.Truncated {
			e.log().Warn("contour hit move cap; keeping partial line",
				"level", z,
				"contour", i,
				"points", len(c.Points),
				"max_moves", e.opts.MaxMoves,
			)
		}
	}
	e.log().Debug("traced level", "level", z, "contours", len(contours), "points", t.visited.size)
	return contours
}

// Extract traces every level sequentially.
func (e *Extractor) Extract(levels []float64) *Set {
	set := NewSet()
	for _, z := range levels {
		if math.IsNaN(z) || math.IsInf(z, 0) {
			e.log().Warn("skipping non-finite contour level", "level", z)
			continue
		}
		set.Put(z, e.Trace(z))
	}
	return set
}

// ExtractConcurrent traces levels on up to workers goroutines. The result
// is identical to Extract; only wall time differs. It returns ctx.Err()
// if cancelled before every level finished.
func (e *Extractor) ExtractConcurrent(ctx context.Context, levels []float64, workers int) (*Set, error) {
	if workers <= 1 {
		return e.Extract(levels), ctx.Err()
	}

	type traced struct {
		z        float64
		contours []Contour
	}

	levelCh := make(chan float64)
	resultCh := make(chan traced, len(levels))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for z := range levelCh {
				resultCh <- traced{z: z, contours: e.Trace(z)}
			}
		}()
	}

	go func() {
		defer close(levelCh)
		for _, z := range levels {
			if math.IsNaN(z) || math.IsInf(z, 0) {
				e.log().Warn("skipping non-finite contour level", "level", z)
				continue
			}
			select {
			case levelCh <- z:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(resultCh)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set := NewSet()
	for r := range resultCh {
		set.Put(r.z, r.contours)
	}
	return set, nil
}

func (e *Extractor) log() *slog.Logger {
	if e.opts.Logger != nil {
		return e.opts.Logger
	}
	return slog.Default()
}

// Extract is shorthand for NewExtractor(g, opts).Extract(levels).
func Extract(g *heightfield.Grid, levels []float64, opts Options) *Set {
	return NewExtractor(g, opts).Extract(levels)
}
