package heightfield

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSource wraps a Source and counts draws.
type countingSource struct {
	src   Source
	draws int
}

func (c *countingSource) Float64() float64 {
	c.draws++
	return c.src.Float64()
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr error
	}{
		{"default", DefaultParams(), nil},
		{"smallest", Params{Nodes: 3, Width: 1, Height: 1, Variation: 1}, nil},
		{"even size", Params{Nodes: 128, Width: 1, Height: 1, Variation: 1}, ErrInvalidNodes},
		{"power of two", Params{Nodes: 64, Width: 1, Height: 1}, ErrInvalidNodes},
		{"one node", Params{Nodes: 1, Width: 1, Height: 1}, ErrInvalidNodes},
		{"two nodes", Params{Nodes: 2, Width: 1, Height: 1}, ErrInvalidNodes},
		{"zero width", Params{Nodes: 5, Width: 0, Height: 1}, ErrInvalidParams},
		{"negative variation", Params{Nodes: 5, Width: 1, Height: 1, Variation: -1}, ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestGenerateRejectsInvalidNodes(t *testing.T) {
	g, err := Generate(Params{Nodes: 6, Width: 2, Height: 2, Variation: 2}, NewSource(1))
	require.ErrorIs(t, err, ErrInvalidNodes)
	assert.Nil(t, g)
}

func TestGenerateNoHoles(t *testing.T) {
	for k := 1; k <= 7; k++ {
		n := 1<<k + 1
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			g, err := Generate(Params{Nodes: n, Width: 7, Height: 7, Variation: 2}, NewSource(int64(k)))
			require.NoError(t, err)
			require.Equal(t, n, g.Size())
			for y := 0; y < n; y++ {
				for x := 0; x < n; x++ {
					z := g.Z(x, y)
					require.False(t, math.IsNaN(z), "cell (%d,%d) undefined", x, y)
				}
			}
		})
	}
}

func TestGenerateWritesEachCellOnce(t *testing.T) {
	// setZ panics on a second write, so a full run proves single assignment;
	// the draw count proves no cell was skipped.
	for _, n := range []int{3, 5, 9, 33} {
		src := &countingSource{src: NewSource(99)}
		_, err := Generate(Params{Nodes: n, Width: 1, Height: 1, Variation: 2}, src)
		require.NoError(t, err)
		assert.Equal(t, n*n, src.draws, "n=%d", n)
	}
}

func TestGenerateCornersKeepInitialValues(t *testing.T) {
	const seed = 2024
	p := Params{Nodes: 5, Width: 2, Height: 2, Variation: 2}

	g, err := Generate(p, NewSource(seed))
	require.NoError(t, err)

	replay := NewSource(seed)
	amp := p.Variation / 8
	want := []float64{
		replay.Float64()*amp - amp/2,
		replay.Float64()*amp - amp/2,
		replay.Float64()*amp - amp/2,
		replay.Float64()*amp - amp/2,
	}
	got := []float64{g.Z(0, 0), g.Z(4, 0), g.Z(0, 4), g.Z(4, 4)}
	assert.Equal(t, want, got)

	for _, z := range got {
		assert.LessOrEqual(t, math.Abs(z), p.Variation/16)
	}
}

func TestGenerateFiveByFive(t *testing.T) {
	// Divisors 2 and 4 run; 8 >= 5 stops the loop.
	src := &countingSource{src: NewSource(7)}
	g, err := Generate(Params{Nodes: 5, Width: 2, Height: 2, Variation: 2}, src)
	require.NoError(t, err)

	// 4 corners + (1 diamond + 4 square) + (4 diamond + 12 square)
	assert.Equal(t, 25, src.draws)
	assert.Len(t, g.Heights(), 25)
}

func TestGenerateWorldCoordinates(t *testing.T) {
	g, err := Generate(Params{Nodes: 5, Width: 4, Height: 2, Variation: 1}, NewSource(3))
	require.NoError(t, err)

	tests := []struct {
		x, y   int
		wx, wy float64
	}{
		{0, 0, -2, 1},
		{4, 0, 2, 1},
		{0, 4, -2, -1},
		{4, 4, 2, -1},
		{2, 2, 0, 0},
		{1, 3, -1, -0.5},
	}
	for _, tt := range tests {
		n := g.At(tt.x, tt.y)
		assert.InDelta(t, tt.wx, n.X, 1e-12, "x at (%d,%d)", tt.x, tt.y)
		assert.InDelta(t, tt.wy, n.Y, 1e-12, "y at (%d,%d)", tt.x, tt.y)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	p := Params{Nodes: 33, Width: 7, Height: 7, Variation: 2}

	a, err := Generate(p, NewSource(1337))
	require.NoError(t, err)
	b, err := Generate(p, NewSource(1337))
	require.NoError(t, err)
	c, err := Generate(p, NewSource(1338))
	require.NoError(t, err)

	if diff := cmp.Diff(a.Nodes(), b.Nodes()); diff != "" {
		t.Errorf("same seed produced different grids (-a +b):\n%s", diff)
	}
	assert.NotEqual(t, a.Heights(), c.Heights())
}

func TestGenerateBoundedByVariation(t *testing.T) {
	// Total perturbation is bounded by the geometric sum of the pass amplitudes.
	p := Params{Nodes: 65, Width: 7, Height: 7, Variation: 2}
	g, err := Generate(p, NewSource(5))
	require.NoError(t, err)

	bound := p.Variation / 16
	for d := 2; d < p.Nodes; d *= 2 {
		bound += p.Variation / float64(d-1) / 2
	}
	s := g.Stats()
	assert.LessOrEqual(t, s.Max, bound)
	assert.GreaterOrEqual(t, s.Min, -bound)
}

func TestGenerateZeroVariationIsFlat(t *testing.T) {
	g, err := Generate(Params{Nodes: 9, Width: 1, Height: 1, Variation: 0}, NewSource(1))
	require.NoError(t, err)
	for _, z := range g.Heights() {
		assert.Zero(t, z)
	}
}

func TestGenerateNilSource(t *testing.T) {
	_, err := Generate(DefaultParams(), nil)
	require.ErrorIs(t, err, ErrInvalidParams)
}
