package contour

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLevels(t *testing.T) {
	values, err := DefaultLevels(2, 0.1).Values()
	require.NoError(t, err)

	// -0.9 .. 0.9 inclusive; 1.0 sits on the stop bound.
	require.Len(t, values, 19)
	assert.InDelta(t, -0.9, values[0], 1e-12)
	assert.InDelta(t, 0.9, values[len(values)-1], 1e-12)
	for i := 1; i < len(values); i++ {
		assert.InDelta(t, 0.1, values[i]-values[i-1], 1e-12)
	}
}

func TestLevelsValues(t *testing.T) {
	tests := []struct {
		name    string
		levels  Levels
		want    int
		wantErr bool
	}{
		{"unit steps", Levels{Start: 0, Stop: 3, Step: 1}, 3, false},
		{"single", Levels{Start: 0, Stop: 0.5, Step: 1}, 1, false},
		{"quarter steps", Levels{Start: -1, Stop: 1, Step: 0.25}, 8, false},
		{"zero step", Levels{Start: 0, Stop: 1, Step: 0}, 0, true},
		{"negative step", Levels{Start: 0, Stop: 1, Step: -0.1}, 0, true},
		{"inverted", Levels{Start: 1, Stop: 0, Step: 0.1}, 0, true},
		{"nan", Levels{Start: math.NaN(), Stop: 1, Step: 0.1}, 0, true},
		{"too many", Levels{Start: 0, Stop: 1, Step: 1e-6}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.levels.Values()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLevels)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
