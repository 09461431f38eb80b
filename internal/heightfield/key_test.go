package heightfield

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyRoundTrip(t *testing.T) {
	k := Key{Seed: -42, Nodes: 129}
	assert.Equal(t, "s-42_n129", k.String())
	assert.Equal(t, "s-42_n129.png", k.Path("png"))
	assert.Equal(t, "s-42_n129.json", k.Path(".json"))

	got, err := ParseKey(k.String())
	require.NoError(t, err)
	assert.Equal(t, k, got)
}

func TestParseKeyErrors(t *testing.T) {
	for _, s := range []string{"", "42_129", "s42", "s42_n", "sx_n129", "s1_n128", "s1_n2", "n129_s1"} {
		t.Run(s, func(t *testing.T) {
			_, err := ParseKey(s)
			require.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}
