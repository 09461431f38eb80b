package heightfield

import (
	"fmt"
	"math"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Method selects the terrain source.
type Method string

const (
	MethodDiamondSquare Method = "diamond-square"
	MethodPerlin        Method = "perlin"
	MethodSimplex       Method = "simplex"
)

// ParseMethod maps a config string to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodDiamondSquare:
		return MethodDiamondSquare, nil
	case MethodPerlin:
		return MethodPerlin, nil
	case MethodSimplex:
		return MethodSimplex, nil
	default:
		return "", fmt.Errorf("%w: unknown method %q", ErrInvalidParams, s)
	}
}

// noiseFrequency is the number of base noise periods across the grid.
const noiseFrequency = 3.0

// Synthesize builds a grid with the given method from seed.
func Synthesize(p Params, m Method, seed int64) (*Grid, error) {
	switch m {
	case MethodDiamondSquare, "":
		return Generate(p, NewSource(seed))
	case MethodPerlin, MethodSimplex:
		return GenerateNoise(p, m, seed)
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidParams, m)
	}
}

// GenerateNoise fills a grid with fractal gradient noise scaled to
// [-Variation/2, +Variation/2].
func GenerateNoise(p Params, m Method, seed int64) (*Grid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var sample func(x, y float64) float64
	switch m {
	case MethodPerlin:
		// alpha 2, beta 2, 3 octaves.
		pn := perlin.NewPerlin(2.0, 2.0, 3, seed)
		sample = pn.Noise2D
	case MethodSimplex:
		sn := opensimplex.New(seed)
		sample = func(x, y float64) float64 {
			// Four octaves of fBm, normalised by the amplitude sum.
			var total, amp, norm float64 = 0, 1, 0
			freq := 1.0
			for o := 0; o < 4; o++ {
				total += sn.Eval2(x*freq, y*freq) * amp
				norm += amp
				amp *= 0.5
				freq *= 2
			}
			return total / norm
		}
	default:
		return nil, fmt.Errorf("%w: %q is not a noise method", ErrInvalidParams, m)
	}

	g := newGrid(p)
	n := p.Nodes
	last := float64(n - 1)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			v := sample(float64(x)/last*noiseFrequency, float64(y)/last*noiseFrequency)
			v = math.Max(-1, math.Min(1, v))
			g.setZ(x, y, v*p.Variation/2)
		}
	}
	return g, nil
}
