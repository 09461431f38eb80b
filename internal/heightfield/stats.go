package heightfield

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the elevation distribution of a grid.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Stats computes min/max/mean/stddev of Z.
func (g *Grid) Stats() Stats {
	z := g.Heights()
	mean, std := stat.MeanStdDev(z, nil)
	return Stats{
		Min:    floats.Min(z),
		Max:    floats.Max(z),
		Mean:   mean,
		StdDev: std,
	}
}

// Contains reports whether elevation z lies strictly inside the grid's range.
func (s Stats) Contains(z float64) bool {
	return z > s.Min && z < s.Max
}
