package heightfield

import (
	"fmt"
	"math/rand"
)

// Source supplies uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic source for seed.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Generate builds a diamond-square terrain.
//
// Corners are drawn first in the order (0,0), (N-1,0), (0,N-1), (N-1,N-1)
// with amplitude Variation/8, then each pass halves the cell spacing. The
// diamond step perturbs by Variation/divisor and the square step by
// Variation/(divisor-1).
func Generate(p Params, src Source) (*Grid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidParams)
	}

	g := newGrid(p)
	n := p.Nodes
	v := p.Variation

	corner := v / 8
	g.setZ(0, 0, src.Float64()*corner-corner/2)
	g.setZ(n-1, 0, src.Float64()*corner-corner/2)
	g.setZ(0, n-1, src.Float64()*corner-corner/2)
	g.setZ(n-1, n-1, src.Float64()*corner-corner/2)

	for divisor := 2; divisor < n; divisor *= 2 {
		offset := n / divisor
		g.diamond(offset, v/float64(divisor), src)
		g.square(offset, v/float64(divisor-1), src)
	}

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if !g.defined(x, y) {
				panic(fmt.Sprintf("heightfield: cell (%d,%d) left undefined", x, y))
			}
		}
	}
	return g, nil
}

// diamond fills the centre of every square of side 2*offset.
func (g *Grid) diamond(offset int, amp float64, src Source) {
	n := g.size
	for x := offset; x < n-1; x += offset * 2 {
		for y := offset; y < n-1; y += offset * 2 {
			avg := (g.Z(x-offset, y-offset) +
				g.Z(x+offset, y-offset) +
				g.Z(x-offset, y+offset) +
				g.Z(x+offset, y+offset)) / 4
			g.setZ(x, y, avg+src.Float64()*amp-amp/2)
		}
	}
}

// square fills edge midpoints from their in-bounds axis neighbours.
func (g *Grid) square(offset int, amp float64, src Source) {
	n := g.size
	for x := 0; x < n; x += offset {
		shift := (x + offset) % (offset * 2)
		for y := shift; y < n; y += offset * 2 {
			var sum float64
			count := 0
			for _, nb := range [4][2]int{
				{x - offset, y},
				{x + offset, y},
				{x, y - offset},
				{x, y + offset},
			} {
				if !g.InBounds(nb[0], nb[1]) {
					continue
				}
				sum += g.Z(nb[0], nb[1])
				count++
			}
			if count == 0 {
				panic(fmt.Sprintf("heightfield: square step at (%d,%d) has no neighbours", x, y))
			}
			g.setZ(x, y, sum/float64(count)+src.Float64()*amp-amp/2)
		}
	}
}
