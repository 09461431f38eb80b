// Package heightfield synthesizes square terrain grids.
package heightfield

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidNodes is returned when the grid size is not 2^k+1.
	ErrInvalidNodes = errors.New("grid nodes must be 2^k+1 with k >= 1")
	// ErrInvalidParams is returned for non-positive extents or negative variation.
	ErrInvalidParams = errors.New("invalid heightfield parameters")
)

// Node is a single grid sample in world units.
type Node struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Params configures grid construction.
type Params struct {
	Nodes     int     // samples per side, 2^k+1
	Width     float64 // world extent along X
	Height    float64 // world extent along Y
	Variation float64 // perturbation amplitude
}

// DefaultParams returns the settings the topography view was tuned with.
func DefaultParams() Params {
	return Params{
		Nodes:     129,
		Width:     7,
		Height:    7,
		Variation: 2,
	}
}

// Validate checks the grid size and extents.
func (p Params) Validate() error {
	if !validNodes(p.Nodes) {
		return fmt.Errorf("%w: got %d", ErrInvalidNodes, p.Nodes)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive (got %g x %g)", ErrInvalidParams, p.Width, p.Height)
	}
	if p.Variation < 0 || math.IsNaN(p.Variation) {
		return fmt.Errorf("%w: variation must be non-negative (got %g)", ErrInvalidParams, p.Variation)
	}
	return nil
}

func validNodes(n int) bool {
	if n < 3 {
		return false
	}
	m := n - 1
	return m&(m-1) == 0
}

// Grid is an N x N block of nodes stored row-major (index = y*N + x).
// X and Y are fixed at allocation; every Z is written exactly once.
type Grid struct {
	nodes  []Node
	size   int
	width  float64
	height float64
}

// newGrid allocates a grid with world X/Y set and every Z undefined (NaN).
func newGrid(p Params) *Grid {
	n := p.Nodes
	g := &Grid{
		nodes:  make([]Node, n*n),
		size:   n,
		width:  p.Width,
		height: p.Height,
	}
	last := float64(n - 1)
	for y := 0; y < n; y++ {
		wy := (1.0 - 2*(float64(y)/last)) * (p.Height / 2)
		for x := 0; x < n; x++ {
			g.nodes[y*n+x] = Node{
				X: (2*(float64(x)/last) - 1.0) * (p.Width / 2),
				Y: wy,
				Z: math.NaN(),
			}
		}
	}
	return g
}

// FromHeights builds a grid from explicit row-major heights.
func FromHeights(p Params, heights []float64) (*Grid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(heights) != p.Nodes*p.Nodes {
		return nil, fmt.Errorf("%w: expected %d heights, got %d", ErrInvalidParams, p.Nodes*p.Nodes, len(heights))
	}
	g := newGrid(p)
	for i, z := range heights {
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, fmt.Errorf("%w: height %d is not finite", ErrInvalidParams, i)
		}
		g.nodes[i].Z = z
	}
	return g, nil
}

// Size returns the number of nodes per side.
func (g *Grid) Size() int { return g.size }

// Width returns the world extent along X.
func (g *Grid) Width() float64 { return g.width }

// Height returns the world extent along Y.
func (g *Grid) Height() float64 { return g.height }

// Index returns the flat index of (x, y).
func (g *Grid) Index(x, y int) int { return y*g.size + x }

// InBounds reports whether (x, y) addresses a node.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.size && y < g.size
}

// At returns the node at column x, row y.
func (g *Grid) At(x, y int) Node { return g.nodes[y*g.size+x] }

// Z returns the elevation at column x, row y.
func (g *Grid) Z(x, y int) float64 { return g.nodes[y*g.size+x].Z }

// Nodes returns a copy of the row-major node buffer.
func (g *Grid) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Heights returns the row-major elevations.
func (g *Grid) Heights() []float64 {
	out := make([]float64, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Z
	}
	return out
}

// defined reports whether (x, y) already carries an elevation.
func (g *Grid) defined(x, y int) bool {
	return !math.IsNaN(g.nodes[y*g.size+x].Z)
}

// setZ writes the elevation of an undefined cell.
func (g *Grid) setZ(x, y int, z float64) {
	i := y*g.size + x
	if !math.IsNaN(g.nodes[i].Z) {
		panic(fmt.Sprintf("heightfield: cell (%d,%d) written twice", x, y))
	}
	g.nodes[i].Z = z
}

// Format renders Z*100 as a tab-separated table, one grid row per line.
func (g *Grid) Format() string {
	var b strings.Builder
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			fmt.Fprintf(&b, "%d\t", int(math.Round(g.Z(x, y)*100)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
