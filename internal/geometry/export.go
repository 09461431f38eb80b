// Package geometry flattens terrain and contours into renderer buffers.
package geometry

import (
	"github.com/MeKo-Tech/topomap/internal/contour"
	"github.com/MeKo-Tech/topomap/internal/heightfield"
)

// Mesh bundles everything the WebGL side uploads.
type Mesh struct {
	Vertices []float32   `json:"vertices"`
	Indices  []uint32    `json:"indices"`
	Lines    [][]float32 `json:"lines"`
	Loops    []bool      `json:"loops"`
	Levels   []float64   `json:"levels"`
	Nodes    int         `json:"nodes"`
}

// Vertices returns x,y,z triplets for every node, row by row.
func Vertices(g *heightfield.Grid) []float32 {
	n := g.Size()
	out := make([]float32, 0, n*n*3)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			p := g.At(x, y)
			out = append(out, float32(p.X), float32(p.Y), float32(p.Z))
		}
	}
	return out
}

// TriangleIndices returns two triangles per grid quad, 6*(n-1)^2 indices.
// The quad diagonal always joins the corners whose (x+y) is even, the same
// cells the contour tracer lets probe diagonally.
func TriangleIndices(n int) []uint32 {
	if n < 2 {
		return nil
	}
	idx := func(x, y int) uint32 { return uint32(y*n + x) }

	out := make([]uint32, 0, 6*(n-1)*(n-1))
	for y := 0; y < n-1; y++ {
		for x := 0; x < n-1; x++ {
			if (x+y)%2 == 1 {
				// top-left, bottom-right
				out = append(out,
					idx(x, y), idx(x+1, y), idx(x, y+1),
					idx(x+1, y), idx(x, y+1), idx(x+1, y+1),
				)
			} else {
				// bottom-left, top-right
				out = append(out,
					idx(x, y), idx(x, y+1), idx(x+1, y+1),
					idx(x, y), idx(x+1, y), idx(x+1, y+1),
				)
			}
		}
	}
	return out
}

// Line flattens one contour into x,y,z triplets.
func Line(c contour.Contour) []float32 {
	out := make([]float32, 0, len(c.Points)*3)
	for _, p := range c.Points {
		out = append(out, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return out
}

// Lines flattens every contour in the set, ordered by elevation, and
// returns the parallel loop flags (true = draw as a closed line).
func Lines(s *contour.Set) ([][]float32, []bool) {
	all := s.All()
	lines := make([][]float32, 0, len(all))
	loops := make([]bool, 0, len(all))
	for _, c := range all {
		lines = append(lines, Line(c))
		loops = append(loops, c.Loop)
	}
	return lines, loops
}

// Build assembles the full mesh. s may be nil for a surface-only mesh.
func Build(g *heightfield.Grid, s *contour.Set) Mesh {
	m := Mesh{
		Vertices: Vertices(g),
		Indices:  TriangleIndices(g.Size()),
		Nodes:    g.Size(),
		Lines:    [][]float32{},
		Loops:    []bool{},
		Levels:   []float64{},
	}
	if s != nil {
		m.Lines, m.Loops = Lines(s)
		m.Levels = s.Levels()
	}
	return m
}
