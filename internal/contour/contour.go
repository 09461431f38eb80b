// Package contour traces iso-elevation lines across a heightfield grid.
package contour

import "sort"

// Point is a crossing in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Contour is a polyline at a single elevation.
type Contour struct {
	Points    []Point `json:"points"`
	Elevation float64 `json:"elevation"`
	// Loop marks contours seeded from an interior cell; render as a closed line.
	Loop bool `json:"loop"`
	// Truncated marks contours cut off by the move cap.
	Truncated bool `json:"truncated,omitempty"`
}

// Len returns the number of points.
func (c Contour) Len() int { return len(c.Points) }

// Set holds the contours produced for each requested elevation.
type Set struct {
	byLevel map[float64][]Contour
	levels  []float64
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{byLevel: make(map[float64][]Contour)}
}

// Put records the contours traced at elevation z, replacing earlier ones.
func (s *Set) Put(z float64, contours []Contour) {
	if _, ok := s.byLevel[z]; !ok {
		s.levels = append(s.levels, z)
		sort.Float64s(s.levels)
	}
	if contours == nil {
		contours = []Contour{}
	}
	s.byLevel[z] = contours
}

// At returns the contours at elevation z. Unknown levels return nil.
func (s *Set) At(z float64) []Contour { return s.byLevel[z] }

// Levels returns the elevations in ascending order.
func (s *Set) Levels() []float64 {
	out := make([]float64, len(s.levels))
	copy(out, s.levels)
	return out
}

// All returns every contour ordered by elevation, then trace order.
func (s *Set) All() []Contour {
	var out []Contour
	for _, z := range s.levels {
		out = append(out, s.byLevel[z]...)
	}
	return out
}

// Count returns the total number of contours.
func (s *Set) Count() int {
	n := 0
	for _, cs := range s.byLevel {
		n += len(cs)
	}
	return n
}

// Summary counts contours by kind.
type Summary struct {
	Levels    int `json:"levels"`
	Strands   int `json:"strands"`
	Loops     int `json:"loops"`
	Truncated int `json:"truncated"`
	Points    int `json:"points"`
}

// Summary tallies the set.
func (s *Set) Summary() Summary {
	sum := Summary{Levels: len(s.levels)}
	for _, cs := range s.byLevel {
		for _, c := range cs {
			if c.Loop {
				sum.Loops++
			} else {
				sum.Strands++
			}
			if c.Truncated {
				sum.Truncated++
			}
			sum.Points += len(c.Points)
		}
	}
	return sum
}
