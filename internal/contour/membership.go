package contour

import "math"

// DefaultEpsilon is the absolute tolerance for treating two crossings as the
// same point.
const DefaultEpsilon = 1e-12

// pointIndex answers "is there already a point within eps on every axis"
// for one elevation. Points are bucketed by world position so lookups stay
// local instead of scanning every accepted point.
type pointIndex struct {
	buckets map[[2]int64][]Point
	cell    float64
	eps     float64
	size    int
}

func newPointIndex(cell, eps float64) *pointIndex {
	if cell <= 0 {
		cell = 1
	}
	return &pointIndex{
		buckets: make(map[[2]int64][]Point),
		cell:    cell,
		eps:     eps,
	}
}

func (ix *pointIndex) key(x, y float64) [2]int64 {
	return [2]int64{int64(math.Floor(x / ix.cell)), int64(math.Floor(y / ix.cell))}
}

func (ix *pointIndex) add(p Point) {
	k := ix.key(p.X, p.Y)
	ix.buckets[k] = append(ix.buckets[k], p)
	ix.size++
}

func (ix *pointIndex) contains(p Point) bool {
	lo := ix.key(p.X-ix.eps, p.Y-ix.eps)
	hi := ix.key(p.X+ix.eps, p.Y+ix.eps)
	for bx := lo[0]; bx <= hi[0]; bx++ {
		for by := lo[1]; by <= hi[1]; by++ {
			for _, q := range ix.buckets[[2]int64{bx, by}] {
				if near(p, q, ix.eps) {
					return true
				}
			}
		}
	}
	return false
}

func near(a, b Point, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Z-b.Z) <= eps
}
