package contour

import "github.com/MeKo-Tech/topomap/internal/heightfield"

// tracer holds the per-elevation search state. It is never shared between
// elevations, so levels may be traced concurrently.
type tracer struct {
	grid     *heightfield.Grid
	visited  *pointIndex
	contours []Contour
	z        float64
	maxMoves int
}

// crossing returns the point where elevation z crosses the edge from (x, y)
// to its neighbour in direction d. The lower-index endpoint always anchors
// the interpolation so both sides of an edge produce the same bits.
func (t *tracer) crossing(x, y int, d Direction) (Point, bool) {
	dx, dy := d.Delta()
	nx, ny := x+dx, y+dy
	if !t.grid.InBounds(nx, ny) {
		return Point{}, false
	}

	a, b := t.grid.At(x, y), t.grid.At(nx, ny)
	if t.grid.Index(nx, ny) < t.grid.Index(x, y) {
		a, b = b, a
	}

	z := t.z
	if !((a.Z > z && b.Z < z) || (a.Z < z && b.Z > z)) {
		return Point{}, false
	}

	f := (z - a.Z) / (a.Z - b.Z)
	return Point{
		X: a.X + (a.X-b.X)*f,
		Y: a.Y + (a.Y-b.Y)*f,
		Z: z,
	}, true
}

// fresh returns a crossing that no contour at this elevation holds yet.
func (t *tracer) fresh(x, y int, d Direction) (Point, bool) {
	p, ok := t.crossing(x, y, d)
	if !ok || t.visited.contains(p) {
		return Point{}, false
	}
	return p, true
}

func (t *tracer) push(p Point) {
	c := &t.contours[len(t.contours)-1]
	c.Points = append(c.Points, p)
	t.visited.add(p)
}

// seed starts a contour when (x, y) has an unclaimed crossing towards d.
func (t *tracer) seed(x, y int, d Direction, loop bool) {
	p, ok := t.fresh(x, y, d)
	if !ok {
		return
	}
	t.contours = append(t.contours, Contour{Elevation: t.z, Loop: loop})
	t.push(p)
	if t.follow(x, y, d) {
		t.contours[len(t.contours)-1].Truncated = true
	}
}

// follow walks the line that starts at (x, y). At each cell it probes
// clockwise from the current direction, claiming consecutive crossings
// (+1 per claim on diagonal cells, +2 on axis cells). When a probe fails it
// steps to the neighbour in the failing direction and backs the search off
// three eighth-turns. It stops at the grid edge, on a cell that yields
// nothing, or after maxMoves steps, in which case it returns true.
func (t *tracer) follow(x, y int, start Direction) bool {
	dir := start.Rotate(1)

	for moves := 0; moves < t.maxMoves; moves++ {
		diag := diagonalEligible(x, y)
		probes := numDirections
		advance := 1
		if !diag {
			probes = 4
			advance = 2
			if dir.Diagonal() {
				dir = dir.Rotate(1)
			}
		}

		// The seed crossing counts for the first cell.
		found := moves == 0
		for i := 0; i < probes; i++ {
			p, ok := t.fresh(x, y, dir)
			if !ok {
				break
			}
			t.push(p)
			found = true
			dir = dir.Rotate(advance)
		}

		dx, dy := dir.Delta()
		nx, ny := x+dx, y+dy
		dir = dir.Rotate(-3)
		if !t.grid.InBounds(nx, ny) || !found {
			return false
		}
		x, y = nx, ny
	}
	return true
}

// run scans the boundary first, then the interior, seeding contours.
func (t *tracer) run() []Contour {
	n := t.grid.Size()
	for x := 0; x < n; x++ {
		t.seed(x, 0, Right, false)
	}
	for y := 0; y < n; y++ {
		t.seed(0, y, Up, false)
	}
	for y := 0; y < n; y++ {
		t.seed(n-1, y, Down, false)
	}
	for x := 0; x < n; x++ {
		t.seed(x, n-1, Left, false)
	}
	for y := 1; y < n-1; y++ {
		for x := 1; x < n-1; x++ {
			t.seed(x, y, Right, true)
		}
	}
	return t.contours
}
