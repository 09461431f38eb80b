package contour

// Direction is one of the eight compass steps between grid cells, clockwise
// from Right in screen orientation (rows grow downward).
type Direction uint8

const (
	Right Direction = iota
	DownRight
	Down
	DownLeft
	Left
	UpLeft
	Up
	UpRight

	numDirections = 8
)

var directionNames = [numDirections]string{"R", "DR", "D", "DL", "L", "UL", "U", "UR"}

var directionDeltas = [numDirections][2]int{
	{1, 0},
	{1, 1},
	{0, 1},
	{-1, 1},
	{-1, 0},
	{-1, -1},
	{0, -1},
	{1, -1},
}

// Rotate turns the direction by n eighth-turns; negative n turns backward.
func (d Direction) Rotate(n int) Direction {
	return Direction(((int(d)+n)%numDirections + numDirections) % numDirections)
}

// Diagonal reports whether the step moves along both axes.
func (d Direction) Diagonal() bool { return d%2 == 1 }

// Delta returns the column and row offsets of one step.
func (d Direction) Delta() (dx, dy int) {
	v := directionDeltas[d%numDirections]
	return v[0], v[1]
}

func (d Direction) String() string {
	if d >= numDirections {
		return "?"
	}
	return directionNames[d]
}

// diagonalEligible reports whether cell (x, y) may probe its diagonal
// neighbours. Even-parity cells sit on the shared diagonal of both adjacent
// triangles in the alternating mesh.
func diagonalEligible(x, y int) bool {
	return (x+y)%2 == 0
}
