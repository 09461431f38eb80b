package heightfield

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidKey is returned when a terrain key cannot be parsed.
var ErrInvalidKey = errors.New("invalid terrain key")

// Key identifies one reproducible terrain: the same seed and node count
// always synthesize the same grid.
type Key struct {
	Seed  int64
	Nodes int
}

// String returns the canonical file stem, e.g. "s42_n129".
func (k Key) String() string {
	return fmt.Sprintf("s%d_n%d", k.Seed, k.Nodes)
}

// Path returns the file name for the given extension, e.g. Path("png").
func (k Key) Path(ext string) string {
	return k.String() + "." + strings.TrimPrefix(ext, ".")
}

// ParseKey parses the form produced by Key.String.
func ParseKey(s string) (Key, error) {
	seedPart, nodesPart, ok := strings.Cut(s, "_")
	if !ok || !strings.HasPrefix(seedPart, "s") || !strings.HasPrefix(nodesPart, "n") {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}

	seed, err := strconv.ParseInt(seedPart[1:], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("%w: seed in %q: %v", ErrInvalidKey, s, err)
	}
	nodes, err := strconv.Atoi(nodesPart[1:])
	if err != nil {
		return Key{}, fmt.Errorf("%w: nodes in %q: %v", ErrInvalidKey, s, err)
	}
	if !validNodes(nodes) {
		return Key{}, fmt.Errorf("%w: %d nodes is not 2^k+1", ErrInvalidKey, nodes)
	}
	return Key{Seed: seed, Nodes: nodes}, nil
}
