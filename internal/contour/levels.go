package contour

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLevels is returned for empty or unbounded level ranges.
var ErrInvalidLevels = errors.New("invalid contour levels")

// maxLevels bounds how many planes a range may expand to.
const maxLevels = 10000

// Levels describes evenly spaced elevations in [Start, Stop).
type Levels struct {
	Start float64
	Stop  float64
	Step  float64
}

// DefaultLevels spans the variation band the terrain is generated in,
// skipping the bottom plane: -v/2+step, -v/2+2*step, ... below v/2.
func DefaultLevels(variation, step float64) Levels {
	return Levels{
		Start: -variation/2 + step,
		Stop:  variation / 2,
		Step:  step,
	}
}

// Validate checks the range is finite and increasing.
func (l Levels) Validate() error {
	for _, v := range []float64{l.Start, l.Stop, l.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite bound", ErrInvalidLevels)
		}
	}
	if l.Step <= 0 {
		return fmt.Errorf("%w: step must be positive (got %g)", ErrInvalidLevels, l.Step)
	}
	if l.Stop <= l.Start {
		return fmt.Errorf("%w: stop %g must exceed start %g", ErrInvalidLevels, l.Stop, l.Start)
	}
	if (l.Stop-l.Start)/l.Step > maxLevels {
		return fmt.Errorf("%w: more than %d levels", ErrInvalidLevels, maxLevels)
	}
	return nil
}

// Values expands the range. Each value is Start + i*Step so rounding does
// not accumulate; a value within a billionth of a step of Stop is excluded.
func (l Levels) Values() ([]float64, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	// Stop itself is never traced. An accumulating z += step loop lands just
	// under Stop and would add one extra top plane; that plane is dropped.
	limit := l.Stop - l.Step*1e-9
	var out []float64
	for i := 0; ; i++ {
		z := l.Start + float64(i)*l.Step
		if z >= limit {
			break
		}
		out = append(out, z)
	}
	return out, nil
}
