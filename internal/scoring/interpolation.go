package scoring

import (
	"math"

	"github.com/liliang-cn/searchsim/internal/catalog"
)

// interpolate maps t (0 at the "best" edge, 1 at the "worst" edge of a
// function's range) to a weight in [0, 1] along the requested curve (§4.5,
// §3 Interpolation). t is clamped to [0, 1] before shaping.
func interpolate(t float64, shape catalog.Interpolation) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	switch shape {
	case catalog.InterpConstant:
		if t >= 1 {
			return 0
		}
		return 1
	case catalog.InterpQuadratic:
		return (1 - t) * (1 - t)
	case catalog.InterpLogarithmic:
		// log1p keeps the curve defined at t=0 (log(1)=0 baseline) and bounds
		// it to [0,1] by normalizing against log(2).
		return math.Log1p(1-t) / math.Ln2
	default: // linear
		return 1 - t
	}
}

// weightToBoost turns an interpolation weight (1 = best, 0 = worst) and a
// function's configured boost into the multiplier contributed to the
// aggregate score: boost at weight=1, 1.0 (no-op) at weight=0.
func weightToBoost(weight, boost float64) float64 {
	return 1 + (boost-1)*weight
}
