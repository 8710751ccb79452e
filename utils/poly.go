package utils

import (
	"errors"
	"math"
)

// ErrNoRoot signals that the quartic has no usable real root; callers fall
// back to an alternative solution path rather than aborting the run.
var ErrNoRoot = errors.New("quartic has no physical root")

// QuarticRoot returns the analytic root of
//
//	coef4*x^4 + x + tconst == 0
//
// via the resolvent cubic z^3 - 4*tconst/coef4*z - 1/coef4^2 == 0.
func QuarticRoot(coef4, tconst float64) (root float64, err error) {
	ccubic := tconst * tconst * tconst
	delta1 := 0.25 - 64.0*ccubic*coef4/27.0
	if delta1 < 0.0 {
		return 0, ErrNoRoot
	}
	delta1 = math.Sqrt(delta1)
	if delta1 < 0.5 {
		return 0, ErrNoRoot
	}
	var zroot float64
	if delta1 > 1.e10 {
		// avoid small-number cancellation between the two cube roots
		zroot = math.Pow(delta1, -2.0/3.0) / 3.0
	} else {
		zroot = math.Pow(0.5+delta1, 1.0/3.0) - math.Pow(-0.5+delta1, 1.0/3.0)
	}
	if zroot < 0.0 || math.IsNaN(zroot) {
		return 0, ErrNoRoot
	}
	zroot *= math.Pow(coef4, -2.0/3.0)

	rcoef := math.Sqrt(zroot)
	delta2 := -zroot + 2.0/(coef4*rcoef)
	if delta2 < 0.0 {
		return 0, ErrNoRoot
	}
	delta2 = math.Sqrt(delta2)
	root = 0.5 * (delta2 - rcoef)
	if root < 0.0 || math.IsNaN(root) {
		return 0, ErrNoRoot
	}
	return root, nil
}
