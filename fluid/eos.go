package fluid

import "math"

// EOS supplies the ratio of specific heats and the signal-speed bounds the
// Riemann solvers need. Implementations must return an ordered pair
// (lambdaM <= lambdaP); an unordered pair is a bug in the implementation,
// not something the solvers defend against.
type EOS interface {
	Gamma() float64
	// SoundSpeedsSR bounds the acoustic wavespeeds about an interface
	// state in special relativity, given the gas enthalpy wgas, gas
	// pressure, normal 3-velocity vx and squared Lorentz factor.
	SoundSpeedsSR(wgas, pgas, vx, gammaSq float64) (lambdaP, lambdaM float64)
	// FastMagnetosonicSpeedsGR bounds the fast magnetosonic wavespeeds
	// in general relativity given the contravariant 4-velocity components
	// u0, u1 along the interface normal, the magnetic pressure scale bSq
	// and the relevant inverse-metric components.
	FastMagnetosonicSpeedsGR(wgas, pgas, u0, u1, bSq, g00, g01, g11 float64) (lambdaP, lambdaM float64)
}

// AdiabaticEOS is the gamma-law gas used throughout.
type AdiabaticEOS struct {
	gamma float64
}

func NewAdiabaticEOS(gamma float64) *AdiabaticEOS {
	return &AdiabaticEOS{gamma: gamma}
}

func (e *AdiabaticEOS) Gamma() float64 { return e.gamma }

// SoundSpeedsSR implements Mignone & Bodo 2005 eq. 23.
func (e *AdiabaticEOS) SoundSpeedsSR(wgas, pgas, vx, gammaSq float64) (lambdaP, lambdaM float64) {
	csSq := e.gamma * pgas / wgas
	sigmaS := csSq / (gammaSq * (1.0 - csSq))
	relativeSpeed := math.Sqrt(sigmaS * (1.0 - sq(vx) + sigmaS))
	lambdaP = 1.0 / (1.0 + sigmaS) * (vx + relativeSpeed)
	lambdaM = 1.0 / (1.0 + sigmaS) * (vx - relativeSpeed)
	return
}

// FastMagnetosonicSpeedsGR bounds the fast speeds by solving the quadratic
// obtained from replacing the full dispersion relation with the
// magnetosonic speed cms, using the cancellation-stable root formula.
func (e *AdiabaticEOS) FastMagnetosonicSpeedsGR(wgas, pgas, u0, u1, bSq, g00, g01, g11 float64) (lambdaP, lambdaM float64) {
	csSq := e.gamma * pgas / wgas
	vaSq := bSq / (bSq + wgas)
	cmsSq := csSq + vaSq - csSq*vaSq
	a := sq(u0) - (g00+sq(u0))*cmsSq
	b := -2.0 * (u0*u1 - (g01+u0*u1)*cmsSq)
	c := sq(u1) - (g11+sq(u1))*cmsSq
	a1 := b / a
	a0 := c / a
	s := math.Sqrt(math.Max(sq(a1)-4.0*a0, 0.0))
	if a1 >= 0.0 {
		lambdaP = -2.0 * a0 / (a1 + s)
		lambdaM = (-a1 - s) / 2.0
	} else {
		lambdaP = (-a1 + s) / 2.0
		lambdaM = -2.0 * a0 / (a1 - s)
	}
	return
}
