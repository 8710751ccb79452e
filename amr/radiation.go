package amr

import (
	"math"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/fluid"
	"github.com/notargets/gamr/utils"
)

// NOctant is the number of angular octants of the radiation grid. The
// octant layout per hemisphere is
//
//	1 | 0      5 | 4
//	-----      -----
//	3 | 2      7 | 6
//
// with the x bit lowest, so reflecting a ray flips one bit of its octant.
const NOctant = 8

// Radiation owns the specific intensity field of one block: nang angles
// per octant times NOctant octants per frequency group.
type Radiation struct {
	mb *MeshBlock

	NAng  int // angles per octant
	NFreq int
	Prat  float64 // radiation-to-gas pressure ratio
	Crat  float64 // light-to-sound crossing ratio
	Sigma float64 // grey absorption opacity

	IR *Array4 // intensity, variable index = (ifr*NOctant+oct)*NAng+n
}

func NewRadiation(mb *MeshBlock, pin *InputParameters.ParameterInput) *Radiation {
	r := &Radiation{
		mb:    mb,
		NAng:  int(pin.GetOrAddInteger("radiation", "nang", 4)),
		NFreq: int(pin.GetOrAddInteger("radiation", "nfreq", 1)),
		Prat:  pin.GetOrAddReal("radiation", "prat", 1.0),
		Crat:  pin.GetOrAddReal("radiation", "crat", 10.0),
		Sigma: pin.GetOrAddReal("radiation", "sigma", 1.0),
	}
	r.IR = NewArray4(r.NFreq*NOctant*r.NAng, mb.NCells3, mb.NCells2, mb.NCells1)
	return r
}

// AngleIndex flattens (frequency group, octant, angle-in-octant).
func (r *Radiation) AngleIndex(ifr, oct, n int) int {
	return (ifr*NOctant+oct)*r.NAng + n
}

// OppositeOctant reflects an octant through one coordinate axis, dir 0,
// 1 or 2 for x, y, z.
func OppositeOctant(oct, dir int) int {
	return oct ^ (1 << uint(dir))
}

// MeanEnergy returns the angle-averaged radiation energy density of one
// cell, summed over frequency groups.
func (r *Radiation) MeanEnergy(k, j, i int) float64 {
	sum := 0.0
	ntot := r.NFreq * NOctant * r.NAng
	for a := 0; a < ntot; a++ {
		sum += r.IR.At(a, k, j, i)
	}
	return sum / float64(NOctant*r.NAng)
}

// ThermalRelaxation couples the gas temperature to the radiation field
// implicitly over one step: the equilibrium temperature satisfies
// coef4*T^4 + T + tconst = 0, solved analytically and by bounded Newton
// iteration when the analytic solver reports no usable root. The exchanged
// energy goes into the conserved state; the primitive state carries it
// after the next recovery.
func (r *Radiation) ThermalRelaxation(dt float64) {
	mb := r.mb
	h := mb.Hydro
	gm1 := h.EOS.Gamma() - 1.0
	esign := 1.0
	if mb.ctx.MHD {
		esign = -1.0 // conserved energy is the covariant-time component
	}
	for k := mb.KS; k <= mb.KE; k++ {
		for j := mb.JS; j <= mb.JE; j++ {
			for i := mb.IS; i <= mb.IE; i++ {
				rho := h.W.At(fluid.IDN, k, j, i)
				pgas := h.W.At(fluid.IEN, k, j, i)
				tgas := pgas / rho
				er := r.MeanEnergy(k, j, i)

				// cv (T'-T)/dt = -sigma c prat (T'^4 - Er), Er held fixed
				cv := rho / gm1
				kappa := dt * r.Sigma * r.Crat * r.Prat / cv
				coef4 := kappa
				tconst := -(tgas + kappa*er)

				tnew, err := utils.QuarticRoot(coef4, tconst)
				if err != nil {
					tnew = newtonQuartic(coef4, tconst, tgas)
				}

				dEgas := cv * (tnew - tgas)
				h.U.Add(fluid.IEN, k, j, i, esign*dEgas)
				r.depositEnergy(k, j, i, -dEgas/r.Prat)
			}
		}
	}
}

// depositEnergy spreads an energy change isotropically over the angles.
func (r *Radiation) depositEnergy(k, j, i int, de float64) {
	ntot := r.NFreq * NOctant * r.NAng
	per := de / float64(ntot)
	for a := 0; a < ntot; a++ {
		r.IR.Add(a, k, j, i, per)
	}
}

func newtonQuartic(coef4, tconst, guess float64) float64 {
	t := math.Max(guess, 1.e-12)
	for iter := 0; iter < 40; iter++ {
		f := coef4*t*t*t*t + t + tconst
		df := 4.0*coef4*t*t*t + 1.0
		dt := f / df
		t -= dt
		if t <= 0.0 {
			t = 1.e-12
		}
		if math.Abs(dt) <= 1.e-12*t {
			break
		}
	}
	return t
}
