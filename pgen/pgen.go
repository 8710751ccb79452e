// Package pgen holds the built-in problem generators. Each generator
// fills the primitive variables (and the staggered field for MHD runs)
// of one block; conversion to conserved variables happens in the mesh
// initialization.
package pgen

import (
	"fmt"
	"math"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/amr"
	"github.com/notargets/gamr/fluid"
)

var registry = map[string]amr.ProblemGenerator{
	"uniform":    Uniform,
	"blast":      Blast,
	"shock_tube": ShockTube,
}

// Get resolves a generator by its deck name.
func Get(name string) (amr.ProblemGenerator, error) {
	gen, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown problem generator %q", name)
	}
	return gen, nil
}

func cellCenter(xf []float64, i int) float64 {
	return 0.5 * (xf[i] + xf[i+1])
}

// fillField seeds a uniform magnetic field on the staggered lattice and
// derives the cell-centered averages.
func fillField(mb *amr.MeshBlock, bx, by, bz float64) {
	if mb.Field == nil {
		return
	}
	f := mb.Field
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i <= mb.NCells1; i++ {
				f.B1F.Set(k, j, i, bx)
			}
		}
	}
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j <= mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				f.B2F.Set(k, j, i, by)
			}
		}
	}
	for k := 0; k <= mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				f.B3F.Set(k, j, i, bz)
			}
		}
	}
	f.CellCenteredField()
}

// Uniform fills the whole block with one state, read from the problem
// section of the deck.
func Uniform(mb *amr.MeshBlock, pin *InputParameters.ParameterInput) {
	rho := pin.GetOrAddReal("problem", "rho", 1.0)
	pgas := pin.GetOrAddReal("problem", "pgas", 1.0)
	vx := pin.GetOrAddReal("problem", "vx", 0.0)
	vy := pin.GetOrAddReal("problem", "vy", 0.0)
	vz := pin.GetOrAddReal("problem", "vz", 0.0)
	w := mb.Hydro.W
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				w.Set(fluid.IDN, k, j, i, rho)
				w.Set(fluid.IVX, k, j, i, vx)
				w.Set(fluid.IVY, k, j, i, vy)
				w.Set(fluid.IVZ, k, j, i, vz)
				w.Set(fluid.IEN, k, j, i, pgas)
			}
		}
	}
	fillField(mb,
		pin.GetOrAddReal("problem", "bx", 0.0),
		pin.GetOrAddReal("problem", "by", 0.0),
		pin.GetOrAddReal("problem", "bz", 0.0))
	if mb.Rad != nil {
		seedRadiation(mb, pin)
	}
}

// Blast puts an overpressured sphere at the origin into an ambient
// medium. The pressure ratio and radius come from the problem section.
func Blast(mb *amr.MeshBlock, pin *InputParameters.ParameterInput) {
	rho := pin.GetOrAddReal("problem", "rho", 1.0)
	pamb := pin.GetOrAddReal("problem", "pamb", 0.1)
	prat := pin.GetOrAddReal("problem", "prat", 100.0)
	radius := pin.GetOrAddReal("problem", "radius", 0.1)
	w := mb.Hydro.W
	for k := 0; k < mb.NCells3; k++ {
		z := cellCenter(mb.X3F, k)
		if mb.BlockSize.NX3 == 1 {
			z = 0
		}
		for j := 0; j < mb.NCells2; j++ {
			y := cellCenter(mb.X2F, j)
			if mb.BlockSize.NX2 == 1 {
				y = 0
			}
			for i := 0; i < mb.NCells1; i++ {
				x := cellCenter(mb.X1F, i)
				r := math.Sqrt(x*x + y*y + z*z)
				pgas := pamb
				if r < radius {
					pgas = prat * pamb
				}
				w.Set(fluid.IDN, k, j, i, rho)
				w.Set(fluid.IVX, k, j, i, 0)
				w.Set(fluid.IVY, k, j, i, 0)
				w.Set(fluid.IVZ, k, j, i, 0)
				w.Set(fluid.IEN, k, j, i, pgas)
			}
		}
	}
	fillField(mb,
		pin.GetOrAddReal("problem", "bx", 0.0),
		pin.GetOrAddReal("problem", "by", 0.0),
		pin.GetOrAddReal("problem", "bz", 0.0))
	if mb.Rad != nil {
		seedRadiation(mb, pin)
	}
}

// ShockTube sets a left and right state split at xshock along x1.
func ShockTube(mb *amr.MeshBlock, pin *InputParameters.ParameterInput) {
	xshock := pin.GetOrAddReal("problem", "xshock", 0.0)
	dl := pin.GetOrAddReal("problem", "dl", 1.0)
	pl := pin.GetOrAddReal("problem", "pl", 1.0)
	ul := pin.GetOrAddReal("problem", "ul", 0.0)
	dr := pin.GetOrAddReal("problem", "dr", 0.125)
	pr := pin.GetOrAddReal("problem", "pr", 0.1)
	ur := pin.GetOrAddReal("problem", "ur", 0.0)
	w := mb.Hydro.W
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				rho, pgas, vx := dl, pl, ul
				if cellCenter(mb.X1F, i) > xshock {
					rho, pgas, vx = dr, pr, ur
				}
				w.Set(fluid.IDN, k, j, i, rho)
				w.Set(fluid.IVX, k, j, i, vx)
				w.Set(fluid.IVY, k, j, i, 0)
				w.Set(fluid.IVZ, k, j, i, 0)
				w.Set(fluid.IEN, k, j, i, pgas)
			}
		}
	}
	fillField(mb,
		pin.GetOrAddReal("problem", "bx", 0.0),
		pin.GetOrAddReal("problem", "by", 0.0),
		pin.GetOrAddReal("problem", "bz", 0.0))
}

// seedRadiation starts the intensities in equilibrium with the gas
// temperature.
func seedRadiation(mb *amr.MeshBlock, pin *InputParameters.ParameterInput) {
	r := mb.Rad
	w := mb.Hydro.W
	ntot := r.NFreq * amr.NOctant * r.NAng
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				tgas := w.At(fluid.IEN, k, j, i) / w.At(fluid.IDN, k, j, i)
				er := tgas * tgas * tgas * tgas
				per := er / float64(amr.NOctant*r.NAng)
				for a := 0; a < ntot; a++ {
					r.IR.Set(a, k, j, i, per)
				}
			}
		}
	}
}
