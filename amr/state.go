package amr

import (
	"math"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/fluid"
)

// Hydro owns the conserved and primitive fluid state of one block, the
// interface flux arrays, and the scratch rows the Riemann kernels work on.
type Hydro struct {
	mb    *MeshBlock
	EOS   fluid.EOS
	Coord fluid.Coordinates

	NWave int

	U  *Array4 // conserved
	W  *Array4 // primitive
	W1 *Array4 // primitive scratch for multi-stage integration

	Flux [3]*Array4 // interface fluxes, one extra element along each normal

	primL, primR, flx, consSlab [][]float64
	g, gi                       [][]float64
	bbRow, bbNormal             []float64
}

func NewHydro(mb *MeshBlock, pin *InputParameters.ParameterInput) *Hydro {
	h := &Hydro{mb: mb}
	gamma := pin.GetReal("fluid", "gamma")
	h.EOS = fluid.NewAdiabaticEOS(gamma)
	h.Coord = fluid.Minkowski()
	h.NWave = fluid.NWaveHydro
	if mb.ctx.MHD {
		h.NWave = fluid.NWaveMHD
	}
	n1, n2, n3 := mb.NCells1, mb.NCells2, mb.NCells3
	h.U = NewArray4(h.NWave, n3, n2, n1)
	h.W = NewArray4(h.NWave, n3, n2, n1)
	h.W1 = NewArray4(h.NWave, n3, n2, n1)
	h.Flux[0] = NewArray4(h.NWave, n3, n2, n1+1)
	h.Flux[1] = NewArray4(h.NWave, n3, n2+1, n1)
	h.Flux[2] = NewArray4(h.NWave, n3+1, n2, n1)

	nmax := n1
	if n2 > nmax {
		nmax = n2
	}
	if n3 > nmax {
		nmax = n3
	}
	nmax++
	alloc := func(nvar int) [][]float64 {
		rows := make([][]float64, nvar)
		for m := range rows {
			rows[m] = make([]float64, nmax)
		}
		return rows
	}
	h.primL = alloc(h.NWave)
	h.primR = alloc(h.NWave)
	h.flx = alloc(h.NWave)
	h.consSlab = alloc(h.NWave)
	h.g = alloc(fluid.NMetric)
	h.gi = alloc(fluid.NMetric)
	h.bbRow = make([]float64, nmax)
	h.bbNormal = make([]float64, nmax)
	return h
}

// sweep returns the face-normal loop bounds for one direction: the outer
// (k,j) ranges and the interface index range [il,iu] along the normal.
func (h *Hydro) sweep(dir int) (kl, ku, jl, ju, il, iu int) {
	mb := h.mb
	switch dir {
	case 0:
		return mb.KS, mb.KE, mb.JS, mb.JE, mb.IS, mb.IE + 1
	case 1:
		return mb.KS, mb.KE, mb.IS, mb.IE, mb.JS, mb.JE + 1
	default:
		return mb.JS, mb.JE, mb.IS, mb.IE, mb.KS, mb.KE + 1
	}
}

// gather copies the left/right reconstructed states along one sweep into
// the kernel scratch rows. First order: the left state at interface m is
// the cell below it, the right state the cell above.
func (h *Hydro) gather(dir, k, j, il, iu int) {
	w := h.W
	for n := 0; n < h.NWave; n++ {
		pl, pr := h.primL[n], h.primR[n]
		switch dir {
		case 0:
			for m := il; m <= iu; m++ {
				pl[m] = w.At(n, k, j, m-1)
				pr[m] = w.At(n, k, j, m)
			}
		case 1:
			for m := il; m <= iu; m++ {
				pl[m] = w.At(n, k, m-1, j)
				pr[m] = w.At(n, k, m, j)
			}
		default:
			for m := il; m <= iu; m++ {
				pl[m] = w.At(n, m-1, k, j)
				pr[m] = w.At(n, m, k, j)
			}
		}
	}
	if h.mb.ctx.MHD {
		h.gatherTransverseField(dir, k, j, il, iu)
	}
}

// gatherTransverseField fills the normal face-field row and swaps the
// cell-centered transverse components into the cyclic (by, bz) slots the
// solver expects.
func (h *Hydro) gatherTransverseField(dir, k, j, il, iu int) {
	f := h.mb.Field
	by, bz := (dir+1)%3, (dir+2)%3
	switch dir {
	case 0:
		for m := il; m <= iu; m++ {
			h.bbRow[m] = f.B1F.At(k, j, m)
			h.primL[fluid.IBY][m] = f.BCC.At(by, k, j, m-1)
			h.primL[fluid.IBZ][m] = f.BCC.At(bz, k, j, m-1)
			h.primR[fluid.IBY][m] = f.BCC.At(by, k, j, m)
			h.primR[fluid.IBZ][m] = f.BCC.At(bz, k, j, m)
		}
	case 1:
		for m := il; m <= iu; m++ {
			h.bbRow[m] = f.B2F.At(k, m, j)
			h.primL[fluid.IBY][m] = f.BCC.At(by, k, m-1, j)
			h.primL[fluid.IBZ][m] = f.BCC.At(bz, k, m-1, j)
			h.primR[fluid.IBY][m] = f.BCC.At(by, k, m, j)
			h.primR[fluid.IBZ][m] = f.BCC.At(bz, k, m, j)
		}
	default:
		for m := il; m <= iu; m++ {
			h.bbRow[m] = f.B3F.At(m, k, j)
			h.primL[fluid.IBY][m] = f.BCC.At(by, m-1, k, j)
			h.primL[fluid.IBZ][m] = f.BCC.At(bz, m-1, k, j)
			h.primR[fluid.IBY][m] = f.BCC.At(by, m, k, j)
			h.primR[fluid.IBZ][m] = f.BCC.At(bz, m, k, j)
		}
	}
}

// scatter writes the kernel flux rows back into the flux array.
func (h *Hydro) scatter(dir, k, j, il, iu int) {
	fl := h.Flux[dir]
	for n := 0; n < h.NWave; n++ {
		row := h.flx[n]
		switch dir {
		case 0:
			for m := il; m <= iu; m++ {
				fl.Set(n, k, j, m, row[m])
			}
		case 1:
			for m := il; m <= iu; m++ {
				fl.Set(n, k, m, j, row[m])
			}
		default:
			for m := il; m <= iu; m++ {
				fl.Set(n, m, k, j, row[m])
			}
		}
	}
}

// CalculateFluxes runs the Riemann solver over every interface of one
// direction. dir is 0,1,2 for x1,x2,x3.
func (h *Hydro) CalculateFluxes(dir int) {
	ctx := h.mb.ctx
	ivx := fluid.IVX + dir
	kl, ku, jl, ju, il, iu := h.sweep(dir)
	for k := kl; k <= ku; k++ {
		for j := jl; j <= ju; j++ {
			h.gather(dir, k, j, il, iu)
			switch {
			case ctx.MHD:
				fluid.HLLE(h.EOS, h.Coord, k, j, il, iu, ivx,
					h.bbRow, h.primL, h.primR, h.flx, h.g, h.gi)
			case ctx.GeneralRel:
				fluid.HLLCGR(h.EOS, h.Coord, dir+1, k, j, il, iu, ivx,
					h.bbRow, h.primL, h.primR, h.flx, h.consSlab, h.bbNormal)
			default:
				fluid.HLLC(h.EOS, il, iu, ivx, h.primL, h.primR, h.flx, nil, false)
			}
			h.scatter(dir, k, j, il, iu)
		}
	}
}

// Integrate applies the conservative flux-difference update of one
// direction to the conserved state. For magnetized runs the two
// transverse-field rows of the flux update the cell-centered field
// components in their cyclic order.
func (h *Hydro) Integrate(dir int, dt float64) {
	mb := h.mb
	f := h.Flux[dir]
	for n := 0; n < fluid.NWaveHydro; n++ {
		for k := mb.KS; k <= mb.KE; k++ {
			for j := mb.JS; j <= mb.JE; j++ {
				for i := mb.IS; i <= mb.IE; i++ {
					var div float64
					switch dir {
					case 0:
						div = (f.At(n, k, j, i+1) - f.At(n, k, j, i)) / mb.DX1F[i]
					case 1:
						div = (f.At(n, k, j+1, i) - f.At(n, k, j, i)) / mb.DX2F[j]
					default:
						div = (f.At(n, k+1, j, i) - f.At(n, k, j, i)) / mb.DX3F[k]
					}
					h.U.Add(n, k, j, i, -dt*div)
				}
			}
		}
	}
	if !h.mb.ctx.MHD {
		return
	}
	bcc := mb.Field.BCC
	pairs := [2][2]int{{fluid.IBY, (dir + 1) % 3}, {fluid.IBZ, (dir + 2) % 3}}
	for _, p := range pairs {
		fn, bn := p[0], p[1]
		for k := mb.KS; k <= mb.KE; k++ {
			for j := mb.JS; j <= mb.JE; j++ {
				for i := mb.IS; i <= mb.IE; i++ {
					var div float64
					switch dir {
					case 0:
						div = (f.At(fn, k, j, i+1) - f.At(fn, k, j, i)) / mb.DX1F[i]
					case 1:
						div = (f.At(fn, k, j+1, i) - f.At(fn, k, j, i)) / mb.DX2F[j]
					default:
						div = (f.At(fn, k+1, j, i) - f.At(fn, k, j, i)) / mb.DX3F[k]
					}
					bcc.Add(bn, k, j, i, -dt*div)
				}
			}
		}
	}
}

// ConservedToPrimitive recovers primitives over the whole block including
// ghost zones, seeding each pressure iteration from the previous
// primitive state.
func (h *Hydro) ConservedToPrimitive() {
	mb := h.mb
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for n := 0; n < fluid.NWaveHydro; n++ {
				copy(h.primL[n][:mb.NCells1], h.U.Row(n, k, j))
				copy(h.primR[n][:mb.NCells1], h.W.Row(n, k, j))
			}
			if mb.ctx.MHD {
				bcc := [][]float64{
					mb.Field.BCC.Row(0, k, j),
					mb.Field.BCC.Row(1, k, j),
					mb.Field.BCC.Row(2, k, j),
				}
				fluid.ConsToPrimMHD(h.EOS, 0, mb.NCells1-1, h.primL, bcc, h.primR)
			} else {
				fluid.ConsToPrimSR(h.EOS, 0, mb.NCells1-1, h.primL, h.primR)
			}
			for n := 0; n < fluid.NWaveHydro; n++ {
				copy(h.W.Row(n, k, j), h.primR[n][:mb.NCells1])
			}
		}
	}
}

// PrimitiveToConserved initializes the conserved state from primitives,
// used after the problem generator fills W.
func (h *Hydro) PrimitiveToConserved() {
	mb := h.mb
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for n := 0; n < fluid.NWaveHydro; n++ {
				copy(h.primL[n][:mb.NCells1], h.W.Row(n, k, j))
				copy(h.primR[n][:mb.NCells1], h.U.Row(n, k, j))
			}
			if mb.ctx.MHD {
				bcc := [][]float64{
					mb.Field.BCC.Row(0, k, j),
					mb.Field.BCC.Row(1, k, j),
					mb.Field.BCC.Row(2, k, j),
				}
				fluid.PrimToConsMHD(h.EOS, 0, mb.NCells1-1, h.primL, bcc, h.primR)
			} else {
				fluid.PrimToConsSR(h.EOS, 0, mb.NCells1-1, h.primL, h.primR)
			}
			for n := 0; n < fluid.NWaveHydro; n++ {
				copy(h.U.Row(n, k, j), h.primR[n][:mb.NCells1])
			}
		}
	}
}

// NewBlockTimeStep computes the block's stability-limited timestep from
// the acoustic wave fan in every active cell.
func (h *Hydro) NewBlockTimeStep() {
	mb := h.mb
	gammaAdi := h.EOS.Gamma()
	minDt := math.MaxFloat64
	if mb.ctx.MHD {
		// fast speeds are bounded by the light speed
		for k := mb.KS; k <= mb.KE; k++ {
			for j := mb.JS; j <= mb.JE; j++ {
				for i := mb.IS; i <= mb.IE; i++ {
					dt := mb.DX1F[i]
					if mb.BlockSize.NX2 > 1 && mb.DX2F[j] < dt {
						dt = mb.DX2F[j]
					}
					if mb.BlockSize.NX3 > 1 && mb.DX3F[k] < dt {
						dt = mb.DX3F[k]
					}
					if dt < minDt {
						minDt = dt
					}
				}
			}
		}
		mb.NewBlockDt = minDt
		return
	}
	for k := mb.KS; k <= mb.KE; k++ {
		for j := mb.JS; j <= mb.JE; j++ {
			for i := mb.IS; i <= mb.IE; i++ {
				rho := h.W.At(fluid.IDN, k, j, i)
				pgas := h.W.At(fluid.IEN, k, j, i)
				vx := h.W.At(fluid.IVX, k, j, i)
				vy := h.W.At(fluid.IVY, k, j, i)
				vz := h.W.At(fluid.IVZ, k, j, i)
				vSq := vx*vx + vy*vy + vz*vz
				if vSq >= 1.0 {
					vSq = 0.0
				}
				gammaSq := 1.0 / (1.0 - vSq)
				wgas := rho + gammaAdi/(gammaAdi-1.0)*pgas
				lp, lm := h.EOS.SoundSpeedsSR(wgas, pgas, vx, gammaSq)
				speed := math.Max(math.Abs(lp), math.Abs(lm))
				if speed < 1.e-12 {
					speed = 1.e-12
				}
				dt := mb.DX1F[i] / speed
				if mb.BlockSize.NX2 > 1 {
					lp, lm = h.EOS.SoundSpeedsSR(wgas, pgas, vy, gammaSq)
					s := math.Max(math.Abs(lp), math.Abs(lm))
					if s > 1.e-12 {
						dt = math.Min(dt, mb.DX2F[j]/s)
					}
				}
				if mb.BlockSize.NX3 > 1 {
					lp, lm = h.EOS.SoundSpeedsSR(wgas, pgas, vz, gammaSq)
					s := math.Max(math.Abs(lp), math.Abs(lm))
					if s > 1.e-12 {
						dt = math.Min(dt, mb.DX3F[k]/s)
					}
				}
				if dt < minDt {
					minDt = dt
				}
			}
		}
	}
	mb.NewBlockDt = minDt
}

// Field owns the face-centered magnetic field components of one block and
// their cell-centered averages. Each staggered component carries one extra
// element along its own normal.
type Field struct {
	mb            *MeshBlock
	B1F, B2F, B3F *Array3
	BCC           *Array4 // 3 components at cell centers
}

func NewField(mb *MeshBlock) *Field {
	return &Field{
		mb:  mb,
		B1F: NewArray3(mb.NCells3, mb.NCells2, mb.NCells1+1),
		B2F: NewArray3(mb.NCells3, mb.NCells2+1, mb.NCells1),
		B3F: NewArray3(mb.NCells3+1, mb.NCells2, mb.NCells1),
		BCC: NewArray4(3, mb.NCells3, mb.NCells2, mb.NCells1),
	}
}

// CellCenteredField averages the staggered components to cell centers.
// In collapsed dimensions the face pair degenerates to a single plane.
func (f *Field) CellCenteredField() {
	mb := f.mb
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				f.BCC.Set(0, k, j, i, 0.5*(f.B1F.At(k, j, i)+f.B1F.At(k, j, i+1)))
				b2 := f.B2F.At(k, j, i)
				if mb.NCells2 > 1 {
					b2 = 0.5 * (b2 + f.B2F.At(k, j+1, i))
				}
				f.BCC.Set(1, k, j, i, b2)
				b3 := f.B3F.At(k, j, i)
				if mb.NCells3 > 1 {
					b3 = 0.5 * (b3 + f.B3F.At(k+1, j, i))
				}
				f.BCC.Set(2, k, j, i, b3)
			}
		}
	}
}
