package fluid

import "math"

const (
	convTol       = 1.0e-12
	convMaxIter   = 40
	densityFloor  = 1.0e-10
	pressureFloor = 1.0e-12
)

// PrimToConsMHD converts one row of magnetized primitives to conserved
// quantities in flat spacetime. The primitive velocity slots hold the
// spatial 4-velocity u^i; bcc holds the three cell-centered field
// components. Conserved momentum and energy follow the T^0_mu convention
// of the magnetosonic solver, so cons[IEN] is the covariant-time
// component (negative of the physical energy density).
func PrimToConsMHD(eos EOS, il, iu int, prim, bcc, cons [][]float64) {
	gammaAdi := eos.Gamma()
	for i := il; i <= iu; i++ {
		rho, pgas := prim[IDN][i], prim[IEN][i]
		u1, u2, u3 := prim[IVX][i], prim[IVY][i], prim[IVZ][i]
		b1, b2, b3 := bcc[0][i], bcc[1][i], bcc[2][i]
		u0 := math.Sqrt(1.0 + sq(u1) + sq(u2) + sq(u3))
		bcon0 := b1*u1 + b2*u2 + b3*u3
		bc1 := (b1 + bcon0*u1) / u0
		bc2 := (b2 + bcon0*u2) / u0
		bc3 := (b3 + bcon0*u3) / u0
		bSq := -sq(bcon0) + sq(bc1) + sq(bc2) + sq(bc3)
		wgas := rho + gammaAdi/(gammaAdi-1.0)*pgas
		wtot := wgas + bSq
		ptot := pgas + 0.5*bSq
		cons[IDN][i] = rho * u0
		cons[IEN][i] = -wtot*sq(u0) + sq(bcon0) + ptot
		cons[IVX][i] = wtot*u0*u1 - bcon0*bc1
		cons[IVY][i] = wtot*u0*u2 - bcon0*bc2
		cons[IVZ][i] = wtot*u0*u3 - bcon0*bc3
	}
}

// ConsToPrimMHD inverts one row of magnetized conserved quantities by
// fixed-point iteration on W = wgas*u0^2 (Noble et al. 2006). The
// previous primitives seed the iteration. Returns the count of floored
// cells.
func ConsToPrimMHD(eos EOS, il, iu int, cons, bcc, prim [][]float64) (floored int) {
	gammaAdi := eos.Gamma()
	gammaPrime := gammaAdi / (gammaAdi - 1.0)
	for i := il; i <= iu; i++ {
		dd := cons[IDN][i]
		ee := -cons[IEN][i] // physical energy density
		m1, m2, m3 := cons[IVX][i], cons[IVY][i], cons[IVZ][i]
		b1, b2, b3 := bcc[0][i], bcc[1][i], bcc[2][i]
		mSq := sq(m1) + sq(m2) + sq(m3)
		bSq := sq(b1) + sq(b2) + sq(b3)
		s := m1*b1 + m2*b2 + m3*b3 // S = W * (u.B) / u0

		// seed W from the previous primitive state
		rho0 := math.Max(prim[IDN][i], densityFloor)
		pgas0 := math.Max(prim[IEN][i], pressureFloor)
		u0Sq0 := 1.0 + sq(prim[IVX][i]) + sq(prim[IVY][i]) + sq(prim[IVZ][i])
		w := (rho0 + gammaPrime*pgas0) * u0Sq0

		var vSq, pgas, u0 float64
		for iter := 0; iter < convMaxIter; iter++ {
			vSq = (mSq + sq(s/w)*(bSq+2.0*w)) / sq(bSq+w)
			if vSq >= 1.0 {
				vSq = 1.0 - tinyNumber
			}
			u0 = 1.0 / math.Sqrt(1.0-vSq)
			rho := dd / u0
			pgas = (w/sq(u0) - rho) / gammaPrime
			if pgas < pressureFloor {
				pgas = pressureFloor
			}
			wNew := ee - 0.5*bSq*(1.0+vSq) + 0.5*sq(s/w) + pgas
			if wNew < dd {
				wNew = dd
			}
			if math.Abs(wNew-w) <= convTol*w {
				w = wNew
				break
			}
			w = wNew
		}
		vSq = (mSq + sq(s/w)*(bSq+2.0*w)) / sq(bSq+w)
		if vSq >= 1.0 {
			vSq = 1.0 - tinyNumber
		}
		u0 = 1.0 / math.Sqrt(1.0-vSq)

		rho := dd / u0
		if rho < densityFloor {
			rho = densityFloor
			floored++
		}
		if pgas <= pressureFloor {
			floored++
		}
		prim[IDN][i] = rho
		prim[IEN][i] = pgas
		prim[IVX][i] = u0 * (m1 + s*b1/w) / (w + bSq)
		prim[IVY][i] = u0 * (m2 + s*b2/w) / (w + bSq)
		prim[IVZ][i] = u0 * (m3 + s*b3/w) / (w + bSq)
	}
	return
}

// PrimToConsSR converts one row of special-relativistic hydro primitives
// (rho, v^i, pgas) to conserved quantities (D, M_i, E). E includes the
// rest-mass contribution.
func PrimToConsSR(eos EOS, il, iu int, prim, cons [][]float64) {
	gammaAdi := eos.Gamma()
	for i := il; i <= iu; i++ {
		rho, pgas := prim[IDN][i], prim[IEN][i]
		vx, vy, vz := prim[IVX][i], prim[IVY][i], prim[IVZ][i]
		gammaSq := 1.0 / (1.0 - sq(vx) - sq(vy) - sq(vz))
		lorentz := math.Sqrt(gammaSq)
		wgas := rho + gammaAdi/(gammaAdi-1.0)*pgas
		cons[IDN][i] = rho * lorentz
		cons[IVX][i] = wgas * gammaSq * vx
		cons[IVY][i] = wgas * gammaSq * vy
		cons[IVZ][i] = wgas * gammaSq * vz
		cons[IEN][i] = wgas*gammaSq - pgas
	}
}

// ConsToPrimSR inverts one row of conserved quantities back to primitives
// by fixed-point iteration on the gas pressure. Density and pressure
// floors are applied; the returned count is the number of cells floored.
func ConsToPrimSR(eos EOS, il, iu int, cons, prim [][]float64) (floored int) {
	gammaAdi := eos.Gamma()
	gammaPrime := gammaAdi / (gammaAdi - 1.0)
	for i := il; i <= iu; i++ {
		dd := cons[IDN][i]
		ee := cons[IEN][i]
		mx, my, mz := cons[IVX][i], cons[IVY][i], cons[IVZ][i]
		mSq := sq(mx) + sq(my) + sq(mz)

		// Iterate p -> p': v^2 and Gamma follow from the current p, then
		// the EOS gives the next pressure
		pgas := math.Max(prim[IEN][i], pressureFloor)
		var lorentz float64
		for iter := 0; iter < convMaxIter; iter++ {
			vSq := mSq / sq(ee+pgas)
			if vSq >= 1.0 {
				vSq = 1.0 - tinyNumber
			}
			lorentz = 1.0 / math.Sqrt(1.0-vSq)
			pgasNew := ((ee+pgas)/sq(lorentz) - dd/lorentz) / gammaPrime
			if pgasNew < pressureFloor {
				pgasNew = pressureFloor
			}
			if math.Abs(pgasNew-pgas) <= convTol*(pgas+tinyNumber) {
				pgas = pgasNew
				break
			}
			pgas = pgasNew
		}
		vSq := mSq / sq(ee+pgas)
		if vSq >= 1.0 {
			vSq = 1.0 - tinyNumber
		}
		lorentz = 1.0 / math.Sqrt(1.0-vSq)

		rho := dd / lorentz
		if rho < densityFloor {
			rho = densityFloor
			floored++
		}
		if pgas <= pressureFloor {
			floored++
		}
		prim[IDN][i] = rho
		prim[IEN][i] = pgas
		prim[IVX][i] = mx / (ee + pgas)
		prim[IVY][i] = my / (ee + pgas)
		prim[IVZ][i] = mz / (ee + pgas)
	}
	return
}
