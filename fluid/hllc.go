package fluid

import "math"

// HLLC computes interface fluxes for relativistic hydrodynamics over one
// row of interfaces i in [il,iu], following Mignone & Bodo 2005 (MB).
// ivx selects the normal direction; primL/primR hold the reconstructed
// primitive states indexed [variable][i].
//
// When generalRel is set the velocities are spatial 4-velocity components
// in a locally flat frame (the caller brackets the solve with
// Coordinates.PrimToLocal / FluxToGlobal) and the selected conserved state
// is written to cons for the global-frame flux transform; otherwise the
// velocities are 3-velocities and cons may be nil.
func HLLC(eos EOS, il, iu, ivx int, primL, primR, flux [][]float64, cons [][]float64, generalRel bool) {
	ivy, ivz := TransverseIndices(ivx)
	gammaAdi := eos.Gamma()

	for i := il; i <= iu; i++ {
		// Left and right primitives, boosted to 4-velocity (MB 3)
		rhoL, pgasL := primL[IDN][i], primL[IEN][i]
		rhoR, pgasR := primR[IDN][i], primR[IEN][i]
		var uL, uR [4]float64
		if generalRel {
			uL[1], uL[2], uL[3] = primL[ivx][i], primL[ivy][i], primL[ivz][i]
			uL[0] = math.Sqrt(1.0 + sq(uL[1]) + sq(uL[2]) + sq(uL[3]))
			uR[1], uR[2], uR[3] = primR[ivx][i], primR[ivy][i], primR[ivz][i]
			uR[0] = math.Sqrt(1.0 + sq(uR[1]) + sq(uR[2]) + sq(uR[3]))
		} else {
			vxL, vyL, vzL := primL[ivx][i], primL[ivy][i], primL[ivz][i]
			uL[0] = math.Sqrt(1.0 / (1.0 - sq(vxL) - sq(vyL) - sq(vzL)))
			uL[1], uL[2], uL[3] = uL[0]*vxL, uL[0]*vyL, uL[0]*vzL
			vxR, vyR, vzR := primR[ivx][i], primR[ivy][i], primR[ivz][i]
			uR[0] = math.Sqrt(1.0 / (1.0 - sq(vxR) - sq(vyR) - sq(vzR)))
			uR[1], uR[2], uR[3] = uR[0]*vxR, uR[0]*vyR, uR[0]*vzR
		}

		// Wavespeeds in each state (MB 23)
		wgasL := rhoL + gammaAdi/(gammaAdi-1.0)*pgasL
		lambdaPL, lambdaML := eos.SoundSpeedsSR(wgasL, pgasL, uL[1]/uL[0], sq(uL[0]))
		wgasR := rhoR + gammaAdi/(gammaAdi-1.0)*pgasR
		lambdaPR, lambdaMR := eos.SoundSpeedsSR(wgasR, pgasR, uR[1]/uR[0], sq(uR[0]))

		// Extremal wavespeeds
		lambdaL := math.Min(lambdaML, lambdaMR)
		lambdaR := math.Max(lambdaPL, lambdaPR)

		// Conserved quantities and fluxes in the L/R regions (MB 2,3)
		var consL, consR, fluxL, fluxR [NWaveHydro]float64
		consL[IDN] = rhoL * uL[0]
		consL[IEN] = wgasL*uL[0]*uL[0] - pgasL
		consL[ivx] = wgasL * uL[1] * uL[0]
		consL[ivy] = wgasL * uL[2] * uL[0]
		consL[ivz] = wgasL * uL[3] * uL[0]
		fluxL[IDN] = rhoL * uL[1]
		fluxL[IEN] = wgasL * uL[0] * uL[1]
		fluxL[ivx] = wgasL*uL[1]*uL[1] + pgasL
		fluxL[ivy] = wgasL * uL[2] * uL[1]
		fluxL[ivz] = wgasL * uL[3] * uL[1]

		consR[IDN] = rhoR * uR[0]
		consR[IEN] = wgasR*uR[0]*uR[0] - pgasR
		consR[ivx] = wgasR * uR[1] * uR[0]
		consR[ivy] = wgasR * uR[2] * uR[0]
		consR[ivz] = wgasR * uR[3] * uR[0]
		fluxR[IDN] = rhoR * uR[1]
		fluxR[IEN] = wgasR * uR[0] * uR[1]
		fluxR[ivx] = wgasR*uR[1]*uR[1] + pgasR
		fluxR[ivy] = wgasR * uR[2] * uR[1]
		fluxR[ivz] = wgasR * uR[3] * uR[1]

		// HLL intermediate state (MB 9,11)
		eHLL := (lambdaR*consR[IEN] - lambdaL*consL[IEN] + fluxL[IEN] - fluxR[IEN]) /
			(lambdaR - lambdaL)
		mxHLL := (lambdaR*consR[ivx] - lambdaL*consL[ivx] + fluxL[ivx] - fluxR[ivx]) /
			(lambdaR - lambdaL)
		fluxEHLL := (lambdaR*fluxL[IEN] - lambdaL*fluxR[IEN] +
			lambdaR*lambdaL*(consR[IEN]-consL[IEN])) / (lambdaR - lambdaL)
		fluxMxHLL := (lambdaR*fluxL[ivx] - lambdaL*fluxR[ivx] +
			lambdaR*lambdaL*(consR[ivx]-consL[ivx])) / (lambdaR - lambdaL)

		// Contact wavespeed (MB 18), stable quadratic root per Numerical
		// Recipes 5.6 to avoid cancellation
		var lambdaStar float64
		if fluxEHLL > tinyNumber || fluxEHLL < -tinyNumber {
			a := fluxEHLL
			b := -(eHLL + fluxMxHLL)
			c := mxHLL
			q := -0.5 * (b - math.Sqrt(sq(b)-4.0*a*c))
			lambdaStar = c / q
		} else { // no quadratic term
			lambdaStar = mxHLL / (eHLL + fluxMxHLL)
		}

		// Contact pressure from each side, averaged (MB 17)
		vxL := uL[1] / uL[0]
		aL := lambdaL*consL[IEN] - consL[ivx]
		bL := consL[ivx]*(lambdaL-vxL) - pgasL
		pgasLStar := (aL*lambdaStar - bL) / (1.0 - lambdaL*lambdaStar)
		vxR := uR[1] / uR[0]
		aR := lambdaR*consR[IEN] - consR[ivx]
		bR := consR[ivx]*(lambdaR-vxR) - pgasR
		pgasRStar := (aR*lambdaStar - bR) / (1.0 - lambdaR*lambdaStar)
		pgasStar := 0.5 * (pgasLStar + pgasRStar)

		// L* and R* conserved states and fluxes (MB 14,16)
		var consLStar, consRStar, fluxLStar, fluxRStar [NWaveHydro]float64
		for n := 0; n < NWaveHydro; n++ {
			consLStar[n] = consL[n] * (lambdaL - vxL)
		}
		consLStar[IEN] += pgasStar*lambdaStar - pgasL*vxL
		consLStar[ivx] += pgasStar - pgasL
		for n := 0; n < NWaveHydro; n++ {
			consLStar[n] /= lambdaL - lambdaStar
			fluxLStar[n] = fluxL[n] + lambdaL*(consLStar[n]-consL[n])
		}
		for n := 0; n < NWaveHydro; n++ {
			consRStar[n] = consR[n] * (lambdaR - vxR)
		}
		consRStar[IEN] += pgasStar*lambdaStar - pgasR*vxR
		consRStar[ivx] += pgasStar - pgasR
		for n := 0; n < NWaveHydro; n++ {
			consRStar[n] /= lambdaR - lambdaStar
			fluxRStar[n] = fluxR[n] + lambdaR*(consRStar[n]-consR[n])
		}

		// Four-region selection about the interface
		for n := 0; n < NWaveHydro; n++ {
			switch {
			case lambdaL >= 0.0:
				flux[n][i] = fluxL[n]
			case lambdaR <= 0.0:
				flux[n][i] = fluxR[n]
			case lambdaStar >= 0.0:
				flux[n][i] = fluxLStar[n]
			default:
				flux[n][i] = fluxRStar[n]
			}
		}
		if generalRel {
			for n := 0; n < NWaveHydro; n++ {
				switch {
				case lambdaL >= 0.0:
					cons[n][i] = consL[n]
				case lambdaR <= 0.0:
					cons[n][i] = consR[n]
				case lambdaStar >= 0.0:
					cons[n][i] = consLStar[n]
				default:
					cons[n][i] = consRStar[n]
				}
			}
		}
	}
}

// HLLCGR runs the HLLC solve in a locally flat frame: primitives are
// transformed in, the kernel runs in 4-velocity mode, and the flux and
// selected conserved state are transformed back to global coordinates.
func HLLCGR(eos EOS, coord Coordinates, dir, k, j, il, iu, ivx int,
	bb []float64, primL, primR, flux, cons [][]float64, bbNormal []float64) {
	coord.PrimToLocal(dir, k, j, il, iu, bb, primL, primR, bbNormal)
	HLLC(eos, il, iu, ivx, primL, primR, flux, cons, true)
	coord.FluxToGlobal(dir, k, j, il, iu, cons, bbNormal, flux)
}
