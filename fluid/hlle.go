package fluid

import "math"

// HLLE computes interface fluxes for general-relativistic
// magnetohydrodynamics over one row of interfaces i in [il,iu], working
// directly in global coordinates (no frame transform). The velocities in
// primL/primR are the projected 4-velocities of the normal observer and
// the magnetic components IBY/IBZ are the fields transverse to the face,
// cyclically permuted; bb holds the field normal to the face. g and gi are
// caller-owned scratch rows of length >= iu+1 per packed metric component.
func HLLE(eos EOS, coord Coordinates, k, j, il, iu, ivx int,
	bb []float64, primL, primR, flux [][]float64, g, gi [][]float64) {
	ivy, ivz := TransverseIndices(ivx)
	gammaAdi := eos.Gamma()
	coord.FaceMetric(ivx, k, j, il, iu, g, gi)

	for i := il; i <= iu; i++ {
		// Metric components at this interface
		gcov := [4][4]float64{
			{g[I00][i], g[I01][i], g[I02][i], g[I03][i]},
			{g[I01][i], g[I11][i], g[I12][i], g[I13][i]},
			{g[I02][i], g[I12][i], g[I22][i], g[I23][i]},
			{g[I03][i], g[I13][i], g[I23][i], g[I33][i]},
		}
		g00, g01, g02, g03 := gi[I00][i], gi[I01][i], gi[I02][i], gi[I03][i]
		alpha := math.Sqrt(-1.0 / g00)
		var gii, g0i float64
		switch ivx {
		case IVX:
			gii, g0i = gi[I11][i], g01
		case IVY:
			gii, g0i = gi[I22][i], g02
		case IVZ:
			gii, g0i = gi[I33][i], g03
		}

		// Left and right primitives; the transverse field slots follow
		// the face normal cyclically
		rhoL, pgasL := primL[IDN][i], primL[IEN][i]
		w1L, w2L, w3L := primL[IVX][i], primL[IVY][i], primL[IVZ][i]
		rhoR, pgasR := primR[IDN][i], primR[IEN][i]
		w1R, w2R, w3R := primR[IVX][i], primR[IVY][i], primR[IVZ][i]
		var bbL, bbR [4]float64
		bbL[ivx], bbL[ivy], bbL[ivz] = bb[i], primL[IBY][i], primL[IBZ][i]
		bbR[ivx], bbR[ivy], bbR[ivz] = bb[i], primR[IBY][i], primR[IBZ][i]

		// 4-velocities
		uconL, ucovL := fourVelocity(&gcov, alpha, g01, g02, g03, w1L, w2L, w3L)
		uconR, ucovR := fourVelocity(&gcov, alpha, g01, g02, g03, w1R, w2R, w3R)

		// 4-magnetic fields
		bconL, bcovL, bSqL := fourField(&gcov, &uconL, &bbL)
		bconR, bcovR, bSqR := fourField(&gcov, &uconR, &bbR)

		// Wavespeeds in each state, then the extremal pair
		wgasL := rhoL + gammaAdi/(gammaAdi-1.0)*pgasL
		lambdaPL, lambdaML := eos.FastMagnetosonicSpeedsGR(
			wgasL, pgasL, uconL[0], uconL[ivx], bSqL, g00, g0i, gii)
		wgasR := rhoR + gammaAdi/(gammaAdi-1.0)*pgasR
		lambdaPR, lambdaMR := eos.FastMagnetosonicSpeedsGR(
			wgasR, pgasR, uconR[0], uconR[ivx], bSqR, g00, g0i, gii)
		lambdaL := math.Min(lambdaML, lambdaMR)
		lambdaR := math.Max(lambdaPL, lambdaPR)

		// Conserved quantities and fluxes in the L region
		// (rho u^0, T^0_mu, and B^j = *F^{j0} for j != ivx)
		var consL, fluxL [NWaveMHD]float64
		wtotL := wgasL + bSqL
		ptotL := pgasL + 0.5*bSqL
		consL[IDN] = rhoL * uconL[0]
		consL[IEN] = wtotL*uconL[0]*ucovL[0] - bconL[0]*bcovL[0] + ptotL
		consL[IVX] = wtotL*uconL[0]*ucovL[1] - bconL[0]*bcovL[1]
		consL[IVY] = wtotL*uconL[0]*ucovL[2] - bconL[0]*bcovL[2]
		consL[IVZ] = wtotL*uconL[0]*ucovL[3] - bconL[0]*bcovL[3]
		consL[IBY] = bconL[ivy]*uconL[0] - bconL[0]*uconL[ivy]
		consL[IBZ] = bconL[ivz]*uconL[0] - bconL[0]*uconL[ivz]
		fluxL[IDN] = rhoL * uconL[ivx]
		fluxL[IEN] = wtotL*uconL[ivx]*ucovL[0] - bconL[ivx]*bcovL[0]
		fluxL[IVX] = wtotL*uconL[ivx]*ucovL[1] - bconL[ivx]*bcovL[1]
		fluxL[IVY] = wtotL*uconL[ivx]*ucovL[2] - bconL[ivx]*bcovL[2]
		fluxL[IVZ] = wtotL*uconL[ivx]*ucovL[3] - bconL[ivx]*bcovL[3]
		fluxL[ivx] += ptotL
		fluxL[IBY] = bconL[ivy]*uconL[ivx] - bconL[ivx]*uconL[ivy]
		fluxL[IBZ] = bconL[ivz]*uconL[ivx] - bconL[ivx]*uconL[ivz]

		// Conserved quantities and fluxes in the R region
		var consR, fluxR [NWaveMHD]float64
		wtotR := wgasR + bSqR
		ptotR := pgasR + 0.5*bSqR
		consR[IDN] = rhoR * uconR[0]
		consR[IEN] = wtotR*uconR[0]*ucovR[0] - bconR[0]*bcovR[0] + ptotR
		consR[IVX] = wtotR*uconR[0]*ucovR[1] - bconR[0]*bcovR[1]
		consR[IVY] = wtotR*uconR[0]*ucovR[2] - bconR[0]*bcovR[2]
		consR[IVZ] = wtotR*uconR[0]*ucovR[3] - bconR[0]*bcovR[3]
		consR[IBY] = bconR[ivy]*uconR[0] - bconR[0]*uconR[ivy]
		consR[IBZ] = bconR[ivz]*uconR[0] - bconR[0]*uconR[ivz]
		fluxR[IDN] = rhoR * uconR[ivx]
		fluxR[IEN] = wtotR*uconR[ivx]*ucovR[0] - bconR[ivx]*bcovR[0]
		fluxR[IVX] = wtotR*uconR[ivx]*ucovR[1] - bconR[ivx]*bcovR[1]
		fluxR[IVY] = wtotR*uconR[ivx]*ucovR[2] - bconR[ivx]*bcovR[2]
		fluxR[IVZ] = wtotR*uconR[ivx]*ucovR[3] - bconR[ivx]*bcovR[3]
		fluxR[ivx] += ptotR
		fluxR[IBY] = bconR[ivy]*uconR[ivx] - bconR[ivx]*uconR[ivy]
		fluxR[IBZ] = bconR[ivz]*uconR[ivx] - bconR[ivx]*uconR[ivz]

		// HLL blend and three-region selection
		for n := 0; n < NWaveMHD; n++ {
			switch {
			case lambdaL >= 0.0:
				flux[n][i] = fluxL[n]
			case lambdaR <= 0.0:
				flux[n][i] = fluxR[n]
			default:
				flux[n][i] = (lambdaR*fluxL[n] - lambdaL*fluxR[n] +
					lambdaR*lambdaL*(consR[n]-consL[n])) / (lambdaR - lambdaL)
			}
		}
	}
}

// fourVelocity builds (u^mu, u_mu) from a projected normal-observer
// 3-velocity.
func fourVelocity(gcov *[4][4]float64, alpha, g01, g02, g03, w1, w2, w3 float64) (ucon, ucov [4]float64) {
	tmp := gcov[1][1]*sq(w1) + 2.0*gcov[1][2]*w1*w2 + 2.0*gcov[1][3]*w1*w3 +
		gcov[2][2]*sq(w2) + 2.0*gcov[2][3]*w2*w3 +
		gcov[3][3]*sq(w3)
	lorentz := math.Sqrt(1.0 + tmp)
	ucon[0] = lorentz / alpha
	ucon[1] = w1 - alpha*lorentz*g01
	ucon[2] = w2 - alpha*lorentz*g02
	ucon[3] = w3 - alpha*lorentz*g03
	for mu := 0; mu < 4; mu++ {
		for nu := 0; nu < 4; nu++ {
			ucov[mu] += gcov[mu][nu] * ucon[nu]
		}
	}
	return
}

// fourField builds (b^mu, b_mu, b^2) from the cell-frame field bb and the
// fluid 4-velocity.
func fourField(gcov *[4][4]float64, ucon, bb *[4]float64) (bcon, bcov [4]float64, bSq float64) {
	for mu := 0; mu < 4; mu++ {
		bcon[0] += ucon[mu] * (gcov[mu][1]*bb[1] + gcov[mu][2]*bb[2] + gcov[mu][3]*bb[3])
	}
	bcon[1] = (bb[1] + bcon[0]*ucon[1]) / ucon[0]
	bcon[2] = (bb[2] + bcon[0]*ucon[2]) / ucon[0]
	bcon[3] = (bb[3] + bcon[0]*ucon[3]) / ucon[0]
	for mu := 0; mu < 4; mu++ {
		for nu := 0; nu < 4; nu++ {
			bcov[mu] += gcov[mu][nu] * bcon[nu]
		}
		bSq += bcon[mu] * bcov[mu]
	}
	return
}
