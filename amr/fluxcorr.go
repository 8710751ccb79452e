package amr

// Flux correction across refinement jumps. The fine side of a shared
// face averages its boundary fluxes onto the coarse lattice and sends
// them; the coarse side overwrites its own flux plane with the received
// values before integrating, which keeps the update conservative across
// the jump. The messages travel on the odd sub-channel of the hydro tag
// space so they never collide with state exchanges.

const fluxCorrChannel = 1

// fcSize is the packed flux slab size of one face quadrant.
func (bv *BoundaryValues) fcSize(dir int) int {
	mb := bv.mb
	_, t1, t2 := faceAxis(dir)
	return mb.Hydro.NWave * half(mb.axisCells(t1)) * half(mb.axisCells(t2))
}

// allocFluxCorr sets up receive slots on faces that border finer blocks.
func (bv *BoundaryValues) allocFluxCorr() {
	mb := bv.mb
	for dir := 0; dir < NFaces; dir++ {
		for f2 := 0; f2 < 2; f2++ {
			for f1 := 0; f1 < 2; f1++ {
				nb := mb.Neighbor[dir][f2][f1]
				if nb.GID >= 0 && nb.Level > mb.Level() {
					bv.fcSlot[dir][f2][f1] = boundarySlot{buf: make([]float64, bv.fcSize(dir))}
				} else {
					bv.fcSlot[dir][f2][f1] = boundarySlot{}
				}
			}
		}
	}
}

func (bv *BoundaryValues) StartReceivingFluxCorrection() {
	for dir := 0; dir < NFaces; dir++ {
		for f2 := 0; f2 < 2; f2++ {
			for f1 := 0; f1 < 2; f1++ {
				if bv.fcSlot[dir][f2][f1].buf != nil {
					bv.fcSlot[dir][f2][f1].status = BndWaiting
				}
			}
		}
	}
}

// SendFluxCorrection restricts and ships the boundary fluxes of every
// face whose neighbor is coarser.
func (bv *BoundaryValues) SendFluxCorrection() {
	mb := bv.mb
	for dir := 0; dir < NFaces; dir++ {
		nb := mb.Neighbor[dir][0][0]
		if nb.GID < 0 || nb.Level >= mb.Level() {
			continue
		}
		buf := make([]float64, bv.fcSize(dir))
		bv.packFlux(dir, buf)
		f1, f2 := mb.myFaceIndex(dir)
		odir := opposite(dir)
		if nb.Rank == mb.ctx.Rank {
			peer := mb.mesh.BlockByLID(nb.LID)
			slot := &peer.BVals.fcSlot[odir][f2][f1]
			copy(slot.buf, buf)
			slot.status = BndArrived
			continue
		}
		t := tag(nb.LID, odir, f1, f2, fluxCorrChannel, len(bv.vars)*2)
		mb.ctx.Comm.Send(nb.Rank, t, buf)
	}
}

// ReceiveFluxCorrection polls the faces that border finer blocks and
// applies each arrived slab; it returns true once every slot is served.
func (bv *BoundaryValues) ReceiveFluxCorrection() bool {
	mb := bv.mb
	done := true
	for dir := 0; dir < NFaces; dir++ {
		for f2 := 0; f2 < 2; f2++ {
			for f1 := 0; f1 < 2; f1++ {
				slot := &bv.fcSlot[dir][f2][f1]
				if slot.buf == nil || slot.status != BndWaiting {
					continue
				}
				nb := mb.Neighbor[dir][f2][f1]
				if nb.Rank != mb.ctx.Rank {
					t := tag(mb.LID, dir, f1, f2, fluxCorrChannel, len(bv.vars)*2)
					if data, ok := mb.ctx.Comm.TryReceive(mb.ctx.Rank, t); ok {
						copy(slot.buf, data)
						slot.status = BndArrived
					}
				}
				if slot.status != BndArrived {
					done = false
					continue
				}
				bv.applyFlux(dir, f1, f2, slot.buf)
				slot.status = BndCompleted
			}
		}
	}
	return done
}

// packFlux area-averages this block's boundary flux plane onto the
// coarse lattice of the neighbor across the face.
func (bv *BoundaryValues) packFlux(dir int, buf []float64) {
	mb := bv.mb
	h := mb.Hydro
	na, t1, t2 := faceAxis(dir)
	flux := h.Flux[na]
	plane := mb.axisStart(na)
	if dir%2 == 1 {
		plane = mb.axisEnd(na) + 1
	}
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	c1, c2 := half(mb.axisCells(t1)), half(mb.axisCells(t2))
	m1, m2 := 1, 1
	if mb.axisCells(t1) > 1 {
		m1 = 2
	}
	if mb.axisCells(t2) > 1 {
		m2 = 2
	}
	inv := 1.0 / float64(m1*m2)
	p := 0
	for n := 0; n < h.NWave; n++ {
		for u := 0; u < c1; u++ {
			for v := 0; v < c2; v++ {
				sum := 0.0
				for o1 := 0; o1 < m1; o1++ {
					for o2 := 0; o2 < m2; o2++ {
						i, j, k := ijk(dir, plane, s1+m1*u+o1, s2+m2*v+o2)
						sum += flux.At(n, k, j, i)
					}
				}
				buf[p] = sum * inv
				p++
			}
		}
	}
}

// applyFlux overwrites the coarse boundary flux plane in the quadrant
// covered by one fine neighbor.
func (bv *BoundaryValues) applyFlux(dir, fi1, fi2 int, buf []float64) {
	mb := bv.mb
	h := mb.Hydro
	na, t1, t2 := faceAxis(dir)
	flux := h.Flux[na]
	plane := mb.axisStart(na)
	if dir%2 == 1 {
		plane = mb.axisEnd(na) + 1
	}
	c1, c2 := half(mb.axisCells(t1)), half(mb.axisCells(t2))
	s1 := mb.axisStart(t1) + fi1*c1
	s2 := mb.axisStart(t2) + fi2*c2
	p := 0
	for n := 0; n < h.NWave; n++ {
		for u := 0; u < c1; u++ {
			for v := 0; v < c2; v++ {
				i, j, k := ijk(dir, plane, s1+u, s2+v)
				flux.Set(n, k, j, i, buf[p])
				p++
			}
		}
	}
}
