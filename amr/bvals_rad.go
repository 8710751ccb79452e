package amr

// RadiationBoundary exchanges the specific intensities. Communication
// reuses the cell-centered slab machinery with one variable per angle;
// only the physical boundaries are angle-aware, since vacuum and
// reflecting walls couple incoming and outgoing octants.
type RadiationBoundary struct {
	ccExchange
	rad *Radiation
}

func NewRadiationBoundary(mb *MeshBlock) *RadiationBoundary {
	r := mb.Rad
	return &RadiationBoundary{
		ccExchange: ccExchange{mb: mb, arr: r.IR, nvar: r.NFreq * NOctant * r.NAng},
		rad:        r,
	}
}

func (rb *RadiationBoundary) Name() string { return "radiation" }

func (rb *RadiationBoundary) ApplyPhysicalBoundary(dir, bc int) {
	switch bc {
	case BCOutflow:
		rb.applyOutflow(dir)
	case BCReflect, BCPolarWedge:
		rb.applyReflect(dir)
	}
}

// applyReflect mirrors each intensity across the face, swapping every
// octant with its image through the face normal so that rays leaving the
// wall reappear as their reflected counterparts.
func (rb *RadiationBoundary) applyReflect(dir int) {
	mb := rb.mb
	r := rb.rad
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	n1, n2 := mb.axisCells(t1), mb.axisCells(t2)
	for ifr := 0; ifr < r.NFreq; ifr++ {
		for oct := 0; oct < NOctant; oct++ {
			src := r.AngleIndex(ifr, OppositeOctant(oct, na), 0)
			dst := r.AngleIndex(ifr, oct, 0)
			for n := 0; n < r.NAng; n++ {
				for d := 0; d < ng; d++ {
					var gn, sn int
					if dir%2 == 0 {
						gn = mb.axisStart(na) - 1 - d
						sn = mb.axisStart(na) + d
					} else {
						gn = mb.axisEnd(na) + 1 + d
						sn = mb.axisEnd(na) - d
					}
					for u := 0; u < n1; u++ {
						for v := 0; v < n2; v++ {
							si, sj, sk := ijk(dir, sn, s1+u, s2+v)
							gi, gj, gk := ijk(dir, gn, s1+u, s2+v)
							rb.arr.Set(dst+n, gk, gj, gi, rb.arr.At(src+n, sk, sj, si))
						}
					}
				}
			}
		}
	}
}
