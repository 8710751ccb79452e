package amr

// Face-centered exchange of the staggered magnetic field. Each message
// carries all three components in sequence, packed in ascending index
// order. The face shared by sender and receiver is owned by both and is
// not exchanged at the same level; restriction onto a coarse ghost face
// is the area average of the overlying fine faces, which conserves the
// magnetic flux through the face.

// FieldBoundary exchanges B1F, B2F and B3F.
type FieldBoundary struct {
	mb *MeshBlock
	f  *Field
}

func NewFieldBoundary(mb *MeshBlock) *FieldBoundary {
	return &FieldBoundary{mb: mb, f: mb.Field}
}

func (fb *FieldBoundary) Name() string { return "field" }

// comp selects a staggered component array.
func (fb *FieldBoundary) comp(c int) *Array3 {
	switch c {
	case 0:
		return fb.f.B1F
	case 1:
		return fb.f.B2F
	default:
		return fb.f.B3F
	}
}

// extent returns the index count of component c along axis a: cells+1
// along the component's own axis, cells otherwise.
func (fb *FieldBoundary) extent(c, a int) int {
	n := fb.mb.axisCells(a)
	if c == a {
		return n + 1
	}
	return n
}

// stride is the fine-per-coarse multiplier along an axis: 2 when the
// axis is refined, 1 when it is collapsed.
func (fb *FieldBoundary) stride(a int) int {
	if fb.mb.axisCells(a) > 1 {
		return 2
	}
	return 1
}

// coarse transverse extents of component c: vertex-counted along the
// component's own axis.
func (fb *FieldBoundary) halfExtent(c, a int) int {
	n := half(fb.mb.axisCells(a))
	if c == a {
		return n + 1
	}
	return n
}

func (fb *FieldBoundary) SameLevelSize(dir int) int {
	mb := fb.mb
	ng := mb.ctx.NGhost
	_, t1, t2 := faceAxis(dir)
	size := 0
	for c := 0; c < 3; c++ {
		size += ng * fb.extent(c, t1) * fb.extent(c, t2)
	}
	return size
}

func (fb *FieldBoundary) ToCoarserSize(dir int) int {
	mb := fb.mb
	ng := mb.ctx.NGhost
	_, t1, t2 := faceAxis(dir)
	size := 0
	for c := 0; c < 3; c++ {
		size += ng * fb.halfExtent(c, t1) * fb.halfExtent(c, t2)
	}
	return size
}

func (fb *FieldBoundary) ToFinerSize(dir int) int {
	mb := fb.mb
	cgh := (mb.ctx.NGhost + 1) / 2
	_, t1, t2 := faceAxis(dir)
	size := 0
	for c := 0; c < 3; c++ {
		size += cgh * fb.halfExtent(c, t1) * fb.halfExtent(c, t2)
	}
	return size
}

// normalRun gives the first index and the plane count of the normal run
// of component c at a face: vertex planes strictly inside the shared
// face when c is the normal component, cell planes otherwise.
func (fb *FieldBoundary) normalRun(c, dir, count int, ghost bool) int {
	mb := fb.mb
	na := dir / 2
	s, e := mb.axisStart(na), mb.axisEnd(na)
	if c == na {
		if dir%2 == 0 {
			if ghost {
				return s - count
			}
			return s + 1
		}
		if ghost {
			return e + 2
		}
		return e + 1 - count
	}
	if dir%2 == 0 {
		if ghost {
			return s - count
		}
		return s
	}
	if ghost {
		return e + 1
	}
	return e - count + 1
}

func (fb *FieldBoundary) LoadSameLevel(dir int, buf []float64) {
	mb := fb.mb
	ng := mb.ctx.NGhost
	_, t1, t2 := faceAxis(dir)
	p := 0
	for c := 0; c < 3; c++ {
		arr := fb.comp(c)
		n0 := fb.normalRun(c, dir, ng, false)
		s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
		e1, e2 := fb.extent(c, t1), fb.extent(c, t2)
		for d := 0; d < ng; d++ {
			for u := 0; u < e1; u++ {
				for v := 0; v < e2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					buf[p] = arr.At(k, j, i)
					p++
				}
			}
		}
	}
}

func (fb *FieldBoundary) SetSameLevel(dir int, buf []float64) {
	mb := fb.mb
	ng := mb.ctx.NGhost
	_, t1, t2 := faceAxis(dir)
	p := 0
	for c := 0; c < 3; c++ {
		arr := fb.comp(c)
		n0 := fb.normalRun(c, dir, ng, true)
		s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
		e1, e2 := fb.extent(c, t1), fb.extent(c, t2)
		for d := 0; d < ng; d++ {
			for u := 0; u < e1; u++ {
				for v := 0; v < e2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					arr.Set(k, j, i, buf[p])
					p++
				}
			}
		}
	}
}

// LoadToCoarser restricts onto the coarse face lattice. Normal-component
// values average the fine faces coplanar with each coarse ghost face;
// transverse components average over the refined cell directions.
func (fb *FieldBoundary) LoadToCoarser(dir int, buf []float64) {
	mb := fb.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	mn := fb.stride(na)
	p := 0
	for c := 0; c < 3; c++ {
		arr := fb.comp(c)
		s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
		h1, h2 := fb.halfExtent(c, t1), fb.halfExtent(c, t2)
		m1, m2 := fb.stride(t1), fb.stride(t2)
		// faces along the component's own axis coincide on both levels,
		// so no averaging happens in that direction
		a1, a2 := m1, m2
		if c == t1 {
			a1 = 1
		}
		if c == t2 {
			a2 = 1
		}
		var base int
		dn := mn
		if c == na {
			dn = 1
			if dir%2 == 0 {
				base = mb.axisStart(na) + mn
			} else {
				base = mb.axisEnd(na) + 1 - mn*ng
			}
		} else {
			base = fb.normalRun(c, dir, mn*ng, false)
		}
		inv := 1.0 / float64(dn*a1*a2)
		for d := 0; d < ng; d++ {
			n := base + mn*d
			for u := 0; u < h1; u++ {
				for v := 0; v < h2; v++ {
					sum := 0.0
					for on := 0; on < dn; on++ {
						for o1 := 0; o1 < a1; o1++ {
							for o2 := 0; o2 < a2; o2++ {
								i, j, k := ijk(dir, n+on, s1+m1*u+o1, s2+m2*v+o2)
								sum += arr.At(k, j, i)
							}
						}
					}
					buf[p] = sum * inv
					p++
				}
			}
		}
	}
}

// SetFromFiner writes restricted face data into the ghost quadrant
// selected by the fine sender's face index.
func (fb *FieldBoundary) SetFromFiner(dir, fi1, fi2 int, buf []float64) {
	mb := fb.mb
	ng := mb.ctx.NGhost
	_, t1, t2 := faceAxis(dir)
	p := 0
	for c := 0; c < 3; c++ {
		arr := fb.comp(c)
		h1, h2 := fb.halfExtent(c, t1), fb.halfExtent(c, t2)
		s1 := mb.axisStart(t1) + fi1*half(mb.axisCells(t1))
		s2 := mb.axisStart(t2) + fi2*half(mb.axisCells(t2))
		n0 := fb.normalRun(c, dir, ng, true)
		for d := 0; d < ng; d++ {
			for u := 0; u < h1; u++ {
				for v := 0; v < h2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					arr.Set(k, j, i, buf[p])
					p++
				}
			}
		}
	}
}

// LoadToFiner packs the coarse faces overlaid by one fine neighbor's
// ghost zone.
func (fb *FieldBoundary) LoadToFiner(dir, fi1, fi2 int, buf []float64) {
	mb := fb.mb
	cgh := (mb.ctx.NGhost + 1) / 2
	_, t1, t2 := faceAxis(dir)
	p := 0
	for c := 0; c < 3; c++ {
		arr := fb.comp(c)
		h1, h2 := fb.halfExtent(c, t1), fb.halfExtent(c, t2)
		s1 := mb.axisStart(t1) + fi1*half(mb.axisCells(t1))
		s2 := mb.axisStart(t2) + fi2*half(mb.axisCells(t2))
		n0 := fb.normalRun(c, dir, cgh, false)
		for d := 0; d < cgh; d++ {
			for u := 0; u < h1; u++ {
				for v := 0; v < h2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					buf[p] = arr.At(k, j, i)
					p++
				}
			}
		}
	}
}

// SetFromCoarser fills fine ghost faces by piecewise-constant copy of
// the overlying coarse face values.
func (fb *FieldBoundary) SetFromCoarser(dir int, buf []float64) {
	mb := fb.mb
	ng := mb.ctx.NGhost
	cgh := (ng + 1) / 2
	_, t1, t2 := faceAxis(dir)
	off := 0
	for c := 0; c < 3; c++ {
		arr := fb.comp(c)
		h1, h2 := fb.halfExtent(c, t1), fb.halfExtent(c, t2)
		s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
		e1, e2 := fb.extent(c, t1), fb.extent(c, t2)
		m1, m2 := fb.stride(t1), fb.stride(t2)
		n0 := fb.normalRun(c, dir, ng, true)
		for o := 0; o < ng; o++ {
			dc := o / 2
			for u := 0; u < e1; u++ {
				for v := 0; v < e2; v++ {
					idx := off + (dc*h1+u/m1)*h2 + v/m2
					i, j, k := ijk(dir, n0+o, s1+u, s2+v)
					arr.Set(k, j, i, buf[idx])
				}
			}
		}
		off += cgh * h1 * h2
	}
}

// ApplyPhysicalBoundary mirrors or copies the staggered field. Under
// reflection the normal component is odd across the face and the
// transverse components are even; the polar wedge is additionally odd in
// the azimuthal component.
func (fb *FieldBoundary) ApplyPhysicalBoundary(dir, bc int) {
	if bc != BCOutflow && bc != BCReflect && bc != BCPolarWedge {
		return
	}
	mb := fb.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	for c := 0; c < 3; c++ {
		arr := fb.comp(c)
		s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
		e1, e2 := fb.extent(c, t1), fb.extent(c, t2)
		sign := 1.0
		if bc != BCOutflow && (c == na || (bc == BCPolarWedge && c == 2)) {
			sign = -1.0
		}
		for d := 0; d < ng; d++ {
			var gn, sn int
			low, high := mb.axisStart(na), mb.axisEnd(na)
			if c == na {
				// index of the boundary face itself
				if dir%2 == 0 {
					gn, sn = low-1-d, low+1+d
					if bc == BCOutflow {
						sn = low
					}
				} else {
					gn, sn = high+2+d, high-d
					if bc == BCOutflow {
						sn = high + 1
					}
				}
			} else {
				if dir%2 == 0 {
					gn, sn = low-1-d, low+d
					if bc == BCOutflow {
						sn = low
					}
				} else {
					gn, sn = high+1+d, high-d
					if bc == BCOutflow {
						sn = high
					}
				}
			}
			for u := 0; u < e1; u++ {
				for v := 0; v < e2; v++ {
					si, sj, sk := ijk(dir, sn, s1+u, s2+v)
					gi, gj, gk := ijk(dir, gn, s1+u, s2+v)
					arr.Set(gk, gj, gi, sign*arr.At(sk, sj, si))
				}
			}
		}
	}
}
