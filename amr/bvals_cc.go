package amr

import "github.com/notargets/gamr/fluid"

// Cell-centered exchange. A face slab is packed and unpacked in
// ascending (variable, k, j, i) order of each block's own index space;
// because all blocks share one global orientation the physical ordering
// matches on both sides without any reversal.

func half(n int) int {
	if n > 1 {
		return n / 2
	}
	return 1
}

// axisStart/axisEnd/axisCells expose the active index range per axis
// (0=x1, 1=x2, 2=x3).
func (mb *MeshBlock) axisStart(a int) int { return [3]int{mb.IS, mb.JS, mb.KS}[a] }
func (mb *MeshBlock) axisEnd(a int) int   { return [3]int{mb.IE, mb.JE, mb.KE}[a] }
func (mb *MeshBlock) axisCells(a int) int { return mb.axisEnd(a) - mb.axisStart(a) + 1 }

// faceAxis returns the normal axis of a face direction and its two
// transverse axes in (fi1, fi2) order.
func faceAxis(dir int) (normal, t1, t2 int) {
	switch dir / 2 {
	case 0:
		return 0, 1, 2
	case 1:
		return 1, 0, 2
	default:
		return 2, 0, 1
	}
}

// ijk maps (normal, t1, t2) coordinates of a face back to (i, j, k).
func ijk(dir, n, u, v int) (i, j, k int) {
	switch dir / 2 {
	case 0:
		return n, u, v
	case 1:
		return u, n, v
	default:
		return u, v, n
	}
}

// ccExchange implements the exchange geometry shared by every
// cell-centered variable.
type ccExchange struct {
	mb   *MeshBlock
	arr  *Array4
	nvar int
}

func (c *ccExchange) SameLevelSize(dir int) int {
	_, t1, t2 := faceAxis(dir)
	return c.nvar * c.mb.ctx.NGhost * c.mb.axisCells(t1) * c.mb.axisCells(t2)
}

func (c *ccExchange) ToCoarserSize(dir int) int {
	_, t1, t2 := faceAxis(dir)
	return c.nvar * c.mb.ctx.NGhost * half(c.mb.axisCells(t1)) * half(c.mb.axisCells(t2))
}

func (c *ccExchange) ToFinerSize(dir int) int {
	_, t1, t2 := faceAxis(dir)
	cgh := (c.mb.ctx.NGhost + 1) / 2
	return c.nvar * cgh * half(c.mb.axisCells(t1)) * half(c.mb.axisCells(t2))
}

// normalBase returns the first index of a normal run of length count
// cells on the given side of the face: inside the active zone for packs,
// inside the ghost zone for sets.
func (c *ccExchange) normalBase(dir, axis, count int, ghost bool) int {
	s, e := c.mb.axisStart(axis), c.mb.axisEnd(axis)
	if dir%2 == 0 { // inner face
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

func (c *ccExchange) LoadSameLevel(dir int, buf []float64) {
	mb := c.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	n0 := c.normalBase(dir, na, ng, false)
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	n1, n2 := mb.axisCells(t1), mb.axisCells(t2)
	p := 0
	for n := 0; n < c.nvar; n++ {
		for d := 0; d < ng; d++ {
			for u := 0; u < n1; u++ {
				for v := 0; v < n2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					buf[p] = c.arr.At(n, k, j, i)
					p++
				}
			}
		}
	}
}

func (c *ccExchange) SetSameLevel(dir int, buf []float64) {
	mb := c.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	n0 := c.normalBase(dir, na, ng, true)
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	n1, n2 := mb.axisCells(t1), mb.axisCells(t2)
	p := 0
	for n := 0; n < c.nvar; n++ {
		for d := 0; d < ng; d++ {
			for u := 0; u < n1; u++ {
				for v := 0; v < n2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					c.arr.Set(n, k, j, i, buf[p])
					p++
				}
			}
		}
	}
}

// LoadToCoarser restricts the active slab next to the face by volume
// averaging 2 cells per refined axis into each coarse cell.
func (c *ccExchange) LoadToCoarser(dir int, buf []float64) {
	mb := c.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	n0 := c.normalBase(dir, na, 2*ng, false)
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	c1, c2 := half(mb.axisCells(t1)), half(mb.axisCells(t2))
	m1, m2 := 1, 1
	if mb.axisCells(t1) > 1 {
		m1 = 2
	}
	if mb.axisCells(t2) > 1 {
		m2 = 2
	}
	inv := 1.0 / float64(2*m1*m2)
	p := 0
	for n := 0; n < c.nvar; n++ {
		for d := 0; d < ng; d++ {
			for u := 0; u < c1; u++ {
				for v := 0; v < c2; v++ {
					sum := 0.0
					for dn := 0; dn < 2; dn++ {
						for du := 0; du < m1; du++ {
							for dv := 0; dv < m2; dv++ {
								i, j, k := ijk(dir, n0+2*d+dn, s1+m1*u+du, s2+m2*v+dv)
								sum += c.arr.At(n, k, j, i)
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

// SetFromFiner writes a restricted buffer into the face quadrant of the
// ghost zone selected by the fine sender's face index.
func (c *ccExchange) SetFromFiner(dir, fi1, fi2 int, buf []float64) {
	mb := c.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	n0 := c.normalBase(dir, na, ng, true)
	c1, c2 := half(mb.axisCells(t1)), half(mb.axisCells(t2))
	s1 := mb.axisStart(t1) + fi1*c1
	s2 := mb.axisStart(t2) + fi2*c2
	p := 0
	for n := 0; n < c.nvar; n++ {
		for d := 0; d < ng; d++ {
			for u := 0; u < c1; u++ {
				for v := 0; v < c2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					c.arr.Set(n, k, j, i, buf[p])
					p++
				}
			}
		}
	}
}

// LoadToFiner packs the coarse active cells overlaid by the ghost zone
// of one fine neighbor, selected by its face quadrant.
func (c *ccExchange) LoadToFiner(dir, fi1, fi2 int, buf []float64) {
	mb := c.mb
	cgh := (mb.ctx.NGhost + 1) / 2
	na, t1, t2 := faceAxis(dir)
	n0 := c.normalBase(dir, na, cgh, false)
	c1, c2 := half(mb.axisCells(t1)), half(mb.axisCells(t2))
	s1 := mb.axisStart(t1) + fi1*c1
	s2 := mb.axisStart(t2) + fi2*c2
	p := 0
	for n := 0; n < c.nvar; n++ {
		for d := 0; d < cgh; d++ {
			for u := 0; u < c1; u++ {
				for v := 0; v < c2; v++ {
					i, j, k := ijk(dir, n0+d, s1+u, s2+v)
					buf[p] = c.arr.At(n, k, j, i)
					p++
				}
			}
		}
	}
}

// SetFromCoarser fills fine ghost cells by piecewise-constant copy of
// the overlying coarse cell; coarsening an exchanged region back down
// reproduces the coarse data exactly.
func (c *ccExchange) SetFromCoarser(dir int, buf []float64) {
	mb := c.mb
	ng := mb.ctx.NGhost
	cgh := (ng + 1) / 2
	na, t1, t2 := faceAxis(dir)
	n0 := c.normalBase(dir, na, ng, true)
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	n1, n2 := mb.axisCells(t1), mb.axisCells(t2)
	c1, c2 := half(n1), half(n2)
	m1, m2 := 1, 1
	if n1 > 1 {
		m1 = 2
	}
	if n2 > 1 {
		m2 = 2
	}
	for n := 0; n < c.nvar; n++ {
		for o := 0; o < ng; o++ {
			dc := o / 2
			for u := 0; u < n1; u++ {
				for v := 0; v < n2; v++ {
					idx := ((n*cgh+dc)*c1+u/m1)*c2 + v/m2
					i, j, k := ijk(dir, n0+o, s1+u, s2+v)
					c.arr.Set(n, k, j, i, buf[idx])
				}
			}
		}
	}
}

// applyOutflow copies the innermost active plane into every ghost plane.
func (c *ccExchange) applyOutflow(dir int) {
	mb := c.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	g0 := c.normalBase(dir, na, ng, true)
	edge := mb.axisStart(na)
	if dir%2 == 1 {
		edge = mb.axisEnd(na)
	}
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	n1, n2 := mb.axisCells(t1), mb.axisCells(t2)
	for n := 0; n < c.nvar; n++ {
		for d := 0; d < ng; d++ {
			for u := 0; u < n1; u++ {
				for v := 0; v < n2; v++ {
					si, sj, sk := ijk(dir, edge, s1+u, s2+v)
					gi, gj, gk := ijk(dir, g0+d, s1+u, s2+v)
					c.arr.Set(n, gk, gj, gi, c.arr.At(n, sk, sj, si))
				}
			}
		}
	}
}

// applyReflect mirrors the active cells across the face; flip lists the
// variables whose sign reverses.
func (c *ccExchange) applyReflect(dir int, flip ...int) {
	mb := c.mb
	ng := mb.ctx.NGhost
	na, t1, t2 := faceAxis(dir)
	s1, s2 := mb.axisStart(t1), mb.axisStart(t2)
	n1, n2 := mb.axisCells(t1), mb.axisCells(t2)
	for n := 0; n < c.nvar; n++ {
		sign := 1.0
		for _, f := range flip {
			if f == n {
				sign = -1.0
			}
		}
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
					c.arr.Set(n, gk, gj, gi, sign*c.arr.At(n, sk, sj, si))
				}
			}
		}
	}
}

// HydroBoundary exchanges the conserved hydro state.
type HydroBoundary struct {
	ccExchange
}

func NewHydroBoundary(mb *MeshBlock) *HydroBoundary {
	h := mb.Hydro
	return &HydroBoundary{ccExchange{mb: mb, arr: h.U, nvar: h.NWave}}
}

func (hb *HydroBoundary) Name() string { return "hydro" }

func (hb *HydroBoundary) ApplyPhysicalBoundary(dir, bc int) {
	na, _, _ := faceAxis(dir)
	normal := [3]int{fluid.IVX, fluid.IVY, fluid.IVZ}[na]
	switch bc {
	case BCOutflow:
		hb.applyOutflow(dir)
	case BCReflect:
		hb.applyReflect(dir, normal)
	case BCPolarWedge:
		// crossing the pole also reverses the azimuthal component
		hb.applyReflect(dir, normal, fluid.IVZ)
	}
}
