// Package amr implements a block-structured adaptive mesh: an octree block
// index with cross-level neighbor search, cost-based block distribution
// over ranks, a ghost-zone exchange protocol between blocks, and a
// dependency-gated per-block task scheduler driving a directionally split
// Godunov update.
package amr

import (
	"fmt"
	"math"
)

// Face direction indices for boundary condition tags and neighbor tables.
const (
	InnerX1 = iota
	OuterX1
	InnerX2
	OuterX2
	InnerX3
	OuterX3
	NFaces
)

// Boundary condition codes carried per face.
const (
	BCInternal   = -1 // block interface, handled by the exchange protocol
	BCNone       = 0
	BCReflect    = 1
	BCOutflow    = 2
	BCPolarWedge = 3
	BCPeriodic   = 4
)

// RegionSize describes the physical extent, cell counts and cell size
// ratios of a rectangular region, either the whole mesh or one block.
type RegionSize struct {
	X1Min, X2Min, X3Min float64
	X1Max, X2Max, X3Max float64
	X1Rat, X2Rat, X3Rat float64
	NX1, NX2, NX3       int64
}

// Validate checks the constraints a mesh-level region must satisfy.
func (rs *RegionSize) Validate() error {
	if rs.NX1 < 1 {
		return fmt.Errorf("in the mesh section nx1 must be >= 1, but nx1=%d", rs.NX1)
	}
	if rs.NX2 < 1 {
		return fmt.Errorf("in the mesh section nx2 must be >= 1, but nx2=%d", rs.NX2)
	}
	if rs.NX3 < 1 {
		return fmt.Errorf("in the mesh section nx3 must be >= 1, but nx3=%d", rs.NX3)
	}
	if rs.NX2 == 1 && rs.NX3 > 1 {
		return fmt.Errorf("nx2=1, nx3=%d, 2D problems in the x1-x3 plane are not supported", rs.NX3)
	}
	if rs.X1Max <= rs.X1Min {
		return fmt.Errorf("x1max must be larger than x1min: x1min=%g x1max=%g", rs.X1Min, rs.X1Max)
	}
	if rs.X2Max <= rs.X2Min {
		return fmt.Errorf("x2max must be larger than x2min: x2min=%g x2max=%g", rs.X2Min, rs.X2Max)
	}
	if rs.X3Max <= rs.X3Min {
		return fmt.Errorf("x3max must be larger than x3min: x3min=%g x3max=%g", rs.X3Min, rs.X3Max)
	}
	for _, r := range [3]struct {
		name string
		rat  float64
	}{{"x1rat", rs.X1Rat}, {"x2rat", rs.X2Rat}, {"x3rat", rs.X3Rat}} {
		if r.rat < 0.9 || r.rat > 1.1 {
			return fmt.Errorf("ratio of cell sizes must be 0.9 <= %s <= 1.1, %s=%g", r.name, r.name, r.rat)
		}
	}
	return nil
}

// meshGenerator maps a logical coordinate rx in [0,1] to a physical
// coordinate, applying the geometric cell-size stretching when rat != 1.
func meshGenerator(rx, xmin, xmax, rat float64, nx int64) float64 {
	if rat == 1.0 {
		return xmin + rx*(xmax-xmin)
	}
	// geometric series: cell i has width dx0 * rat^i
	ratn := math.Pow(rat, float64(nx))
	rnx := math.Pow(rat, rx*float64(nx))
	lw := (rnx - ratn) / (1.0 - ratn)
	return xmin*lw + xmax*(1.0-lw)
}

// MeshGeneratorX1 places a cell face at logical position rx along x1.
func (rs *RegionSize) MeshGeneratorX1(rx float64) float64 {
	return meshGenerator(rx, rs.X1Min, rs.X1Max, rs.X1Rat, rs.NX1)
}

// MeshGeneratorX2 places a cell face at logical position rx along x2.
func (rs *RegionSize) MeshGeneratorX2(rx float64) float64 {
	return meshGenerator(rx, rs.X2Min, rs.X2Max, rs.X2Rat, rs.NX2)
}

// MeshGeneratorX3 places a cell face at logical position rx along x3.
func (rs *RegionSize) MeshGeneratorX3(rx float64) float64 {
	return meshGenerator(rx, rs.X3Min, rs.X3Max, rs.X3Rat, rs.NX3)
}
