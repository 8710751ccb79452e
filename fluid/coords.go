package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Packed symmetric 4x4 metric component indices
const (
	I00 = iota
	I01
	I02
	I03
	I11
	I12
	I13
	I22
	I23
	I33
	NMetric
)

// Coordinates is the slice of the coordinate-system machinery the Riemann
// solvers consume: the interface metric and the transforms between global
// primitives/fluxes and the locally flat frame used by the HLLC solve.
// dir is 1, 2 or 3 for the x1/x2/x3 face families.
type Coordinates interface {
	FaceMetric(dir, k, j, il, iu int, g, gi [][]float64)
	PrimToLocal(dir, k, j, il, iu int, bb []float64, primL, primR [][]float64, bbNormal []float64)
	FluxToGlobal(dir, k, j, il, iu int, cons [][]float64, bbNormal []float64, flux [][]float64)
}

// ConstantMetric is a coordinate system whose spacetime metric is the same
// at every interface. The inverse is computed once at construction, so any
// constant metric (Minkowski, boosted frames) drops in.
type ConstantMetric struct {
	g, gi [NMetric]float64
}

func NewConstantMetric(g [NMetric]float64) (cm *ConstantMetric, err error) {
	cm = &ConstantMetric{g: g}
	full := mat.NewDense(4, 4, nil)
	for mu := 0; mu < 4; mu++ {
		for nu := 0; nu < 4; nu++ {
			full.Set(mu, nu, g[packedIndex(mu, nu)])
		}
	}
	var inv mat.Dense
	if err = inv.Inverse(full); err != nil {
		return nil, fmt.Errorf("metric is singular: %v", err)
	}
	for mu := 0; mu < 4; mu++ {
		for nu := mu; nu < 4; nu++ {
			cm.gi[packedIndex(mu, nu)] = inv.At(mu, nu)
		}
	}
	return cm, nil
}

// Minkowski returns flat-spacetime Cartesian coordinates.
func Minkowski() *ConstantMetric {
	var eta [NMetric]float64
	eta[I00] = -1.0
	eta[I11] = 1.0
	eta[I22] = 1.0
	eta[I33] = 1.0
	cm, err := NewConstantMetric(eta)
	if err != nil {
		panic(err)
	}
	return cm
}

func packedIndex(mu, nu int) int {
	if mu > nu {
		mu, nu = nu, mu
	}
	// rows of the upper triangle start at 0, 4, 7, 9
	starts := [4]int{0, 4, 7, 9}
	return starts[mu] + (nu - mu)
}

func (cm *ConstantMetric) FaceMetric(dir, k, j, il, iu int, g, gi [][]float64) {
	for n := 0; n < NMetric; n++ {
		for i := il; i <= iu; i++ {
			g[n][i] = cm.g[n]
			gi[n][i] = cm.gi[n]
		}
	}
}

// PrimToLocal maps the global primitives into the locally flat frame. For
// a constant orthonormal metric the frame is the global one, so the only
// work is boosting the 3-velocity primitives to the spatial 4-velocities
// the kernel consumes and forwarding the normal field component.
func (cm *ConstantMetric) PrimToLocal(dir, k, j, il, iu int, bb []float64, primL, primR [][]float64, bbNormal []float64) {
	if bb != nil && bbNormal != nil {
		for i := il; i <= iu; i++ {
			bbNormal[i] = bb[i]
		}
	}
	for _, prim := range [2][][]float64{primL, primR} {
		for i := il; i <= iu; i++ {
			vx, vy, vz := prim[IVX][i], prim[IVY][i], prim[IVZ][i]
			vSq := sq(vx) + sq(vy) + sq(vz)
			if vSq >= 1.0 {
				vSq = 1.0 - tinyNumber
			}
			lorentz := 1.0 / math.Sqrt(1.0-vSq)
			prim[IVX][i] = lorentz * vx
			prim[IVY][i] = lorentz * vy
			prim[IVZ][i] = lorentz * vz
		}
	}
}

// FluxToGlobal is likewise the identity.
func (cm *ConstantMetric) FluxToGlobal(dir, k, j, il, iu int, cons [][]float64, bbNormal []float64, flux [][]float64) {
}
