// Package fluid holds the pure per-interface numerics of the solver: the
// relativistic Riemann kernels, the equation-of-state wave-speed calls
// they consume, and the primitive/conserved conversions. Nothing here
// touches mesh state; every function operates on slabs of values for one
// row of interfaces.
package fluid

// Variable indices shared by the primitive and conserved slabs. For the
// conserved state IVX..IVZ address the momentum components.
const (
	IDN = 0
	IVX = 1
	IVY = 2
	IVZ = 3
	IEN = 4
	IBY = 5
	IBZ = 6
)

// Wave counts for the hydro and MHD Riemann fans
const (
	NWaveHydro = 5
	NWaveMHD   = 7
)

const tinyNumber = 1.0e-20

func sq(x float64) float64 { return x * x }

// Cyclic permutation of the velocity indices for an interface with normal
// direction ivx (IVX for x1, IVY for x2, IVZ for x3).
func TransverseIndices(ivx int) (ivy, ivz int) {
	ivy = IVX + ((ivx-IVX)+1)%3
	ivz = IVX + ((ivx-IVX)+2)%3
	return
}
