package amr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/fluid"
)

const deckTwoLevel = `
mesh:
  nx1: 16
  x1min: 0.0
  x1max: 1.0
  numlevel: 2
meshblock:
  nx1: 8
refinement1:
  level: 1
  x1min: 0.0
  x1max: 0.45
time:
  tlim: 1.0
fluid:
  gamma: 1.4
`

func blockAt(t *testing.T, m *Mesh, lx1 int64, level int) *MeshBlock {
	t.Helper()
	for _, mb := range m.Blocks {
		bx1, _, _, bl := mb.UID.Location()
		if bx1 == lx1 && bl == level {
			return mb
		}
	}
	t.Fatalf("no local block at lx1=%d level=%d", lx1, level)
	return nil
}

func TestSameLevelExchange1D(t *testing.T) {
	pin := parseDeck(t, deck1D)
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(gradientGen, pin))

	b0, b1 := m.Blocks[0], m.Blocks[1]
	u0, u1 := b0.Hydro.U, b1.Hydro.U
	k, j := b0.KS, b0.JS
	for n := 0; n < b0.Hydro.NWave; n++ {
		// interior face: inner ghosts of b1 mirror the outer edge of b0
		assert.Equal(t, u0.At(n, k, j, b0.IE-1), u1.At(n, k, j, b1.IS-2))
		assert.Equal(t, u0.At(n, k, j, b0.IE), u1.At(n, k, j, b1.IS-1))
		assert.Equal(t, u1.At(n, k, j, b1.IS), u0.At(n, k, j, b0.IE+1))
		assert.Equal(t, u1.At(n, k, j, b1.IS+1), u0.At(n, k, j, b0.IE+2))
		// periodic wrap: the domain edges see each other
		assert.Equal(t, u1.At(n, k, j, b1.IE-1), u0.At(n, k, j, b0.IS-2))
		assert.Equal(t, u1.At(n, k, j, b1.IE), u0.At(n, k, j, b0.IS-1))
		assert.Equal(t, u0.At(n, k, j, b0.IS), u1.At(n, k, j, b1.IE+1))
		assert.Equal(t, u0.At(n, k, j, b0.IS+1), u1.At(n, k, j, b1.IE+2))
	}
}

func TestSameLevelExchange2D(t *testing.T) {
	pin := parseDeck(t, `
mesh:
  nx1: 8
  nx2: 8
  x1min: 0.0
  x1max: 1.0
  x2min: 0.0
  x2max: 1.0
meshblock:
  nx1: 4
  nx2: 4
time:
  tlim: 1.0
fluid:
  gamma: 1.4
`)
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(gradientGen, pin))
	require.Len(t, m.Blocks, 4)

	b00 := blockAt(t, m, 0, 1)
	k := b00.KS
	var b10, b01 *MeshBlock
	for _, mb := range m.Blocks {
		lx1, lx2, _, _ := mb.UID.Location()
		switch {
		case lx1 == 1 && lx2 == 0:
			b10 = mb
		case lx1 == 0 && lx2 == 1:
			b01 = mb
		}
	}
	require.NotNil(t, b10)
	require.NotNil(t, b01)

	for n := 0; n < b00.Hydro.NWave; n++ {
		// x1 face rows
		for j := b00.JS; j <= b00.JE; j++ {
			assert.Equal(t, b10.Hydro.U.At(n, k, j, b10.IS), b00.Hydro.U.At(n, k, j, b00.IE+1))
			assert.Equal(t, b10.Hydro.U.At(n, k, j, b10.IS+1), b00.Hydro.U.At(n, k, j, b00.IE+2))
		}
		// x2 face rows
		for i := b00.IS; i <= b00.IE; i++ {
			assert.Equal(t, b01.Hydro.U.At(n, k, b01.JS, i), b00.Hydro.U.At(n, k, b00.JE+1, i))
			assert.Equal(t, b01.Hydro.U.At(n, k, b01.JS+1, i), b00.Hydro.U.At(n, k, b00.JE+2, i))
		}
	}
}

func TestCrossLevelExchange1D(t *testing.T) {
	pin := parseDeck(t, deckTwoLevel)
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	require.Len(t, m.Blocks, 3)
	require.NoError(t, m.Initialize(gradientGen, pin))

	fine0 := blockAt(t, m, 0, 2)
	fine1 := blockAt(t, m, 1, 2)
	coarse := blockAt(t, m, 1, 1)
	k, j := coarse.KS, coarse.JS

	uc := coarse.Hydro.U
	uf0 := fine0.Hydro.U
	uf1 := fine1.Hydro.U
	for n := 0; n < coarse.Hydro.NWave; n++ {
		// coarse inner ghosts are pairwise averages of the fine edge cells
		assert.InDelta(t, 0.5*(uf1.At(n, k, j, fine1.IE-3)+uf1.At(n, k, j, fine1.IE-2)),
			uc.At(n, k, j, coarse.IS-2), 1.0e-14)
		assert.InDelta(t, 0.5*(uf1.At(n, k, j, fine1.IE-1)+uf1.At(n, k, j, fine1.IE)),
			uc.At(n, k, j, coarse.IS-1), 1.0e-14)
		// fine outer ghosts hold the overlying coarse cell value
		assert.Equal(t, uc.At(n, k, j, coarse.IS), uf1.At(n, k, j, fine1.IE+1))
		assert.Equal(t, uc.At(n, k, j, coarse.IS), uf1.At(n, k, j, fine1.IE+2))
		// the periodic wrap is a level jump too
		assert.InDelta(t, 0.5*(uf0.At(n, k, j, fine0.IS)+uf0.At(n, k, j, fine0.IS+1)),
			uc.At(n, k, j, coarse.IE+1), 1.0e-14)
		assert.InDelta(t, 0.5*(uf0.At(n, k, j, fine0.IS+2)+uf0.At(n, k, j, fine0.IS+3)),
			uc.At(n, k, j, coarse.IE+2), 1.0e-14)
		assert.Equal(t, uc.At(n, k, j, coarse.IE), uf0.At(n, k, j, fine0.IS-1))
		assert.Equal(t, uc.At(n, k, j, coarse.IE), uf0.At(n, k, j, fine0.IS-2))
	}
}

func TestCheckBoundaryRejectsDoubleJump(t *testing.T) {
	pin := parseDeck(t, deck1D)
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	mb := m.Blocks[0]
	mb.SetNeighbor(OuterX1, 0, mb.Level()+2, 1, 1, 0, 0)
	assert.Error(t, mb.BVals.CheckBoundary())
}

func TestReflectingBoundary1D(t *testing.T) {
	pin := parseDeck(t, `
mesh:
  nx1: 8
  x1min: 0.0
  x1max: 1.0
  ix1_bc: reflecting
  ox1_bc: reflecting
time:
  tlim: 1.0
fluid:
  gamma: 1.4
`)
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(gradientGen, pin))

	mb := m.Blocks[0]
	u := mb.Hydro.U
	k, j := mb.KS, mb.JS
	for d := 0; d < 2; d++ {
		// density mirrors, normal momentum flips sign
		assert.Equal(t, u.At(fluid.IDN, k, j, mb.IS+d), u.At(fluid.IDN, k, j, mb.IS-1-d))
		assert.Equal(t, -u.At(fluid.IVX, k, j, mb.IS+d), u.At(fluid.IVX, k, j, mb.IS-1-d))
		assert.Equal(t, u.At(fluid.IEN, k, j, mb.IS+d), u.At(fluid.IEN, k, j, mb.IS-1-d))
		assert.Equal(t, u.At(fluid.IDN, k, j, mb.IE-d), u.At(fluid.IDN, k, j, mb.IE+1+d))
		assert.Equal(t, -u.At(fluid.IVX, k, j, mb.IE-d), u.At(fluid.IVX, k, j, mb.IE+1+d))
	}
}

func TestOutflowBoundary1D(t *testing.T) {
	pin := parseDeck(t, `
mesh:
  nx1: 8
  x1min: 0.0
  x1max: 1.0
  ix1_bc: outflow
  ox1_bc: outflow
time:
  tlim: 1.0
fluid:
  gamma: 1.4
`)
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(gradientGen, pin))

	mb := m.Blocks[0]
	u := mb.Hydro.U
	k, j := mb.KS, mb.JS
	for n := 0; n < mb.Hydro.NWave; n++ {
		for d := 1; d <= 2; d++ {
			assert.Equal(t, u.At(n, k, j, mb.IS), u.At(n, k, j, mb.IS-d))
			assert.Equal(t, u.At(n, k, j, mb.IE), u.At(n, k, j, mb.IE+d))
		}
	}
}

func TestUniformStateOneStepAcrossLevels(t *testing.T) {
	ctx := NewSerialContext()
	pin := parseDeck(t, deckTwoLevel)
	m, err := NewMesh(pin, ctx)
	require.NoError(t, err)
	require.NoError(t, m.Initialize(uniformGen(1.0, 0.2, 0.5), pin))
	m.SetTaskList(DefaultTaskList(ctx, m.NDim))

	m.UpdateOneStep()

	// a uniform state is a fixed point even across the refinement jump:
	// the restricted fine fluxes replacing the coarse ones are identical
	for _, mb := range m.Blocks {
		for n := 0; n < mb.Hydro.NWave; n++ {
			for i := mb.IS; i <= mb.IE; i++ {
				assert.InDeltaf(t, 1.0, mb.Hydro.W.At(fluid.IDN, mb.KS, mb.JS, i), 1.0e-10,
					"block %d density drifted at %d", mb.GID, i)
			}
		}
		assert.InDelta(t, 0.2, mb.Hydro.W.At(fluid.IVX, mb.KS, mb.JS, mb.IS), 1.0e-10)
		assert.InDelta(t, 0.5, mb.Hydro.W.At(fluid.IEN, mb.KS, mb.JS, mb.IS), 1.0e-10)
	}
}

// swirlGen carries nonzero transverse velocities so ghost-zone mirroring
// reveals which momentum components change sign at a wall.
func swirlGen(mb *MeshBlock, pin *InputParameters.ParameterInput) {
	w := mb.Hydro.W
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				x := 0.5 * (mb.X1F[i] + mb.X1F[i+1])
				y := 0.5 * (mb.X2F[j] + mb.X2F[j+1])
				w.Set(fluid.IDN, k, j, i, 1.0+0.2*x+0.05*y)
				w.Set(fluid.IVX, k, j, i, 0.1)
				w.Set(fluid.IVY, k, j, i, 0.05+0.02*y)
				w.Set(fluid.IVZ, k, j, i, 0.2+0.1*x)
				w.Set(fluid.IEN, k, j, i, 0.5+0.1*x)
			}
		}
	}
}

func x2WallDeck(bc string) string {
	return fmt.Sprintf(`
mesh:
  nx1: 8
  nx2: 8
  x1min: 0.0
  x1max: 1.0
  x2min: 0.0
  x2max: 1.0
  ix2_bc: %s
  ox2_bc: %s
meshblock:
  nx1: 4
  nx2: 8
time:
  tlim: 1.0
fluid:
  gamma: 1.4
`, bc, bc)
}

func TestPolarWedgeBoundaryFlipsAzimuthal(t *testing.T) {
	pin := parseDeck(t, x2WallDeck("polar_wedge"))
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(swirlGen, pin))

	for _, mb := range m.Blocks {
		u := mb.Hydro.U
		k := mb.KS
		for i := mb.IS; i <= mb.IE; i++ {
			for d := 0; d < 2; d++ {
				// crossing the pole mirrors the cell, flips the meridional
				// momentum like a wall, and also reverses the azimuthal one
				gj, sj := mb.JS-1-d, mb.JS+d
				assert.Equal(t, u.At(fluid.IDN, k, sj, i), u.At(fluid.IDN, k, gj, i))
				assert.Equal(t, u.At(fluid.IVX, k, sj, i), u.At(fluid.IVX, k, gj, i))
				assert.Equal(t, -u.At(fluid.IVY, k, sj, i), u.At(fluid.IVY, k, gj, i))
				assert.Equal(t, -u.At(fluid.IVZ, k, sj, i), u.At(fluid.IVZ, k, gj, i))
				gj, sj = mb.JE+1+d, mb.JE-d
				assert.Equal(t, -u.At(fluid.IVY, k, sj, i), u.At(fluid.IVY, k, gj, i))
				assert.Equal(t, -u.At(fluid.IVZ, k, sj, i), u.At(fluid.IVZ, k, gj, i))
			}
		}
	}
}

func TestReflectingBoundaryKeepsAzimuthal(t *testing.T) {
	pin := parseDeck(t, x2WallDeck("reflecting"))
	m, err := NewMesh(pin, NewSerialContext())
	require.NoError(t, err)
	require.NoError(t, m.Initialize(swirlGen, pin))

	mb := m.Blocks[0]
	u := mb.Hydro.U
	k := mb.KS
	for i := mb.IS; i <= mb.IE; i++ {
		// a plain wall flips only the normal momentum
		assert.Equal(t, -u.At(fluid.IVY, k, mb.JS, i), u.At(fluid.IVY, k, mb.JS-1, i))
		assert.Equal(t, u.At(fluid.IVZ, k, mb.JS, i), u.At(fluid.IVZ, k, mb.JS-1, i))
		assert.Equal(t, u.At(fluid.IVZ, k, mb.JE, i), u.At(fluid.IVZ, k, mb.JE+1, i))
	}
}

func TestPolarWedgeFieldBoundary(t *testing.T) {
	pin := parseDeck(t, x2WallDeck("polar_wedge"))
	ctx := NewSerialContext()
	ctx.MHD = true
	m, err := NewMesh(pin, ctx)
	require.NoError(t, err)

	mb := m.Blocks[0]
	f := mb.Field
	for k := 0; k < mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i <= mb.NCells1; i++ {
				f.B1F.Set(k, j, i, 0.3+0.01*float64(j)+0.002*float64(i))
			}
		}
	}
	for k := 0; k <= mb.NCells3; k++ {
		for j := 0; j < mb.NCells2; j++ {
			for i := 0; i < mb.NCells1; i++ {
				f.B3F.Set(k, j, i, 0.1+0.01*float64(j)+0.001*float64(i))
			}
		}
	}

	fb := NewFieldBoundary(mb)
	fb.ApplyPhysicalBoundary(InnerX2, BCPolarWedge)

	k := mb.KS
	for i := mb.IS; i <= mb.IE; i++ {
		for d := 0; d < 2; d++ {
			// transverse poloidal component stays even, azimuthal goes odd
			assert.Equal(t, f.B1F.At(k, mb.JS+d, i), f.B1F.At(k, mb.JS-1-d, i))
			assert.Equal(t, -f.B3F.At(k, mb.JS+d, i), f.B3F.At(k, mb.JS-1-d, i))
		}
	}
}
