package pgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/amr"
	"github.com/notargets/gamr/fluid"
)

const testDeck = `
mesh:
  nx1: 16
  x1min: -0.5
  x1max: 0.5
time:
  tlim: 0.4
fluid:
  gamma: 1.4
problem:
  dl: 10.0
  pl: 13.33
  dr: 1.0
  pr: 0.1
`

func newTestMesh(t *testing.T) (*amr.Mesh, *InputParameters.ParameterInput) {
	t.Helper()
	pin := InputParameters.NewParameterInput()
	require.NoError(t, pin.Parse([]byte(testDeck)))
	m, err := amr.NewMesh(pin, amr.NewSerialContext())
	require.NoError(t, err)
	return m, pin
}

func TestGetKnownGenerators(t *testing.T) {
	for _, name := range []string{"uniform", "blast", "shock_tube"} {
		gen, err := Get(name)
		require.NoError(t, err)
		assert.NotNil(t, gen)
	}
}

func TestGetUnknownGenerator(t *testing.T) {
	_, err := Get("vortex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown problem generator")
}

func TestShockTubeSplitsAtInterface(t *testing.T) {
	m, pin := newTestMesh(t)
	mb := m.Blocks[0]
	ShockTube(mb, pin)

	w := mb.Hydro.W
	k, j := mb.KS, mb.JS
	for i := mb.IS; i <= mb.IE; i++ {
		x := 0.5 * (mb.X1F[i] + mb.X1F[i+1])
		if x > 0 {
			assert.Equal(t, 1.0, w.At(fluid.IDN, k, j, i))
			assert.Equal(t, 0.1, w.At(fluid.IEN, k, j, i))
		} else {
			assert.Equal(t, 10.0, w.At(fluid.IDN, k, j, i))
			assert.Equal(t, 13.33, w.At(fluid.IEN, k, j, i))
		}
	}
}

func TestUniformReadsProblemSection(t *testing.T) {
	m, pin := newTestMesh(t)
	pin.SetReal("problem", "rho", 2.0)
	pin.SetReal("problem", "vx", 0.25)
	mb := m.Blocks[0]
	Uniform(mb, pin)

	w := mb.Hydro.W
	k, j := mb.KS, mb.JS
	for i := mb.IS; i <= mb.IE; i++ {
		assert.Equal(t, 2.0, w.At(fluid.IDN, k, j, i))
		assert.Equal(t, 0.25, w.At(fluid.IVX, k, j, i))
	}
}

func TestBlastOverpressuredCenter(t *testing.T) {
	m, pin := newTestMesh(t)
	mb := m.Blocks[0]
	Blast(mb, pin)

	w := mb.Hydro.W
	k, j := mb.KS, mb.JS
	var inside, outside float64
	for i := mb.IS; i <= mb.IE; i++ {
		x := 0.5 * (mb.X1F[i] + mb.X1F[i+1])
		pgas := w.At(fluid.IEN, k, j, i)
		if x*x < 0.1*0.1 {
			inside = pgas
		} else {
			outside = pgas
		}
	}
	assert.Greater(t, inside, outside)
	assert.InDelta(t, 100.0, inside/outside, 1.0e-12)
}
