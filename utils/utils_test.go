package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankCommSendTryReceive(t *testing.T) {
	rc := NewRankComm(2, 8)
	rc.Send(1, 42, []float64{1.5, 2.5})

	_, ok := rc.TryReceive(1, 7)
	assert.False(t, ok)

	data, ok := rc.TryReceive(1, 42)
	require.True(t, ok)
	assert.Equal(t, []float64{1.5, 2.5}, data)

	// a message is consumed exactly once
	_, ok = rc.TryReceive(1, 42)
	assert.False(t, ok)
}

func TestRankCommCopiesPayload(t *testing.T) {
	rc := NewRankComm(1, 4)
	src := []float64{3.0}
	rc.Send(0, 1, src)
	src[0] = -1.0
	data, ok := rc.TryReceive(0, 1)
	require.True(t, ok)
	assert.Equal(t, 3.0, data[0])
}

func TestRankCommReceiveBlocks(t *testing.T) {
	rc := NewRankComm(2, 4)
	go func() {
		rc.Send(0, 5, []float64{9.0})
	}()
	data := rc.Receive(0, 5)
	assert.Equal(t, []float64{9.0}, data)
}

func TestRankCommOutOfOrderTags(t *testing.T) {
	rc := NewRankComm(2, 8)
	rc.Send(1, 2, []float64{2})
	rc.Send(1, 1, []float64{1})
	// negative tags are valid; the reductions use them
	rc.Send(1, -3, []float64{3})

	data := rc.Receive(1, 1)
	assert.Equal(t, 1.0, data[0])
	data = rc.Receive(1, -3)
	assert.Equal(t, 3.0, data[0])
	data = rc.Receive(1, 2)
	assert.Equal(t, 2.0, data[0])
}

func TestRankCommDiscard(t *testing.T) {
	rc := NewRankComm(1, 4)
	rc.Send(0, 9, []float64{1})
	rc.Discard(0, 9)
	_, ok := rc.TryReceive(0, 9)
	assert.False(t, ok)
}

func TestRankCommSendOutOfBounds(t *testing.T) {
	rc := NewRankComm(2, 4)
	assert.Panics(t, func() { rc.Send(2, 0, nil) })
	assert.Panics(t, func() { rc.Send(-1, 0, nil) })
}

func TestPartitionMapCoversRange(t *testing.T) {
	for _, tc := range [][2]int{{3, 10}, {4, 8}, {5, 17}, {1, 6}} {
		pm := NewPartitionMap(tc[0], tc[1])
		next := 0
		for n := 0; n < tc[0]; n++ {
			kMin, kMax := pm.GetBucketRange(n)
			assert.Equal(t, next, kMin)
			assert.GreaterOrEqual(t, kMax, kMin)
			// bucket sizes differ by at most one
			assert.InDelta(t, float64(tc[1])/float64(tc[0]),
				float64(pm.GetBucketDimension(n)), 1.0)
			next = kMax
		}
		assert.Equal(t, tc[1], next)
	}
}

func TestQuarticRootSolvesPolynomial(t *testing.T) {
	// x^4 + x - 2 has the root x = 1
	root, err := QuarticRoot(1.0, -2.0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, root, 1.0e-10)

	for _, tc := range [][2]float64{{2.5, -0.3}, {1.0e4, -1.0}, {0.2, -5.0}} {
		coef4, tconst := tc[0], tc[1]
		root, err := QuarticRoot(coef4, tconst)
		require.NoError(t, err)
		assert.Greater(t, root, 0.0)
		residual := coef4*root*root*root*root + root + tconst
		assert.InDelta(t, 0.0, residual, 1.0e-8*(1.0-tconst))
	}
}

func TestQuarticRootNoPhysicalRoot(t *testing.T) {
	// a positive constant term leaves no positive root
	_, err := QuarticRoot(1.0, 2.0)
	assert.ErrorIs(t, err, ErrNoRoot)
}
