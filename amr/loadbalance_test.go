package amr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkDistribution(t *testing.T, ranklist, nslist, nblist []int, nbtotal, nproc int) {
	t.Helper()
	require.Len(t, ranklist, nbtotal)
	require.Len(t, nslist, nproc)
	require.Len(t, nblist, nproc)
	// ranks are contiguous and nondecreasing along the block list
	for i := 1; i < nbtotal; i++ {
		assert.GreaterOrEqual(t, ranklist[i], ranklist[i-1])
		assert.LessOrEqual(t, ranklist[i]-ranklist[i-1], 1)
	}
	total := 0
	for rank := 0; rank < nproc; rank++ {
		assert.GreaterOrEqual(t, nblist[rank], 1, "rank %d got no blocks", rank)
		assert.Equal(t, total, nslist[rank])
		for gid := nslist[rank]; gid < nslist[rank]+nblist[rank]; gid++ {
			assert.Equal(t, rank, ranklist[gid])
		}
		total += nblist[rank]
	}
	assert.Equal(t, nbtotal, total)
}

func TestLoadBalanceEqualCosts(t *testing.T) {
	costlist := make([]float64, 10)
	for i := range costlist {
		costlist[i] = 1.0
	}
	ranklist, nslist, nblist, err := LoadBalance(costlist, 3)
	require.NoError(t, err)
	checkDistribution(t, ranklist, nslist, nblist, 10, 3)
	for rank := 0; rank < 3; rank++ {
		assert.InDelta(t, 10.0/3.0, float64(nblist[rank]), 1.0)
	}
}

func TestLoadBalanceSingleRank(t *testing.T) {
	costlist := []float64{1, 1, 1, 1}
	ranklist, nslist, nblist, err := LoadBalance(costlist, 1)
	require.NoError(t, err)
	checkDistribution(t, ranklist, nslist, nblist, 4, 1)
	assert.Equal(t, 4, nblist[0])
}

func TestLoadBalanceWeighted(t *testing.T) {
	// one block carries half the total cost and should sit alone
	costlist := []float64{4, 1, 1, 1, 1}
	ranklist, nslist, nblist, err := LoadBalance(costlist, 2)
	require.NoError(t, err)
	checkDistribution(t, ranklist, nslist, nblist, 5, 2)
	assert.Equal(t, 1, nblist[0])
	assert.Equal(t, 4, nblist[1])
}

func TestLoadBalanceTooFewBlocks(t *testing.T) {
	_, _, _, err := LoadBalance([]float64{1, 1}, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too few blocks")
}
