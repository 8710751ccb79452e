package amr

import "fmt"

// LoadBalance partitions a cost-weighted block list over nproc ranks,
// keeping tree-traversal order contiguous. The walk runs from the end of
// the list so rank 0 is assigned last and ends up with the smallest
// remainder. Returns the per-block rank list and the per-rank start index
// and block count.
func LoadBalance(costlist []float64, nproc int) (ranklist, nslist, nblist []int, err error) {
	nbtotal := len(costlist)
	if nbtotal < nproc {
		return nil, nil, nil, fmt.Errorf("too few blocks: nbtotal (%d) < nproc (%d)", nbtotal, nproc)
	}
	ranklist = make([]int, nbtotal)
	nslist = make([]int, nproc)
	nblist = make([]int, nproc)

	totalcost := 0.0
	for _, c := range costlist {
		totalcost += c
	}
	// With strongly skewed costs the walk can exhaust the list before
	// reaching rank 0, leaving low ranks without blocks; nslist/nblist
	// then describe only the populated ranks.
	j := nproc - 1
	targetcost := totalcost / float64(nproc)
	mycost := 0.0
	for i := nbtotal - 1; i >= 0; i-- {
		mycost += costlist[i]
		ranklist[i] = j
		if mycost >= targetcost && j > 0 {
			j--
			totalcost -= mycost
			mycost = 0.0
			targetcost = totalcost / float64(j+1)
		}
	}

	nslist[0] = 0
	j = 0
	for i := 1; i < nbtotal; i++ {
		if ranklist[i] != ranklist[i-1] {
			nblist[j] = i - nslist[j]
			j++
			nslist[j] = i
		}
	}
	nblist[j] = nbtotal - nslist[j]
	return ranklist, nslist, nblist, nil
}
