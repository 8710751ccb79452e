package amr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockUIDRawRoundTrip(t *testing.T) {
	cases := []struct {
		lx1, lx2, lx3 int64
		level         int
	}{
		{0, 0, 0, 0},
		{3, 5, 1, 4},
		{7, 0, 2, 3},
		{31, 17, 9, 6},
	}
	for _, c := range cases {
		u := NewBlockUID(c.lx1, c.lx2, c.lx3, c.level)
		v := UIDFromRaw(u.RawID(), c.level)
		lx1, lx2, lx3, level := v.Location()
		assert.Equal(t, c.lx1, lx1)
		assert.Equal(t, c.lx2, lx2)
		assert.Equal(t, c.lx3, lx3)
		assert.Equal(t, c.level, level)
		assert.Equal(t, 0, u.Compare(v))
	}
}

func TestBlockUIDChildOctant(t *testing.T) {
	parent := NewBlockUID(2, 1, 3, 3)
	for oz := 0; oz < 2; oz++ {
		for oy := 0; oy < 2; oy++ {
			for ox := 0; ox < 2; ox++ {
				child := parent.Child(ox, oy, oz)
				assert.Equal(t, 4, child.Level())
				o1, o2, o3 := child.Octant(4)
				assert.Equal(t, ox, o1)
				assert.Equal(t, oy, o2)
				assert.Equal(t, oz, o3)
			}
		}
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	a := NewBlockUID(1, 0, 0, 2)
	b := NewBlockUID(3, 1, 0, 2)
	assert.Equal(t, -b.Compare(a), a.Compare(b))
	assert.NotEqual(t, 0, a.Compare(b))
}

func TestCreateRootGridLeafCount(t *testing.T) {
	var tree BlockTree
	tree.uid = NewBlockUID(0, 0, 0, 0)
	// 4x2x1 root grid embeds in a level-2 octree with 8 leaves
	tree.CreateRootGrid(4, 2, 1, 2)
	assert.Equal(t, 8, tree.AssignGID())
}

func TestGetIDListDepthFirstOrder(t *testing.T) {
	var tree BlockTree
	tree.uid = NewBlockUID(0, 0, 0, 0)
	tree.CreateRootGrid(2, 2, 1, 1)
	tree.Refine(NewBlockUID(0, 0, 0, 2), true, false)
	n := tree.AssignGID()
	assert.Equal(t, 7, n)
	list := make([]BlockUID, n)
	tree.GetIDList(list)
	for i := 1; i < n; i++ {
		assert.Equal(t, -1, list[i-1].Compare(list[i]),
			"id list not in tree order at %d", i)
	}
}

func TestFindNeighborSameLevel(t *testing.T) {
	var tree BlockTree
	tree.uid = NewBlockUID(0, 0, 0, 0)
	tree.CreateRootGrid(4, 4, 1, 2)
	n := tree.AssignGID()
	list := make([]BlockUID, n)
	tree.GetIDList(list)

	for _, uid := range list {
		for dir := InnerX1; dir <= OuterX2; dir++ {
			nb := tree.FindNeighbor(dir, uid, 4, 4, 1, 2)
			assert.NotNil(t, nb)
			assert.True(t, nb.Leaf())
			// the neighbor search is symmetric on a uniform grid
			back := tree.FindNeighbor(opposite(dir), nb.uid, 4, 4, 1, 2)
			assert.NotNil(t, back)
			assert.Equal(t, 0, uid.Compare(back.uid))
		}
	}
}

func TestFindNeighborPeriodicWrap(t *testing.T) {
	var tree BlockTree
	tree.uid = NewBlockUID(0, 0, 0, 0)
	tree.CreateRootGrid(4, 1, 1, 2)
	tree.AssignGID()

	left := NewBlockUID(0, 0, 0, 2)
	nb := tree.FindNeighbor(InnerX1, left, 4, 1, 1, 2)
	assert.NotNil(t, nb)
	lx1, _, _, _ := nb.uid.Location()
	assert.Equal(t, int64(3), lx1)
}

func TestFindNeighborAcrossLevelJump(t *testing.T) {
	var tree BlockTree
	tree.uid = NewBlockUID(0, 0, 0, 0)
	tree.CreateRootGrid(2, 1, 1, 1)
	tree.Refine(NewBlockUID(0, 0, 0, 2), false, false)
	tree.AssignGID()

	// from a fine block the outer neighbor is the coarse leaf
	fine := NewBlockUID(1, 0, 0, 2)
	nb := tree.FindNeighbor(OuterX1, fine, 2, 1, 1, 1)
	assert.NotNil(t, nb)
	assert.True(t, nb.Leaf())
	assert.Equal(t, 1, nb.uid.Level())

	// from the coarse block the inner neighbor is an internal node whose
	// face-adjacent children are the fine leaves
	coarse := NewBlockUID(1, 0, 0, 1)
	nb = tree.FindNeighbor(InnerX1, coarse, 2, 1, 1, 1)
	assert.NotNil(t, nb)
	assert.False(t, nb.Leaf())
	leaf := nb.GetLeaf(1, 0, 0)
	assert.NotNil(t, leaf)
	assert.True(t, leaf.Leaf())
	assert.Equal(t, 2, leaf.uid.Level())
}
