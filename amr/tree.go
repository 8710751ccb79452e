package amr

// BlockTree is a node of the complete-octree spatial index over the
// blocks. A node either is a leaf owning a block id and global index, or
// has children covering its octants. Non-power-of-two root grids are
// embedded in the minimal enclosing power-of-two octree, with octants
// outside the root grid simply absent.
type BlockTree struct {
	parent   *BlockTree
	children [2][2][2]*BlockTree
	uid      BlockUID
	gid      int
	leaf     bool
}

// NeighborBlock describes one entry of a block's neighbor table: which
// block sits across a face, where it lives, and for a finer neighbor
// which quadrant of the shared face it covers.
type NeighborBlock struct {
	Rank  int
	Level int
	GID   int
	LID   int
	FI1   int // face quadrant indices, meaningful only for finer neighbors
	FI2   int
}

// CreateRootGrid seeds the tree so that every root-level block of the
// nrbx1 x nrbx2 x nrbx3 grid is a leaf at rootLevel.
func (t *BlockTree) CreateRootGrid(nrbx1, nrbx2, nrbx3 int64, rootLevel int) {
	t.leaf = t.uid.Level() == rootLevel
	if t.leaf {
		return
	}
	for oz := 0; oz < 2; oz++ {
		for oy := 0; oy < 2; oy++ {
			for ox := 0; ox < 2; ox++ {
				cuid := t.uid.Child(ox, oy, oz)
				lx1, lx2, lx3, level := cuid.Location()
				// skip octants entirely outside the root grid
				shift := uint(rootLevel - level)
				if lx1<<shift >= nrbx1 || lx2<<shift >= nrbx2 || lx3<<shift >= nrbx3 {
					continue
				}
				child := &BlockTree{parent: t, uid: cuid}
				child.CreateRootGrid(nrbx1, nrbx2, nrbx3, rootLevel)
				t.children[oz][oy][ox] = child
			}
		}
	}
}

// Refine splits the leaf containing uid down to uid's level, creating the
// sibling leaves each split produces. Collapsed axes (dim2/dim3 false)
// are never split; their octants stay absent. Used to build statically
// refined grids before ids are assigned.
func (t *BlockTree) Refine(uid BlockUID, dim2, dim3 bool) {
	node := t
	for d := node.uid.Level() + 1; d <= uid.Level(); d++ {
		if node.leaf {
			node.split(dim2, dim3)
		}
		ox1, ox2, ox3 := uid.Octant(d)
		node = node.children[ox3][ox2][ox1]
	}
}

func (t *BlockTree) split(dim2, dim3 bool) {
	t.leaf = false
	nz, ny := 1, 1
	if dim3 {
		nz = 2
	}
	if dim2 {
		ny = 2
	}
	for oz := 0; oz < nz; oz++ {
		for oy := 0; oy < ny; oy++ {
			for ox := 0; ox < 2; ox++ {
				t.children[oz][oy][ox] = &BlockTree{
					parent: t,
					uid:    t.uid.Child(ox, oy, oz),
					leaf:   true,
				}
			}
		}
	}
}

// AssignGID numbers every leaf in depth-first order and returns the total
// leaf count.
func (t *BlockTree) AssignGID() (nbtotal int) {
	t.assign(&nbtotal)
	return
}

func (t *BlockTree) assign(count *int) {
	if t.leaf {
		t.gid = *count
		*count++
		return
	}
	for oz := 0; oz < 2; oz++ {
		for oy := 0; oy < 2; oy++ {
			for ox := 0; ox < 2; ox++ {
				if c := t.children[oz][oy][ox]; c != nil {
					c.assign(count)
				}
			}
		}
	}
}

// GetIDList collects the leaf ids in global-index order.
func (t *BlockTree) GetIDList(list []BlockUID) {
	if t.leaf {
		list[t.gid] = t.uid
		return
	}
	for oz := 0; oz < 2; oz++ {
		for oy := 0; oy < 2; oy++ {
			for ox := 0; ox < 2; ox++ {
				if c := t.children[oz][oy][ox]; c != nil {
					c.GetIDList(list)
				}
			}
		}
	}
}

// GetNeighbor reports the node's own identity as a neighbor entry; rank
// and local id are filled in by the caller from the distribution lists.
func (t *BlockTree) GetNeighbor() NeighborBlock {
	return NeighborBlock{Rank: -1, Level: t.uid.Level(), GID: t.gid, LID: -1}
}

// GetLeaf returns the child in the given octant. When a finer neighbor
// was found, the caller enumerates the four children adjacent across the
// shared face.
func (t *BlockTree) GetLeaf(ox1, ox2, ox3 int) *BlockTree {
	return t.children[ox3][ox2][ox1]
}

// Leaf reports whether the node is a leaf.
func (t *BlockTree) Leaf() bool { return t.leaf }

// FindNeighbor resolves the block adjacent to uid across the given face
// direction. The returned node is a leaf for a same-level neighbor, a
// shallower leaf for a coarser neighbor, or an internal node when the
// neighbor is more refined. Positions past a domain edge wrap around;
// faces on non-periodic domain edges must be filtered by the caller
// before searching. A nil result means the tree structure is broken.
func (t *BlockTree) FindNeighbor(dir int, uid BlockUID, nrbx1, nrbx2, nrbx3 int64, rootLevel int) *BlockTree {
	lx1, lx2, lx3, level := uid.Location()
	switch dir {
	case InnerX1:
		lx1--
	case OuterX1:
		lx1++
	case InnerX2:
		lx2--
	case OuterX2:
		lx2++
	case InnerX3:
		lx3--
	case OuterX3:
		lx3++
	}
	shift := uint(level - rootLevel)
	n1, n2, n3 := nrbx1<<shift, nrbx2<<shift, nrbx3<<shift
	lx1 = (lx1 + n1) % n1
	lx2 = (lx2 + n2) % n2
	lx3 = (lx3 + n3) % n3
	target := NewBlockUID(lx1, lx2, lx3, level)

	node := t
	for d := 1; d <= level; d++ {
		if node.leaf { // coarser neighbor covers the target region
			return node
		}
		ox1, ox2, ox3 := target.Octant(d)
		node = node.children[ox3][ox2][ox1]
		if node == nil {
			return nil
		}
	}
	return node
}
