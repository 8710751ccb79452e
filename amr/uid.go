package amr

// IDLength is the number of raw words a serialized block id occupies in a
// restart file. Three bits per refinement level bounds the supported depth
// at 21 levels per word.
const IDLength = 2

// BlockUID identifies a block by its refinement level and the path of
// octant indices from the root of the tree. It is immutable once assigned
// and totally ordered, with the order matching depth-first tree traversal.
type BlockUID struct {
	level int
	lx1   int64 // logical location at this level, 0 <= lx1 < nrbx1<<(level-rootLevel)
	lx2   int64
	lx3   int64
}

// NewBlockUID builds an id from a logical location and level.
func NewBlockUID(lx1, lx2, lx3 int64, level int) BlockUID {
	return BlockUID{level: level, lx1: lx1, lx2: lx2, lx3: lx3}
}

// Location returns the logical coordinates and level.
func (u BlockUID) Location() (lx1, lx2, lx3 int64, level int) {
	return u.lx1, u.lx2, u.lx3, u.level
}

// Level returns the refinement level.
func (u BlockUID) Level() int { return u.level }

// Octant returns the octant index pair at tree depth d in 1..level: the
// x/y/z bits selecting the child taken when descending from depth d-1.
func (u BlockUID) Octant(d int) (ox1, ox2, ox3 int) {
	shift := uint(u.level - d)
	ox1 = int((u.lx1 >> shift) & 1)
	ox2 = int((u.lx2 >> shift) & 1)
	ox3 = int((u.lx3 >> shift) & 1)
	return
}

// Child returns the id of the child in the given octant, one level finer.
func (u BlockUID) Child(ox1, ox2, ox3 int) BlockUID {
	return BlockUID{
		level: u.level + 1,
		lx1:   u.lx1<<1 | int64(ox1),
		lx2:   u.lx2<<1 | int64(ox2),
		lx3:   u.lx3<<1 | int64(ox3),
	}
}

// Compare orders ids by octant path, ancestors before descendants. The
// result matches depth-first traversal order of the tree.
func (u BlockUID) Compare(v BlockUID) int {
	minLevel := u.level
	if v.level < minLevel {
		minLevel = v.level
	}
	for d := 1; d <= minLevel; d++ {
		uo := u.pathKey(d)
		vo := v.pathKey(d)
		if uo != vo {
			if uo < vo {
				return -1
			}
			return 1
		}
	}
	switch {
	case u.level < v.level:
		return -1
	case u.level > v.level:
		return 1
	}
	return 0
}

func (u BlockUID) pathKey(d int) int {
	ox1, ox2, ox3 := u.Octant(d)
	return ox3<<2 | ox2<<1 | ox1
}

// RawID serializes the octant path into fixed-length words for the
// restart file, three bits per level, most significant first.
func (u BlockUID) RawID() (raw [IDLength]int64) {
	for d := 1; d <= u.level; d++ {
		w := (d - 1) / 21
		raw[w] = raw[w]<<3 | int64(u.pathKey(d))
	}
	// left-justify partial words so ids at different levels stay sortable
	if r := u.level % 21; r != 0 {
		w := u.level / 21
		raw[w] <<= uint(3 * (21 - r))
	}
	return
}

// UIDFromRaw rebuilds an id from its serialized form.
func UIDFromRaw(raw [IDLength]int64, level int) BlockUID {
	u := BlockUID{}
	for d := 1; d <= level; d++ {
		w := (d - 1) / 21
		pos := (d - 1) % 21
		key := int(raw[w]>>uint(3*(20-pos))) & 7
		u = u.Child(key&1, (key>>1)&1, (key>>2)&1)
	}
	return u
}
