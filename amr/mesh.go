package amr

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/notargets/gamr/InputParameters"
	"github.com/notargets/gamr/utils"
)

// ProblemGenerator seeds the initial condition of one block. It fills
// the primitive arrays; the mesh converts to conserved variables before
// the first exchange.
type ProblemGenerator func(mb *MeshBlock, pin *InputParameters.ParameterInput)

// Mesh is the root object of a run: the octree block index, the block
// distribution over ranks, the locally owned blocks and the global time
// state.
type Mesh struct {
	ctx *RunContext

	MeshSize RegionSize
	BCFlags  [NFaces]int

	NRBX1, NRBX2, NRBX3 int64
	RootLevel, MaxLevel int
	NDim                int
	Multilevel          bool

	Tree    BlockTree
	NBTotal int

	LocList  []BlockUID
	Costlist []float64
	Ranklist []int
	Nslist   []int
	Nblist   []int

	Blocks []*MeshBlock // blocks owned by this rank, in LID order

	Time, DT, TLim float64
	CFL            float64
	NCycle, NLim   int
}

// boundaryFlag translates a deck string into a boundary condition code.
func boundaryFlag(s string) (int, error) {
	switch s {
	case "none":
		return BCNone, nil
	case "reflecting":
		return BCReflect, nil
	case "outflow":
		return BCOutflow, nil
	case "polar_wedge":
		return BCPolarWedge, nil
	case "periodic":
		return BCPeriodic, nil
	}
	return 0, fmt.Errorf("unrecognized boundary condition flag %q", s)
}

// NewMesh builds the mesh of a fresh run from the input deck: validates
// the grid, decomposes it into blocks, distributes them over ranks and
// constructs the locally owned blocks with wired neighbor tables.
func NewMesh(pin *InputParameters.ParameterInput, ctx *RunContext) (*Mesh, error) {
	m := &Mesh{ctx: ctx}

	ms := &m.MeshSize
	ms.NX1 = int64(pin.GetInteger("mesh", "nx1"))
	ms.NX2 = int64(pin.GetOrAddInteger("mesh", "nx2", 1))
	ms.NX3 = int64(pin.GetOrAddInteger("mesh", "nx3", 1))
	ms.X1Min = pin.GetReal("mesh", "x1min")
	ms.X1Max = pin.GetReal("mesh", "x1max")
	ms.X2Min = pin.GetOrAddReal("mesh", "x2min", 0)
	ms.X2Max = pin.GetOrAddReal("mesh", "x2max", 1)
	ms.X3Min = pin.GetOrAddReal("mesh", "x3min", 0)
	ms.X3Max = pin.GetOrAddReal("mesh", "x3max", 1)
	ms.X1Rat = pin.GetOrAddReal("mesh", "x1rat", 1.0)
	ms.X2Rat = pin.GetOrAddReal("mesh", "x2rat", 1.0)
	ms.X3Rat = pin.GetOrAddReal("mesh", "x3rat", 1.0)
	if err := ms.Validate(); err != nil {
		return nil, err
	}

	m.NDim = 1
	if ms.NX2 > 1 {
		m.NDim = 2
	}
	if ms.NX3 > 1 {
		m.NDim = 3
	}

	for dir, name := range [NFaces]string{"ix1_bc", "ox1_bc", "ix2_bc", "ox2_bc", "ix3_bc", "ox3_bc"} {
		flag, err := boundaryFlag(pin.GetOrAddString("mesh", name, "periodic"))
		if err != nil {
			return nil, err
		}
		m.BCFlags[dir] = flag
	}
	for a := 0; a < 3; a++ {
		in, out := m.BCFlags[2*a], m.BCFlags[2*a+1]
		if (in == BCPeriodic) != (out == BCPeriodic) {
			return nil, fmt.Errorf("periodic boundaries must be set on both sides of axis x%d", a+1)
		}
	}

	m.Time = pin.GetOrAddReal("time", "start_time", 0.0)
	m.TLim = pin.GetReal("time", "tlim")
	m.NLim = pin.GetOrAddInteger("time", "nlim", -1)
	m.CFL = pin.GetOrAddReal("time", "cfl_number", 0.3)
	if m.NDim == 1 && m.CFL > 1.0 {
		return nil, fmt.Errorf("the CFL number must be smaller than 1.0 in 1D, but cfl_number=%g", m.CFL)
	}
	if m.NDim > 1 && m.CFL > 0.5 {
		return nil, fmt.Errorf("the CFL number must be smaller than 0.5 in 2D/3D, but cfl_number=%g", m.CFL)
	}
	m.DT = math.MaxFloat64

	blockSize := *ms
	blockSize.NX1 = int64(pin.GetOrAddInteger("meshblock", "nx1", int(ms.NX1)))
	if m.NDim >= 2 {
		blockSize.NX2 = int64(pin.GetOrAddInteger("meshblock", "nx2", int(ms.NX2)))
	}
	if m.NDim >= 3 {
		blockSize.NX3 = int64(pin.GetOrAddInteger("meshblock", "nx3", int(ms.NX3)))
	}
	if ms.NX1%blockSize.NX1 != 0 || ms.NX2%blockSize.NX2 != 0 || ms.NX3%blockSize.NX3 != 0 {
		return nil, fmt.Errorf("the Mesh must be evenly divisible by the MeshBlock")
	}
	if blockSize.NX1 < 4 && ms.NX1 > 1 {
		return nil, fmt.Errorf("block_size must be larger than or equal to 4 cells")
	}

	m.NRBX1 = ms.NX1 / blockSize.NX1
	m.NRBX2 = ms.NX2 / blockSize.NX2
	m.NRBX3 = ms.NX3 / blockSize.NX3
	nbmax := m.NRBX1
	if m.NRBX2 > nbmax {
		nbmax = m.NRBX2
	}
	if m.NRBX3 > nbmax {
		nbmax = m.NRBX3
	}
	for m.RootLevel = 0; (int64(1) << uint(m.RootLevel)) < nbmax; m.RootLevel++ {
	}
	fmt.Printf("RootGrid = %d x %d x %d MeshBlocks\n", m.NRBX1, m.NRBX2, m.NRBX3)

	nlevel := pin.GetOrAddInteger("mesh", "numlevel", 1)
	m.Multilevel = nlevel > 1
	m.MaxLevel = nlevel - 1 + m.RootLevel

	m.Tree.uid = NewBlockUID(0, 0, 0, 0)
	m.Tree.CreateRootGrid(m.NRBX1, m.NRBX2, m.NRBX3, m.RootLevel)
	if err := m.applyStaticRefinement(pin, blockSize); err != nil {
		return nil, err
	}

	m.NBTotal = m.Tree.AssignGID()
	m.LocList = make([]BlockUID, m.NBTotal)
	m.Tree.GetIDList(m.LocList)
	m.Costlist = make([]float64, m.NBTotal)
	for i := range m.Costlist {
		m.Costlist[i] = 1.0
	}

	var err error
	m.Ranklist, m.Nslist, m.Nblist, err = LoadBalance(m.Costlist, ctx.NProc)
	if err != nil {
		return nil, err
	}

	if err := m.buildLocalBlocks(pin, blockSize); err != nil {
		return nil, err
	}
	return m, nil
}

// applyStaticRefinement splits the tree inside every refinementN region
// of the deck down to the requested level.
func (m *Mesh) applyStaticRefinement(pin *InputParameters.ParameterInput, blockSize RegionSize) error {
	for n := 1; ; n++ {
		sec := fmt.Sprintf("refinement%d", n)
		if !pin.DoesParameterExist(sec, "level") {
			break
		}
		level := pin.GetInteger(sec, "level") + m.RootLevel
		if level > m.MaxLevel {
			return fmt.Errorf("refinement level %d exceeds the maximum level %d",
				level-m.RootLevel, m.MaxLevel-m.RootLevel)
		}
		reg := RegionSize{
			X1Min: pin.GetReal(sec, "x1min"), X1Max: pin.GetReal(sec, "x1max"),
			X2Min: pin.GetOrAddReal(sec, "x2min", m.MeshSize.X2Min),
			X2Max: pin.GetOrAddReal(sec, "x2max", m.MeshSize.X2Max),
			X3Min: pin.GetOrAddReal(sec, "x3min", m.MeshSize.X3Min),
			X3Max: pin.GetOrAddReal(sec, "x3max", m.MeshSize.X3Max),
		}
		m.refineRegion(reg, level)
	}
	return nil
}

// refineRegion refines every block whose extent overlaps the region to
// the given absolute tree level.
func (m *Mesh) refineRegion(reg RegionSize, level int) {
	fac := int64(1) << uint(level-m.RootLevel)
	n1, n2, n3 := m.NRBX1*fac, int64(1), int64(1)
	if m.NDim >= 2 {
		n2 = m.NRBX2 * fac
	}
	if m.NDim >= 3 {
		n3 = m.NRBX3 * fac
	}
	ms := &m.MeshSize
	for lx3 := int64(0); lx3 < n3; lx3++ {
		for lx2 := int64(0); lx2 < n2; lx2++ {
			for lx1 := int64(0); lx1 < n1; lx1++ {
				if ms.MeshGeneratorX1(float64(lx1+1)/float64(n1)) <= reg.X1Min ||
					ms.MeshGeneratorX1(float64(lx1)/float64(n1)) >= reg.X1Max {
					continue
				}
				if m.NDim >= 2 &&
					(ms.MeshGeneratorX2(float64(lx2+1)/float64(n2)) <= reg.X2Min ||
						ms.MeshGeneratorX2(float64(lx2)/float64(n2)) >= reg.X2Max) {
					continue
				}
				if m.NDim >= 3 &&
					(ms.MeshGeneratorX3(float64(lx3+1)/float64(n3)) <= reg.X3Min ||
						ms.MeshGeneratorX3(float64(lx3)/float64(n3)) >= reg.X3Max) {
					continue
				}
				m.Tree.Refine(NewBlockUID(lx1, lx2, lx3, level), m.NDim >= 2, m.NDim >= 3)
			}
		}
	}
}

// levelExtent returns the block-grid dimensions at one tree level.
// Collapsed axes never refine, so their extent stays 1.
func (m *Mesh) levelExtent(level int) (n1, n2, n3 int64) {
	fac := int64(1) << uint(level-m.RootLevel)
	n1, n2, n3 = m.NRBX1*fac, int64(1), int64(1)
	if m.NDim >= 2 {
		n2 = m.NRBX2 * fac
	}
	if m.NDim >= 3 {
		n3 = m.NRBX3 * fac
	}
	return
}

// blockRegion computes the physical extent and boundary codes of the
// block at one tree location. Faces interior to the domain get BCNone;
// the exchange protocol covers them.
func (m *Mesh) blockRegion(uid BlockUID, blockSize RegionSize) (RegionSize, [NFaces]int) {
	lx1, lx2, lx3, ll := uid.Location()
	n1, n2, n3 := m.levelExtent(ll)
	ms := &m.MeshSize

	bs := blockSize
	var bcs [NFaces]int

	bs.X1Min = ms.MeshGeneratorX1(float64(lx1) / float64(n1))
	bs.X1Max = ms.MeshGeneratorX1(float64(lx1+1) / float64(n1))
	bs.X2Min = ms.MeshGeneratorX2(float64(lx2) / float64(n2))
	bs.X2Max = ms.MeshGeneratorX2(float64(lx2+1) / float64(n2))
	bs.X3Min = ms.MeshGeneratorX3(float64(lx3) / float64(n3))
	bs.X3Max = ms.MeshGeneratorX3(float64(lx3+1) / float64(n3))

	edges := [NFaces]bool{
		lx1 == 0, lx1 == n1-1,
		lx2 == 0, lx2 == n2-1,
		lx3 == 0, lx3 == n3-1,
	}
	for dir := 0; dir < NFaces; dir++ {
		if edges[dir] {
			bcs[dir] = m.BCFlags[dir]
		} else {
			bcs[dir] = BCInternal
		}
	}
	return bs, bcs
}

// buildLocalBlocks creates the blocks assigned to this rank and wires
// their neighbor tables from the tree.
func (m *Mesh) buildLocalBlocks(pin *InputParameters.ParameterInput, blockSize RegionSize) error {
	rank := m.ctx.Rank
	m.Blocks = m.Blocks[:0]
	for gid := m.Nslist[rank]; gid < m.Nslist[rank]+m.Nblist[rank]; gid++ {
		bs, bcs := m.blockRegion(m.LocList[gid], blockSize)
		mb := NewMeshBlock(gid, gid-m.Nslist[rank], m.LocList[gid], bs, bcs, m, pin)
		m.Blocks = append(m.Blocks, mb)
	}
	for _, mb := range m.Blocks {
		if err := m.wireNeighbors(mb); err != nil {
			return err
		}
		mb.BVals.AllocateBuffers()
	}
	return nil
}

// wireNeighbors resolves every face of one block against the tree and
// fills its neighbor table.
func (m *Mesh) wireNeighbors(mb *MeshBlock) error {
	lx1, lx2, lx3, ll := mb.UID.Location()
	n1, n2, n3 := m.levelExtent(ll)

	edges := [NFaces]bool{
		lx1 == 0, lx1 == n1-1,
		lx2 == 0, lx2 == n2-1,
		lx3 == 0, lx3 == n3-1,
	}
	active := [NFaces]bool{
		true, true,
		m.NDim >= 2, m.NDim >= 2,
		m.NDim >= 3, m.NDim >= 3,
	}

	for dir := 0; dir < NFaces; dir++ {
		mb.ClearNeighbor(dir)
		if !active[dir] {
			continue
		}
		if edges[dir] && m.BCFlags[dir] != BCPeriodic {
			continue // physical boundary
		}
		node := m.Tree.FindNeighbor(dir, mb.UID, m.NRBX1, m.NRBX2, m.NRBX3, m.RootLevel)
		if node == nil {
			return fmt.Errorf("block %d face %d: the neighbor search failed, the mesh structure is broken", mb.GID, dir)
		}
		if node.Leaf() {
			nb := node.GetNeighbor()
			mb.SetNeighbor(dir, m.Ranklist[nb.GID], nb.Level, nb.GID, nb.GID-m.Nslist[m.Ranklist[nb.GID]], 0, 0)
			continue
		}
		// finer neighbors: enumerate the children adjacent to the shared face
		for f2 := 0; f2 < 2; f2++ {
			for f1 := 0; f1 < 2; f1++ {
				var leaf *BlockTree
				switch dir {
				case InnerX1:
					leaf = node.GetLeaf(1, f1, f2)
				case OuterX1:
					leaf = node.GetLeaf(0, f1, f2)
				case InnerX2:
					leaf = node.GetLeaf(f1, 1, f2)
				case OuterX2:
					leaf = node.GetLeaf(f1, 0, f2)
				case InnerX3:
					leaf = node.GetLeaf(f1, f2, 1)
				case OuterX3:
					leaf = node.GetLeaf(f1, f2, 0)
				}
				if leaf == nil {
					continue
				}
				nb := leaf.GetNeighbor()
				mb.SetNeighbor(dir, m.Ranklist[nb.GID], nb.Level, nb.GID, nb.GID-m.Nslist[m.Ranklist[nb.GID]], f1, f2)
			}
		}
	}
	return nil
}

// BlockByLID returns a locally owned block.
func (m *Mesh) BlockByLID(lid int) *MeshBlock {
	return m.Blocks[lid]
}

// MeshTest prints the block distribution without running anything.
func (m *Mesh) MeshTest() {
	fmt.Printf("Number of Trees = %d\n", m.NRBX1*m.NRBX2*m.NRBX3)
	fmt.Printf("Number of MeshBlocks = %d\n", m.NBTotal)
	totalCost := 0.0
	for rank := 0; rank < m.ctx.NProc; rank++ {
		cost := 0.0
		for gid := m.Nslist[rank]; gid < m.Nslist[rank]+m.Nblist[rank]; gid++ {
			cost += m.Costlist[gid]
		}
		totalCost += cost
		fmt.Printf("Rank = %d: %d MeshBlocks, cost = %g\n", rank, m.Nblist[rank], cost)
	}
	fmt.Printf("Load Balance: average cost per rank = %g\n", totalCost/float64(m.ctx.NProc))
	for gid := 0; gid < m.NBTotal; gid++ {
		lx1, lx2, lx3, ll := m.LocList[gid].Location()
		fmt.Printf("MeshBlock %d: rank = %d, lx1 = %d, lx2 = %d, lx3 = %d, level = %d\n",
			gid, m.Ranklist[gid], lx1, lx2, lx3, ll)
	}
}

// Initialize seeds the problem on every local block and performs the
// staged first ghost-zone exchange, one axis at a time so that edge and
// corner information propagates through the face-only protocol.
func (m *Mesh) Initialize(pgen ProblemGenerator, pin *InputParameters.ParameterInput) error {
	for _, mb := range m.Blocks {
		pgen(mb, pin)
		mb.Hydro.PrimitiveToConserved()
		if err := mb.BVals.CheckBoundary(); err != nil {
			return err
		}
	}
	for _, mb := range m.Blocks {
		mb.BVals.StartReceivingAll()
	}
	for axis := 0; axis < m.NDim; axis++ {
		inner, outer := 2*axis, 2*axis+1
		for _, mb := range m.Blocks {
			mb.BVals.SendAll(inner)
			mb.BVals.SendAll(outer)
		}
		for _, mb := range m.Blocks {
			for vi := range mb.BVals.vars {
				mb.BVals.ReceiveWithWait(vi, inner)
				mb.BVals.ReceiveWithWait(vi, outer)
			}
		}
	}
	for _, mb := range m.Blocks {
		mb.BVals.ClearBoundaryForInit()
	}
	// primitive recovery and timestep limits are block local, spread
	// them over workers
	nw := runtime.NumCPU()
	if nw > len(m.Blocks) {
		nw = len(m.Blocks)
	}
	if nw < 1 {
		nw = 1
	}
	pm := utils.NewPartitionMap(nw, len(m.Blocks))
	var wg sync.WaitGroup
	for n := 0; n < nw; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			lo, hi := pm.GetBucketRange(n)
			for _, mb := range m.Blocks[lo:hi] {
				if mb.ctx.MHD {
					mb.Field.CellCenteredField()
				}
				mb.Hydro.ConservedToPrimitive()
				mb.Hydro.NewBlockTimeStep()
			}
		}(n)
	}
	wg.Wait()
	m.NewTimeStep()
	return nil
}

// SetTaskList installs the cycle's task list on every local block.
func (m *Mesh) SetTaskList(tl *TaskList) {
	for _, mb := range m.Blocks {
		mb.SetTaskList(tl)
	}
}

// UpdateOneStep advances every local block by one cycle, interleaving
// their tasks so no block waits on a neighbor longer than necessary.
func (m *Mesh) UpdateOneStep() {
	for _, mb := range m.Blocks {
		mb.ResetTaskState()
		mb.BVals.StartReceivingAll()
		mb.BVals.StartReceivingFluxCorrection()
	}
	for {
		remaining := 0
		for _, mb := range m.Blocks {
			if mb.ntodo == 0 {
				continue
			}
			mb.DoOneTask()
			if mb.ntodo > 0 {
				remaining++
			}
		}
		if remaining == 0 {
			break
		}
	}
	m.Time += m.DT
	m.NCycle++
	m.NewTimeStep()
}

// NewTimeStep reduces the per-block stability limits into the global
// timestep, limited to at most doubling per cycle.
func (m *Mesh) NewTimeStep() {
	minDt := math.MaxFloat64
	for _, mb := range m.Blocks {
		if mb.NewBlockDt < minDt {
			minDt = mb.NewBlockDt
		}
	}
	if m.ctx.Comm != nil && m.ctx.NProc > 1 {
		minDt = m.reduceMin(minDt)
	}
	dt := m.CFL * minDt
	if m.DT < math.MaxFloat64 && 2.0*m.DT < dt {
		dt = 2.0 * m.DT
	}
	if m.Time+dt > m.TLim {
		dt = m.TLim - m.Time
	}
	m.DT = dt
}

// reduceMin is an all-reduce over ranks: everyone sends its local
// minimum to everyone and takes the smallest value received.
func (m *Mesh) reduceMin(v float64) float64 {
	ctx := m.ctx
	const reduceTag = -1
	for rank := 0; rank < ctx.NProc; rank++ {
		if rank != ctx.Rank {
			ctx.Comm.Send(rank, reduceTag-ctx.Rank, []float64{v})
		}
	}
	for rank := 0; rank < ctx.NProc; rank++ {
		if rank == ctx.Rank {
			continue
		}
		data := ctx.Comm.Receive(ctx.Rank, reduceTag-rank)
		if data[0] < v {
			v = data[0]
		}
	}
	return v
}

// GetTotalCells counts the active cells on this rank.
func (m *Mesh) GetTotalCells() int64 {
	var total int64
	for _, mb := range m.Blocks {
		total += mb.BlockSize.NX1 * mb.BlockSize.NX2 * mb.BlockSize.NX3
	}
	return total
}
