package amr

import (
	"fmt"

	"github.com/notargets/gamr/InputParameters"
)

// MeshBlock owns one rectangular subdomain: its cell geometry, physics
// state, neighbor table and boundary-value manager, and the task scheduler
// state driving its update.
type MeshBlock struct {
	ctx  *RunContext
	mesh *Mesh

	GID, LID  int
	UID       BlockUID
	Cost      float64
	BlockSize RegionSize
	BCs       [NFaces]int

	// active cell index range; ghost zones lie outside
	IS, IE, JS, JE, KS, KE    int
	NCells1, NCells2, NCells3 int

	// cell face positions (one extra element) and spacings
	X1F, X2F, X3F    []float64
	DX1F, DX2F, DX3F []float64

	Neighbor [NFaces][2][2]NeighborBlock

	Hydro *Hydro
	Field *Field
	Rad   *Radiation

	BVals *BoundaryValues

	NewBlockDt float64

	task      []Task
	ntask     int
	ntodo     int
	firsttask int
	taskFlag  uint64
}

// NewMeshBlock builds a block for a fresh run: geometry from the block's
// physical extent, state arrays zeroed for the problem generator.
func NewMeshBlock(gid, lid int, uid BlockUID, blockSize RegionSize, bcs [NFaces]int,
	m *Mesh, pin *InputParameters.ParameterInput) *MeshBlock {
	mb := &MeshBlock{
		ctx: m.ctx, mesh: m,
		GID: gid, LID: lid, UID: uid,
		Cost: 1.0, BlockSize: blockSize, BCs: bcs,
	}
	mb.setIndices()
	mb.buildGeometry()
	mb.allocateState(pin)
	mb.logCreation()
	return mb
}

func (mb *MeshBlock) setIndices() {
	ng := mb.ctx.NGhost
	mb.IS = ng
	mb.IE = mb.IS + int(mb.BlockSize.NX1) - 1
	if mb.BlockSize.NX2 > 1 {
		mb.JS = ng
		mb.JE = mb.JS + int(mb.BlockSize.NX2) - 1
	} else {
		mb.JS, mb.JE = 0, 0
	}
	if mb.BlockSize.NX3 > 1 {
		mb.KS = ng
		mb.KE = mb.KS + int(mb.BlockSize.NX3) - 1
	} else {
		mb.KS, mb.KE = 0, 0
	}
	mb.NCells1 = int(mb.BlockSize.NX1) + 2*ng
	mb.NCells2, mb.NCells3 = 1, 1
	if mb.BlockSize.NX2 > 1 {
		mb.NCells2 = int(mb.BlockSize.NX2) + 2*ng
	}
	if mb.BlockSize.NX3 > 1 {
		mb.NCells3 = int(mb.BlockSize.NX3) + 2*ng
	}
}

// buildGeometry fills the face position and spacing arrays, stretching
// through the mesh generator when the cell ratio is not 1, and fixes up
// ghost spacings on reflecting faces so mirrored cells mirror exactly.
func (mb *MeshBlock) buildGeometry() {
	ng := mb.ctx.NGhost
	ms := &mb.mesh.MeshSize
	_, _, _, ll := mb.UID.Location()
	levelFac := int64(1) << uint(ll-mb.mesh.RootLevel)

	mb.X1F = make([]float64, mb.NCells1+1)
	mb.X2F = make([]float64, mb.NCells2+1)
	mb.X3F = make([]float64, mb.NCells3+1)
	mb.DX1F = make([]float64, mb.NCells1)
	mb.DX2F = make([]float64, mb.NCells2)
	mb.DX3F = make([]float64, mb.NCells3)

	lx1, lx2, lx3, _ := mb.UID.Location()

	buildAxis(mb.X1F, mb.DX1F, mb.IS, mb.IE, ng,
		mb.BlockSize.X1Min, mb.BlockSize.X1Max, mb.BlockSize.X1Rat,
		lx1, mb.BlockSize.NX1, ms.NX1*levelFac, ms.MeshGeneratorX1)
	fixReflectGhosts(mb.X1F, mb.DX1F, mb.IS, mb.IE, ng,
		mb.BCs[InnerX1] == BCReflect, mb.BCs[OuterX1] == BCReflect)

	if mb.BlockSize.NX2 > 1 {
		buildAxis(mb.X2F, mb.DX2F, mb.JS, mb.JE, ng,
			mb.BlockSize.X2Min, mb.BlockSize.X2Max, mb.BlockSize.X2Rat,
			lx2, mb.BlockSize.NX2, ms.NX2*levelFac, ms.MeshGeneratorX2)
		fixReflectGhosts(mb.X2F, mb.DX2F, mb.JS, mb.JE, ng,
			mb.BCs[InnerX2] == BCReflect || mb.BCs[InnerX2] == BCPolarWedge,
			mb.BCs[OuterX2] == BCReflect || mb.BCs[OuterX2] == BCPolarWedge)
	} else {
		mb.DX2F[mb.JS] = mb.BlockSize.X2Max - mb.BlockSize.X2Min
		mb.X2F[mb.JS] = mb.BlockSize.X2Min
		mb.X2F[mb.JE+1] = mb.BlockSize.X2Max
	}

	if mb.BlockSize.NX3 > 1 {
		buildAxis(mb.X3F, mb.DX3F, mb.KS, mb.KE, ng,
			mb.BlockSize.X3Min, mb.BlockSize.X3Max, mb.BlockSize.X3Rat,
			lx3, mb.BlockSize.NX3, ms.NX3*levelFac, ms.MeshGeneratorX3)
		fixReflectGhosts(mb.X3F, mb.DX3F, mb.KS, mb.KE, ng,
			mb.BCs[InnerX3] == BCReflect, mb.BCs[OuterX3] == BCReflect)
	} else {
		mb.DX3F[mb.KS] = mb.BlockSize.X3Max - mb.BlockSize.X3Min
		mb.X3F[mb.KS] = mb.BlockSize.X3Min
		mb.X3F[mb.KE+1] = mb.BlockSize.X3Max
	}
}

func buildAxis(xf, dxf []float64, s, e, ng int, xmin, xmax, rat float64,
	lx, nx, nrootmesh int64, gen func(float64) float64) {
	if rat == 1.0 {
		dx := (xmax - xmin) / float64(nx)
		for i := s - ng; i <= e+ng; i++ {
			dxf[i] = dx
		}
		xf[s-ng] = xmin - float64(ng)*dx
		for i := s - ng + 1; i <= e+ng+1; i++ {
			xf[i] = xf[i-1] + dx
		}
		xf[s] = xmin
		xf[e+1] = xmax
		return
	}
	for i := s - ng; i <= e+ng+1; i++ {
		// with too many levels this loses precision
		noffset := int64(i-s) + lx*nx
		rx := float64(noffset) / float64(nrootmesh)
		xf[i] = gen(rx)
	}
	xf[s] = xmin
	xf[e+1] = xmax
	for i := s - ng; i <= e+ng; i++ {
		dxf[i] = xf[i+1] - xf[i]
	}
}

func fixReflectGhosts(xf, dxf []float64, s, e, ng int, inner, outer bool) {
	if inner {
		for i := 1; i <= ng; i++ {
			dxf[s-i] = dxf[s+i-1]
			xf[s-i] = xf[s-i+1] - dxf[s-i]
		}
	}
	if outer {
		for i := 1; i <= ng; i++ {
			dxf[e+i] = dxf[e-i+1]
			xf[e+i+1] = xf[e+i] + dxf[e+i]
		}
	}
}

func (mb *MeshBlock) allocateState(pin *InputParameters.ParameterInput) {
	mb.Hydro = NewHydro(mb, pin)
	if mb.ctx.MHD {
		mb.Field = NewField(mb)
	}
	if mb.ctx.Radiation {
		mb.Rad = NewRadiation(mb, pin)
	}
	mb.BVals = NewBoundaryValues(mb)
}

func (mb *MeshBlock) logCreation() {
	lx1, lx2, lx3, ll := mb.UID.Location()
	fmt.Printf("MeshBlock %d, rank = %d, lx1 = %d, lx2 = %d, lx3 = %d, level = %d\n",
		mb.GID, mb.ctx.Rank, lx1, lx2, lx3, ll)
	fmt.Printf("is=%d ie=%d x1min=%g x1max=%g\n", mb.IS, mb.IE, mb.BlockSize.X1Min, mb.BlockSize.X1Max)
	fmt.Printf("js=%d je=%d x2min=%g x2max=%g\n", mb.JS, mb.JE, mb.BlockSize.X2Min, mb.BlockSize.X2Max)
	fmt.Printf("ks=%d ke=%d x3min=%g x3max=%g\n", mb.KS, mb.KE, mb.BlockSize.X3Min, mb.BlockSize.X3Max)
}

// SetNeighbor fills one slot of the neighbor table. fi1/fi2 select the
// face quadrant and are zero for same-level or coarser neighbors.
func (mb *MeshBlock) SetNeighbor(dir, rank, level, gid, lid, fi1, fi2 int) {
	mb.Neighbor[dir][fi2][fi1] = NeighborBlock{
		Rank: rank, Level: level, GID: gid, LID: lid, FI1: fi1, FI2: fi2,
	}
}

// ClearNeighbor marks a face as a physical boundary.
func (mb *MeshBlock) ClearNeighbor(dir int) {
	for f2 := 0; f2 < 2; f2++ {
		for f1 := 0; f1 < 2; f1++ {
			mb.Neighbor[dir][f2][f1] = NeighborBlock{Rank: -1, Level: -1, GID: -1, LID: -1}
		}
	}
}

// Level returns the block's refinement level.
func (mb *MeshBlock) Level() int { return mb.UID.Level() }

// myFaceIndex gives this block's quadrant within its coarser neighbor's
// face, from the deepest octant bits orthogonal to the face normal.
func (mb *MeshBlock) myFaceIndex(dir int) (fi1, fi2 int) {
	ox1, ox2, ox3 := mb.UID.Octant(mb.UID.Level())
	switch dir {
	case InnerX1, OuterX1:
		return ox2, ox3
	case InnerX2, OuterX2:
		return ox1, ox3
	default:
		return ox1, ox2
	}
}

// SetTaskList installs a copy of the task list on this block.
func (mb *MeshBlock) SetTaskList(tl *TaskList) {
	mb.task = make([]Task, len(tl.tasks))
	copy(mb.task, tl.tasks)
	mb.ntask = len(mb.task)
}

// ResetTaskState prepares the scheduler for a new step.
func (mb *MeshBlock) ResetTaskState() {
	mb.firsttask = 0
	mb.ntodo = mb.ntask
	mb.taskFlag = 0
}

// Task list status returned by DoOneTask.
type TaskListStatus int

const (
	TLNothing TaskListStatus = iota // all tasks already done
	TLRunning                       // one task executed this quantum
	TLStuck                         // nothing executable right now, retry later
	TLComplete                      // the last task finished this quantum
)

// DoOneTask scans from the earliest unresolved task and executes at most
// one task whose dependencies are satisfied and whose operation is
// currently executable. Non-executable tasks (boundary data not yet
// arrived) are skipped for this quantum.
func (mb *MeshBlock) DoOneTask() TaskListStatus {
	if mb.ntodo == 0 {
		return TLNothing
	}
	skip := 0
	for i := mb.firsttask; i < mb.ntask; i++ {
		ti := &mb.task[i]
		if ti.ID&mb.taskFlag == 0 { // not done yet
			if ti.Depend&mb.taskFlag == ti.Depend { // dependencies clear
				if ti.Func(mb, ti.Arg) {
					mb.ntodo--
					mb.taskFlag |= ti.ID
					if skip == 0 {
						mb.firsttask++
					}
					if mb.ntodo == 0 {
						return TLComplete
					}
					return TLRunning
				}
			}
			skip++
		} else if skip == 0 { // done and at the top of the list
			mb.firsttask++
		}
	}
	return TLStuck
}
