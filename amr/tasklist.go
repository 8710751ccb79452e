package amr

import "fmt"

// TaskFunc runs one unit of work on a block. It returns false when the
// operation cannot execute yet (boundary data still in flight); the
// scheduler will retry it on a later quantum.
type TaskFunc func(mb *MeshBlock, arg int) bool

// Task is one schedulable operation. ID is a single bit; Depend is the
// OR of the IDs that must have finished before this task may run.
type Task struct {
	ID     uint64
	Depend uint64
	Arg    int
	Func   TaskFunc
}

// TaskList is an ordered set of tasks with dependencies forming a DAG.
// Blocks copy it at the start of a cycle and track completion locally.
type TaskList struct {
	tasks   []Task
	defined uint64
}

// AddTask appends a task. The ID must be a fresh single bit and every
// dependency must already be defined, which makes cycles impossible to
// construct.
func (tl *TaskList) AddTask(id, depend uint64, arg int, fn TaskFunc) {
	if id == 0 || id&(id-1) != 0 {
		panic(fmt.Sprintf("task ID 0x%x is not a single bit", id))
	}
	if tl.defined&id != 0 {
		panic(fmt.Sprintf("task ID 0x%x added twice", id))
	}
	if depend&^tl.defined != 0 {
		panic(fmt.Sprintf("task 0x%x depends on undefined tasks 0x%x", id, depend&^tl.defined))
	}
	tl.tasks = append(tl.tasks, Task{ID: id, Depend: depend, Arg: arg, Func: fn})
	tl.defined |= id
}

func (tl *TaskList) NTasks() int { return len(tl.tasks) }

// Task ID bits of the default hydro cycle.
const (
	TaskFluxX1 uint64 = 1 << iota
	TaskFluxX2
	TaskFluxX3
	TaskSendFluxCorr
	TaskRecvFluxCorr
	TaskIntX1
	TaskIntX2
	TaskIntX3
	TaskSendX1
	TaskSendX2
	TaskSendX3
	TaskRecvX1
	TaskRecvX2
	TaskRecvX3
	TaskFieldCC
	TaskPrimitives
	TaskRadSource
	TaskNewDt
)

func taskCalcFlux(mb *MeshBlock, axis int) bool {
	mb.Hydro.CalculateFluxes(axis)
	return true
}

func taskSendFluxCorr(mb *MeshBlock, _ int) bool {
	mb.BVals.SendFluxCorrection()
	return true
}

func taskRecvFluxCorr(mb *MeshBlock, _ int) bool {
	return mb.BVals.ReceiveFluxCorrection()
}

func taskIntegrate(mb *MeshBlock, axis int) bool {
	mb.Hydro.Integrate(axis, mb.mesh.DT)
	return true
}

func taskSendBoundary(mb *MeshBlock, axis int) bool {
	mb.BVals.SendAll(2 * axis)
	mb.BVals.SendAll(2*axis + 1)
	return true
}

// taskRecvBoundary polls both faces of one axis and, once everything has
// arrived, consumes the buffers and applies physical boundaries.
func taskRecvBoundary(mb *MeshBlock, axis int) bool {
	inner, outer := 2*axis, 2*axis+1
	ok := mb.BVals.ReceiveAll(inner)
	if !mb.BVals.ReceiveAll(outer) {
		ok = false
	}
	if !ok {
		return false
	}
	mb.BVals.SetBoundariesAll(inner)
	mb.BVals.SetBoundariesAll(outer)
	return true
}

func taskFieldCC(mb *MeshBlock, _ int) bool {
	mb.Field.CellCenteredField()
	return true
}

func taskPrimitives(mb *MeshBlock, _ int) bool {
	mb.Hydro.ConservedToPrimitive()
	return true
}

func taskRadSource(mb *MeshBlock, _ int) bool {
	mb.Rad.ThermalRelaxation(mb.mesh.DT)
	return true
}

func taskNewDt(mb *MeshBlock, _ int) bool {
	mb.Hydro.NewBlockTimeStep()
	return true
}

// DefaultTaskList builds the cycle for one predictor step: fluxes on
// every active axis, flux correction across refinement jumps, the
// conservative update, source terms, the ghost-zone exchange, and
// primitive recovery.
func DefaultTaskList(ctx *RunContext, ndim int) *TaskList {
	tl := &TaskList{}

	fluxIDs := []uint64{TaskFluxX1, TaskFluxX2, TaskFluxX3}
	intIDs := []uint64{TaskIntX1, TaskIntX2, TaskIntX3}
	sendIDs := []uint64{TaskSendX1, TaskSendX2, TaskSendX3}
	recvIDs := []uint64{TaskRecvX1, TaskRecvX2, TaskRecvX3}

	var allFlux uint64
	for a := 0; a < ndim; a++ {
		tl.AddTask(fluxIDs[a], 0, a, taskCalcFlux)
		allFlux |= fluxIDs[a]
	}
	tl.AddTask(TaskSendFluxCorr, allFlux, 0, taskSendFluxCorr)
	tl.AddTask(TaskRecvFluxCorr, TaskSendFluxCorr, 0, taskRecvFluxCorr)

	prev := TaskRecvFluxCorr
	for a := 0; a < ndim; a++ {
		tl.AddTask(intIDs[a], prev, a, taskIntegrate)
		prev = intIDs[a]
	}
	lastInt := prev

	// source terms act on the conserved state before it is exchanged, so
	// ghost zones and active cells see the same cycle
	preSend := lastInt
	if ctx.Radiation {
		tl.AddTask(TaskRadSource, lastInt, 0, taskRadSource)
		preSend |= TaskRadSource
	}

	var allRecv uint64
	for a := 0; a < ndim; a++ {
		tl.AddTask(sendIDs[a], preSend, a, taskSendBoundary)
		tl.AddTask(recvIDs[a], preSend|sendIDs[a], a, taskRecvBoundary)
		allRecv |= recvIDs[a]
	}

	primDep := allRecv
	if ctx.MHD {
		tl.AddTask(TaskFieldCC, allRecv, 0, taskFieldCC)
		primDep |= TaskFieldCC
	}
	tl.AddTask(TaskPrimitives, primDep, 0, taskPrimitives)
	tl.AddTask(TaskNewDt, TaskPrimitives, 0, taskNewDt)
	return tl
}
