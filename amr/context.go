package amr

import "github.com/notargets/gamr/utils"

// RunContext carries the per-process identity and the physics
// configuration of a run. It is immutable after construction and passed
// explicitly to every constructor that needs it.
type RunContext struct {
	Rank  int
	NProc int
	Comm  *utils.RankComm // nil for a purely serial run

	NGhost int

	MHD        bool // face-centered fields and the magnetosonic solver
	GeneralRel bool // metric transforms around the flux kernels
	Radiation  bool // specific intensity transport
}

// NewSerialContext builds the context of a single-process run.
func NewSerialContext() *RunContext {
	return &RunContext{Rank: 0, NProc: 1, NGhost: 2}
}
