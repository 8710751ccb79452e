package amr

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/notargets/gamr/InputParameters"
)

// Restart file layout, all values little endian, ints 8 bytes wide:
//
//	header: nbtotal, idlength, root_level, max_level,
//	        mesh RegionSize, 6 boundary codes, time, dt, ncycle
//	block list: gid, level, rawid[idlength], cost, payload offset
//	payloads:   RegionSize, boundary codes, neighbor table, face
//	            positions and spacings, conserved state, then the
//	            primitive scratch for GR runs, the staggered field for
//	            MHD runs and the intensities for radiation runs
//
// The block list carries absolute payload offsets so a rank can seek
// straight to its own blocks.

var errRestartBroken = fmt.Errorf("the restarting file is broken")

func writeVals(w io.Writer, vals ...interface{}) error {
	for _, v := range vals {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readVals(r io.Reader, vals ...interface{}) error {
	for _, v := range vals {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return errRestartBroken
		}
	}
	return nil
}

func writeRegion(w io.Writer, rs *RegionSize) error {
	return writeVals(w,
		rs.X1Min, rs.X2Min, rs.X3Min,
		rs.X1Max, rs.X2Max, rs.X3Max,
		rs.X1Rat, rs.X2Rat, rs.X3Rat,
		rs.NX1, rs.NX2, rs.NX3)
}

func readRegion(r io.Reader, rs *RegionSize) error {
	return readVals(r,
		&rs.X1Min, &rs.X2Min, &rs.X3Min,
		&rs.X1Max, &rs.X2Max, &rs.X3Max,
		&rs.X1Rat, &rs.X2Rat, &rs.X3Rat,
		&rs.NX1, &rs.NX2, &rs.NX3)
}

const regionBytes = 12 * 8

// GetBlockSizeInBytes returns the payload size of one local block.
func (mb *MeshBlock) GetBlockSizeInBytes() int64 {
	n1, n2, n3 := mb.NCells1, mb.NCells2, mb.NCells3
	size := int64(regionBytes)
	size += NFaces * 8                                      // boundary codes
	size += NFaces * 2 * 2 * 6 * 8                          // neighbor table
	size += int64((n1+1)+(n2+1)+(n3+1)+n1+n2+n3) * 8        // geometry
	size += int64(mb.Hydro.NWave) * int64(n3*n2*n1) * 8     // conserved
	if mb.ctx.GeneralRel {
		size += 2 * int64(mb.Hydro.NWave) * int64(n3*n2*n1) * 8
	}
	if mb.ctx.MHD {
		size += int64(n3*n2*(n1+1)+n3*(n2+1)*n1+(n3+1)*n2*n1) * 8
	}
	if mb.ctx.Radiation {
		size += int64(mb.Rad.NFreq*NOctant*mb.Rad.NAng) * int64(n3*n2*n1) * 8
	}
	return size
}

func (mb *MeshBlock) saveBlock(w io.Writer) error {
	if err := writeRegion(w, &mb.BlockSize); err != nil {
		return err
	}
	for dir := 0; dir < NFaces; dir++ {
		if err := writeVals(w, int64(mb.BCs[dir])); err != nil {
			return err
		}
	}
	for dir := 0; dir < NFaces; dir++ {
		for f2 := 0; f2 < 2; f2++ {
			for f1 := 0; f1 < 2; f1++ {
				nb := mb.Neighbor[dir][f2][f1]
				if err := writeVals(w, int64(nb.Rank), int64(nb.Level),
					int64(nb.GID), int64(nb.LID), int64(nb.FI1), int64(nb.FI2)); err != nil {
					return err
				}
			}
		}
	}
	if err := writeVals(w, mb.X1F, mb.X2F, mb.X3F, mb.DX1F, mb.DX2F, mb.DX3F); err != nil {
		return err
	}
	if err := writeVals(w, mb.Hydro.U.Data()); err != nil {
		return err
	}
	if mb.ctx.GeneralRel {
		if err := writeVals(w, mb.Hydro.W.Data(), mb.Hydro.W1.Data()); err != nil {
			return err
		}
	}
	if mb.ctx.MHD {
		if err := writeVals(w, mb.Field.B1F.Data(), mb.Field.B2F.Data(), mb.Field.B3F.Data()); err != nil {
			return err
		}
	}
	if mb.ctx.Radiation {
		if err := writeVals(w, mb.Rad.IR.Data()); err != nil {
			return err
		}
	}
	return nil
}

func (mb *MeshBlock) loadBlock(r io.Reader) error {
	var rs RegionSize
	if err := readRegion(r, &rs); err != nil {
		return err
	}
	mb.BlockSize = rs
	for dir := 0; dir < NFaces; dir++ {
		var bc int64
		if err := readVals(r, &bc); err != nil {
			return err
		}
		mb.BCs[dir] = int(bc)
	}
	for dir := 0; dir < NFaces; dir++ {
		for f2 := 0; f2 < 2; f2++ {
			for f1 := 0; f1 < 2; f1++ {
				var rk, lv, gid, lid, fi1, fi2 int64
				if err := readVals(r, &rk, &lv, &gid, &lid, &fi1, &fi2); err != nil {
					return err
				}
				mb.Neighbor[dir][f2][f1] = NeighborBlock{
					Rank: int(rk), Level: int(lv), GID: int(gid),
					LID: int(lid), FI1: int(fi1), FI2: int(fi2),
				}
			}
		}
	}
	if err := readVals(r, mb.X1F, mb.X2F, mb.X3F, mb.DX1F, mb.DX2F, mb.DX3F); err != nil {
		return err
	}
	if err := readVals(r, mb.Hydro.U.Data()); err != nil {
		return err
	}
	if mb.ctx.GeneralRel {
		if err := readVals(r, mb.Hydro.W.Data(), mb.Hydro.W1.Data()); err != nil {
			return err
		}
	}
	if mb.ctx.MHD {
		if err := readVals(r, mb.Field.B1F.Data(), mb.Field.B2F.Data(), mb.Field.B3F.Data()); err != nil {
			return err
		}
	}
	if mb.ctx.Radiation {
		if err := readVals(r, mb.Rad.IR.Data()); err != nil {
			return err
		}
	}
	return nil
}

// WriteRestart dumps the complete run state. All blocks must be local,
// so in a multi-rank run the caller gathers them first.
func (m *Mesh) WriteRestart(w io.Writer) error {
	if len(m.Blocks) != m.NBTotal {
		return fmt.Errorf("restart output requires all %d blocks on one rank, have %d",
			m.NBTotal, len(m.Blocks))
	}
	if err := writeVals(w, int64(m.NBTotal), int64(IDLength),
		int64(m.RootLevel), int64(m.MaxLevel)); err != nil {
		return err
	}
	if err := writeRegion(w, &m.MeshSize); err != nil {
		return err
	}
	for dir := 0; dir < NFaces; dir++ {
		if err := writeVals(w, int64(m.BCFlags[dir])); err != nil {
			return err
		}
	}
	if err := writeVals(w, m.Time, m.DT, int64(m.NCycle)); err != nil {
		return err
	}

	headerBytes := int64(4*8 + regionBytes + NFaces*8 + 3*8)
	listEntryBytes := int64((2 + IDLength + 2) * 8)
	offset := headerBytes + int64(m.NBTotal)*listEntryBytes
	for _, mb := range m.Blocks {
		raw := mb.UID.RawID()
		if err := writeVals(w, int64(mb.GID), int64(mb.Level())); err != nil {
			return err
		}
		for d := 0; d < IDLength; d++ {
			if err := writeVals(w, raw[d]); err != nil {
				return err
			}
		}
		if err := writeVals(w, mb.Cost, offset); err != nil {
			return err
		}
		offset += mb.GetBlockSizeInBytes()
	}
	for _, mb := range m.Blocks {
		if err := mb.saveBlock(w); err != nil {
			return err
		}
	}
	return nil
}

// NewMeshFromRestart rebuilds the mesh from a restart stream: the tree
// and distribution come from the block list, then each rank seeks to and
// loads the payloads of its own blocks.
func NewMeshFromRestart(r io.ReadSeeker, pin *InputParameters.ParameterInput, ctx *RunContext) (*Mesh, error) {
	m := &Mesh{ctx: ctx}

	var nbtotal, idl, rootLevel, maxLevel int64
	if err := readVals(r, &nbtotal, &idl, &rootLevel, &maxLevel); err != nil {
		return nil, err
	}
	if idl != IDLength {
		return nil, fmt.Errorf("the id length of the restarting file (%d) does not match this build (%d), "+
			"the mesh is too deep", idl, IDLength)
	}
	m.NBTotal = int(nbtotal)
	m.RootLevel = int(rootLevel)
	m.MaxLevel = int(maxLevel)
	if err := readRegion(r, &m.MeshSize); err != nil {
		return nil, err
	}
	for dir := 0; dir < NFaces; dir++ {
		var bc int64
		if err := readVals(r, &bc); err != nil {
			return nil, err
		}
		m.BCFlags[dir] = int(bc)
	}
	var ncycle int64
	if err := readVals(r, &m.Time, &m.DT, &ncycle); err != nil {
		return nil, err
	}
	m.NCycle = int(ncycle)

	m.NDim = 1
	if m.MeshSize.NX2 > 1 {
		m.NDim = 2
	}
	if m.MeshSize.NX3 > 1 {
		m.NDim = 3
	}
	m.Multilevel = m.MaxLevel > m.RootLevel
	m.TLim = pin.GetReal("time", "tlim")
	m.NLim = pin.GetOrAddInteger("time", "nlim", -1)
	m.CFL = pin.GetOrAddReal("time", "cfl_number", 0.3)

	m.LocList = make([]BlockUID, m.NBTotal)
	m.Costlist = make([]float64, m.NBTotal)
	offsets := make([]int64, m.NBTotal)
	for i := 0; i < m.NBTotal; i++ {
		var gid, level int64
		var raw [IDLength]int64
		if err := readVals(r, &gid, &level); err != nil {
			return nil, err
		}
		for d := 0; d < IDLength; d++ {
			if err := readVals(r, &raw[d]); err != nil {
				return nil, err
			}
		}
		if err := readVals(r, &m.Costlist[i], &offsets[i]); err != nil {
			return nil, err
		}
		if int(gid) != i {
			return nil, errRestartBroken
		}
		m.LocList[i] = UIDFromRaw(raw, int(level))
	}

	// rebuild the tree and check the leaf order round-trips
	nrbx := [3]int64{1, 1, 1}
	for _, uid := range m.LocList {
		lx1, lx2, lx3, ll := uid.Location()
		shift := uint(ll - m.RootLevel)
		if v := (lx1 >> shift) + 1; v > nrbx[0] {
			nrbx[0] = v
		}
		if v := (lx2 >> shift) + 1; v > nrbx[1] {
			nrbx[1] = v
		}
		if v := (lx3 >> shift) + 1; v > nrbx[2] {
			nrbx[2] = v
		}
	}
	m.NRBX1, m.NRBX2, m.NRBX3 = nrbx[0], nrbx[1], nrbx[2]
	m.Tree.uid = NewBlockUID(0, 0, 0, 0)
	m.Tree.CreateRootGrid(m.NRBX1, m.NRBX2, m.NRBX3, m.RootLevel)
	for _, uid := range m.LocList {
		if uid.Level() > m.RootLevel {
			m.Tree.Refine(uid, m.NDim >= 2, m.NDim >= 3)
		}
	}
	if m.Tree.AssignGID() != m.NBTotal {
		return nil, errRestartBroken
	}
	check := make([]BlockUID, m.NBTotal)
	m.Tree.GetIDList(check)
	for i := range check {
		if check[i].Compare(m.LocList[i]) != 0 {
			return nil, errRestartBroken
		}
	}

	var err error
	m.Ranklist, m.Nslist, m.Nblist, err = LoadBalance(m.Costlist, ctx.NProc)
	if err != nil {
		return nil, err
	}

	rank := ctx.Rank
	for gid := m.Nslist[rank]; gid < m.Nslist[rank]+m.Nblist[rank]; gid++ {
		if _, err := r.Seek(offsets[gid], io.SeekStart); err != nil {
			return nil, errRestartBroken
		}
		mb := &MeshBlock{
			ctx: ctx, mesh: m,
			GID: gid, LID: gid - m.Nslist[rank], UID: m.LocList[gid],
			Cost: m.Costlist[gid],
		}
		// sizes first so the arrays exist before the payload lands
		var rs RegionSize
		if err := readRegion(r, &rs); err != nil {
			return nil, err
		}
		if _, err := r.Seek(offsets[gid], io.SeekStart); err != nil {
			return nil, errRestartBroken
		}
		mb.BlockSize = rs
		mb.setIndices()
		mb.X1F = make([]float64, mb.NCells1+1)
		mb.X2F = make([]float64, mb.NCells2+1)
		mb.X3F = make([]float64, mb.NCells3+1)
		mb.DX1F = make([]float64, mb.NCells1)
		mb.DX2F = make([]float64, mb.NCells2)
		mb.DX3F = make([]float64, mb.NCells3)
		mb.allocateState(pin)
		if err := mb.loadBlock(r); err != nil {
			return nil, err
		}
		m.Blocks = append(m.Blocks, mb)
	}
	for _, mb := range m.Blocks {
		// ranks and local ids may differ from the writing run
		if err := m.wireNeighbors(mb); err != nil {
			return nil, err
		}
		mb.BVals.AllocateBuffers()
		if ctx.MHD {
			mb.Field.CellCenteredField()
		}
		mb.Hydro.ConservedToPrimitive()
		mb.Hydro.NewBlockTimeStep()
	}
	return m, nil
}
