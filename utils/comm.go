package utils

import "fmt"

// Envelope is one boundary message in flight between ranks. The tag is
// packed by the sender so the receiver can match the message to a
// (block, direction, physics) slot without inspecting the payload.
type Envelope struct {
	Tag  int
	Data []float64
}

// RankComm moves messages between simulated ranks within one process.
// Each rank owns an inbox channel and a pending table; only the owning
// rank's goroutine may call the receive methods, so the pending table
// needs no lock. Sends from any rank are safe.
//
// The pattern mirrors a non-blocking message-passing runtime: Send posts
// and returns, TryReceive polls, Receive blocks until the tag arrives.
type RankComm struct {
	NP      int
	inbox   []chan Envelope
	pending []map[int][]float64
}

func NewRankComm(np, depth int) (rc *RankComm) {
	rc = &RankComm{
		NP:      np,
		inbox:   make([]chan Envelope, np),
		pending: make([]map[int][]float64, np),
	}
	for n := 0; n < np; n++ {
		rc.inbox[n] = make(chan Envelope, depth)
		rc.pending[n] = make(map[int][]float64)
	}
	return
}

func (rc *RankComm) Send(target, tag int, data []float64) {
	if target < 0 || target >= rc.NP {
		panic(fmt.Sprintf("send to rank %d out of bounds", target))
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	rc.inbox[target] <- Envelope{Tag: tag, Data: buf}
}

// drain moves everything waiting in the inbox into the pending table
func (rc *RankComm) drain(myRank int) {
	for {
		select {
		case env := <-rc.inbox[myRank]:
			rc.pending[myRank][env.Tag] = env.Data
		default:
			return
		}
	}
}

// TryReceive polls for a message with the given tag, returning false if it
// has not arrived yet.
func (rc *RankComm) TryReceive(myRank, tag int) ([]float64, bool) {
	rc.drain(myRank)
	data, ok := rc.pending[myRank][tag]
	if ok {
		delete(rc.pending[myRank], tag)
	}
	return data, ok
}

// Receive blocks until a message with the given tag arrives.
func (rc *RankComm) Receive(myRank, tag int) []float64 {
	for {
		if data, ok := rc.TryReceive(myRank, tag); ok {
			return data
		}
		env := <-rc.inbox[myRank]
		rc.pending[myRank][env.Tag] = env.Data
	}
}

// Discard drops any undelivered message with the given tag, if present.
func (rc *RankComm) Discard(myRank, tag int) {
	rc.drain(myRank)
	delete(rc.pending[myRank], tag)
}
