package core

import "github.com/sarchlab/ooopipe/insts"

// Latency returns the fixed per-opcode execution latency in cycles.
// Every opcode other than the ones listed here executes in a single
// cycle.
func Latency(op insts.Op) int {
	switch op {
	case insts.OpMUL:
		return 3
	case insts.OpSDIV:
		return 20
	case insts.OpLDR:
		return 3
	default:
		return 1
	}
}

// ExecPayload is the snapshot an execution unit needs to produce a
// result, captured at dispatch time so the reservation-station slot that
// issued it can be freed immediately.
type ExecPayload struct {
	Op       insts.Op
	Addr     uint64
	Seq      uint64
	NumSrc   uint8
	SrcVal   [insts.MaxSources]uint64
	HasDest  bool
	Dest     uint16
	ROBIndex uint16
	IsStore  bool
	HasSB    bool
	SBIndex  uint16
	Branch   *BranchRecord
	UID      string
}

// euSlot is one execution unit's in-flight occupant.
type euSlot struct {
	busy      bool
	payload   ExecPayload
	remaining int
}

// ExecutionUnits is the fixed-size pool of execution ports an instruction
// is dispatched onto once its operands are ready. Every unit is
// general-purpose: any opcode may be dispatched onto any free unit, and
// it occupies that unit for Latency(op) cycles.
type ExecutionUnits struct {
	slots []euSlot
}

// NewExecutionUnits allocates a pool of the given size.
func NewExecutionUnits(count int) *ExecutionUnits {
	return &ExecutionUnits{slots: make([]euSlot, count)}
}

// Capacity returns the number of execution units.
func (e *ExecutionUnits) Capacity() int { return len(e.slots) }

// FreeSlot returns an idle unit's index, or ok=false if every unit is
// busy.
func (e *ExecutionUnits) FreeSlot() (idx uint16, ok bool) {
	for i := range e.slots {
		if !e.slots[i].busy {
			return uint16(i), true
		}
	}
	return 0, false
}

// Dispatch occupies unit idx with payload for latency cycles.
func (e *ExecutionUnits) Dispatch(idx uint16, payload ExecPayload, latency int) {
	e.slots[idx] = euSlot{busy: true, payload: payload, remaining: latency}
}

// Advance decrements every busy unit's remaining latency by one cycle
// and returns the indices of units that complete this cycle (remaining
// reaches zero). Completed units remain occupied until Free is called,
// so their payload can still be read this cycle.
func (e *ExecutionUnits) Advance() []uint16 {
	var done []uint16
	for i := range e.slots {
		s := &e.slots[i]
		if !s.busy {
			continue
		}
		s.remaining--
		if s.remaining <= 0 {
			done = append(done, uint16(i))
		}
	}
	return done
}

// Payload returns the payload occupying unit idx.
func (e *ExecutionUnits) Payload(idx uint16) ExecPayload { return e.slots[idx].payload }

// Free releases unit idx, whether because it completed or because its
// instruction was flushed mid-flight.
func (e *ExecutionUnits) Free(idx uint16) {
	e.slots[idx] = euSlot{}
}

// BusyROBIndices returns the ROB indices of every unit still executing,
// used by flush to find units whose occupant belongs to the discarded
// speculative remainder.
func (e *ExecutionUnits) BusyROBIndices() []uint16 {
	var out []uint16
	for i := range e.slots {
		if e.slots[i].busy {
			out = append(out, e.slots[i].payload.ROBIndex)
		}
	}
	return out
}

// FreeByROBIndex frees whichever unit, if any, is occupied by robIndex.
func (e *ExecutionUnits) FreeByROBIndex(robIndex uint16) {
	for i := range e.slots {
		if e.slots[i].busy && e.slots[i].payload.ROBIndex == robIndex {
			e.slots[i] = euSlot{}
		}
	}
}
