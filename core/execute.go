package core

import "github.com/sarchlab/ooopipe/insts"

// Flag bit positions within the packed NZCV value stored in the flags
// physical register.
const (
	flagN = 1 << 0
	flagZ = 1 << 1
	flagC = 1 << 2
	flagV = 1 << 3
)

func packFlags(n, z, c, v bool) uint64 {
	var f uint64
	if n {
		f |= flagN
	}
	if z {
		f |= flagZ
	}
	if c {
		f |= flagC
	}
	if v {
		f |= flagV
	}
	return f
}

func unpackFlags(f uint64) (n, z, c, v bool) {
	return f&flagN != 0, f&flagZ != 0, f&flagC != 0, f&flagV != 0
}

// ExecResult is the outcome of executing one ExecPayload.
type ExecResult struct {
	HasValue bool
	Value    uint64
	Err      error

	IsBranch      bool
	ActuallyTaken bool
	ActualTarget  uint64
	// LinkValue is the return address BL writes into LR. Meaningful only
	// for OpBL, whose destination register is published from this value
	// rather than from Value (which the branch path leaves unset).
	LinkValue uint64

	// StoreAddr/StoreValue are meaningful only for stores; Run copies them
	// into the store's store-buffer entry, which drains to memory once the
	// store retires.
	StoreAddr  uint64
	StoreValue uint64
}

// ExecuteStage advances every busy execution unit by one cycle,
// computes results for units that complete, and broadcasts them onto
// the physical register file and reservation-station wakeup network.
type ExecuteStage struct{}

// NewExecuteStage constructs the execute stage.
func NewExecuteStage() *ExecuteStage { return &ExecuteStage{} }

// executeDeps bundles the tables ExecuteStage reads and mutates.
type executeDeps struct {
	eu  *ExecutionUnits
	rs  *ReservationStationTable
	prf *PhysRegFile
	rob *ReorderBuffer
	sb  *StoreBuffer
	mem *Memory
}

// Run advances execution units and, for every unit that completes this
// cycle, computes its result, publishes it on the common data bus
// (PRF.Publish + RS.Wakeup), and records it into the owning ROB entry
// for in-order commit. It returns the correlation UID of the last unit
// to complete this cycle, or "" if none did.
func (s *ExecuteStage) Run(d executeDeps) string {
	done := d.eu.Advance()
	var lastUID string
	for _, euIdx := range done {
		payload := d.eu.Payload(euIdx)
		result := evaluate(payload, d.sb, d.mem)

		entry := d.rob.Get(payload.ROBIndex)
		entry.Done = true
		entry.Err = result.Err

		switch {
		case result.IsBranch:
			// The resolved target and taken/not-taken outcome are packed
			// into Result for the retire stage to unpack against the
			// branch's prediction (see actualTakenBit).
			entry.Result = result.ActualTarget
			if result.ActuallyTaken {
				entry.Result |= actualTakenBit
			}
			entry.HasResult = true
		case payload.IsStore:
			entry.Result = result.StoreValue
			entry.HasResult = true
			if payload.HasSB && result.Err == nil {
				d.sb.SetAddr(payload.SBIndex, result.StoreAddr)
				d.sb.SetValue(payload.SBIndex, result.StoreValue)
			}
		default:
			entry.HasResult = result.HasValue
			entry.Result = result.Value
		}

		if payload.HasDest {
			publishValue := result.Value
			if result.IsBranch {
				// Only BL carries both a branch outcome and a destination
				// register (LR); the destination gets the return address,
				// not the branch-outcome encoding.
				publishValue = result.LinkValue
			}
			d.prf.Publish(payload.Dest, publishValue)
			d.rs.Wakeup(payload.Dest, publishValue)
		}

		d.eu.Free(euIdx)
		lastUID = payload.UID
	}
	return lastUID
}

// actualTakenBit is OR'd into a branch ROB entry's Result alongside the
// resolved target address to carry the taken/not-taken outcome through
// the same field. Target addresses are instruction indices, far below
// this bit, so no resolvable program is large enough to collide with it.
const actualTakenBit = uint64(1) << 62

func evaluate(p ExecPayload, sb *StoreBuffer, mem *Memory) ExecResult {
	src := p.SrcVal
	switch p.Op {
	case insts.OpADD:
		return ExecResult{HasValue: true, Value: src[0] + src[1]}
	case insts.OpSUB:
		return ExecResult{HasValue: true, Value: src[0] - src[1]}
	case insts.OpRSB:
		return ExecResult{HasValue: true, Value: src[1] - src[0]}
	case insts.OpMUL:
		return ExecResult{HasValue: true, Value: src[0] * src[1]}
	case insts.OpSDIV:
		if int64(src[1]) == 0 {
			return ExecResult{HasValue: true, Value: 0, Err: &ErrDivideByZero{Addr: p.Addr}}
		}
		return ExecResult{HasValue: true, Value: uint64(int64(src[0]) / int64(src[1]))}
	case insts.OpNEG:
		return ExecResult{HasValue: true, Value: uint64(-int64(src[0]))}
	case insts.OpAND:
		return ExecResult{HasValue: true, Value: src[0] & src[1]}
	case insts.OpORR:
		return ExecResult{HasValue: true, Value: src[0] | src[1]}
	case insts.OpEOR:
		return ExecResult{HasValue: true, Value: src[0] ^ src[1]}
	case insts.OpMVN:
		return ExecResult{HasValue: true, Value: ^src[0]}
	case insts.OpMOV:
		return ExecResult{HasValue: true, Value: src[0]}
	case insts.OpCMP:
		diff := int64(src[0]) - int64(src[1])
		return ExecResult{HasValue: true, Value: compareFlags(int64(src[0]), int64(src[1]), diff)}
	case insts.OpTST:
		v := src[0] & src[1]
		return ExecResult{HasValue: true, Value: packFlags(int64(v) < 0, v == 0, false, false)}
	case insts.OpTEQ:
		v := src[0] ^ src[1]
		return ExecResult{HasValue: true, Value: packFlags(int64(v) < 0, v == 0, false, false)}
	case insts.OpPRINTR:
		return ExecResult{HasValue: true, Value: src[0]}
	case insts.OpLDR:
		return evaluateLoad(p, sb, mem)
	case insts.OpSTR:
		if !mem.InBounds(src[1]) {
			return ExecResult{Err: &ErrMemoryOutOfBounds{Addr: src[1], Size: 1}}
		}
		return ExecResult{StoreAddr: src[1], StoreValue: src[0]}
	case insts.OpB:
		return ExecResult{IsBranch: true, ActuallyTaken: true, ActualTarget: src[0]}
	case insts.OpBL:
		return ExecResult{IsBranch: true, ActuallyTaken: true, ActualTarget: src[0], LinkValue: p.Addr + 1}
	case insts.OpBX, insts.OpRET:
		return ExecResult{IsBranch: true, ActuallyTaken: true, ActualTarget: src[0]}
	case insts.OpCBZ:
		return ExecResult{IsBranch: true, ActuallyTaken: src[0] == 0, ActualTarget: src[1]}
	case insts.OpCBNZ:
		return ExecResult{IsBranch: true, ActuallyTaken: src[0] != 0, ActualTarget: src[1]}
	case insts.OpBEQ, insts.OpBNE, insts.OpBLE, insts.OpBLT, insts.OpBGE, insts.OpBGT:
		n, z, _, v := unpackFlags(src[1])
		taken := evalCondition(p.Op, n, z, v)
		return ExecResult{IsBranch: true, ActuallyTaken: taken, ActualTarget: src[0]}
	default:
		return ExecResult{}
	}
}

func compareFlags(a, b, diff int64) uint64 {
	n := diff < 0
	z := diff == 0
	c := uint64(a) < uint64(b) // true on borrow, matching the original's wrapping_sub check
	v := (a >= 0 && b < 0 && diff < 0) || (a < 0 && b >= 0 && diff >= 0)
	return packFlags(n, z, c, v)
}

func evalCondition(op insts.Op, n, z, v bool) bool {
	switch op {
	case insts.OpBEQ:
		return z
	case insts.OpBNE:
		return !z
	case insts.OpBLT:
		return n != v
	case insts.OpBGE:
		return n == v
	case insts.OpBLE:
		return z || (n != v)
	case insts.OpBGT:
		return !z && (n == v)
	default:
		return false
	}
}

// evaluateLoad is only ever reached once DispatchStage has confirmed
// there is no unresolved aliasing store ahead of this load in program
// order (see StoreBuffer.HasUnresolvedHazard), so a Matched-but-not-Ready forward
// can no longer occur here.
func evaluateLoad(p ExecPayload, sb *StoreBuffer, mem *Memory) ExecResult {
	addr := p.SrcVal[0]
	if fwd := sb.Forward(addr, sb.OlderThan(p.Seq)); fwd.Matched {
		return ExecResult{HasValue: true, Value: fwd.Value}
	}
	if !mem.InBounds(addr) {
		return ExecResult{HasValue: true, Value: 0, Err: &ErrMemoryOutOfBounds{Addr: addr, Size: 1}}
	}
	return ExecResult{HasValue: true, Value: mem.Load(addr)}
}
