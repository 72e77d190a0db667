package core

import "github.com/sarchlab/ooopipe/insts"

// RenameStage drains the instruction queue into the reservation-station
// table and reorder buffer: renaming each destination to a fresh
// physical register, resolving each source either to a live value or to
// the physical-register tag producing it, and recording enough of the
// old architectural state to undo the rename on a flush.
type RenameStage struct {
	width int
}

// NewRenameStage constructs a rename stage issuing up to width
// instructions per cycle into the backend.
func NewRenameStage(width int) *RenameStage { return &RenameStage{width: width} }

// renameDeps bundles the structures RenameStage reads and mutates, kept
// as a parameter struct so Tick can pass the Pipeline's tables without
// RenameStage holding pointers of its own.
type renameDeps struct {
	iq   *InstructionQueue
	rob  *ReorderBuffer
	rs   *ReservationStationTable
	sb   *StoreBuffer
	prf  *PhysRegFile
	arf  *ArchRegFile
	stat *Statistics
	seq  *uint64
}

// Run attempts to rename and allocate up to width instructions from the
// instruction queue. It stops early — stalling the remainder in the
// queue — whenever the ROB, RS table, store buffer, or physical
// register pool cannot accept another entry, recording which resource
// stalled in Statistics. It returns the correlation UID of the last
// instruction renamed this cycle, or "" if none were.
func (s *RenameStage) Run(d renameDeps) string {
	var lastUID string
	for i := 0; i < s.width; i++ {
		fi, ok := d.iq.Peek(0)
		if !ok {
			return lastUID
		}

		if d.rob.Full() {
			d.stat.StallCyclesROBFull++
			return lastUID
		}
		rsIdx, rsOK := d.rs.FreeSlot()
		if !rsOK {
			d.stat.StallCyclesRSFull++
			return lastUID
		}
		var sbIdx uint16
		hasSB := fi.instr.IsStore
		if hasSB {
			idx, ok := d.sb.FreeSlot()
			if !ok {
				d.stat.StallCyclesSBFull++
				return lastUID
			}
			sbIdx = idx
		}

		wantsDest := fi.instr.HasSink || fi.instr.Op.SetsFlags()
		var newPhys uint16
		if wantsDest {
			reg, ok := d.prf.Allocate()
			if !ok {
				d.stat.StallCyclesPRFEmpty++
				return lastUID
			}
			newPhys = reg
		}

		d.iq.Pop()

		*d.seq++
		entry := RSEntry{
			Seq:     *d.seq,
			Op:      fi.instr.Op,
			Addr:    fi.pc,
			IsStore: hasSB,
			HasSB:   hasSB,
			SBIndex: sbIdx,
			Branch:  fi.branch,
			UID:     fi.uid,
		}
		entry.NumSrc = fi.instr.NumSrc
		for j := uint8(0); j < fi.instr.NumSrc; j++ {
			entry.Src[j] = resolveSource(d.arf, d.prf, fi.instr.Sources[j])
		}

		archDest := uint8(0)
		oldState := ArchRegState{}
		robEntry := ROBEntry{
			Addr:    fi.pc,
			Op:      fi.instr.Op,
			IsStore: hasSB,
			HasSB:   hasSB,
			SBIndex: sbIdx,
			Branch:  fi.branch,
			UID:     fi.uid,
		}

		if wantsDest {
			if fi.instr.HasSink && fi.instr.Sink.Kind == insts.OperandReg {
				archDest = fi.instr.Sink.Reg
			} else {
				archDest = insts.RegFlags
			}
			oldState = d.arf.State(archDest)
			d.arf.SetState(archDest, ArchRegState{Renamed: true, Phys: newPhys})

			entry.HasDest = true
			entry.Dest = newPhys
			robEntry.HasDest = true
			robEntry.ArchDest = archDest
			robEntry.OldState = oldState
			robEntry.NewPhys = newPhys
		}

		robIdx := d.rob.Allocate(robEntry)
		entry.ROBIndex = robIdx
		d.rs.Allocate(rsIdx, entry)

		if hasSB {
			d.sb.Allocate(sbIdx, *d.seq)
		}

		lastUID = fi.uid
	}
	return lastUID
}

// resolveSource converts a decoded operand into a reservation-station
// source: immediates and resolved addresses are ready immediately;
// register reads consult the ARF, snapshotting the value if it is
// already committed or already produced, otherwise tracking the
// producing physical register's tag for wakeup.
func resolveSource(arf *ArchRegFile, prf *PhysRegFile, op insts.Operand) RSSourceOperand {
	switch op.Kind {
	case insts.OperandImm, insts.OperandLabel, insts.OperandAddressOf:
		return RSSourceOperand{Ready: true, Value: op.Imm}
	case insts.OperandReg, insts.OperandMemIndirect:
		st := arf.State(op.Reg)
		if !st.Renamed {
			return RSSourceOperand{Ready: true, Value: st.Value}
		}
		if prf.Ready(st.Phys) {
			return RSSourceOperand{Ready: true, Value: prf.Value(st.Phys)}
		}
		return RSSourceOperand{Ready: false, Tag: st.Phys}
	default:
		return RSSourceOperand{Ready: true}
	}
}
