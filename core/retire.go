package core

import (
	"fmt"
	"io"

	"github.com/sarchlab/ooopipe/insts"
)

// RetireStage commits the oldest in-flight instructions in program
// order: it is the only stage allowed to touch architectural state, and
// the only place a branch misprediction is discovered and acted on.
type RetireStage struct {
	width  int
	output io.Writer
}

// NewRetireStage constructs a retire stage committing up to width
// instructions per cycle, writing PRINTR output to output.
func NewRetireStage(width int, output io.Writer) *RetireStage {
	return &RetireStage{width: width, output: output}
}

// retireDeps bundles every table RetireStage may need to touch,
// including on a misprediction flush.
type retireDeps struct {
	rob       *ReorderBuffer
	arf       *ArchRegFile
	prf       *PhysRegFile
	rs        *ReservationStationTable
	eu        *ExecutionUnits
	sb        *StoreBuffer
	iq        *InstructionQueue
	frontend  *Frontend
	stat      *Statistics
}

// Run commits up to width completed, oldest-first ROB entries. It
// returns the correlation UID of the last entry retired this cycle
// (empty if none were), and a fatal error if a committed instruction
// carries an out-of-bounds memory access; a divide-by-zero is
// non-fatal and simply commits its zero result. Retiring a branch whose
// resolved outcome disagrees with its prediction stops the cycle's
// retirement early and triggers Flush.
func (s *RetireStage) Run(d retireDeps) (string, error) {
	var lastUID string
	for i := 0; i < s.width; i++ {
		_, entry, ok := d.rob.Head()
		if !ok {
			return lastUID, nil
		}
		if !entry.Done {
			return lastUID, nil
		}

		if entry.HasDest {
			// The ARF rename pointer already points at NewPhys, installed
			// at rename time; retirement only reclaims the superseded
			// physical register. The committed value lives on in NewPhys,
			// not copied back into ARF.
			if entry.OldState.Renamed {
				d.prf.Free(entry.OldState.Phys)
			}
		}

		if entry.IsStore && entry.HasSB {
			d.sb.MarkCommitEligible(entry.SBIndex)
		}

		if entry.Op == insts.OpPRINTR {
			fmt.Fprintf(s.output, "%d\n", int64(entry.Result))
		}

		lastUID = entry.UID

		if entry.Err != nil {
			if _, isOOB := entry.Err.(*ErrMemoryOutOfBounds); isOOB {
				err := entry.Err
				d.rob.RetireHead()
				d.stat.Retired++
				return lastUID, err
			}
			// Divide-by-zero already committed its zero result above;
			// nothing further to do.
		}

		mispredicted := false
		var actualTarget uint64
		if entry.Branch != nil {
			actualTarget = entry.Result &^ actualTakenBit
			actuallyTaken := entry.Result&actualTakenBit != 0
			mispredicted = actuallyTaken != entry.Branch.PredictedTaken ||
				(actuallyTaken && actualTarget != entry.Branch.PredictedTarget)
			if !actuallyTaken {
				actualTarget = entry.Branch.FallThrough
			}
		}

		d.rob.RetireHead()
		d.stat.Retired++

		if mispredicted {
			s.flush(d, actualTarget)
			return lastUID, nil
		}
	}
	return lastUID, nil
}

// flush discards every speculative instruction still in flight after a
// misprediction is discovered at retirement, restoring architectural
// register state to what it was immediately before the mispredicting
// branch's own rename, and redirecting the frontend to the resolved
// target.
func (s *RetireStage) flush(d retireDeps, actualTarget uint64) {
	indices := d.rob.Indices()
	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		e := d.rob.Get(idx)
		if !e.Valid {
			continue
		}
		if e.HasDest {
			d.arf.SetState(e.ArchDest, e.OldState)
			d.prf.Free(e.NewPhys)
		}
		if e.IsStore && e.HasSB {
			d.sb.Invalidate(e.SBIndex)
		}
		d.eu.FreeByROBIndex(idx)
	}
	d.rs.ReleaseByROBIndices(indices)
	d.rob.Flush()
	d.iq.Flush()
	d.frontend.SetPC(actualTarget)
	d.stat.Flushes++
}

// DrainStoreBuffer writes up to lfbCount commit-eligible store-buffer
// entries to memory this cycle, modeling the line-fill-buffer bound on
// retired-but-undrained stores.
func DrainStoreBuffer(sb *StoreBuffer, mem *Memory, lfbCount int) {
	drained := 0
	for idx := uint16(0); idx < uint16(sb.Capacity()) && drained < lfbCount; idx++ {
		e := sb.Get(idx)
		if e.Valid && e.CommitEligible && e.HasAddr && e.HasValue {
			sb.DrainOne(idx, mem)
			drained++
		}
	}
}
