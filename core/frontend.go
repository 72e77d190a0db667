package core

import "github.com/sarchlab/ooopipe/insts"

// Frontend owns the speculative program counter and feeds the
// instruction queue, following the predicted path of every branch it
// fetches.
type Frontend struct {
	program   *insts.Program
	predictor *BranchPredictor
	arf       *ArchRegFile
	prf       *PhysRegFile
	pc        uint64
	halted    bool
	width     int
	uids      uidGenerator
}

// NewFrontend constructs a frontend over program, fetching width
// instructions per cycle starting at program.EntryPoint. arf/prf are
// consulted read-only to speculate BX/RET targets from the predicted
// value of the source register.
func NewFrontend(program *insts.Program, predictor *BranchPredictor, arf *ArchRegFile, prf *PhysRegFile, width int) *Frontend {
	return &Frontend{
		program:   program,
		predictor: predictor,
		arf:       arf,
		prf:       prf,
		pc:        program.EntryPoint,
		width:     width,
	}
}

// Halted reports whether the frontend has fetched past the end of the
// program image and has nothing left to feed the pipeline.
func (f *Frontend) Halted() bool { return f.halted }

// SetPC overrides the fetch program counter, used by misprediction
// recovery to redirect to the resolved target.
func (f *Frontend) SetPC(pc uint64) {
	f.pc = pc
	if pc < uint64(len(f.program.Instructions)) {
		f.halted = false
	}
}

// PC returns the frontend's current fetch address.
func (f *Frontend) PC() uint64 { return f.pc }

// Fetch pushes up to width instructions into iq, stopping early if iq
// fills, the program ends, or a predicted-taken branch redirects fetch
// this cycle: the next cycle simply continues fetching from the
// redirected pc. It returns the correlation UID of the last instruction
// fetched this cycle, or "" if none were.
func (f *Frontend) Fetch(iq *InstructionQueue, stat *Statistics) string {
	var lastUID string
	for i := 0; i < f.width; i++ {
		if iq.Full() {
			stat.StallCyclesIQFull++
			return lastUID
		}
		if f.pc >= uint64(len(f.program.Instructions)) {
			f.halted = true
			return lastUID
		}
		in := f.program.Instructions[f.pc]
		fallThrough := f.pc + 1

		var rec *BranchRecord
		nextPC := fallThrough
		if in.Op.IsBranch() {
			target, resolvable := f.branchTarget(in)
			prediction := f.predictor.Predict(in.Op, f.pc, target, resolvable, fallThrough)
			rec = &prediction
			nextPC = prediction.PredictedTarget
		}

		uid := f.uids.next()
		iq.Push(in, f.pc, rec, uid)
		lastUID = uid
		f.pc = nextPC

		if rec != nil && rec.PredictedTaken {
			// A predicted-taken branch redirects fetch immediately; stop
			// fetching further instructions from the old path this cycle.
			return lastUID
		}
	}
	return lastUID
}

// branchTarget extracts a speculative target address for in. Direct
// branches, and CBZ/CBNZ's trailing label operand, resolve immediately —
// a label is always searched for first, since CBZ/CBNZ's leading source
// is the condition register, not the target. Only once no source carries
// a resolved label does a lone register source (BX/RET) fall back to
// reading that register's value: directly if it is not renamed, or its
// already-published value if it is. A renamed register whose producer
// has not yet published leaves the target unresolvable; the predictor
// then guesses not-taken and retirement corrects course if that was
// wrong.
func (f *Frontend) branchTarget(in insts.Instruction) (target uint64, resolvable bool) {
	for i := uint8(0); i < in.NumSrc; i++ {
		if in.Sources[i].Kind == insts.OperandLabel {
			return in.Sources[i].Imm, true
		}
	}
	for i := uint8(0); i < in.NumSrc; i++ {
		if in.Sources[i].Kind == insts.OperandReg {
			st := f.arf.State(in.Sources[i].Reg)
			if !st.Renamed {
				return st.Value, true
			}
			if f.prf.Ready(st.Phys) {
				return f.prf.Value(st.Phys), true
			}
			return 0, false
		}
	}
	return 0, false
}
