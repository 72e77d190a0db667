package core

import "github.com/sarchlab/ooopipe/insts"

// BranchRecord is the prediction snapshot carried alongside a branch
// instruction from decode through retirement: what the predictor guessed,
// so retirement can compare against the resolved outcome and trigger a
// flush on mismatch.
type BranchRecord struct {
	PredictedTaken  bool
	PredictedTarget uint64
	// FallThrough is the address the frontend would have fetched next had
	// the branch not been taken; it is the predicted target when
	// PredictedTaken is false.
	FallThrough uint64
}

// BranchPredictor implements a static, direction-only policy: backward
// branches predict taken, forward branches predict not-taken,
// unconditional and call/return forms always predict taken to their
// resolvable target.
type BranchPredictor struct{}

// NewBranchPredictor constructs the static predictor. It carries no
// state of its own; the policy is a pure function of the instruction.
func NewBranchPredictor() *BranchPredictor { return &BranchPredictor{} }

// Predict returns the prediction for a branch at pc, given its decoded
// target operand (insts.OperandLabel for direct branches) and the next
// sequential address fallThroughPC. For BX/RET, whose target is a
// register read rather than a resolved label, resolvable is false
// whenever that register is renamed but not yet published; Predict then
// falls back to the predicted-not-taken path, leaving retirement to
// discover the real target and flush if the fall-through guess was wrong.
func (p *BranchPredictor) Predict(op insts.Op, pc uint64, target uint64, resolvable bool, fallThroughPC uint64) BranchRecord {
	switch {
	case op == insts.OpB || op == insts.OpBL:
		return BranchRecord{PredictedTaken: true, PredictedTarget: target, FallThrough: fallThroughPC}
	case op == insts.OpBX || op == insts.OpRET:
		if resolvable {
			return BranchRecord{PredictedTaken: true, PredictedTarget: target, FallThrough: fallThroughPC}
		}
		return BranchRecord{PredictedTaken: false, PredictedTarget: fallThroughPC, FallThrough: fallThroughPC}
	case op.IsConditional() || op == insts.OpCBZ || op == insts.OpCBNZ:
		if resolvable && target < pc {
			return BranchRecord{PredictedTaken: true, PredictedTarget: target, FallThrough: fallThroughPC}
		}
		return BranchRecord{PredictedTaken: false, PredictedTarget: fallThroughPC, FallThrough: fallThroughPC}
	default:
		return BranchRecord{PredictedTaken: false, PredictedTarget: fallThroughPC, FallThrough: fallThroughPC}
	}
}
