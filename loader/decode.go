package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/ooopipe/insts"
)

// decodeInstruction parses one `;`-terminated statement (mnemonic plus
// comma-separated operands) into an insts.Instruction at program
// address addr.
func decodeInstruction(text string, lineNo int, addr uint64, labels, dataAddr map[string]uint64) (insts.Instruction, error) {
	mnemonic, operandText, _ := strings.Cut(text, " ")
	mnemonic = strings.ToUpper(strings.TrimSpace(mnemonic))
	op, ok := insts.LookupMnemonic(mnemonic)
	if !ok {
		return insts.Instruction{}, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("unknown mnemonic %q", mnemonic)}
	}

	var operands []insts.Operand
	for _, tok := range splitOperands(operandText) {
		o, err := parseOperand(tok, lineNo, labels, dataAddr)
		if err != nil {
			return insts.Instruction{}, err
		}
		operands = append(operands, o)
	}

	in := insts.Instruction{Op: op, Addr: addr, Line: lineNo}
	if err := shapeInstruction(&in, operands, lineNo); err != nil {
		return insts.Instruction{}, err
	}
	return in, nil
}

func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseOperand(tok string, lineNo int, labels, dataAddr map[string]uint64) (insts.Operand, error) {
	switch {
	case strings.HasPrefix(tok, "#"):
		v, err := parseIntLiteral(tok[1:])
		if err != nil {
			return insts.Operand{}, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("bad immediate %q", tok)}
		}
		return insts.Immediate(v), nil

	case strings.HasPrefix(tok, "="):
		name := tok[1:]
		addr, ok := dataAddr[name]
		if !ok {
			return insts.Operand{}, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("undefined data label %q", name)}
		}
		return insts.AddressOf(addr), nil

	case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]"):
		reg, err := parseRegister(strings.TrimSpace(tok[1 : len(tok)-1]))
		if err != nil {
			return insts.Operand{}, &DecodeError{Line: lineNo, Reason: err.Error()}
		}
		return insts.MemIndirect(reg), nil

	default:
		if reg, err := parseRegister(tok); err == nil {
			return insts.Register(reg), nil
		}
		target, ok := labels[tok]
		if !ok {
			return insts.Operand{}, &DecodeError{Line: lineNo, Reason: fmt.Sprintf("undefined label %q", tok)}
		}
		return insts.Label(target), nil
	}
}

// parseRegister recognizes r0-r31 and the sp/fp/lr aliases, matching
// insts.RegSP/RegFP/RegLR.
func parseRegister(tok string) (uint8, error) {
	lower := strings.ToLower(tok)
	switch lower {
	case "sp":
		return insts.RegSP, nil
	case "fp":
		return insts.RegFP, nil
	case "lr":
		return insts.RegLR, nil
	}
	if strings.HasPrefix(lower, "r") {
		n, err := strconv.Atoi(lower[1:])
		if err == nil && n >= 0 && n < int(insts.RegFlags) {
			return uint8(n), nil
		}
	}
	return 0, fmt.Errorf("not a register: %q", tok)
}

// shapeInstruction fills in, from the decoded operand list, the
// fixed-width Sources/Sink/IsStore layout every downstream pipeline
// stage relies on (insts.Instruction).
func shapeInstruction(in *insts.Instruction, ops []insts.Operand, lineNo int) error {
	need := func(n int) error {
		if len(ops) != n {
			return &DecodeError{Line: lineNo, Reason: fmt.Sprintf("%s expects %d operand(s), got %d", in.Op, n, len(ops))}
		}
		return nil
	}
	sink := func(idx int) {
		if ops[idx].Kind != insts.OperandReg {
			return
		}
		in.HasSink = true
		in.Sink = ops[idx]
	}
	src := func(idxs ...int) {
		for _, i := range idxs {
			in.Sources[in.NumSrc] = ops[i]
			in.NumSrc++
		}
	}

	switch in.Op {
	case insts.OpADD, insts.OpSUB, insts.OpRSB, insts.OpMUL, insts.OpSDIV,
		insts.OpAND, insts.OpORR, insts.OpEOR:
		if err := need(3); err != nil {
			return err
		}
		sink(0)
		src(1, 2)

	case insts.OpNEG, insts.OpMVN:
		if err := need(2); err != nil {
			return err
		}
		sink(0)
		src(1)

	case insts.OpMOV:
		if len(ops) != 2 {
			return &DecodeError{Line: lineNo, Reason: "MOV rD, rS, #imm is not supported; use ADD rD, rS, #imm"}
		}
		sink(0)
		src(1)

	case insts.OpLDR:
		if err := need(2); err != nil {
			return err
		}
		sink(0)
		src(1)

	case insts.OpSTR:
		if err := need(2); err != nil {
			return err
		}
		in.IsStore = true
		src(0, 1)

	case insts.OpCMP, insts.OpTST, insts.OpTEQ:
		if err := need(2); err != nil {
			return err
		}
		src(0, 1)

	case insts.OpB, insts.OpBL:
		if err := need(1); err != nil {
			return err
		}
		src(0)
		if in.Op == insts.OpBL {
			in.HasSink = true
			in.Sink = insts.Register(insts.RegLR)
		}

	case insts.OpBX:
		if err := need(1); err != nil {
			return err
		}
		src(0)

	case insts.OpRET:
		if err := need(0); err != nil {
			return err
		}
		in.Sources[0] = insts.Register(insts.RegLR)
		in.NumSrc = 1

	case insts.OpCBZ, insts.OpCBNZ:
		if err := need(2); err != nil {
			return err
		}
		src(0, 1)

	case insts.OpBEQ, insts.OpBNE, insts.OpBLE, insts.OpBLT, insts.OpBGE, insts.OpBGT:
		if err := need(1); err != nil {
			return err
		}
		src(0)
		in.Sources[in.NumSrc] = insts.Register(insts.RegFlags)
		in.NumSrc++

	case insts.OpNOP, insts.OpDSB:
		if err := need(0); err != nil {
			return err
		}

	case insts.OpPRINTR:
		if err := need(1); err != nil {
			return err
		}
		src(0)

	default:
		return &DecodeError{Line: lineNo, Reason: fmt.Sprintf("unhandled opcode %s", in.Op)}
	}
	return nil
}
