// Package emu is a small in-order reference interpreter over the same
// program image the pipeline backend consumes. It exists purely as an
// oracle for tests: a program's PRINTR output under the pipeline must
// match its PRINTR output here, instruction by instruction, regardless
// of how the pipeline reordered and sped up execution to produce it.
package emu

import (
	"fmt"
	"io"

	"github.com/sarchlab/ooopipe/insts"
)

// Emulator executes a Program one instruction at a time, in program
// order, with no speculation and no renaming: the ground truth the
// pipeline is checked against.
type Emulator struct {
	program *insts.Program
	regs    [insts.NumArchRegs]uint64
	mem     []uint64
	pc      uint64
	output  io.Writer
}

// New constructs an emulator over program with a memory of the given
// word count.
func New(program *insts.Program, memSize int, output io.Writer) *Emulator {
	e := &Emulator{
		program: program,
		mem:     make([]uint64, memSize),
		pc:      program.EntryPoint,
		output:  output,
	}
	for _, d := range program.Data {
		if int(d.Addr) < len(e.mem) {
			e.mem[d.Addr] = d.Value
		}
	}
	e.regs[insts.RegSP] = uint64(memSize)
	return e
}

// Register returns the current value of an architectural register.
func (e *Emulator) Register(reg uint8) uint64 { return e.regs[reg] }

// Memory returns the word at addr.
func (e *Emulator) Memory(addr uint64) uint64 { return e.mem[addr] }

// Run executes until PC runs off the end of the program image or
// maxSteps instructions have executed (maxSteps<=0 means unbounded,
// used only by tests on programs known to terminate).
func (e *Emulator) Run(maxSteps int) error {
	steps := 0
	for e.pc < uint64(len(e.program.Instructions)) {
		if maxSteps > 0 && steps >= maxSteps {
			return fmt.Errorf("exceeded %d steps without halting", maxSteps)
		}
		if err := e.step(); err != nil {
			return err
		}
		steps++
	}
	return nil
}

func (e *Emulator) step() error {
	in := e.program.Instructions[e.pc]
	next := e.pc + 1

	val := func(o insts.Operand) uint64 {
		switch o.Kind {
		case insts.OperandReg, insts.OperandMemIndirect:
			return e.regs[o.Reg]
		default:
			return o.Imm
		}
	}

	switch in.Op {
	case insts.OpADD:
		e.setDest(in, val(in.Sources[0])+val(in.Sources[1]))
	case insts.OpSUB:
		e.setDest(in, val(in.Sources[0])-val(in.Sources[1]))
	case insts.OpRSB:
		e.setDest(in, val(in.Sources[1])-val(in.Sources[0]))
	case insts.OpMUL:
		e.setDest(in, val(in.Sources[0])*val(in.Sources[1]))
	case insts.OpSDIV:
		b := int64(val(in.Sources[1]))
		if b == 0 {
			e.setDest(in, 0)
		} else {
			e.setDest(in, uint64(int64(val(in.Sources[0]))/b))
		}
	case insts.OpNEG:
		e.setDest(in, uint64(-int64(val(in.Sources[0]))))
	case insts.OpAND:
		e.setDest(in, val(in.Sources[0])&val(in.Sources[1]))
	case insts.OpORR:
		e.setDest(in, val(in.Sources[0])|val(in.Sources[1]))
	case insts.OpEOR:
		e.setDest(in, val(in.Sources[0])^val(in.Sources[1]))
	case insts.OpMVN:
		e.setDest(in, ^val(in.Sources[0]))
	case insts.OpMOV:
		e.setDest(in, val(in.Sources[0]))
	case insts.OpLDR:
		addr := val(in.Sources[0])
		if addr >= uint64(len(e.mem)) {
			return fmt.Errorf("memory access out of bounds at instruction %d: addr=%d", e.pc, addr)
		}
		e.setDest(in, e.mem[addr])
	case insts.OpSTR:
		addr := val(in.Sources[1])
		if addr >= uint64(len(e.mem)) {
			return fmt.Errorf("memory access out of bounds at instruction %d: addr=%d", e.pc, addr)
		}
		e.mem[addr] = val(in.Sources[0])
	case insts.OpCMP:
		e.setFlags(val(in.Sources[0]), val(in.Sources[1]))
	case insts.OpTST:
		v := val(in.Sources[0]) & val(in.Sources[1])
		e.regs[insts.RegFlags] = boolFlags(int64(v) < 0, v == 0)
	case insts.OpTEQ:
		v := val(in.Sources[0]) ^ val(in.Sources[1])
		e.regs[insts.RegFlags] = boolFlags(int64(v) < 0, v == 0)
	case insts.OpB:
		next = val(in.Sources[0])
	case insts.OpBL:
		e.regs[insts.RegLR] = e.pc + 1
		next = val(in.Sources[0])
	case insts.OpBX, insts.OpRET:
		next = val(in.Sources[0])
	case insts.OpCBZ:
		if val(in.Sources[0]) == 0 {
			next = val(in.Sources[1])
		}
	case insts.OpCBNZ:
		if val(in.Sources[0]) != 0 {
			next = val(in.Sources[1])
		}
	case insts.OpBEQ, insts.OpBNE, insts.OpBLE, insts.OpBLT, insts.OpBGE, insts.OpBGT:
		n, z, _, v := e.flags()
		if evalCond(in.Op, n, z, v) {
			next = val(in.Sources[0])
		}
	case insts.OpNOP, insts.OpDSB:
		// no effect
	case insts.OpPRINTR:
		fmt.Fprintf(e.output, "%d\n", int64(val(in.Sources[0])))
	}

	e.pc = next
	return nil
}

func (e *Emulator) setDest(in insts.Instruction, v uint64) {
	if in.HasSink && in.Sink.Kind == insts.OperandReg {
		e.regs[in.Sink.Reg] = v
	}
}

func (e *Emulator) setFlags(a, b uint64) {
	diff := int64(a) - int64(b)
	n := diff < 0
	z := diff == 0
	c := a < b // true on borrow, matching the original's wrapping_sub check
	v := (int64(a) >= 0 && int64(b) < 0 && diff < 0) || (int64(a) < 0 && int64(b) >= 0 && diff >= 0)
	var f uint64
	if n {
		f |= 1
	}
	if z {
		f |= 2
	}
	if c {
		f |= 4
	}
	if v {
		f |= 8
	}
	e.regs[insts.RegFlags] = f
}

func boolFlags(n, z bool) uint64 {
	var f uint64
	if n {
		f |= 1
	}
	if z {
		f |= 2
	}
	return f
}

func (e *Emulator) flags() (n, z, c, v bool) {
	f := e.regs[insts.RegFlags]
	return f&1 != 0, f&2 != 0, f&4 != 0, f&8 != 0
}

func evalCond(op insts.Op, n, z, v bool) bool {
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
