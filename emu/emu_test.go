package emu_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/emu"
	"github.com/sarchlab/ooopipe/insts"
	"github.com/sarchlab/ooopipe/loader"
)

func mustParse(src string) *insts.Program {
	prog, err := loader.Parse(src)
	Expect(err).NotTo(HaveOccurred())
	return prog
}

var _ = Describe("Emulator", func() {
	It("should execute a trivial add and print the result", func() {
		prog := mustParse(`
.text
.global start
start:
    MOV r0, #3
    MOV r1, #4
    ADD r2, r0, r1
    PRINTR r2
`)
		var out bytes.Buffer
		e := emu.New(prog, 128, &out)
		Expect(e.Run(100)).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("7\n"))
	})

	It("should round-trip a store and load", func() {
		prog := mustParse(`
.data
slot: .word 0
.text
.global start
start:
    MOV r0, #42
    MOV r1, =slot
    STR r0, [r1]
    LDR r2, [r1]
    PRINTR r2
`)
		var out bytes.Buffer
		e := emu.New(prog, 128, &out)
		Expect(e.Run(100)).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("42\n"))
		Expect(e.Memory(0)).To(Equal(uint64(42)))
	})

	It("should treat SDIV by zero as producing zero", func() {
		prog := mustParse(`
.text
.global start
start:
    MOV r0, #10
    MOV r1, #0
    SDIV r2, r0, r1
    PRINTR r2
`)
		var out bytes.Buffer
		e := emu.New(prog, 128, &out)
		Expect(e.Run(100)).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("0\n"))
	})

	It("should take a conditional branch when its flags match", func() {
		prog := mustParse(`
.text
.global start
start:
    MOV r0, #5
    MOV r1, #5
    CMP r0, r1
    BEQ eq
    MOV r2, #0
    B out
eq:
    MOV r2, #1
out:
    PRINTR r2
`)
		var out bytes.Buffer
		e := emu.New(prog, 128, &out)
		Expect(e.Run(100)).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("1\n"))
	})

	It("should fail on an out-of-bounds memory access", func() {
		prog := mustParse(`
.text
.global start
start:
    MOV r0, #1000
    LDR r1, [r0]
`)
		var out bytes.Buffer
		e := emu.New(prog, 16, &out)
		Expect(e.Run(100)).To(HaveOccurred())
	})
})
