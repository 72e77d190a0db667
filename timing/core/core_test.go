package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/config"
	"github.com/sarchlab/ooopipe/loader"
	timingcore "github.com/sarchlab/ooopipe/timing/core"
)

var _ = Describe("Core", func() {
	mustParse := func(src string) *timingcore.Core {
		prog, err := loader.Parse(src)
		Expect(err).NotTo(HaveOccurred())
		c, err := timingcore.NewCore(prog, config.Default())
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	It("should run a trivial program to completion and expose its stats", func() {
		c := mustParse(`
.text
.global start
start:
    MOV r0, #3
    MOV r1, #4
    ADD r2, r0, r1
    PRINTR r2
`)
		_, err := c.Run(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Halted()).To(BeTrue())
		Expect(c.Register(2)).To(Equal(uint64(7)))

		stats := c.Stats()
		Expect(stats.Instructions).To(Equal(uint64(4)))
		Expect(stats.Cycles).To(BeNumerically(">", 0))
		Expect(stats.IPC).To(BeNumerically(">", 0))
	})

	It("should advance exactly one cycle per Tick", func() {
		c := mustParse(`
.text
.global start
start:
    NOP
`)
		before := c.Stats().Cycles
		Expect(c.Tick()).NotTo(HaveOccurred())
		Expect(c.Stats().Cycles).To(Equal(before + 1))
	})

	It("should expose memory written through a store", func() {
		c := mustParse(`
.data
slot: .word 0
.text
.global start
start:
    MOV r0, #9
    MOV r1, =slot
    STR r0, [r1]
`)
		_, err := c.Run(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Memory().Load(0)).To(Equal(uint64(9)))
	})

	It("should restart from scratch on Reset", func() {
		c := mustParse(`
.text
.global start
start:
    MOV r0, #1
    ADD r0, r0, #1
    PRINTR r0
`)
		_, err := c.Run(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Halted()).To(BeTrue())

		Expect(c.Reset()).NotTo(HaveOccurred())
		Expect(c.Halted()).To(BeFalse())
		Expect(c.Stats().Cycles).To(Equal(uint64(0)))

		_, err = c.Run(1000)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Register(0)).To(Equal(uint64(2)))
	})

	It("should invoke the snapshot callback at the configured cycle interval", func() {
		cfg := config.Default()
		cfg.FrequencyHz = 1
		cfg.StatsSeconds = 3
		prog, err := loader.Parse(`
.text
.global start
start:
    MOV r0, #0
loop:
    ADD r0, r0, #1
    CMP r0, #50
    BLT loop
    PRINTR r0
`)
		Expect(err).NotTo(HaveOccurred())
		c, err := timingcore.NewCore(prog, cfg)
		Expect(err).NotTo(HaveOccurred())

		var snapshots []timingcore.Stats
		_, err = c.RunWithSnapshots(1000, func(s timingcore.Stats) {
			snapshots = append(snapshots, s)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(len(snapshots)).To(BeNumerically(">", 0))
		for i, s := range snapshots {
			Expect(s.Cycles).To(BeNumerically(">=", uint64(i+1)*3))
		}
	})

	It("should fall back to a plain run without snapshots when no snapshot interval is configured", func() {
		cfg := config.Default()
		cfg.StatsSeconds = 0
		prog, err := loader.Parse(`
.text
.global start
start:
    MOV r0, #1
    PRINTR r0
`)
		Expect(err).NotTo(HaveOccurred())
		c, err := timingcore.NewCore(prog, cfg)
		Expect(err).NotTo(HaveOccurred())

		var calls int
		_, err = c.RunWithSnapshots(1000, func(timingcore.Stats) { calls++ })
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(0))
	})

	It("should surface a construction error for an invalid configuration", func() {
		prog, err := loader.Parse(`
.text
.global start
start:
    NOP
`)
		Expect(err).NotTo(HaveOccurred())

		bad := config.Default()
		bad.ROBCapacity = 0
		_, err = timingcore.NewCore(prog, bad)
		Expect(err).To(HaveOccurred())
	})
})
