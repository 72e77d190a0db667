package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/core"
	"github.com/sarchlab/ooopipe/insts"
)

var _ = Describe("Latency", func() {
	It("should return the documented fixed latencies", func() {
		Expect(core.Latency(insts.OpMUL)).To(Equal(3))
		Expect(core.Latency(insts.OpSDIV)).To(Equal(20))
		Expect(core.Latency(insts.OpLDR)).To(Equal(3))
		Expect(core.Latency(insts.OpADD)).To(Equal(1))
	})
})

var _ = Describe("ExecutionUnits", func() {
	var eu *core.ExecutionUnits

	BeforeEach(func() {
		eu = core.NewExecutionUnits(2)
	})

	It("should occupy a unit for its full latency before completing", func() {
		idx, ok := eu.FreeSlot()
		Expect(ok).To(BeTrue())
		eu.Dispatch(idx, core.ExecPayload{Op: insts.OpMUL, ROBIndex: 1}, 3)

		Expect(eu.Advance()).To(BeEmpty())
		Expect(eu.Advance()).To(BeEmpty())
		Expect(eu.Advance()).To(Equal([]uint16{idx}))
	})

	It("should report exhaustion once every unit is busy", func() {
		for i := 0; i < 2; i++ {
			idx, ok := eu.FreeSlot()
			Expect(ok).To(BeTrue())
			eu.Dispatch(idx, core.ExecPayload{}, 1)
		}
		_, ok := eu.FreeSlot()
		Expect(ok).To(BeFalse())
	})

	It("should free a unit by its occupant's ROB index on flush", func() {
		idx, _ := eu.FreeSlot()
		eu.Dispatch(idx, core.ExecPayload{ROBIndex: 5}, 10)
		Expect(eu.BusyROBIndices()).To(Equal([]uint16{5}))

		eu.FreeByROBIndex(5)
		Expect(eu.BusyROBIndices()).To(BeEmpty())
		_, ok := eu.FreeSlot()
		Expect(ok).To(BeTrue())
	})
})
