package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/core"
	"github.com/sarchlab/ooopipe/insts"
)

var _ = Describe("ReservationStationTable", func() {
	var rs *core.ReservationStationTable

	BeforeEach(func() {
		rs = core.NewReservationStationTable(4)
	})

	It("should hand out free slots and track occupancy", func() {
		Expect(rs.FreeCount()).To(Equal(4))
		idx, ok := rs.FreeSlot()
		Expect(ok).To(BeTrue())
		rs.Allocate(idx, core.RSEntry{Op: insts.OpADD, Seq: 1})
		Expect(rs.FreeCount()).To(Equal(3))
		Expect(rs.Get(idx).Valid).To(BeTrue())
	})

	It("should report full once every slot is allocated", func() {
		for i := 0; i < 4; i++ {
			idx, ok := rs.FreeSlot()
			Expect(ok).To(BeTrue())
			rs.Allocate(idx, core.RSEntry{Seq: uint64(i)})
		}
		_, ok := rs.FreeSlot()
		Expect(ok).To(BeFalse())
	})

	It("should select oldest-first among ready entries", func() {
		rs.Allocate(0, core.RSEntry{Seq: 5, NumSrc: 0})
		rs.Allocate(1, core.RSEntry{Seq: 2, NumSrc: 0})
		rs.Allocate(2, core.RSEntry{Seq: 8, NumSrc: 0})
		ready := rs.ReadyIndices()
		Expect(ready).To(Equal([]uint16{1, 0, 2}))
	})

	It("should exclude entries still waiting on a source", func() {
		rs.Allocate(0, core.RSEntry{Seq: 1, NumSrc: 1, Src: [3]core.RSSourceOperand{{Ready: false, Tag: 9}}})
		Expect(rs.ReadyIndices()).To(BeEmpty())

		rs.Wakeup(9, 42)
		e := rs.Get(0)
		Expect(e.Src[0].Ready).To(BeTrue())
		Expect(e.Src[0].Value).To(Equal(uint64(42)))
		Expect(rs.ReadyIndices()).To(Equal([]uint16{0}))
	})

	It("should exclude entries already dispatched", func() {
		rs.Allocate(0, core.RSEntry{Seq: 1})
		rs.Get(0).Dispatched = true
		Expect(rs.ReadyIndices()).To(BeEmpty())
	})

	It("should release slots by ROB index on flush", func() {
		rs.Allocate(0, core.RSEntry{Seq: 1, ROBIndex: 3})
		rs.Allocate(1, core.RSEntry{Seq: 2, ROBIndex: 7})
		rs.ReleaseByROBIndices([]uint16{3})
		Expect(rs.Get(0).Valid).To(BeFalse())
		Expect(rs.Get(1).Valid).To(BeTrue())
	})
})
