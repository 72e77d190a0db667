package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/core"
)

var _ = Describe("StoreBuffer", func() {
	var sb *core.StoreBuffer

	BeforeEach(func() {
		sb = core.NewStoreBuffer(4)
	})

	It("should allocate and report older entries newest-first", func() {
		idx0, _ := sb.FreeSlot()
		sb.Allocate(idx0, 1)
		idx1, _ := sb.FreeSlot()
		sb.Allocate(idx1, 5)
		idx2, _ := sb.FreeSlot()
		sb.Allocate(idx2, 3)

		older := sb.OlderThan(10)
		Expect(older).To(Equal([]uint16{idx1, idx2, idx0}))
	})

	It("should forward from the newest matching older store once its value resolves", func() {
		idx, _ := sb.FreeSlot()
		sb.Allocate(idx, 1)
		sb.SetAddr(idx, 64)

		r := sb.Forward(64, []uint16{idx})
		Expect(r.Matched).To(BeTrue())
		Expect(r.Ready).To(BeFalse())

		sb.SetValue(idx, 777)
		r = sb.Forward(64, []uint16{idx})
		Expect(r.Matched).To(BeTrue())
		Expect(r.Ready).To(BeTrue())
		Expect(r.Value).To(Equal(uint64(777)))
	})

	It("should report no match for an address no older store touches", func() {
		idx, _ := sb.FreeSlot()
		sb.Allocate(idx, 1)
		sb.SetAddr(idx, 64)
		sb.SetValue(idx, 1)

		r := sb.Forward(128, []uint16{idx})
		Expect(r.Matched).To(BeFalse())
	})

	It("should flag a hazard when an older store's address is still unknown", func() {
		idx, _ := sb.FreeSlot()
		sb.Allocate(idx, 1)
		Expect(sb.HasUnresolvedHazard(64, []uint16{idx})).To(BeTrue())
	})

	It("should flag a hazard when an older store matches but its value is unresolved", func() {
		idx, _ := sb.FreeSlot()
		sb.Allocate(idx, 1)
		sb.SetAddr(idx, 64)
		Expect(sb.HasUnresolvedHazard(64, []uint16{idx})).To(BeTrue())
	})

	It("should not flag a hazard once every older store is resolved and non-aliasing", func() {
		idx, _ := sb.FreeSlot()
		sb.Allocate(idx, 1)
		sb.SetAddr(idx, 64)
		sb.SetValue(idx, 1)
		Expect(sb.HasUnresolvedHazard(128, []uint16{idx})).To(BeFalse())
	})

	It("should drain a commit-eligible entry to memory and free its slot", func() {
		mem := core.NewMemory(16)
		idx, _ := sb.FreeSlot()
		sb.Allocate(idx, 1)
		sb.SetAddr(idx, 5)
		sb.SetValue(idx, 9)
		sb.MarkCommitEligible(idx)

		sb.DrainOne(idx, mem)
		Expect(mem.Load(5)).To(Equal(uint64(9)))
		Expect(sb.Get(idx).Valid).To(BeFalse())
	})

	It("should invalidate a flushed entry without touching memory", func() {
		mem := core.NewMemory(16)
		idx, _ := sb.FreeSlot()
		sb.Allocate(idx, 1)
		sb.SetAddr(idx, 5)
		sb.SetValue(idx, 9)
		sb.Invalidate(idx)
		Expect(sb.Get(idx).Valid).To(BeFalse())
		Expect(mem.Load(5)).To(Equal(uint64(0)))
	})
})
