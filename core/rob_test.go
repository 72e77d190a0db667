package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/core"
)

var _ = Describe("ReorderBuffer", func() {
	var rob *core.ReorderBuffer

	BeforeEach(func() {
		rob = core.NewReorderBuffer(4)
	})

	It("should allocate at the tail and retire from the head in order", func() {
		i0 := rob.Allocate(core.ROBEntry{Addr: 0})
		i1 := rob.Allocate(core.ROBEntry{Addr: 4})
		Expect(i0).To(Equal(uint16(0)))
		Expect(i1).To(Equal(uint16(1)))
		Expect(rob.Len()).To(Equal(2))

		idx, entry, ok := rob.Head()
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(i0))
		Expect(entry.Addr).To(Equal(uint64(0)))

		rob.RetireHead()
		Expect(rob.Len()).To(Equal(1))
		idx, _, ok = rob.Head()
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(i1))
	})

	It("should report empty with no ok head and full once saturated", func() {
		_, _, ok := rob.Head()
		Expect(ok).To(BeFalse())
		Expect(rob.Empty()).To(BeTrue())

		for i := 0; i < 4; i++ {
			rob.Allocate(core.ROBEntry{})
		}
		Expect(rob.Full()).To(BeTrue())
	})

	It("should wrap slot indices around capacity", func() {
		for i := 0; i < 3; i++ {
			rob.Allocate(core.ROBEntry{})
			rob.RetireHead()
		}
		idx := rob.Allocate(core.ROBEntry{Addr: 99})
		Expect(idx).To(Equal(uint16(3)))
		idx2 := rob.Allocate(core.ROBEntry{Addr: 100})
		Expect(idx2).To(Equal(uint16(0)))
	})

	It("should list in-flight indices oldest first and flush them all", func() {
		rob.Allocate(core.ROBEntry{})
		rob.Allocate(core.ROBEntry{})
		rob.Allocate(core.ROBEntry{})
		Expect(rob.Indices()).To(Equal([]uint16{0, 1, 2}))

		rob.Flush()
		Expect(rob.Empty()).To(BeTrue())
		Expect(rob.Indices()).To(BeEmpty())
	})

	It("should allow in-place mutation through Get", func() {
		idx := rob.Allocate(core.ROBEntry{})
		rob.Get(idx).Done = true
		rob.Get(idx).Result = 123
		_, entry, _ := rob.Head()
		Expect(entry.Done).To(BeTrue())
		Expect(entry.Result).To(Equal(uint64(123)))
	})
})
