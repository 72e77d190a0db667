package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/core"
	"github.com/sarchlab/ooopipe/insts"
)

var _ = Describe("Memory", func() {
	It("should store and load words by word-address", func() {
		m := core.NewMemory(16)
		m.Store(3, 55)
		Expect(m.Load(3)).To(Equal(uint64(55)))
	})

	It("should report bounds correctly", func() {
		m := core.NewMemory(16)
		Expect(m.InBounds(15)).To(BeTrue())
		Expect(m.InBounds(16)).To(BeFalse())
		Expect(m.Size()).To(Equal(uint64(16)))
	})

	It("should seed data words at load time", func() {
		m := core.NewMemory(16)
		m.LoadData([]insts.DataWord{{Addr: 2, Value: 7}, {Addr: 20, Value: 9}})
		Expect(m.Load(2)).To(Equal(uint64(7)))
	})
})
