package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/core"
	"github.com/sarchlab/ooopipe/insts"
)

var _ = Describe("BranchPredictor", func() {
	var p *core.BranchPredictor

	BeforeEach(func() {
		p = core.NewBranchPredictor()
	})

	It("should always predict unconditional branches taken to their target", func() {
		rec := p.Predict(insts.OpB, 100, 40, true, 104)
		Expect(rec.PredictedTaken).To(BeTrue())
		Expect(rec.PredictedTarget).To(Equal(uint64(40)))
	})

	It("should predict backward conditional branches taken", func() {
		rec := p.Predict(insts.OpBEQ, 100, 40, true, 104)
		Expect(rec.PredictedTaken).To(BeTrue())
		Expect(rec.PredictedTarget).To(Equal(uint64(40)))
	})

	It("should predict forward conditional branches not taken", func() {
		rec := p.Predict(insts.OpBEQ, 100, 200, true, 104)
		Expect(rec.PredictedTaken).To(BeFalse())
		Expect(rec.PredictedTarget).To(Equal(uint64(104)))
	})

	It("should predict CBZ/CBNZ with the same backward/forward policy", func() {
		rec := p.Predict(insts.OpCBNZ, 100, 40, true, 104)
		Expect(rec.PredictedTaken).To(BeTrue())

		rec = p.Predict(insts.OpCBZ, 100, 200, true, 104)
		Expect(rec.PredictedTaken).To(BeFalse())
	})

	It("should predict BX/RET taken only when the target is resolvable", func() {
		rec := p.Predict(insts.OpRET, 100, 8, true, 104)
		Expect(rec.PredictedTaken).To(BeTrue())
		Expect(rec.PredictedTarget).To(Equal(uint64(8)))

		rec = p.Predict(insts.OpRET, 100, 0, false, 104)
		Expect(rec.PredictedTaken).To(BeFalse())
		Expect(rec.PredictedTarget).To(Equal(uint64(104)))
	})

	It("should always set FallThrough to the next sequential address", func() {
		rec := p.Predict(insts.OpBEQ, 100, 40, true, 104)
		Expect(rec.FallThrough).To(Equal(uint64(104)))
	})
})
