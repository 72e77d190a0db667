package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ooopipe/config"
)

var _ = Describe("CPUConfig", func() {
	Describe("Default", func() {
		It("should be valid", func() {
			Expect(config.Default().Validate()).NotTo(HaveOccurred())
		})
	})

	Describe("Validate", func() {
		var cfg config.CPUConfig

		BeforeEach(func() {
			cfg = config.Default()
		})

		It("should reject a non-positive rs_count", func() {
			cfg.RSCount = 0
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("should reject a phys_reg_count below 33", func() {
			cfg.PhysRegCount = 32
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("should report the offending field in the error", func() {
			cfg.ROBCapacity = -1
			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			var verr *config.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(err.(*config.ValidationError).Field).To(Equal("rob_capacity"))
		})
	})

	Describe("Load / Save round trip", func() {
		It("should recover an equivalent configuration", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "cfg.yaml")

			original := config.Default()
			original.RSCount = 4
			original.Trace.Retire = true

			Expect(config.Save(path, original)).NotTo(HaveOccurred())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should fall back to defaults for fields a partial file omits", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "partial.yaml")
			Expect(os.WriteFile(path, []byte("rs_count: 4\n"), 0o644)).NotTo(HaveOccurred())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.RSCount).To(Equal(4))
			Expect(loaded.ROBCapacity).To(Equal(config.Default().ROBCapacity))
		})

		It("should reject an invalid loaded configuration", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "bad.yaml")
			Expect(os.WriteFile(path, []byte("rs_count: -1\n"), 0o644)).NotTo(HaveOccurred())

			_, err := config.Load(path)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should produce an independent equal copy", func() {
			original := config.Default()
			clone := original.Clone()
			clone.RSCount = 999
			Expect(original.RSCount).NotTo(Equal(clone.RSCount))
		})
	})
})
