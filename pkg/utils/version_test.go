package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("build metadata", func() {
	var saved string

	BeforeEach(func() {
		saved = Version
		DeferCleanup(func() { Version = saved })
	})

	It("names the version in the user agent", func() {
		Version = "v1.2.3"
		Expect(UserAgent()).To(Equal("catalyst/v1.2.3"))
	})

	It("prints every stamped field", func() {
		Version = "v1.2.3"
		info := VersionInfo()
		Expect(info).To(ContainSubstring("Version: v1.2.3"))
		Expect(info).To(ContainSubstring("Sha: " + Sha))
		Expect(info).To(ContainSubstring("Built at: " + Buildtime))
	})
})
