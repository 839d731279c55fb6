package stream_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/catalyst/pkg/stream"
)

type scored struct {
	TotalScore int            `json:"totalScore"`
	Dimensions map[string]int `json:"dimensions"`
}

var _ = Describe("Extract", func() {
	It("finds the object between the first and last brace", func() {
		text := "noise {\"totalScore\":7,\"dimensions\":{\"focus\":8}} trailing"

		raw, ok := stream.ExtractObject(text)
		Expect(ok).To(BeTrue())
		Expect(string(raw)).To(Equal("{\"totalScore\":7,\"dimensions\":{\"focus\":8}}"))

		v, err := stream.Extract[scored](text)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.TotalScore).To(Equal(7))
		Expect(v.Dimensions).To(HaveKeyWithValue("focus", 8))
	})

	It("reports no result without an opening brace", func() {
		_, ok := stream.ExtractObject("the model refused")
		Expect(ok).To(BeFalse())

		_, err := stream.Extract[scored]("the model refused")
		Expect(err).To(MatchError(stream.ErrNoResult))
	})

	It("reports no result when braces are out of order", func() {
		_, ok := stream.ExtractObject("} then {")
		Expect(ok).To(BeFalse())
	})

	It("reports no result for unparsable text between braces", func() {
		_, ok := stream.ExtractObject("{\"a\": 1} and {\"b\": 2}")
		Expect(ok).To(BeFalse())
	})

	It("wraps ErrNoResult when the object has the wrong shape", func() {
		_, err := stream.Extract[scored]("{\"totalScore\":\"high\"}")
		Expect(err).To(MatchError(stream.ErrNoResult))
	})

	It("is idempotent", func() {
		text := "```json\n{\"totalScore\":3}\n```"
		first, err1 := stream.Extract[scored](text)
		second, err2 := stream.Extract[scored](text)

		Expect(err1).NotTo(HaveOccurred())
		Expect(err2).NotTo(HaveOccurred())
		Expect(first).To(Equal(second))
	})
})
