package testutils

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/catalyst/pkg/storage"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

// NewRecord returns a normalized record for title created at createdAt.
func NewRecord(title string, createdAt time.Time) *workshop.Record {
	rec := workshop.SaveRequest{
		TopicTitle:      title,
		TopicBackground: "background of " + title,
		TotalScore:      7,
		GoldenQuestions: []string{"what changed?"},
		Participants:    []string{"alice", "bob"},
		ActionPlan:      []workshop.PlanEntry{{Owner: "alice", Action: "ship it", Deadline: "friday"}},
		SummaryReport:   "# " + title,
	}.Record(createdAt.Add(time.Minute))
	rec.CreatedAt = createdAt
	return rec
}

// DescribeDriver registers the behavior every storage.Driver shares.
// newDriver is called before each test; the returned driver is closed after.
func DescribeDriver(name string, newDriver func() storage.Driver) bool {
	return Describe(name+" driver contract", func() {
		var (
			driver storage.Driver
			ctx    context.Context
			base   time.Time
		)

		BeforeEach(func() {
			ctx = context.Background()
			base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
			driver = newDriver()
		})

		AfterEach(func() {
			if driver != nil {
				driver.Close()
			}
		})

		Describe("Create and Get", func() {
			It("stores and retrieves a record", func() {
				created, err := driver.Create(ctx, NewRecord("slow releases", base))
				Expect(err).NotTo(HaveOccurred())
				Expect(created.ID).NotTo(BeEmpty())

				got, err := driver.Get(ctx, created.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.TopicTitle).To(Equal("slow releases"))
				Expect(got.TopicBackground).To(Equal("background of slow releases"))
				Expect(got.TotalScore).To(Equal(7))
				Expect(got.GoldenQuestions).To(Equal([]string{"what changed?"}))
				Expect(got.Participants).To(Equal([]string{"alice", "bob"}))
				Expect(got.ActionPlan).To(Equal([]workshop.PlanEntry{{Owner: "alice", Action: "ship it", Deadline: "friday"}}))
				Expect(got.SummaryReport).To(Equal("# slow releases"))
				Expect(got.CreatedAt.Equal(base)).To(BeTrue())
				Expect(got.CompletedAt).NotTo(BeNil())
				Expect(got.CompletedAt.Equal(base.Add(time.Minute))).To(BeTrue())
			})

			It("keeps empty lists as empty lists", func() {
				created, err := driver.Create(ctx, workshop.SaveRequest{}.Record(base))
				Expect(err).NotTo(HaveOccurred())

				got, err := driver.Get(ctx, created.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(got.GoldenQuestions).To(BeEmpty())
				Expect(got.GoldenQuestions).NotTo(BeNil())
				Expect(got.ActionPlan).NotTo(BeNil())
			})

			It("assigns a creation time when none is given", func() {
				rec := NewRecord("now", base)
				rec.CreatedAt = time.Time{}

				created, err := driver.Create(ctx, rec)
				Expect(err).NotTo(HaveOccurred())
				Expect(created.CreatedAt.IsZero()).To(BeFalse())
			})

			It("returns NotFoundError for an unknown id", func() {
				_, err := driver.Get(ctx, "00000000-0000-0000-0000-000000000000")
				Expect(err).To(HaveOccurred())
				Expect(storage.IsNotFound(err)).To(BeTrue())
			})

			It("rejects nil records", func() {
				_, err := driver.Create(ctx, nil)
				Expect(err).To(MatchError(storage.ErrNilRecord))
			})
		})

		Describe("List", func() {
			It("returns an empty slice for an empty store", func() {
				list, err := driver.List(ctx, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(list).To(BeEmpty())
			})

			It("returns summaries newest first", func() {
				for i, title := range []string{"first", "second", "third"} {
					_, err := driver.Create(ctx, NewRecord(title, base.Add(time.Duration(i)*time.Hour)))
					Expect(err).NotTo(HaveOccurred())
				}

				list, err := driver.List(ctx, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(list).To(HaveLen(3))
				Expect(list[0].TopicTitle).To(Equal("third"))
				Expect(list[1].TopicTitle).To(Equal("second"))
				Expect(list[2].TopicTitle).To(Equal("first"))
				Expect(list[0].Participants).To(Equal([]string{"alice", "bob"}))
			})

			It("caps the listing at MaxList", func() {
				for i := range storage.MaxList + 5 {
					_, err := driver.Create(ctx, NewRecord(fmt.Sprintf("w%02d", i), base.Add(time.Duration(i)*time.Second)))
					Expect(err).NotTo(HaveOccurred())
				}

				list, err := driver.List(ctx, 500)
				Expect(err).NotTo(HaveOccurred())
				Expect(list).To(HaveLen(storage.MaxList))
				Expect(list[0].TopicTitle).To(Equal(fmt.Sprintf("w%02d", storage.MaxList+4)))
			})

			It("honors smaller limits", func() {
				for i := range 3 {
					_, err := driver.Create(ctx, NewRecord(fmt.Sprintf("w%d", i), base.Add(time.Duration(i)*time.Second)))
					Expect(err).NotTo(HaveOccurred())
				}

				list, err := driver.List(ctx, 2)
				Expect(err).NotTo(HaveOccurred())
				Expect(list).To(HaveLen(2))
			})
		})
	})
}
