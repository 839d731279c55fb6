package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/catalyst/pkg/client"
	"github.com/papercomputeco/catalyst/pkg/stream"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

func writeFrames(w http.ResponseWriter, frames ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)
	for _, f := range frames {
		_, _ = io.WriteString(w, f)
		flusher.Flush()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var _ = Describe("Client", func() {
	var (
		ctx context.Context
		mux *http.ServeMux
		srv *httptest.Server
		c   *client.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		srv = httptest.NewServer(mux)
		c = client.New(srv.URL + "/")
	})

	AfterEach(func() {
		srv.Close()
	})

	Describe("EvaluateTopic", func() {
		It("streams the evaluation and extracts it once the stream ends", func() {
			var got workshop.Topic
			mux.HandleFunc("POST /api/evaluate-topic", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Header.Get("Accept")).To(Equal("text/event-stream"))
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				writeFrames(w,
					"data: {\"content\":\"Here: {\\\"totalScore\\\": 7,\"}\n\n",
					"data: {\"content\":\" \\\"suggestions\\\": [\\\"narrow it\\\"]}\"}\n\n",
					"data: [DONE]\n\n",
				)
			})

			var deltas []string
			eval, err := c.EvaluateTopic(ctx, workshop.Topic{Title: "Slow releases"}, func(delta, _ string) {
				deltas = append(deltas, delta)
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(got.Title).To(Equal("Slow releases"))
			Expect(deltas).To(HaveLen(2))
			Expect(eval.TotalScore).To(Equal(7))
			Expect(eval.Suggestions).To(Equal([]string{"narrow it"}))
		})

		It("reports no result when the completion holds no object", func() {
			mux.HandleFunc("POST /api/evaluate-topic", func(w http.ResponseWriter, _ *http.Request) {
				writeFrames(w, "data: {\"content\":\"sorry\"}\n\n", "data: [DONE]\n\n")
			})

			_, err := c.EvaluateTopic(ctx, workshop.Topic{}, nil)
			Expect(err).To(MatchError(stream.ErrNoResult))
		})

		It("reports a transport failure for an error status", func() {
			mux.HandleFunc("POST /api/evaluate-topic", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to evaluate topic"})
			})

			_, err := c.EvaluateTopic(ctx, workshop.Topic{}, nil)
			Expect(err).To(MatchError(stream.ErrTransport))

			var te *stream.TransportError
			Expect(errors.As(err, &te)).To(BeTrue())
			Expect(te.StatusCode).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("PreMortem", func() {
		It("wraps the topic and extracts the analysis", func() {
			var got workshop.PreMortemRequest
			mux.HandleFunc("POST /api/pre-mortem", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				writeFrames(w,
					"data: {\"content\":\"{\\\"warning\\\":\\\"w\\\",\\\"riskFactors\\\":[\\\"r\\\"]}\"}\n\n",
					"data: [DONE]\n\n",
				)
			})

			pm, err := c.PreMortem(ctx, workshop.Topic{Title: "t"}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Topic.Title).To(Equal("t"))
			Expect(pm.Warning).To(Equal("w"))
			Expect(pm.RiskFactors).To(Equal([]string{"r"}))
		})
	})

	Describe("ClassifyQuestion", func() {
		req := workshop.ClassifyRequest{Question: "how?", TopicContext: "t"}

		It("returns the normalized classification", func() {
			mux.HandleFunc("POST /api/classify-question", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"category": "future", "isClosed": false})
			})

			cl, err := c.ClassifyQuestion(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(cl.Category).To(Equal(workshop.Future))
			Expect(cl.CategoryLabel).To(Equal("行动类"))
		})

		It("falls back to fact when the backend fails", func() {
			mux.HandleFunc("POST /api/classify-question", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to classify question"})
			})

			cl, err := c.ClassifyQuestion(ctx, req)
			Expect(err).To(MatchError(ContainSubstring("Failed to classify question")))
			Expect(cl).To(Equal(workshop.DefaultClassification()))
		})

		It("falls back to fact when the answer is unreadable", func() {
			mux.HandleFunc("POST /api/classify-question", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "not json")
			})

			cl, err := c.ClassifyQuestion(ctx, req)
			Expect(err).To(MatchError(stream.ErrNoResult))
			Expect(cl).To(Equal(workshop.DefaultClassification()))
		})

		It("falls back to fact when the backend is unreachable", func() {
			srv.Close()

			cl, err := c.ClassifyQuestion(ctx, req)
			Expect(err).To(MatchError(stream.ErrTransport))
			Expect(cl).To(Equal(workshop.DefaultClassification()))
		})
	})

	Describe("ShadowQuestions", func() {
		It("returns the suggested questions", func() {
			var got workshop.ShadowRequest
			mux.HandleFunc("POST /api/shadow-questions", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				writeJSON(w, http.StatusOK, workshop.ShadowQuestions{
					MissingAlert: "no feelings",
					Questions:    []workshop.ShadowQuestion{{Text: "how do you feel?", Category: workshop.Feeling}},
				})
			})

			radar := workshop.RadarData{Fact: 2}
			sq, err := c.ShadowQuestions(ctx, workshop.ShadowRequest{
				TopicContext:      "t",
				RadarData:         &radar,
				ExistingQuestions: []string{"a"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(sq.Questions).To(HaveLen(1))
			Expect(got.RadarData.Fact).To(Equal(2))
			Expect(got.ExistingQuestions).To(Equal([]string{"a"}))
		})

		It("returns the error and nothing else on failure", func() {
			mux.HandleFunc("POST /api/shadow-questions", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "nope"})
			})

			sq, err := c.ShadowQuestions(ctx, workshop.ShadowRequest{})
			Expect(err).To(HaveOccurred())
			Expect(sq.Questions).To(BeEmpty())
		})
	})

	Describe("GenerateSummary", func() {
		var (
			sess  *workshop.Session
			saves atomic.Int32
			saved workshop.SaveRequest
		)

		BeforeEach(func() {
			saves.Store(0)
			sess = workshop.NewSession()
			sess.SetTopic(workshop.Topic{Title: "Slow releases"})
			sess.SetEvaluation(workshop.TopicEvaluation{TotalScore: 6})
			q, err := sess.AddQuestion("why?", "alice", workshop.DefaultClassification())
			Expect(err).NotTo(HaveOccurred())
			_, err = sess.ToggleGolden(q.ID)
			Expect(err).NotTo(HaveOccurred())

			mux.HandleFunc("POST /api/workshops", func(w http.ResponseWriter, r *http.Request) {
				saves.Add(1)
				Expect(json.NewDecoder(r.Body).Decode(&saved)).To(Succeed())
				rec := saved.Record(time.Now())
				rec.ID = "w-1"
				writeJSON(w, http.StatusOK, rec)
			})
		})

		It("saves the workshop exactly once after a non-empty stream", func() {
			var got workshop.SummaryRequest
			mux.HandleFunc("POST /api/generate-summary", func(w http.ResponseWriter, r *http.Request) {
				Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
				writeFrames(w,
					"data: {\"content\":\"# 总结\"}\n\n",
					"data: {\"content\":\"\\n完成\"}\n\n",
					"data: [DONE]\n\n",
				)
			})

			var last string
			summary, rec, err := c.GenerateSummary(ctx, sess, func(_, accumulated string) {
				last = accumulated
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(summary).To(Equal("# 总结\n完成"))
			Expect(last).To(Equal(summary))
			Expect(got.GoldenQuestions).To(Equal([]string{"why?"}))
			Expect(saves.Load()).To(BeEquivalentTo(1))
			Expect(saved.SummaryReport).To(Equal(summary))
			Expect(saved.TotalScore).To(Equal(6))
			Expect(saved.Participants).To(Equal([]string{"alice"}))
			Expect(rec.ID).To(Equal("w-1"))
			Expect(sess.SummaryReport()).To(Equal(summary))
		})

		It("does not save when the stream carries no content", func() {
			mux.HandleFunc("POST /api/generate-summary", func(w http.ResponseWriter, _ *http.Request) {
				writeFrames(w, "data: {\"error\":\"Failed to generate summary\"}\n\n")
			})

			summary, rec, err := c.GenerateSummary(ctx, sess, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary).To(BeEmpty())
			Expect(rec).To(BeNil())
			Expect(saves.Load()).To(BeZero())
		})

		It("does not save when the stream fails", func() {
			mux.HandleFunc("POST /api/generate-summary", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to generate summary"})
			})

			_, rec, err := c.GenerateSummary(ctx, sess, nil)
			Expect(err).To(MatchError(stream.ErrTransport))
			Expect(rec).To(BeNil())
			Expect(saves.Load()).To(BeZero())
		})
	})

	Describe("history", func() {
		It("passes the limit through", func() {
			mux.HandleFunc("GET /api/workshops", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("limit")).To(Equal("5"))
				writeJSON(w, http.StatusOK, []workshop.Summary{{ID: "a", TopicTitle: "t"}})
			})

			list, err := c.ListWorkshops(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal("a"))
		})

		It("maps a 404 to ErrNotFound", func() {
			mux.HandleFunc("GET /api/workshops/{id}", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Workshop not found"})
			})

			_, err := c.GetWorkshop(ctx, "nope")
			Expect(err).To(MatchError(client.ErrNotFound))
		})

		It("fetches one workshop", func() {
			mux.HandleFunc("GET /api/workshops/{id}", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, workshop.Record{ID: r.PathValue("id"), TopicTitle: "t"})
			})

			rec, err := c.GetWorkshop(ctx, "abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.ID).To(Equal("abc"))
		})
	})

	Describe("timeouts", func() {
		It("fails a slow stream with a transport error", func() {
			release := make(chan struct{})
			defer close(release)
			mux.HandleFunc("POST /api/pre-mortem", func(w http.ResponseWriter, r *http.Request) {
				writeFrames(w, "data: {\"content\":\"{\"}\n\n")
				select {
				case <-release:
				case <-r.Context().Done():
				}
			})

			c = client.New(srv.URL, client.WithTimeout(100*time.Millisecond))
			_, err := c.PreMortem(ctx, workshop.Topic{}, nil)
			Expect(err).To(MatchError(stream.ErrTransport))
			Expect(err).To(MatchError(context.DeadlineExceeded))
		})
	})

	It("pings the backend", func() {
		mux.HandleFunc("GET /ping", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, "pong")
		})
		Expect(c.Ping(ctx)).To(Succeed())
	})
})
