package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/catalyst/api/worker"
	"github.com/papercomputeco/catalyst/pkg/eventstream"
	"github.com/papercomputeco/catalyst/pkg/logger"
	"github.com/papercomputeco/catalyst/pkg/storage"
	"github.com/papercomputeco/catalyst/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/catalyst/pkg/utils/test"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.WorkshopSavedEvent
}

func (p *recordingPublisher) PublishWorkshopSaved(_ context.Context, event *eventstream.WorkshopSavedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []*eventstream.WorkshopSavedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*eventstream.WorkshopSavedEvent(nil), p.events...)
}

type failingDriver struct{}

var errDriver = errors.New("database is on fire")

func (failingDriver) Create(context.Context, *workshop.Record) (*workshop.Record, error) {
	return nil, errDriver
}

func (failingDriver) Get(context.Context, string) (*workshop.Record, error) {
	return nil, errDriver
}

func (failingDriver) List(context.Context, int) ([]workshop.Summary, error) {
	return nil, errDriver
}

func (failingDriver) Close() error { return nil }

func postJSON(path string, body any) *http.Request {
	b, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(b)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func readBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

func decodeBody[T any](resp *http.Response) T {
	var v T
	defer resp.Body.Close()
	Expect(json.NewDecoder(resp.Body).Decode(&v)).To(Succeed())
	return v
}

var _ = Describe("Server", func() {
	var (
		server    *Server
		fake      *testutils.FakeProvider
		driver    *inmemory.Driver
		publisher *recordingPublisher
		pool      *worker.Pool
	)

	BeforeEach(func() {
		var err error
		fake = &testutils.FakeProvider{}
		driver = inmemory.NewDriver()
		publisher = &recordingPublisher{}
		pool, err = worker.NewPool(&worker.Config{
			Publisher: publisher,
			Source:    eventstream.EventSource{Service: "catalyst-api", Provider: "fake"},
		})
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, driver, fake, pool, logger.Nop())
	})

	AfterEach(func() {
		pool.Close()
	})

	Describe("GET /ping", func() {
		It("answers pong", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(readBody(resp)).To(Equal(`"pong"`))
		})
	})

	Describe("POST /api/evaluate-topic", func() {
		topic := workshop.Topic{
			Title:        "Slow releases",
			Background:   "monthly trains",
			PainPoints:   "hotfixes",
			TriedActions: "more QA",
		}

		It("relays provider deltas as content frames and ends with done", func() {
			fake.Chunks = []string{`{"totalScore"`, "", `: 8}`}

			resp, err := server.app.Test(postJSON("/api/evaluate-topic", topic), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache, no-transform"))
			Expect(resp.Header.Get("X-Accel-Buffering")).To(Equal("no"))

			Expect(readBody(resp)).To(Equal(
				"data: {\"content\":\"{\\\"totalScore\\\"\"}\n\n" +
					"data: {\"content\":\": 8}\"}\n\n" +
					"data: [DONE]\n\n",
			))
		})

		It("sends the evaluation prompt and topic fields upstream", func() {
			resp, err := server.app.Test(postJSON("/api/evaluate-topic", topic), -1)
			Expect(err).NotTo(HaveOccurred())
			readBody(resp)

			req := fake.LastRequest()
			Expect(req).NotTo(BeNil())
			Expect(req.System).To(Equal(evaluateTopicPrompt))
			Expect(req.Messages).To(HaveLen(1))
			Expect(req.Messages[0].Content).To(Equal(
				"课题名称：Slow releases\n背景现状：monthly trains\n核心痛点：hotfixes\n已尝试行动：more QA",
			))
			Expect(*req.MaxTokens).To(Equal(DefaultMaxTokens))
		})

		It("answers 500 JSON when the stream cannot start", func() {
			fake.StreamErr = errors.New("upstream down")

			resp, err := server.app.Test(postJSON("/api/evaluate-topic", topic), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
			Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Failed to evaluate topic"))
		})

		It("ends with an error frame when the stream fails midway", func() {
			fake.Chunks = []string{"partial"}
			fake.ChunkErr = errors.New("connection reset")

			resp, err := server.app.Test(postJSON("/api/evaluate-topic", topic), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(readBody(resp)).To(Equal(
				"data: {\"content\":\"partial\"}\n\n" +
					"data: {\"error\":\"Failed to evaluate topic\"}\n\n",
			))
		})

		It("rejects a body that is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/evaluate-topic", strings.NewReader("{"))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("POST /api/pre-mortem", func() {
		It("sends the topic title, background and pain points", func() {
			fake.Chunks = []string{`{"warning":"w"}`}

			resp, err := server.app.Test(postJSON("/api/pre-mortem", workshop.PreMortemRequest{
				Topic: workshop.Topic{Title: "t", Background: "b", PainPoints: "p", TriedActions: "ignored"},
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(readBody(resp)).To(HaveSuffix("data: [DONE]\n\n"))

			req := fake.LastRequest()
			Expect(req.System).To(Equal(preMortemPrompt))
			Expect(req.Messages[0].Content).To(Equal("课题：t\n背景：b\n痛点：p"))
		})
	})

	Describe("POST /api/generate-summary", func() {
		It("streams markdown and serializes the inputs as JSON", func() {
			fake.Chunks = []string{"# Report", "\n\nbody"}

			resp, err := server.app.Test(postJSON("/api/generate-summary", workshop.SummaryRequest{
				Topic:           workshop.Topic{Title: "t"},
				GoldenQuestions: []string{"why?"},
				Reflections:     "notes",
				ActionPlan:      []workshop.ActionItem{{ID: "1", Owner: "bob", Action: "fix", Deadline: "mon"}},
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(readBody(resp)).To(Equal(
				"data: {\"content\":\"# Report\"}\n\n" +
					"data: {\"content\":\"\\n\\nbody\"}\n\n" +
					"data: [DONE]\n\n",
			))

			msg := fake.LastRequest().Messages[0].Content
			Expect(msg).To(ContainSubstring(`课题：{"title":"t","background":"","painPoints":"","triedActions":""}`))
			Expect(msg).To(ContainSubstring(`黄金问题：["why?"]`))
			Expect(msg).To(ContainSubstring(`反思记录："notes"`))
			Expect(msg).To(ContainSubstring(`行动计划：[{"id":"1","owner":"bob","action":"fix","deadline":"mon"}]`))
		})

		It("answers 500 JSON when the stream cannot start", func() {
			fake.StreamErr = errors.New("quota")

			resp, err := server.app.Test(postJSON("/api/generate-summary", workshop.SummaryRequest{}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
			Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Failed to generate summary"))
		})
	})

	Describe("POST /api/classify-question", func() {
		body := workshop.ClassifyRequest{Question: "Is it slow?", TopicContext: "releases"}

		It("returns the parsed classification", func() {
			fake.Response = "```json\n" + `{"category":"fact","categoryLabel":"事实类","isClosed":true,"suggestion":"What slows it?"}` + "\n```"

			resp, err := server.app.Test(postJSON("/api/classify-question", body), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			c := decodeBody[workshop.Classification](resp)
			Expect(c.Category).To(Equal(workshop.Fact))
			Expect(c.IsClosed).To(BeTrue())
			Expect(c.Suggestion).To(HaveValue(Equal("What slows it?")))

			req := fake.LastRequest()
			Expect(req.JSON).To(BeTrue())
			Expect(req.System).To(Equal(classifyQuestionPrompt))
			Expect(req.Messages[0].Content).To(Equal("课题背景：releases\n提问：Is it slow?"))
		})

		It("answers an empty object for an empty completion", func() {
			resp, err := server.app.Test(postJSON("/api/classify-question", body), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("answers 500 when the provider fails", func() {
			fake.CompleteErr = errors.New("boom")

			resp, err := server.app.Test(postJSON("/api/classify-question", body), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
			Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Failed to classify question"))
		})

		It("answers 500 when the completion is not JSON", func() {
			fake.Response = "I think it is a fact question."

			resp, err := server.app.Test(postJSON("/api/classify-question", body), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})
	})

	Describe("POST /api/shadow-questions", func() {
		It("names the dimensions with fewer than two questions", func() {
			fake.Response = `{"missingAlert":"no feelings","questions":[{"text":"how do you feel?","category":"feeling","categoryLabel":"感受类"}]}`

			radar := workshop.RadarData{Fact: 3, Feeling: 1, Finding: 2, Future: 0, Focus: 2}
			resp, err := server.app.Test(postJSON("/api/shadow-questions", workshop.ShadowRequest{
				TopicContext:      "releases hotfixes",
				RadarData:         &radar,
				ExistingQuestions: []string{"how often?"},
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			sq := decodeBody[workshop.ShadowQuestions](resp)
			Expect(sq.MissingAlert).To(Equal("no feelings"))
			Expect(sq.Questions).To(HaveLen(1))

			req := fake.LastRequest()
			Expect(req.System).To(ContainSubstring("缺失维度：feeling, future\n"))
			Expect(req.Messages[0].Content).To(Equal(`课题背景：releases hotfixes` + "\n" + `已有提问：["how often?"]`))
		})

		It("lists nothing missing without radar data", func() {
			fake.Response = `{"questions":[]}`

			resp, err := server.app.Test(postJSON("/api/shadow-questions", map[string]any{"topicContext": "x"}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			req := fake.LastRequest()
			Expect(req.System).To(ContainSubstring("缺失维度：\n"))
			Expect(req.Messages[0].Content).To(HaveSuffix("已有提问：[]"))
		})

		It("answers 500 when the provider fails", func() {
			fake.CompleteErr = errors.New("boom")

			resp, err := server.app.Test(postJSON("/api/shadow-questions", workshop.ShadowRequest{}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
			Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Failed to generate shadow questions"))
		})
	})

	Describe("workshops", func() {
		It("saves a normalized record and announces it", func() {
			resp, err := server.app.Test(postJSON("/api/workshops", map[string]any{
				"topicTitle": "Slow releases",
				"totalScore": 42,
			}), -1)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			rec := decodeBody[workshop.Record](resp)
			Expect(rec.ID).NotTo(BeEmpty())
			Expect(rec.TopicTitle).To(Equal("Slow releases"))
			Expect(rec.TopicBackground).To(BeEmpty())
			Expect(rec.TotalScore).To(Equal(workshop.MaxScore))
			Expect(rec.GoldenQuestions).To(BeEmpty())
			Expect(rec.GoldenQuestions).NotTo(BeNil())
			Expect(rec.CompletedAt).NotTo(BeNil())
			Expect(rec.CreatedAt).NotTo(BeZero())

			Eventually(publisher.Events).Should(HaveLen(1))
			event := publisher.Events()[0]
			Expect(event.EventType).To(Equal(eventstream.EventTypeWorkshopSaved))
			Expect(event.Workshop.ID).To(Equal(rec.ID))
		})

		It("lists summaries newest first", func() {
			base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			ctx := context.Background()
			_, err := driver.Create(ctx, testutils.NewRecord("older", base))
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.Create(ctx, testutils.NewRecord("newer", base.Add(time.Hour)))
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops", nil))
			Expect(err).NotTo(HaveOccurred())

			summaries := decodeBody[[]workshop.Summary](resp)
			Expect(summaries).To(HaveLen(2))
			Expect(summaries[0].TopicTitle).To(Equal("newer"))
			Expect(summaries[1].TopicTitle).To(Equal("older"))
		})

		It("honors a smaller limit", func() {
			base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			for i := range 3 {
				_, err := driver.Create(context.Background(), testutils.NewRecord("w", base.Add(time.Duration(i)*time.Minute)))
				Expect(err).NotTo(HaveOccurred())
			}

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops?limit=2", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(decodeBody[[]workshop.Summary](resp)).To(HaveLen(2))
		})

		It("caps a larger limit at the list maximum", func() {
			base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
			for i := range storage.MaxList + 1 {
				_, err := driver.Create(context.Background(), testutils.NewRecord("w", base.Add(time.Duration(i)*time.Minute)))
				Expect(err).NotTo(HaveOccurred())
			}

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops?limit=100", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			summaries := decodeBody[[]workshop.Summary](resp)
			Expect(summaries).To(HaveLen(storage.MaxList))
			Expect(summaries[0].CreatedAt).To(BeTemporally("==", base.Add(time.Duration(storage.MaxList)*time.Minute)))
		})

		It("lists an empty store as an empty array", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(readBody(resp)).To(Equal("[]"))
		})

		It("fetches a single workshop", func() {
			saved, err := driver.Create(context.Background(), testutils.NewRecord("single", time.Now()))
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops/"+saved.ID, nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decodeBody[workshop.Record](resp).TopicTitle).To(Equal("single"))
		})

		It("answers 404 for an unknown workshop", func() {
			resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops/missing", nil))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Workshop not found"))
		})

		Context("when the store fails", func() {
			BeforeEach(func() {
				server = NewServer(Config{}, failingDriver{}, fake, nil, logger.Nop())
			})

			It("answers 500 on save", func() {
				resp, err := server.app.Test(postJSON("/api/workshops", workshop.SaveRequest{}), -1)
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
				Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Failed to save workshop"))
			})

			It("answers 500 on list", func() {
				resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops", nil))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
				Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Failed to fetch workshops"))
			})

			It("answers 500 on get", func() {
				resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/api/workshops/abc", nil))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
				Expect(decodeBody[ErrorResponse](resp).Error).To(Equal("Failed to fetch workshop"))
			})
		})
	})
})

var _ storage.Driver = failingDriver{}
