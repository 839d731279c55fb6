package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/catalyst/pkg/logger"
)

// brokenWriter fails every write, like a log file on a full disk.
type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func decodeLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	Expect(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes info records as text by default", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("server listening", "addr", ":8081")

			Expect(buf.String()).To(ContainSubstring("server listening"))
			Expect(buf.String()).To(ContainSubstring("addr=:8081"))
		})

		It("keeps frame skips out of the log unless debugging", func() {
			var quiet, verbose bytes.Buffer
			logger.New(logger.WithWriter(&quiet)).Debug("skipping malformed frame")
			logger.New(logger.WithWriter(&verbose), logger.WithDebug(true)).Debug("skipping malformed frame")

			Expect(quiet.String()).To(BeEmpty())
			Expect(verbose.String()).To(ContainSubstring("skipping malformed frame"))
		})

		It("writes JSON for log files even when pretty is requested", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithJSON(true))
			l.Info("workshop saved", "workshop_id", "abc", "questions", 4)

			parsed := decodeLine(&buf)
			Expect(parsed["msg"]).To(Equal("workshop saved"))
			Expect(parsed["workshop_id"]).To(Equal("abc"))
			Expect(parsed["questions"]).To(BeNumerically("==", 4))
		})

		It("renders the run debug logger through charmbracelet/log", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithDebug(true))
			l.Debug("request rejected", "status", 502)

			Expect(buf.String()).To(ContainSubstring("request rejected"))
			Expect(buf.String()).To(ContainSubstring("502"))
		})

		It("copies output to every writer", func() {
			var a, b bytes.Buffer
			logger.New(logger.WithWriters(&a, &b)).Info("stage complete")

			Expect(a.String()).To(ContainSubstring("stage complete"))
			Expect(b.String()).To(ContainSubstring("stage complete"))
		})

		It("groups request attributes", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.WithGroup("request").Info("handled", "path", "/api/workshops")

			group, ok := decodeLine(&buf)["request"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(group["path"]).To(Equal("/api/workshops"))
		})
	})

	Describe("Nop", func() {
		It("is disabled at every level and tolerates derived loggers", func() {
			l := logger.Nop()
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
			Expect(func() {
				l.With("component", "client").WithGroup("call").Error("ignored")
			}).NotTo(Panic())
		})
	})

	Describe("Multi", func() {
		var console, file bytes.Buffer

		BeforeEach(func() {
			console.Reset()
			file.Reset()
		})

		It("mirrors serve console output into a JSON log file", func() {
			l := logger.Multi(
				logger.New(logger.WithWriter(&console)),
				logger.New(logger.WithWriter(&file), logger.WithJSON(true)),
			)
			l.With("component", "api").Info("server listening", "addr", ":8081")

			Expect(console.String()).To(ContainSubstring("server listening"))
			parsed := decodeLine(&file)
			Expect(parsed["component"]).To(Equal("api"))
			Expect(parsed["addr"]).To(Equal(":8081"))
		})

		It("honors each logger's own level", func() {
			l := logger.Multi(
				logger.New(logger.WithWriter(&console)),
				logger.New(logger.WithWriter(&file), logger.WithDebug(true)),
			)
			l.Debug("frame skipped")

			Expect(console.String()).To(BeEmpty())
			Expect(file.String()).To(ContainSubstring("frame skipped"))
		})

		It("keeps logging to the console when the file fails", func() {
			h := logger.Multi(
				logger.New(logger.WithWriter(brokenWriter{}), logger.WithJSON(true)),
				logger.New(logger.WithWriter(&console)),
			).Handler()

			r := slog.NewRecord(time.Now(), slog.LevelInfo, "workshop saved", 0)
			err := h.Handle(context.Background(), r)
			Expect(err).To(MatchError(ContainSubstring("disk full")))
			Expect(console.String()).To(ContainSubstring("workshop saved"))
		})

		It("skips nil loggers", func() {
			l := logger.Multi(nil, logger.New(logger.WithWriter(&console)))
			l.WithGroup("request").Info("handled", "path", "/ping")

			Expect(console.String()).To(ContainSubstring("request.path=/ping"))
		})

		It("is disabled when every logger is", func() {
			l := logger.Multi(logger.Nop(), logger.Nop())
			Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
		})
	})
})
