package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/catalyst/pkg/eventstream"
	"github.com/papercomputeco/catalyst/pkg/eventstream/kafka"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer *recordingWriter
		event  *eventstream.WorkshopSavedEvent
	)

	BeforeEach(func() {
		writer = &recordingWriter{}
		event = eventstream.NewWorkshopSavedEvent(
			&workshop.Record{ID: "wk-1", TopicTitle: "t"},
			eventstream.EventSource{Service: "catalyst"},
			time.Unix(1735689600, 0),
		)
	})

	It("requires brokers", func() {
		_, err := kafka.NewPublisher(kafka.Config{})
		Expect(err).To(MatchError(kafka.ErrNoBrokers))
	})

	It("builds a writer for configured brokers", func() {
		p, err := kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})

	It("writes one JSON message keyed by workshop id", func() {
		p := kafka.NewPublisherWithWriter(writer)

		Expect(p.PublishWorkshopSaved(context.Background(), event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("wk-1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte("catalyst.workshop.saved")}))

		var decoded eventstream.WorkshopSavedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.Workshop.TopicTitle).To(Equal("t"))
	})

	It("rejects nil events", func() {
		p := kafka.NewPublisherWithWriter(writer)
		Expect(p.PublishWorkshopSaved(context.Background(), nil)).To(MatchError(eventstream.ErrNilWorkshopEvent))
	})

	It("wraps writer failures", func() {
		writer.err = errors.New("broker down")
		p := kafka.NewPublisherWithWriter(writer)

		err := p.PublishWorkshopSaved(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		p := kafka.NewPublisherWithWriter(writer)
		Expect(p.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
