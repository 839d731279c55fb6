// Package kafka publishes workshop events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/catalyst/pkg/eventstream"
)

// DefaultTopic receives workshop events when no topic is configured.
const DefaultTopic = "catalyst.workshops"

// ErrNoBrokers is returned by NewPublisher without any broker address.
var ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds each publish. Zero uses the writer's default.
	WriteTimeout time.Duration
}

// Publisher writes each event as one JSON message keyed by workshop ID.
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a publisher for cfg. Topics are created on first
// write when the cluster allows it.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.Hash{},
			RequiredAcks:           kafkago.RequireOne,
			WriteTimeout:           cfg.WriteTimeout,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// newPublisherWithWriter is used by tests to substitute the writer.
func newPublisherWithWriter(w messageWriter) *Publisher {
	return &Publisher{writer: w}
}

// PublishWorkshopSaved writes event to the topic.
func (p *Publisher) PublishWorkshopSaved(ctx context.Context, event *eventstream.WorkshopSavedEvent) error {
	if event == nil {
		return eventstream.ErrNilWorkshopEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal workshop event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.Workshop.ID),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish workshop event: %w", err)
	}
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
