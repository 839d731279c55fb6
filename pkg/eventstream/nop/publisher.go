// Package nop provides the publisher used when no event backend is configured.
package nop

import (
	"context"

	"github.com/papercomputeco/catalyst/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishWorkshopSaved validates input and otherwise does nothing.
func (p *Publisher) PublishWorkshopSaved(_ context.Context, event *eventstream.WorkshopSavedEvent) error {
	if event == nil {
		return eventstream.ErrNilWorkshopEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
