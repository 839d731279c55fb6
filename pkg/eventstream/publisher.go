package eventstream

import "context"

// Publisher publishes workshop events to an event stream backend.
type Publisher interface {
	PublishWorkshopSaved(ctx context.Context, event *WorkshopSavedEvent) error
	Close() error
}
