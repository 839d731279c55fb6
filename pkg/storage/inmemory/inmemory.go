// Package inmemory provides a map-backed storage driver for tests and
// ephemeral servers.
package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/catalyst/pkg/storage"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

// Driver implements storage.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of records
	mu sync.RWMutex

	// records is keyed by record ID
	records map[string]*workshop.Record

	now func() time.Time
}

// NewDriver creates a new in-memory store.
func NewDriver() *Driver {
	return &Driver{
		records: make(map[string]*workshop.Record),
		now:     time.Now,
	}
}

// Create stores a copy of rec under a fresh ID.
func (d *Driver) Create(_ context.Context, rec *workshop.Record) (*workshop.Record, error) {
	if rec == nil {
		return nil, storage.ErrNilRecord
	}

	stored := clone(rec)
	stored.ID = workshop.NewID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = d.now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[stored.ID] = stored

	return clone(stored), nil
}

// Get retrieves a record by ID.
func (d *Driver) Get(_ context.Context, id string) (*workshop.Record, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.records[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}
	return clone(rec), nil
}

// List returns summaries newest first.
func (d *Driver) List(_ context.Context, limit int) ([]workshop.Summary, error) {
	d.mu.RLock()
	recs := make([]*workshop.Record, 0, len(d.records))
	for _, rec := range d.records {
		recs = append(recs, rec)
	}
	d.mu.RUnlock()

	slices.SortFunc(recs, func(a, b *workshop.Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	limit = storage.ClampLimit(limit)
	if len(recs) > limit {
		recs = recs[:limit]
	}

	out := make([]workshop.Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, clone(rec).Summary())
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (d *Driver) Close() error {
	return nil
}

func clone(rec *workshop.Record) *workshop.Record {
	c := *rec
	c.GoldenQuestions = slices.Clone(rec.GoldenQuestions)
	c.Participants = slices.Clone(rec.Participants)
	c.ActionPlan = slices.Clone(rec.ActionPlan)
	if rec.CompletedAt != nil {
		t := *rec.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
