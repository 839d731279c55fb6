// Package storage persists completed workshops.
package storage

import (
	"context"

	"github.com/papercomputeco/catalyst/pkg/workshop"
)

// MaxList is the most summaries List returns.
const MaxList = 50

// Driver defines the interface for persisting and retrieving workshop
// records in a storage backend.
type Driver interface {
	// Create stores rec, assigning its ID and, when zero, its CreatedAt.
	// It returns the stored record.
	Create(ctx context.Context, rec *workshop.Record) (*workshop.Record, error)

	// Get retrieves a record by ID. It returns NotFoundError when absent.
	Get(ctx context.Context, id string) (*workshop.Record, error)

	// List returns at most limit summaries, newest first. limit is clamped
	// to [1, MaxList].
	List(ctx context.Context, limit int) ([]workshop.Summary, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ClampLimit bounds a requested list size to [1, MaxList]. Zero or negative
// values select MaxList.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxList {
		return MaxList
	}
	return limit
}
