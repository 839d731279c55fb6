// Package entdriver
package entdriver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/catalyst/pkg/storage"
	"github.com/papercomputeco/catalyst/pkg/storage/ent/migrate"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

// EntDriver provides workshop storage on an ent SQL driver.
// It is database-agnostic and can be embedded by specific drivers.
type EntDriver struct {
	Driver *entsql.Driver

	now func() time.Time
}

// New wraps drv. The workshops table must already exist; see Migrate.
func New(drv *entsql.Driver) *EntDriver {
	return &EntDriver{Driver: drv, now: time.Now}
}

// Migrate creates or updates the workshops table.
func (ed *EntDriver) Migrate(ctx context.Context) error {
	if err := migrate.Create(ctx, ed.Driver); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Create inserts rec under a fresh ID.
func (ed *EntDriver) Create(ctx context.Context, rec *workshop.Record) (*workshop.Record, error) {
	if rec == nil {
		return nil, storage.ErrNilRecord
	}

	stored := *rec
	stored.ID = workshop.NewID()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = ed.now()
	}
	stored.CreatedAt = stored.CreatedAt.UTC()

	golden, err := encodeList(stored.GoldenQuestions)
	if err != nil {
		return nil, err
	}
	participants, err := encodeList(stored.Participants)
	if err != nil {
		return nil, err
	}
	plan, err := encodeList(stored.ActionPlan)
	if err != nil {
		return nil, err
	}

	var completed any
	if stored.CompletedAt != nil {
		completed = stored.CompletedAt.UTC()
	}

	query, args := ed.builder().
		Insert(migrate.WorkshopsTableName).
		Columns(migrate.Columns...).
		Values(
			stored.ID,
			stored.TopicTitle,
			stored.TopicBackground,
			stored.TopicPainPoints,
			stored.TopicTriedActions,
			stored.TotalScore,
			golden,
			participants,
			stored.Reflections,
			plan,
			stored.SummaryReport,
			stored.CreatedAt,
			completed,
		).
		Query()

	var res sql.Result
	if err := ed.Driver.Exec(ctx, query, args, &res); err != nil {
		return nil, fmt.Errorf("failed to insert workshop: %w", err)
	}

	return &stored, nil
}

// Get retrieves a record by ID.
func (ed *EntDriver) Get(ctx context.Context, id string) (*workshop.Record, error) {
	b := ed.builder()
	t := b.Table(migrate.WorkshopsTableName)
	query, args := b.Select(migrate.Columns...).
		From(t).
		Where(entsql.EQ(migrate.ColumnID, id)).
		Limit(1).
		Query()

	rows := &entsql.Rows{}
	if err := ed.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("failed to query workshop: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read workshop: %w", err)
		}
		return nil, storage.NotFoundError{ID: id}
	}

	return scanRecord(rows)
}

// List returns summaries ordered by created_at, newest first.
func (ed *EntDriver) List(ctx context.Context, limit int) ([]workshop.Summary, error) {
	b := ed.builder()
	t := b.Table(migrate.WorkshopsTableName)
	query, args := b.Select(migrate.Columns...).
		From(t).
		OrderBy(entsql.Desc(migrate.ColumnCreatedAt), entsql.Desc(migrate.ColumnID)).
		Limit(storage.ClampLimit(limit)).
		Query()

	rows := &entsql.Rows{}
	if err := ed.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("failed to list workshops: %w", err)
	}
	defer rows.Close()

	out := []workshop.Summary{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list workshops: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.Driver.Close()
}

func (ed *EntDriver) builder() *entsql.DialectBuilder {
	return entsql.Dialect(ed.Driver.Dialect())
}

func scanRecord(rows *entsql.Rows) (*workshop.Record, error) {
	var (
		rec                        workshop.Record
		golden, participants, plan string
		completed                  sql.NullTime
	)

	err := rows.Scan(
		&rec.ID,
		&rec.TopicTitle,
		&rec.TopicBackground,
		&rec.TopicPainPoints,
		&rec.TopicTriedActions,
		&rec.TotalScore,
		&golden,
		&participants,
		&rec.Reflections,
		&plan,
		&rec.SummaryReport,
		&rec.CreatedAt,
		&completed,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workshop: %w", err)
	}

	if err := decodeList(golden, &rec.GoldenQuestions); err != nil {
		return nil, err
	}
	if err := decodeList(participants, &rec.Participants); err != nil {
		return nil, err
	}
	if err := decodeList(plan, &rec.ActionPlan); err != nil {
		return nil, err
	}

	rec.CreatedAt = rec.CreatedAt.UTC()
	if completed.Valid {
		t := completed.Time.UTC()
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func encodeList[T any](list []T) (string, error) {
	if list == nil {
		list = []T{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(b), nil
}

func decodeList[T any](raw string, dst *[]T) error {
	*dst = []T{}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to unmarshal list: %w", err)
	}
	return nil
}
