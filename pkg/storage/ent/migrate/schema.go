// Package migrate declares the workshop tables and creates them through
// ent's schema migration.
package migrate

import (
	"context"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const WorkshopsTableName = "workshops"

// Column names of the workshops table.
const (
	ColumnID                = "id"
	ColumnTopicTitle        = "topic_title"
	ColumnTopicBackground   = "topic_background"
	ColumnTopicPainPoints   = "topic_pain_points"
	ColumnTopicTriedActions = "topic_tried_actions"
	ColumnTotalScore        = "total_score"
	ColumnGoldenQuestions   = "golden_questions"
	ColumnParticipants      = "participants"
	ColumnReflections       = "reflections"
	ColumnActionPlan        = "action_plan"
	ColumnSummaryReport     = "summary_report"
	ColumnCreatedAt         = "created_at"
	ColumnCompletedAt       = "completed_at"
)

// Columns lists every workshops column in insert order.
var Columns = []string{
	ColumnID,
	ColumnTopicTitle,
	ColumnTopicBackground,
	ColumnTopicPainPoints,
	ColumnTopicTriedActions,
	ColumnTotalScore,
	ColumnGoldenQuestions,
	ColumnParticipants,
	ColumnReflections,
	ColumnActionPlan,
	ColumnSummaryReport,
	ColumnCreatedAt,
	ColumnCompletedAt,
}

// text stores free text, and JSON encoded lists, without a length limit on
// every dialect.
var text = map[string]string{
	dialect.SQLite:   "text",
	dialect.Postgres: "text",
	dialect.MySQL:    "longtext",
}

var (
	// WorkshopsColumns holds the columns for the "workshops" table.
	WorkshopsColumns = []*schema.Column{
		{Name: ColumnID, Type: field.TypeString, Size: 36},
		{Name: ColumnTopicTitle, Type: field.TypeString, SchemaType: text, Default: ""},
		{Name: ColumnTopicBackground, Type: field.TypeString, SchemaType: text, Default: ""},
		{Name: ColumnTopicPainPoints, Type: field.TypeString, SchemaType: text, Default: ""},
		{Name: ColumnTopicTriedActions, Type: field.TypeString, SchemaType: text, Default: ""},
		{Name: ColumnTotalScore, Type: field.TypeInt, Default: 0},
		{Name: ColumnGoldenQuestions, Type: field.TypeString, SchemaType: text, Default: "[]"},
		{Name: ColumnParticipants, Type: field.TypeString, SchemaType: text, Default: "[]"},
		{Name: ColumnReflections, Type: field.TypeString, SchemaType: text, Default: ""},
		{Name: ColumnActionPlan, Type: field.TypeString, SchemaType: text, Default: "[]"},
		{Name: ColumnSummaryReport, Type: field.TypeString, SchemaType: text, Default: ""},
		{Name: ColumnCreatedAt, Type: field.TypeTime},
		{Name: ColumnCompletedAt, Type: field.TypeTime, Nullable: true},
	}

	// WorkshopsTable holds the schema information for the "workshops" table.
	WorkshopsTable = &schema.Table{
		Name:       WorkshopsTableName,
		Columns:    WorkshopsColumns,
		PrimaryKey: []*schema.Column{WorkshopsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "workshop_created_at",
				Unique:  false,
				Columns: []*schema.Column{WorkshopsColumns[11]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		WorkshopsTable,
	}
)

// Create runs an append-only auto-migration of Tables on drv.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return err
	}
	return m.Create(ctx, Tables...)
}
