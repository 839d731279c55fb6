// Package sqlite provides a SQLite-backed storage driver using ent.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"

	entdriver "github.com/papercomputeco/catalyst/pkg/storage/ent/driver"
)

// Driver implements storage.Driver using SQLite via the ent driver.
type Driver struct {
	*entdriver.EntDriver
}

// NewDriver creates a new SQLite-backed store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", withForeignKeys(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive across queries
	// and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &Driver{EntDriver: entdriver.New(entsql.OpenDB(dialect.SQLite, db))}

	// Append-only auto-migration of the workshops table
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

// withForeignKeys adds the _fk connection parameter ent's migration checks for.
func withForeignKeys(dbPath string) string {
	if strings.Contains(dbPath, "_fk=") {
		return dbPath
	}
	if strings.Contains(dbPath, "?") {
		return dbPath + "&_fk=1"
	}
	return dbPath + "?_fk=1"
}
