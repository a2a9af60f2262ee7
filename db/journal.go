package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Entry is one row in the sync log table.
type Entry struct {
	ID       uuid.UUID
	Tab      string
	Target   string
	Rows     int
	Status   string
	Error    string
	Started  time.Time
	Finished time.Time
}

// Journal appends sync log entries to a table in the store, creating the table if
// necessary. Each entry is written in its own transaction.
type Journal struct {
	store  *Store
	schema string
	table  string
}

func NewJournal(store *Store, schema, table string) *Journal {
	return &Journal{
		store:  store,
		schema: schema,
		table:  table,
	}
}

func (j *Journal) String() string {
	return j.store.dialect.qualify(j.schema, j.table)
}

func (j *Journal) Log(ctx context.Context, entry Entry) error {
	db, err := sql.Open(j.store.dialect.driver, j.store.dsn)
	if err != nil {
		return err
	}

	defer db.Close()

	d := j.store.dialect
	target := d.qualify(j.schema, j.table)

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	return j.store.transact(ctx, db, func(tx *sql.Tx) error {
		create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id          TEXT PRIMARY KEY,
    tab         TEXT NOT NULL,
    target      TEXT NOT NULL,
    row_count   INTEGER NOT NULL DEFAULT 0,
    status      TEXT NOT NULL,
    error       TEXT,
    started_at  %s NOT NULL,
    finished_at %s NOT NULL
)`, target, d.timestamp, d.timestamp)

		if err := j.store.exec(ctx, tx, create); err != nil {
			return err
		}

		columns := []string{"id", "tab", "target", "row_count", "status", "error", "started_at", "finished_at"}
		placeholders := []string{}
		for i := range columns {
			columns[i] = pgx.Identifier{columns[i]}.Sanitize()
			placeholders = append(placeholders, d.placeholder(i+1))
		}

		insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", target, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

		return j.store.exec(ctx, tx, insert,
			entry.ID.String(),
			entry.Tab,
			entry.Target,
			entry.Rows,
			entry.Status,
			entry.Error,
			entry.Started.UTC(),
			entry.Finished.UTC())
	})
}
