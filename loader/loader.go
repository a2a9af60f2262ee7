package loader

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/uhppoted/uhppoted-app-sheets-sync/db"
	"github.com/uhppoted/uhppoted-app-sheets-sync/table"
)

const DefaultSchema = "public"

// Job is a worksheet tab and the database table that mirrors it.
type Job struct {
	Tab    string `yaml:"tab"`
	Table  string `yaml:"table"`
	Schema string `yaml:"schema,omitempty"`
}

func (j Job) schema() string {
	if j.Schema == "" {
		return DefaultSchema
	}

	return j.Schema
}

func (j Job) String() string {
	return fmt.Sprintf("%v.%v", j.schema(), j.Table)
}

// Source returns the raw cell values of a worksheet tab, header row first.
type Source interface {
	Rows(ctx context.Context, tab string) ([][]interface{}, error)
}

// Sink replaces the contents of a table.
type Sink interface {
	Replace(ctx context.Context, schema, table string, t *table.Table) (int, error)
}

// Journal records the outcome of each sync.
type Journal interface {
	Log(ctx context.Context, entry db.Entry) error
}

type Result struct {
	Job      Job
	Rows     int
	Err      error
	Started  time.Time
	Finished time.Time
}

type Loader struct {
	Source  Source
	Sink    Sink
	Journal Journal
	DryRun  bool
	Debug   bool
}

// Sync copies a single worksheet tab to its database table, replacing the existing table
// contents. A tab without any data rows leaves the table untouched.
func (l *Loader) Sync(ctx context.Context, job Job) (int, error) {
	rows, err := l.Source.Rows(ctx, job.Tab)
	if err != nil {
		return 0, err
	}

	if len(rows) <= 1 {
		infof("No data found in tab %v", job.Tab)
		return 0, nil
	}

	t, err := table.MakeTable(rows)
	if err != nil {
		return 0, fmt.Errorf("tab '%v': %w", job.Tab, err)
	}

	if l.Debug {
		debugf("%v: columns %v", job.Tab, t.Header)
	}

	if l.DryRun {
		infof("Dry run: %v rows from %v not written to %v", len(t.Records), job.Tab, job)
		return len(t.Records), nil
	}

	N, err := l.Sink.Replace(ctx, job.schema(), job.Table, t)
	if err != nil {
		warnf("Error syncing %v: %v", job.Tab, err)
		return 0, err
	}

	return N, nil
}

// Run syncs each job in turn. A failed job is logged and does not stop the remaining
// jobs.
func (l *Loader) Run(ctx context.Context, jobs []Job) []Result {
	results := []Result{}

	for _, job := range jobs {
		infof("Syncing %v to %v...", job.Tab, job.Table)

		started := time.Now()
		N, err := l.Sync(ctx, job)
		finished := time.Now()

		if err != nil {
			warnf("Failed to sync %v: %v", job.Tab, err)
		} else if N > 0 {
			infof("Successfully synced %v rows to %v", N, job.Table)
		}

		result := Result{
			Job:      job,
			Rows:     N,
			Err:      err,
			Started:  started,
			Finished: finished,
		}

		l.record(ctx, result)

		results = append(results, result)
	}

	return results
}

func (l *Loader) record(ctx context.Context, result Result) {
	if l.Journal == nil || l.DryRun {
		return
	}

	entry := db.Entry{
		Tab:      result.Job.Tab,
		Target:   result.Job.String(),
		Rows:     result.Rows,
		Status:   "ok",
		Started:  result.Started,
		Finished: result.Finished,
	}

	if result.Err != nil {
		entry.Status = "failed"
		entry.Error = result.Err.Error()
	}

	if err := l.Journal.Log(ctx, entry); err != nil {
		warnf("Error writing sync log entry for %v (%v)", result.Job.Tab, err)
	}
}

func debugf(format string, args ...any) {
	log.Printf("%-5s %s", "DEBUG", fmt.Sprintf(format, args...))
}

func infof(format string, args ...any) {
	log.Printf("%-5s %s", "INFO", fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	log.Printf("%-5s %s", "ERROR", fmt.Sprintf(format, args...))
}
