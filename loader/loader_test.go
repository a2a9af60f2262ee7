package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/uhppoted/uhppoted-app-sheets-sync/db"
	"github.com/uhppoted/uhppoted-app-sheets-sync/table"
)

type source struct {
	tabs    map[string][][]interface{}
	fetched []string
}

func (s *source) Rows(ctx context.Context, tab string) ([][]interface{}, error) {
	s.fetched = append(s.fetched, tab)

	if rows, ok := s.tabs[tab]; ok {
		return rows, nil
	}

	return nil, fmt.Errorf("worksheet '%s' not found", tab)
}

type sink struct {
	replaced []string
}

func (s *sink) Replace(ctx context.Context, schema, name string, t *table.Table) (int, error) {
	s.replaced = append(s.replaced, schema+"."+name)
	return len(t.Records), nil
}

var jobs = []Job{
	{Tab: "Parts", Table: "raw_sheets_parts"},
	{Tab: "Expenses", Table: "raw_sheets_expenses"},
	{Tab: "Marketing", Table: "raw_sheets_marketing"},
}

func setup(t *testing.T) (*db.Store, *sql.DB) {
	path := filepath.Join(t.TempDir(), "sync.db")

	store, err := db.NewStore("sqlite://"+path, db.Strict, false)
	if err != nil {
		t.Fatalf("Error creating store (%v)", err)
	}

	dbx, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Error opening database (%v)", err)
	}

	t.Cleanup(func() { dbx.Close() })

	return store, dbx
}

func count(t *testing.T, dbx *sql.DB, name string) int {
	var N int
	if err := dbx.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", name)).Scan(&N); err != nil {
		t.Fatalf("Error counting rows in %v (%v)", name, err)
	}

	return N
}

func TestSyncParts(t *testing.T) {
	store, dbx := setup(t)

	l := Loader{
		Source: &source{
			tabs: map[string][][]interface{}{
				"Parts": {
					{"Part Name", "Qty"},
					{"Bolt", "10"},
					{"Nut", "20"},
				},
			},
		},
		Sink: store,
	}

	N, err := l.Sync(context.Background(), Job{Tab: "Parts", Table: "raw_sheets_parts", Schema: "public"})
	if err != nil {
		t.Fatalf("Unexpected error syncing Parts (%v)", err)
	}

	if N != 2 {
		t.Errorf("Incorrect row count - expected:%v, got:%v", 2, N)
	}

	rows, err := dbx.Query(`SELECT part_name, qty, created_at_db FROM raw_sheets_parts ORDER BY rowid`)
	if err != nil {
		t.Fatalf("Error querying raw_sheets_parts (%v)", err)
	}

	defer rows.Close()

	records := [][]string{}
	for rows.Next() {
		var name, qty string
		var created sql.NullString
		if err := rows.Scan(&name, &qty, &created); err != nil {
			t.Fatalf("%v", err)
		}

		if !created.Valid {
			t.Errorf("Expected created_at_db for %v", name)
		}

		records = append(records, []string{name, qty})
	}

	expected := [][]string{{"Bolt", "10"}, {"Nut", "20"}}
	if !reflect.DeepEqual(records, expected) {
		t.Errorf("Incorrect table contents\n   expected: %v\n   got:      %v", expected, records)
	}
}

func TestSyncRowCountMatchesInput(t *testing.T) {
	store, dbx := setup(t)

	rows := [][]interface{}{{"Date", "Category", "Amount"}}
	for i := 0; i < 250; i++ {
		rows = append(rows, []interface{}{fmt.Sprintf("2024-01-%02d", 1+i%28), "Fuel", fmt.Sprintf("%d.00", i)})
	}

	l := Loader{
		Source: &source{tabs: map[string][][]interface{}{"Expenses": rows}},
		Sink:   store,
	}

	N, err := l.Sync(context.Background(), Job{Tab: "Expenses", Table: "raw_sheets_expenses"})
	if err != nil {
		t.Fatalf("Unexpected error syncing Expenses (%v)", err)
	}

	if N != 250 {
		t.Errorf("Incorrect row count - expected:%v, got:%v", 250, N)
	}

	if N := count(t, dbx, "raw_sheets_expenses"); N != 250 {
		t.Errorf("Incorrect table row count - expected:%v, got:%v", 250, N)
	}
}

func TestSyncWithEmptyTab(t *testing.T) {
	store, dbx := setup(t)

	if _, err := dbx.Exec(`CREATE TABLE raw_sheets_marketing (channel TEXT, spend TEXT, created_at_db TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		t.Fatalf("%v", err)
	}

	if _, err := dbx.Exec(`INSERT INTO raw_sheets_marketing (channel, spend) VALUES ('Radio', '1200'), ('Print', '300')`); err != nil {
		t.Fatalf("%v", err)
	}

	for _, data := range [][][]interface{}{{}, {{"Channel", "Spend"}}} {
		l := Loader{
			Source: &source{tabs: map[string][][]interface{}{"Marketing": data}},
			Sink:   store,
		}

		N, err := l.Sync(context.Background(), Job{Tab: "Marketing", Table: "raw_sheets_marketing"})
		if err != nil {
			t.Fatalf("Unexpected error syncing empty tab (%v)", err)
		}

		if N != 0 {
			t.Errorf("Incorrect row count - expected:%v, got:%v", 0, N)
		}

		if N := count(t, dbx, "raw_sheets_marketing"); N != 2 {
			t.Errorf("Table modified by sync of empty tab - expected:%v rows, got:%v", 2, N)
		}
	}
}

func TestSyncWithEmptyTabDoesNotTouchDatabase(t *testing.T) {
	s := sink{}
	l := Loader{
		Source: &source{tabs: map[string][][]interface{}{"Parts": {{"Part Name", "Qty"}}}},
		Sink:   &s,
	}

	if _, err := l.Sync(context.Background(), Job{Tab: "Parts", Table: "raw_sheets_parts"}); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if len(s.replaced) != 0 {
		t.Errorf("Expected no database updates, got %v", s.replaced)
	}
}

func TestSyncWithEmptyTabAndInvalidHeader(t *testing.T) {
	s := sink{}

	for _, header := range [][]interface{}{{"Part Name", "part name"}, {"Part Name", ""}, {"Created At DB"}} {
		l := Loader{
			Source: &source{tabs: map[string][][]interface{}{"Parts": {header}}},
			Sink:   &s,
		}

		N, err := l.Sync(context.Background(), Job{Tab: "Parts", Table: "raw_sheets_parts"})
		if err != nil {
			t.Errorf("Unexpected error syncing empty tab with header %v (%v)", header, err)
		}

		if N != 0 {
			t.Errorf("Incorrect row count - expected:%v, got:%v", 0, N)
		}
	}

	if len(s.replaced) != 0 {
		t.Errorf("Expected no database updates, got %v", s.replaced)
	}
}

func TestSyncWithValuesBeyondHeader(t *testing.T) {
	s := sink{}
	l := Loader{
		Source: &source{
			tabs: map[string][][]interface{}{
				"Expenses": {
					{"Date", "Amount"},
					{"2024-01-03", "12.50", "ACME"},
				},
			},
		},
		Sink: &s,
	}

	if _, err := l.Sync(context.Background(), Job{Tab: "Expenses", Table: "raw_sheets_expenses"}); !errors.Is(err, table.ErrInvalidHeader) {
		t.Fatalf("Expected ErrInvalidHeader, got %v", err)
	}

	if len(s.replaced) != 0 {
		t.Errorf("Expected no database updates, got %v", s.replaced)
	}
}

func TestSyncWithDuplicateColumns(t *testing.T) {
	s := sink{}
	l := Loader{
		Source: &source{
			tabs: map[string][][]interface{}{
				"Parts": {
					{"Part Name", "part name"},
					{"Bolt", "Nut"},
				},
			},
		},
		Sink: &s,
	}

	if _, err := l.Sync(context.Background(), Job{Tab: "Parts", Table: "raw_sheets_parts"}); !errors.Is(err, table.ErrDuplicateColumn) {
		t.Fatalf("Expected ErrDuplicateColumn, got %v", err)
	}

	if len(s.replaced) != 0 {
		t.Errorf("Expected no database updates, got %v", s.replaced)
	}
}

func TestSyncDryRun(t *testing.T) {
	s := sink{}
	l := Loader{
		Source: &source{tabs: map[string][][]interface{}{"Parts": {{"Part Name"}, {"Bolt"}, {"Nut"}}}},
		Sink:   &s,
		DryRun: true,
	}

	N, err := l.Sync(context.Background(), Job{Tab: "Parts", Table: "raw_sheets_parts"})
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if N != 2 {
		t.Errorf("Incorrect row count - expected:%v, got:%v", 2, N)
	}

	if len(s.replaced) != 0 {
		t.Errorf("Expected no database updates for dry run, got %v", s.replaced)
	}
}

func TestRunContinuesAfterFailure(t *testing.T) {
	store, dbx := setup(t)

	src := source{
		tabs: map[string][][]interface{}{
			"Parts":     {{"Part Name", "Qty"}, {"Bolt", "10"}, {"Nut", "20"}},
			"Marketing": {{"Channel", "Spend"}, {"Radio", "1200"}},
		},
	}

	l := Loader{
		Source: &src,
		Sink:   store,
	}

	results := l.Run(context.Background(), jobs)

	if !reflect.DeepEqual(src.fetched, []string{"Parts", "Expenses", "Marketing"}) {
		t.Errorf("Incorrect fetch sequence - got:%v", src.fetched)
	}

	if len(results) != 3 {
		t.Fatalf("Incorrect number of results - expected:%v, got:%v", 3, len(results))
	}

	if results[0].Err != nil || results[0].Rows != 2 {
		t.Errorf("Incorrect result for Parts - got:%+v", results[0])
	}

	if results[1].Err == nil {
		t.Errorf("Expected error for Expenses, got %+v", results[1])
	}

	if results[2].Err != nil || results[2].Rows != 1 {
		t.Errorf("Incorrect result for Marketing - got:%+v", results[2])
	}

	if N := count(t, dbx, "raw_sheets_parts"); N != 2 {
		t.Errorf("Incorrect raw_sheets_parts row count - expected:%v, got:%v", 2, N)
	}

	if N := count(t, dbx, "raw_sheets_marketing"); N != 1 {
		t.Errorf("Incorrect raw_sheets_marketing row count - expected:%v, got:%v", 1, N)
	}
}

func TestRunWithJournal(t *testing.T) {
	store, dbx := setup(t)

	l := Loader{
		Source: &source{
			tabs: map[string][][]interface{}{
				"Parts": {{"Part Name", "Qty"}, {"Bolt", "10"}},
			},
		},
		Sink:    store,
		Journal: db.NewJournal(store, "public", "sheets_sync_log"),
	}

	l.Run(context.Background(), jobs[:2])

	var ok, failed int
	if err := dbx.QueryRow(`SELECT COUNT(*) FROM sheets_sync_log WHERE status = 'ok'`).Scan(&ok); err != nil {
		t.Fatalf("%v", err)
	}

	if err := dbx.QueryRow(`SELECT COUNT(*) FROM sheets_sync_log WHERE status = 'failed'`).Scan(&failed); err != nil {
		t.Fatalf("%v", err)
	}

	if ok != 1 || failed != 1 {
		t.Errorf("Incorrect sync log - expected 1 ok and 1 failed, got %v ok and %v failed", ok, failed)
	}
}

func TestJobString(t *testing.T) {
	if s := (Job{Tab: "Parts", Table: "raw_sheets_parts"}).String(); s != "public.raw_sheets_parts" {
		t.Errorf("Incorrect job description - expected:%v, got:%v", "public.raw_sheets_parts", s)
	}

	if s := (Job{Tab: "Parts", Table: "parts", Schema: "staging"}).String(); s != "staging.parts" {
		t.Errorf("Incorrect job description - expected:%v, got:%v", "staging.parts", s)
	}
}
