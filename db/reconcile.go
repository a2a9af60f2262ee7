package db

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/uhppoted/uhppoted-app-sheets-sync/table"
)

// Policy determines how a sync handles an existing table that is missing some of the
// incoming columns.
type Policy int

const (
	// Strict fails the sync with ErrSchemaMismatch.
	Strict Policy = iota

	// AddColumns adds the missing columns as nullable TEXT columns.
	AddColumns
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"

	case AddColumns:
		return "add-columns"

	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Plan is the DDL required to make a target table accept the incoming columns.
type Plan struct {
	Create  bool
	Columns []string
	Add     []string
}

// Reconcile compares the columns of an existing table with the incoming columns. An
// empty existing list means the table does not exist. Existing columns that are not in
// the incoming set are left alone and are populated with NULLs.
func Reconcile(existing, incoming []string, policy Policy) (Plan, error) {
	if len(incoming) == 0 {
		return Plan{}, fmt.Errorf("%w: no columns", ErrSchemaMismatch)
	}

	if len(existing) == 0 {
		return Plan{
			Create:  true,
			Columns: incoming,
		}, nil
	}

	columns := map[string]bool{}
	for _, c := range existing {
		columns[c] = true
	}

	missing := []string{}
	for _, c := range incoming {
		if !columns[c] {
			missing = append(missing, c)
		}
	}

	if len(missing) == 0 {
		return Plan{}, nil
	}

	if policy != AddColumns {
		return Plan{}, fmt.Errorf("%w: table has no column(s) %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}

	return Plan{Add: missing}, nil
}

func (p Plan) statements(d dialect, target string) []string {
	statements := []string{}

	if p.Create {
		columns := []string{}
		for _, c := range p.Columns {
			columns = append(columns, fmt.Sprintf("%s TEXT", pgx.Identifier{c}.Sanitize()))
		}

		columns = append(columns, fmt.Sprintf("%s %s DEFAULT CURRENT_TIMESTAMP", table.CreatedAt, d.timestamp))

		statements = append(statements, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", target, strings.Join(columns, ", ")))
	}

	for _, c := range p.Add {
		statements = append(statements, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", target, pgx.Identifier{c}.Sanitize()))
	}

	return statements
}
