package table

import (
	"errors"
	"fmt"
	"strings"
)

// CreatedAt is the column added to every target table and populated by the database
// when a row is inserted.
const CreatedAt = "created_at_db"

var ErrInvalidHeader = errors.New("missing/invalid header")
var ErrDuplicateColumn = errors.New("duplicate column name")
var ErrReservedColumn = errors.New("reserved column name")

// Table is the normalised contents of a worksheet tab. Every record has exactly one
// value per header column, in header order.
type Table struct {
	Header  []string
	Records [][]string
}

// MakeTable converts the raw rows of a worksheet into a Table. The first row is the
// header row. Short rows are padded with empty values. Empty cells beyond the last header
// column are discarded but a value beyond the last header column is an error.
func MakeTable(rows [][]interface{}) (*Table, error) {
	if len(rows) == 0 {
		return &Table{
			Header:  []string{},
			Records: [][]string{},
		}, nil
	}

	// .. build index
	index := map[string]int{}
	header := []string{}

	for i, v := range rows[0] {
		label := stringify(v)
		k := Normalise(label)

		switch {
		case strings.Trim(k, "_\t\r\n") == "":
			return nil, fmt.Errorf("%w (column %d)", ErrInvalidHeader, i+1)

		case k == CreatedAt:
			return nil, fmt.Errorf("%w '%s'", ErrReservedColumn, label)
		}

		if ix, ok := index[k]; ok {
			return nil, fmt.Errorf("%w '%s' (columns %d and %d)", ErrDuplicateColumn, label, ix+1, i+1)
		}

		index[k] = i
		header = append(header, k)
	}

	if len(header) == 0 {
		return nil, ErrInvalidHeader
	}

	// ... records
	records := [][]string{}
	for n, row := range rows[1:] {
		record := make([]string, len(header))
		for i, v := range row {
			if i < len(header) {
				record[i] = stringify(v)
			} else if strings.TrimSpace(stringify(v)) != "" {
				return nil, fmt.Errorf("%w: row %d has values beyond the last header column", ErrInvalidHeader, n+2)
			}
		}

		records = append(records, record)
	}

	return &Table{
		Header:  header,
		Records: records,
	}, nil
}

// Normalise converts a worksheet column label to a database column name by lower-casing
// it and replacing spaces with underscores. Normalise(Normalise(s)) == Normalise(s).
func Normalise(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}

func stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""

	case string:
		return s

	default:
		return fmt.Sprintf("%v", v)
	}
}
