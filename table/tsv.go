package table

import (
	"encoding/csv"
	"fmt"
	"io"
)

// MakeTSV writes the table to a TSV file with the normalised column names as the
// header row.
func MakeTSV(f io.Writer, t *Table) error {
	if t == nil || len(t.Header) == 0 {
		return fmt.Errorf("Empty sheet")
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(t.Header); err != nil {
		return err
	}

	for _, record := range t.Records {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}
