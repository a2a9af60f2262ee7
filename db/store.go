package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/uhppoted/uhppoted-app-sheets-sync/table"
)

// Store is a relational database addressed by a DATABASE_URL. A Store does not hold a
// connection: every operation opens the database and closes it again on return.
type Store struct {
	dialect dialect
	dsn     string
	policy  Policy
	debug   bool
}

func NewStore(url string, policy Policy, debug bool) (*Store, error) {
	d, dsn, err := parse(url)
	if err != nil {
		return nil, err
	}

	return &Store{
		dialect: d,
		dsn:     dsn,
		policy:  policy,
		debug:   debug,
	}, nil
}

func (s *Store) Dialect() string {
	return s.dialect.name
}

// Replace replaces the contents of the target table with the table records in a single
// transaction, creating the table if it does not exist. On error the transaction is
// rolled back and the target table is left as it was.
func (s *Store) Replace(ctx context.Context, schema, name string, t *table.Table) (int, error) {
	db, err := sql.Open(s.dialect.driver, s.dsn)
	if err != nil {
		return 0, err
	}

	defer db.Close()

	header, err := s.dialect.identifiers(t.Header)
	if err != nil {
		return 0, err
	}

	var count int

	err = s.transact(ctx, db, func(tx *sql.Tx) error {
		target := s.dialect.qualify(schema, name)

		existing, err := s.dialect.columns(ctx, tx, schema, name)
		if err != nil {
			return fmt.Errorf("error retrieving columns for %s (%w)", target, err)
		}

		plan, err := Reconcile(existing, header, s.policy)
		if err != nil {
			return fmt.Errorf("%s: %w", target, err)
		}

		for _, stmt := range plan.statements(s.dialect, target) {
			if err := s.exec(ctx, tx, stmt); err != nil {
				return err
			}
		}

		if err := s.exec(ctx, tx, s.dialect.truncate(target)); err != nil {
			return err
		}

		for _, batch := range s.batches(header, t.Records) {
			stmt, args := s.insert(target, header, batch)
			if err := s.exec(ctx, tx, stmt, args...); err != nil {
				return err
			}

			count += len(batch)
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

func (s *Store) transact(ctx context.Context, db *sql.DB, f func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction (%w)", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
				log.Printf("%-5s rollback failed (%v)", "WARN", err)
			}
		}
	}()

	if err := f(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit (%w)", err)
	}

	committed = true

	return nil
}

func (s *Store) exec(ctx context.Context, tx *sql.Tx, stmt string, args ...any) error {
	if s.debug {
		if len(stmt) > 256 {
			log.Printf("%-5s %s... (%d args)", "DEBUG", stmt[:256], len(args))
		} else {
			log.Printf("%-5s %s", "DEBUG", stmt)
		}
	}

	if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
		return err
	}

	return nil
}

// batches splits the records so that no INSERT exceeds the driver's bind parameter limit.
func (s *Store) batches(columns []string, records [][]string) [][][]string {
	size := len(records)
	if len(columns) > 0 && size*len(columns) > s.dialect.maxParams {
		size = max(1, s.dialect.maxParams/len(columns))
	}

	batches := [][][]string{}
	for len(records) > 0 {
		n := min(size, len(records))
		batches = append(batches, records[:n])
		records = records[n:]
	}

	return batches
}

// insert builds a multi-row INSERT for the records. The column list and every value tuple
// have the same arity and order.
func (s *Store) insert(target string, columns []string, records [][]string) (string, []any) {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	args := make([]any, 0, len(records)*len(columns))

	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", target, strings.Join(names, ", "))

	for i, record := range records {
		if i > 0 {
			b.WriteString(", ")
		}

		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}

			args = append(args, record[j])
			b.WriteString(s.dialect.placeholder(len(args)))
		}
		b.WriteString(")")
	}

	return b.String(), args
}
