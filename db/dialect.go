package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	name      string
	driver    string
	timestamp string
	maxParams int
	maxIdent  int

	placeholder func(n int) string
	qualify     func(schema, table string) string
	truncate    func(table string) string
	columns     func(ctx context.Context, q querier, schema, table string) ([]string, error)
}

var postgres = dialect{
	name:      "postgres",
	driver:    "pgx",
	timestamp: "TIMESTAMPTZ",
	maxParams: 65535,
	maxIdent:  63,

	placeholder: func(n int) string {
		return fmt.Sprintf("$%d", n)
	},

	qualify: func(schema, table string) string {
		if schema == "" {
			return pgx.Identifier{table}.Sanitize()
		}

		return pgx.Identifier{schema, table}.Sanitize()
	},

	truncate: func(table string) string {
		return fmt.Sprintf("TRUNCATE TABLE %s", table)
	},

	columns: func(ctx context.Context, q querier, schema, table string) ([]string, error) {
		if schema == "" {
			schema = "public"
		}

		return query(ctx, q, `SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2 ORDER BY ordinal_position`, schema, table)
	},
}

// sqlite maps the default Postgres schema (public) to the main database.
var sqlite = dialect{
	name:      "sqlite",
	driver:    "sqlite",
	timestamp: "TIMESTAMP",
	maxParams: 32766,

	placeholder: func(n int) string {
		return "?"
	},

	qualify: func(schema, table string) string {
		if s := sqliteSchema(schema); s != "main" {
			return pgx.Identifier{s, table}.Sanitize()
		}

		return pgx.Identifier{table}.Sanitize()
	},

	truncate: func(table string) string {
		return fmt.Sprintf("DELETE FROM %s", table)
	},

	columns: func(ctx context.Context, q querier, schema, table string) ([]string, error) {
		return query(ctx, q, `SELECT name FROM pragma_table_info(?, ?) ORDER BY cid`, table, sqliteSchema(schema))
	},
}

// identifiers returns the column names as stored by the database. Postgres truncates
// identifiers longer than NAMEDATALEN-1 bytes, on a character boundary.
func (d dialect) identifiers(columns []string) ([]string, error) {
	list := make([]string, len(columns))
	index := map[string]int{}

	for i, c := range columns {
		k := clip(c, d.maxIdent)
		if ix, ok := index[k]; ok {
			return nil, fmt.Errorf("%w: columns '%s' and '%s' are both truncated to '%s'", ErrSchemaMismatch, columns[ix], c, k)
		}

		index[k] = i
		list[i] = k
	}

	return list, nil
}

func clip(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}

	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}

	return s[:n]
}

func sqliteSchema(schema string) string {
	if schema == "" || schema == "public" {
		return "main"
	}

	return schema
}

// parse maps a DATABASE_URL to the dialect and the DSN to pass to the driver.
func parse(url string) (dialect, string, error) {
	url = strings.TrimSpace(url)

	switch {
	case url == "":
		return dialect{}, "", ErrMissingURL

	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres, url, nil

	case strings.HasPrefix(url, "sqlite://"):
		return sqlite, strings.TrimPrefix(url, "sqlite://"), nil

	case strings.HasPrefix(url, "file:"):
		return sqlite, url, nil

	case !strings.Contains(url, "://") && strings.Contains(url, "="):
		return postgres, url, nil // keyword/value connection string
	}

	return dialect{}, "", fmt.Errorf("%w '%s'", ErrUnsupportedURL, redact(url))
}

// redact removes the user information from a URL for logging.
func redact(url string) string {
	if ix := strings.Index(url, "://"); ix >= 0 {
		if at := strings.LastIndex(url, "@"); at > ix {
			return url[:ix+3] + "***" + url[at:]
		}
	}

	return url
}

func query(ctx context.Context, q querier, sql string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	list := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}

		list = append(list, s)
	}

	return list, rows.Err()
}
