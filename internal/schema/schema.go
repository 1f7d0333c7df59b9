// Package schema declares the climate dataset layout the service reads.
// The tables are owned by whoever produced the dataset file; this package
// never alters an existing file, it only creates the layout in an empty
// one (fixtures, local development) and checks that a file matches.
package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
)

//go:embed sql/schema.sql
var schemaSQL string

// ErrMismatch is returned by Verify when a table or column is missing.
var ErrMismatch = errors.New("schema mismatch")

// Table lists the columns a table must carry for the queries to work.
// Extra columns in the dataset are ignored.
type Table struct {
	Name    string
	Columns []string
}

var Tables = []Table{
	{Name: "measurement", Columns: []string{"station", "date", "prcp", "tobs"}},
	{Name: "station", Columns: []string{"station", "name"}},
}

// DDL returns the CREATE statements for the declared tables.
func DDL() string {
	return schemaSQL
}

// Create executes the declared DDL. Statements use IF NOT EXISTS, so
// running it against a file that already has the tables is a no-op.
func Create(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Verify checks every declared table and column against the live file.
func Verify(ctx context.Context, db *sql.DB) error {
	var problems []string
	for _, tbl := range Tables {
		have, err := columns(ctx, db, tbl.Name)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", tbl.Name, err)
		}
		if len(have) == 0 {
			problems = append(problems, "missing table "+tbl.Name)
			continue
		}
		var missing []string
		for _, c := range tbl.Columns {
			if !have[c] {
				missing = append(missing, c)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			problems = append(problems, fmt.Sprintf("%s missing columns %s", tbl.Name, strings.Join(missing, ", ")))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrMismatch, strings.Join(problems, "; "))
	}
	return nil
}

func columns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[strings.ToLower(name)] = true
	}
	return out, rows.Err()
}
