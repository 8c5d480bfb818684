package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into table using the COPY protocol.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}
	return n, nil
}

// TableLoad is one table's worth of rows for ReplaceTables.
type TableLoad struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// ReplaceTables truncates every table and reloads it inside a single
// transaction, so readers see either the old or the new snapshot. Tables
// are truncated together and loaded in the given order.
func ReplaceTables(ctx context.Context, pool Pool, loads []TableLoad) (int64, error) {
	if len(loads) == 0 {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: begin replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	names := make([]string, 0, len(loads))
	for _, l := range loads {
		names = append(names, pgx.Identifier{l.Table}.Sanitize())
	}
	if _, err := tx.Exec(ctx, "TRUNCATE "+strings.Join(names, ", ")); err != nil {
		return 0, eris.Wrap(err, "db: truncate")
	}

	var total int64
	for _, l := range loads {
		if len(l.Rows) == 0 {
			continue
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{l.Table}, l.Columns, pgx.CopyFromRows(l.Rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: COPY INTO %s", l.Table)
		}
		total += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: commit replace")
	}
	return total, nil
}

