package store

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS locations (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	parent_id   TEXT REFERENCES locations(id)
);

CREATE TABLE IF NOT EXISTS metric_records (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	location_id TEXT NOT NULL REFERENCES locations(id),
	year        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	metrics     TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_locations_name ON locations(name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_metric_records_location_year ON metric_records(location_id, year);
`

// seedBatch bounds rows per INSERT to stay under SQLite's variable limit.
const seedBatch = 200

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) FetchRecords(ctx context.Context, locationID, year string) ([]model.MetricRecord, error) {
	query, args, err := sq.Select("location_id", "year", "category", "metrics").
		From("metric_records").
		Where(sq.Eq{"location_id": locationID, "year": year}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build fetch records")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch records")
	}
	defer rows.Close()

	var out []model.MetricRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: fetch records iterate")
}

func (s *SQLiteStore) FetchRecordsAllYears(ctx context.Context, name string, typ model.LocationType) ([]model.LocatedRecord, error) {
	b := sq.Select(
		"l.id", "l.external_id", "l.name", "l.type", "l.parent_id",
		"r.location_id", "r.year", "r.category", "r.metrics",
	).
		From("metric_records r").
		Join("locations l ON l.id = r.location_id").
		Where("LOWER(l.name) = LOWER(?)", strings.TrimSpace(name))
	if typ != "" {
		b = b.Where(sq.Eq{"l.type": string(typ)})
	}
	query, args, err := b.OrderBy("r.year", "r.id").ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build fetch all years")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: fetch all years")
	}
	defer rows.Close()

	var out []model.LocatedRecord
	for rows.Next() {
		var (
			lr      model.LocatedRecord
			typ     string
			parent  sql.NullString
			metrics []byte
		)
		if err := rows.Scan(
			&lr.Node.ID, &lr.Node.ExternalID, &lr.Node.Name, &typ, &parent,
			&lr.Record.LocationID, &lr.Record.Year, &lr.Record.Category, &metrics,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan located record")
		}
		lr.Node.Type = model.LocationType(typ)
		if parent.Valid {
			lr.Node.ParentID = model.StringPtr(parent.String)
		}
		if err := decodeMetrics(&lr.Record, metrics); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: fetch all years iterate")
}

func (s *SQLiteStore) ListAvailableYears(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("DISTINCT year").From("metric_records").OrderBy("year").ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list years")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list years")
	}
	defer rows.Close()

	var years []string
	for rows.Next() {
		var y string
		if err := rows.Scan(&y); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan year")
		}
		years = append(years, y)
	}
	return years, eris.Wrap(rows.Err(), "sqlite: list years iterate")
}

func (s *SQLiteStore) ListAllNodes(ctx context.Context) ([]model.LocationNode, error) {
	query, args, err := sq.Select("id", "external_id", "name", "type", "parent_id").
		From("locations").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list nodes")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list nodes")
	}
	defer rows.Close()

	var out []model.LocationNode
	for rows.Next() {
		var (
			n      model.LocationNode
			typ    string
			parent sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.ExternalID, &n.Name, &typ, &parent); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan node")
		}
		n.Type = model.LocationType(typ)
		if parent.Valid {
			n.ParentID = model.StringPtr(parent.String)
		}
		out = append(out, n)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list nodes iterate")
}

// Seed replaces both tables inside one transaction.
func (s *SQLiteStore) Seed(ctx context.Context, ds Dataset) error {
	loads, err := datasetLoads(ds)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin seed")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"metric_records", "locations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}

	for _, load := range loads {
		for start := 0; start < len(load.Rows); start += seedBatch {
			end := min(start+seedBatch, len(load.Rows))
			ins := sq.Insert(load.Table).Columns(load.Columns...)
			for _, row := range load.Rows[start:end] {
				ins = ins.Values(row...)
			}
			query, args, err := ins.ToSql()
			if err != nil {
				return eris.Wrapf(err, "sqlite: build insert %s", load.Table)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return eris.Wrapf(err, "sqlite: insert %s", load.Table)
			}
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit seed")
}
