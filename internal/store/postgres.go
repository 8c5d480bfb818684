package store

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/groundwater-cli/internal/db"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool. Reads run through an
// optional resilience.Guard.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	guard   *resilience.Guard
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// NewPostgres creates a PostgresStore with a connection pool. guard may be
// nil to disable retries.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig, guard *resilience.Guard) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, guard: guard}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS locations (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL DEFAULT '',
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	parent_id   TEXT REFERENCES locations(id)
);

CREATE TABLE IF NOT EXISTS metric_records (
	id          BIGSERIAL PRIMARY KEY,
	location_id TEXT NOT NULL REFERENCES locations(id),
	year        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	metrics     JSONB NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_locations_lower_name ON locations(LOWER(name));
CREATE INDEX IF NOT EXISTS idx_locations_parent ON locations(parent_id);
CREATE INDEX IF NOT EXISTS idx_metric_records_location_year ON metric_records(location_id, year);
CREATE INDEX IF NOT EXISTS idx_metric_records_year ON metric_records(year);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) FetchRecords(ctx context.Context, locationID, year string) ([]model.MetricRecord, error) {
	query, args, err := psql.Select("location_id", "year", "category", "metrics").
		From("metric_records").
		Where(sq.Eq{"location_id": locationID, "year": year}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build fetch records")
	}

	return resilience.Run(ctx, s.guard, "postgres.fetch_records", func(ctx context.Context) ([]model.MetricRecord, error) {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: fetch records")
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
		return out, eris.Wrap(rows.Err(), "postgres: fetch records iterate")
	})
}

func (s *PostgresStore) FetchRecordsAllYears(ctx context.Context, name string, typ model.LocationType) ([]model.LocatedRecord, error) {
	b := psql.Select(
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
		return nil, eris.Wrap(err, "postgres: build fetch all years")
	}

	return resilience.Run(ctx, s.guard, "postgres.fetch_records_all_years", func(ctx context.Context) ([]model.LocatedRecord, error) {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: fetch all years")
		}
		defer rows.Close()

		var out []model.LocatedRecord
		for rows.Next() {
			var (
				lr      model.LocatedRecord
				typ     string
				metrics []byte
			)
			if err := rows.Scan(
				&lr.Node.ID, &lr.Node.ExternalID, &lr.Node.Name, &typ, &lr.Node.ParentID,
				&lr.Record.LocationID, &lr.Record.Year, &lr.Record.Category, &metrics,
			); err != nil {
				return nil, eris.Wrap(err, "postgres: scan located record")
			}
			lr.Node.Type = model.LocationType(typ)
			if err := decodeMetrics(&lr.Record, metrics); err != nil {
				return nil, err
			}
			out = append(out, lr)
		}
		return out, eris.Wrap(rows.Err(), "postgres: fetch all years iterate")
	})
}

func (s *PostgresStore) ListAvailableYears(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("DISTINCT year").From("metric_records").OrderBy("year").ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list years")
	}

	return resilience.Run(ctx, s.guard, "postgres.list_years", func(ctx context.Context) ([]string, error) {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list years")
		}
		years, err := pgx.CollectRows(rows, pgx.RowTo[string])
		return years, eris.Wrap(err, "postgres: collect years")
	})
}

func (s *PostgresStore) ListAllNodes(ctx context.Context) ([]model.LocationNode, error) {
	query, args, err := psql.Select("id", "external_id", "name", "type", "parent_id").
		From("locations").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list nodes")
	}

	return resilience.Run(ctx, s.guard, "postgres.list_nodes", func(ctx context.Context) ([]model.LocationNode, error) {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list nodes")
		}
		defer rows.Close()

		var out []model.LocationNode
		for rows.Next() {
			var n model.LocationNode
			var typ string
			if err := rows.Scan(&n.ID, &n.ExternalID, &n.Name, &typ, &n.ParentID); err != nil {
				return nil, eris.Wrap(err, "postgres: scan node")
			}
			n.Type = model.LocationType(typ)
			out = append(out, n)
		}
		return out, eris.Wrap(rows.Err(), "postgres: list nodes iterate")
	})
}

// Seed truncates both tables and bulk-loads ds with COPY in one transaction.
func (s *PostgresStore) Seed(ctx context.Context, ds Dataset) error {
	loads, err := datasetLoads(ds)
	if err != nil {
		return err
	}
	_, err = db.ReplaceTables(ctx, s.pool, loads)
	return eris.Wrap(err, "postgres: seed")
}

// datasetLoads converts ds into COPY rows. Parents are emitted before
// children so the foreign key holds during the load.
func datasetLoads(ds Dataset) ([]db.TableLoad, error) {
	locs := db.TableLoad{
		Table:   "locations",
		Columns: []string{"id", "external_id", "name", "type", "parent_id"},
	}
	for _, n := range parentsFirst(ds.Locations) {
		locs.Rows = append(locs.Rows, []any{n.ID, n.ExternalID, n.Name, string(n.Type), n.ParentID})
	}

	recs := db.TableLoad{
		Table:   "metric_records",
		Columns: []string{"location_id", "year", "category", "metrics"},
	}
	for _, r := range ds.Records {
		metrics, err := encodeMetrics(r.Values)
		if err != nil {
			return nil, err
		}
		recs.Rows = append(recs.Rows, []any{r.LocationID, r.Year, r.Category, metrics})
	}
	return []db.TableLoad{locs, recs}, nil
}

// parentsFirst orders nodes by hierarchy depth, keeping input order within
// a level.
func parentsFirst(nodes []model.LocationNode) []model.LocationNode {
	out := make([]model.LocationNode, 0, len(nodes))
	for depth := 0; depth < model.MaxDepth; depth++ {
		for _, n := range nodes {
			if n.Type.Depth() == depth {
				out = append(out, n)
			}
		}
	}
	for _, n := range nodes {
		if n.Type.Depth() < 0 {
			out = append(out, n)
		}
	}
	return out
}

// rowScanner is satisfied by pgx.Rows and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.MetricRecord, error) {
	var (
		r       model.MetricRecord
		metrics []byte
	)
	if err := row.Scan(&r.LocationID, &r.Year, &r.Category, &metrics); err != nil {
		return r, eris.Wrap(err, "store: scan record")
	}
	if err := decodeMetrics(&r, metrics); err != nil {
		return r, err
	}
	return r, nil
}
