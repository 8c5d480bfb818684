package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/groundwater-cli/internal/resilience"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverFile     = "file"
)

// Options selects and configures a Store.
type Options struct {
	Driver      string
	DatabaseURL string
	FixturePath string
	Pool        PoolConfig
	Guard       *resilience.Guard
}

// Open returns the Store for opts.Driver. SQL stores are migrated before
// they are returned.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch opts.Driver {
	case DriverPostgres:
		if opts.DatabaseURL == "" {
			return nil, eris.New("store: database_url is required for postgres (GROUNDWATER_STORE_DATABASE_URL)")
		}
		s, err = NewPostgres(ctx, opts.DatabaseURL, &opts.Pool, opts.Guard)
	case DriverSQLite:
		dsn := opts.DatabaseURL
		if dsn == "" {
			dsn = "groundwater.db"
		}
		s, err = NewSQLite(dsn)
	case DriverFile:
		if opts.FixturePath == "" {
			return nil, eris.New("store: fixture_path is required for the file driver")
		}
		fs, err := NewFile(opts.FixturePath)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, eris.Errorf("store: unsupported driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	return s, nil
}
