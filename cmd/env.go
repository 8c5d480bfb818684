package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/groundwater-cli/internal/config"
	"github.com/sells-group/groundwater-cli/internal/engine"
	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/resilience"
	"github.com/sells-group/groundwater-cli/internal/store"
)

// queryEnv holds the store, the live location index and the engine used by
// the query and serve commands.
type queryEnv struct {
	Store  store.Store
	Index  *location.Holder
	Engine *engine.Engine
}

// Close releases the store.
func (qe *queryEnv) Close() {
	if qe.Store != nil {
		_ = qe.Store.Close()
	}
}

// initEngine validates cfg for mode, opens the store, builds the location
// index and wires the engine. Callers should defer env.Close().
func initEngine(ctx context.Context, mode string) (*queryEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	holder, err := location.Open(ctx, st, indexOptions(cfg.Index))
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "build location index")
	}

	return &queryEnv{
		Store:  st,
		Index:  holder,
		Engine: engine.New(st, holder, engineConfig(cfg.Query)),
	}, nil
}

// initStore opens the configured store behind a retry and circuit breaker
// guard.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	guard := resilience.NewGuard("store",
		resilience.NewRetryConfig(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs),
		resilience.BreakerConfig{
			FailureThreshold: c.Breaker.FailureThreshold,
			ResetTimeout:     time.Duration(c.Breaker.ResetTimeoutSecs) * time.Second,
		},
	)
	return store.Open(ctx, store.Options{
		Driver:      c.Store.Driver,
		DatabaseURL: c.Store.DatabaseURL,
		FixturePath: c.Store.FixturePath,
		Pool:        store.PoolConfig{MaxConns: c.Store.MaxConns, MinConns: c.Store.MinConns},
		Guard:       guard,
	})
}

// indexOptions maps index config onto resolution options. Configured
// aliases extend the built-in table.
func indexOptions(c config.IndexConfig) location.Options {
	aliases := make(map[string]string, len(location.DefaultAliases)+len(c.Aliases))
	for k, v := range location.DefaultAliases {
		aliases[k] = v
	}
	for k, v := range c.Aliases {
		if nk, nv := location.Normalize(k), location.Normalize(v); nk != "" && nv != "" {
			aliases[nk] = nv
		}
	}
	return location.Options{
		Threshold:             c.SimilarityThreshold,
		MaxCandidates:         c.MaxCandidates,
		ParentMismatchPenalty: c.ParentMismatchPenalty,
		Aliases:               aliases,
	}
}

func engineConfig(c config.QueryConfig) engine.Config {
	return engine.Config{
		DefaultLimit:     c.DefaultLimit,
		MaxLimit:         c.MaxLimit,
		FetchConcurrency: c.FetchConcurrency,
	}
}
