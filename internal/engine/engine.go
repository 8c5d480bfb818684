// Package engine answers location and groundwater metric queries. Every
// outbound operation returns a tagged result with Found=false instead of an
// error, so callers can render an empty state.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/store"
	"github.com/sells-group/groundwater-cli/internal/years"
)

// Config bounds engine queries.
type Config struct {
	DefaultLimit     int
	MaxLimit         int
	FetchConcurrency int
}

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 10
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = 8
	}
	return c
}

// Engine wires the location index to a metric store.
type Engine struct {
	store store.MetricStore
	index *location.Holder
	cfg   Config
	log   *zap.Logger
}

// New returns an Engine reading from st and resolving names through index.
func New(st store.MetricStore, index *location.Holder, cfg Config) *Engine {
	return &Engine{
		store: st,
		index: index,
		cfg:   cfg.withDefaults(),
		log:   zap.L().With(zap.String("component", "engine")),
	}
}

// Result is the tag shared by all outbound results.
type Result struct {
	Found   bool            `json:"found"`
	Kind    model.ErrorKind `json:"kind,omitempty"`
	Message string          `json:"message,omitempty"`
}

func found() Result { return Result{Found: true} }

// fail converts err into a not-found result. Infrastructure failures are
// logged at Error; caller errors at Debug.
func (e *Engine) fail(op string, err error) Result {
	kind := model.KindOf(err)
	if kind == model.KindUnavailable {
		e.log.Error("query failed", zap.String("operation", op), zap.Error(err))
	} else {
		e.log.Debug("query not satisfied",
			zap.String("operation", op),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	return Result{Found: false, Kind: kind, Message: model.MessageOf(err)}
}

// Metrics lists the metric catalog.
func (e *Engine) Metrics() []catalog.Metric {
	return catalog.All()
}

// YearsResult lists the assessment years with data.
type YearsResult struct {
	Result
	Years  []string `json:"years,omitempty"`
	Latest string   `json:"latest,omitempty"`
}

// AvailableYears returns the canonical years present in the store.
func (e *Engine) AvailableYears(ctx context.Context) YearsResult {
	avail, err := e.availableYears(ctx)
	if err != nil {
		return YearsResult{Result: e.fail("years", err)}
	}
	if len(avail) == 0 {
		return YearsResult{Result: e.fail("years", model.DataNotFound("no assessment years are available"))}
	}
	return YearsResult{Result: found(), Years: avail, Latest: avail[len(avail)-1]}
}

func (e *Engine) availableYears(ctx context.Context) ([]string, error) {
	raw, err := e.store.ListAvailableYears(ctx)
	if err != nil {
		return nil, err
	}
	return years.Canonical(raw), nil
}

// IndexStatus describes the live location index.
type IndexStatus struct {
	Nodes      int    `json:"nodes"`
	Generation uint64 `json:"generation"`
}

// Index returns the size and generation of the live index.
func (e *Engine) Index() IndexStatus {
	return IndexStatus{Nodes: e.index.Load().Len(), Generation: e.index.Generation()}
}

// ReloadIndex rebuilds the location index from the store. On failure the
// previous index keeps serving.
func (e *Engine) ReloadIndex(ctx context.Context) (IndexStatus, error) {
	if _, err := e.index.Reload(ctx, e.store); err != nil {
		return e.Index(), err
	}
	return e.Index(), nil
}
