package engine

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/groundwater-cli/internal/merge"
	"github.com/sells-group/groundwater-cli/internal/model"
)

type fetchKey struct {
	locationID string
	year       string
}

// fetchMerged reads and merges every key with bounded concurrency. Keys
// without rows are absent from the result.
func (e *Engine) fetchMerged(ctx context.Context, keys []fetchKey) (map[fetchKey]model.MetricRecord, error) {
	results := make([]*model.MetricRecord, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FetchConcurrency)
	for i, k := range keys {
		g.Go(func() error {
			rows, err := e.store.FetchRecords(gctx, k.locationID, k.year)
			if err != nil {
				return eris.Wrapf(err, "engine: fetch %s %s", k.locationID, k.year)
			}
			if len(rows) == 0 {
				return nil
			}
			rec := e.mergeRows(k.locationID, k.year, rows)
			results[i] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[fetchKey]model.MetricRecord, len(keys))
	for i, k := range keys {
		if results[i] != nil {
			out[k] = *results[i]
		}
	}
	return out, nil
}

// mergeRows merges non-empty rows for one (location, year). Conflicts are
// logged and never surfaced.
func (e *Engine) mergeRows(locationID, year string, rows []model.MetricRecord) model.MetricRecord {
	res, err := merge.Merge(rows)
	if err != nil {
		// unreachable for non-empty rows
		return model.NewRecord(locationID, year)
	}
	if res.Conflict {
		e.log.Warn("conflicting metric rows merged",
			zap.String("location_id", locationID),
			zap.String("year", year),
			zap.Int("rows", res.Rows),
		)
	}
	rec := res.Record
	if rec.LocationID == "" {
		rec.LocationID = locationID
	}
	if rec.Year == "" {
		rec.Year = year
	}
	return rec
}

// fetchSeries returns the merged records of one location for years, in the
// order of years, skipping years without data.
func (e *Engine) fetchSeries(ctx context.Context, locationID string, yrs []string) ([]model.MetricRecord, error) {
	keys := make([]fetchKey, len(yrs))
	for i, y := range yrs {
		keys[i] = fetchKey{locationID: locationID, year: y}
	}
	got, err := e.fetchMerged(ctx, keys)
	if err != nil {
		return nil, err
	}
	var out []model.MetricRecord
	for _, k := range keys {
		if r, ok := got[k]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// fetchAllYears reads every assessment of node through the name-keyed
// store path, dropping rows of other locations that share the name.
func (e *Engine) fetchAllYears(ctx context.Context, node model.LocationNode) ([]model.MetricRecord, error) {
	located, err := e.store.FetchRecordsAllYears(ctx, node.Name, node.Type)
	if err != nil {
		return nil, eris.Wrapf(err, "engine: fetch all years for %s", node.ID)
	}

	var rows []model.MetricRecord
	for _, lr := range located {
		if lr.Node.ID != node.ID {
			continue
		}
		r := lr.Record
		r.LocationID = node.ID
		if y, err := model.NormalizeYear(r.Year); err == nil {
			r.Year = y
		}
		rows = append(rows, r)
	}

	var out []model.MetricRecord
	for _, res := range merge.All(rows) {
		if res.Conflict {
			e.log.Warn("conflicting metric rows merged",
				zap.String("location_id", node.ID),
				zap.String("year", res.Record.Year),
				zap.Int("rows", res.Rows),
			)
		}
		out = append(out, res.Record)
	}
	return out, nil
}
