package store

import (
	"context"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// MetricStore is the read interface the engine consumes. Implementations
// return raw rows: several rows for one (location, year) are legal and are
// merged by the caller.
type MetricStore interface {
	// FetchRecords returns every row stored for locationID and year, in
	// insertion order. No rows is not an error.
	FetchRecords(ctx context.Context, locationID, year string) ([]model.MetricRecord, error)
	// FetchRecordsAllYears returns rows across all years for locations whose
	// name matches case-insensitively, optionally restricted to typ.
	FetchRecordsAllYears(ctx context.Context, name string, typ model.LocationType) ([]model.LocatedRecord, error)
	// ListAvailableYears returns the distinct year tokens present, ascending.
	ListAvailableYears(ctx context.Context) ([]string, error)
	// ListAllNodes returns the full location hierarchy.
	ListAllNodes(ctx context.Context) ([]model.LocationNode, error)
}

// Store is a MetricStore with lifecycle and loading hooks.
type Store interface {
	MetricStore

	// Seed replaces all stored locations and records with the dataset.
	Seed(ctx context.Context, ds Dataset) error

	Migrate(ctx context.Context) error
	Close() error
}

// Dataset is a complete set of locations and metric rows.
type Dataset struct {
	Locations []model.LocationNode  `json:"locations" yaml:"locations"`
	Records   []model.MetricRecord `json:"records" yaml:"records"`
}
