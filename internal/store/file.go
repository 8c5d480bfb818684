package store

import (
	"context"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/groundwater-cli/internal/model"
)

// fixtureRecord mirrors model.MetricRecord with nullable values so that a
// YAML null reads as unknown rather than zero.
type fixtureRecord struct {
	LocationID string              `yaml:"location_id"`
	Year       string              `yaml:"year"`
	Category   string              `yaml:"category"`
	Values     map[string]*float64 `yaml:"values"`
}

type fixtureFile struct {
	Locations []model.LocationNode `yaml:"locations"`
	Records   []fixtureRecord      `yaml:"records"`
}

// LoadDataset reads a YAML dataset. Year tokens are normalized to the
// canonical form.
func LoadDataset(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, eris.Wrapf(err, "file: read %s", path)
	}
	return ParseDataset(raw)
}

// ParseDataset decodes a YAML dataset document.
func ParseDataset(raw []byte) (Dataset, error) {
	var f fixtureFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Dataset{}, eris.Wrap(err, "file: decode dataset")
	}

	ds := Dataset{Locations: f.Locations, Records: make([]model.MetricRecord, 0, len(f.Records))}
	for i, fr := range f.Records {
		year, err := model.NormalizeYear(fr.Year)
		if err != nil {
			return Dataset{}, eris.Wrapf(err, "file: record %d (%s)", i, fr.LocationID)
		}
		r := model.NewRecord(fr.LocationID, year)
		r.Category = fr.Category
		for k, v := range fr.Values {
			r.SetPtr(model.Field(strings.ToLower(k)), v)
		}
		ds.Records = append(ds.Records, r)
	}
	return ds, nil
}

// MemoryStore is an in-process Store over a Dataset, used for local runs
// from a YAML fixture and in tests.
type MemoryStore struct {
	mu sync.RWMutex
	ds Dataset
}

// NewMemory returns a MemoryStore holding ds.
func NewMemory(ds Dataset) *MemoryStore {
	return &MemoryStore{ds: ds}
}

// NewFile loads a MemoryStore from a YAML dataset file.
func NewFile(path string) (*MemoryStore, error) {
	ds, err := LoadDataset(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(ds), nil
}

func (s *MemoryStore) FetchRecords(_ context.Context, locationID, year string) ([]model.MetricRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.MetricRecord
	for _, r := range s.ds.Records {
		if r.LocationID == locationID && r.Year == year {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) FetchRecordsAllYears(_ context.Context, name string, typ model.LocationType) ([]model.LocatedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = strings.TrimSpace(name)
	nodes := make(map[string]model.LocationNode)
	for _, n := range s.ds.Locations {
		if strings.EqualFold(n.Name, name) && (typ == "" || n.Type == typ) {
			nodes[n.ID] = n
		}
	}

	var out []model.LocatedRecord
	for _, r := range s.ds.Records {
		if n, ok := nodes[r.LocationID]; ok {
			out = append(out, model.LocatedRecord{Node: n, Record: r.Clone()})
		}
	}
	slices.SortStableFunc(out, func(a, b model.LocatedRecord) int {
		return strings.Compare(a.Record.Year, b.Record.Year)
	})
	return out, nil
}

func (s *MemoryStore) ListAvailableYears(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	years := make([]string, 0, len(s.ds.Records))
	for _, r := range s.ds.Records {
		years = append(years, r.Year)
	}
	slices.Sort(years)
	return slices.Compact(years), nil
}

func (s *MemoryStore) ListAllNodes(context.Context) ([]model.LocationNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.ds.Locations), nil
}

func (s *MemoryStore) Seed(_ context.Context, ds Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ds = Dataset{
		Locations: slices.Clone(ds.Locations),
		Records:   slices.Clone(ds.Records),
	}
	return nil
}

func (s *MemoryStore) Migrate(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
