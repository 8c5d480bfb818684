package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/store/mocks"
	"github.com/sells-group/groundwater-cli/internal/trend"
	"github.com/sells-group/groundwater-cli/internal/years"
)

func node(id, name string, typ model.LocationType, parent string) model.LocationNode {
	return model.LocationNode{ID: id, Name: name, Type: typ, ParentID: model.StringPtr(parent)}
}

func fixtureNodes() []model.LocationNode {
	return []model.LocationNode{
		node("in", "INDIA", model.TypeCountry, ""),
		node("mh", "MAHARASHTRA", model.TypeState, "in"),
		node("br", "BIHAR", model.TypeState, "in"),
		node("up", "UTTAR PRADESH", model.TypeState, "in"),
		node("tn", "TAMIL NADU", model.TypeState, "in"),
		node("mh-aur", "Aurangabad", model.TypeDistrict, "mh"),
		node("mh-pune", "Pune", model.TypeDistrict, "mh"),
		node("br-aur", "Aurangabad", model.TypeDistrict, "br"),
		node("br-patna", "Patna", model.TypeDistrict, "br"),
		node("up-lko", "Lucknow", model.TypeDistrict, "up"),
		node("tn-chn", "Chennai", model.TypeDistrict, "tn"),
		node("mh-pune-haveli", "Haveli", model.TypeTaluk, "mh-pune"),
		node("mh-pune-maval", "Maval", model.TypeTaluk, "mh-pune"),
	}
}

func newTestEngine(t *testing.T) (*Engine, *mocks.MockMetricStore) {
	t.Helper()
	ix, err := location.Build(fixtureNodes(), location.DefaultOptions())
	require.NoError(t, err)
	st := mocks.NewMockMetricStore(t)
	e := New(st, location.NewHolder(ix, location.DefaultOptions()), Config{DefaultLimit: 10, MaxLimit: 50, FetchConcurrency: 4})
	return e, st
}

func rec(id, year string, values map[model.Field]float64) model.MetricRecord {
	r := model.NewRecord(id, year)
	for f, v := range values {
		r.Set(f, v)
	}
	return r
}

func stage(id, year string, v float64) model.MetricRecord {
	return rec(id, year, map[model.Field]float64{model.FieldStageOfExtraction: v})
}

var fiveYears = []string{"2020-2021", "2021-2022", "2022-2023", "2023-2024", "2024-2025"}

func TestResolveAndFetch_SingleYearMergesDuplicates(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return([]string{"2023-2024", "2024-25"}, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2024-2025").Return([]model.MetricRecord{
		rec("mh-pune", "2024-2025", map[model.Field]float64{model.FieldExtractionTotal: 60, model.FieldStageOfExtraction: 95}),
		rec("mh-pune", "2024-2025", map[model.Field]float64{model.FieldExtractionTotal: 40}),
	}, nil)

	got := e.ResolveAndFetch(context.Background(), LookupRequest{Name: "pune", Type: "district"})
	require.True(t, got.Found, got.Message)
	assert.False(t, got.IsHistorical)
	assert.Equal(t, "Pune, Maharashtra, India", got.Location.Path)
	require.NotNil(t, got.Record)
	assert.Equal(t, 100.0, *got.Record.Value(model.FieldExtractionTotal))
	assert.Equal(t, 95.0, *got.Record.Value(model.FieldStageOfExtraction))
	assert.False(t, got.Record.Known(model.FieldRainfallTotal))
	assert.Equal(t, "Critical", got.Category)
	require.NotNil(t, got.Summary)
	assert.Equal(t, "Groundwater in Pune, Maharashtra, India", got.Summary.Title)
	assert.Nil(t, got.Trend)
}

func TestResolveAndFetch_RangeBuildsTrend(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return(fiveYears, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2021-2022").Return([]model.MetricRecord{stage("mh-pune", "2021-2022", 60)}, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2022-2023").Return(nil, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2023-2024").Return([]model.MetricRecord{stage("mh-pune", "2023-2024", 92)}, nil)

	got := e.ResolveAndFetch(context.Background(), LookupRequest{
		Name:  "Pune",
		Years: years.Params{From: "2021", To: "2023-24"},
	})
	require.True(t, got.Found, got.Message)
	assert.True(t, got.IsHistorical)
	assert.Equal(t, []string{"2021-2022", "2023-2024"}, got.Years)
	require.NotNil(t, got.Trend)
	assert.Equal(t, "+53.3%", got.Trend.PercentChange)
	assert.Equal(t, trend.DirectionWorsening, got.Trend.OverallDirection)
	require.Len(t, got.Trend.Changes, 2)
	assert.Equal(t, "Critical", got.Trend.Changes[1].To)
	assert.NotNil(t, got.Chart)
	assert.NotNil(t, got.Table)
	assert.Len(t, got.Series, 2)
	assert.Nil(t, got.Record)
}

func TestResolveAndFetch_AllYearsFiltersNameCollisions(t *testing.T) {
	e, st := newTestEngine(t)

	mhNode, brNode := fixtureNodes()[5], fixtureNodes()[7]
	st.On("FetchRecordsAllYears", mock.Anything, "Aurangabad", model.TypeDistrict).Return([]model.LocatedRecord{
		{Node: mhNode, Record: stage("mh-aur", "2022-2023", 70)},
		{Node: brNode, Record: stage("br-aur", "2022-2023", 10)},
		{Node: mhNode, Record: stage("mh-aur", "2023-24", 75)},
		{Node: mhNode, Record: stage("mh-aur", "2023-2024", 5)},
	}, nil)

	got := e.ResolveAndFetch(context.Background(), LookupRequest{
		Name:   "aurangabad",
		Type:   "DISTRICT",
		Parent: "Maharashtra",
		Metric: "stage of extraction",
		Years:  years.Params{All: true},
	})
	require.True(t, got.Found, got.Message)
	assert.False(t, got.Ambiguous)
	assert.Equal(t, "mh-aur", got.Location.Node.ID)
	require.Len(t, got.Series, 2)
	assert.Equal(t, 70.0, *got.Series[0].Value(model.FieldStageOfExtraction))
	assert.Equal(t, 80.0, *got.Series[1].Value(model.FieldStageOfExtraction))
}

func TestResolveAndFetch_AmbiguousReportsRunnerUps(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return([]string{"2024-2025"}, nil)
	st.On("FetchRecords", mock.Anything, "mh-aur", "2024-2025").Return([]model.MetricRecord{stage("mh-aur", "2024-2025", 50)}, nil)

	got := e.ResolveAndFetch(context.Background(), LookupRequest{Name: "Aurangabad", Type: "district"})
	require.True(t, got.Found)
	assert.True(t, got.Ambiguous)
	assert.Equal(t, "mh-aur", got.Location.Node.ID)
	require.Len(t, got.Alternatives, 1)
	assert.Equal(t, "br-aur", got.Alternatives[0].Node.ID)
	assert.Equal(t, "Aurangabad, Bihar, India", got.Alternatives[0].Path)
}

func TestResolveAndFetch_Failures(t *testing.T) {
	tests := []struct {
		name     string
		req      LookupRequest
		wantKind model.ErrorKind
		wantMsg  string
	}{
		{"unknown name", LookupRequest{Name: "Atlantis"}, model.KindNotFound, `no location matching "Atlantis"`},
		{"empty name", LookupRequest{Name: "  "}, model.KindInvalidParameter, "invalid name"},
		{"unknown metric", LookupRequest{Name: "Pune", Metric: "happiness"}, model.KindInvalidParameter, "invalid metric"},
		{"unknown type", LookupRequest{Name: "Pune", Type: "village"}, model.KindInvalidParameter, "invalid type"},
		{"bad year", LookupRequest{Name: "Pune", Years: years.Params{Year: "soon"}}, model.KindInvalidParameter, "invalid year"},
		{"inverted range", LookupRequest{Name: "Pune", Years: years.Params{From: "2024", To: "2020"}}, model.KindInvalidParameter, "invalid fromYear"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no store expectations: validation must fail before any read
			e, _ := newTestEngine(t)
			got := e.ResolveAndFetch(context.Background(), tt.req)
			assert.False(t, got.Found)
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Contains(t, got.Message, tt.wantMsg)
		})
	}
}

func TestResolveAndFetch_YearWithoutRecord(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return(fiveYears, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2024-2025").Return(nil, nil)

	got := e.ResolveAndFetch(context.Background(), LookupRequest{Name: "Pune"})
	assert.False(t, got.Found)
	assert.Equal(t, model.KindNotFound, got.Kind)
	assert.NotNil(t, got.Location, "resolved location is still reported")
}

func TestResolveAndFetch_YearNotAvailable(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return(fiveYears, nil)

	got := e.ResolveAndFetch(context.Background(), LookupRequest{Name: "Pune", Years: years.Params{Year: "2010"}})
	assert.False(t, got.Found)
	assert.Equal(t, model.KindDataNotFound, got.Kind)
}

func TestResolveAndFetch_StoreFailure(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	got := e.ResolveAndFetch(context.Background(), LookupRequest{Name: "Pune"})
	assert.False(t, got.Found)
	assert.Equal(t, model.KindUnavailable, got.Kind)
	assert.Equal(t, "groundwater data is temporarily unavailable", got.Message)
}

func TestResolveAndFetch_FetchFailure(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return([]string{"2024-2025"}, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2024-2025").Return(nil, errors.New("timeout"))

	got := e.ResolveAndFetch(context.Background(), LookupRequest{Name: "Pune"})
	assert.False(t, got.Found)
	assert.Equal(t, model.KindUnavailable, got.Kind)
}

func TestResolve(t *testing.T) {
	e, _ := newTestEngine(t)

	got := e.Resolve(context.Background(), "uttar_pradesh", "", "")
	require.True(t, got.Found)
	assert.Equal(t, "up", got.Location.Node.ID)
	assert.Equal(t, "Uttar Pradesh", got.Location.Name)
	assert.NotEmpty(t, got.Candidates)

	got = e.Resolve(context.Background(), "aurangabad", "district", "bihar")
	require.True(t, got.Found)
	assert.Equal(t, "br-aur", got.Location.Node.ID)
	assert.True(t, got.Location.ParentMatched)
	assert.False(t, got.Ambiguous)

	got = e.Resolve(context.Background(), "zzzz", "", "")
	assert.False(t, got.Found)
	assert.Equal(t, model.KindNotFound, got.Kind)
}

func TestCompare(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return(fiveYears, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2024-2025").Return([]model.MetricRecord{stage("mh-pune", "2024-2025", 95)}, nil)
	st.On("FetchRecords", mock.Anything, "br-patna", "2024-2025").Return([]model.MetricRecord{stage("br-patna", "2024-2025", 40)}, nil)

	got := e.Compare(context.Background(), CompareRequest{Names: []string{"Pune, Patna", "Atlantis", "pune"}})
	require.True(t, got.Found, got.Message)
	assert.Equal(t, []string{"Atlantis"}, got.Unresolved)
	require.Len(t, got.Locations, 2)
	assert.Equal(t, "mh-pune", got.Locations[0].Location.Node.ID)
	assert.Equal(t, []string{"2024-2025"}, got.Years)
	require.NotNil(t, got.Chart)
	assert.Equal(t, trend.ChartBar, got.Chart.ChartType)
	require.NotNil(t, got.Summary)
	assert.Contains(t, strings.Join(got.Summary.Insights, " "), "highest in Pune")
}

func TestCompare_Failures(t *testing.T) {
	e, _ := newTestEngine(t)

	got := e.Compare(context.Background(), CompareRequest{})
	assert.Equal(t, model.KindInvalidParameter, got.Kind)

	got = e.Compare(context.Background(), CompareRequest{Names: []string{"Atlantis", "Gondor"}})
	assert.Equal(t, model.KindNotFound, got.Kind)
	assert.Equal(t, []string{"Atlantis", "Gondor"}, got.Unresolved)

	got = e.Compare(context.Background(), CompareRequest{Names: []string{"Pune"}, Metric: "nope"})
	assert.Equal(t, model.KindInvalidParameter, got.Kind)
}

func TestCompare_NoData(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return([]string{"2024-2025"}, nil)
	st.On("FetchRecords", mock.Anything, mock.Anything, "2024-2025").Return(nil, nil)

	got := e.Compare(context.Background(), CompareRequest{Names: []string{"Pune", "Patna"}})
	assert.False(t, got.Found)
	assert.Equal(t, model.KindDataNotFound, got.Kind)
}

func TestRank_WithinStateOverWindow(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return(fiveYears, nil)
	st.On("FetchRecords", mock.Anything, "mh-aur", "2023-2024").Return([]model.MetricRecord{stage("mh-aur", "2023-2024", 80)}, nil)
	st.On("FetchRecords", mock.Anything, "mh-aur", "2024-2025").Return([]model.MetricRecord{stage("mh-aur", "2024-2025", 94)}, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2023-2024").Return([]model.MetricRecord{stage("mh-pune", "2023-2024", 60)}, nil)
	st.On("FetchRecords", mock.Anything, "mh-pune", "2024-2025").Return(nil, nil)

	got := e.Rank(context.Background(), RankRequest{
		Metric: "stage_of_extraction",
		Type:   "district",
		Order:  "desc",
		Within: "maharashtra",
		Years:  years.Params{From: "2023-2024"},
	})
	require.True(t, got.Found, got.Message)
	assert.Equal(t, "mh", got.Within.Node.ID)
	assert.Equal(t, "2023-2024 to 2024-2025", got.Window)
	require.Len(t, got.Ranked, 2)
	assert.Equal(t, "mh-aur", got.Ranked[0].Node.ID)
	assert.Equal(t, 1, got.Ranked[0].Rank)
	assert.InDelta(t, 87.0, got.Ranked[0].Average, 1e-9)
	assert.Equal(t, 80.0, got.Ranked[0].Min)
	assert.Equal(t, 94.0, got.Ranked[0].Max)
	assert.Equal(t, "Critical", got.Ranked[0].Category)
	assert.Equal(t, 1, got.Ranked[1].Years)
	assert.Equal(t, 1, got.Breakdown[model.CategoryCritical])
	assert.NotNil(t, got.Chart)
	assert.NotNil(t, got.Table)
	assert.NotNil(t, got.Summary)
}

func TestRank_DefaultsAndLimit(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return([]string{"2024-2025"}, nil)
	values := map[string]float64{"mh": 50, "br": 20, "up": 80, "tn": 95}
	for id, v := range values {
		st.On("FetchRecords", mock.Anything, id, "2024-2025").Return([]model.MetricRecord{stage(id, "2024-2025", v)}, nil)
	}

	got := e.Rank(context.Background(), RankRequest{Metric: "stage_of_extraction", Order: "lowest", Limit: 2})
	require.True(t, got.Found, got.Message)
	assert.Equal(t, model.TypeState, got.Type)
	assert.Equal(t, trend.OrderAsc, got.Order)
	require.Len(t, got.Ranked, 2)
	assert.Equal(t, "Bihar", got.Ranked[0].Node.Name)
	assert.Equal(t, "Maharashtra", got.Ranked[1].Node.Name)
}

func TestRank_Failures(t *testing.T) {
	tests := []struct {
		name     string
		req      RankRequest
		wantKind model.ErrorKind
	}{
		{"missing metric", RankRequest{}, model.KindInvalidParameter},
		{"unknown metric", RankRequest{Metric: "vibes"}, model.KindInvalidParameter},
		{"bad order", RankRequest{Metric: "rainfall", Order: "sideways"}, model.KindInvalidParameter},
		{"negative limit", RankRequest{Metric: "rainfall", Limit: -1}, model.KindInvalidParameter},
		{"unknown within", RankRequest{Metric: "rainfall", Type: "district", Within: "Atlantis"}, model.KindNotFound},
		{"within below type", RankRequest{Metric: "rainfall", Type: "state", Within: "Pune"}, model.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t)
			got := e.Rank(context.Background(), tt.req)
			assert.False(t, got.Found)
			assert.Equal(t, tt.wantKind, got.Kind)
		})
	}
}

func TestLimit(t *testing.T) {
	e, _ := newTestEngine(t)

	n, err := e.limit(0)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	n, err = e.limit(500)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
	n, err = e.limit(3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestListChildren(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	got := e.ListChildren(ctx, ChildrenRequest{})
	require.True(t, got.Found)
	assert.Equal(t, model.TypeState, got.Type)
	var names []string
	for _, n := range got.Nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Bihar", "Maharashtra", "Tamil Nadu", "Uttar Pradesh"}, names)

	got = e.ListChildren(ctx, ChildrenRequest{Type: "district", Parent: "maharashtra"})
	require.True(t, got.Found)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, "Aurangabad", got.Nodes[0].Name)
	assert.Equal(t, "Pune", got.Nodes[1].Name)
	assert.Equal(t, "Districts in Maharashtra, India", got.Summary.Title)

	got = e.ListChildren(ctx, ChildrenRequest{Type: "taluk", Parent: "Maharashtra"})
	require.True(t, got.Found)
	assert.Len(t, got.Nodes, 2)

	got = e.ListChildren(ctx, ChildrenRequest{Type: "taluk", Parent: "Bihar"})
	assert.False(t, got.Found)
	assert.Equal(t, model.KindNotFound, got.Kind)

	got = e.ListChildren(ctx, ChildrenRequest{Type: "country"})
	require.True(t, got.Found)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "India", got.Nodes[0].Name)

	got = e.ListChildren(ctx, ChildrenRequest{Type: "hamlet"})
	assert.Equal(t, model.KindInvalidParameter, got.Kind)
}

func TestAvailableYears(t *testing.T) {
	e, st := newTestEngine(t)

	st.On("ListAvailableYears", mock.Anything).Return([]string{"2024-25", "2023-2024", "2024-2025", "junk"}, nil).Once()
	got := e.AvailableYears(context.Background())
	require.True(t, got.Found)
	assert.Equal(t, []string{"2023-2024", "2024-2025"}, got.Years)
	assert.Equal(t, "2024-2025", got.Latest)

	st.On("ListAvailableYears", mock.Anything).Return(nil, nil).Once()
	got = e.AvailableYears(context.Background())
	assert.Equal(t, model.KindDataNotFound, got.Kind)
}

func TestReloadIndex(t *testing.T) {
	e, st := newTestEngine(t)
	ctx := context.Background()
	assert.Equal(t, IndexStatus{Nodes: 13, Generation: 1}, e.Index())

	nodes := append(fixtureNodes(), node("mh-nashik", "Nashik", model.TypeDistrict, "mh"))
	st.On("ListAllNodes", mock.Anything).Return(nodes, nil).Once()
	status, err := e.ReloadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, IndexStatus{Nodes: 14, Generation: 2}, status)
	assert.True(t, e.Resolve(ctx, "nashik", "", "").Found)

	st.On("ListAllNodes", mock.Anything).Return(nil, errors.New("connection reset")).Once()
	status, err = e.ReloadIndex(ctx)
	require.Error(t, err)
	assert.Equal(t, uint64(2), status.Generation)
	assert.True(t, e.Resolve(ctx, "nashik", "", "").Found)
}

func TestMetrics(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.NotEmpty(t, e.Metrics())
}
