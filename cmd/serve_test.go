package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/groundwater-cli/internal/config"
	"github.com/sells-group/groundwater-cli/internal/engine"
	"github.com/sells-group/groundwater-cli/internal/location"
	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/store"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{AllowedOrigins: []string{"*"}, RateLimit: 1000, RateBurst: 1000}
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	ds, err := store.LoadDataset("testdata/dataset.yaml")
	require.NoError(t, err)
	st := store.NewMemory(ds)
	holder, err := location.Open(context.Background(), st, location.DefaultOptions())
	require.NoError(t, err)
	return engine.New(st, holder, engine.Config{})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return buildRouter(newTestEngine(t), testServerConfig())
}

func doRequest(t *testing.T, h http.Handler, method, target string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t)

	var body map[string]any
	rr := doRequest(t, h, http.MethodGet, "/health", &body)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(7), body["index_nodes"])
	assert.Equal(t, float64(1), body["index_generation"])

	_, err := uuid.Parse(rr.Header().Get(requestIDHeader))
	assert.NoError(t, err, "a request id is assigned")
}

func TestRequestIDPropagates(t *testing.T) {
	h := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(requestIDHeader))
}

func TestGroundwater_SingleYear(t *testing.T) {
	h := newTestRouter(t)

	var res engine.LookupResult
	rr := doRequest(t, h, http.MethodGet, "/v1/groundwater?name=pune", &res)
	assert.Equal(t, http.StatusOK, rr.Code)
	require.True(t, res.Found, res.Message)
	assert.False(t, res.IsHistorical)
	require.NotNil(t, res.Record)
	assert.Equal(t, "2024-2025", res.Record.Year)
	assert.Equal(t, 130.0, res.Record.Values[model.FieldExtractionTotal], "duplicate rows are merged")
	assert.Equal(t, "Critical", res.Category)
	assert.Equal(t, "Pune, Maharashtra, India", res.Location.Path)
}

func TestGroundwater_Trend(t *testing.T) {
	h := newTestRouter(t)

	var res engine.LookupResult
	doRequest(t, h, http.MethodGet, "/v1/groundwater?name=Pune&from=2022&to=2024-25", &res)
	require.True(t, res.Found, res.Message)
	assert.True(t, res.IsHistorical)
	assert.Equal(t, []string{"2022-2023", "2023-2024", "2024-2025"}, res.Years)
	require.NotNil(t, res.Trend)
	assert.Equal(t, "+46.2%", res.Trend.PercentChange)
	assert.Equal(t, "Worsening", res.Trend.OverallDirection)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "line", res.Chart.ChartType)
}

func TestGroundwater_AllYears(t *testing.T) {
	h := newTestRouter(t)

	var res engine.LookupResult
	doRequest(t, h, http.MethodGet, "/v1/groundwater?name=pune&all=true", &res)
	require.True(t, res.Found, res.Message)
	assert.Len(t, res.Series, 3)
}

func TestGroundwater_NotFoundIsOK(t *testing.T) {
	h := newTestRouter(t)

	var res engine.LookupResult
	rr := doRequest(t, h, http.MethodGet, "/v1/groundwater?name=atlantis", &res)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, res.Found)
	assert.Equal(t, model.KindNotFound, res.Kind)

	var invalid engine.LookupResult
	doRequest(t, h, http.MethodGet, "/v1/groundwater?name=pune&year=someday", &invalid)
	assert.Equal(t, model.KindInvalidParameter, invalid.Kind)
}

func TestGroundwater_Ambiguous(t *testing.T) {
	h := newTestRouter(t)

	var res engine.LookupResult
	doRequest(t, h, http.MethodGet, "/v1/groundwater?name=aurangabad&type=district", &res)
	require.True(t, res.Found, res.Message)
	assert.True(t, res.Ambiguous)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "br-aur", res.Alternatives[0].Node.ID)

	var hinted engine.LookupResult
	doRequest(t, h, http.MethodGet, "/v1/groundwater?name=aurangabad&type=district&parent=bihar", &hinted)
	require.True(t, hinted.Found, hinted.Message)
	assert.False(t, hinted.Ambiguous)
	assert.Equal(t, "br-aur", hinted.Location.Node.ID)
}

func TestBadQueryStrings(t *testing.T) {
	h := newTestRouter(t)

	for _, target := range []string{
		"/v1/groundwater?name=pune&all=maybe",
		"/v1/rank?metric=rainfall&limit=ten",
		"/v1/compare?names=pune&all=2",
	} {
		t.Run(target, func(t *testing.T) {
			var body map[string]string
			rr := doRequest(t, h, http.MethodGet, target, &body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCompare(t *testing.T) {
	h := newTestRouter(t)

	var res engine.CompareResult
	doRequest(t, h, http.MethodGet, "/v1/compare?names=pune,patna&names=atlantis", &res)
	require.True(t, res.Found, res.Message)
	require.Len(t, res.Locations, 2)
	assert.Equal(t, []string{"atlantis"}, res.Unresolved)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "bar", res.Chart.ChartType)
}

func TestRank(t *testing.T) {
	h := newTestRouter(t)

	var res engine.RankResult
	doRequest(t, h, http.MethodGet, "/v1/rank?metric=stage_of_extraction&type=district&limit=2", &res)
	require.True(t, res.Found, res.Message)
	require.Len(t, res.Ranked, 2)
	assert.Equal(t, "mh-aur", res.Ranked[0].Node.ID)
	assert.Equal(t, "Over-Exploited", res.Ranked[0].Category)
	assert.Equal(t, "mh-pune", res.Ranked[1].Node.ID)

	var within engine.RankResult
	doRequest(t, h, http.MethodGet, "/v1/rank?metric=stage_of_extraction&type=district&within=bihar&order=asc", &within)
	require.True(t, within.Found, within.Message)
	require.Len(t, within.Ranked, 2)
	assert.Equal(t, "Aurangabad", within.Ranked[0].Node.Name)
	assert.Equal(t, "Patna", within.Ranked[1].Node.Name)

	var missing engine.RankResult
	doRequest(t, h, http.MethodGet, "/v1/rank?type=district", &missing)
	assert.False(t, missing.Found)
	assert.Equal(t, model.KindInvalidParameter, missing.Kind)
}

func TestYearsMetricsChildren(t *testing.T) {
	h := newTestRouter(t)

	var yrs engine.YearsResult
	doRequest(t, h, http.MethodGet, "/v1/years", &yrs)
	require.True(t, yrs.Found)
	assert.Equal(t, []string{"2022-2023", "2023-2024", "2024-2025"}, yrs.Years)
	assert.Equal(t, "2024-2025", yrs.Latest)

	var metrics map[string][]map[string]any
	doRequest(t, h, http.MethodGet, "/v1/metrics", &metrics)
	assert.NotEmpty(t, metrics["metrics"])

	var children engine.ChildrenResult
	doRequest(t, h, http.MethodGet, "/v1/locations/children?parent=maharashtra&type=district", &children)
	require.True(t, children.Found, children.Message)
	require.Len(t, children.Nodes, 2)
	assert.Equal(t, "Aurangabad", children.Nodes[0].Name)
	assert.Equal(t, "Pune", children.Nodes[1].Name)

	var resolved engine.ResolveResult
	doRequest(t, h, http.MethodGet, "/v1/locations/resolve?name=maharastra", &resolved)
	require.True(t, resolved.Found, resolved.Message)
	assert.Equal(t, "mh", resolved.Location.Node.ID)
}

func TestIndexReload(t *testing.T) {
	h := newTestRouter(t)

	var st engine.IndexStatus
	rr := doRequest(t, h, http.MethodPost, "/v1/index/reload", &st)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, engine.IndexStatus{Nodes: 7, Generation: 2}, st)

	rr = doRequest(t, h, http.MethodGet, "/v1/index/reload", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimit(t *testing.T) {
	sc := testServerConfig()
	sc.RateLimit, sc.RateBurst = 0.001, 1
	h := buildRouter(newTestEngine(t), sc)

	rr := doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	sc := testServerConfig()
	sc.AllowedOrigins = []string{"https://maps.example.org"}
	h := buildRouter(newTestEngine(t), sc)

	req := httptest.NewRequest(http.MethodOptions, "/v1/years", nil)
	req.Header.Set("Origin", "https://maps.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "https://maps.example.org", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestQueryYears(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?years=2020,%202021&years=2022&from=2019&all=false", nil)
	p, err := queryYears(req)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021", "2022"}, p.Specific)
	assert.Equal(t, "2019", p.From)
	assert.False(t, p.All)
}
