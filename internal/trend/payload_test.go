package trend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/groundwater-cli/internal/model"
)

func TestTrendChartAndTable(t *testing.T) {
	s, err := NewSeries([]model.MetricRecord{
		yearRec("2021-2022", f(60), f(100), ""),
		yearRec("2022-2023", nil, nil, ""),
	})
	require.NoError(t, err)
	tr := Compose(s, mustMetric(t, "extraction"))

	chart := TrendChart(tr, "Pune")
	assert.Equal(t, ChartLine, chart.ChartType)
	require.Len(t, chart.Series, 1)
	require.Len(t, chart.Series[0].Data, 2)
	assert.Nil(t, chart.Series[0].Data[1].Value, "unknown values are gaps, not zero")
	assert.Equal(t, "Total Groundwater Extraction (ham)", chart.YAxis)

	table := TrendTable(tr, "Pune")
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2021-2022", "100.00", "N/A", "60.00", "Safe"}, table.Rows[0])
	assert.Equal(t, []string{"2022-2023", "N/A", "N/A", "N/A", "N/A"}, table.Rows[1])
}

func TestComparisonChart(t *testing.T) {
	m := mustMetric(t, "stage_of_extraction")
	a := series(t, "a", f(60))
	b := series(t, "b", nil)

	bar := ComparisonChart(m, []string{"Alpha", "Bravo"}, []Series{a, b})
	assert.Equal(t, ChartBar, bar.ChartType)
	require.Len(t, bar.Series[0].Data, 2)
	assert.Equal(t, "Alpha", bar.Series[0].Data[0].Label)
	assert.Nil(t, bar.Series[0].Data[1].Value)

	line := ComparisonChart(m, []string{"Alpha", "Bravo"}, []Series{series(t, "a", f(60), f(70)), series(t, "b", f(20), f(30))})
	assert.Equal(t, ChartLine, line.ChartType)
	assert.Len(t, line.Series, 2)
	assert.True(t, line.ShowLegend)
}

func TestRankingPayloads(t *testing.T) {
	m := mustMetric(t, "stage_of_extraction")
	ranked := RankWindow([]LocationSeries{
		{Node: loc("a", "Alpha"), Series: series(t, "a", f(95))},
		{Node: loc("b", "Bravo"), Series: series(t, "b", f(20))},
	}, m.Field, OrderDesc, 0)

	chart := RankingChart(m, ranked, "2020-2021")
	require.Len(t, chart.Series[0].Data, 2)
	assert.Equal(t, 95.0, *chart.Series[0].Data[0].Value)

	table := RankingTable(m, ranked)
	assert.Equal(t, []string{"1", "Alpha", "95.00", "95.00", "95.00", "Critical"}, table.Rows[0])

	breakdown := CategoryBreakdown(ranked)
	assert.Equal(t, 1, breakdown[model.CategoryCritical])
	assert.Equal(t, 1, breakdown[model.CategorySafe])
}
