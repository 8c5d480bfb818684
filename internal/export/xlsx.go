// Package export writes trend and ranking tables to XLSX workbooks.
package export

import (
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/groundwater-cli/internal/model"
	"github.com/sells-group/groundwater-cli/internal/trend"
)

// Sheet names.
const (
	SheetTrend      = "Trend"
	SheetChanges    = "Category changes"
	SheetRanking    = "Ranking"
	SheetCategories = "Categories"
)

// maxSheetName is the XLSX limit on sheet name length.
const maxSheetName = 31

// TrendWorkbook builds a workbook with the trend table and its category
// changes.
func TrendWorkbook(t trend.Trend, table trend.TableData) (*xlsx.File, error) {
	f := xlsx.NewFile()
	if err := addTable(f, SheetTrend, table); err != nil {
		return nil, err
	}

	changes := trend.TableData{
		Title: "Category changes",
		Columns: []trend.Column{
			{Key: "year", Label: "Year", Type: "text"},
			{Key: "from", Label: "From", Type: "text"},
			{Key: "to", Label: "To", Type: "text"},
			{Key: "severity_delta", Label: "Severity change", Type: "number"},
		},
	}
	for _, c := range t.Changes {
		changes.Rows = append(changes.Rows, []string{c.Year, orNA(c.From), orNA(c.To), strconv.Itoa(c.Severity)})
	}
	if err := addTable(f, SheetChanges, changes); err != nil {
		return nil, err
	}
	return f, nil
}

// RankingWorkbook builds a workbook with the ranking table and the count of
// ranked locations per category.
func RankingWorkbook(table trend.TableData, breakdown map[model.Category]int) (*xlsx.File, error) {
	f := xlsx.NewFile()
	if err := addTable(f, SheetRanking, table); err != nil {
		return nil, err
	}

	cats := make([]model.Category, 0, len(breakdown))
	for c := range breakdown {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Severity() < cats[j].Severity() })

	counts := trend.TableData{
		Title: "Category breakdown",
		Columns: []trend.Column{
			{Key: "category", Label: "Category", Type: "text"},
			{Key: "count", Label: "Locations", Type: "number"},
		},
	}
	for _, c := range cats {
		counts.Rows = append(counts.Rows, []string{string(c), strconv.Itoa(breakdown[c])})
	}
	if err := addTable(f, SheetCategories, counts); err != nil {
		return nil, err
	}
	return f, nil
}

// Save writes f to path.
func Save(f *xlsx.File, path string) error {
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// Write streams f to w.
func Write(f *xlsx.File, w io.Writer) error {
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

// addTable appends a sheet holding a header row and td's rows. Number
// columns are written as numeric cells when they parse.
func addTable(f *xlsx.File, name string, td trend.TableData) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}

	header := sheet.AddRow()
	for _, c := range td.Columns {
		header.AddCell().SetString(c.Label)
	}
	for _, row := range td.Rows {
		r := sheet.AddRow()
		for i, v := range row {
			cell := r.AddCell()
			if i < len(td.Columns) && td.Columns[i].Type == "number" {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					cell.SetFloat(n)
					continue
				}
			}
			cell.SetString(v)
		}
	}
	return nil
}

func orNA(s string) string {
	if s == "" {
		return trend.NotAvailable
	}
	return s
}
