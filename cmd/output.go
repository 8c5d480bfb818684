package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/groundwater-cli/internal/engine"
	"github.com/sells-group/groundwater-cli/internal/summary"
	"github.com/sells-group/groundwater-cli/internal/trend"
)

func wantJSON() bool {
	return strings.EqualFold(outputFormat, "json")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode output")
	}
	return nil
}

// render writes v as JSON or through text, and turns a not-found result
// into a command error.
func render(w io.Writer, r engine.Result, v any, text func(io.Writer)) error {
	if wantJSON() {
		if err := printJSON(w, v); err != nil {
			return err
		}
	} else if r.Found {
		text(w)
	}
	if !r.Found {
		return eris.Errorf("%s: %s", r.Kind, r.Message)
	}
	return nil
}

func formatSummary(w io.Writer, s *summary.Summary) {
	if s == nil {
		return
	}
	fmt.Fprintln(w, s.Title)
	if s.Subtitle != "" {
		fmt.Fprintln(w, s.Subtitle)
	}
	if len(s.KeyMetrics) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, km := range s.KeyMetrics {
			status := ""
			if km.Status != nil {
				status = *km.Status
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", km.Label, trend.FormatValue(km.Value), km.Unit, status)
		}
		tw.Flush() //nolint:errcheck
	}
	if len(s.Insights) > 0 {
		fmt.Fprintln(w)
		for _, in := range s.Insights {
			fmt.Fprintf(w, "  - %s\n", in)
		}
	}
}

func formatTable(w io.Writer, td *trend.TableData) {
	if td == nil {
		return
	}
	fmt.Fprintf(w, "\n%s\n", td.Title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	labels := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		labels[i] = strings.ToUpper(c.Label)
	}
	fmt.Fprintln(tw, strings.Join(labels, "\t"))
	for _, row := range td.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush() //nolint:errcheck
}

func formatAmbiguity(w io.Writer, ambiguous bool, alts []engine.Match) {
	if !ambiguous {
		return
	}
	names := make([]string, len(alts))
	for i, a := range alts {
		names[i] = a.Path
	}
	fmt.Fprintf(w, "Note: name is ambiguous; also matches %s. Use --parent to choose.\n\n", strings.Join(names, "; "))
}

func formatResolve(w io.Writer, r engine.ResolveResult) {
	formatAmbiguity(w, r.Ambiguous, r.Alternatives)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSCORE\tPATH")
	for _, c := range r.Candidates {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n", c.Node.ID, c.Node.Type, c.Score, c.Path)
	}
	tw.Flush() //nolint:errcheck
}

func formatLookup(w io.Writer, r engine.LookupResult) {
	formatAmbiguity(w, r.Ambiguous, r.Alternatives)
	formatSummary(w, r.Summary)
	formatTable(w, r.Table)
}

func formatCompare(w io.Writer, r engine.CompareResult) {
	formatSummary(w, r.Summary)
	if len(r.Unresolved) > 0 {
		fmt.Fprintf(w, "\nUnresolved: %s\n", strings.Join(r.Unresolved, ", "))
	}
	if !r.IsHistorical {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\t"+strings.Join(r.Years, "\t"))
	for _, c := range r.Locations {
		byYear := make(map[string]*float64, len(c.Records))
		for _, rec := range c.Records {
			byYear[rec.Year] = rec.Value(r.Metric.Field)
		}
		cells := []string{c.Location.Name}
		for _, y := range r.Years {
			cells = append(cells, trend.FormatValue(byYear[y]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush() //nolint:errcheck
}

func formatRank(w io.Writer, r engine.RankResult) {
	formatSummary(w, r.Summary)
	formatTable(w, r.Table)
}

func formatChildren(w io.Writer, r engine.ChildrenResult) {
	formatSummary(w, r.Summary)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, n := range r.Nodes {
		fmt.Fprintf(tw, "%s\t%s\n", n.Node.ID, n.Name)
	}
	tw.Flush() //nolint:errcheck
}
