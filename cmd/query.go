package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/groundwater-cli/internal/catalog"
	"github.com/sells-group/groundwater-cli/internal/engine"
	"github.com/sells-group/groundwater-cli/internal/export"
	"github.com/sells-group/groundwater-cli/internal/years"
)

// addYearFlags registers the shared year selectors on cmd.
func addYearFlags(cmd *cobra.Command) {
	cmd.Flags().String("year", "", "assessment year (e.g. 2023-2024, 2023-24 or 2023)")
	cmd.Flags().String("from", "", "first year of a range")
	cmd.Flags().String("to", "", "last year of a range")
	cmd.Flags().StringSlice("years", nil, "specific years (comma separated)")
	cmd.Flags().Bool("all", false, "every available year")
}

func yearParams(cmd *cobra.Command) years.Params {
	var p years.Params
	p.Year, _ = cmd.Flags().GetString("year")
	p.From, _ = cmd.Flags().GetString("from")
	p.To, _ = cmd.Flags().GetString("to")
	p.Specific, _ = cmd.Flags().GetStringSlice("years")
	p.All, _ = cmd.Flags().GetBool("all")
	return p
}

// -- resolve --

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Rank locations matching a name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		typ, _ := cmd.Flags().GetString("type")
		parent, _ := cmd.Flags().GetString("parent")

		res := env.Engine.Resolve(cmd.Context(), strings.Join(args, " "), typ, parent)
		return render(cmd.OutOrStdout(), res.Result, res, func(w io.Writer) { formatResolve(w, res) })
	},
}

// -- lookup --

var lookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Show a location's assessment or trend",
	Long:  "Resolves the name and shows the assessment for one year, or a trend with category changes when a range, a list of years or --all is given.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		req := engine.LookupRequest{Name: strings.Join(args, " "), Years: yearParams(cmd)}
		req.Type, _ = cmd.Flags().GetString("type")
		req.Parent, _ = cmd.Flags().GetString("parent")
		req.Metric, _ = cmd.Flags().GetString("metric")

		res := env.Engine.ResolveAndFetch(cmd.Context(), req)
		if err := render(cmd.OutOrStdout(), res.Result, res, func(w io.Writer) { formatLookup(w, res) }); err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("xlsx")
		if path == "" {
			return nil
		}
		if res.Trend == nil || res.Table == nil {
			return eris.New("lookup: --xlsx needs more than one year of data")
		}
		f, err := export.TrendWorkbook(*res.Trend, *res.Table)
		if err != nil {
			return err
		}
		if err := export.Save(f, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		return nil
	},
}

// -- compare --

var compareCmd = &cobra.Command{
	Use:   "compare <name> [name...]",
	Short: "Compare one metric across locations",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		req := engine.CompareRequest{Names: args, Years: yearParams(cmd)}
		req.Type, _ = cmd.Flags().GetString("type")
		req.Metric, _ = cmd.Flags().GetString("metric")

		res := env.Engine.Compare(cmd.Context(), req)
		return render(cmd.OutOrStdout(), res.Result, res, func(w io.Writer) { formatCompare(w, res) })
	},
}

// -- rank --

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank locations by a metric",
	Long:  "Averages the metric over the selected years for every location of a type, optionally within a parent, and lists the top entries.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		req := engine.RankRequest{Years: yearParams(cmd)}
		req.Metric, _ = cmd.Flags().GetString("metric")
		req.Type, _ = cmd.Flags().GetString("type")
		req.Order, _ = cmd.Flags().GetString("order")
		req.Limit, _ = cmd.Flags().GetInt("limit")
		req.Within, _ = cmd.Flags().GetString("within")

		res := env.Engine.Rank(cmd.Context(), req)
		if err := render(cmd.OutOrStdout(), res.Result, res, func(w io.Writer) { formatRank(w, res) }); err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("xlsx")
		if path == "" || res.Table == nil {
			return nil
		}
		f, err := export.RankingWorkbook(*res.Table, res.Breakdown)
		if err != nil {
			return err
		}
		if err := export.Save(f, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
		return nil
	},
}

// -- children --

var childrenCmd = &cobra.Command{
	Use:   "children [parent]",
	Short: "List locations below a parent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		var req engine.ChildrenRequest
		if len(args) == 1 {
			req.Parent = args[0]
		}
		req.Type, _ = cmd.Flags().GetString("type")

		res := env.Engine.ListChildren(cmd.Context(), req)
		return render(cmd.OutOrStdout(), res.Result, res, func(w io.Writer) { formatChildren(w, res) })
	},
}

// -- years --

var yearsCmd = &cobra.Command{
	Use:   "years",
	Short: "List assessment years with data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initEngine(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Engine.AvailableYears(cmd.Context())
		return render(cmd.OutOrStdout(), res.Result, res, func(w io.Writer) {
			for _, y := range res.Years {
				fmt.Fprintln(w, y)
			}
		})
	},
}

// -- metrics --

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "List queryable metrics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		all := catalog.All()
		if wantJSON() {
			return printJSON(cmd.OutOrStdout(), all)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tLABEL\tUNIT")
		for _, m := range all {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.Label, m.Unit)
		}
		return tw.Flush()
	},
}

func init() {
	for _, c := range []*cobra.Command{resolveCmd, lookupCmd, compareCmd, rankCmd, childrenCmd} {
		c.Flags().String("type", "", "location type: COUNTRY, STATE, DISTRICT or TALUK")
	}
	for _, c := range []*cobra.Command{resolveCmd, lookupCmd} {
		c.Flags().String("parent", "", "name of an enclosing location, to disambiguate")
	}
	for _, c := range []*cobra.Command{lookupCmd, compareCmd, rankCmd} {
		c.Flags().String("metric", "", "metric name (see the metrics command)")
		addYearFlags(c)
	}
	for _, c := range []*cobra.Command{lookupCmd, rankCmd} {
		c.Flags().String("xlsx", "", "also write the table to this XLSX file")
	}

	rankCmd.Flags().String("order", "desc", "asc or desc")
	rankCmd.Flags().Int("limit", 0, "number of entries (default from config)")
	rankCmd.Flags().String("within", "", "rank only locations below this parent")

	rootCmd.AddCommand(resolveCmd, lookupCmd, compareCmd, rankCmd, childrenCmd, yearsCmd, metricsCmd)
}
