package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/groundwater-cli/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <dataset.yaml>",
	Short: "Replace the store's contents with a YAML dataset",
	Long:  "Loads locations and metric records from a YAML dataset and replaces everything in the configured store in one transaction.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("cli"); err != nil {
			return err
		}

		ds, err := store.LoadDataset(args[0])
		if err != nil {
			return err
		}

		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Seed(ctx, ds); err != nil {
			return eris.Wrap(err, "seed")
		}

		zap.L().Info("dataset seeded",
			zap.String("path", args[0]),
			zap.Int("locations", len(ds.Locations)),
			zap.Int("records", len(ds.Records)),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d locations and %d records.\n", len(ds.Locations), len(ds.Records))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
