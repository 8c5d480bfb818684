package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/groundwater-cli/internal/config"
	"github.com/sells-group/groundwater-cli/internal/engine"
	"github.com/sells-group/groundwater-cli/internal/location"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func useFixtureStore(t *testing.T) {
	t.Setenv("GROUNDWATER_STORE_DRIVER", "file")
	t.Setenv("GROUNDWATER_STORE_FIXTURE_PATH", "testdata/dataset.yaml")
	t.Setenv("GROUNDWATER_LOG_LEVEL", "error")
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"resolve", "lookup", "compare", "rank", "children", "years", "metrics", "seed", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "groundwater-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestCommandFlags(t *testing.T) {
	for _, name := range []string{"year", "from", "to", "years", "all", "metric", "type", "xlsx"} {
		assert.NotNil(t, lookupCmd.Flags().Lookup(name), "lookup --%s", name)
	}
	assert.NotNil(t, lookupCmd.Flags().Lookup("parent"))
	assert.Nil(t, rankCmd.Flags().Lookup("parent"))

	limit := rankCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "0", limit.DefValue)
	assert.Equal(t, "desc", rankCmd.Flags().Lookup("order").DefValue)

	port := serveCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)
}

func TestLookupCommand_JSONAndXLSX(t *testing.T) {
	useFixtureStore(t)
	path := filepath.Join(t.TempDir(), "pune.xlsx")

	out, err := execute(t, "lookup", "pune", "--all", "--xlsx", path, "-o", "json")
	require.NoError(t, err)

	var res engine.LookupResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Found)
	assert.True(t, res.IsHistorical)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestResolveCommand_NotFoundFails(t *testing.T) {
	useFixtureStore(t)

	_, err := execute(t, "resolve", "atlantis", "-o", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not_found")
}

func TestRankCommand_Text(t *testing.T) {
	useFixtureStore(t)

	out, err := execute(t, "rank", "--metric", "stage_of_extraction", "--type", "district", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Highest Districts by stage of extraction")
	assert.Contains(t, out, "Aurangabad")
	assert.Contains(t, out, "RANK")
}

func TestMetricsCommand(t *testing.T) {
	t.Setenv("GROUNDWATER_LOG_LEVEL", "error")

	out, err := execute(t, "metrics", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "stage_of_extraction")
}

func TestSeedThenQuerySQLite(t *testing.T) {
	t.Setenv("GROUNDWATER_STORE_DRIVER", "sqlite")
	t.Setenv("GROUNDWATER_STORE_DATABASE_URL", filepath.Join(t.TempDir(), "gw.db"))
	t.Setenv("GROUNDWATER_LOG_LEVEL", "error")

	out, err := execute(t, "seed", "testdata/dataset.yaml", "-o", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 7 locations and 10 records.")

	out, err = execute(t, "years", "-o", "json")
	require.NoError(t, err)
	var yrs engine.YearsResult
	require.NoError(t, json.Unmarshal([]byte(out), &yrs))
	assert.Equal(t, []string{"2022-2023", "2023-2024", "2024-2025"}, yrs.Years)

	out, err = execute(t, "children", "bihar", "-o", "json")
	require.NoError(t, err)
	var children engine.ChildrenResult
	require.NoError(t, json.Unmarshal([]byte(out), &children))
	require.Len(t, children.Nodes, 2)
}

func TestIndexOptions_MergesAliases(t *testing.T) {
	opts := indexOptions(config.IndexConfig{
		SimilarityThreshold:   0.7,
		MaxCandidates:         5,
		ParentMismatchPenalty: 0.4,
		Aliases:               map[string]string{"Bombay": "Mumbai", "  ": "x"},
	})
	assert.Equal(t, 0.7, opts.Threshold)
	assert.Equal(t, 5, opts.MaxCandidates)
	assert.Equal(t, "mumbai", opts.Aliases["bombay"])
	assert.Len(t, opts.Aliases, len(location.DefaultAliases)+1)
}
