package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yugurt2005/poker-abstraction/codec"
	"github.com/yugurt2005/poker-abstraction/testutil"
)

// runCmd executes the root command with args and returns its output.
func runCmd(t *testing.T, args ...string) (stdout string, err error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err = rootCmd.ExecuteContext(context.Background())

	resetFlags(rootCmd)
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		_ = f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// setupEnv writes a config with a local store and a rows file.
func setupEnv(t *testing.T, ext string, c codec.Codec) (configFile, rowsFile string) {
	t.Helper()
	dir := t.TempDir()

	configFile = filepath.Join(dir, "abstraction.yaml")
	body := fmt.Sprintf(`
store:
  kind: local
  path: %s
cluster:
  metric: emd
  restarts: 3
  seed: 7
log:
  level: error
`, filepath.Join(dir, "artifacts"))
	require.NoError(t, os.WriteFile(configFile, []byte(body), 0644))

	rowsFile = filepath.Join(dir, "eight"+ext)
	require.NoError(t, os.WriteFile(rowsFile, codec.MustMarshal(c, testutil.EightRows), 0644))
	return configFile, rowsFile
}

func TestVersion(t *testing.T) {
	out, err := runCmd(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "abstraction")
}

func TestClusterAndInspect(t *testing.T) {
	cfg, rows := setupEnv(t, ".json", codec.GoJSON{})

	out, err := runCmd(t, "--config", cfg, "cluster", "--name", "eight", "--input", rows, "-k", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "tables/eight-k3-r3-emd-average")
	assert.Contains(t, out, "effective 3")
	assert.Contains(t, out, "exports/eight.tbl")

	// Rows are memoized, so the input is no longer needed.
	out, err = runCmd(t, "--config", cfg, "cluster", "--name", "eight", "-k", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "effective 3")

	out, err = runCmd(t, "--config", cfg, "inspect", "--name", "eight")
	require.NoError(t, err)
	assert.Contains(t, out, "8 rows, 3 buckets, 0 empty")

	out, err = runCmd(t, "--config", cfg, "inspect", "--name", "eight", "--row", "1", "--plot", rows)
	require.NoError(t, err)
	assert.Contains(t, out, "(3 rows)")
	assert.Contains(t, out, "shares bucket with: 0 2")
	assert.Contains(t, out, "eight row 1")
}

func TestCluster_Msgpack(t *testing.T) {
	cfg, rows := setupEnv(t, ".msgpack", codec.Msgpack{})

	out, err := runCmd(t, "--config", cfg, "cluster", "--name", "eight", "--input", rows, "-k", "2", "--metric", "mse", "--no-export")
	require.NoError(t, err)
	assert.Contains(t, out, "tables/eight-k2-r3-mse-average")
}

func TestCluster_Errors(t *testing.T) {
	cfg, rows := setupEnv(t, ".json", codec.GoJSON{})

	_, err := runCmd(t, "--config", cfg, "cluster", "--name", "eight", "-k", "3")
	assert.ErrorContains(t, err, "pass --input")

	_, err = runCmd(t, "--config", cfg, "cluster", "--name", "eight", "--input", rows, "-k", "9")
	assert.Error(t, err)

	_, err = runCmd(t, "--config", cfg, "cluster", "--name", "eight", "--input", rows, "-k", "3", "--metric", "cosine")
	assert.Error(t, err)

	_, err = runCmd(t, "--config", cfg, "--store", "ftp", "cluster", "--name", "eight", "-k", "3")
	assert.Error(t, err)
}

func TestInspect_Missing(t *testing.T) {
	cfg, _ := setupEnv(t, ".json", codec.GoJSON{})

	_, err := runCmd(t, "--config", cfg, "inspect", "--name", "nothing")
	assert.Error(t, err)
}

func TestReadRows(t *testing.T) {
	_, err := readRows("rows.csv")
	assert.Error(t, err)

	_, rows := setupEnv(t, ".json", codec.GoJSON{})
	got, err := readRows(rows)
	require.NoError(t, err)
	assert.Equal(t, testutil.EightRows, got)
}
