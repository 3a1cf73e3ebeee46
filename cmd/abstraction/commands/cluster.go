package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	abstraction "github.com/yugurt2005/poker-abstraction"
	"github.com/yugurt2005/poker-abstraction/combine"
	"github.com/yugurt2005/poker-abstraction/distance"
)

var (
	clusterName     string
	clusterInput    string
	clusterK        int
	clusterRestarts int
	clusterMetric   string
	clusterStrategy string
	clusterSeed     uint64
	clusterNoExport bool
)

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster histogram rows into a bucket table",
	Long: `Cluster rows into k buckets and store the table.

Rows and tables are memoized in the artifact store: --input is only read
when the rows named --name are not stored yet, and clustering only runs when
no table for the same name, k and metric exists.`,
	RunE: runCluster,
}

func init() {
	f := clusterCmd.Flags()
	f.StringVar(&clusterName, "name", "", "histogram set name (required)")
	f.StringVarP(&clusterInput, "input", "i", "", "rows file (.json or .msgpack)")
	f.IntVarP(&clusterK, "k", "k", 0, "number of buckets (required)")
	f.IntVar(&clusterRestarts, "restarts", 0, "independent clustering runs (default from config)")
	f.StringVar(&clusterMetric, "metric", "", "distance metric (mse, emd)")
	f.StringVar(&clusterStrategy, "strategy", "", "combine strategy (average)")
	f.Uint64Var(&clusterSeed, "seed", 0, "random seed")
	f.BoolVar(&clusterNoExport, "no-export", false, "do not write the uncompressed table")
	_ = clusterCmd.MarkFlagRequired("name")
	_ = clusterCmd.MarkFlagRequired("k")

	rootCmd.AddCommand(clusterCmd)
}

func runCluster(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var extra []abstraction.Option
	if cmd.Flags().Changed("seed") {
		extra = append(extra, abstraction.WithSeed(clusterSeed))
	}
	s, err := openSession(cmd, extra...)
	if err != nil {
		return err
	}
	defer s.Close()

	spec, err := clusterSpec(cmd, s)
	if err != nil {
		return err
	}

	load := func(context.Context) ([][]float32, error) {
		if clusterInput == "" {
			return nil, fmt.Errorf("rows %q are not stored; pass --input", clusterName)
		}
		return readRows(clusterInput)
	}

	tbl, err := s.builder.Buckets(ctx, spec, load)
	if err != nil {
		return err
	}
	q, err := s.builder.Evaluate(ctx, spec, tbl, load)
	if err != nil {
		return err
	}

	exported := "-"
	if !clusterNoExport {
		if err := tbl.Write(ctx, s.store, exportName(spec.Name)); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		exported = exportName(spec.Name)
	}

	sizes := slices.Clone(q.Sizes)
	slices.Sort(sizes)
	summary := ltable.New().
		Border(lipgloss.RoundedBorder()).
		Rows(
			[]string{"table", spec.Key()},
			[]string{"rows", strconv.Itoa(tbl.Len())},
			[]string{"buckets", fmt.Sprintf("%d (effective %d)", tbl.K(), q.EffectiveK)},
			[]string{"distortion", fmt.Sprintf("%.6g", q.Distortion)},
			[]string{"sizes", fmt.Sprintf("min %d, median %d, max %d", sizes[0], sizes[len(sizes)/2], sizes[len(sizes)-1])},
			[]string{"export", exported},
		)
	fmt.Fprintln(cmd.OutOrStdout(), summary.Render())
	return nil
}

func clusterSpec(cmd *cobra.Command, s *session) (abstraction.BucketSpec, error) {
	cfg := s.cfg
	flags := cmd.Flags()

	if flags.Changed("metric") {
		cfg.Cluster.Metric = clusterMetric
	}
	if flags.Changed("strategy") {
		cfg.Cluster.Strategy = clusterStrategy
	}
	if flags.Changed("restarts") {
		cfg.Cluster.Restarts = clusterRestarts
	}

	metric, err := cfg.Metric()
	if err != nil {
		return abstraction.BucketSpec{}, err
	}
	strategy, err := cfg.Strategy()
	if err != nil {
		return abstraction.BucketSpec{}, err
	}
	if cfg.Cluster.Restarts <= 0 {
		return abstraction.BucketSpec{}, errors.New("restarts must be positive")
	}
	return newSpec(clusterName, clusterK, cfg.Cluster.Restarts, metric, strategy), nil
}

func newSpec(name string, k, restarts int, m distance.Metric, st combine.Strategy) abstraction.BucketSpec {
	return abstraction.BucketSpec{Name: name, K: k, Restarts: restarts, Metric: m, Strategy: st}
}
