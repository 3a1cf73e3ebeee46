package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yugurt2005/poker-abstraction/internal/plot"
	"github.com/yugurt2005/poker-abstraction/table"
)

var (
	inspectName     string
	inspectRow      int
	inspectPlot     string
	inspectSiblings int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Look up rows in an exported table",
	Long: `Open the table exported by 'abstraction cluster' and print its
summary, or the bucket of --row. With --plot, the row is drawn from the
given rows file.`,
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectName, "name", "", "histogram set name (required)")
	f.IntVar(&inspectRow, "row", -1, "row to look up")
	f.StringVar(&inspectPlot, "plot", "", "rows file to plot the row from")
	f.IntVar(&inspectSiblings, "siblings", 8, "number of rows sharing the bucket to list")
	_ = inspectCmd.MarkFlagRequired("name")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	tbl, err := table.Open(ctx, s.store, exportName(inspectName))
	if err != nil {
		return fmt.Errorf("open table %s: %w", inspectName, err)
	}
	defer tbl.Close()

	if inspectRow < 0 {
		empty := 0
		for _, n := range tbl.Sizes() {
			if n == 0 {
				empty++
			}
		}
		fmt.Fprintf(out, "table %s: %d rows, %d buckets, %d empty\n", inspectName, tbl.Len(), tbl.K(), empty)
		return nil
	}
	if inspectRow >= tbl.Len() {
		return fmt.Errorf("row %d out of range [0, %d)", inspectRow, tbl.Len())
	}

	bucket := tbl.Lookup(inspectRow)
	members := tbl.Members(int(bucket))
	fmt.Fprintf(out, "row %d: bucket %d (%d rows)\n", inspectRow, bucket, members.GetCardinality())

	var siblings []string
	it := members.Iterator()
	for it.HasNext() && len(siblings) < inspectSiblings {
		if r := int(it.Next()); r != inspectRow {
			siblings = append(siblings, fmt.Sprint(r))
		}
	}
	if len(siblings) > 0 {
		fmt.Fprintf(out, "shares bucket with: %s\n", strings.Join(siblings, " "))
	}

	if inspectPlot != "" {
		rows, err := readRows(inspectPlot)
		if err != nil {
			return err
		}
		if inspectRow >= len(rows) {
			return fmt.Errorf("row %d not in %s", inspectRow, inspectPlot)
		}
		chart := plot.NewChart(fmt.Sprintf("%s row %d", inspectName, inspectRow), 60, 12)
		fmt.Fprintln(out, chart.Render(rows[inspectRow]))
	}
	return nil
}
