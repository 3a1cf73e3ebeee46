package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yugurt2005/poker-abstraction/cmd/abstraction/internal/build"
)

var versionVerbose bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, build.String())
		if versionVerbose {
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		}
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "verbose output")
	rootCmd.AddCommand(versionCmd)
}
