// Package main is the entry point for the abstraction CLI.
//
// Usage:
//
//	abstraction [flags] <command> [args]
//
// Commands:
//
//	cluster    - Cluster histogram rows into a bucket table
//	inspect    - Look up rows in an exported table
//	version    - Show version information
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/yugurt2005/poker-abstraction/cmd/abstraction/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := commands.Execute(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
