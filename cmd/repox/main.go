// Command repox generates the implementations of annotated repository
// interfaces.
//
// Usage:
//
//	repox generate [flags] [patterns]
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/syssam/repox/internal/report"
)

var (
	configPath string
	verbose    bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "repox",
	Short: "Repository implementation generator",
	Long: `repox generates the implementation of Go repository interfaces annotated
with //repox:repository, delegating every method to a persistence session.

Settings are read from repox.yaml in the working directory, or from the
file given with --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (default repox.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "list generated methods and suggest fixes")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		report.New(os.Stderr, verbose).Error(err)
		os.Exit(1)
	}
}
