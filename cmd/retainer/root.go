package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "retainer",
	Short: "Retainer - Elasticsearch index lifecycle manager",
	Long: `Retainer manages a family of date-suffixed Elasticsearch indices
(<prefix>-YYYY.MM.DD):
  - Deletes indices older than the retention window
  - Points time-window aliases (last_day, last_week, ...) at the right indices
  - Lowers the replica count of indices past a configurable age

Operations run on a cron schedule under "retainer run", on demand over HTTP,
or once from the command line.

Without --config the configuration is read from RETAINER_* and
ELASTICSEARCH_* environment variables alone.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := cli.ParseOutputFormat(outputFormat)
		return err
	},
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	ctx := cli.SetupSignalHandler()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, csv")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cli.NewUsageError("%v", err)
	})
}
