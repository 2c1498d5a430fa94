package main

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
)

var validateFlags struct {
	checkConnection bool
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file and environment overrides, apply defaults
and report every invalid field at once. With --check-connection the
Elasticsearch cluster is pinged as well.

Examples:
  retainer validate --config retainer.yaml
  ELASTICSEARCH_URL=http://localhost:9200 retainer validate --check-connection`,
	Args: cobra.NoArgs,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateFlags.checkConnection, "check-connection", false, "also ping the Elasticsearch cluster")
}

func validateConfig(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Parse(cfgFile)
	if err != nil {
		if config.IsValidationError(err) {
			return err
		}
		return cli.NewConfigError(cfgFile, err)
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	source := cfgFile
	if source == "" {
		source = "environment"
	}
	fmt.Fprintf(out, "✓ Configuration is valid (%s)\n", source)
	fmt.Fprintf(out, "  Indices:  %s-YYYY.MM.DD, %d day(s) retained\n", cfg.Indices.Prefix, cfg.Indices.Days)
	if r := cfg.Indices.Replicas; r != nil {
		fmt.Fprintf(out, "  Replicas: %d on indices older than %d day(s)\n", r.Value, r.Days)
	}
	for _, alias := range slices.Sorted(maps.Keys(cfg.Aliases.Mappings)) {
		fmt.Fprintf(out, "  Alias:    %s -> last %d day(s)\n", alias, cfg.Aliases.Mappings[alias])
	}
	fmt.Fprintf(out, "  Schedule: clear_indices=%q update_aliases=%q update_replicas=%q\n",
		cfg.Schedule.ClearIndices, cfg.Schedule.UpdateAliases, cfg.Schedule.UpdateReplicas)
	if n := len(cfg.Server.APIKeys); n > 0 {
		fmt.Fprintf(out, "  Actions:  %d API key(s) accepted\n", n)
	} else {
		fmt.Fprintln(out, "  Actions:  open (no API keys configured)")
	}
	if cfg.Server.ActionsPerMinute > 0 {
		fmt.Fprintf(out, "  Limit:    %d action request(s) per minute\n", cfg.Server.ActionsPerMinute)
	}
	if cfg.History.Enabled {
		fmt.Fprintf(out, "  History:  %s at %s, kept %d day(s)\n", cfg.History.Driver, cfg.History.Path, cfg.History.RetentionDays)
	} else {
		fmt.Fprintln(out, "  History:  disabled")
	}

	if !validateFlags.checkConnection {
		return nil
	}

	if err := setupLogging(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	if err := client.Ping(cmd.Context()); err != nil {
		return fmt.Errorf("elasticsearch at %s is not reachable: %w", cfg.Elasticsearch.URL, err)
	}
	fmt.Fprintf(out, "✓ Connected to %s\n", cfg.Elasticsearch.URL)
	return nil
}
