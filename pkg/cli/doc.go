/*
Package cli provides command-line helpers used by the retainer command.

Output Formatting:

Command results are written as aligned text (default), JSON or CSV:

	format, err := cli.ParseOutputFormat(outputFlag)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, indices)

Exit Codes:

ExitCode maps an error to the process exit status; configuration errors
exit with ExitConfig before any request reaches the cluster.

Signal Handling:

SetupSignalHandler returns a context cancelled on SIGINT/SIGTERM.
ReloadSignals delivers SIGHUP for on-demand configuration reloads.
*/
package cli
