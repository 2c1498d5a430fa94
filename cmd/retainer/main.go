// Retainer keeps a family of daily Elasticsearch indices in shape: it
// deletes indices older than the retention window, moves time-window
// aliases onto the right indices and lowers the replica count of older
// indices.
//
// Usage:
//
//	# Start the HTTP server and the scheduler
//	retainer run --config retainer.yaml
//
//	# Reload the configuration when the file changes
//	retainer run --config retainer.yaml --watch-config
//
//	# Run one operation now, or preview it
//	retainer clear-indices
//	retainer update-aliases --dry-run
//
//	# Inspect the cluster and past runs
//	retainer indices
//	retainer history --operation clear-indices --status failure
//
//	# Check a configuration file without contacting the cluster
//	retainer validate --config retainer.yaml
package main

func main() {
	Execute()
}
