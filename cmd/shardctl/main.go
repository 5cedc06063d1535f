// Command shardctl balances, runs, merges, and reports on a sharded
// end-to-end browser test suite. See Execute in root.go for the command
// tree; each subcommand is a thin wrapper translating flags into a call
// into internal/orchestrator.
package main

func main() {
	Execute()
}
