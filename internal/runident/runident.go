// Package runident resolves the run identifier a shardctl invocation uses to
// correlate per-shard artifacts, following the precedence an explicit
// --run-id flag, then the provider-specific CI variables, then a local
// fallback stamped with a random suffix so concurrent local runs never
// collide.
package runident

import (
	"github.com/google/uuid"

	"github.com/sorry-currents/shardctl/internal/cienv"
)

// envPrecedence is checked in order; the first non-empty value wins.
var envPrecedence = []string{
	"SORRY_CURRENTS_RUN_ID",
	"GITHUB_RUN_ID",
	"CI_PIPELINE_ID",
	"BUILD_ID",
}

// Resolve returns the run-id to use: flagValue if set, else the first
// populated environment variable in envPrecedence, else a "local-<uuid>"
// fallback.
func Resolve(flagValue string, lookup cienv.Lookup) string {
	if flagValue != "" {
		return flagValue
	}
	for _, name := range envPrecedence {
		if v := lookup(name); v != "" {
			return v
		}
	}
	return "local-" + uuid.NewString()
}
