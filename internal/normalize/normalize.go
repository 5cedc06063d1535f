// Package normalize strips volatile tokens out of test error messages so
// that two logically equivalent errors observed at different times, on
// different machines, or against different temp directories produce
// byte-identical fingerprints. It is the foundation the failure clusterer
// and the history corpus's top-errors folding both build on.
package normalize

import (
	"regexp"
	"strings"
)

// Placeholder tokens substituted for each volatile class. Kept short and
// bracket-delimited so they read unambiguously inside a normalized message.
const (
	placeholderTimestamp = "<TIMESTAMP>"
	placeholderUUID      = "<UUID>"
	placeholderPort      = ":<PORT>"
	placeholderTempPath  = "<TMPDIR>"
	placeholderHexAddr   = "<ADDR>"
	placeholderPID       = "pid <PID>"
)

var (
	// iso8601Pattern matches ISO-8601 timestamps such as 2024-01-01T00:00:00Z
	// or with fractional seconds / explicit offsets.
	iso8601Pattern = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?\b`)

	// uuidPattern matches canonical UUIDs, case-insensitive.
	uuidPattern = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)

	// portPattern matches :PORT where PORT is 4-5 digits at a word boundary.
	portPattern = regexp.MustCompile(`:\d{4,5}\b`)

	// tempPathPattern matches absolute temp-directory paths on POSIX and Windows.
	tempPathPattern = regexp.MustCompile(`(?i)(/tmp/\S+|\\(?:Temp|tmp)\\\S+)`)

	// hexAddrPattern matches 0x-prefixed hex memory addresses of 6-16 digits.
	hexAddrPattern = regexp.MustCompile(`(?i)\b0x[0-9a-f]{6,16}\b`)

	// pidPattern matches "pid N" or "process N" tokens.
	pidPattern = regexp.MustCompile(`(?i)\b(?:pid|process)\s+\d+\b`)

	// whitespaceRunPattern collapses runs of whitespace to a single space.
	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// Normalize returns a deterministic, idempotent fingerprint-friendly form of
// an error message: volatile tokens are replaced by fixed placeholders and
// whitespace runs are collapsed to single spaces. Applying Normalize twice
// yields the same result as applying it once.
func Normalize(message string) string {
	s := message
	s = iso8601Pattern.ReplaceAllString(s, placeholderTimestamp)
	s = uuidPattern.ReplaceAllString(s, placeholderUUID)
	s = portPattern.ReplaceAllString(s, placeholderPort)
	s = tempPathPattern.ReplaceAllString(s, placeholderTempPath)
	s = hexAddrPattern.ReplaceAllString(s, placeholderHexAddr)
	s = pidPattern.ReplaceAllString(s, placeholderPID)
	s = whitespaceRunPattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
