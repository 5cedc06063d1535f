package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sorry-currents/shardctl/internal/model"
)

// TestEmitMatrix_WritesGithubOutput verifies that emitMatrix appends a
// matrix=<json> line to GITHUB_OUTPUT when it is set, alongside one include
// entry per assignment with the shard's 1-based index and the total count.
func TestEmitMatrix_WritesGithubOutput(t *testing.T) {
	tmpDir := t.TempDir()
	outputPath := filepath.Join(tmpDir, "github_output")
	if err := os.WriteFile(outputPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GITHUB_OUTPUT", outputPath)

	plan := model.ShardPlan{
		Assignments: []model.ShardAssignment{
			{ShardIndex: 1, Files: []string{"a.spec.ts"}},
			{ShardIndex: 2, Files: []string{"b.spec.ts"}},
		},
	}

	if err := emitMatrix(plan); err != nil {
		t.Fatalf("emitMatrix() error = %v, want nil", err)
	}

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSuffix(string(raw), "\n")
	prefix, jsonPart, ok := strings.Cut(line, "matrix=")
	if !ok || prefix != "" {
		t.Fatalf("GITHUB_OUTPUT content = %q, want a matrix=<json> line", line)
	}

	var decoded matrixDescriptor
	if err := json.Unmarshal([]byte(jsonPart), &decoded); err != nil {
		t.Fatalf("matrix payload is not valid JSON: %v", err)
	}
	if len(decoded.Include) != 2 {
		t.Fatalf("Include length = %d, want 2", len(decoded.Include))
	}
	for i, entry := range decoded.Include {
		if entry.ShardIndex != i+1 {
			t.Errorf("Include[%d].ShardIndex = %d, want %d", i, entry.ShardIndex, i+1)
		}
		if entry.ShardTotal != 2 {
			t.Errorf("Include[%d].ShardTotal = %d, want 2", i, entry.ShardTotal)
		}
	}
}

// TestEmitMatrix_NoGithubOutput verifies emitMatrix is a no-op write to disk
// (stdout only) when GITHUB_OUTPUT is unset.
func TestEmitMatrix_NoGithubOutput(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")

	plan := model.ShardPlan{Assignments: []model.ShardAssignment{{ShardIndex: 1}}}
	if err := emitMatrix(plan); err != nil {
		t.Fatalf("emitMatrix() error = %v, want nil", err)
	}
}

// TestEmitMatrix_EmptyAssignments verifies cold-start plans with zero
// assignments still produce a valid (empty) matrix.
func TestEmitMatrix_EmptyAssignments(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")

	plan := model.ShardPlan{}
	if err := emitMatrix(plan); err != nil {
		t.Fatalf("emitMatrix() error = %v, want nil", err)
	}
}
