package model

import "testing"

func TestComputeTestIdentityDeterministic(t *testing.T) {
	a := ComputeTestIdentity("tests/login.spec.ts", "logs in", "chromium")
	b := ComputeTestIdentity("tests/login.spec.ts", "logs in", "chromium")
	if a != b {
		t.Fatalf("expected deterministic identity, got %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16-character identity, got %d: %s", len(a), a)
	}
}

func TestComputeTestIdentityNoFieldBoundaryCollision(t *testing.T) {
	a := ComputeTestIdentity("a", "bc", "proj")
	b := ComputeTestIdentity("ab", "c", "proj")
	if a == b {
		t.Fatalf("expected distinct identities for field-boundary collision, got %s for both", a)
	}
}

func TestComputeTestIdentityDiffersByProject(t *testing.T) {
	a := ComputeTestIdentity("tests/x.spec.ts", "works", "chromium")
	b := ComputeTestIdentity("tests/x.spec.ts", "works", "firefox")
	if a == b {
		t.Fatalf("expected different identities for different projects")
	}
}
