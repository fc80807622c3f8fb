package caas

import (
	"context"
	"testing"
	"time"
)

func TestAdaptivePipelineDefaultsToChained(t *testing.T) {
	p := NewAdaptivePipeline()
	got := p.Resolve("t1", "b1", "", nil)
	if got != DefaultFidelity {
		t.Fatalf("expected default fidelity %s, got %s", DefaultFidelity, got)
	}
}

func TestAdaptivePipelinePrecedence(t *testing.T) {
	p := NewAdaptivePipeline()
	p.SetCriticalityFidelity("high", FidelityPolicyBound)
	p.SetTenantFidelity("t1", FidelityMerkleProof)
	p.SetBucketFidelity("b1", FidelityChained)

	// bucket rule beats tenant and criticality rules.
	if got := p.Resolve("t1", "b1", "high", nil); got != FidelityChained {
		t.Fatalf("bucket rule should win, got %s", got)
	}

	// with no bucket rule, tenant rule wins over criticality.
	if got := p.Resolve("t1", "other-bucket", "high", nil); got != FidelityMerkleProof {
		t.Fatalf("tenant rule should win over criticality, got %s", got)
	}

	// with no bucket or tenant rule, criticality applies.
	if got := p.Resolve("other-tenant", "other-bucket", "high", nil); got != FidelityPolicyBound {
		t.Fatalf("criticality rule should apply, got %s", got)
	}

	// an explicit override beats everything.
	override := FidelityMetadataOnly
	if got := p.Resolve("t1", "b1", "high", &override); got != FidelityMetadataOnly {
		t.Fatalf("override should win over all configured rules, got %s", got)
	}
}

func TestProcessEventAttachesPolicyCommitmentOnlyAtBoundFidelities(t *testing.T) {
	ctx := context.Background()
	pc := NewPolicyCompiler()
	cp, err := pc.Compile(samplePolicy())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	event := ComplianceEvent{
		EventID:   "e1",
		EventType: EventObjectCreate,
		Timestamp: time.Now(),
		TenantID:  "t1",
		Bucket:    "b1",
	}

	p := NewAdaptivePipeline()
	p.SetBucketFidelity("b1", FidelityPolicyBound)
	ledger := NewAuditLedger(Config{}, nil)

	bound, err := p.ProcessEvent(ctx, ledger, event, cp, "", nil)
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if bound.Record.PolicyCommitment != cp.CommitmentHash {
		t.Fatalf("expected policy commitment at POLICY_BOUND fidelity, got %q", bound.Record.PolicyCommitment)
	}

	p2 := NewAdaptivePipeline()
	ledger2 := NewAuditLedger(Config{}, nil)
	plain, err := p2.ProcessEvent(ctx, ledger2, event, cp, "", nil)
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if plain.Record.PolicyCommitment != "" {
		t.Fatalf("expected no policy commitment at default CHAINED fidelity, got %q", plain.Record.PolicyCommitment)
	}
}

func TestProcessEventAppendsToLedgerAndFetchesProofAtMerkleFidelity(t *testing.T) {
	ctx := context.Background()
	ledger := NewAuditLedger(Config{BatchSize: 1}, nil)

	p := NewAdaptivePipeline()
	p.SetBucketFidelity("b1", FidelityMerkleProof)

	event := ComplianceEvent{
		EventID:   "e1",
		EventType: EventObjectCreate,
		Timestamp: time.Now(),
		TenantID:  "t1",
		Bucket:    "b1",
	}

	processed, err := p.ProcessEvent(ctx, ledger, event, nil, "", nil)
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if ledger.Count() != 1 {
		t.Fatalf("expected ProcessEvent to append to the ledger, count=%d", ledger.Count())
	}
	if processed.Proof == nil {
		t.Fatal("expected an inclusion proof once the single-record batch closes")
	}
	if !processed.Proof.Verify() {
		t.Fatal("fetched inclusion proof must verify")
	}
}

func TestProcessEventMetadataOnlyDropsMetadataButStillChains(t *testing.T) {
	ctx := context.Background()
	ledger := NewAuditLedger(Config{}, nil)

	p := NewAdaptivePipeline()
	p.SetBucketFidelity("b1", FidelityMetadataOnly)

	event := ComplianceEvent{
		EventID:   "e1",
		EventType: EventObjectCreate,
		Timestamp: time.Now(),
		TenantID:  "t1",
		Bucket:    "b1",
		Metadata:  map[string]interface{}{"key": "value"},
	}

	processed, err := p.ProcessEvent(ctx, ledger, event, nil, "", nil)
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}
	if processed.Record.Metadata != nil {
		t.Fatalf("expected no metadata payload at METADATA_ONLY fidelity, got %v", processed.Record.Metadata)
	}
	if processed.Record.PreviousHash != GenesisHash {
		t.Fatal("METADATA_ONLY records must still be chained")
	}
}
