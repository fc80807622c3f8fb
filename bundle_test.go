package caas

import (
	"context"
	"testing"
	"time"
)

func TestSingleRecordBundleVerifies(t *testing.T) {
	ledger := NewAuditLedger(Config{BatchSize: 2}, nil)
	ctx := context.Background()

	if _, err := ledger.Append(ctx, mkRecord("r1", "t1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Append(ctx, mkRecord("r2", "t1", time.Now())); err != nil {
		t.Fatal(err)
	}

	bundle, err := CreateSingleRecordBundle(ledger, nil, "r1")
	if err != nil {
		t.Fatalf("CreateSingleRecordBundle: %v", err)
	}
	if len(bundle.Records) != 1 {
		t.Fatalf("expected 1 record in bundle, got %d", len(bundle.Records))
	}

	report, err := VerifyBundle(bundle)
	if err != nil {
		t.Fatalf("VerifyBundle: %v", err)
	}
	if !report.Passed {
		t.Fatalf("expected bundle to verify, checks: %+v", report.Checks)
	}
}

func TestBatchBundleDetectsChainBreak(t *testing.T) {
	ledger := NewAuditLedger(Config{BatchSize: 10}, nil)
	ctx := context.Background()

	if _, err := ledger.Append(ctx, mkRecord("r1", "t1", time.Now())); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Append(ctx, mkRecord("r2", "t1", time.Now())); err != nil {
		t.Fatal(err)
	}

	bundle, err := CreateBatchBundle(ledger, nil, []string{"r1", "r2"})
	if err != nil {
		t.Fatalf("CreateBatchBundle: %v", err)
	}

	// Corrupt the second record's link to simulate tampering after export.
	bundle.Records[1].PreviousHash = sha256Hex([]byte("forged"))

	report, err := VerifyBundle(bundle)
	if err != nil {
		t.Fatalf("VerifyBundle: %v", err)
	}
	if report.Passed {
		t.Fatal("expected bundle verification to fail after tampering with a chain link")
	}
}

func TestTenantBundleOrdersMostRecentFirst(t *testing.T) {
	ledger := NewAuditLedger(Config{BatchSize: 100}, nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		if _, err := ledger.Append(ctx, mkRecord(id, "t1", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	bundle, err := CreateTenantBundle(ledger, nil, "t1", 0)
	if err != nil {
		t.Fatalf("CreateTenantBundle: %v", err)
	}
	if len(bundle.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(bundle.Records))
	}
	if bundle.Records[0].RecordID != "r3" {
		t.Fatalf("expected most-recent-first ordering, got %s first", bundle.Records[0].RecordID)
	}
}

func TestTimeRangeBundleIsHalfOpen(t *testing.T) {
	ledger := NewAuditLedger(Config{}, nil)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := ledger.Append(ctx, mkRecord("r1", "t1", base)); err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Append(ctx, mkRecord("r2", "t1", base.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	bundle, err := CreateTimeRangeBundle(ledger, nil, "t1", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("CreateTimeRangeBundle: %v", err)
	}
	if len(bundle.Records) != 1 || bundle.Records[0].RecordID != "r1" {
		t.Fatalf("expected only r1 in [base, base+1h), got %+v", bundle.Records)
	}
}

func TestPolicyBoundBundleVerifiesCommitment(t *testing.T) {
	ledger := NewAuditLedger(Config{}, nil)
	pc := NewPolicyCompiler()
	ctx := context.Background()

	cp, err := pc.Compile(samplePolicy())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rec := mkRecord("r1", "t1", time.Now())
	rec.PolicyCommitment = cp.CommitmentHash
	if _, err := ledger.Append(ctx, rec); err != nil {
		t.Fatal(err)
	}

	bundle, err := CreateSingleRecordBundle(ledger, pc, "r1")
	if err != nil {
		t.Fatalf("CreateSingleRecordBundle: %v", err)
	}
	if len(bundle.Policies) != 1 {
		t.Fatalf("expected the referenced policy to be attached, got %d", len(bundle.Policies))
	}

	report, err := VerifyBundle(bundle)
	if err != nil {
		t.Fatalf("VerifyBundle: %v", err)
	}
	if !report.Passed {
		t.Fatalf("expected policy-bound bundle to verify, checks: %+v", report.Checks)
	}
}
