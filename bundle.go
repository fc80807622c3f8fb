package caas

import (
	"time"

	"github.com/google/uuid"
)

// BundleType names the scope a ComplianceProofBundle was built over
// (§4.5).
type BundleType string

const (
	BundleSingleRecord BundleType = "single_record"
	BundleBatch        BundleType = "batch"
	BundleTimeRange    BundleType = "time_range"
	BundleTenant       BundleType = "tenant"
)

// ComplianceProofBundle is a self-contained, offline-verifiable export
// of one or more AuditRecords together with everything VerifyBundle
// needs: Merkle inclusion proofs for every record whose batch has
// closed, and the canonical policies referenced by any record's
// PolicyCommitment (§4.5). A bundle never references the live ledger
// once built.
type ComplianceProofBundle struct {
	BundleID    string
	BundleType  BundleType
	GeneratedAt time.Time

	Records []AuditRecord
	// Proofs is keyed by RecordID. A record with no entry (or a nil
	// entry) had not yet had its batch closed when the bundle was
	// built, which VerifyBundle treats as "unverifiable at this
	// fidelity", not as a failure.
	Proofs map[string]*MerkleProof
	// Policies is keyed by commitment hash so VerifyBundle can check a
	// record's PolicyCommitment against the policy it actually names,
	// without needing a live PolicyCompiler.
	Policies map[string]*CanonicalPolicy
}

func newBundle(kind BundleType) *ComplianceProofBundle {
	return &ComplianceProofBundle{
		BundleID:    uuid.NewString(),
		BundleType:  kind,
		GeneratedAt: time.Now().UTC(),
		Records:     make([]AuditRecord, 0),
		Proofs:      make(map[string]*MerkleProof),
		Policies:    make(map[string]*CanonicalPolicy),
	}
}

// attachProofsAndPolicies fills in b.Proofs and b.Policies for every
// record already appended to b.Records.
func attachProofsAndPolicies(b *ComplianceProofBundle, ledger *AuditLedger, compiler *PolicyCompiler) {
	for _, rec := range b.Records {
		if proof, covered, err := ledger.GenerateInclusionProof(rec.RecordID); err == nil && covered {
			b.Proofs[rec.RecordID] = proof
		}
		if rec.PolicyCommitment == "" || compiler == nil {
			continue
		}
		if _, ok := b.Policies[rec.PolicyCommitment]; ok {
			continue
		}
		if cp, err := compiler.GetByCommitment(rec.PolicyCommitment); err == nil {
			b.Policies[rec.PolicyCommitment] = cp
		}
	}
}

// CreateSingleRecordBundle builds a bundle containing exactly one
// record, suitable for proving a single event's inclusion to an
// external auditor (§4.5). compiler may be nil if no policy-bound
// records are in scope.
func CreateSingleRecordBundle(ledger *AuditLedger, compiler *PolicyCompiler, recordID string) (*ComplianceProofBundle, error) {
	rec, err := ledger.Get(recordID)
	if err != nil {
		return nil, err
	}
	b := newBundle(BundleSingleRecord)
	b.Records = append(b.Records, *rec)
	attachProofsAndPolicies(b, ledger, compiler)
	return b, nil
}

// CreateBatchBundle builds a bundle containing exactly the records
// named by recordIDs, in the order given.
func CreateBatchBundle(ledger *AuditLedger, compiler *PolicyCompiler, recordIDs []string) (*ComplianceProofBundle, error) {
	b := newBundle(BundleBatch)
	for _, id := range recordIDs {
		rec, err := ledger.Get(id)
		if err != nil {
			return nil, err
		}
		b.Records = append(b.Records, *rec)
	}
	attachProofsAndPolicies(b, ledger, compiler)
	return b, nil
}

// CreateTimeRangeBundle builds a bundle over every record with
// timestamp in the half-open interval [from, to), optionally narrowed
// to a single tenant (§4.5). An empty tenantID matches every tenant.
func CreateTimeRangeBundle(ledger *AuditLedger, compiler *PolicyCompiler, tenantID string, from, to time.Time) (*ComplianceProofBundle, error) {
	b := newBundle(BundleTimeRange)
	b.Records = ledger.Query(AuditQuery{TenantID: tenantID, From: from, To: to})
	attachProofsAndPolicies(b, ledger, compiler)
	return b, nil
}

// CreateTenantBundle builds a bundle over tenantID's records,
// most-recently-appended first, capped at limit when positive (§4.5).
func CreateTenantBundle(ledger *AuditLedger, compiler *PolicyCompiler, tenantID string, limit int) (*ComplianceProofBundle, error) {
	b := newBundle(BundleTenant)
	all := ledger.Query(AuditQuery{TenantID: tenantID})
	for i := len(all) - 1; i >= 0; i-- {
		b.Records = append(b.Records, all[i])
		if limit > 0 && len(b.Records) >= limit {
			break
		}
	}
	attachProofsAndPolicies(b, ledger, compiler)
	return b, nil
}
