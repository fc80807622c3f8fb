package caas

// CheckResult is the outcome of one of VerifyBundle's four sub-checks
// (§4.5). A check that found nothing to verify (no proofs attached, no
// policy-bound records) is reported as passed with an explanatory
// Detail rather than failed, since "nothing to check" is not the same
// as "check failed".
type CheckResult struct {
	Name   string
	Passed bool
	Detail string
}

// VerificationReport is VerifyBundle's itemized result (§4.5): the
// bundle verifies as a whole only if every sub-check passes.
type VerificationReport struct {
	BundleType  BundleType
	RecordCount int
	Checks      []CheckResult
	Passed      bool
}

// VerifyBundle runs the four offline checks §4.5 requires against a
// ComplianceProofBundle, using only data carried inside the bundle: it
// never touches a live ledger or policy compiler.
//
//  1. record integrity  — every record's stored RecordHash matches a
//     fresh recomputation over its canonical fields.
//  2. chain linkage      — for any two consecutive records both present
//     in the bundle, the later record's PreviousHash equals the
//     earlier record's RecordHash.
//  3. Merkle inclusion   — every attached MerkleProof verifies, and its
//     LeafHash matches the record it was attached for.
//  4. policy commitment  — every policy-bound record's PolicyCommitment
//     matches the CommitmentHash of its attached CanonicalPolicy.
func VerifyBundle(b *ComplianceProofBundle) (*VerificationReport, error) {
	report := &VerificationReport{
		BundleType:  b.BundleType,
		RecordCount: len(b.Records),
	}

	report.Checks = append(report.Checks,
		checkRecordIntegrity(b),
		checkChainLinkage(b),
		checkMerkleInclusion(b),
		checkPolicyCommitment(b),
	)

	report.Passed = true
	for _, c := range report.Checks {
		if !c.Passed {
			report.Passed = false
		}
	}
	return report, nil
}

func checkRecordIntegrity(b *ComplianceProofBundle) CheckResult {
	for _, rec := range b.Records {
		h, err := recordHash(rec)
		if err != nil {
			return CheckResult{Name: "record_integrity", Passed: false, Detail: "failed to hash record " + rec.RecordID}
		}
		if h != rec.RecordHash {
			return CheckResult{Name: "record_integrity", Passed: false, Detail: "record_hash mismatch for " + rec.RecordID}
		}
	}
	return CheckResult{Name: "record_integrity", Passed: true, Detail: "all records rehash to their stored record_hash"}
}

func checkChainLinkage(b *ComplianceProofBundle) CheckResult {
	for i := 1; i < len(b.Records); i++ {
		prev, cur := b.Records[i-1], b.Records[i]
		if cur.PreviousHash != prev.RecordHash {
			return CheckResult{Name: "chain_linkage", Passed: false, Detail: "broken link between " + prev.RecordID + " and " + cur.RecordID}
		}
	}
	return CheckResult{Name: "chain_linkage", Passed: true, Detail: "every consecutive pair in the bundle links correctly"}
}

func checkMerkleInclusion(b *ComplianceProofBundle) CheckResult {
	if len(b.Proofs) == 0 {
		return CheckResult{Name: "merkle_inclusion", Passed: true, Detail: "no inclusion proofs attached to verify"}
	}
	for recordID, proof := range b.Proofs {
		if proof == nil {
			continue
		}
		if !proof.Verify() {
			return CheckResult{Name: "merkle_inclusion", Passed: false, Detail: "inclusion proof failed to verify for " + recordID}
		}
	}
	for _, rec := range b.Records {
		proof, ok := b.Proofs[rec.RecordID]
		if !ok || proof == nil {
			continue
		}
		if proof.LeafHash != rec.RecordHash {
			return CheckResult{Name: "merkle_inclusion", Passed: false, Detail: "proof leaf hash does not match record_hash for " + rec.RecordID}
		}
	}
	return CheckResult{Name: "merkle_inclusion", Passed: true, Detail: "all attached inclusion proofs verify against their record"}
}

func checkPolicyCommitment(b *ComplianceProofBundle) CheckResult {
	found := false
	for _, rec := range b.Records {
		if rec.PolicyCommitment == "" {
			continue
		}
		found = true
		policy, ok := b.Policies[rec.PolicyCommitment]
		if !ok {
			return CheckResult{Name: "policy_commitment", Passed: false, Detail: "no policy attached for commitment referenced by " + rec.RecordID}
		}
		if policy.CommitmentHash != rec.PolicyCommitment {
			return CheckResult{Name: "policy_commitment", Passed: false, Detail: "attached policy commitment hash does not match record " + rec.RecordID}
		}
	}
	if !found {
		return CheckResult{Name: "policy_commitment", Passed: true, Detail: "no policy-bound records in this bundle"}
	}
	return CheckResult{Name: "policy_commitment", Passed: true, Detail: "every policy-bound record's commitment matches its attached policy"}
}
