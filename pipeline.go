package caas

import (
	"context"
	"sync"
)

// FidelityLevel controls how much audit detail AAP records for a given
// event (§4.4). Levels are ordered from cheapest to most expensive.
type FidelityLevel string

const (
	FidelityMetadataOnly FidelityLevel = "METADATA_ONLY"
	FidelityChained      FidelityLevel = "CHAINED"
	FidelityPolicyBound  FidelityLevel = "POLICY_BOUND"
	FidelityMerkleProof  FidelityLevel = "MERKLE_PROOF"

	// DefaultFidelity is applied when no override, bucket, tenant, or
	// criticality rule matches (§4.4).
	DefaultFidelity FidelityLevel = FidelityChained
)

// AdaptivePipeline resolves the fidelity level to apply to an incoming
// event by precedence: an explicit per-event override wins, then a
// bucket-level rule, then a tenant-level rule, then a criticality-level
// rule, and finally DefaultFidelity (§4.4).
type AdaptivePipeline struct {
	mu           sync.RWMutex
	byTenant     map[string]FidelityLevel
	byBucket     map[string]FidelityLevel
	byCriticality map[string]FidelityLevel
}

// NewAdaptivePipeline creates a pipeline with no configured rules, so
// every event resolves to DefaultFidelity until rules are added.
func NewAdaptivePipeline() *AdaptivePipeline {
	return &AdaptivePipeline{
		byTenant:      make(map[string]FidelityLevel),
		byBucket:      make(map[string]FidelityLevel),
		byCriticality: make(map[string]FidelityLevel),
	}
}

// SetTenantFidelity configures the fidelity level applied to events for
// tenantID absent a bucket rule or event override.
func (p *AdaptivePipeline) SetTenantFidelity(tenantID string, level FidelityLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byTenant[tenantID] = level
}

// SetBucketFidelity configures the fidelity level applied to events for
// bucket absent an event override.
func (p *AdaptivePipeline) SetBucketFidelity(bucket string, level FidelityLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byBucket[bucket] = level
}

// SetCriticalityFidelity configures the fidelity level applied to
// events tagged with criticality, used only when no tenant or bucket
// rule matches.
func (p *AdaptivePipeline) SetCriticalityFidelity(criticality string, level FidelityLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byCriticality[criticality] = level
}

// Resolve returns the fidelity level for an event in bucket, belonging
// to tenantID, tagged with criticality (empty string if untagged), and
// carrying an optional override (nil if the event specifies none).
// Precedence: override > bucket > tenant > criticality > DefaultFidelity
// (§4.4).
func (p *AdaptivePipeline) Resolve(tenantID, bucket, criticality string, override *FidelityLevel) FidelityLevel {
	if override != nil {
		return *override
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if level, ok := p.byBucket[bucket]; ok {
		return level
	}
	if level, ok := p.byTenant[tenantID]; ok {
		return level
	}
	if criticality != "" {
		if level, ok := p.byCriticality[criticality]; ok {
			return level
		}
	}
	return DefaultFidelity
}

// ProcessedEvent is what AAP hands back once an event has actually
// been carried through CAL (§4.4): the original event, its resolved
// fidelity, the AuditRecord that was appended (with PreviousHash and
// RecordHash filled in by the ledger), and — at MERKLE_PROOF fidelity
// — the inclusion proof if its batch has already closed. Proof is nil
// at every other fidelity, and also nil at MERKLE_PROOF when the
// record's batch has not yet closed (§4.3): that is a normal,
// not-yet-covered outcome, not a failure.
type ProcessedEvent struct {
	Event    ComplianceEvent
	Fidelity FidelityLevel
	Record   AuditRecord
	Proof    *MerkleProof
}

// ProcessEvent resolves event's fidelity, builds the AuditRecord that
// fidelity implies, appends it to ledger, and — for MERKLE_PROOF —
// attempts to fetch its inclusion proof immediately (§4.4). policy may
// be nil; its commitment is attached only when the resolved fidelity
// is POLICY_BOUND or MERKLE_PROOF and policy is non-nil (no check is
// made that policy relates to the event's tenant or bucket). At
// METADATA_ONLY the record is still
// chained and appended (CAL's chain never skips a record), but carries
// no metadata payload, trading audit detail for storage cost.
func (p *AdaptivePipeline) ProcessEvent(ctx context.Context, ledger *AuditLedger, event ComplianceEvent, policy *CanonicalPolicy, criticality string, override *FidelityLevel) (ProcessedEvent, error) {
	fidelity := p.Resolve(event.TenantID, event.Bucket, criticality, override)

	rec := AuditRecord{
		RecordID:  NewRecordID(),
		EventID:   event.EventID,
		Timestamp: event.Timestamp,
		EventType: event.EventType,
		TenantID:  event.TenantID,
		Bucket:    event.Bucket,
		ObjectKey: event.ObjectKey,
	}
	if fidelity != FidelityMetadataOnly {
		rec.Metadata = event.Metadata
	}
	if (fidelity == FidelityPolicyBound || fidelity == FidelityMerkleProof) && policy != nil {
		rec.PolicyCommitment = policy.CommitmentHash
	}

	if _, err := ledger.Append(ctx, rec); err != nil {
		return ProcessedEvent{}, err
	}

	stored, err := ledger.Get(rec.RecordID)
	if err != nil {
		return ProcessedEvent{}, err
	}

	out := ProcessedEvent{Event: event, Fidelity: fidelity, Record: *stored}
	if fidelity == FidelityMerkleProof {
		if proof, covered, err := ledger.GenerateInclusionProof(stored.RecordID); err == nil && covered {
			out.Proof = proof
		}
	}
	return out, nil
}
