package caas

import (
	"context"
	"sync"
	"time"
)

// AuditLedger is the append-only, hash-chained store of AuditRecords
// (§4.3). Every append is serialized (single-writer); readers may
// proceed concurrently with each other (§5).
type AuditLedger struct {
	mu sync.RWMutex

	records []*AuditRecord
	index   map[string]int // record_id -> position in records

	batchSize int
	sealed    int           // number of records already covered by a closed tree
	trees     []*MerkleTree // trees[i] covers records[treeStart[i] : treeStart[i]+len(trees[i].Leaves)]
	treeStart []int

	metrics *Metrics
}

// NewAuditLedger creates an empty ledger. metrics may be nil.
func NewAuditLedger(cfg Config, metrics *Metrics) *AuditLedger {
	return &AuditLedger{
		records:   make([]*AuditRecord, 0),
		index:     make(map[string]int),
		batchSize: cfg.resolveBatchSize(),
		trees:     make([]*MerkleTree, 0),
		treeStart: make([]int, 0),
		metrics:   metrics,
	}
}

// SetBatchSize changes the Merkle batch size. It fails once any record
// has been appended (§4.3, §9): changing batch boundaries mid-stream
// would make prior proofs' batch membership ambiguous.
func (l *AuditLedger) SetBatchSize(n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 {
		return wrapInvalid("batch size must be positive")
	}
	if len(l.records) > 0 {
		return ErrBatchSizeLocked
	}
	l.batchSize = n
	return nil
}

// Append assigns rec.PreviousHash from the current chain tip (or
// GenesisHash for the first record), computes rec.RecordHash, appends
// the record, indexes it, and — if this append closes a batch —
// builds the corresponding MerkleTree. The whole operation is
// atomic: on any error, no partial record is left in the list or
// index (§4.3, §7).
func (l *AuditLedger) Append(ctx context.Context, rec AuditRecord) (string, error) {
	_, end := startSpan(ctx, "caas.AuditLedger.Append")
	start := time.Now()
	var err error
	defer func() { end(&err); l.metrics.observeAppend(time.Since(start).Seconds()) }()

	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.RecordID == "" {
		rec.RecordID = NewRecordID()
	}
	if _, exists := l.index[rec.RecordID]; exists {
		err = wrapInvalid("record_id already exists: " + rec.RecordID)
		return "", err
	}

	if len(l.records) == 0 {
		rec.PreviousHash = GenesisHash
	} else {
		rec.PreviousHash = l.records[len(l.records)-1].RecordHash
	}

	hash, herr := recordHash(rec)
	if herr != nil {
		err = herr
		return "", err
	}
	rec.RecordHash = hash

	l.records = append(l.records, &rec)
	l.index[rec.RecordID] = len(l.records) - 1

	if len(l.records)-l.sealed == l.batchSize {
		l.sealBatchLocked(l.batchSize)
	}

	return rec.RecordHash, nil
}

// sealBatchLocked builds a MerkleTree over the count records
// immediately following the last sealed record, and advances l.sealed
// past them. Caller must hold l.mu for writing.
func (l *AuditLedger) sealBatchLocked(count int) {
	start := l.sealed
	leaves := make([]string, count)
	for i := 0; i < count; i++ {
		leaves[i] = l.records[start+i].RecordHash
	}
	l.trees = append(l.trees, BuildMerkleTree(leaves))
	l.treeStart = append(l.treeStart, start)
	l.sealed += count
	l.metrics.observeBatchClosed()
}

// Flush closes a short trailing batch on demand, sealing whatever
// records have accumulated since the last closed batch so they gain
// Merkle proofs immediately rather than waiting for the batch to fill
// (§9 "Trailing-batch proofs", resolved in SPEC_FULL.md as a
// supplemented feature). It is a no-op if there is no open tail, so a
// second call with no intervening appends returns false.
func (l *AuditLedger) Flush() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	tail := len(l.records) - l.sealed
	if tail == 0 {
		return false
	}
	l.sealBatchLocked(tail)
	return true
}

// Get returns the record stored under recordID.
func (l *AuditLedger) Get(recordID string) (*AuditRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx, ok := l.index[recordID]
	if !ok {
		return nil, wrapNotFound("record " + recordID)
	}
	return l.records[idx], nil
}

// Latest returns the most recently appended record, or ErrNotFound if
// the ledger is empty.
func (l *AuditLedger) Latest() (*AuditRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.records) == 0 {
		return nil, wrapNotFound("ledger is empty")
	}
	return l.records[len(l.records)-1], nil
}

// Count returns the number of appended records.
func (l *AuditLedger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// VerifyChainIntegrity recomputes every record's hash and checks every
// chain link, including the genesis link at index 0 (§4.3, §8
// properties 3-6). It never mutates state and never panics; any
// mismatch simply yields false.
func (l *AuditLedger) VerifyChainIntegrity(ctx context.Context) bool {
	_, end := startSpan(ctx, "caas.AuditLedger.VerifyChainIntegrity")
	defer end(nil)

	l.mu.RLock()
	defer l.mu.RUnlock()
	l.metrics.observeChainVerify()

	for i, rec := range l.records {
		expected := GenesisHash
		if i > 0 {
			expected = l.records[i-1].RecordHash
		}
		if rec.PreviousHash != expected {
			return false
		}
		h, err := recordHash(*rec)
		if err != nil || h != rec.RecordHash {
			return false
		}
	}
	return true
}

// GenerateInclusionProof returns the Merkle inclusion proof for
// recordID. covered is false (with a nil proof and nil error) when the
// record exists but its batch has not yet closed (§4.3). err is
// ErrNotFound when recordID is unknown.
func (l *AuditLedger) GenerateInclusionProof(recordID string) (proof *MerkleProof, covered bool, err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.index[recordID]
	if !ok {
		return nil, false, wrapNotFound("record " + recordID)
	}

	treeIdx, offset, ok := l.locateLocked(idx)
	if !ok {
		return nil, false, nil
	}
	p, ok := l.trees[treeIdx].InclusionProof(offset)
	if !ok {
		return nil, false, nil
	}
	return p, true, nil
}

// locateLocked finds the closed tree covering record index idx and
// returns its index into l.trees plus idx's offset within that tree's
// leaves. Caller must hold l.mu. ok is false if idx's record has not
// yet been sealed into any tree.
func (l *AuditLedger) locateLocked(idx int) (treeIdx, offset int, ok bool) {
	for i, start := range l.treeStart {
		count := len(l.trees[i].Leaves)
		if idx >= start && idx < start+count {
			return i, idx - start, true
		}
	}
	return 0, 0, false
}

// AuditQuery filters Query results (supplemented read-side convenience,
// grounded on the teacher's AuditQuery/GetComplianceLogs filters).
type AuditQuery struct {
	TenantID  string
	Bucket    string
	EventType EventType
	From      time.Time
	To        time.Time
	Limit     int
}

func (q AuditQuery) matches(r *AuditRecord) bool {
	if q.TenantID != "" && r.TenantID != q.TenantID {
		return false
	}
	if q.Bucket != "" && r.Bucket != q.Bucket {
		return false
	}
	if q.EventType != "" && r.EventType != q.EventType {
		return false
	}
	if !q.From.IsZero() && r.Timestamp.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && !r.Timestamp.Before(q.To) {
		return false
	}
	return true
}

// Query returns appended records matching q, in append order, capped
// at q.Limit when positive.
func (l *AuditLedger) Query(q AuditQuery) []AuditRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]AuditRecord, 0)
	for _, r := range l.records {
		if q.matches(r) {
			out = append(out, *r)
			if q.Limit > 0 && len(out) >= q.Limit {
				break
			}
		}
	}
	return out
}

// AuditStatistics summarizes the ledger's contents (supplemented,
// grounded on audit_immutable.go's GetAuditStatistics/AuditStatistics).
type AuditStatistics struct {
	TotalRecords    int
	ClosedBatches   int
	OldestTimestamp time.Time
	NewestTimestamp time.Time
	EventsByType    map[EventType]int
	EventsByTenant  map[string]int
}

// Statistics returns a summary of the ledger's contents.
func (l *AuditLedger) Statistics() AuditStatistics {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := AuditStatistics{
		TotalRecords:  len(l.records),
		ClosedBatches: len(l.trees),
		EventsByType:  make(map[EventType]int),
		EventsByTenant: make(map[string]int),
	}

	for _, r := range l.records {
		if stats.OldestTimestamp.IsZero() || r.Timestamp.Before(stats.OldestTimestamp) {
			stats.OldestTimestamp = r.Timestamp
		}
		if r.Timestamp.After(stats.NewestTimestamp) {
			stats.NewestTimestamp = r.Timestamp
		}
		stats.EventsByType[r.EventType]++
		stats.EventsByTenant[r.TenantID]++
	}

	return stats
}

// TamperingIndicator itemizes one integrity failure discovered while
// walking the ledger (supplemented, grounded on audit_immutable.go's
// DetectTampering/TamperingIndicator — itemized detail alongside, not
// instead of, the spec's boolean VerifyChainIntegrity).
type TamperingIndicator struct {
	Index       int
	Kind        string // "hash_mismatch" | "chain_break"
	Description string
}

// DetectTampering re-walks the ledger and itemizes every integrity
// failure found, rather than collapsing them into a single bool.
func (l *AuditLedger) DetectTampering() []TamperingIndicator {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var indicators []TamperingIndicator
	for i, rec := range l.records {
		expected := GenesisHash
		if i > 0 {
			expected = l.records[i-1].RecordHash
		}
		if rec.PreviousHash != expected {
			indicators = append(indicators, TamperingIndicator{
				Index:       i,
				Kind:        "chain_break",
				Description: "previous_hash does not match predecessor's record_hash",
			})
		}
		if h, err := recordHash(*rec); err != nil || h != rec.RecordHash {
			indicators = append(indicators, TamperingIndicator{
				Index:       i,
				Kind:        "hash_mismatch",
				Description: "recomputed record_hash does not match stored record_hash",
			})
		}
	}
	return indicators
}
