package caas

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewRecordID generates a fresh record identifier for callers that do
// not already have one in hand (e.g. from an upstream event bus).
func NewRecordID() string {
	return uuid.NewString()
}

// AuditRecord is the unit CAL appends to the ledger (§3). It is
// mutable only during the append transaction (CAL.Append sets
// PreviousHash and RecordHash); thereafter it is treated as frozen.
type AuditRecord struct {
	RecordID  string
	EventID   string
	Timestamp time.Time
	EventType EventType
	TenantID  string
	Bucket    string

	ObjectKey        string // optional, "" if absent
	PolicyCommitment string // optional, "" if absent
	Metadata         map[string]interface{}

	PreviousHash string // set by CAL on append
	RecordHash   string // set by CAL after hashing
}

// canonicalRecordDoc fixes the field order and names the record hash
// is computed over (§4.3): record_id, event_id, timestamp, event_type,
// tenant_id, bucket, object_key, policy_commitment, metadata,
// previous_hash — record_hash itself is excluded from its own preimage.
// Optional absent fields serialize as the JSON null literal, which is
// why ObjectKey/PolicyCommitment are carried as pointers here.
type canonicalRecordDoc struct {
	RecordID         string                 `json:"record_id"`
	EventID          string                 `json:"event_id"`
	Timestamp        string                 `json:"timestamp"`
	EventType        string                 `json:"event_type"`
	TenantID         string                 `json:"tenant_id"`
	Bucket           string                 `json:"bucket"`
	ObjectKey        *string                `json:"object_key"`
	PolicyCommitment *string                `json:"policy_commitment"`
	Metadata         map[string]interface{} `json:"metadata"`
	PreviousHash     string                 `json:"previous_hash"`
}

// formatRecordTimestamp renders t as ISO-8601 UTC using
// time.RFC3339Nano, which trims trailing zero fractional digits rather
// than padding to a fixed width: 03:04:05.123 renders as ".123", but
// 03:04:05.120 renders as ".12" and a whole second has no fraction at
// all. The precision the caller originally used is not recorded.
func formatRecordTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func canonicalRecordBytes(r AuditRecord) ([]byte, error) {
	doc := canonicalRecordDoc{
		RecordID:         r.RecordID,
		EventID:          r.EventID,
		Timestamp:        formatRecordTimestamp(r.Timestamp),
		EventType:        string(r.EventType),
		TenantID:         r.TenantID,
		Bucket:           r.Bucket,
		Metadata:         r.Metadata,
		PreviousHash:     r.PreviousHash,
	}
	if r.ObjectKey != "" {
		doc.ObjectKey = &r.ObjectKey
	}
	if r.PolicyCommitment != "" {
		doc.PolicyCommitment = &r.PolicyCommitment
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// recordHash computes the canonical hash of r's field-fixed layout
// (§4.3 step 2). previous_hash must already be set on r before calling.
func recordHash(r AuditRecord) (string, error) {
	b, err := canonicalRecordBytes(r)
	if err != nil {
		return "", err
	}
	return sha256Hex(b), nil
}
