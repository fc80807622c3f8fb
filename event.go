package caas

import "time"

// EventType enumerates the mutation/access kinds a ComplianceEvent can
// carry (§3).
type EventType string

const (
	EventObjectCreate EventType = "object.create"
	EventObjectUpdate EventType = "object.update"
	EventObjectDelete EventType = "object.delete"
	EventObjectRead   EventType = "object.read"
	EventPolicyCreate EventType = "policy.create"
	EventPolicyUpdate EventType = "policy.update"
	EventPolicyDelete EventType = "policy.delete"
)

// ComplianceEvent is an immutable description of a single mutation or
// access against the governed object-storage control plane (§3). It is
// produced by an external event-origination collaborator and consumed
// by CEI.
type ComplianceEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	TenantID  string    `json:"tenant_id"`
	Bucket    string    `json:"bucket"`

	ObjectKey string `json:"object_key,omitempty"`
	Principal string `json:"principal,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Validate enforces the intercept-time invariant from §3: event_id,
// event_type, timestamp, tenant_id, and bucket must be non-empty.
func (e ComplianceEvent) Validate() error {
	if e.EventID == "" {
		return wrapInvalid("event_id is required")
	}
	if e.EventType == "" {
		return wrapInvalid("event_type is required")
	}
	if e.Timestamp.IsZero() {
		return wrapInvalid("timestamp is required")
	}
	if e.TenantID == "" {
		return wrapInvalid("tenant_id is required")
	}
	if e.Bucket == "" {
		return wrapInvalid("bucket is required")
	}
	return nil
}

// EventFilter is an additive allow-list filter over tenant, bucket,
// and event type (§4.2). An empty list for a dimension means "match
// anything" for that dimension; matches() is the conjunction across
// dimensions.
type EventFilter struct {
	TenantIDs  []string
	Buckets    []string
	EventTypes []EventType
}

// Matches reports whether e satisfies every non-empty allow-list on f.
func (f EventFilter) Matches(e ComplianceEvent) bool {
	if len(f.TenantIDs) > 0 && !containsString(f.TenantIDs, e.TenantID) {
		return false
	}
	if len(f.Buckets) > 0 && !containsString(f.Buckets, e.Bucket) {
		return false
	}
	if len(f.EventTypes) > 0 && !containsEventType(f.EventTypes, e.EventType) {
		return false
	}
	return true
}

func containsString(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}

func containsEventType(ts []EventType, v EventType) bool {
	for _, t := range ts {
		if t == v {
			return true
		}
	}
	return false
}
