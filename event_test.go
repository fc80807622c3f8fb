package caas

import (
	"testing"
	"time"
)

func TestComplianceEventValidate(t *testing.T) {
	valid := ComplianceEvent{
		EventID:   "e1",
		EventType: EventObjectCreate,
		Timestamp: time.Now(),
		TenantID:  "t1",
		Bucket:    "b1",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid event to pass, got %v", err)
	}

	missing := valid
	missing.TenantID = ""
	if err := missing.Validate(); err == nil {
		t.Fatal("expected error for missing tenant_id")
	}
}

func TestEventFilterMatches(t *testing.T) {
	e := ComplianceEvent{
		EventID:   "e1",
		EventType: EventObjectCreate,
		Timestamp: time.Now(),
		TenantID:  "t1",
		Bucket:    "b1",
	}

	allMatch := EventFilter{}
	if !allMatch.Matches(e) {
		t.Fatal("empty filter should match everything")
	}

	byTenant := EventFilter{TenantIDs: []string{"t1"}}
	if !byTenant.Matches(e) {
		t.Fatal("filter on matching tenant should match")
	}

	byWrongTenant := EventFilter{TenantIDs: []string{"t2"}}
	if byWrongTenant.Matches(e) {
		t.Fatal("filter on a different tenant should not match")
	}

	byType := EventFilter{EventTypes: []EventType{EventObjectDelete}}
	if byType.Matches(e) {
		t.Fatal("filter on a different event type should not match")
	}
}
