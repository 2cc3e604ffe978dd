package audit

import (
	"testing"

	"github.com/google/uuid"
)

// TestNewEvent verifies defaults and builder chaining.
func TestNewEvent(t *testing.T) {
	e := NewEvent("console", CategoryExport, ActionDownload).
		WithResource("achievement", "a1").
		WithDescription("Asha Rao_Achievement.pdf").
		WithRequest("127.0.0.1", "test-agent")

	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", e.ID, err)
	}
	if e.Severity != SeverityInfo {
		t.Errorf("Severity = %q, want info", e.Severity)
	}
	if e.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if e.ResourceType != "achievement" || e.ResourceID != "a1" {
		t.Errorf("resource = %s/%s", e.ResourceType, e.ResourceID)
	}
	if e.IPAddress != "127.0.0.1" || e.UserAgent != "test-agent" {
		t.Errorf("request = %s %s", e.IPAddress, e.UserAgent)
	}
}

// TestNewEvent_UniqueIDs verifies ids do not collide in quick succession.
func TestNewEvent_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewEvent("", CategoryCredential, ActionStore).ID
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
