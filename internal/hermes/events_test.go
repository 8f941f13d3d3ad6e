package hermes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestSessionProcessedEncoding(t *testing.T) {
	ev := SessionProcessed{
		SessionID:   "session-001",
		StudentName: "Sarah",
		Takeaways:   3,
		FollowUp:    true,
		ProcessedAt: time.Date(2024, time.December, 15, 10, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)

	if !strings.Contains(s, `"session_id":"session-001"`) {
		t.Errorf("missing session_id in %s", s)
	}
	if !strings.Contains(s, `"takeaways":3`) {
		t.Errorf("missing takeaways in %s", s)
	}
	if strings.Contains(s, "empty_categories") {
		t.Errorf("empty_categories should be omitted when empty: %s", s)
	}
}

func TestFollowUpDeliveredParsing(t *testing.T) {
	raw := `{
		"session_id": "session-001",
		"email_id": "mock_email_123",
		"to_email": "sarah@university.edu",
		"success": true,
		"mock": true,
		"sent_at": "2024-12-15T10:00:00Z"
	}`

	var ev FollowUpDelivered
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("failed to parse FollowUpDelivered: %v", err)
	}

	if ev.SessionID != "session-001" {
		t.Errorf("expected session_id 'session-001', got '%s'", ev.SessionID)
	}
	if ev.EmailID != "mock_email_123" {
		t.Errorf("expected email_id 'mock_email_123', got '%s'", ev.EmailID)
	}
	if !ev.Success || !ev.Mock {
		t.Errorf("expected success and mock, got %+v", ev)
	}
	if ev.SentAt.Year() != 2024 {
		t.Errorf("unexpected sent_at %v", ev.SentAt)
	}
}

func TestSubjectsShareNamespace(t *testing.T) {
	for _, s := range []string{
		SubjectTranscriptSubmitted,
		SubjectSessionProcessed,
		SubjectSessionFailed,
		SubjectFollowUpDelivered,
	} {
		if !strings.HasPrefix(s, "counsel.") {
			t.Errorf("subject %q is outside the counsel namespace", s)
		}
	}
}
