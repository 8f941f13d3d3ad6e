package slack

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSummary() *session.Summary {
	return &session.Summary{
		SessionID:   "s-42",
		StudentName: "Sam",
		Date:        time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC),
	}
}

func TestFormatDigest_WithItems(t *testing.T) {
	takeaways := extractor.NewTakeaways(
		[]string{"Become a data scientist"},
		[]string{"Take a statistics course", "Update resume"},
	)

	msg := formatDigest(testSummary(), takeaways, true)

	checks := []string{
		"Sam",
		"March 05, 2024",
		"Career goals: 1",
		"1. Become a data scientist",
		"Action items: 2",
		"2. Update resume",
		"Follow-up email sent",
	}
	for _, check := range checks {
		if !strings.Contains(msg, check) {
			t.Errorf("expected message to contain %q, got:\n%s", check, msg)
		}
	}
}

func TestFormatDigest_EmptyCategories(t *testing.T) {
	msg := formatDigest(testSummary(), extractor.NewTakeaways(nil, []string{"Call back"}), false)

	if !strings.Contains(msg, "Career goals:* _none extracted_") {
		t.Errorf("expected empty career goals marker, got:\n%s", msg)
	}
	if !strings.Contains(msg, "not sent") {
		t.Errorf("expected not sent marker, got:\n%s", msg)
	}
}

func TestPostSessionDigest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer xoxb-test" {
			t.Errorf("expected Bearer xoxb-test, got %q", r.Header.Get("Authorization"))
		}

		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		json.Unmarshal(body, &payload)

		if payload["channel"] != "C123" {
			t.Errorf("expected channel C123, got %v", payload["channel"])
		}
		if !strings.Contains(payload["text"].(string), "Sam") {
			t.Errorf("expected digest text, got %v", payload["text"])
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"ts": "1234567890.123456",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	ts, err := p.PostSessionDigest(context.Background(), testSummary(), extractor.NewTakeaways([]string{"x"}, nil), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts != "1234567890.123456" {
		t.Errorf("expected ts 1234567890.123456, got %q", ts)
	}
}

func TestPostSessionDigest_SlackError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"ok":    false,
			"error": "channel_not_found",
		})
	}))
	defer server.Close()

	p := NewPoster("xoxb-test", "C123", discardLogger())
	p.apiURL = server.URL

	_, err := p.PostSessionDigest(context.Background(), testSummary(), extractor.NewTakeaways(nil, nil), false)
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("expected slack error, got %v", err)
	}
}
