package session

import (
	"fmt"
	"strings"
)

// ValidationError reports a malformed transcript.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transcript: %s %s", e.Field, e.Reason)
}

// Validate checks the transcript before any stage runs.
func (t Transcript) Validate() error {
	if strings.TrimSpace(t.SessionID) == "" {
		return &ValidationError{Field: "session_id", Reason: "is required"}
	}
	if t.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: "is required"}
	}
	if strings.TrimSpace(t.Text) == "" {
		return &ValidationError{Field: "transcript", Reason: "must not be empty"}
	}
	for i, p := range t.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return &ValidationError{Field: fmt.Sprintf("participants[%d].name", i), Reason: "is required"}
		}
		if !p.Role.Valid() {
			return &ValidationError{
				Field:  fmt.Sprintf("participants[%d].role", i),
				Reason: fmt.Sprintf("%q is not one of counselor, student", p.Role),
			}
		}
	}
	if t.DurationMinutes != nil && *t.DurationMinutes < 0 {
		return &ValidationError{Field: "duration_minutes", Reason: "must not be negative"}
	}
	return nil
}
