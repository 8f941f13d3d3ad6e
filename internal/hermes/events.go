package hermes

import "time"

const (
	// SubjectTranscriptSubmitted carries a process request to be run.
	SubjectTranscriptSubmitted = "counsel.transcript.submitted"
	SubjectSessionProcessed    = "counsel.session.processed"
	SubjectSessionFailed       = "counsel.session.failed"
	SubjectFollowUpDelivered   = "counsel.followup.delivered"

	// QueueProcessors is the queue group transcript consumers join.
	QueueProcessors = "counsel-processors"
)

// SessionProcessed is emitted after a pipeline run produced a summary.
// Takeaways counts real items only.
type SessionProcessed struct {
	SessionID       string    `json:"session_id"`
	StudentName     string    `json:"student_name"`
	Takeaways       int       `json:"takeaways"`
	EmptyCategories []string  `json:"empty_categories,omitempty"`
	FollowUp        bool      `json:"follow_up"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// SessionFailed is emitted when a run produced no summary.
type SessionFailed struct {
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Reason    string    `json:"reason"`
	FailedAt  time.Time `json:"failed_at"`
}

// FollowUpDelivered is emitted for every delivery attempt, successful or not.
type FollowUpDelivered struct {
	SessionID string    `json:"session_id"`
	EmailID   string    `json:"email_id,omitempty"`
	To        string    `json:"to_email"`
	Success   bool      `json:"success"`
	Mock      bool      `json:"mock"`
	Error     string    `json:"error,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}
