package session

import (
	"strings"
	"time"
)

// Role identifies which side of the conversation a participant is on.
type Role string

const (
	RoleCounselor Role = "counselor"
	RoleStudent   Role = "student"
)

func (r Role) Valid() bool {
	return r == RoleCounselor || r == RoleStudent
}

// Participant is one person in a counseling session.
type Participant struct {
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
}

// Transcript is the caller-supplied input to the pipeline. It is read-only
// once handed to a pipeline run.
type Transcript struct {
	SessionID       string        `json:"session_id"`
	Date            time.Time     `json:"date"`
	Participants    []Participant `json:"participants"`
	Text            string        `json:"transcript"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
}

// DefaultStudentName is used when no participant has the student role.
const DefaultStudentName = "Student"

// StudentName returns the name of the first student participant.
func (t Transcript) StudentName() string {
	for _, p := range t.Participants {
		if p.Role == RoleStudent {
			return p.Name
		}
	}
	return DefaultStudentName
}

// StudentEmail returns the email of the first student participant that has
// one, or "" when there is none.
func (t Transcript) StudentEmail() string {
	for _, p := range t.Participants {
		if p.Role == RoleStudent && strings.TrimSpace(p.Email) != "" {
			return strings.TrimSpace(p.Email)
		}
	}
	return ""
}

// Category is the kind of point a takeaway records.
type Category string

const (
	CategoryCareerGoal  Category = "career_goal"
	CategoryActionItem  Category = "action_item"
	CategoryConcern     Category = "concern"
	CategoryAchievement Category = "achievement"
	CategoryInsight     Category = "insight"
)

// Categories lists every category in reporting order.
var Categories = []Category{
	CategoryCareerGoal,
	CategoryActionItem,
	CategoryConcern,
	CategoryAchievement,
	CategoryInsight,
}

// Key is the plural name used for the category in takeaway maps
// (e.g. "career_goals").
func (c Category) Key() string {
	switch c {
	case CategoryCareerGoal:
		return "career_goals"
	case CategoryActionItem:
		return "action_items"
	case CategoryConcern:
		return "concerns"
	case CategoryAchievement:
		return "achievements"
	case CategoryInsight:
		return "insights"
	default:
		return string(c)
	}
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Takeaway is one categorized point extracted from a transcript.
type Takeaway struct {
	Category   Category `json:"category"`
	Content    string   `json:"content"`
	Priority   Priority `json:"priority"`
	AssignedTo string   `json:"assigned_to,omitempty"`
}

// Summary is the canonical record of a processed session. NextSteps shares
// its backing array with ActionItems; neither is modified after Build.
type Summary struct {
	SessionID         string     `json:"session_id"`
	StudentName       string     `json:"student_name"`
	Date              time.Time  `json:"date"`
	KeyTakeaways      []Takeaway `json:"key_takeaways"`
	CareerGoals       []string   `json:"career_goals"`
	ActionItems       []string   `json:"action_items"`
	ConcernsAddressed []string   `json:"concerns_addressed"`
	NextSteps         []string   `json:"next_steps"`
	SummaryText       string     `json:"summary_text"`
	CounselorNotes    string     `json:"counselor_notes,omitempty"`
}

// FollowUp is the personalized message derived from a Summary.
type FollowUp struct {
	ToEmail        string    `json:"to_email"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	SessionSummary Summary   `json:"session_summary"`
	GeneratedAt    time.Time `json:"generated_at"`
}
