package followup

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/counsel/internal/generation"
	"github.com/MikeSquared-Agency/counsel/internal/generation/generationtest"
	"github.com/MikeSquared-Agency/counsel/internal/prompts"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func summary() *session.Summary {
	actions := []string{"Update resume", "Apply to Google internship"}
	return &session.Summary{
		SessionID:   "session-001",
		StudentName: "Sarah",
		Date:        time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC),
		ActionItems: actions,
		NextSteps:   actions,
		SummaryText: "We discussed data science.",
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Follow-up: Career Counseling Session - March 05, 2024",
		Subject(time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Follow-up: Career Counseling Session - December 15, 2024",
		Subject(time.Date(2024, time.December, 15, 23, 59, 0, 0, time.UTC)))
}

func TestBulletList(t *testing.T) {
	assert.Equal(t, "• a\n• b", BulletList([]string{"a", "b"}))
	assert.Equal(t, "• only", BulletList([]string{"only"}))
	assert.Equal(t, "", BulletList(nil))
}

func TestCompose(t *testing.T) {
	stub := generationtest.Fixed("Dear Sarah,\n\nThanks for meeting.\n")
	c := New(stub, prompts.Default(), discardLogger())
	fixed := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	msg, err := c.Compose(context.Background(), summary(), "sarah@university.edu")
	require.NoError(t, err)

	assert.Equal(t, "sarah@university.edu", msg.ToEmail)
	assert.Equal(t, "Follow-up: Career Counseling Session - March 05, 2024", msg.Subject)
	assert.Equal(t, "Dear Sarah,\n\nThanks for meeting.\n", msg.Body)
	assert.Equal(t, fixed, msg.GeneratedAt)
	assert.Equal(t, "session-001", msg.SessionSummary.SessionID)

	require.Len(t, stub.Prompts(), 1)
	prompt := stub.Prompts()[0]
	assert.Contains(t, prompt, "Student Name: Sarah")
	assert.Contains(t, prompt, "Student Email: sarah@university.edu")
	assert.Contains(t, prompt, "Session Summary: We discussed data science.")
	assert.Contains(t, prompt, "Key Action Items: • Update resume\n• Apply to Google internship\n")
}

func TestCompose_GenerationFailure(t *testing.T) {
	cause := &generation.Error{Provider: "test", Err: errors.New("quota")}
	c := New(generationtest.Failing(cause), prompts.Default(), discardLogger())

	msg, err := c.Compose(context.Background(), summary(), "sarah@university.edu")

	require.Error(t, err)
	assert.Nil(t, msg)
	var genErr *generation.Error
	assert.True(t, errors.As(err, &genErr))
}

func TestCompose_DoesNotModifySummary(t *testing.T) {
	s := summary()
	c := New(generationtest.Fixed("body"), prompts.Default(), discardLogger())

	msg, err := c.Compose(context.Background(), s, "sarah@university.edu")
	require.NoError(t, err)

	assert.Equal(t, summary(), s)
	assert.Equal(t, *s, msg.SessionSummary)
}
