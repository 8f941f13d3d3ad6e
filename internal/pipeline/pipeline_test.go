package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/counsel/internal/generation"
	"github.com/MikeSquared-Agency/counsel/internal/generation/generationtest"
	"github.com/MikeSquared-Agency/counsel/internal/prompts"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

// Substrings that identify which stage's default prompt is being rendered.
const (
	extractionMarker = "identify and list"
	summaryMarker    = "Summarize the following conversation"
	followUpMarker   = "follow-up email"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func transcript() session.Transcript {
	return session.Transcript{
		SessionID: "session-001",
		Date:      time.Date(2024, time.December, 15, 10, 0, 0, 0, time.UTC),
		Participants: []session.Participant{
			{Name: "Dr. Johnson", Role: session.RoleCounselor, Email: "johnson@university.edu"},
			{Name: "Sarah", Role: session.RoleStudent, Email: "sarah@university.edu"},
		},
		Text: "Counselor: What are your goals?\nSarah: I want to be a data scientist.",
	}
}

func happyStub() *generationtest.Stub {
	return generationtest.Rules(
		generationtest.Rule{Contains: extractionMarker, Text: "Career Goals\n- Become a data scientist\nAction Items\n1. Update resume\n2. Apply to internships"},
		generationtest.Rule{Contains: summaryMarker, Text: "Sarah discussed her goal of becoming a data scientist."},
		generationtest.Rule{Contains: followUpMarker, Text: "Dear Sarah,\n\nThank you for meeting with me."},
	)
}

func newPipeline(gen generation.Generator) *Pipeline {
	return NewWithGenerator(gen, prompts.Default(), discardLogger())
}

func TestProcess_Success(t *testing.T) {
	stub := happyStub()
	res := newPipeline(stub).Process(context.Background(), transcript())

	require.True(t, res.OK(), "unexpected failure: %v", res.Failure)
	require.NotNil(t, res.Summary)
	require.NotNil(t, res.Message)

	assert.Equal(t, "session-001", res.Summary.SessionID)
	assert.Equal(t, "Sarah", res.Summary.StudentName)
	assert.Equal(t, []string{"Become a data scientist"}, res.Summary.CareerGoals)
	assert.Equal(t, []string{"Update resume", "Apply to internships"}, res.Summary.ActionItems)
	assert.Equal(t, res.Summary.ActionItems, res.Summary.NextSteps)
	assert.Len(t, res.Summary.KeyTakeaways, 3)

	assert.Equal(t, "sarah@university.edu", res.Message.ToEmail)
	assert.Equal(t, "Follow-up: Career Counseling Session - December 15, 2024", res.Message.Subject)
	assert.Equal(t, "Dear Sarah,\n\nThank you for meeting with me.", res.Message.Body)

	assert.Equal(t, 3, res.Takeaways.Count())
	assert.Equal(t, []State{
		StateStart, StateValidating, StateExtracting, StateSummarizing,
		StateResolvingEmail, StateComposing, StateDone,
	}, res.States)
	assert.Equal(t, 3, stub.Calls())
}

func TestProcess_SummaryFailureFails(t *testing.T) {
	stub := generationtest.Rules(
		generationtest.Rule{Contains: extractionMarker, Text: "Career Goals\n- g"},
		generationtest.Rule{Contains: summaryMarker, Err: errors.New("model overloaded")},
		generationtest.Rule{Contains: followUpMarker, Text: "body"},
	)
	p := NewWithGenerator(generation.Guard(stub, "test", time.Second, discardLogger()), prompts.Default(), discardLogger())

	res := p.Process(context.Background(), transcript())

	require.False(t, res.OK())
	assert.Nil(t, res.Summary)
	assert.Nil(t, res.Message)
	assert.Equal(t, StateSummarizing, res.Failure.Stage)
	assert.Contains(t, res.Failure.Error(), "model overloaded")
	assert.False(t, res.Failure.IsValidation())

	var genErr *generation.Error
	assert.True(t, errors.As(res.Failure, &genErr))
	assert.Equal(t, StateFailed, res.States[len(res.States)-1])
	assert.Equal(t, 0, stub.CallsContaining(followUpMarker))
}

func TestProcess_FollowUpFailureStillSucceeds(t *testing.T) {
	stub := generationtest.Rules(
		generationtest.Rule{Contains: extractionMarker, Text: "Career Goals\n- g\nAction Items\n- a"},
		generationtest.Rule{Contains: summaryMarker, Text: "narrative"},
		generationtest.Rule{Contains: followUpMarker, Err: errors.New("timeout")},
	)

	res := newPipeline(stub).Process(context.Background(), transcript())

	require.True(t, res.OK())
	require.NotNil(t, res.Summary)
	assert.Nil(t, res.Message)
	assert.Equal(t, "narrative", res.Summary.SummaryText)
	assert.Equal(t, StateDone, res.States[len(res.States)-1])
}

func TestProcess_NoStudentEmailSkipsComposer(t *testing.T) {
	tr := transcript()
	tr.Participants = []session.Participant{
		{Name: "Dr. Johnson", Role: session.RoleCounselor, Email: "johnson@university.edu"},
		{Name: "Sarah", Role: session.RoleStudent},
	}
	stub := happyStub()

	res := newPipeline(stub).Process(context.Background(), tr)

	require.True(t, res.OK())
	require.NotNil(t, res.Summary)
	assert.Nil(t, res.Message)
	assert.Equal(t, 0, stub.CallsContaining(followUpMarker))
	assert.NotContains(t, res.States, StateComposing)
	assert.Equal(t, StateDone, res.States[len(res.States)-1])
}

func TestProcess_NoStudentAtAll(t *testing.T) {
	tr := transcript()
	tr.Participants = tr.Participants[:1]
	stub := happyStub()

	res := newPipeline(stub).Process(context.Background(), tr)

	require.True(t, res.OK())
	assert.Equal(t, "Student", res.Summary.StudentName)
	assert.Nil(t, res.Message)
	assert.Equal(t, 0, stub.CallsContaining(followUpMarker))
}

func TestProcess_ExtractionFailureIsAbsorbed(t *testing.T) {
	stub := generationtest.Rules(
		generationtest.Rule{Contains: extractionMarker, Err: errors.New("down")},
		generationtest.Rule{Contains: summaryMarker, Text: "narrative"},
		generationtest.Rule{Contains: followUpMarker, Text: "body"},
	)

	res := newPipeline(stub).Process(context.Background(), transcript())

	require.True(t, res.OK())
	assert.Equal(t, 0, res.Takeaways.Count())
	assert.Len(t, res.Takeaways.Failed(), 2)
	assert.Empty(t, res.Summary.KeyTakeaways)
	assert.Empty(t, res.Summary.ActionItems)
	require.NotNil(t, res.Message)
	assert.NotContains(t, stub.Prompts()[2], "extraction failed")
}

func TestProcess_ValidationFailure(t *testing.T) {
	tr := transcript()
	tr.SessionID = ""
	stub := happyStub()

	res := newPipeline(stub).Process(context.Background(), tr)

	require.False(t, res.OK())
	assert.Equal(t, StateValidating, res.Failure.Stage)
	assert.True(t, res.Failure.IsValidation())
	assert.Contains(t, res.Failure.Reason, "session_id")
	assert.Equal(t, []State{StateStart, StateValidating, StateFailed}, res.States)
	assert.Equal(t, 0, stub.Calls())
}

func TestProcess_Idempotent(t *testing.T) {
	p := newPipeline(happyStub())

	first := p.Process(context.Background(), transcript())
	second := p.Process(context.Background(), transcript())

	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Message.Subject, second.Message.Subject)
	assert.Equal(t, first.Message.Body, second.Message.Body)
	assert.Equal(t, first.Message.ToEmail, second.Message.ToEmail)
	assert.Equal(t, first.Takeaways.Map(), second.Takeaways.Map())
}

func TestProcess_ConcurrentRuns(t *testing.T) {
	p := newPipeline(happyStub())

	var wg sync.WaitGroup
	results := make([]*Result, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr := transcript()
			tr.SessionID = "session-" + string(rune('a'+i))
			results[i] = p.Process(context.Background(), tr)
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		require.True(t, res.OK())
		assert.Equal(t, "session-"+string(rune('a'+i)), res.Summary.SessionID)
		assert.NotNil(t, res.Message)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newPipeline(happyStub()).Process(ctx, transcript())

	require.False(t, res.OK())
	assert.Equal(t, StateSummarizing, res.Failure.Stage)
	assert.ErrorIs(t, res.Failure, context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "RESOLVING_EMAIL", StateResolvingEmail.String())
	assert.Equal(t, "FAILED", StateFailed.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
}
