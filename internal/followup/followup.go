// Package followup composes the personalized message sent to a student
// after a session.
package followup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/counsel/internal/generation"
	"github.com/MikeSquared-Agency/counsel/internal/prompts"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

const subjectPrefix = "Follow-up: Career Counseling Session - "

// Subject formats the message subject for a session date.
func Subject(date time.Time) string {
	return subjectPrefix + date.Format("January 02, 2006")
}

// BulletList renders items one per line, each prefixed with "• ".
func BulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + item
	}
	return strings.Join(lines, "\n")
}

type Composer struct {
	gen     generation.Generator
	prompts *prompts.Templates
	logger  *slog.Logger
	now     func() time.Time
}

func New(gen generation.Generator, tmpl *prompts.Templates, logger *slog.Logger) *Composer {
	return &Composer{
		gen:     gen,
		prompts: tmpl,
		logger:  logger.With("component", "followup"),
		now:     time.Now,
	}
}

// Compose generates the message body for recipient. The generated text is
// used as the body unchanged.
func (c *Composer) Compose(ctx context.Context, s *session.Summary, recipient string) (*session.FollowUp, error) {
	prompt, err := c.prompts.FollowUp(prompts.FollowUpData{
		StudentName:    s.StudentName,
		StudentEmail:   recipient,
		SessionSummary: s.SummaryText,
		ActionItems:    BulletList(s.ActionItems),
	})
	if err != nil {
		return nil, fmt.Errorf("follow-up prompt: %w", err)
	}

	body, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("follow-up body: %w", err)
	}

	msg := &session.FollowUp{
		ToEmail:        recipient,
		Subject:        Subject(s.Date),
		Body:           body,
		SessionSummary: *s,
		GeneratedAt:    c.now().UTC(),
	}

	c.logger.Info("follow-up composed",
		"session_id", s.SessionID,
		"to", recipient,
		"body_len", len(body),
	)
	return msg, nil
}
