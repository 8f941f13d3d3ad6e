// Package summary builds the canonical session record from a transcript
// and its extracted takeaways.
package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/generation"
	"github.com/MikeSquared-Agency/counsel/internal/prompts"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

type Builder struct {
	gen     generation.Generator
	prompts *prompts.Templates
	logger  *slog.Logger
}

func New(gen generation.Generator, tmpl *prompts.Templates, logger *slog.Logger) *Builder {
	return &Builder{gen: gen, prompts: tmpl, logger: logger.With("component", "summary")}
}

// Build generates the narrative and assembles the Summary. A generation
// failure is returned and no Summary is produced.
func (b *Builder) Build(ctx context.Context, t session.Transcript, takeaways extractor.Takeaways) (*session.Summary, error) {
	studentName := t.StudentName()

	prompt, err := b.prompts.Summary(prompts.SummaryData{
		Transcript:  t.Text,
		StudentName: studentName,
		SessionDate: t.Date.Format("January 02, 2006"),
	})
	if err != nil {
		return nil, fmt.Errorf("summary prompt: %w", err)
	}

	narrative, err := b.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("summary narrative: %w", err)
	}

	actionItems := items(takeaways, session.CategoryActionItem)

	s := &session.Summary{
		SessionID:         t.SessionID,
		StudentName:       studentName,
		Date:              t.Date,
		KeyTakeaways:      flatten(takeaways),
		CareerGoals:       items(takeaways, session.CategoryCareerGoal),
		ActionItems:       actionItems,
		ConcernsAddressed: items(takeaways, session.CategoryConcern),
		NextSteps:         actionItems,
		SummaryText:       narrative,
	}

	b.logger.Info("summary built",
		"session_id", t.SessionID,
		"key_takeaways", len(s.KeyTakeaways),
		"summary_len", len(narrative),
	)
	return s, nil
}

// items never returns nil so empty lists encode as [].
func items(takeaways extractor.Takeaways, c session.Category) []string {
	if v := takeaways.Items(c); v != nil {
		return v
	}
	return []string{}
}

// flatten turns every real item into a medium-priority Takeaway, in
// category order then item order.
func flatten(takeaways extractor.Takeaways) []session.Takeaway {
	out := make([]session.Takeaway, 0, takeaways.Count())
	for _, c := range session.Categories {
		for _, item := range takeaways.Items(c) {
			out = append(out, session.Takeaway{
				Category: c,
				Content:  item,
				Priority: session.PriorityMedium,
			})
		}
	}
	return out
}
