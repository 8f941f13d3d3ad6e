package extractor

import (
	"context"
	"log/slog"

	"github.com/MikeSquared-Agency/counsel/internal/generation"
	"github.com/MikeSquared-Agency/counsel/internal/prompts"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

type Extractor struct {
	gen     generation.Generator
	prompts *prompts.Templates
	logger  *slog.Logger
}

func New(gen generation.Generator, tmpl *prompts.Templates, logger *slog.Logger) *Extractor {
	return &Extractor{gen: gen, prompts: tmpl, logger: logger.With("component", "extractor")}
}

// Extract asks the generator for career goals and action items under
// headings and parses its answer. It never fails: a generation error is
// logged and reported as Empty for both categories.
func (e *Extractor) Extract(ctx context.Context, transcript string) Takeaways {
	prompt, err := e.prompts.Extraction(prompts.ExtractionData{Transcript: transcript})
	if err != nil {
		e.logger.Error("failed to render extraction prompt", "error", err)
		return allEmpty()
	}

	e.logger.Info("extracting takeaways", "transcript_len", len(transcript))

	raw, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.logger.Warn("takeaway extraction failed, continuing without takeaways", "error", err)
		return allEmpty()
	}

	result := fromSections(parseSections(raw))

	e.logger.Info("extraction complete",
		"career_goals", len(result.Items(session.CategoryCareerGoal)),
		"action_items", len(result.Items(session.CategoryActionItem)),
		"empty_categories", len(result.Failed()),
	)
	if len(result.Failed()) > 0 {
		e.logger.Debug("extraction response had empty sections", "raw", raw)
	}
	return result
}
