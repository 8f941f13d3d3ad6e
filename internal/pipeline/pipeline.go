// Package pipeline runs one transcript through extraction, summarization
// and follow-up composition.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/followup"
	"github.com/MikeSquared-Agency/counsel/internal/generation"
	"github.com/MikeSquared-Agency/counsel/internal/prompts"
	"github.com/MikeSquared-Agency/counsel/internal/session"
	"github.com/MikeSquared-Agency/counsel/internal/summary"
)

var tracer = otel.Tracer("github.com/MikeSquared-Agency/counsel/internal/pipeline")

// TakeawayExtractor never fails; an unusable response is reported through
// the returned Takeaways.
type TakeawayExtractor interface {
	Extract(ctx context.Context, transcript string) extractor.Takeaways
}

type SummaryBuilder interface {
	Build(ctx context.Context, t session.Transcript, takeaways extractor.Takeaways) (*session.Summary, error)
}

type FollowUpComposer interface {
	Compose(ctx context.Context, s *session.Summary, recipient string) (*session.FollowUp, error)
}

// Pipeline holds only its stages; runs share no mutable state and may
// execute concurrently.
type Pipeline struct {
	extractor TakeawayExtractor
	builder   SummaryBuilder
	composer  FollowUpComposer
	logger    *slog.Logger
}

func New(ext TakeawayExtractor, builder SummaryBuilder, composer FollowUpComposer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		extractor: ext,
		builder:   builder,
		composer:  composer,
		logger:    logger.With("component", "pipeline"),
	}
}

// NewWithGenerator wires the standard stages around one generator.
func NewWithGenerator(gen generation.Generator, tmpl *prompts.Templates, logger *slog.Logger) *Pipeline {
	return New(
		extractor.New(gen, tmpl, logger),
		summary.New(gen, tmpl, logger),
		followup.New(gen, tmpl, logger),
		logger,
	)
}

// Result is either a success (Failure nil, Summary set, Message possibly
// nil) or a failure carrying only the reason.
type Result struct {
	Summary   *session.Summary
	Message   *session.FollowUp
	Takeaways extractor.Takeaways
	Failure   *Failure
	// States is the path the run took, START through DONE or FAILED.
	States []State
}

func (r *Result) OK() bool { return r.Failure == nil }

// Failure explains why a run produced no summary.
type Failure struct {
	Stage  State
	Reason string
	Err    error
}

func (f *Failure) Error() string { return f.Reason }

func (f *Failure) Unwrap() error { return f.Err }

// IsValidation reports whether the run was rejected before any stage ran.
func (f *Failure) IsValidation() bool {
	var verr *session.ValidationError
	return errors.As(f.Err, &verr)
}

// run tracks one invocation's position in the state machine.
type run struct {
	states []State
	span   trace.Span
	logger *slog.Logger
}

func (r *run) enter(s State) {
	r.states = append(r.states, s)
	r.span.AddEvent("state", trace.WithAttributes(attribute.String("pipeline.state", s.String())))
	r.logger.Debug("pipeline state", "state", s.String())
}

func (r *run) fail(stage State, reason string, err error) *Result {
	r.enter(StateFailed)
	r.span.RecordError(err)
	r.span.SetStatus(codes.Error, reason)
	r.logger.Error("session processing failed", "stage", stage.String(), "error", err)
	return &Result{
		Failure: &Failure{Stage: stage, Reason: reason, Err: err},
		States:  r.states,
	}
}

// Process turns a transcript into a summary and, when the student has an
// email address, a follow-up message. Only invalid input or a failed
// summary produce a Failure.
func (p *Pipeline) Process(ctx context.Context, t session.Transcript) *Result {
	ctx, span := tracer.Start(ctx, "counsel.pipeline.process",
		trace.WithAttributes(attribute.String("session.id", t.SessionID)))
	defer span.End()

	r := &run{span: span, logger: p.logger.With("session_id", t.SessionID)}
	r.enter(StateStart)

	r.enter(StateValidating)
	if err := t.Validate(); err != nil {
		return r.fail(StateValidating, err.Error(), err)
	}

	r.enter(StateExtracting)
	takeaways := p.extract(ctx, t.Text)

	r.enter(StateSummarizing)
	s, err := p.summarize(ctx, t, takeaways)
	if err != nil {
		return r.fail(StateSummarizing, fmt.Sprintf("summary generation failed: %v", err), err)
	}

	r.enter(StateResolvingEmail)
	var msg *session.FollowUp
	if email := t.StudentEmail(); email == "" {
		r.logger.Info("no student email, skipping follow-up")
	} else {
		r.enter(StateComposing)
		msg, err = p.compose(ctx, s, email)
		if err != nil {
			r.logger.Warn("follow-up composition failed, returning summary without message", "error", err)
			msg = nil
		}
	}

	r.enter(StateDone)
	span.SetAttributes(
		attribute.Int("takeaways.count", takeaways.Count()),
		attribute.Bool("followup.composed", msg != nil),
	)
	r.logger.Info("session processed",
		"takeaways", takeaways.Count(),
		"follow_up", msg != nil,
	)
	return &Result{
		Summary:   s,
		Message:   msg,
		Takeaways: takeaways,
		States:    r.states,
	}
}

func (p *Pipeline) extract(ctx context.Context, text string) extractor.Takeaways {
	ctx, span := tracer.Start(ctx, "counsel.pipeline.extract")
	defer span.End()

	t := p.extractor.Extract(ctx, text)
	span.SetAttributes(
		attribute.Int("takeaways.count", t.Count()),
		attribute.Int("takeaways.empty_categories", len(t.Failed())),
	)
	return t
}

func (p *Pipeline) summarize(ctx context.Context, t session.Transcript, takeaways extractor.Takeaways) (*session.Summary, error) {
	ctx, span := tracer.Start(ctx, "counsel.pipeline.summarize")
	defer span.End()

	s, err := p.builder.Build(ctx, t, takeaways)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return s, nil
}

func (p *Pipeline) compose(ctx context.Context, s *session.Summary, email string) (*session.FollowUp, error) {
	ctx, span := tracer.Start(ctx, "counsel.pipeline.compose")
	defer span.End()

	msg, err := p.composer.Compose(ctx, s, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return msg, nil
}
