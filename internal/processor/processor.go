package processor

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/counsel/internal/delivery"
	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/hermes"
	"github.com/MikeSquared-Agency/counsel/internal/pipeline"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

// Runner runs one transcript through the pipeline.
type Runner interface {
	Process(ctx context.Context, t session.Transcript) *pipeline.Result
}

type Deliverer interface {
	Deliver(ctx context.Context, msg *session.FollowUp) delivery.Receipt
}

// Publisher emits events. *hermes.Client satisfies it.
type Publisher interface {
	Publish(subject string, data any) error
}

// Notifier tells counselors about processed sessions. *slack.Poster
// satisfies it.
type Notifier interface {
	PostSessionDigest(ctx context.Context, s *session.Summary, takeaways extractor.Takeaways, emailSent bool) (string, error)
}

// Request is a transcript plus what to do with the resulting follow-up.
type Request struct {
	Transcript session.Transcript `json:"transcript"`
	// SendEmail defaults to true when omitted.
	SendEmail         *bool `json:"send_email,omitempty"`
	SaveEmailTemplate bool  `json:"save_email_template"`
}

func (r Request) shouldSend() bool {
	return r.SendEmail == nil || *r.SendEmail
}

// Outcome is a successful run plus what happened to its follow-up.
type Outcome struct {
	Result       *pipeline.Result
	Receipt      *delivery.Receipt
	TemplatePath string
}

// EmailSent reports whether the follow-up was delivered (or mock-delivered).
func (o *Outcome) EmailSent() bool {
	return o.Receipt != nil && o.Receipt.Success
}

// Processor sits between the transports (HTTP, NATS, CLI) and the
// pipeline: it runs requests, delivers follow-ups, and emits events.
type Processor struct {
	pipeline    Runner
	extractor   pipeline.TakeawayExtractor
	delivery    Deliverer
	hermes      Publisher
	notifier    Notifier
	templateDir string
	logger      *slog.Logger
	timeout     time.Duration
}

// New returns a Processor. pub may be nil when no event bus is configured.
func New(pl Runner, ext pipeline.TakeawayExtractor, d Deliverer, pub Publisher, templateDir string, logger *slog.Logger) *Processor {
	return &Processor{
		pipeline:    pl,
		extractor:   ext,
		delivery:    d,
		hermes:      pub,
		templateDir: templateDir,
		logger:      logger.With("component", "processor"),
		timeout:     5 * time.Minute,
	}
}

// WithNotifier enables session digests.
func (p *Processor) WithNotifier(n Notifier) *Processor {
	p.notifier = n
	return p
}

// Process runs the pipeline for req. When the run fails the returned
// error is the *pipeline.Failure and the Outcome is nil.
func (p *Processor) Process(ctx context.Context, req Request) (*Outcome, error) {
	sessionID := req.Transcript.SessionID
	p.logger.Info("processing session", "session_id", sessionID, "send_email", req.shouldSend())

	res := p.pipeline.Process(ctx, req.Transcript)
	if !res.OK() {
		p.publish(hermes.SubjectSessionFailed, hermes.SessionFailed{
			SessionID: sessionID,
			Stage:     res.Failure.Stage.String(),
			Reason:    res.Failure.Reason,
			FailedAt:  time.Now().UTC(),
		})
		return nil, res.Failure
	}

	out := &Outcome{Result: res}

	if res.Message != nil && req.shouldSend() {
		r := p.deliver(ctx, res.Message)
		out.Receipt = &r
	}

	if res.Message != nil && req.SaveEmailTemplate {
		path, err := delivery.SaveTemplate(p.templateDir, res.Message)
		if err != nil {
			p.logger.Error("failed to save email template", "session_id", sessionID, "error", err)
		} else {
			p.logger.Info("email template saved", "session_id", sessionID, "path", path)
			out.TemplatePath = path
		}
	}

	p.publish(hermes.SubjectSessionProcessed, hermes.SessionProcessed{
		SessionID:       sessionID,
		StudentName:     res.Summary.StudentName,
		Takeaways:       res.Takeaways.Count(),
		EmptyCategories: categoryKeys(res.Takeaways.Failed()),
		FollowUp:        res.Message != nil,
		ProcessedAt:     time.Now().UTC(),
	})
	p.notify(ctx, out)
	return out, nil
}

// ExtractTakeaways runs only the extraction stage.
func (p *Processor) ExtractTakeaways(ctx context.Context, transcript string) extractor.Takeaways {
	return p.extractor.Extract(ctx, transcript)
}

// Send delivers an already composed follow-up. The error is non-nil only
// when msg cannot be delivered at all; transport failures are reported
// in the receipt.
func (p *Processor) Send(ctx context.Context, msg *session.FollowUp) (delivery.Receipt, error) {
	if err := delivery.Validate(msg); err != nil {
		return delivery.Receipt{}, err
	}
	return p.deliver(ctx, msg), nil
}

func (p *Processor) deliver(ctx context.Context, msg *session.FollowUp) delivery.Receipt {
	r := p.delivery.Deliver(ctx, msg)
	p.publish(hermes.SubjectFollowUpDelivered, hermes.FollowUpDelivered{
		SessionID: r.SessionID,
		EmailID:   r.ID,
		To:        r.To,
		Success:   r.Success,
		Mock:      r.Mock,
		Error:     r.Error,
		SentAt:    r.SentAt,
	})
	return r
}

// HandleTranscriptSubmitted is the NATS handler for counsel.transcript.submitted.
func (p *Processor) HandleTranscriptSubmitted(subject string, data []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		p.logger.Error("failed to parse transcript event", "subject", subject, "error", err)
		return
	}

	out, err := p.Process(ctx, req)
	if err != nil {
		p.logger.Error("transcript processing failed", "session_id", req.Transcript.SessionID, "error", err)
		return
	}
	p.logger.Info("transcript processed",
		"session_id", req.Transcript.SessionID,
		"email_sent", out.EmailSent(),
	)
}

func (p *Processor) notify(ctx context.Context, out *Outcome) {
	if p.notifier == nil {
		return
	}
	res := out.Result
	if _, err := p.notifier.PostSessionDigest(ctx, res.Summary, res.Takeaways, out.EmailSent()); err != nil {
		p.logger.Warn("failed to post session digest", "session_id", res.Summary.SessionID, "error", err)
	}
}

func (p *Processor) publish(subject string, data any) {
	if p.hermes == nil {
		return
	}
	if err := p.hermes.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func categoryKeys(cs []session.Category) []string {
	if len(cs) == 0 {
		return nil
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Key()
	}
	return out
}
