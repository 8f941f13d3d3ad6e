// Package delivery sends composed follow-up messages over SMTP, or records
// a mock receipt when no SMTP credentials are configured.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/counsel/internal/session"
)

const (
	idPrefix     = "email_"
	mockIDPrefix = "mock_email_"
	previewRunes = 200
)

// Receipt records one delivery attempt.
type Receipt struct {
	ID        string    `json:"email_id"`
	SessionID string    `json:"session_id"`
	To        string    `json:"to_email"`
	Subject   string    `json:"subject"`
	Success   bool      `json:"success"`
	Mock      bool      `json:"mock"`
	Error     string    `json:"error,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// Recorder persists receipts. Optional.
type Recorder interface {
	RecordReceipt(ctx context.Context, r Receipt) error
}

type Service struct {
	smtp     SMTPConfig
	send     sendFunc
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// New returns a Service. recorder may be nil.
func New(cfg SMTPConfig, recorder Recorder, logger *slog.Logger) *Service {
	logger = logger.With("component", "delivery")
	if !cfg.Configured() {
		logger.Warn("SMTP credentials not configured, email delivery will be mocked")
	}
	return &Service{
		smtp:     cfg,
		send:     sendMail,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Mock reports whether deliveries are simulated.
func (s *Service) Mock() bool { return !s.smtp.Configured() }

// Deliver attempts to send msg and always returns a receipt; failures are
// reported through Success and Error.
func (s *Service) Deliver(ctx context.Context, msg *session.FollowUp) Receipt {
	r := Receipt{
		SessionID: msg.SessionSummary.SessionID,
		To:        msg.ToEmail,
		Subject:   msg.Subject,
		Mock:      s.Mock(),
	}

	var err error
	if r.Mock {
		r.ID = mockIDPrefix + uuid.NewString()
		s.logger.Info("mock email sent",
			"to", msg.ToEmail,
			"subject", msg.Subject,
			"body_preview", preview(msg.Body),
		)
	} else {
		r.ID = idPrefix + uuid.NewString()
		err = s.deliverSMTP(ctx, msg)
	}

	r.SentAt = s.now().UTC()
	if err != nil {
		r.ID = ""
		r.Error = err.Error()
		s.logger.Error("email delivery failed", "to", msg.ToEmail, "error", err)
	} else {
		r.Success = true
		if !r.Mock {
			s.logger.Info("email sent", "to", msg.ToEmail, "id", r.ID)
		}
	}

	if s.recorder != nil {
		if recErr := s.recorder.RecordReceipt(ctx, r); recErr != nil {
			s.logger.Error("failed to record delivery receipt", "session_id", r.SessionID, "error", recErr)
		}
	}
	return r
}

func (s *Service) deliverSMTP(ctx context.Context, msg *session.FollowUp) error {
	to, err := mail.ParseAddress(msg.ToEmail)
	if err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.ToEmail, err)
	}
	from, err := mail.ParseAddress(s.smtp.sender())
	if err != nil {
		return fmt.Errorf("invalid sender %q: %w", s.smtp.sender(), err)
	}

	raw, err := compose(message{
		From:    from.String(),
		To:      to.String(),
		Subject: msg.Subject,
		Body:    msg.Body,
		Date:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	if err := s.send(ctx, s.smtp, from.Address, to.Address, raw); err != nil {
		return fmt.Errorf("send via %s: %w", s.smtp.Host, err)
	}
	return nil
}

var errNoRecipient = errors.New("follow-up has no recipient")

// Validate rejects messages that cannot be delivered at all.
func Validate(msg *session.FollowUp) error {
	if msg == nil || strings.TrimSpace(msg.ToEmail) == "" {
		return errNoRecipient
	}
	if _, err := mail.ParseAddress(msg.ToEmail); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", msg.ToEmail, err)
	}
	return nil
}

func preview(body string) string {
	if utf8.RuneCountInString(body) <= previewRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewRunes]) + "..."
}
