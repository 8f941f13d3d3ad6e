// Package generation wraps the text-generation providers the pipeline
// calls out to. Every provider is reduced to a single prompt-in, text-out
// Generator; Guard adds the timeout, tracing, and error typing the
// pipeline relies on.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LevelTrace is below Debug, used for full prompt/response logging.
const LevelTrace = slog.Level(-8)

const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

var tracer = otel.Tracer("github.com/MikeSquared-Agency/counsel/internal/generation")

// Generator turns a prompt into free-form text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client is a Generator holding provider resources that must be released.
type Client interface {
	Generator
	io.Closer
}

// ErrEmptyOutput is returned when a provider answers with blank text.
var ErrEmptyOutput = errors.New("empty generation output")

// Error is returned by guarded generators when the provider call failed,
// timed out, or produced unusable output.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation via %s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Settings selects and configures a provider backend.
type Settings struct {
	Provider string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// New builds the configured provider backend and guards it.
func New(ctx context.Context, s Settings, logger *slog.Logger) (Client, error) {
	var backend Client
	switch strings.ToLower(s.Provider) {
	case ProviderGemini, "":
		g, err := NewGemini(ctx, s.APIKey, s.Model)
		if err != nil {
			return nil, err
		}
		backend = g
	case ProviderAnthropic:
		backend = NewAnthropic(s.APIKey, s.Model)
	case ProviderOpenAI:
		backend = NewOpenAI(s.APIKey, s.Model)
	default:
		return nil, fmt.Errorf("unknown generation provider %q", s.Provider)
	}

	provider := strings.ToLower(s.Provider)
	if provider == "" {
		provider = ProviderGemini
	}
	return &managed{
		Generator: Guard(backend, provider, s.Timeout, logger),
		closer:    backend,
	}, nil
}

type managed struct {
	Generator
	closer io.Closer
}

func (m *managed) Close() error { return m.closer.Close() }

// Guard wraps next so that each call runs under its own timeout (when
// timeout > 0), is traced, and fails with *Error on provider errors or
// blank output.
func Guard(next Generator, provider string, timeout time.Duration, logger *slog.Logger) Generator {
	return &guarded{
		next:     next,
		provider: provider,
		timeout:  timeout,
		logger:   logger.With("component", "generation", "provider", provider),
	}
}

type guarded struct {
	next     Generator
	provider string
	timeout  time.Duration
	logger   *slog.Logger
}

func (g *guarded) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "counsel.generation.generate",
		trace.WithAttributes(
			attribute.String("llm.provider", g.provider),
			attribute.Int("prompt.chars", len(prompt)),
		))
	defer span.End()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	g.logger.Log(ctx, LevelTrace, "generation request", "prompt", prompt)

	start := time.Now()
	out, err := g.next.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyOutput
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("generation failed", "error", err, "elapsed", time.Since(start))

		var genErr *Error
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &Error{Provider: g.provider, Err: err}
	}

	span.SetAttributes(attribute.Int("response.chars", len(out)))
	g.logger.Log(ctx, LevelTrace, "generation response", "response", out)
	g.logger.Debug("generation complete", "elapsed", time.Since(start), "response_len", len(out))
	return out, nil
}
