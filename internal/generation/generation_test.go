package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/MikeSquared-Agency/counsel/internal/generation/generationtest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestGuard_PassesThrough(t *testing.T) {
	stub := generationtest.Fixed("generated text")
	g := Guard(stub, "test", time.Second, discardLogger())

	out, err := g.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "generated text" {
		t.Errorf("expected generated text, got %q", out)
	}
	if stub.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", stub.Calls())
	}
}

func TestGuard_WrapsProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")
	g := Guard(generationtest.Failing(cause), "test", 0, discardLogger())

	_, err := g.Generate(context.Background(), "prompt")

	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if genErr.Provider != "test" {
		t.Errorf("expected provider test, got %q", genErr.Provider)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected error to wrap cause, got %v", err)
	}
}

func TestGuard_BlankOutputIsError(t *testing.T) {
	g := Guard(generationtest.Fixed("  \n\t"), "test", 0, discardLogger())

	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
}

func TestGuard_Timeout(t *testing.T) {
	g := Guard(blockingGenerator{}, "test", 20*time.Millisecond, discardLogger())

	start := time.Now()
	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Errorf("timeout not enforced, took %v", time.Since(start))
	}
}

func TestGuard_DoesNotDoubleWrap(t *testing.T) {
	inner := Guard(generationtest.Failing(errors.New("down")), "inner", 0, discardLogger())
	outer := Guard(inner, "outer", 0, discardLogger())

	_, err := outer.Generate(context.Background(), "prompt")

	var genErr *Error
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if genErr.Provider != "inner" {
		t.Errorf("expected inner provider to be preserved, got %q", genErr.Provider)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Settings{Provider: "llama"}, discardLogger())
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNew_Anthropic(t *testing.T) {
	c, err := New(context.Background(), Settings{Provider: "Anthropic", APIKey: "k", Model: "m"}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("unexpected close error: %v", err)
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Career Goals\n"), genai.Text("- Ship it")}},
		}},
	}

	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Career Goals\n- Ship it" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestResponseText_NoCandidates(t *testing.T) {
	if _, err := responseText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("expected error for empty response")
	}
	if _, err := responseText(nil); err == nil {
		t.Fatal("expected error for nil response")
	}
	if _, err := responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}); err == nil {
		t.Fatal("expected error for candidate without content")
	}
}
