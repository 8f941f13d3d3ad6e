package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/counsel/internal/config"
	"github.com/MikeSquared-Agency/counsel/internal/delivery"
	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/followup"
	"github.com/MikeSquared-Agency/counsel/internal/generation"
	"github.com/MikeSquared-Agency/counsel/internal/pipeline"
	"github.com/MikeSquared-Agency/counsel/internal/processor"
	"github.com/MikeSquared-Agency/counsel/internal/prompts"
	"github.com/MikeSquared-Agency/counsel/internal/slack"
	"github.com/MikeSquared-Agency/counsel/internal/store"
	"github.com/MikeSquared-Agency/counsel/internal/summary"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "counsel",
		Short:         "Counsel - turns counseling session transcripts into summaries and follow-up emails",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(extractCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the components every subcommand shares.
type app struct {
	cfg       config.Config
	llm       generation.Client
	extractor *extractor.Extractor
	pipeline  *pipeline.Pipeline
	store     store.Store
	delivery  *delivery.Service
	slack     *slack.Poster
}

func setup(ctx context.Context) (*app, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg := config.Load()
	if err := setupLogging(cfg.LogLevel); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	llm, err := generation.New(ctx, generation.Settings{
		Provider: cfg.LLMProvider,
		APIKey:   cfg.ProviderAPIKey(),
		Model:    cfg.ProviderModel(),
		Timeout:  cfg.GenerationTimeout,
	}, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("generation client: %w", err)
	}
	slog.Info("generation client ready", "provider", cfg.LLMProvider, "model", cfg.ProviderModel())

	tmpl, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		llm.Close()
		return nil, err
	}

	a := &app{cfg: cfg, llm: llm}
	a.extractor = extractor.New(llm, tmpl, slog.Default())
	a.pipeline = pipeline.New(
		a.extractor,
		summary.New(llm, tmpl, slog.Default()),
		followup.New(llm, tmpl, slog.Default()),
		slog.Default(),
	)

	// Delivery log (optional)
	if cfg.DatabaseURL != "" {
		st, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			llm.Close()
			return nil, err
		}
		a.store = st
		slog.Info("delivery log ready")
	}

	a.delivery = delivery.New(delivery.SMTPConfig{
		Host:     cfg.SMTPServer,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		StartTLS: cfg.SMTPStartTLS,
	}, a.recorder(), slog.Default())

	// Slack digests (optional)
	if cfg.SlackConfigured() {
		a.slack = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, slog.Default())
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	}

	return a, nil
}

// recorder returns the store as a delivery.Recorder, or nil without one.
func (a *app) recorder() delivery.Recorder {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *app) processor(pub processor.Publisher) *processor.Processor {
	p := processor.New(a.pipeline, a.extractor, a.delivery, pub, a.cfg.EmailTemplateDir, slog.Default())
	if a.slack != nil {
		p.WithNotifier(a.slack)
	}
	return p
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close delivery log", "error", err)
		}
	}
	if err := a.llm.Close(); err != nil {
		slog.Warn("failed to close generation client", "error", err)
	}
}

func setupLogging(level string) error {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return err
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:       lvl,
		ReplaceAttr: config.ReplaceLogLevelNames,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

// readInput reads the named file, or stdin when name is "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
