package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/counsel/internal/api"
	"github.com/MikeSquared-Agency/counsel/internal/hermes"
	"github.com/MikeSquared-Agency/counsel/internal/processor"
)

func serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when NATS_URL is set, the transcript subscriber",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides COUNSEL_PORT)")
	return cmd
}

func runServe(parent context.Context, port int) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if port == 0 {
		port = a.cfg.Port
	}

	slog.Info("counsel starting", "port", port, "version", Version)

	// NATS/Hermes (optional)
	var pub processor.Publisher
	var hermesClient *hermes.Client
	if a.cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, a.cfg.NatsURL, a.cfg.NatsToken, slog.Default())
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer hermesClient.Close()
		pub = hermesClient
		slog.Info("NATS connected", "url", a.cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, running without event bus")
	}

	proc := a.processor(pub)

	if hermesClient != nil {
		if err := hermesClient.QueueSubscribe(hermes.SubjectTranscriptSubmitted, hermes.QueueProcessors, proc.HandleTranscriptSubmitted); err != nil {
			return fmt.Errorf("subscribe to transcript events: %w", err)
		}
	}

	status := api.Status{
		Provider:  a.cfg.LLMProvider,
		EmailMock: a.delivery.Mock(),
		Database:  a.store != nil,
	}
	if hermesClient != nil {
		status.EventBus = hermesClient.Connected
	}

	var receipts api.ReceiptLister
	if a.store != nil {
		receipts = a.store
	}
	srv := api.NewServer(port, proc, receipts, status, slog.Default())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	slog.Info("counsel ready", "port", port)

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown error", "error", err)
	}
	slog.Info("counsel stopped")
	return nil
}
