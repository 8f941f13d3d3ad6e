package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/counsel/internal/delivery"
	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/processor"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

const (
	serviceName    = "Counseling Session Agent API"
	serviceVersion = "1.0.0"
	maxBodyBytes   = 4 << 20
)

// Service is what the HTTP layer needs from the processor.
type Service interface {
	Process(ctx context.Context, req processor.Request) (*processor.Outcome, error)
	ExtractTakeaways(ctx context.Context, transcript string) extractor.Takeaways
	Send(ctx context.Context, msg *session.FollowUp) (delivery.Receipt, error)
}

type ReceiptLister interface {
	ListReceipts(ctx context.Context, sessionID string) ([]delivery.Receipt, error)
}

// Status describes the wired dependencies for /health.
type Status struct {
	Provider  string
	EmailMock bool
	// EventBus is nil when no event bus is configured.
	EventBus func() bool
	Database bool
}

type Server struct {
	router   *chi.Mux
	port     int
	svc      Service
	receipts ReceiptLister
	status   Status
	logger   *slog.Logger
	http     *http.Server
}

// NewServer builds the router. receipts may be nil when no delivery log
// is configured.
func NewServer(port int, svc Service, receipts ReceiptLister, status Status, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		svc:      svc,
		receipts: receipts,
		status:   status,
		logger:   logger.With("component", "api"),
	}

	router.Get("/", s.root)
	router.Get("/health", s.health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions/process", s.processSession)
		r.Post("/takeaways/extract", s.extractTakeaways)
		r.Post("/followups/send", s.sendFollowUp)
		r.Get("/sessions/{sessionID}/deliveries", s.listDeliveries)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": serviceName,
		"version": serviceVersion,
		"status":  "running",
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	email := "smtp"
	if s.status.EmailMock {
		email = "mock"
	}
	services := map[string]string{
		"generation": s.status.Provider,
		"email":      email,
		"event_bus":  "disabled",
		"database":   "disabled",
	}
	if s.status.EventBus != nil {
		services["event_bus"] = "disconnected"
		if s.status.EventBus() {
			services["event_bus"] = "connected"
		}
	}
	if s.status.Database {
		services["database"] = "enabled"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"services": services,
	})
}

type processResponse struct {
	Success           bool                `json:"success"`
	Message           string              `json:"message"`
	SessionSummary    *session.Summary    `json:"session_summary"`
	FollowUpEmail     *session.FollowUp   `json:"follow_up_email"`
	KeyTakeaways      extractor.Takeaways `json:"key_takeaways"`
	EmailSent         *delivery.Receipt   `json:"email_sent"`
	EmailTemplatePath *string             `json:"email_template_path"`
}

// processSession handles POST /api/v1/sessions/process
func (s *Server) processSession(w http.ResponseWriter, r *http.Request) {
	var req processor.Request
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.svc.Process(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	res := processResponse{
		Success:        true,
		Message:        "Session processed successfully",
		SessionSummary: out.Result.Summary,
		FollowUpEmail:  out.Result.Message,
		KeyTakeaways:   out.Result.Takeaways,
		EmailSent:      out.Receipt,
	}
	if out.TemplatePath != "" {
		res.EmailTemplatePath = &out.TemplatePath
	}
	writeJSON(w, http.StatusOK, res)
}

type extractRequest struct {
	Transcript string `json:"transcript"`
}

// extractTakeaways handles POST /api/v1/takeaways/extract
func (s *Server) extractTakeaways(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Transcript == "" {
		writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	takeaways := s.svc.ExtractTakeaways(r.Context(), req.Transcript)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"takeaways": takeaways,
	})
}

// sendFollowUp handles POST /api/v1/followups/send
func (s *Server) sendFollowUp(w http.ResponseWriter, r *http.Request) {
	var msg session.FollowUp
	if err := decode(w, r, &msg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := s.svc.Send(r.Context(), &msg)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      receipt.Success,
		"email_result": receipt,
	})
}

// listDeliveries handles GET /api/v1/sessions/{sessionID}/deliveries
func (s *Server) listDeliveries(w http.ResponseWriter, r *http.Request) {
	if s.receipts == nil {
		writeError(w, http.StatusNotFound, "delivery log not configured")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	receipts, err := s.receipts.ListReceipts(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("failed to list receipts", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}
	if receipts == nil {
		receipts = []delivery.Receipt{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"deliveries": receipts,
		"count":      len(receipts),
	})
}
