package chi

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spendcap/internal/domain"
	domhold "github.com/kailas-cloud/spendcap/internal/domain/hold"
	domusage "github.com/kailas-cloud/spendcap/internal/domain/usage"
	"github.com/kailas-cloud/spendcap/internal/logger"
	"github.com/kailas-cloud/spendcap/internal/metrics"
	healthuc "github.com/kailas-cloud/spendcap/internal/usecase/health"
	holduc "github.com/kailas-cloud/spendcap/internal/usecase/hold"
	policyuc "github.com/kailas-cloud/spendcap/internal/usecase/policy"
	usageuc "github.com/kailas-cloud/spendcap/internal/usecase/usage"
)

// maxTimeoutMs is the largest timeout_ms that converts to a time.Duration without overflow.
const maxTimeoutMs = math.MaxInt64 / int64(time.Millisecond)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the hold engine over HTTP.
type Server struct {
	holds          *holduc.Service
	policy         *policyuc.Service
	usage          *usageuc.Service
	health         *healthuc.Service
	defaultTimeout time.Duration
	now            func() time.Time
	logger         *zap.Logger
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. defaultTimeout applies when a hold request omits timeout_ms.
func NewServer(
	holds *holduc.Service,
	policy *policyuc.Service,
	usage *usageuc.Service,
	health *healthuc.Service,
	defaultTimeout time.Duration,
	logger *zap.Logger,
) *Server {
	s := &Server{
		holds:          holds,
		policy:         policy,
		usage:          usage,
		health:         health,
		defaultTimeout: defaultTimeout,
		now:            time.Now,
		logger:         logger,
	}
	s.errorHandlers = []errorHandler{
		insufficientBudgetHandler,
		sentinelHandler(domain.ErrConnectionNotFound, http.StatusNotFound, CodeConnectionNotFound),
		sentinelHandler(domain.ErrHoldNotFound, http.StatusNotFound, CodeHoldNotFound),
		sentinelHandler(domain.ErrUnlimitedConnection, http.StatusConflict, CodeUnlimitedConnection),
		sentinelHandler(domain.ErrInvalidAmount, http.StatusBadRequest, CodeInvalidAmount),
		sentinelHandler(domain.ErrContractViolation, http.StatusBadRequest, CodeBadRequest),
	}
	return s
}

// WithClock sets the time source for manual sweeps.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/connections/{connectionID}", func(r chi.Router) {
		r.Post("/holds", s.PlaceHold)
		r.Get("/budget", s.GetBudget)
	})
	r.Route("/holds/{holdID}", func(r chi.Router) {
		r.Get("/", s.GetHold)
		r.Post("/processing", s.MarkProcessing)
		r.Post("/commit", s.CommitHold)
		r.Post("/release", s.ReleaseHold)
	})
	r.Post("/admin/holds/expire", s.ExpireHolds)
	return r
}

// PlaceHold handles POST /connections/{connectionID}/holds.
func (s *Server) PlaceHold(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "connectionID")

	var req PlaceHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.AmountSats == 0 || req.AmountSats > math.MaxInt64 {
		writeError(w, http.StatusBadRequest, CodeInvalidAmount, "amount_sats must be positive and fit int64")
		return
	}
	if strings.TrimSpace(req.RequestID) == "" {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "request_id is required")
		return
	}
	if req.TimeoutMs < 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "timeout_ms must not be negative")
		return
	}
	if req.TimeoutMs > maxTimeoutMs {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "timeout_ms out of range")
		return
	}
	timeout := s.defaultTimeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	// Unlimited connections never reach the engine.
	limited, err := s.policy.HasLimit(r.Context(), connectionID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !limited {
		writeError(w, http.StatusConflict, CodeUnlimitedConnection, "connection has no daily budget")
		return
	}

	placed, err := s.holds.PlaceHold(r.Context(), connectionID, req.AmountSats, req.RequestID, timeout)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/holds/"+placed.HoldID)
	writeJSON(w, http.StatusCreated, PlaceHoldResponse{
		HoldID:              placed.HoldID,
		AmountSats:          placed.AmountSats,
		RemainingBudgetSats: placed.RemainingBudget,
		BudgetDate:          placed.BudgetDate,
		ExpiresAt:           placed.ExpiresAt,
	})
}

// GetBudget handles GET /connections/{connectionID}/budget.
func (s *Server) GetBudget(w http.ResponseWriter, r *http.Request) {
	report, err := s.usage.GetReport(r.Context(), chi.URLParam(r, "connectionID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgetToResponse(&report))
}

// GetHold handles GET /holds/{holdID}.
func (s *Server) GetHold(w http.ResponseWriter, r *http.Request) {
	h, err := s.holds.Get(r.Context(), chi.URLParam(r, "holdID"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, holdToResponse(&h))
}

// MarkProcessing handles POST /holds/{holdID}/processing.
func (s *Server) MarkProcessing(w http.ResponseWriter, r *http.Request) {
	if err := s.holds.MarkProcessing(r.Context(), chi.URLParam(r, "holdID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CommitHold handles POST /holds/{holdID}/commit. The body is optional.
func (s *Server) CommitHold(w http.ResponseWriter, r *http.Request) {
	var req CommitHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.ActualAmountSats != nil && *req.ActualAmountSats > math.MaxInt64 {
		writeError(w, http.StatusBadRequest, CodeInvalidAmount, "actual_amount_sats must fit int64")
		return
	}
	if err := s.holds.CommitHold(r.Context(), chi.URLParam(r, "holdID"), req.ActualAmountSats); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReleaseHold handles POST /holds/{holdID}/release.
func (s *Server) ReleaseHold(w http.ResponseWriter, r *http.Request) {
	if err := s.holds.ReleaseHold(r.Context(), chi.URLParam(r, "holdID")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExpireHolds handles POST /admin/holds/expire.
func (s *Server) ExpireHolds(w http.ResponseWriter, r *http.Request) {
	n, err := s.holds.ExpireStaleHolds(r.Context(), s.now())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ExpireHoldsResponse{Expired: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInsufficientBudget,
		domain.ErrConnectionNotFound,
		domain.ErrHoldNotFound,
		domain.ErrUnlimitedConnection,
		domain.ErrInvalidAmount,
		domain.ErrContractViolation,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// insufficientBudgetHandler answers 402 with the requested and available amounts.
func insufficientBudgetHandler(w http.ResponseWriter, err error, msg string) bool {
	var ibe *domain.InsufficientBudgetError
	if !errors.As(err, &ibe) {
		return false
	}
	writeJSON(w, http.StatusPaymentRequired, InsufficientBudgetResponse{
		Code:          CodeInsufficientBudget,
		Message:       msg,
		RequestedSats: ibe.Requested,
		AvailableSats: ibe.Available,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Debug("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

func holdToResponse(h *domhold.Hold) HoldResponse {
	return HoldResponse{
		ID:           h.ID(),
		ConnectionID: h.ConnectionID(),
		RequestID:    h.RequestID(),
		AmountSats:   h.AmountSats(),
		Status:       string(h.Status()),
		BudgetDate:   h.BudgetDate(),
		CreatedAt:    h.CreatedAt(),
		ExpiresAt:    h.ExpiresAt(),
		UpdatedAt:    h.UpdatedAt(),
	}
}

func budgetToResponse(r *domusage.Report) BudgetResponse {
	resp := BudgetResponse{
		ConnectionID:  r.ConnectionID(),
		Limited:       r.Limited(),
		ConfirmedSats: r.ConfirmedSats(),
		PendingSats:   r.PendingSats(),
		Exhausted:     r.IsExhausted(),
		BudgetDate:    r.BudgetDate(),
		ResetsAt:      r.ResetsAt(),
	}
	if r.Limited() {
		limit, available := r.LimitSats(), r.AvailableSats()
		resp.LimitSats = &limit
		resp.AvailableSats = &available
	}
	return resp
}
