// Package chi provides the HTTP transport for the planning service.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Error codes returned in the JSON error body.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeEmbeddingProvider  = "embedding_provider_error"
	codeDeadlineExceeded   = "deadline_exceeded"
	codeInternalError      = "internal_error"
)

// PlanService runs the planning workflow for one request.
type PlanService interface {
	Plan(ctx context.Context, prefs domain.UserPreferences) (*domain.PlannerState, error)
}

// IndexStats reports per-source index sizes for the health endpoint.
type IndexStats interface {
	DocumentCounts() map[domain.Source]int
}

// Server holds the HTTP handlers.
type Server struct {
	planner PlanService
	stats   IndexStats
	logger  *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(planner PlanService, stats IndexStats, logger *zap.Logger) *Server {
	return &Server{planner: planner, stats: stats, logger: logger}
}

// Routes registers the API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/plan", s.CreatePlan)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
}

// planResponse is the terminal workflow state returned to the caller.
type planResponse struct {
	AggregatedContext string                    `json:"aggregated_context"`
	ParsedIntent      *domain.ParsedIntent      `json:"parsed_intent,omitempty"`
	Strategy          *domain.RetrievalStrategy `json:"retrieval_strategy,omitempty"`
	IterationCount    int                       `json:"iteration_count"`
	Errors            []string                  `json:"errors,omitempty"`
	Warnings          []string                  `json:"warnings,omitempty"`
}

// CreatePlan handles POST /v1/plan.
func (s *Server) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var prefs domain.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	state, err := s.planner.Plan(r.Context(), prefs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		AggregatedContext: state.AggregatedContext,
		ParsedIntent:      state.ParsedIntent,
		Strategy:          state.Strategy,
		IterationCount:    state.IterationCount,
		Errors:            state.Errors,
		Warnings:          state.Warnings,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	indexes := make(map[string]int)
	if s.stats != nil {
		for source, count := range s.stats.DocumentCounts() {
			indexes[string(source)] = count
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"indexes": indexes,
	})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))

	switch {
	case errors.Is(err, domain.ErrInvalidPreferences):
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	case errors.Is(err, domain.ErrEmbeddingProviderError):
		writeError(w, http.StatusBadGateway, codeEmbeddingProvider, domain.ErrEmbeddingProviderError.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, codeDeadlineExceeded, "planning request timed out")
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
