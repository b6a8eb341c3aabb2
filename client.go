// Package tripdex provides an embedded client for the travel-planning
// retrieval engine: per-category vector indexes, preference-driven filtering,
// and the fan-out planning workflow, wired in-process without the HTTP layer.
package tripdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atlas-cloud/tripdex/internal/domain"
	"github.com/atlas-cloud/tripdex/internal/planner"
	"github.com/atlas-cloud/tripdex/internal/retriever"
)

// Embedder turns text into fixed-length vectors. Implementations must return
// vectors whose length equals the client's configured dimensions.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
	EmbedBatch(ctx context.Context, texts []string) ([]EmbeddingResult, error)
}

// EmbeddingResult is one embedding plus the provider's token usage.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// PlanRequest describes one planning run.
type PlanRequest struct {
	Destinations        []string
	StartDate           time.Time
	EndDate             time.Time
	Budget              string // "budget", "moderate", "luxury"
	DietaryRestrictions []string
	Interests           []string
	Avoid               []string
	Pace                string
	WalkingPreference   bool
	GroupType           string
}

// PlanResult is the outcome of a planning run.
type PlanResult struct {
	// Context is the aggregated text block assembled from the retrieved
	// knowledge, ready to hand to a generation stage.
	Context string
	// Warnings lists degraded categories (cold-start or unloadable indexes).
	Warnings []string
	// Errors lists per-category retrieval failures; the run still completed
	// with partial results.
	Errors []string
	// Iterations counts replanning cycles executed.
	Iterations int
}

// Client is the tripdex SDK entry point.
type Client struct {
	coord   *retriever.Coordinator
	planner *planner.Planner
}

// New creates a Client, loading any persisted indexes from the store root.
// An embedder is required (use WithEmbedder).
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o(cfg)
	}

	if cfg.embedder == nil {
		return nil, errors.New("tripdex: embedder required (use WithEmbedder)")
	}

	coord, err := retriever.NewCoordinator(
		cfg.dimensions, &embedderAdapter{inner: cfg.embedder}, cfg.storeRoot, cfg.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("tripdex: create coordinator: %w", err)
	}

	warnings := coord.LoadAll()

	p, err := planner.New(coord, cfg.logger)
	if err != nil {
		return nil, fmt.Errorf("tripdex: create planner: %w", err)
	}
	p.WithRetrievalLimit(cfg.retrievalLimit).
		WithMaxReplans(cfg.maxReplans).
		WithRequestTimeout(cfg.timeout).
		WithStartupWarnings(warnings)

	return &Client{coord: coord, planner: p}, nil
}

// Plan runs the planning workflow.
func (c *Client) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	prefs := preferencesFromRequest(req)

	state, err := c.planner.Plan(ctx, prefs)
	if err != nil {
		return nil, fmt.Errorf("tripdex: plan: %w", err)
	}

	return &PlanResult{
		Context:    state.AggregatedContext,
		Warnings:   state.Warnings,
		Errors:     state.Errors,
		Iterations: state.IterationCount,
	}, nil
}

// IndexCounts reports the number of indexed documents per knowledge category.
func (c *Client) IndexCounts() map[string]int {
	counts := make(map[string]int)
	for source, n := range c.coord.DocumentCounts() {
		counts[string(source)] = n
	}
	return counts
}

func preferencesFromRequest(req PlanRequest) domain.UserPreferences {
	dietary := make([]domain.DietaryRestriction, len(req.DietaryRestrictions))
	for i, d := range req.DietaryRestrictions {
		dietary[i] = domain.DietaryRestriction(d)
	}
	return domain.UserPreferences{
		Destinations:        req.Destinations,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Budget:              domain.BudgetLevel(req.Budget),
		DietaryRestrictions: dietary,
		Interests:           req.Interests,
		Avoid:               req.Avoid,
		Pace:                domain.Pace(req.Pace),
		WalkingPreference:   req.WalkingPreference,
		GroupType:           req.GroupType,
	}
}

// embedderAdapter wraps the public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	rs, err := a.inner.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	out := make([]domain.EmbeddingResult, len(rs))
	for i, r := range rs {
		out[i] = domain.EmbeddingResult{
			Embedding:    r.Embedding,
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}
	}
	return out, nil
}
