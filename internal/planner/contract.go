package planner

import (
	"context"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Dispatcher routes a retrieval to the retriever serving the given source.
type Dispatcher interface {
	Dispatch(ctx context.Context, source domain.Source, query string, k int, filter domain.SourceFilter) ([]domain.Document, error)
}

// Generator is the pluggable itinerary generation/validation stage. It runs
// after aggregation when replanning was requested, and may request another
// cycle by setting NeedsReplanning on the state; the planner caps the number
// of cycles regardless of what the generator asks for.
type Generator interface {
	Generate(ctx context.Context, state *domain.PlannerState) error
}
