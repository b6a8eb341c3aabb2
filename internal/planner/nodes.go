package planner

import (
	"context"
	"fmt"

	"github.com/atlas-cloud/tripdex/internal/domain"
	"github.com/atlas-cloud/tripdex/internal/graph"
	"github.com/atlas-cloud/tripdex/internal/metrics"
	"github.com/atlas-cloud/tripdex/internal/retriever"
)

// Workflow node names.
const (
	nodeAnalyzeIntent = "analyze_intent"
	nodeAggregate     = "aggregate_context"
	nodeGenerate      = "generate"
)

func retrievalNodeName(source domain.Source) string {
	return "retrieve_" + string(source)
}

// analyzeIntent is a pure function of the immutable preferences. It owns
// ParsedIntent and Strategy and writes nothing else.
func (p *Planner) analyzeIntent(_ context.Context, s *domain.PlannerState) error {
	prefs := s.Preferences

	s.ParsedIntent = &domain.ParsedIntent{
		Destinations: prefs.Destinations,
		DurationDays: prefs.DurationDays(),
		Budget:       prefs.Budget,
		DietaryNeeds: prefs.DietaryRestrictions,
		Interests:    prefs.Interests,
		Avoid:        prefs.Avoid,
		Pace:         prefs.Pace,
		Walkable:     prefs.WalkingPreference,
		GroupType:    prefs.GroupType,
	}

	s.Strategy = &domain.RetrievalStrategy{
		Sources:  domain.Sources(),
		Filters:  buildFilters(prefs),
		Priority: buildPriority(prefs),
	}

	return nil
}

// buildFilters derives the per-source filter records from the preferences.
func buildFilters(prefs domain.UserPreferences) map[domain.Source]domain.SourceFilter {
	attractions := domain.AttractionFilter{
		RequiredTags: prefs.Interests,
		ExcludedTags: prefs.Avoid,
	}
	switch prefs.Budget {
	case domain.BudgetLow:
		maxPrice := 10.0
		attractions.MaxPrice = &maxPrice
	case domain.BudgetModerate:
		maxPrice := 25.0
		attractions.MaxPrice = &maxPrice
	}

	duration := prefs.DurationDays()

	return map[domain.Source]domain.SourceFilter{
		domain.SourceAttractions: attractions,
		domain.SourceFood: domain.FoodFilter{
			DietaryRestrictions: prefs.DietaryRestrictions,
			Budget:              prefs.Budget,
		},
		domain.SourceTips: domain.TipsFilter{},
		domain.SourceItineraries: domain.ItineraryFilter{
			DurationDays: &duration,
		},
	}
}

// buildPriority derives the advisory concern ordering.
func buildPriority(prefs domain.UserPreferences) []string {
	var priorities []string
	if prefs.Budget == domain.BudgetLow {
		priorities = append(priorities, "cost")
	}
	if prefs.WalkingPreference {
		priorities = append(priorities, "proximity")
	}
	if prefs.HasInterest("food") {
		priorities = append(priorities, "culinary")
	}
	return priorities
}

// retrievalNode returns the node function for one knowledge source. The node
// reads the strategy and preferences, and writes exactly its source's context
// field; touching any other node's output would break the fan-out merge.
func (p *Planner) retrievalNode(source domain.Source) graph.NodeFunc[domain.PlannerState] {
	return func(ctx context.Context, s *domain.PlannerState) error {
		if s.Strategy == nil {
			return domain.ErrMissingStrategy
		}

		query := retriever.BuildQuery(source, s.Preferences)
		docs, err := p.dispatcher.Dispatch(ctx, source, query, p.k, s.Strategy.FilterFor(source))
		if err != nil {
			return fmt.Errorf("retrieve %s: %w", source, err)
		}

		s.SetContextFor(source, docs)
		return nil
	}
}

// aggregateContext joins the four retrieval outputs into one text block.
// Absent categories are treated as empty, never as errors.
func (p *Planner) aggregateContext(_ context.Context, s *domain.PlannerState) error {
	s.AggregatedContext = BuildContext(
		s.AttractionsContext, s.FoodContext, s.TipsContext, s.ItineraryContext, s.Preferences,
	)
	return nil
}

// generate wraps the pluggable generation stage. It counts the cycle and
// clears the replanning flag before delegating, so each further cycle must be
// an explicit request by the generator; termination never depends on the
// generator behaving.
func (p *Planner) generate(ctx context.Context, s *domain.PlannerState) error {
	s.IterationCount++
	s.NeedsReplanning = false
	metrics.PlanReplansTotal.Inc()

	if p.generator == nil {
		return nil
	}
	return p.generator.Generate(ctx, s)
}

// afterAggregate decides whether to loop back into generation. The iteration
// cap is the hard ceiling guaranteeing termination.
func (p *Planner) afterAggregate(s *domain.PlannerState) string {
	if s.NeedsReplanning && s.IterationCount < p.maxReplans {
		return nodeGenerate
	}
	return graph.End
}
