// Package planner wires the intent-analysis, retrieval, and aggregation
// nodes into the planning workflow and runs it per request.
package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/domain"
	"github.com/atlas-cloud/tripdex/internal/graph"
	"github.com/atlas-cloud/tripdex/internal/metrics"
)

// DefaultMaxReplans is the hard ceiling on replanning cycles.
const DefaultMaxReplans = 3

// Planner runs the planning workflow: analyze_intent fans out to the four
// retrieval nodes, which join at aggregate_context, with a bounded
// conditional loop through the pluggable generation stage.
type Planner struct {
	dispatcher Dispatcher
	generator  Generator
	logger     *zap.Logger

	k          int
	maxReplans int
	timeout    time.Duration

	startupWarnings []string

	graph *graph.Graph[domain.PlannerState]
}

// New creates a planner. The graph is built once; Plan runs it per request.
func New(dispatcher Dispatcher, logger *zap.Logger) (*Planner, error) {
	p := &Planner{
		dispatcher: dispatcher,
		logger:     logger,
		k:          10,
		maxReplans: DefaultMaxReplans,
	}

	g, err := p.buildGraph()
	if err != nil {
		return nil, fmt.Errorf("build planning graph: %w", err)
	}
	p.graph = g

	return p, nil
}

// WithRetrievalLimit sets the number of documents requested per source.
func (p *Planner) WithRetrievalLimit(k int) *Planner {
	if k > 0 {
		p.k = k
	}
	return p
}

// WithMaxReplans sets the replanning-cycle ceiling.
func (p *Planner) WithMaxReplans(n int) *Planner {
	if n >= 0 {
		p.maxReplans = n
	}
	return p
}

// WithRequestTimeout sets the per-request planning deadline. On expiry,
// outstanding retrievals abort and aggregation proceeds with partial results.
func (p *Planner) WithRequestTimeout(d time.Duration) *Planner {
	p.timeout = d
	return p
}

// WithGenerator plugs in the generation/validation stage.
func (p *Planner) WithGenerator(g Generator) *Planner {
	p.generator = g
	return p
}

// WithStartupWarnings seeds every request's warnings, used to surface
// cold-start index degradation detected at service start.
func (p *Planner) WithStartupWarnings(warnings []string) *Planner {
	p.startupWarnings = warnings
	return p
}

func (p *Planner) buildGraph() (*graph.Graph[domain.PlannerState], error) {
	g := graph.New[domain.PlannerState]()

	steps := []error{
		g.AddNode(nodeAnalyzeIntent, p.analyzeIntent),
		g.AddNode(nodeAggregate, p.aggregateContext),
		g.AddNode(nodeGenerate, p.generate),
		g.SetEntryPoint(nodeAnalyzeIntent),
	}
	for _, source := range domain.Sources() {
		name := retrievalNodeName(source)
		steps = append(steps,
			g.AddNode(name, p.retrievalNode(source)),
			g.AddEdge(nodeAnalyzeIntent, name),
			g.AddEdge(name, nodeAggregate),
		)
	}
	steps = append(steps,
		g.AddEdge(nodeGenerate, nodeAggregate),
		g.AddConditionalEdge(nodeAggregate, p.afterAggregate),
	)
	for _, err := range steps {
		if err != nil {
			return nil, err
		}
	}

	// Node failures degrade the affected category; the rest of the workflow
	// proceeds. The engine reports them after the wave joins, so appending
	// here never races the nodes.
	g.OnNodeError(func(s *domain.PlannerState, node string, err error) {
		s.Errors = append(s.Errors, fmt.Sprintf("%s: %v", node, err))
	})

	return g, nil
}

// Plan executes the workflow for one request and returns the terminal state.
// The state is created here, mutated additively by the nodes, and never
// touched again after the run; callers read AggregatedContext.
func (p *Planner) Plan(ctx context.Context, prefs domain.UserPreferences) (*domain.PlannerState, error) {
	start := time.Now()

	if err := prefs.Validate(); err != nil {
		metrics.PlanRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	state := &domain.PlannerState{Preferences: prefs}
	if err := p.PlanState(ctx, state); err != nil {
		metrics.PlanRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	status := "success"
	if len(state.Errors) > 0 {
		status = "degraded"
	}
	metrics.PlanRequestsTotal.WithLabelValues(status).Inc()
	metrics.PlanDuration.Observe(time.Since(start).Seconds())

	p.logger.Info("Planning workflow finished",
		zap.Strings("destinations", prefs.Destinations),
		zap.Int("iterations", state.IterationCount),
		zap.Int("errors", len(state.Errors)),
		zap.Int("warnings", len(state.Warnings)),
		zap.Duration("took", time.Since(start)),
	)

	return state, nil
}

// PlanState runs the workflow on a caller-provided initial state. The state
// must carry preferences; every other field defaults to its zero value. A
// seeded NeedsReplanning flag routes the first aggregation into the
// generation stage.
func (p *Planner) PlanState(ctx context.Context, state *domain.PlannerState) error {
	if len(p.startupWarnings) > 0 {
		state.Warnings = append(append([]string(nil), p.startupWarnings...), state.Warnings...)
	}

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.graph.Run(runCtx, state); err != nil {
		return fmt.Errorf("run planning workflow: %w", err)
	}
	return nil
}
