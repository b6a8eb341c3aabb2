// Package graph implements a small directed-graph executor over a shared
// state record. Execution proceeds in supersteps: every node activated in a
// step runs in its own goroutine, the step joins before the next begins, and
// multiple activations of the same target within one step are deduplicated.
// A fan-in node therefore runs exactly once, after all of its same-step
// predecessors have completed; the step boundary is the join barrier.
//
// Nodes must write only state fields they own. The engine never locks the
// state: merge safety comes from disjoint field ownership, not from
// synchronization.
package graph

import (
	"context"
	"fmt"
	"sync"
)

// End is the terminal pseudo-node. Edges and routers may target it to stop
// the traversal along that path.
const End = "__end__"

// DefaultMaxSteps bounds cyclic graphs that never route to End.
const DefaultMaxSteps = 25

// NodeFunc mutates the fields of state that the node owns. A returned error
// is reported through the error handler and does not stop the traversal:
// downstream nodes still run, with whatever the failed node left unset.
type NodeFunc[S any] func(ctx context.Context, state *S) error

// RouterFunc picks the next node after its source completes. It must be a
// pure function of state; returning End (or "") stops the conditional path.
type RouterFunc[S any] func(state *S) string

// ErrorHandler observes node failures. It is called sequentially after each
// superstep joins, in node activation order, so it may mutate state without
// racing the nodes.
type ErrorHandler[S any] func(state *S, node string, err error)

// Graph is a named-node workflow over state type S. Build it once, then Run
// it for each request; Run does not mutate the graph.
type Graph[S any] struct {
	nodes    map[string]NodeFunc[S]
	order    []string
	edges    map[string][]string
	routers  map[string]RouterFunc[S]
	entry    string
	maxSteps int
	onError  ErrorHandler[S]
}

// New creates an empty graph.
func New[S any]() *Graph[S] {
	return &Graph[S]{
		nodes:    make(map[string]NodeFunc[S]),
		edges:    make(map[string][]string),
		routers:  make(map[string]RouterFunc[S]),
		maxSteps: DefaultMaxSteps,
	}
}

// AddNode registers a named node.
func (g *Graph[S]) AddNode(name string, fn NodeFunc[S]) error {
	if name == "" || name == End {
		return fmt.Errorf("invalid node name %q", name)
	}
	if fn == nil {
		return fmt.Errorf("node %q has no function", name)
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("node %q already registered", name)
	}
	g.nodes[name] = fn
	g.order = append(g.order, name)
	return nil
}

// AddEdge adds a static edge. to may be End.
func (g *Graph[S]) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("edge source %q is not a registered node", from)
	}
	if to != End {
		if _, ok := g.nodes[to]; !ok {
			return fmt.Errorf("edge target %q is not a registered node", to)
		}
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

// AddConditionalEdge attaches a router that chooses the next node after from
// completes. One router per source node.
func (g *Graph[S]) AddConditionalEdge(from string, router RouterFunc[S]) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("conditional edge source %q is not a registered node", from)
	}
	if _, exists := g.routers[from]; exists {
		return fmt.Errorf("node %q already has a conditional edge", from)
	}
	g.routers[from] = router
	return nil
}

// SetEntryPoint names the node where Run starts.
func (g *Graph[S]) SetEntryPoint(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("entry point %q is not a registered node", name)
	}
	g.entry = name
	return nil
}

// WithMaxSteps overrides the superstep bound.
func (g *Graph[S]) WithMaxSteps(n int) *Graph[S] {
	if n > 0 {
		g.maxSteps = n
	}
	return g
}

// OnNodeError installs the error handler.
func (g *Graph[S]) OnNodeError(h ErrorHandler[S]) *Graph[S] {
	g.onError = h
	return g
}

// Run executes the graph to completion on state. It returns an error only for
// graph-level defects (no entry point, a router targeting an unknown node,
// the step bound exceeded); node failures go to the error handler instead.
func (g *Graph[S]) Run(ctx context.Context, state *S) error {
	if g.entry == "" {
		return fmt.Errorf("entry point not set")
	}

	frontier := []string{g.entry}
	for step := 0; len(frontier) > 0; step++ {
		if step >= g.maxSteps {
			return fmt.Errorf("workflow exceeded %d steps without terminating", g.maxSteps)
		}

		errs := g.runStep(ctx, frontier, state)
		for i, name := range frontier {
			if errs[i] != nil && g.onError != nil {
				g.onError(state, name, errs[i])
			}
		}

		next, err := g.nextFrontier(frontier, state)
		if err != nil {
			return err
		}
		frontier = next
	}

	return nil
}

// runStep executes one superstep: every frontier node in its own goroutine,
// joined before returning.
func (g *Graph[S]) runStep(ctx context.Context, frontier []string, state *S) []error {
	errs := make([]error, len(frontier))

	var wg sync.WaitGroup
	for i, name := range frontier {
		fn := g.nodes[name]
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			errs[i] = callNode(ctx, fn, state, name)
		}(i, name)
	}
	wg.Wait()

	return errs
}

// nextFrontier collects the targets activated by the completed step, in edge
// declaration order, deduplicated.
func (g *Graph[S]) nextFrontier(frontier []string, state *S) ([]string, error) {
	var next []string
	seen := make(map[string]struct{})

	activate := func(to string) {
		if to == End || to == "" {
			return
		}
		if _, dup := seen[to]; dup {
			return
		}
		seen[to] = struct{}{}
		next = append(next, to)
	}

	for _, name := range frontier {
		for _, to := range g.edges[name] {
			activate(to)
		}
		if router, ok := g.routers[name]; ok {
			to := router(state)
			if to != End && to != "" {
				if _, known := g.nodes[to]; !known {
					return nil, fmt.Errorf("router from %q targets unknown node %q", name, to)
				}
			}
			activate(to)
		}
	}

	return next, nil
}

// callNode runs a node function, converting a panic into an error so one
// faulty node cannot take down the whole request.
func callNode[S any](ctx context.Context, fn NodeFunc[S], state *S, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node %s panicked: %v", name, r)
		}
	}()
	return fn(ctx, state)
}
