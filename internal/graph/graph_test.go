package graph

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type fanState struct {
	A, B, C, D string
	Joined     int32

	Failures []string
}

func buildFanGraph(t *testing.T) *Graph[fanState] {
	t.Helper()
	g := New[fanState]()

	mustAdd := func(name string, fn NodeFunc[fanState]) {
		if err := g.AddNode(name, fn); err != nil {
			t.Fatalf("add node %s: %v", name, err)
		}
	}
	mustEdge := func(from, to string) {
		if err := g.AddEdge(from, to); err != nil {
			t.Fatalf("add edge %s->%s: %v", from, to, err)
		}
	}

	mustAdd("entry", func(context.Context, *fanState) error { return nil })
	mustAdd("na", func(_ context.Context, s *fanState) error { s.A = "a"; return nil })
	mustAdd("nb", func(_ context.Context, s *fanState) error { s.B = "b"; return nil })
	mustAdd("nc", func(_ context.Context, s *fanState) error { s.C = "c"; return nil })
	mustAdd("nd", func(_ context.Context, s *fanState) error { s.D = "d"; return nil })
	mustAdd("join", func(_ context.Context, s *fanState) error {
		atomic.AddInt32(&s.Joined, 1)
		return nil
	})

	if err := g.SetEntryPoint("entry"); err != nil {
		t.Fatalf("set entry point: %v", err)
	}
	for _, n := range []string{"na", "nb", "nc", "nd"} {
		mustEdge("entry", n)
		mustEdge(n, "join")
	}
	mustEdge("join", End)

	return g
}

func TestRun_FanOutIsolationAndJoin(t *testing.T) {
	g := buildFanGraph(t)

	// Repeat to give the race detector a chance at interleavings.
	for i := 0; i < 50; i++ {
		var s fanState
		if err := g.Run(context.Background(), &s); err != nil {
			t.Fatalf("run: %v", err)
		}
		if s.A != "a" || s.B != "b" || s.C != "c" || s.D != "d" {
			t.Fatalf("lost update: %+v", s)
		}
		if s.Joined != 1 {
			t.Fatalf("fan-in ran %d times, want exactly once", s.Joined)
		}
	}
}

func TestRun_NodeErrorDoesNotStopTraversal(t *testing.T) {
	g2 := New[fanState]()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g2.AddNode("entry", func(context.Context, *fanState) error { return nil }))
	must(g2.AddNode("ok", func(_ context.Context, s *fanState) error { s.A = "a"; return nil }))
	must(g2.AddNode("bad", func(context.Context, *fanState) error { return errors.New("boom") }))
	must(g2.AddNode("join", func(_ context.Context, s *fanState) error {
		atomic.AddInt32(&s.Joined, 1)
		return nil
	}))
	must(g2.SetEntryPoint("entry"))
	must(g2.AddEdge("entry", "ok"))
	must(g2.AddEdge("entry", "bad"))
	must(g2.AddEdge("ok", "join"))
	must(g2.AddEdge("bad", "join"))
	g2.OnNodeError(func(s *fanState, node string, err error) {
		s.Failures = append(s.Failures, node+": "+err.Error())
	})

	var s fanState
	if err := g2.Run(context.Background(), &s); err != nil {
		t.Fatalf("run: %v", err)
	}
	if s.A != "a" {
		t.Error("healthy branch must still run")
	}
	if s.Joined != 1 {
		t.Errorf("join ran %d times, want 1", s.Joined)
	}
	if len(s.Failures) != 1 || !strings.Contains(s.Failures[0], "bad: boom") {
		t.Errorf("failures = %v, want one entry for node bad", s.Failures)
	}
}

func TestRun_PanicConvertedToError(t *testing.T) {
	g := New[fanState]()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g.AddNode("panics", func(context.Context, *fanState) error { panic("kaboom") }))
	must(g.SetEntryPoint("panics"))
	g.OnNodeError(func(s *fanState, node string, err error) {
		s.Failures = append(s.Failures, err.Error())
	})

	var s fanState
	if err := g.Run(context.Background(), &s); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(s.Failures) != 1 || !strings.Contains(s.Failures[0], "kaboom") {
		t.Errorf("failures = %v, want recovered panic", s.Failures)
	}
}

func TestRun_ConditionalLoopRespectsMaxSteps(t *testing.T) {
	g := New[fanState]()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g.AddNode("spin", func(context.Context, *fanState) error { return nil }))
	must(g.SetEntryPoint("spin"))
	must(g.AddConditionalEdge("spin", func(*fanState) string { return "spin" }))
	g.WithMaxSteps(5)

	var s fanState
	err := g.Run(context.Background(), &s)
	if err == nil || !strings.Contains(err.Error(), "exceeded 5 steps") {
		t.Fatalf("expected step-bound error, got %v", err)
	}
}

func TestRun_RouterTerminatesLoop(t *testing.T) {
	g := New[fanState]()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	count := 0
	must(g.AddNode("spin", func(context.Context, *fanState) error {
		count++
		return nil
	}))
	must(g.SetEntryPoint("spin"))
	must(g.AddConditionalEdge("spin", func(*fanState) string {
		if count < 3 {
			return "spin"
		}
		return End
	}))

	var s fanState
	if err := g.Run(context.Background(), &s); err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 3 {
		t.Errorf("node ran %d times, want 3", count)
	}
}

func TestRun_RouterUnknownTarget(t *testing.T) {
	g := New[fanState]()
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g.AddNode("n", func(context.Context, *fanState) error { return nil }))
	must(g.SetEntryPoint("n"))
	must(g.AddConditionalEdge("n", func(*fanState) string { return "ghost" }))

	var s fanState
	if err := g.Run(context.Background(), &s); err == nil {
		t.Fatal("expected error for router targeting unknown node")
	}
}

func TestRun_NoEntryPoint(t *testing.T) {
	g := New[fanState]()
	var s fanState
	if err := g.Run(context.Background(), &s); err == nil {
		t.Fatal("expected error for missing entry point")
	}
}

func TestAddNode_Validation(t *testing.T) {
	g := New[fanState]()
	fn := func(context.Context, *fanState) error { return nil }

	if err := g.AddNode("", fn); err == nil {
		t.Error("empty name must be rejected")
	}
	if err := g.AddNode(End, fn); err == nil {
		t.Error("reserved End name must be rejected")
	}
	if err := g.AddNode("nilfn", nil); err == nil {
		t.Error("nil node function must be rejected")
	}
	if err := g.AddNode("n", fn); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddNode("n", fn); err == nil {
		t.Error("duplicate name must be rejected")
	}
	if err := g.AddEdge("n", "missing"); err == nil {
		t.Error("edge to unregistered node must be rejected")
	}
	if err := g.AddEdge("missing", "n"); err == nil {
		t.Error("edge from unregistered node must be rejected")
	}
}
