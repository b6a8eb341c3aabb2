package tripdex

import (
	"context"
	"strings"
	"testing"
	"time"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{Embedding: []float32{0, 0}}, nil
}

func (s stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([]EmbeddingResult, error) {
	results := make([]EmbeddingResult, len(texts))
	for i := range texts {
		results[i] = EmbeddingResult{Embedding: []float32{0, 0}}
	}
	return results, nil
}

func parisRequest() PlanRequest {
	return PlanRequest{
		Destinations: []string{"Paris"},
		StartDate:    mustDate("2024-06-15"),
		EndDate:      mustDate("2024-06-17"),
		Budget:       "budget",
		Interests:    []string{"art", "food"},
	}
}

func TestNew_RequiresEmbedder(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without an embedder")
	}
}

func TestClient_PlanColdStart(t *testing.T) {
	client, err := New(
		WithEmbedder(stubEmbedder{}),
		WithDimensions(2),
		WithStoreRoot(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	result, err := client.Plan(context.Background(), parisRequest())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if !strings.Contains(result.Context, "## Trip Planning Context") {
		t.Errorf("context missing heading:\n%s", result.Context)
	}
	// All four indexes are cold; each surfaces a warning, none an error.
	if len(result.Warnings) != 4 {
		t.Errorf("warnings = %v, want one per category", result.Warnings)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %v, want none", result.Errors)
	}
}

func TestClient_PlanInvalidRequest(t *testing.T) {
	client, err := New(
		WithEmbedder(stubEmbedder{}),
		WithDimensions(2),
		WithStoreRoot(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	req := parisRequest()
	req.Budget = "lavish"
	if _, err := client.Plan(context.Background(), req); err == nil {
		t.Fatal("expected error for unknown budget level")
	}
}

func TestClient_IndexCounts(t *testing.T) {
	client, err := New(
		WithEmbedder(stubEmbedder{}),
		WithDimensions(2),
		WithStoreRoot(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	counts := client.IndexCounts()
	if len(counts) != 4 {
		t.Fatalf("counts = %v, want all four categories", counts)
	}
	for source, n := range counts {
		if n != 0 {
			t.Errorf("%s count = %d, want 0 on cold start", source, n)
		}
	}
}
