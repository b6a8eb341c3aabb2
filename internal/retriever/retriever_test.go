package retriever

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// stubEmbedder returns a fixed vector for every text.
type stubEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	s.calls++
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	results := make([]domain.EmbeddingResult, len(texts))
	for i := range texts {
		r, err := s.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}

func newTestRetriever(t *testing.T, embed domain.Embedder) *Retriever {
	t.Helper()
	r, err := New(domain.SourceAttractions, 2, embed, t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}
	return r
}

func TestRetrieve_FilterAfterOverFetch(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{0, 0}}
	r := newTestRetriever(t, embed)

	// Six documents at increasing distance; odd ones carry the excluded tag.
	texts := []string{"d0", "d1", "d2", "d3", "d4", "d5"}
	vectors := make([][]float32, len(texts))
	metas := make([]domain.Metadata, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 0}
		meta := domain.Metadata{}
		if i%2 == 1 {
			meta["tags"] = []string{"crowded"}
		}
		metas[i] = meta
	}
	if err := r.Add(texts, vectors, metas); err != nil {
		t.Fatalf("add: %v", err)
	}

	filter := domain.AttractionFilter{ExcludedTags: []string{"crowded"}}
	docs, err := r.Retrieve(context.Background(), "query", 2, filter)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	// Over-fetch pulls 4 candidates (d0..d3), the filter drops d1 and d3, and
	// the survivors fill k.
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].Text != "d0" || docs[1].Text != "d2" {
		t.Errorf("got %q,%q, want d0,d2", docs[0].Text, docs[1].Text)
	}
}

func TestRetrieve_TruncatesToK(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{0, 0}}
	r := newTestRetriever(t, embed)

	texts := []string{"a", "b", "c", "d"}
	vectors := [][]float32{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	if err := r.Add(texts, vectors, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	docs, err := r.Retrieve(context.Background(), "query", 1, nil)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 1 || docs[0].Text != "a" {
		t.Fatalf("got %v, want just a", docs)
	}
}

func TestRetrieve_EmptyIndex(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{0, 0}}
	r := newTestRetriever(t, embed)

	docs, err := r.Retrieve(context.Background(), "query", 5, domain.TipsFilter{})
	if err != nil {
		t.Fatalf("retrieve on empty index: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("got %d docs from empty index", len(docs))
	}
}

func TestRetrieve_EmbedError(t *testing.T) {
	embed := &stubEmbedder{err: domain.ErrEmbeddingProviderError}
	r := newTestRetriever(t, embed)

	_, err := r.Retrieve(context.Background(), "query", 5, nil)
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected embedding error, got %v", err)
	}
}

func TestLoad_MissingIndexIsColdStart(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{0, 0}}
	r := newTestRetriever(t, embed)

	err := r.Load()
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}

	// Cold start still serves, just empty.
	docs, err := r.Retrieve(context.Background(), "query", 3, nil)
	if err != nil {
		t.Fatalf("retrieve after cold start: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("cold index returned %d docs", len(docs))
	}
}

func TestSaveLoad_ThroughRetriever(t *testing.T) {
	embed := &stubEmbedder{vec: []float32{0, 0}}
	root := t.TempDir()

	r, err := New(domain.SourceTips, 2, embed, root, zap.NewNop())
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}
	if err := r.Add([]string{"carry cash"}, [][]float32{{1, 1}}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored, err := New(domain.SourceTips, 2, embed, root, zap.NewNop())
	if err != nil {
		t.Fatalf("new retriever: %v", err)
	}
	if err := restored.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Len() != 1 {
		t.Fatalf("restored len=%d, want 1", restored.Len())
	}
}
