// Package retriever implements per-category knowledge retrieval over flat
// vector indexes, plus the coordinator that owns one retriever per category.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/domain"
	"github.com/atlas-cloud/tripdex/internal/index"
	"github.com/atlas-cloud/tripdex/internal/metrics"
)

// Retriever serves one knowledge category: it embeds the query, searches the
// category's index, and applies the category's filter policy.
type Retriever struct {
	source domain.Source
	index  *index.Flat
	embed  domain.Embedder
	path   string
	logger *zap.Logger
}

// New creates a retriever with an empty index. storeRoot is the vector-store
// root; the category's persisted index lives in its own subdirectory.
func New(source domain.Source, dim int, embed domain.Embedder, storeRoot string, logger *zap.Logger) (*Retriever, error) {
	ix, err := index.NewFlat(dim)
	if err != nil {
		return nil, fmt.Errorf("create %s index: %w", source, err)
	}
	return &Retriever{
		source: source,
		index:  ix,
		embed:  embed,
		path:   filepath.Join(storeRoot, string(source)),
		logger: logger,
	}, nil
}

// Source returns the knowledge category this retriever serves.
func (r *Retriever) Source() domain.Source { return r.source }

// Len returns the number of indexed documents.
func (r *Retriever) Len() int { return r.index.Len() }

// Retrieve embeds the query, over-fetches 2k candidates, applies the filter,
// and truncates to k. Over-fetching compensates for filter rejection without
// the index having to understand filter semantics.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, filter domain.SourceFilter) ([]domain.Document, error) {
	start := time.Now()

	docs, err := r.retrieve(ctx, query, k, filter)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(string(r.source), status).Inc()
	metrics.RetrievalDuration.WithLabelValues(string(r.source)).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.RetrievalDocuments.WithLabelValues(string(r.source)).Observe(float64(len(docs)))
	}

	return docs, err
}

func (r *Retriever) retrieve(ctx context.Context, query string, k int, filter domain.SourceFilter) ([]domain.Document, error) {
	embResult, err := r.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	candidates, err := r.index.Search(embResult.Embedding, k*2)
	if err != nil {
		return nil, fmt.Errorf("search %s index: %w", r.source, err)
	}

	if filter != nil {
		filtered := candidates[:0]
		for _, doc := range candidates {
			if filter.Match(doc.Metadata) {
				filtered = append(filtered, doc)
			}
		}
		candidates = filtered
	}

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Add appends documents to the underlying index. Used by ingestion only; the
// index is read-only while requests are being served.
func (r *Retriever) Add(texts []string, vectors [][]float32, metadatas []domain.Metadata) error {
	if err := r.index.Add(texts, vectors, metadatas); err != nil {
		return fmt.Errorf("add to %s index: %w", r.source, err)
	}
	return nil
}

// Save persists the index at the category-scoped location.
func (r *Retriever) Save() error {
	if err := r.index.Save(r.path); err != nil {
		return fmt.Errorf("save %s index: %w", r.source, err)
	}
	return nil
}

// Load restores the persisted index. A missing index is a cold start: the
// retriever keeps serving from its empty index and the returned error wraps
// domain.ErrIndexNotFound so callers can record a warning instead of failing.
// Corrupt data is treated the same way, after logging.
func (r *Retriever) Load() error {
	err := r.index.Load(r.path)
	if err == nil {
		r.logger.Info("Loaded knowledge index",
			zap.String("source", string(r.source)),
			zap.Int("documents", r.index.Len()),
		)
		return nil
	}

	if errors.Is(err, domain.ErrIndexNotFound) {
		return fmt.Errorf("load %s index: %w", r.source, err)
	}

	r.logger.Error("Failed to load knowledge index, starting cold",
		zap.String("source", string(r.source)),
		zap.String("path", r.path),
		zap.Error(err),
	)
	return fmt.Errorf("load %s index: %w", r.source, err)
}
