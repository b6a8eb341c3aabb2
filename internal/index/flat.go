// Package index implements a flat (brute-force) L2 nearest-neighbor index
// over (text, metadata, embedding) triples with directory-based persistence.
package index

import (
	"fmt"
	"sort"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Flat is an append-only exact-search index. Three parallel slices hold the
// documents: texts[i], metadatas[i], and vectors[i] describe one logical
// document, and that alignment must survive every Add/Save/Load cycle.
//
// The index is read-only while a planning request is being served; Add, Save,
// and Load run only during ingestion and startup and must not be called
// concurrently with Search.
type Flat struct {
	dim       int
	texts     []string
	metadatas []domain.Metadata
	vectors   [][]float32
}

// NewFlat creates an empty index with a fixed vector dimension. The dimension
// is configuration, never inferred from data.
func NewFlat(dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &Flat{dim: dim}, nil
}

// Dimension returns the fixed vector dimension.
func (ix *Flat) Dimension() int { return ix.dim }

// Len returns the number of stored documents.
func (ix *Flat) Len() int { return len(ix.texts) }

// Add appends documents in order. metadatas may be nil, defaulting to empty
// records. The call is rejected wholesale on any length or dimension
// mismatch, leaving already-stored documents untouched.
func (ix *Flat) Add(texts []string, vectors [][]float32, metadatas []domain.Metadata) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("texts and vectors length mismatch: %d != %d", len(texts), len(vectors))
	}
	if metadatas != nil && len(metadatas) != len(texts) {
		return fmt.Errorf("texts and metadatas length mismatch: %d != %d", len(texts), len(metadatas))
	}

	// Validate every vector before touching the stored slices.
	for i, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: vector %d has dimension %d, index expects %d",
				domain.ErrDimensionMismatch, i, len(v), ix.dim)
		}
	}

	if metadatas == nil {
		metadatas = make([]domain.Metadata, len(texts))
		for i := range metadatas {
			metadatas[i] = domain.Metadata{}
		}
	}

	ix.texts = append(ix.texts, texts...)
	ix.vectors = append(ix.vectors, vectors...)
	ix.metadatas = append(ix.metadatas, metadatas...)
	return nil
}

// Search returns the k nearest documents by squared Euclidean distance,
// nearest first, with ties broken by insertion order. Distance d maps to
// score 1/(1+d), so an exact match scores 1.0. Fewer than k stored documents
// return everything.
func (ix *Flat) Search(query []float32, k int) ([]domain.Document, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index expects %d",
			domain.ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 || ix.Len() == 0 {
		return nil, nil
	}

	distances := make([]float64, len(ix.vectors))
	for i, v := range ix.vectors {
		distances[i] = squaredL2(query, v)
	}

	order := make([]int, len(distances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return distances[order[a]] < distances[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	results := make([]domain.Document, 0, k)
	for _, idx := range order[:k] {
		results = append(results, domain.Document{
			Text:     ix.texts[idx],
			Metadata: ix.metadatas[idx],
			Score:    1 / (1 + distances[idx]),
		})
	}
	return results, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
