package embedding

import (
	"context"
	"sync"

	"github.com/atlas-cloud/tripdex/internal/domain"
)

// Lazy defers embedder construction to the first call and guarantees it
// happens exactly once, however many goroutines race to be first. The handle
// itself is injected as an explicit dependency; there is no package-level
// instance.
type Lazy struct {
	once  sync.Once
	build func() (domain.Embedder, error)
	inner domain.Embedder
	err   error
}

// NewLazy wraps a constructor. build runs on the first Embed/EmbedBatch call.
func NewLazy(build func() (domain.Embedder, error)) *Lazy {
	return &Lazy{build: build}
}

func (l *Lazy) init() error {
	l.once.Do(func() {
		l.inner, l.err = l.build()
	})
	return l.err
}

// Embed implements domain.Embedder.
func (l *Lazy) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := l.init(); err != nil {
		return domain.EmbeddingResult{}, err
	}
	return l.inner.Embed(ctx, text)
}

// EmbedBatch implements domain.Embedder.
func (l *Lazy) EmbedBatch(ctx context.Context, texts []string) ([]domain.EmbeddingResult, error) {
	if err := l.init(); err != nil {
		return nil, err
	}
	return l.inner.EmbedBatch(ctx, texts)
}
