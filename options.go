package tripdex

import (
	"time"

	"go.uber.org/zap"
)

type clientConfig struct {
	embedder       Embedder
	dimensions     int
	storeRoot      string
	retrievalLimit int
	maxReplans     int
	timeout        time.Duration
	logger         *zap.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		dimensions:     384,
		storeRoot:      "./data/vector_stores",
		retrievalLimit: 10,
		maxReplans:     3,
		logger:         zap.NewNop(),
	}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithEmbedder sets the embedding provider. Required.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) { c.embedder = e }
}

// WithDimensions sets the vector dimension shared by all indexes (default 384).
func WithDimensions(dim int) Option {
	return func(c *clientConfig) {
		if dim > 0 {
			c.dimensions = dim
		}
	}
}

// WithStoreRoot sets the directory holding the persisted per-category indexes.
func WithStoreRoot(path string) Option {
	return func(c *clientConfig) {
		if path != "" {
			c.storeRoot = path
		}
	}
}

// WithRetrievalLimit sets the number of documents requested per category
// (default 10).
func WithRetrievalLimit(k int) Option {
	return func(c *clientConfig) {
		if k > 0 {
			c.retrievalLimit = k
		}
	}
}

// WithMaxReplans sets the replanning-cycle ceiling (default 3).
func WithMaxReplans(n int) Option {
	return func(c *clientConfig) {
		if n >= 0 {
			c.maxReplans = n
		}
	}
}

// WithRequestTimeout sets a per-plan deadline. Zero means no deadline beyond
// the caller's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithLogger sets the logger (default: no-op).
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
