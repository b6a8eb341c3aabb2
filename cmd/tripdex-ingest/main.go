// Command tripdex-ingest populates the per-category vector indexes from the
// JSON record files under the configured data path. Run it before starting
// the API server; indexes are read-only while the server is serving.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/config"
	"github.com/atlas-cloud/tripdex/internal/embedding"
	"github.com/atlas-cloud/tripdex/internal/ingest"
	logpkg "github.com/atlas-cloud/tripdex/internal/logger"
	"github.com/atlas-cloud/tripdex/internal/metrics"
	"github.com/atlas-cloud/tripdex/internal/retriever"
	"github.com/atlas-cloud/tripdex/internal/version"
)

func main() {
	dataPath := flag.String("data", "", "directory with <source>.json record files (default: storage.data_path)")
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	root := cfg.Storage.DataPath
	if *dataPath != "" {
		root = *dataPath
	}

	logger.Info("Starting ingestion",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("data_path", root),
		zap.String("vector_store_path", cfg.Storage.VectorStorePath),
	)

	metrics.RegisterEmbeddingMetrics()

	embedder := embedding.NewClient(&embedding.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	coord, err := retriever.NewCoordinator(
		cfg.Embedding.Dimensions, embedder, cfg.Storage.VectorStorePath, logger,
	)
	if err != nil {
		logger.Fatal("Failed to create retrieval coordinator", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	start := time.Now()
	if err := ingest.New(coord, embedder, logger).Run(ctx, root); err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion complete", zap.Duration("took", time.Since(start)))
}
