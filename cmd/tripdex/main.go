package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atlas-cloud/tripdex/internal/config"
	"github.com/atlas-cloud/tripdex/internal/domain"
	"github.com/atlas-cloud/tripdex/internal/embedding"
	logpkg "github.com/atlas-cloud/tripdex/internal/logger"
	"github.com/atlas-cloud/tripdex/internal/metrics"
	"github.com/atlas-cloud/tripdex/internal/planner"
	"github.com/atlas-cloud/tripdex/internal/retriever"
	chiTransport "github.com/atlas-cloud/tripdex/internal/transport/chi"
	"github.com/atlas-cloud/tripdex/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting tripdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPlannerMetrics()

	// Embedder — lazy so the provider is only constructed on first use, and
	// exactly once however many retrieval goroutines race to be first.
	embedder, closeCache := buildEmbedder(cfg, logger)
	defer closeCache()

	// One retriever per knowledge source, sharing the embedder.
	coord, err := retriever.NewCoordinator(
		cfg.Embedding.Dimensions, embedder, cfg.Storage.VectorStorePath, logger,
	)
	if err != nil {
		logger.Fatal("Failed to create retrieval coordinator", zap.Error(err))
	}

	// Cold-start indexes are warnings surfaced per request, never fatal.
	warnings := coord.LoadAll()
	for _, w := range warnings {
		logger.Warn("Index degraded", zap.String("warning", w))
	}

	plan, err := planner.New(coord, logger)
	if err != nil {
		logger.Fatal("Failed to create planner", zap.Error(err))
	}
	plan.WithRetrievalLimit(cfg.Retrieval.MaxResults).
		WithMaxReplans(cfg.Retrieval.MaxReplans).
		WithRequestTimeout(time.Duration(cfg.Retrieval.RequestTimeoutSec) * time.Second).
		WithStartupWarnings(warnings)

	server := chiTransport.NewServer(plan, coord, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the embedder chain: OpenAI provider, optionally
// wrapped in the Redis cache, behind a constructed-once lazy handle. The
// returned closer shuts down the cache client if one was created.
func buildEmbedder(cfg config.Config, logger *zap.Logger) (domain.Embedder, func()) {
	var cached *embedding.Cached

	lazy := embedding.NewLazy(func() (domain.Embedder, error) {
		base := embedding.NewClient(&embedding.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})

		if !cfg.Cache.Enabled() {
			return base, nil
		}

		c, err := embedding.NewCached(base, embedding.CacheConfig{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			TTL:      time.Duration(cfg.Cache.TTLSec) * time.Second,
		}, cfg.Embedding.Model, logger)
		if err != nil {
			logger.Warn("Embedding cache unavailable, continuing without it", zap.Error(err))
			return base, nil
		}
		cached = c
		return c, nil
	})

	return lazy, func() {
		if cached != nil {
			cached.Close()
		}
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
