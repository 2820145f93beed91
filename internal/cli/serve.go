package cli

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
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/policyradar/policyradar/internal/config"
	logpkg "github.com/policyradar/policyradar/internal/logger"
	"github.com/policyradar/policyradar/internal/metrics"
	"github.com/policyradar/policyradar/internal/store"
	chiTransport "github.com/policyradar/policyradar/internal/transport/chi"
	openaiCompletion "github.com/policyradar/policyradar/internal/transport/openai"
	documentsuc "github.com/policyradar/policyradar/internal/usecase/documents"
	healthuc "github.com/policyradar/policyradar/internal/usecase/health"
	ingestuc "github.com/policyradar/policyradar/internal/usecase/ingest"
	raguc "github.com/policyradar/policyradar/internal/usecase/rag"
	statsuc "github.com/policyradar/policyradar/internal/usecase/stats"
	"github.com/policyradar/policyradar/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Policy Radar API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting Policy Radar API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
	)

	// Corpus persistence driver
	repo, closeRepo, err := newSnapshotRepository(cfg.Store)
	if err != nil {
		logger.Fatal("Failed to create snapshot repository", zap.Error(err))
	}
	if closeRepo != nil {
		defer closeRepo()
	}

	// In-memory corpus, initialized from persistence. A failed load leaves
	// the store uninitialized and the read API answers 503 until ingestion.
	corpus := store.New()
	loadCorpus(repo, corpus, logger, cfg.Store.SeedSamples)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Answer generation is optional; without an API key the RAG endpoint
	// falls back to extractive summaries.
	var completer raguc.Completer
	var providerCheck healthuc.ProviderChecker
	if cfg.RAG.APIKey != "" {
		c := openaiCompletion.NewCompleter(&openaiCompletion.Config{
			APIKey:  cfg.RAG.APIKey,
			BaseURL: cfg.RAG.BaseURL,
			Model:   cfg.RAG.Model,
			Logger:  logger,
		})
		completer = c
		providerCheck = c
		logger.Info("Answer generation enabled", zap.String("model", cfg.RAG.Model))
	} else {
		logger.Info("Answer generation disabled, RAG uses extractive fallback")
	}

	// Use case services
	docSvc := documentsuc.New(corpus)
	statsSvc := statsuc.New(corpus, cfg.Query.RecentDays)
	ragSvc := raguc.New(corpus, completer, logger).WithTopK(cfg.RAG.TopK)
	ingestSvc := ingestuc.New(corpus, repo, logger, buildSources(cfg.Ingestion, logger)...).
		WithDefaults(cfg.Ingestion.DefaultDays, cfg.Ingestion.DefaultLimit)
	healthSvc := healthuc.New(corpus)
	if providerCheck != nil {
		healthSvc = healthSvc.WithRAGProvider(providerCheck)
	}

	server := chiTransport.NewServer(
		docSvc, statsSvc, ragSvc, ingestSvc, healthSvc, cfg.Auth.APIKeys, logger,
	).WithQueryLimits(cfg.Query.DefaultLimit, cfg.Query.MaxLimit)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(corsMiddleware())
	r.Use(metrics.Middleware())
	r.Mount("/", server.Routes())

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
	return nil
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

// corsMiddleware allows browser dashboards to call the API. The original
// deployment served a Vercel frontend from a separate origin.
func corsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
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
