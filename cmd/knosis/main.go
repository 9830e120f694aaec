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

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/config"
	dbRedis "github.com/kailas-cloud/knosis/internal/db/redis"
	logpkg "github.com/kailas-cloud/knosis/internal/logger"
	"github.com/kailas-cloud/knosis/internal/metrics"
	conversationrepo "github.com/kailas-cloud/knosis/internal/repository/conversation"
	knowledgerepo "github.com/kailas-cloud/knosis/internal/repository/knowledge"
	chiTransport "github.com/kailas-cloud/knosis/internal/transport/chi"
	notionTransport "github.com/kailas-cloud/knosis/internal/transport/notion"
	openaiTransport "github.com/kailas-cloud/knosis/internal/transport/openai"
	searxngTransport "github.com/kailas-cloud/knosis/internal/transport/searxng"
	"github.com/kailas-cloud/knosis/internal/usecase/agent"
	"github.com/kailas-cloud/knosis/internal/usecase/agent/planner"
	"github.com/kailas-cloud/knosis/internal/usecase/agent/research"
	healthuc "github.com/kailas-cloud/knosis/internal/usecase/health"
	indexuc "github.com/kailas-cloud/knosis/internal/usecase/index"
	orchestratoruc "github.com/kailas-cloud/knosis/internal/usecase/orchestrator"
	"github.com/kailas-cloud/knosis/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting knosis API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register provider metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:   cfg.Generation.APIKey,
		BaseURL:  cfg.Generation.BaseURL,
		Model:    cfg.Generation.Model,
		Provider: cfg.Generation.Provider,
		Logger:   logger,
	})
	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.String("generation_model", cfg.Generation.Model),
	)

	// Optional collaborators — disabled when unconfigured.
	var webSearcher indexuc.WebSearcher
	if cfg.Search.BaseURL != "" {
		webSearcher = searxngTransport.New(&searxngTransport.Config{
			BaseURL: cfg.Search.BaseURL,
			Timeout: time.Duration(cfg.Search.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Web search enabled", zap.String("base_url", cfg.Search.BaseURL))
	}

	var contentStore *notionTransport.Store
	if cfg.Notion.Token != "" {
		contentStore = notionTransport.New(&notionTransport.Config{
			Token:   cfg.Notion.Token,
			BaseURL: cfg.Notion.BaseURL,
			Timeout: time.Duration(cfg.Notion.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Workspace content store enabled")
	}

	knowledgeRepo := knowledgerepo.New(store, cfg.Index.HNSWM, cfg.Index.HNSWEFConstruct)

	var indexContent indexuc.ContentStore
	if contentStore != nil {
		indexContent = contentStore
	}
	indexSvc := indexuc.New(
		knowledgeRepo, embedder, webSearcher, indexContent,
		cfg.Index.Collection, cfg.Embedding.Dimensions, logger,
	)
	if err := indexSvc.Initialize(ctx); err != nil {
		// The index comes up lazily: the API still serves, /healthz reports degraded.
		logger.Warn("Knowledge index unavailable at startup", zap.Error(err))
	}

	base := agent.NewBase(generator, indexSvc, logger)

	var researchOpts []research.Option
	var plannerOpts []planner.Option
	if contentStore != nil {
		researchOpts = append(researchOpts, research.WithContentStore(contentStore, cfg.Notion.ParentPageID))
		plannerOpts = append(plannerOpts, planner.WithContentStore(contentStore, cfg.Notion.ParentPageID))
	}

	orchestratorSvc := orchestratoruc.New(
		conversationrepo.NewStore(), logger,
		research.New(base, researchOpts...),
		planner.New(base, plannerOpts...),
	)

	healthSvc := healthuc.New(store, embedder, indexSvc)

	server := chiTransport.NewServer(orchestratorSvc, indexSvc, healthSvc, logger)
	router := server.Router(
		jsonRecoverer(logger),
		wideEventMiddleware(logger),
		chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys),
	)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
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
