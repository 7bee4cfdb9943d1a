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
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/utahisnotastate/utahai-chatbot-api/internal/config"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/db"
	dbRedis "github.com/utahisnotastate/utahai-chatbot-api/internal/db/redis"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/domain"
	logpkg "github.com/utahisnotastate/utahai-chatbot-api/internal/logger"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/metrics"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/repository/answercache"
	chiTransport "github.com/utahisnotastate/utahai-chatbot-api/internal/transport/chi"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/transport/discovery"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/transport/gemini"
	openaiGen "github.com/utahisnotastate/utahai-chatbot-api/internal/transport/openai"
	answeruc "github.com/utahisnotastate/utahai-chatbot-api/internal/usecase/answer"
	healthuc "github.com/utahisnotastate/utahai-chatbot-api/internal/usecase/health"
	"github.com/utahisnotastate/utahai-chatbot-api/internal/version"
)

const serviceName = "utahai-chatbot-api"

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

	logger.Info("Starting chatbot API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("project", cfg.Vertex.Project),
		zap.String("data_store_id", cfg.Vertex.DataStoreID),
		zap.String("answer_mode", cfg.Answer.Mode),
	)

	ctx := context.Background()

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// Optional answer cache store. A missing cache never blocks startup.
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Warn("Failed to create cache store, serving without cache", zap.Error(err))
			store = nil
		} else {
			readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
			if err := store.WaitForReady(ctx, readiness); err != nil {
				logger.Warn("Cache not ready, serving without cache", zap.Error(err))
				store.Close()
				store = nil
			} else {
				defer store.Close()
				logger.Info("Connected to answer cache", zap.Strings("addrs", cfg.Cache.Addrs))
			}
		}
	}

	// Discovery Engine clients. A failed client degrades the pipeline to
	// fallback answers instead of refusing to start.
	var searchBackend answeruc.SearchBackend
	searchClient, err := discovery.NewSearchClient(ctx)
	if err != nil {
		logger.Error("Failed to create search client, serving fallback answers", zap.Error(err))
	} else {
		defer searchClient.Close()
		searchBackend = searchClient
	}

	var lister answeruc.DataStoreLister
	if cfg.Vertex.AutoResolveDataStore {
		dsLister, err := discovery.NewLister(ctx)
		if err != nil {
			logger.Warn("Failed to create data store lister, using configured id as-is", zap.Error(err))
		} else {
			defer dsLister.Close()
			lister = dsLister
		}
	}

	mode, err := domain.ParseAnswerMode(cfg.Answer.Mode)
	if err != nil {
		logger.Fatal("Invalid answer mode", zap.Error(err))
	}

	generator, healthChecker := buildGenerator(ctx, cfg, mode, logger)

	parent := answeruc.CollectionParent(cfg.Vertex.Project, cfg.Vertex.Location, cfg.Vertex.Collection)
	resolver := answeruc.NewResolver(lister, parent, cfg.Vertex.DataStoreID, cfg.Vertex.AutoResolveDataStore, logger)

	answerSvc := answeruc.New(searchBackend, generator, resolver, answeruc.Config{
		Project:             cfg.Vertex.Project,
		Location:            cfg.Vertex.Location,
		Collection:          cfg.Vertex.Collection,
		ModelID:             cfg.Generation.Model,
		Mode:                mode,
		DefaultUserPseudoID: cfg.Answer.DefaultUserPseudoID,
	})

	// Answer cache decorator
	var answerer chiTransport.Answerer = answerSvc
	if store != nil {
		answerer = answercache.New(
			answerSvc, store, time.Duration(cfg.Cache.TTLSec)*time.Second,
			mode, cfg.Generation.Model, metrics.AnswerCacheTotal, logger,
		)
	}

	// Health service
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(searchBackend != nil, cachePinger, healthChecker)

	server := chiTransport.NewServer(answerer, healthSvc, chiTransport.ServiceInfo{
		Service:     serviceName,
		Project:     cfg.Vertex.Project,
		Location:    cfg.Vertex.Location,
		DataStoreID: cfg.Vertex.DataStoreID,
		ModelID:     cfg.Generation.Model,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
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

// buildGenerator creates the configured generation provider. Extractive mode
// needs no model; a failed provider degrades generative answers to fallbacks.
func buildGenerator(
	ctx context.Context,
	cfg config.Config,
	mode domain.AnswerMode,
	logger *zap.Logger,
) (answeruc.Generator, healthuc.GenerationChecker) {
	if mode == domain.ModeExtractive {
		return nil, nil
	}

	switch cfg.Generation.Provider {
	case "openai":
		gen := openaiGen.NewGenerator(&openaiGen.Config{
			APIKey:      cfg.Generation.APIKey,
			BaseURL:     cfg.Generation.BaseURL,
			Model:       cfg.Generation.Model,
			Temperature: cfg.Generation.Temperature,
			MaxTokens:   cfg.Generation.MaxOutputTokens,
		})
		logger.Info("Generator created",
			zap.String("provider", "openai"),
			zap.String("model", cfg.Generation.Model),
		)
		return gen, gen
	default: // gemini
		gen, err := gemini.NewGenerator(ctx, &gemini.Config{
			Project:         cfg.Vertex.Project,
			Location:        cfg.Generation.Location,
			Model:           cfg.Generation.Model,
			Temperature:     cfg.Generation.Temperature,
			MaxOutputTokens: int32(cfg.Generation.MaxOutputTokens),
		})
		if err != nil {
			logger.Error("Failed to create generator, serving fallback answers", zap.Error(err))
			return nil, nil
		}
		logger.Info("Generator created",
			zap.String("provider", "gemini"),
			zap.String("model", cfg.Generation.Model),
			zap.String("location", cfg.Generation.Location),
		)
		return gen, nil
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
						"error": "internal error",
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
