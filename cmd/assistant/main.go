package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinsight/clinic-analytics/internal/assistant"
	appconfig "github.com/clinsight/clinic-analytics/internal/config"
	"github.com/clinsight/clinic-analytics/internal/http/middleware"
	"github.com/clinsight/clinic-analytics/internal/observability/metrics"
	"github.com/clinsight/clinic-analytics/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-analytics assistant server",
		"env", cfg.Env,
		"port", cfg.AssistantPort,
	)

	registry := prometheus.NewRegistry()
	assistantMetrics := metrics.NewAssistantMetrics(registry)

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Error("redis unreachable", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}

	sessions := assistant.NewSessionStore(rdb, cfg.SessionTTL, cfg.MaxHistoryLength, nil)

	var analyzer assistant.ScanAnalyzer
	var gemini *assistant.GeminiClient
	if cfg.GeminiAPIKey != "" {
		var err error
		gemini, err = assistant.NewGeminiClient(context.Background(),
			cfg.GeminiAPIKey, cfg.GeminiModelID, cfg.LLMMaxRetries, assistantMetrics, logger)
		if err != nil {
			logger.Error("failed to initialize gemini client", "error", err)
			os.Exit(1)
		}
		defer gemini.Close()
		analyzer = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, scan analysis disabled")
	}

	var chat assistant.ChatClient
	if cfg.GroqAPIKey != "" {
		groq, err := assistant.NewGroqClient(cfg.GroqBaseURL, cfg.GroqAPIKey,
			cfg.GroqModelID, cfg.LLMMaxRetries, assistantMetrics, logger)
		if err != nil {
			logger.Error("failed to initialize groq client", "error", err)
			os.Exit(1)
		}
		chat = groq
		if gemini != nil {
			chat = assistant.NewFallbackChatClient(groq, gemini, logger)
		}
	} else if gemini != nil {
		logger.Warn("GROQ_API_KEY not set, using gemini for chat")
		chat = gemini
	} else {
		logger.Warn("no LLM API keys set, chat disabled")
	}

	handler := assistant.NewHandler(sessions, analyzer, chat, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	r.Use(middleware.RequestLogger(logger))
	handler.Routes(r)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         ":" + cfg.AssistantPort,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
