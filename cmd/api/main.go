package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/autovista-ai/dealership-ai-platform/cmd/mainconfig"
	"github.com/autovista-ai/dealership-ai-platform/internal/api/router"
	appconfig "github.com/autovista-ai/dealership-ai-platform/internal/config"
	"github.com/autovista-ai/dealership-ai-platform/internal/conversation"
	"github.com/autovista-ai/dealership-ai-platform/internal/leads"
	"github.com/autovista-ai/dealership-ai-platform/internal/observability/metrics"
	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dealership-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := newRedisClient(cfg)
	defer func() { _ = redisClient.Close() }()

	// Lead storage falls back to memory when no database is configured.
	var leadsRepo leads.Repository = leads.NewInMemoryRepository()
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadsRepo = leads.NewPostgresRepository(pool)
	}

	pipelineMetrics := metrics.NewPipelineMetrics(nil)
	engine := buildEngine(ctx, cfg, logger, redisClient, pipelineMetrics)

	leadsHandler := leads.NewHandler(leadsRepo, logger)
	conversationHandler := conversation.NewHandler(engine, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		LeadsHandler:        leadsHandler,
		ConversationHandler: conversationHandler,
		MetricsHandler:      promhttp.Handler(),
		CORSAllowedOrigins:  strings.Split(cfg.AllowedOrigins, ","),
		RateLimitPerSecond:  10,
		RateLimitBurst:      30,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func newRedisClient(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

func buildEngine(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, redisClient *redis.Client, m *metrics.PipelineMetrics) *conversation.Engine {
	guard := conversation.NewReplyGuard(logger, conversation.WithCooldown(cfg.ReplyCooldown))
	go guard.Run(ctx, cfg.GuardSweepInterval)

	opts := []conversation.EngineOption{
		conversation.WithHistoryStore(conversation.NewRedisHistoryStore(redisClient, nil)),
		conversation.WithMetrics(m),
		conversation.WithServiceID(cfg.ServiceID),
	}
	if client, model := buildRemoteLLM(ctx, cfg, logger); client != nil {
		opts = append(opts, conversation.WithLLMFallback(client, model, cfg.RemoteTimeout))
	}

	return conversation.NewEngine(logger, guard,
		conversation.NewObjectionDetector(logger),
		conversation.NewFlowAnalyzer(logger, conversation.WithBusinessHours(cfg.BusinessHoursOpen, cfg.BusinessHoursClose)),
		conversation.NewResponseSynthesizer(logger, time.Now().UnixNano()),
		opts...,
	)
}

// buildRemoteLLM assembles the remote generation chain: Bedrock primary with
// Gemini fallback, either alone when only one is configured, nil when neither.
func buildRemoteLLM(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.LLMClient, string) {
	var bedrock conversation.LLMClient
	if cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for bedrock", "error", err)
		} else {
			bedrock = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		}
	}

	var gemini conversation.LLMClient
	if cfg.GeminiAPIKey != "" {
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to initialize gemini client", "error", err)
		} else {
			gemini = client
		}
	}

	switch {
	case bedrock != nil && gemini != nil:
		return conversation.NewFallbackLLMClient(bedrock, gemini, logger), cfg.BedrockModelID
	case bedrock != nil:
		return bedrock, cfg.BedrockModelID
	case gemini != nil:
		return gemini, cfg.GeminiModel
	default:
		return nil, ""
	}
}
