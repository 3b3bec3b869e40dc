package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/autovista-ai/dealership-ai-platform/cmd/mainconfig"
	appconfig "github.com/autovista-ai/dealership-ai-platform/internal/config"
	"github.com/autovista-ai/dealership-ai-platform/internal/conversation"
	"github.com/autovista-ai/dealership-ai-platform/internal/observability/metrics"
	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting conversation worker", "env", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	inbound := buildQueue(ctx, cfg, logger)
	history := conversation.NewRedisHistoryStore(redisClient, nil)
	dispatcher := conversation.NewRedisOutboundDispatcher(redisClient)

	guard := conversation.NewReplyGuard(logger, conversation.WithCooldown(cfg.ReplyCooldown))
	go guard.Run(ctx, cfg.GuardSweepInterval)

	opts := []conversation.EngineOption{
		conversation.WithHistoryStore(history),
		conversation.WithMetrics(metrics.NewPipelineMetrics(nil)),
		conversation.WithServiceID(cfg.ServiceID),
	}
	if client, model := buildRemoteLLM(ctx, cfg, logger); client != nil {
		opts = append(opts, conversation.WithLLMFallback(client, model, cfg.RemoteTimeout))
	}

	engine := conversation.NewEngine(logger, guard,
		conversation.NewObjectionDetector(logger),
		conversation.NewFlowAnalyzer(logger, conversation.WithBusinessHours(cfg.BusinessHoursOpen, cfg.BusinessHoursClose)),
		conversation.NewResponseSynthesizer(logger, time.Now().UnixNano()),
		opts...,
	)

	worker := conversation.NewWorker(engine, inbound, dispatcher, history, logger,
		conversation.WithWorkerCount(cfg.WorkerCount),
	)
	worker.Start(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down conversation worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("conversation worker stopped")
	case <-doneCtx.Done():
		logger.Error("conversation worker shutdown timed out", "error", doneCtx.Err())
	}
}

func buildQueue(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) conversation.QueueClient {
	if cfg.UseMemoryQueue || cfg.InboundQueueURL == "" {
		logger.Info("using in-memory queue")
		return conversation.NewMemoryQueue(256)
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	return conversation.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.InboundQueueURL)
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
