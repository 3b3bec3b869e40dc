package main

import (
	"context"
	"testing"

	appconfig "github.com/autovista-ai/dealership-ai-platform/internal/config"
	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

func TestNewRedisClientTLS(t *testing.T) {
	plain := newRedisClient(&appconfig.Config{RedisAddr: "localhost:6379"})
	defer func() { _ = plain.Close() }()
	if plain.Options().TLSConfig != nil {
		t.Fatal("expected no TLS config by default")
	}

	secure := newRedisClient(&appconfig.Config{RedisAddr: "localhost:6379", RedisTLS: true})
	defer func() { _ = secure.Close() }()
	if secure.Options().TLSConfig == nil {
		t.Fatal("expected TLS config when RedisTLS is set")
	}
}

func TestBuildRemoteLLMUnconfigured(t *testing.T) {
	logger := logging.New("error")
	client, model := buildRemoteLLM(context.Background(), &appconfig.Config{}, logger)
	if client != nil || model != "" {
		t.Fatalf("expected no remote client without credentials, got model %q", model)
	}
}

func TestBuildRemoteLLMBedrockOnly(t *testing.T) {
	logger := logging.New("error")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	cfg := &appconfig.Config{
		AWSRegion:          "us-east-1",
		AWSAccessKeyID:     "test",
		AWSSecretAccessKey: "test",
		BedrockModelID:     "anthropic.claude-3-haiku-20240307-v1:0",
	}
	client, model := buildRemoteLLM(context.Background(), cfg, logger)
	if client == nil {
		t.Fatal("expected bedrock client")
	}
	if model != cfg.BedrockModelID {
		t.Fatalf("expected bedrock model id, got %q", model)
	}
}
