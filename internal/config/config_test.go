package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BEDROCK_MODEL_ID", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BedrockModelID != "" {
		t.Fatalf("expected default bedrock model empty, got %s", cfg.BedrockModelID)
	}
	if cfg.ReplyCooldown != 30*time.Second {
		t.Fatalf("expected default reply cooldown, got %s", cfg.ReplyCooldown)
	}
	if cfg.BusinessHoursOpen != 9 || cfg.BusinessHoursClose != 20 {
		t.Fatalf("expected default business hours, got %d-%d", cfg.BusinessHoursOpen, cfg.BusinessHoursClose)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.GeminiModel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("WORKER_COUNT", "4")
	t.Setenv("REPLY_COOLDOWN", "45s")
	t.Setenv("GUARD_SWEEP_INTERVAL", "5m")
	t.Setenv("BUSINESS_HOURS_OPEN", "8")
	t.Setenv("BUSINESS_HOURS_CLOSE", "21")
	t.Setenv("INBOUND_QUEUE_URL", "http://localstack:4566/000000000000/inbound")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected env override, got %s", cfg.Env)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.WorkerCount != 4 {
		t.Fatalf("expected worker count override, got %d", cfg.WorkerCount)
	}
	if cfg.ReplyCooldown != 45*time.Second {
		t.Fatalf("expected reply cooldown override, got %s", cfg.ReplyCooldown)
	}
	if cfg.GuardSweepInterval != 5*time.Minute {
		t.Fatalf("expected sweep interval override, got %s", cfg.GuardSweepInterval)
	}
	if cfg.BusinessHoursOpen != 8 || cfg.BusinessHoursClose != 21 {
		t.Fatalf("expected business hours override, got %d-%d", cfg.BusinessHoursOpen, cfg.BusinessHoursClose)
	}
	if cfg.InboundQueueURL == "" {
		t.Fatal("expected queue URL override")
	}
}
