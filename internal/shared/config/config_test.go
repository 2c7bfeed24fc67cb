package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("EVENTS_BACKEND", "")
	t.Setenv("TOKEN_TTL", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.EventsBackend != "none" {
		t.Fatalf("expected events backend none, got %q", cfg.EventsBackend)
	}
	if cfg.TokenTTL != 100*time.Hour {
		t.Fatalf("expected token ttl 100h, got %s", cfg.TokenTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "MinIO")
	t.Setenv("EVENTS_BACKEND", "kafka")
	t.Setenv("EVENTS_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("CACHE_TTL", "not-a-duration")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "minio" {
		t.Fatalf("expected minio, got %q", cfg.ObjectStoreType)
	}
	if cfg.EventsBackend != "kafka" {
		t.Fatalf("expected kafka, got %q", cfg.EventsBackend)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.MaxUploadBytes != 1024 {
		t.Fatalf("expected max upload 1024, got %d", cfg.MaxUploadBytes)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected fallback cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.CacheSize != 0 {
		t.Fatalf("record cache should be off by default, got size %d", cfg.CacheSize)
	}
}
