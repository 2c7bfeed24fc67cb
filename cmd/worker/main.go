package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"registry-backend/internal/bootstrap"
	"registry-backend/internal/events"
	"registry-backend/internal/shared/config"
	"registry-backend/internal/shared/metrics"
	"registry-backend/internal/shared/storage/object"
	"registry-backend/internal/shared/telemetry"
)

const (
	defaultVisibilitySeconds  = 120
	defaultWorkerConcurrency  = 4
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()
	telemetry.Configure(telemetry.FileSink{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	queueURL := strings.TrimSpace(cfg.SQSQueueURL)
	if queueURL == "" {
		log.Fatal("EVENTS_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	visibilitySeconds := envInt("WORKER_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("WORKER_CONCURRENCY", defaultWorkerConcurrency)
	shutdownTimeout := time.Duration(envInt("WORKER_SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}

	store, err := bootstrap.BuildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	consumer := &events.Consumer{
		Client:            sqs.NewFromConfig(awsCfg),
		QueueURL:          queueURL,
		VisibilitySeconds: int32(visibilitySeconds),
	}
	handle := newEventHandler(store)

	sem := make(chan struct{}, max(1, concurrency))
	var wg sync.WaitGroup

	telemetry.Info("worker.started", map[string]any{
		"queue_url":   queueURL,
		"concurrency": concurrency,
		"visibility":  visibilitySeconds,
		"store":       cfg.ObjectStoreType,
	})

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		msgs, err := consumer.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			telemetry.Warn("worker.receive_failed", map[string]any{"error": err.Error()})
			continue
		}

		for _, msg := range msgs {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				consumer.Handle(ctx, m, handle)
			}(msg)
		}
	}

	telemetry.Info("worker.draining", map[string]any{"timeout": shutdownTimeout.String()})
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		telemetry.Warn("worker.shutdown_timeout", nil)
	}
}

// newEventHandler removes orphaned blobs and acknowledges every other event
// type. Blob deletes are idempotent, so a redelivered event is harmless.
func newEventHandler(store object.BlobStore) events.Handler {
	return func(ctx context.Context, ev events.Event) error {
		if ev.Type != events.BlobOrphaned {
			metrics.IncWorkerEvent(string(ev.Type), "skipped")
			return nil
		}
		key := strings.TrimSpace(ev.StorageKey)
		if key == "" {
			metrics.IncWorkerEvent(string(ev.Type), "invalid")
			return fmt.Errorf("%w: blob.orphaned without storage key", events.ErrPoison)
		}
		if err := store.Delete(ctx, key); err != nil {
			metrics.IncWorkerEvent(string(ev.Type), "error")
			return fmt.Errorf("delete orphaned blob %s: %w", key, err)
		}
		metrics.IncWorkerEvent(string(ev.Type), "cleaned")
		telemetry.Info("worker.blob_cleaned", map[string]any{
			"storage_key": key,
			"request_id":  ev.RequestID,
		})
		return nil
	}
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
