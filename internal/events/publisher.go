package events

import (
	"context"
	"fmt"

	"registry-backend/internal/shared/metrics"
	"registry-backend/internal/shared/telemetry"
)

// Publisher delivers domain events to a backend.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend      string
	AWSRegion    string
	SQSQueueURL  string
	KafkaBrokers []string
	KafkaTopic   string
}

// NewPublisher builds the publisher for opts.Backend ("none", "sqs", "kafka").
func NewPublisher(ctx context.Context, opts Options) (Publisher, error) {
	switch opts.Backend {
	case "", "none":
		return Nop{}, nil
	case "sqs":
		return NewSQSPublisher(ctx, opts.AWSRegion, opts.SQSQueueURL)
	case "kafka":
		return NewKafkaPublisher(opts.KafkaBrokers, opts.KafkaTopic)
	default:
		return nil, fmt.Errorf("unknown events backend %q", opts.Backend)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(ctx context.Context, ev Event) error { return nil }
func (Nop) Close() error                                { return nil }

// PublishBestEffort publishes ev and logs instead of returning failures.
func PublishBestEffort(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		metrics.IncEventPublished(string(ev.Type), "error")
		telemetry.Warn("events.publish_failed", map[string]any{
			"type":    string(ev.Type),
			"file_id": ev.FileID,
			"error":   err.Error(),
		})
		return
	}
	metrics.IncEventPublished(string(ev.Type), "ok")
}
