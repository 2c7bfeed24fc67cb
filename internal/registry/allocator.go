package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"registry-backend/internal/shared/metrics"
	"registry-backend/internal/shared/telemetry"
)

// ErrUnavailable is returned when no registry number could be issued.
var ErrUnavailable = errors.New("registry number unavailable")

// Allocator issues sequential, zero-padded registry numbers.
type Allocator struct {
	Counters CounterStore
	Records  RecordSource
	Key      string
}

func NewAllocator(counters CounterStore, records RecordSource) *Allocator {
	return &Allocator{Counters: counters, Records: records, Key: CounterKey}
}

type outcomeKind int

const (
	counterFound outcomeKind = iota
	counterMissing
)

// counterOutcome is the result of the fast-path increment. err is set for
// counterMissing when the store failed rather than reporting a missing row.
type counterOutcome struct {
	kind outcomeKind
	seq  int64
	err  error
}

// Allocate returns the next registry number. Numbers are unique and
// contiguous across concurrent callers because the increment happens inside
// the counter store.
func (a *Allocator) Allocate(ctx context.Context) (string, error) {
	out := a.increment(ctx)
	switch out.kind {
	case counterFound:
		metrics.IncAllocation()
		return Format(out.seq), nil
	default:
		seq, err := a.recoverFromLatestRecord(ctx, out.err)
		if err != nil {
			return "", err
		}
		metrics.IncAllocation()
		return Format(seq), nil
	}
}

func (a *Allocator) increment(ctx context.Context) counterOutcome {
	seq, err := a.Counters.Increment(ctx, a.key())
	if err != nil {
		if errors.Is(err, ErrCounterMissing) {
			return counterOutcome{kind: counterMissing}
		}
		return counterOutcome{kind: counterMissing, err: err}
	}
	return counterOutcome{kind: counterFound, seq: seq}
}

// recoverFromLatestRecord seeds a missing counter from the newest file record
// and retries the increment. Concurrent seeders are safe: only the first seed
// lands and every caller then increments atomically.
func (a *Allocator) recoverFromLatestRecord(ctx context.Context, cause error) (int64, error) {
	fields := map[string]any{"counter": a.key()}
	if cause != nil {
		fields["error"] = cause.Error()
	}

	base := a.latestBase(ctx)
	fields["base"] = base
	telemetry.Warn("registry.counter_recovery", fields)
	metrics.IncCounterRecovery()

	if err := a.Counters.Seed(ctx, a.key(), base); err != nil {
		return 0, fmt.Errorf("%w: seed counter: %w", ErrUnavailable, err)
	}
	seq, err := a.Counters.Increment(ctx, a.key())
	if err != nil {
		return 0, fmt.Errorf("%w: increment counter: %w", ErrUnavailable, err)
	}
	return seq, nil
}

// latestBase parses the newest record's number. Lookup failures and
// unparsable values fall back to zero.
func (a *Allocator) latestBase(ctx context.Context) int64 {
	if a.Records == nil {
		return 0
	}
	latest, err := a.Records.LatestRegistryNumber(ctx)
	if err != nil {
		telemetry.Warn("registry.latest_lookup_failed", map[string]any{"error": err.Error()})
		return 0
	}
	n, ok := Parse(latest)
	if !ok {
		if latest != "" {
			telemetry.Warn("registry.latest_unparsable", map[string]any{"registry_number": latest})
		}
		return 0
	}
	return n
}

func (a *Allocator) key() string {
	if a.Key == "" {
		return CounterKey
	}
	return a.Key
}

// Format zero-pads seq to at least three digits; wider values are kept whole.
func Format(seq int64) string {
	return fmt.Sprintf("%03d", seq)
}

// Parse reads a registry number back into its sequence value.
func Parse(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
