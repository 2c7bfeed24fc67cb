package registry

import (
	"context"
	"errors"
)

// CounterKey identifies the singleton registry-number counter row.
const CounterKey = "registryNumber"

// ErrCounterMissing is returned when the counter row does not exist yet.
var ErrCounterMissing = errors.New("counter missing")

// CounterStore persists named sequence counters. Increment must be atomic
// with respect to concurrent callers.
type CounterStore interface {
	// Increment adds one to the counter and returns the new value, or
	// ErrCounterMissing when the row does not exist.
	Increment(ctx context.Context, key string) (int64, error)
	// Seed creates the counter with value when absent; an existing counter
	// is left untouched.
	Seed(ctx context.Context, key string, value int64) error
	Get(ctx context.Context, key string) (int64, error)
	// Set overwrites (or creates) the counter. Used by operator repair only.
	Set(ctx context.Context, key string, value int64) error
}

// RecordSource exposes the registry numbers already written to file records,
// deleted records included.
type RecordSource interface {
	// LatestRegistryNumber returns the number on the most recently created
	// record, or "" when there are none.
	LatestRegistryNumber(ctx context.Context) (string, error)
	// HighestRegistryNumber returns the largest numeric registry number, or 0.
	HighestRegistryNumber(ctx context.Context) (int64, error)
}
