package registry

import (
	"context"
	"errors"
	"fmt"

	"registry-backend/internal/shared/telemetry"
)

// Status describes the counter relative to the stored records.
type Status struct {
	Counter        int64
	CounterPresent bool
	Latest         string
	Highest        int64
}

// Stale reports whether the next allocation would reuse an existing number.
func (s Status) Stale() bool {
	return !s.CounterPresent || s.Counter < s.Highest
}

// Status reads the counter and the record-side numbers.
func (a *Allocator) Status(ctx context.Context) (Status, error) {
	var st Status
	counter, err := a.Counters.Get(ctx, a.key())
	switch {
	case err == nil:
		st.Counter = counter
		st.CounterPresent = true
	case errors.Is(err, ErrCounterMissing):
	default:
		return Status{}, fmt.Errorf("read counter: %w", err)
	}

	if a.Records != nil {
		if st.Latest, err = a.Records.LatestRegistryNumber(ctx); err != nil {
			return Status{}, fmt.Errorf("read latest record: %w", err)
		}
		if st.Highest, err = a.Records.HighestRegistryNumber(ctx); err != nil {
			return Status{}, fmt.Errorf("read highest record: %w", err)
		}
	}
	return st, nil
}

// Repair raises a missing or stale counter to the highest recorded number.
// A counter already at or above it is left alone. It returns the status seen
// before the repair and whether anything was written.
func (a *Allocator) Repair(ctx context.Context) (Status, bool, error) {
	st, err := a.Status(ctx)
	if err != nil {
		return Status{}, false, err
	}
	if !st.Stale() {
		return st, false, nil
	}
	if err := a.Counters.Set(ctx, a.key(), st.Highest); err != nil {
		return st, false, fmt.Errorf("set counter: %w", err)
	}
	telemetry.Warn("registry.counter_repaired", map[string]any{
		"counter":         a.key(),
		"previous":        st.Counter,
		"previous_exists": st.CounterPresent,
		"value":           st.Highest,
	})
	return st, true, nil
}
