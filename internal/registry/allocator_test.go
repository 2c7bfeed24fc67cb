package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

type stubRecords struct {
	latest  string
	highest int64
	err     error
}

func (s stubRecords) LatestRegistryNumber(ctx context.Context) (string, error) {
	return s.latest, s.err
}

func (s stubRecords) HighestRegistryNumber(ctx context.Context) (int64, error) {
	return s.highest, s.err
}

func TestAllocateSequentialFromEmpty(t *testing.T) {
	alloc := NewAllocator(NewMemoryCounterStore(), stubRecords{})
	want := []string{"001", "002", "003", "004", "005"}
	for i, w := range want {
		got, err := alloc.Allocate(context.Background())
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if got != w {
			t.Fatalf("Allocate #%d = %q, want %q", i, got, w)
		}
	}
}

func TestAllocateRecoversFromLatestRecord(t *testing.T) {
	alloc := NewAllocator(NewMemoryCounterStore(), stubRecords{latest: "007"})
	got, err := alloc.Allocate(context.Background())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "008" {
		t.Fatalf("got %q, want 008", got)
	}
	// The counter now exists, so the next call takes the fast path.
	got, _ = alloc.Allocate(context.Background())
	if got != "009" {
		t.Fatalf("got %q, want 009", got)
	}
}

func TestAllocateUsesExistingCounter(t *testing.T) {
	counters := NewMemoryCounterStore()
	_ = counters.Set(context.Background(), CounterKey, 41)
	alloc := NewAllocator(counters, stubRecords{})

	got, err := alloc.Allocate(context.Background())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "042" {
		t.Fatalf("got %q, want 042", got)
	}
}

func TestAllocateTreatsBadLatestAsZero(t *testing.T) {
	cases := []stubRecords{
		{latest: "GR-12"},
		{latest: "-4"},
		{err: errors.New("connection reset")},
	}
	for _, rec := range cases {
		alloc := NewAllocator(NewMemoryCounterStore(), rec)
		got, err := alloc.Allocate(context.Background())
		if err != nil {
			t.Fatalf("Allocate(%+v): %v", rec, err)
		}
		if got != "001" {
			t.Fatalf("Allocate(%+v) = %q, want 001", rec, got)
		}
	}
}

func TestAllocateWidensPastThreeDigits(t *testing.T) {
	counters := NewMemoryCounterStore()
	_ = counters.Set(context.Background(), CounterKey, 999)
	got, _ := NewAllocator(counters, nil).Allocate(context.Background())
	if got != "1000" {
		t.Fatalf("got %q, want 1000", got)
	}
}

type brokenCounters struct {
	*MemoryCounterStore
}

func (*brokenCounters) Increment(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("db down")
}

func (*brokenCounters) Seed(ctx context.Context, key string, value int64) error {
	return nil
}

func TestAllocatePersistentFailureIsUnavailable(t *testing.T) {
	alloc := NewAllocator(&brokenCounters{NewMemoryCounterStore()}, stubRecords{latest: "003"})
	if _, err := alloc.Allocate(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAllocateConcurrentIsContiguous(t *testing.T) {
	const m = 64
	alloc := NewAllocator(NewMemoryCounterStore(), stubRecords{latest: "010"})

	var mu sync.Mutex
	got := make([]string, 0, m)
	var g errgroup.Group
	for i := 0; i < m; i++ {
		g.Go(func() error {
			n, err := alloc.Allocate(context.Background())
			if err != nil {
				return err
			}
			mu.Lock()
			got = append(got, n)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	sort.Strings(got)
	for i, n := range got {
		if want := Format(int64(11 + i)); n != want {
			t.Fatalf("position %d = %q, want %q (all: %v)", i, n, want, got)
		}
	}
}

func TestParseAndFormat(t *testing.T) {
	if n, ok := Parse(" 042 "); !ok || n != 42 {
		t.Fatalf("Parse(042) = %d, %v", n, ok)
	}
	if _, ok := Parse(""); ok {
		t.Fatalf("empty should not parse")
	}
	if Format(7) != "007" || Format(12345) != "12345" {
		t.Fatalf("unexpected formatting %q %q", Format(7), Format(12345))
	}
}
