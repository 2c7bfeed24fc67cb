package registry

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGCounterIncrementReturnsSeq(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("UPDATE counters SET seq = seq \\+ 1").
		WithArgs(CounterKey).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(42))

	store := &PGCounterStore{DB: db}
	seq, err := store.Increment(context.Background(), CounterKey)
	if err != nil || seq != 42 {
		t.Fatalf("Increment = %d, %v; want 42", seq, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGCounterIncrementMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("UPDATE counters").WithArgs(CounterKey).WillReturnError(sql.ErrNoRows)

	store := &PGCounterStore{DB: db}
	if _, err := store.Increment(context.Background(), CounterKey); !errors.Is(err, ErrCounterMissing) {
		t.Fatalf("expected ErrCounterMissing, got %v", err)
	}
}

func TestPGAllocatorSeedsThenIncrements(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("UPDATE counters").WithArgs(CounterKey).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}))
	mock.ExpectExec("INSERT INTO counters .* ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(CounterKey, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE counters").WithArgs(CounterKey).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(8))

	alloc := NewAllocator(&PGCounterStore{DB: db}, stubRecords{latest: "007"})
	got, err := alloc.Allocate(context.Background())
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got != "008" {
		t.Fatalf("got %q, want 008", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGCounterSetUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectExec("ON CONFLICT \\(id\\) DO UPDATE SET seq = EXCLUDED.seq").
		WithArgs(CounterKey, int64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := &PGCounterStore{DB: db}
	if err := store.Set(context.Background(), CounterKey, 12); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
