package files

import (
	"context"
	"time"
)

// Repo defines persistence operations for file records.
type Repo interface {
	// Create inserts a record. A live record with the same display name
	// (case-insensitive) yields ErrDuplicateName.
	Create(ctx context.Context, f File) error
	// GetByID returns a live record or ErrNotFound.
	GetByID(ctx context.Context, id string) (File, error)
	DisplayNameTaken(ctx context.Context, displayName string) (bool, error)
	// Query returns live records matching f, newest upload first.
	Query(ctx context.Context, f Filters) ([]File, error)
	// SoftDelete hides a live record; ErrNotFound when there is none.
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// Registry number sources; both include deleted records.
	LatestRegistryNumber(ctx context.Context) (string, error)
	HighestRegistryNumber(ctx context.Context) (int64, error)
}
