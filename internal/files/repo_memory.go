package files

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"registry-backend/internal/registry"
)

// MemoryRepo stores file records in process memory.
type MemoryRepo struct {
	mu    sync.RWMutex
	files []File
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(ctx context.Context, f File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTakenLocked(f.DisplayName) {
		return ErrDuplicateName
	}
	r.files = append(r.files, f)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.files {
		if f.ID == id && f.DeletedAt == nil {
			return f, nil
		}
	}
	return File{}, ErrNotFound
}

func (r *MemoryRepo) DisplayNameTaken(ctx context.Context, displayName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameTakenLocked(displayName), nil
}

func (r *MemoryRepo) nameTakenLocked(displayName string) bool {
	for _, f := range r.files {
		if f.DeletedAt == nil && strings.EqualFold(f.DisplayName, displayName) {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) Query(ctx context.Context, filters Filters) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]File, 0)
	// Walk newest-inserted first so equal timestamps keep insertion order.
	for i := len(r.files) - 1; i >= 0; i-- {
		if matches(r.files[i], filters) {
			out = append(out, r.files[i])
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return newerThan(out[i], out[j])
	})
	return page(out, filters.Limit, filters.Offset), nil
}

func (r *MemoryRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.files {
		if r.files[i].ID == id && r.files[i].DeletedAt == nil {
			deletedAt := at.UTC()
			r.files[i].DeletedAt = &deletedAt
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepo) LatestRegistryNumber(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *File
	for i := range r.files {
		if latest == nil || newerThan(r.files[i], *latest) {
			latest = &r.files[i]
		}
	}
	if latest == nil {
		return "", nil
	}
	return latest.RegistryNumber, nil
}

func (r *MemoryRepo) HighestRegistryNumber(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var highest int64
	for _, f := range r.files {
		if n, ok := registry.Parse(f.RegistryNumber); ok && n > highest {
			highest = n
		}
	}
	return highest, nil
}

func page(list []File, limit, offset int) []File {
	if offset > 0 {
		if offset >= len(list) {
			return []File{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

var (
	_ Repo                  = (*MemoryRepo)(nil)
	_ registry.RecordSource = (*MemoryRepo)(nil)
)

// newerThan orders by upload time, then by numeric registry number.
// Unparsable numbers rank below parsable ones.
func newerThan(a, b File) bool {
	if !a.UploadedAt.Equal(b.UploadedAt) {
		return a.UploadedAt.After(b.UploadedAt)
	}
	an, aok := registry.Parse(a.RegistryNumber)
	bn, bok := registry.Parse(b.RegistryNumber)
	if aok != bok {
		return aok
	}
	return an > bn
}
