package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"registry-backend/internal/events"
	"registry-backend/internal/shared/auth"
	"registry-backend/internal/shared/metrics"
	"registry-backend/internal/shared/storage/object"
	"registry-backend/internal/shared/telemetry"
	"registry-backend/internal/shared/util"
)

const cleanupTimeout = 10 * time.Second

// NumberAllocator issues registry numbers.
type NumberAllocator interface {
	Allocate(ctx context.Context) (string, error)
}

// Service contains the upload pipeline and the query operations.
type Service struct {
	Repo      Repo
	Store     object.BlobStore
	Allocator NumberAllocator
	Events    events.Publisher
	Cache     *Cache
	Now       func() time.Time
}

// UploadInput is one multipart upload. File may be nil when the client sent
// no file part.
type UploadInput struct {
	File           io.Reader
	FileName       string
	ContentType    string
	DisplayName    string
	GuardianName   string
	Address        string
	PersonName     string
	PropertyNumber string
	Date           string
	RequestID      string
}

// Upload validates the input, stores the bytes, allocates a registry number
// and records the file. Validation failures happen before any write.
func (s *Service) Upload(ctx context.Context, id auth.Identity, in UploadInput) (File, error) {
	start := s.now()
	f, err := s.upload(ctx, id, in)
	metrics.ObserveUploadSeconds(s.now().Sub(start).Seconds())
	if err != nil {
		metrics.IncUploadFailure(failureReason(err))
		return File{}, err
	}
	metrics.IncUploaded()
	return f, nil
}

func (s *Service) upload(ctx context.Context, id auth.Identity, in UploadInput) (File, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	in.GuardianName = strings.TrimSpace(in.GuardianName)
	in.Address = strings.TrimSpace(in.Address)
	in.PersonName = strings.TrimSpace(in.PersonName)
	in.PropertyNumber = strings.TrimSpace(in.PropertyNumber)

	if err := validateUpload(id, in); err != nil {
		return File{}, err
	}

	taken, err := s.Repo.DisplayNameTaken(ctx, in.DisplayName)
	if err != nil {
		return File{}, fmt.Errorf("%w: check display name: %w", ErrStorage, err)
	}
	if taken {
		return File{}, ErrDuplicateName
	}

	obj, err := s.Store.Save(ctx, id.UserID, in.FileName, in.File)
	if err != nil {
		return File{}, fmt.Errorf("%w: save blob: %w", ErrStorage, err)
	}

	number, err := s.Allocator.Allocate(ctx)
	if err != nil {
		s.discardBlob(ctx, obj.Key, in.RequestID)
		return File{}, fmt.Errorf("%w: allocate registry number: %w", ErrStorage, err)
	}

	now := s.now().UTC()
	mimeType := strings.TrimSpace(in.ContentType)
	if mimeType == "" {
		mimeType = obj.MimeType
	}
	f := File{
		ID:               uuid.NewString(),
		StoredName:       obj.StoredName,
		OriginalName:     in.FileName,
		DisplayName:      in.DisplayName,
		RegistryNumber:   number,
		Size:             obj.Size,
		MimeType:         mimeType,
		StoragePath:      obj.Key,
		GuardianName:     in.GuardianName,
		Address:          in.Address,
		PersonName:       in.PersonName,
		PropertyNumber:   in.PropertyNumber,
		UserSelectedDate: NormalizeSelectedDate(in.Date, now),
		UploadedAt:       now,
		OwnerID:          id.UserID,
		UploadedByRole:   id.Role,
	}

	if err := s.Repo.Create(ctx, f); err != nil {
		s.discardBlob(ctx, obj.Key, in.RequestID)
		if errors.Is(err, ErrDuplicateName) {
			return File{}, err
		}
		return File{}, fmt.Errorf("%w: insert record: %w", ErrStorage, err)
	}

	telemetry.Info("files.registered", map[string]any{
		"file_id":         f.ID,
		"registry_number": f.RegistryNumber,
		"size":            f.Size,
		"request_id":      in.RequestID,
	})
	ev := events.New(events.FileRegistered)
	ev.FileID = f.ID
	ev.RegistryNumber = f.RegistryNumber
	ev.StorageKey = f.StoragePath
	ev.RequestID = in.RequestID
	events.PublishBestEffort(ctx, s.Events, ev)

	s.Cache.Set(f)
	return f, nil
}

func validateUpload(id auth.Identity, in UploadInput) error {
	if !id.Role.CanManageFiles() {
		return forbiddenError("only admin can upload files")
	}
	if in.File == nil {
		return badRequestError("no file")
	}
	if in.DisplayName == "" {
		return badRequestError("display name required")
	}
	if in.GuardianName == "" {
		return badRequestError("guardian name required")
	}
	if in.Address == "" {
		return badRequestError("address required")
	}
	if _, err := util.SanitizeFileName(in.FileName); err != nil {
		return badRequestError("invalid file name")
	}
	return nil
}

// discardBlob removes a blob whose record was never written. The request
// context may already be cancelled, so cleanup runs detached from it. When
// the delete fails the key is handed to the worker through an event.
func (s *Service) discardBlob(ctx context.Context, key, requestID string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	err := s.Store.Delete(cctx, key)
	if err == nil {
		return
	}
	metrics.IncOrphanedBlob()
	telemetry.Error("files.blob_orphaned", map[string]any{
		"storage_key": key,
		"request_id":  requestID,
		"error":       err.Error(),
	})
	ev := events.New(events.BlobOrphaned)
	ev.StorageKey = key
	ev.RequestID = requestID
	events.PublishBestEffort(cctx, s.Events, ev)
}

// Query returns live records matching the filters, newest first. An empty
// result is an empty slice.
func (s *Service) Query(ctx context.Context, f Filters) ([]File, error) {
	list, err := s.Repo.Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: query files: %w", ErrStorage, err)
	}
	if list == nil {
		list = []File{}
	}
	return list, nil
}

// Get returns one live record.
func (s *Service) Get(ctx context.Context, id string) (File, error) {
	if strings.TrimSpace(id) == "" {
		return File{}, ErrNotFound
	}
	if f, ok := s.Cache.Get(id); ok {
		return f, nil
	}
	f, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return File{}, ErrNotFound
		}
		return File{}, fmt.Errorf("%w: get file: %w", ErrStorage, err)
	}
	s.Cache.Set(f)
	return f, nil
}

// OpenContent returns the record and a reader over its bytes. The caller
// closes the reader.
func (s *Service) OpenContent(ctx context.Context, id string) (File, io.ReadCloser, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return File{}, nil, err
	}
	rc, err := s.Store.Open(ctx, f.StoragePath)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return File{}, nil, ErrBlobMissing
		}
		return File{}, nil, fmt.Errorf("%w: open blob: %w", ErrStorage, err)
	}
	return f, rc, nil
}

// Delete soft-deletes the record and removes its blob. The registry number
// stays reserved.
func (s *Service) Delete(ctx context.Context, id auth.Identity, fileID string) error {
	if !id.Role.CanManageFiles() {
		return forbiddenError("only admin can delete files")
	}
	f, err := s.Repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: get file: %w", ErrStorage, err)
	}
	if err := s.Repo.SoftDelete(ctx, f.ID, s.now()); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("%w: delete record: %w", ErrStorage, err)
	}
	s.Cache.Delete(f.ID)

	if err := s.Store.Delete(ctx, f.StoragePath); err != nil {
		s.discardBlob(ctx, f.StoragePath, "")
	}

	ev := events.New(events.FileDeleted)
	ev.FileID = f.ID
	ev.RegistryNumber = f.RegistryNumber
	ev.StorageKey = f.StoragePath
	events.PublishBestEffort(ctx, s.Events, ev)
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

var dateOnly = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeSelectedDate maps the client's date field to a UTC instant:
// YYYY-MM-DD is that day at midnight, RFC 3339 is converted to UTC, and
// anything else falls back to now.
func NormalizeSelectedDate(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC()
	}
	if dateOnly.MatchString(raw) {
		if t, err := time.Parse(time.DateOnly, raw); err == nil {
			return t.UTC()
		}
		return now.UTC()
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC()
	}
	return now.UTC()
}

// ParseDay parses a query date filter. Both YYYY-MM-DD and RFC 3339 are
// accepted; only the UTC calendar day is kept.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, badRequestError("invalid date")
	}
	start, _ := dayBounds(t)
	return start, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "bad_request"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "storage"
	}
}
