package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"registry-backend/internal/registry"
	"registry-backend/internal/shared/auth"
	"registry-backend/internal/shared/storage/db"
)

const displayNameIndex = "files_display_name_active_idx"

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const fileColumns = `id, stored_name, original_name, display_name, gr_number, size_bytes, mime_type, storage_path,
guardian_name, address, person_name, property_number, user_selected_date, upload_date, uploaded_by, uploaded_by_role, deleted_at`

// Create inserts a new file record.
func (r *PGRepo) Create(ctx context.Context, f File) error {
	const query = `
INSERT INTO files (
    id,
    stored_name,
    original_name,
    display_name,
    gr_number,
    size_bytes,
    mime_type,
    storage_path,
    guardian_name,
    address,
    person_name,
    property_number,
    user_selected_date,
    upload_date,
    uploaded_by,
    uploaded_by_role
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		f.ID,
		f.StoredName,
		f.OriginalName,
		f.DisplayName,
		f.RegistryNumber,
		f.Size,
		f.MimeType,
		f.StoragePath,
		f.GuardianName,
		f.Address,
		f.PersonName,
		f.PropertyNumber,
		f.UserSelectedDate,
		f.UploadedAt,
		f.OwnerID,
		string(f.UploadedByRole),
	)
	if db.IsUniqueViolation(err, displayNameIndex) {
		return ErrDuplicateName
	}
	return err
}

// GetByID fetches a live record.
func (r *PGRepo) GetByID(ctx context.Context, id string) (File, error) {
	const query = `SELECT ` + fileColumns + `
FROM files
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	f, err := scanFile(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return File{}, ErrNotFound
		}
		return File{}, err
	}
	return f, nil
}

func (r *PGRepo) DisplayNameTaken(ctx context.Context, displayName string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM files WHERE lower(display_name) = lower($1) AND deleted_at IS NULL
)`
	var taken bool
	if err := r.DB.QueryRowContext(ctx, query, displayName).Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// gr_number is text; "1000" must sort above "999".
const (
	numericRegistryNumber = `gr_number ~ '^[0-9]{1,18}$'`
	registryOrder         = `CASE WHEN ` + numericRegistryNumber + ` THEN gr_number::bigint END DESC NULLS LAST`
)

// Query lists live records matching the filters, newest upload first.
func (r *PGRepo) Query(ctx context.Context, f Filters) ([]File, error) {
	where, args := buildWhere(f)
	query := `SELECT ` + fileColumns + `
FROM files
WHERE ` + where + `
ORDER BY upload_date DESC, ` + registryOrder
	next := len(args) + 1
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", next)
		args = append(args, f.Limit)
		next++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", next)
		args = append(args, f.Offset)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *PGRepo) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE files SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, id, at.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) LatestRegistryNumber(ctx context.Context) (string, error) {
	const query = `SELECT gr_number FROM files ORDER BY upload_date DESC, ` + registryOrder + ` LIMIT 1`
	var latest string
	if err := r.DB.QueryRowContext(ctx, query).Scan(&latest); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return latest, nil
}

func (r *PGRepo) HighestRegistryNumber(ctx context.Context) (int64, error) {
	const query = `
SELECT COALESCE(MAX(gr_number::bigint), 0)
FROM files
WHERE ` + numericRegistryNumber
	var highest int64
	if err := r.DB.QueryRowContext(ctx, query).Scan(&highest); err != nil {
		return 0, err
	}
	return highest, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (File, error) {
	var f File
	var role string
	var deletedAt sql.NullTime
	err := row.Scan(
		&f.ID,
		&f.StoredName,
		&f.OriginalName,
		&f.DisplayName,
		&f.RegistryNumber,
		&f.Size,
		&f.MimeType,
		&f.StoragePath,
		&f.GuardianName,
		&f.Address,
		&f.PersonName,
		&f.PropertyNumber,
		&f.UserSelectedDate,
		&f.UploadedAt,
		&f.OwnerID,
		&role,
		&deletedAt,
	)
	if err != nil {
		return File{}, err
	}
	f.UploadedByRole = auth.ParseRole(role)
	if deletedAt.Valid {
		t := deletedAt.Time
		f.DeletedAt = &t
	}
	return f, nil
}

var (
	_ Repo                  = (*PGRepo)(nil)
	_ registry.RecordSource = (*PGRepo)(nil)
)
