package files

import (
	"time"

	"registry-backend/internal/shared/auth"
)

// File is a registered document and its metadata.
type File struct {
	ID               string
	StoredName       string
	OriginalName     string
	DisplayName      string
	RegistryNumber   string
	Size             int64
	MimeType         string
	StoragePath      string
	GuardianName     string
	Address          string
	PersonName       string
	PropertyNumber   string
	UserSelectedDate time.Time
	UploadedAt       time.Time
	OwnerID          string
	UploadedByRole   auth.Role
	DeletedAt        *time.Time
}

// Filters narrows a query. Empty fields are ignored; all set fields must
// match. Date selects one UTC calendar day of UserSelectedDate.
type Filters struct {
	Search         string
	GuardianName   string
	Address        string
	PersonName     string
	PropertyNumber string
	DisplayName    string
	Date           *time.Time
	Limit          int
	Offset         int
}
