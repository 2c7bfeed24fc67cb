package files

import "time"

// FileResponse is the outward-facing representation of a file record. Field
// names follow the column names existing clients already read.
type FileResponse struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	OriginalName     string    `json:"original_name"`
	DisplayName      string    `json:"display_name"`
	GRNumber         string    `json:"gr_number"`
	Size             int64     `json:"size"`
	MimeType         string    `json:"mimetype"`
	Path             string    `json:"path"`
	GuardianName     string    `json:"guardian_name"`
	Address          string    `json:"address"`
	PersonName       string    `json:"person_name"`
	PropertyNumber   string    `json:"property_number"`
	UserSelectedDate time.Time `json:"user_selected_date"`
	UploadDate       time.Time `json:"upload_date"`
	Owner            string    `json:"owner"`
	UploadedByRole   string    `json:"uploaded_by_role"`
}

func toResponse(f File) FileResponse {
	return FileResponse{
		ID:               f.ID,
		Filename:         f.StoredName,
		OriginalName:     f.OriginalName,
		DisplayName:      f.DisplayName,
		GRNumber:         f.RegistryNumber,
		Size:             f.Size,
		MimeType:         f.MimeType,
		Path:             f.StoragePath,
		GuardianName:     f.GuardianName,
		Address:          f.Address,
		PersonName:       f.PersonName,
		PropertyNumber:   f.PropertyNumber,
		UserSelectedDate: f.UserSelectedDate,
		UploadDate:       f.UploadedAt,
		Owner:            f.OwnerID,
		UploadedByRole:   string(f.UploadedByRole),
	}
}

func toResponses(list []File) []FileResponse {
	out := make([]FileResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toResponse(f))
	}
	return out
}
