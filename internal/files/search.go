package files

import (
	"fmt"
	"strings"
	"time"
)

// searchColumns are matched by the free-text search term.
var searchColumns = []string{
	"display_name",
	"gr_number",
	"person_name",
	"guardian_name",
	"property_number",
	"address",
}

// buildWhere turns filters into a WHERE clause with $n placeholders and the
// matching arguments. Soft-deleted rows are always excluded.
func buildWhere(f Filters) (string, []any) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any
	argNum := 1

	if term := strings.TrimSpace(f.Search); term != "" {
		ors := make([]string, 0, len(searchColumns))
		for _, col := range searchColumns {
			ors = append(ors, fmt.Sprintf("%s ILIKE $%d ESCAPE '\\'", col, argNum))
		}
		args = append(args, likePattern(term))
		argNum++
		conditions = append(conditions, "("+strings.Join(ors, " OR ")+")")
	}

	fields := []struct {
		col   string
		value string
	}{
		{"guardian_name", f.GuardianName},
		{"address", f.Address},
		{"person_name", f.PersonName},
		{"property_number", f.PropertyNumber},
		{"display_name", f.DisplayName},
	}
	for _, fl := range fields {
		v := strings.TrimSpace(fl.value)
		if v == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d ESCAPE '\\'", fl.col, argNum))
		args = append(args, likePattern(v))
		argNum++
	}

	if f.Date != nil {
		start, end := dayBounds(*f.Date)
		conditions = append(conditions, fmt.Sprintf("user_selected_date >= $%d AND user_selected_date < $%d", argNum, argNum+1))
		args = append(args, start, end)
	}

	return strings.Join(conditions, " AND "), args
}

// likePattern wraps s for a substring match, escaping LIKE metacharacters so
// user input matches literally.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// dayBounds returns [00:00, next 00:00) of t's UTC calendar day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// matches applies f in memory with the same semantics as buildWhere.
func matches(file File, f Filters) bool {
	if file.DeletedAt != nil {
		return false
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		hay := []string{file.DisplayName, file.RegistryNumber, file.PersonName, file.GuardianName, file.PropertyNumber, file.Address}
		found := false
		for _, h := range hay {
			if containsFold(h, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	checks := []struct{ value, want string }{
		{file.GuardianName, f.GuardianName},
		{file.Address, f.Address},
		{file.PersonName, f.PersonName},
		{file.PropertyNumber, f.PropertyNumber},
		{file.DisplayName, f.DisplayName},
	}
	for _, c := range checks {
		want := strings.TrimSpace(c.want)
		if want != "" && !containsFold(c.value, want) {
			return false
		}
	}
	if f.Date != nil {
		start, end := dayBounds(*f.Date)
		d := file.UserSelectedDate
		if d.Before(start) || !d.Before(end) {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
