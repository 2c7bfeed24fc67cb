package files

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestBuildWhereAlwaysExcludesDeleted(t *testing.T) {
	where, args := buildWhere(Filters{})
	if where != "deleted_at IS NULL" {
		t.Fatalf("where = %q", where)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestBuildWhereNumbersPlaceholdersInOrder(t *testing.T) {
	day := time.Date(2024, 3, 15, 18, 30, 0, 0, time.FixedZone("IST", 19800))
	where, args := buildWhere(Filters{
		Search:       " smith ",
		GuardianName: "john",
		DisplayName:  "deed",
		Date:         &day,
	})

	if strings.Count(where, "$1") != len(searchColumns) {
		t.Fatalf("search term should bind $1 on every column: %s", where)
	}
	for _, want := range []string{
		"guardian_name ILIKE $2 ESCAPE",
		"display_name ILIKE $3 ESCAPE",
		"user_selected_date >= $4 AND user_selected_date < $5",
	} {
		if !strings.Contains(where, want) {
			t.Fatalf("where missing %q: %s", want, where)
		}
	}

	start := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	want := []any{"%smith%", "%john%", "%deed%", start, start.Add(24 * time.Hour)}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("args = %#v, want %#v", args, want)
	}
}

func TestLikePatternEscapesMetacharacters(t *testing.T) {
	cases := map[string]string{
		"smith":  "%smith%",
		"100%":   `%100\%%`,
		"plot_7": `%plot\_7%`,
		`a\b`:    `%a\\b%`,
	}
	for in, want := range cases {
		if got := likePattern(in); got != want {
			t.Fatalf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchesTreatsPercentLiterally(t *testing.T) {
	f := File{DisplayName: "Deed 100% paid", GuardianName: "x", Address: "y"}
	if !matches(f, Filters{Search: "100%"}) {
		t.Fatalf("expected literal match")
	}
	if matches(f, Filters{Search: "1%0"}) {
		t.Fatalf("percent must not act as a wildcard")
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2024-03-15T22:00:00-05:00")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if want := time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("ParseDay = %s, want %s", got, want)
	}
	if _, err := ParseDay("15/03/2024"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
