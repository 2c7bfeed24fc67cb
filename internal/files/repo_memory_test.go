package files

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepoBreaksTimestampTiesNumerically(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	for _, f := range []File{
		{ID: "a", DisplayName: "A", RegistryNumber: "1000", UploadedAt: at},
		{ID: "b", DisplayName: "B", RegistryNumber: "999", UploadedAt: at},
		{ID: "c", DisplayName: "C", RegistryNumber: "legacy", UploadedAt: at},
		{ID: "d", DisplayName: "D", RegistryNumber: "998", UploadedAt: at.Add(-time.Minute)},
	} {
		if err := repo.Create(ctx, f); err != nil {
			t.Fatalf("Create %s: %v", f.ID, err)
		}
	}

	list, err := repo.Query(ctx, Filters{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	var got []string
	for _, f := range list {
		got = append(got, f.RegistryNumber)
	}
	want := []string{"1000", "999", "legacy", "998"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	latest, err := repo.LatestRegistryNumber(ctx)
	if err != nil || latest != "1000" {
		t.Fatalf("LatestRegistryNumber = %q, %v", latest, err)
	}
}
