package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"registry-backend/internal/shared/storage/object"
)

func TestSaveOpenExistsDelete(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())

	obj, err := store.Save(ctx, "admin-1", "deed.txt", strings.NewReader("hello registry"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if obj.Size != int64(len("hello registry")) {
		t.Fatalf("unexpected size %d", obj.Size)
	}
	if !strings.HasPrefix(obj.MimeType, "text/plain") {
		t.Fatalf("unexpected mime %q", obj.MimeType)
	}
	if !strings.HasSuffix(obj.Key, "/"+obj.StoredName) {
		t.Fatalf("key %q should end with stored name %q", obj.Key, obj.StoredName)
	}

	ok, err := store.Exists(ctx, obj.Key)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v; want true", ok, err)
	}

	rc, err := store.Open(ctx, obj.Key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello registry" {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, obj.Key); err != nil {
		t.Fatalf("second Delete should be a no-op: %v", err)
	}
	if _, err := store.Open(ctx, obj.Key); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSaveNeverReusesNames(t *testing.T) {
	ctx := context.Background()
	store := New(t.TempDir())
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		obj, err := store.Save(ctx, "admin-1", "same.pdf", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		if seen[obj.Key] {
			t.Fatalf("duplicate key %q", obj.Key)
		}
		seen[obj.Key] = true
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store := New(t.TempDir())
	if _, err := store.Open(context.Background(), "../outside"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := store.Exists(context.Background(), "/etc/passwd"); err == nil {
		t.Fatalf("expected absolute key to be rejected")
	}
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := New(t.TempDir())
	if _, err := store.Save(ctx, "admin-1", "deed.txt", strings.NewReader("x")); err == nil {
		t.Fatalf("expected cancelled save to fail")
	}
}
