package object

import (
	"io"
	"strings"
	"testing"
	"time"
)

func TestStoredNameIsPrefixedAndSanitized(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a, err := StoredName(now, "scans/deed.pdf")
	if err != nil {
		t.Fatalf("StoredName: %v", err)
	}
	b, _ := StoredName(now, "scans/deed.pdf")
	if a == b {
		t.Fatalf("expected distinct names for the same instant, got %q twice", a)
	}
	if !strings.HasPrefix(a, "1700000000123-") || !strings.HasSuffix(a, "-deed.pdf") {
		t.Fatalf("unexpected stored name %q", a)
	}
	if _, err := StoredName(now, "../secret"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestSniffReplaysBytes(t *testing.T) {
	payload := "%PDF-1.7\n" + strings.Repeat("x", 5000)
	mime, r, err := Sniff(strings.NewReader(payload))
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if mime != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", mime)
	}
	got, _ := io.ReadAll(r)
	if string(got) != payload {
		t.Fatalf("sniffed reader lost bytes: got %d want %d", len(got), len(payload))
	}
}
