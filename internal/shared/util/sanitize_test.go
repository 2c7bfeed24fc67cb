package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "deed.pdf", want: "deed.pdf"},
		{in: "  scans/2024/deed.pdf ", want: "deed.pdf"},
		{in: `C:\scans\deed.pdf`, want: "deed.pdf"},
		{in: "line\nbreak.txt", want: "line_break.txt"},
		{in: "../etc/passwd", want: "passwd"},
		{in: "deed..v2.pdf", want: "deed..v2.pdf"},
		{in: "..", wantErr: true},
		{in: "scans/..", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "/", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameTruncatesKeepingExtension(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("a", 400) + ".pdf")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if len(got) != maxFileNameLen || !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("unexpected truncation: len=%d suffix=%q", len(got), got[len(got)-4:])
	}
}
