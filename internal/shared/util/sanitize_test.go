package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "stub.pdf", want: "stub.pdf"},
		{in: "  2023 W-2.pdf ", want: "2023 W-2.pdf"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\Users\jane\scan.png`, want: "scan.png"},
		{in: "tax\x00return\n.pdf", want: "taxreturn.pdf"},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "   ", "..", "/", "a/.."} {
		if _, err := SanitizeFileName(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("é", 300) + ".pdf")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if len(got) > maxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", maxFileNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".pdf") || !strings.HasPrefix(got, "é") {
		t.Fatalf("unexpected truncation %q", got)
	}
}
