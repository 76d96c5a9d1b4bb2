package util

import (
	"strings"
	"testing"
)

func TestHashUserKey(t *testing.T) {
	id := "google:12345"
	got := HashUserKey(id)
	if got != HashUserKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
}

func TestOwnerNamespace(t *testing.T) {
	if got := OwnerNamespace("  "); got != AnonymousNamespace {
		t.Fatalf("blank owner = %q", got)
	}
	if got := OwnerNamespace(" google:1 "); got != HashUserKey("google:1") {
		t.Fatalf("owner namespace not trimmed: %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "profile.png", want: "profile.png"},
		{in: "  stats.jpg ", want: "stats.jpg"},
		{in: "dir/shot.png", want: "dir_shot.png"},
		{in: `win\shot.png`, want: "win_shot.png"},
		{in: "my shot\t1.png", want: "my_shot_1.png"},
		{in: strings.Repeat("a", 120) + ".png", want: strings.Repeat("a", 96) + ".png"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
