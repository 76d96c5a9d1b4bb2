package local

import (
	"bytes"
	"context"
	"io"
	"testing"
)

func TestPutAndOpen(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "screenshots/anonymous/b1/0_profile.png", "image/png", bytes.NewReader([]byte("png")))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 bytes written, got %d", n)
	}

	rc, err := store.Open(ctx, "screenshots/anonymous/b1/0_profile.png")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "png" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../escape", "/etc/passwd", "", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, "image/png", bytes.NewReader(nil)); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
