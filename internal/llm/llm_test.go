package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPrompt(t *testing.T) {
	overall, ok := Prompt("overall")
	if !ok || !strings.Contains(overall, "combatRecord") {
		t.Fatalf("overall prompt missing or incomplete")
	}
	seasonal, ok := Prompt("seasonal")
	if !ok || !strings.Contains(seasonal, "seasonal_data") {
		t.Fatalf("seasonal prompt missing or incomplete")
	}
	if _, ok := Prompt("ranked"); ok {
		t.Fatalf("unexpected prompt for unknown kind")
	}
}

func TestPlaceholder(t *testing.T) {
	_, err := Placeholder{}.Extract(context.Background(), Request{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestImageDataURL(t *testing.T) {
	img := Image{MIMEType: "image/png", Data: []byte("hi")}
	if got := img.DataURL(); got != "data:image/png;base64,aGk=" {
		t.Fatalf("DataURL() = %q", got)
	}
}

func TestIsReasoningModel(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"gpt-5", true},
		{" GPT-5-mini ", true},
		{"o3-2025-04-16", true},
		{"o4-mini", true},
		{"gpt-4o", false},
		{"gpt-4o-mini", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsReasoningModel(tt.model); got != tt.want {
			t.Fatalf("IsReasoningModel(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
