// Package llm defines the contract with the multimodal model that reads
// screenshots and returns an analysis document.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// ErrNotConfigured is returned by the placeholder extractor.
var ErrNotConfigured = errors.New("llm provider not configured")

// Image is one inlined screenshot.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a base64 data URL.
func (i Image) DataURL() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Request is a single extraction call: one instruction plus the images.
type Request struct {
	Kind   string
	Prompt string
	Images []Image
}

// Extractor sends a request to a provider and returns the raw model text.
// Implementations make exactly one attempt.
type Extractor interface {
	Extract(ctx context.Context, req Request) (string, error)
}

// Placeholder is used when no provider credentials are configured.
type Placeholder struct{}

// Extract returns ErrNotConfigured.
func (Placeholder) Extract(context.Context, Request) (string, error) {
	return "", ErrNotConfigured
}

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// IsReasoningModel reports whether model takes max_completion_tokens instead
// of max_tokens.
func IsReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}
