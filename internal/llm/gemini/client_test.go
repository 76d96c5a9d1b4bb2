package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codm-backend/internal/llm"
)

func TestExtractSendsPromptAndImages(t *testing.T) {
	var body map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"profile\":{}}"}]}}],
			"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":5,"totalTokenCount":15}}`)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), Options{APIKey: "test", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := client.Extract(context.Background(), llm.Request{
		Kind:   "overall",
		Prompt: "read the stats",
		Images: []llm.Image{
			{MIMEType: "image/png", Data: []byte("png-bytes")},
			{MIMEType: "image/jpeg", Data: []byte("jpg-bytes")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"profile":{}}`, out)
	assert.True(t, strings.HasSuffix(path, "models/gemini-2.5-flash:generateContent"), path)

	contents := body["contents"].([]any)
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 3)
	assert.Equal(t, "read the stats", parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	assert.Equal(t, "image/png", inline["mimeType"])
}

func TestExtractUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), Options{APIKey: "test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Extract(context.Background(), llm.Request{Prompt: "p"})
	assert.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	assert.Error(t, err)
}
