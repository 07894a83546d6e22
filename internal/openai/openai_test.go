package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/thesis-ner/internal/providers"
)

func TestExtractTextWithImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected authorization %q", got)
		}
		var body struct {
			Messages []struct {
				Content []map[string]interface{} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if len(body.Messages) != 1 || len(body.Messages[0].Content) != 2 {
			t.Fatalf("Expected text and image parts, got %+v", body)
		}
		image, _ := body.Messages[0].Content[1]["image_url"].(map[string]interface{})
		if url, _ := image["url"].(string); !strings.HasPrefix(url, "data:image/png;base64,") {
			t.Errorf("Expected png data URL, got %q", url)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ALICE SMITH"}}]}`))
	}))
	defer server.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", server.URL+"/v1")

	text, err := New().ExtractText(context.Background(), providers.Config{
		Model:  "gpt-4o",
		Prompt: "read",
		Image:  []byte("png"),
	})
	if err != nil {
		t.Fatalf("ExtractText failed: %v", err)
	}
	if text != "ALICE SMITH" {
		t.Errorf("Expected ALICE SMITH, got %q", text)
	}
}

func TestExtractTextNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", server.URL)

	if _, err := New().ExtractText(context.Background(), providers.Config{Prompt: "read"}); err == nil {
		t.Error("Expected error when no choices are returned")
	}
}

func TestExtractTextMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := New().ExtractText(context.Background(), providers.Config{}); err == nil {
		t.Error("Expected error without API key")
	}
}
