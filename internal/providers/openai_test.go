package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIClient_Caption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": `{"title": "server rack", "tags": ["#server", "#rack", "#hardware"]}`,
				},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})
	caption, err := c.Caption(context.Background(), encodePNG(t, 100, 100))
	if err != nil {
		t.Fatalf("Caption() error = %v", err)
	}
	if caption.Title != "server rack" {
		t.Errorf("Title = %q", caption.Title)
	}
	if len(caption.Tags) != 3 || caption.Tags[2] != "#hardware" {
		t.Errorf("Tags = %v", caption.Tags)
	}
}

func TestNewOpenAIClient_Defaults(t *testing.T) {
	c := NewOpenAIClient(OpenAIConfig{APIKey: "k"})
	if c.Name() != OpenAIName {
		t.Errorf("Name() = %q", c.Name())
	}
	if c.model != openAIDefaultModel {
		t.Errorf("model = %q", c.model)
	}
	if c.RequestsPerSecond() != 2.0 || c.MaxRetries() != 3 {
		t.Errorf("rate limit defaults = %v / %d", c.RequestsPerSecond(), c.MaxRetries())
	}
}
