package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knosis/internal/domain"
)

func TestGenerator_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		var req struct {
			Model       string  `json:"model"`
			Temperature float32 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.MaxTokens != 256 {
			t.Errorf("max_tokens = %d, want 256", req.MaxTokens)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("roles = %q, %q", req.Messages[0].Role, req.Messages[1].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "generated text"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	msgs := []domain.ChatMessage{
		domain.NewChatMessage(domain.RoleSystem, "you are helpful", nil),
		domain.NewChatMessage(domain.RoleUser, "hello", nil),
	}

	out, err := gen.Complete(context.Background(), msgs, 0.7, 256)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != "generated text" {
		t.Errorf("output = %q", out)
	}
}

func TestGenerator_APIErrorWrapsSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "model on fire"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := gen.Complete(context.Background(), []domain.ChatMessage{
		domain.NewChatMessage(domain.RoleUser, "hello", nil),
	}, 0.7, 100)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("error = %v, want ErrGenerationFailed", err)
	}
}

func TestGenerator_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	gen := NewGenerator(&GeneratorConfig{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	_, err := gen.Complete(context.Background(), []domain.ChatMessage{
		domain.NewChatMessage(domain.RoleUser, "hello", nil),
	}, 0.7, 100)
	if !errors.Is(err, domain.ErrGenerationFailed) {
		t.Errorf("error = %v, want ErrGenerationFailed", err)
	}
}
