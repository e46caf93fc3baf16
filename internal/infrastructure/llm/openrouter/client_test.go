package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
)

func TestCompleteReturnsTrimmedContent(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  Invoice \n"}},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key", "test-model", Options{})
	reply, err := client.Complete(context.Background(), []domain.PromptMessage{
		{Role: "user", Content: "classify this"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "Invoice" {
		t.Fatalf("reply = %q", reply)
	}

	if captured["model"] != "test-model" {
		t.Fatalf("model = %v", captured["model"])
	}
	if captured["max_tokens"] != float64(defaultMaxTokens) {
		t.Fatalf("max_tokens = %v", captured["max_tokens"])
	}
	if captured["temperature"] != defaultTemperature {
		t.Fatalf("temperature = %v", captured["temperature"])
	}
}

func TestCompleteNoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "", "test-model", Options{})
	if _, err := client.Complete(context.Background(), []domain.PromptMessage{{Role: "user", Content: "hi"}}); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestCompleteHTTPErrorIsOracleKind(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "bad request"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := New(server.URL, "k", "m", Options{})
	_, err := client.Complete(context.Background(), []domain.PromptMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !domain.IsKind(err, domain.ErrOracle) {
		t.Fatalf("expected oracle error kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "bad request") {
		t.Fatalf("error should carry the response body, got %v", err)
	}
}

func TestCompleteRetryableStatusIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "k", "m", Options{})
	_, err := client.Complete(context.Background(), []domain.PromptMessage{{Role: "user", Content: "hi"}})
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error kind, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := New(server.URL, "k", "m", Options{})
	if _, err := client.Complete(context.Background(), []domain.PromptMessage{{Role: "user", Content: "hi"}}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
