package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIGeneratorReturnsContent(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Model: "gpt-test"})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator() error = %v", err)
	}

	got, err := gen.Generate(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "hello" {
		t.Fatalf("Generate() = %q", got)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestOpenAIGeneratorSurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	gen, err := NewOpenAIGenerator(OpenAIConfig{BaseURL: server.URL, APIKey: "key", Model: "gpt-test"})
	if err != nil {
		t.Fatalf("NewOpenAIGenerator() error = %v", err)
	}
	if _, err := gen.Generate(context.Background(), "s", "u"); err == nil {
		t.Fatal("Generate() expected error")
	}
}

func TestOpenAIGeneratorValidatesConfig(t *testing.T) {
	if _, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "k", Model: "m"}); err == nil {
		t.Fatal("expected error for missing base URL")
	}
	if _, err := NewOpenAIGenerator(OpenAIConfig{BaseURL: "http://x", Model: "m"}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
